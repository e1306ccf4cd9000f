// Package inherit implements the Inheritance Resolver stage: determining
// each structure's place in FHIR's virtual inheritance tree (core resource,
// domain resource, profile) and the BaseAccess chain the Trait Emitter needs
// to reach an inherited field.
package inherit

import (
	"strings"

	"github.com/hl7gen/fhirgen/internal/codegen/model"
)

const (
	urlResource       = "http://hl7.org/fhir/StructureDefinition/Resource"
	urlDomainResource = "http://hl7.org/fhir/StructureDefinition/DomainResource"
	fhirStructurePrefix = "http://hl7.org/fhir/StructureDefinition/"
)

// defaultProfileFamilies is a hardcoded fallback table: profile families
// whose base StructureDefinition is not loaded in a given run still resolve
// to their canonical resource type instead of falling through to
// UnknownBaseDefinition. The US Core vital-signs profiles are the common
// case; this list is not exhaustive.
var defaultProfileFamilies = map[string]string{
	"vitalsigns": "Observation",
	"bodyweight": "Observation",
	"bodyheight": "Observation",
	"bmi":        "Observation",
	"bodytemp":   "Observation",
	"heartrate":  "Observation",
	"resprate":   "Observation",
	"oxygensat":  "Observation",
}

// BaseAccess describes how a generated trait method reaches a field it
// inherited from an ancestor structure: either by walking Depth "base"
// compositions directly, or by delegating to the base's own trait method
// when the structure is a profile of another HL7 StructureDefinition other
// than Resource/DomainResource (ViaTrait).
type BaseAccess struct {
	Depth   int
	ViaTrait bool
}

// Resolver answers whether a structure is a core resource, a domain
// resource, and what its ultimate core resource type is, and computes
// BaseAccess chains. It is built once over every loaded StructureDefinition
// and is read-only thereafter.
type Resolver struct {
	byURL         map[string]*model.StructureDefinition
	byFinalSeg    map[string]string // lowercased final URL segment -> canonical resource type
	knownProfiles map[string]string // operator-supplied override, takes precedence over defaultProfileFamilies
}

// NewResolver builds a Resolver over definitions, merging any
// operator-supplied known-profile overrides (Config.KnownProfileMap) with
// the built-in fallback table.
func NewResolver(definitions []*model.StructureDefinition, knownProfileMap map[string]string) *Resolver {
	r := &Resolver{
		byURL:         make(map[string]*model.StructureDefinition, len(definitions)),
		byFinalSeg:    make(map[string]string, len(definitions)),
		knownProfiles: make(map[string]string, len(defaultProfileFamilies)+len(knownProfileMap)),
	}
	for k, v := range defaultProfileFamilies {
		r.knownProfiles[k] = v
	}
	for k, v := range knownProfileMap {
		r.knownProfiles[strings.ToLower(k)] = v
	}
	for _, sd := range definitions {
		r.byURL[sd.URL] = sd
		if sd.IsResource() && !sd.Abstract {
			r.byFinalSeg[strings.ToLower(sd.Name)] = sd.Name
		}
	}
	return r
}

// IsCoreResource reports whether sd's base_definition resolves directly to
// Resource or DomainResource.
func (r *Resolver) IsCoreResource(sd *model.StructureDefinition) bool {
	return sd.BaseDefinition == urlResource || sd.BaseDefinition == urlDomainResource
}

// IsDomainResource reports whether sd is, transitively, a DomainResource:
// either its own base_definition is DomainResource, or its base resolves
// (by walking the loaded index) to one.
func (r *Resolver) IsDomainResource(sd *model.StructureDefinition) bool {
	seen := make(map[string]bool)
	for cur := sd; cur != nil; {
		if cur.BaseDefinition == urlDomainResource {
			return true
		}
		if cur.BaseDefinition == urlResource {
			return false
		}
		if seen[cur.URL] {
			return false // cyclic base chain in malformed input; never loop forever
		}
		seen[cur.URL] = true
		parent, ok := r.byURL[cur.BaseDefinition]
		if !ok {
			return false
		}
		cur = parent
	}
	return false
}

// ResolveCoreResourceType walks a structure's base_definition chain to find
// the ultimate core FHIR resource type a profile (possibly of a profile)
// narrows. At each step of the walk it tries (a) the known-resource-type
// table, (b) the known-profile-family override table, (c) the
// StructureDefinition index, moving to the parent's base; (d) when the
// parent is not loaded it gives up and returns the segment unchanged.
func (r *Resolver) ResolveCoreResourceType(sd *model.StructureDefinition) string {
	if r.IsCoreResource(sd) {
		return sd.Name
	}

	segment := finalSegment(sd.BaseDefinition)
	if segment == "" {
		return sd.Name
	}

	seen := map[string]bool{sd.URL: true}
	cur := segment
	curURL := sd.BaseDefinition
	for {
		if canonical, ok := r.byFinalSeg[strings.ToLower(cur)]; ok {
			return canonical
		}
		if canonical, ok := r.knownProfiles[strings.ToLower(cur)]; ok {
			return canonical
		}
		parent, ok := r.byURL[curURL]
		if !ok || seen[parent.URL] {
			return cur // UnknownBaseDefinition: fall back to the last segment as-is
		}
		seen[parent.URL] = true
		if r.IsCoreResource(parent) {
			return parent.Name
		}
		cur = finalSegment(parent.BaseDefinition)
		curURL = parent.BaseDefinition
		if cur == "" {
			return parent.Name
		}
	}
}

// LookupByURL returns the loaded StructureDefinition for url, if any.
func (r *Resolver) LookupByURL(url string) (*model.StructureDefinition, bool) {
	sd, ok := r.byURL[url]
	return sd, ok
}

// IsKnownBaseDefinition reports whether sd.BaseDefinition resolves to a
// loaded StructureDefinition, the Resource/DomainResource roots, or is
// simply absent (root structures have no base). A false result is the
// trigger condition for the UnknownBaseDefinition diagnostic.
func (r *Resolver) IsKnownBaseDefinition(sd *model.StructureDefinition) bool {
	if sd.BaseDefinition == "" || sd.BaseDefinition == urlResource || sd.BaseDefinition == urlDomainResource {
		return true
	}
	_, ok := r.byURL[sd.BaseDefinition]
	return ok
}

// BaseAccessFor computes the BaseAccess chain a generated trait method on sd
// must use to reach a field declared at a given ancestor level: a structure
// whose base_definition is an HL7 core URL (Resource/DomainResource) is
// reached by direct depth-based composition; a structure whose
// base_definition is any other named-resource URL (a profile) delegates
// through the base's own trait method.
func (r *Resolver) BaseAccessFor(sd *model.StructureDefinition) BaseAccess {
	switch {
	case sd.Name == "Resource":
		return BaseAccess{Depth: 0}
	case sd.Name == "DomainResource":
		return BaseAccess{Depth: 1}
	case sd.BaseDefinition == urlDomainResource:
		return BaseAccess{Depth: 2}
	case sd.BaseDefinition == urlResource:
		return BaseAccess{Depth: 1}
	case strings.HasPrefix(sd.BaseDefinition, fhirStructurePrefix):
		return BaseAccess{ViaTrait: true}
	default:
		return BaseAccess{Depth: 2}
	}
}

func finalSegment(url string) string {
	if url == "" {
		return ""
	}
	idx := strings.LastIndex(url, "/")
	if idx < 0 {
		return url
	}
	return url[idx+1:]
}
