package model

import "encoding/json"

// ValueSet is a FHIR ValueSet resource, trimmed to what the Type Mapper
// needs: its canonical URL and its enumerable codes.
type ValueSet struct {
	ResourceType string           `json:"resourceType"`
	URL          string           `json:"url"`
	Name         string           `json:"name"`
	Title        string           `json:"title"`
	Compose      *ValueSetCompose `json:"compose,omitempty"`
}

// ValueSetCompose defines which codes a ValueSet contains.
type ValueSetCompose struct {
	Include []ValueSetInclude `json:"include,omitempty"`
}

// ValueSetInclude is one "include" rule of a ValueSet's compose.
type ValueSetInclude struct {
	System  string    `json:"system,omitempty"`
	Concept []Concept `json:"concept,omitempty"`
}

// Concept is a single code (with optional display text) inside a ValueSet
// or CodeSystem.
type Concept struct {
	Code    string    `json:"code"`
	Display string    `json:"display,omitempty"`
	Concept []Concept `json:"concept,omitempty"`
}

// CodeSystem is a FHIR CodeSystem resource; ValueSets that enumerate by
// "system" reference resolve their codes here.
type CodeSystem struct {
	ResourceType string    `json:"resourceType"`
	URL          string    `json:"url"`
	Concept      []Concept `json:"concept,omitempty"`
}

// Code is a single enumerable value-set member, flattened from whatever
// compose rule produced it.
type Code struct {
	Code    string
	Display string
}

// ValueSetIndex is the read-only, addressable-by-URL table of ValueSets the
// Type Mapper consults for required bindings. Built once at load time.
type ValueSetIndex struct {
	byURL       map[string]*ValueSet
	codeSystems map[string]*CodeSystem
}

// NewValueSetIndex creates an index over the given ValueSets and CodeSystems.
func NewValueSetIndex(valueSets []*ValueSet, codeSystems []*CodeSystem) *ValueSetIndex {
	idx := &ValueSetIndex{
		byURL:       make(map[string]*ValueSet, len(valueSets)),
		codeSystems: make(map[string]*CodeSystem, len(codeSystems)),
	}
	for _, vs := range valueSets {
		idx.byURL[vs.URL] = vs
	}
	for _, cs := range codeSystems {
		idx.codeSystems[cs.URL] = cs
	}
	return idx
}

// Codes returns the enumerable codes for the ValueSet at url, or nil if the
// ValueSet is not indexed or enumerates no codes. Handles versioned URLs of
// the form "url|version" by falling back to the unversioned form.
func (idx *ValueSetIndex) Codes(url string) []Code {
	vs := idx.lookup(url)
	if vs == nil || vs.Compose == nil {
		return nil
	}

	var codes []Code
	for _, include := range vs.Compose.Include {
		if len(include.Concept) > 0 {
			codes = append(codes, flatten(include.Concept)...)
			continue
		}
		if cs, ok := idx.codeSystems[include.System]; ok {
			codes = append(codes, flatten(cs.Concept)...)
		}
	}
	return codes
}

func (idx *ValueSetIndex) lookup(url string) *ValueSet {
	if vs, ok := idx.byURL[url]; ok {
		return vs
	}
	for i := len(url) - 1; i >= 0; i-- {
		if url[i] == '|' {
			if vs, ok := idx.byURL[url[:i]]; ok {
				return vs
			}
			break
		}
	}
	return nil
}

func flatten(concepts []Concept) []Code {
	codes := make([]Code, 0, len(concepts))
	for _, c := range concepts {
		codes = append(codes, Code{Code: c.Code, Display: c.Display})
		if len(c.Concept) > 0 {
			codes = append(codes, flatten(c.Concept)...)
		}
	}
	return codes
}

// ParseValueSet decodes a single ValueSet from JSON.
func ParseValueSet(data []byte) (*ValueSet, error) {
	var vs ValueSet
	if err := json.Unmarshal(data, &vs); err != nil {
		return nil, err
	}
	return &vs, nil
}
