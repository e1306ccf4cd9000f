// Package typemap implements the Type Mapper stage: mapping an element's
// type[], binding, and cardinality to a TargetType.
package typemap

import (
	"strconv"
	"strings"

	"github.com/hl7gen/fhirgen/internal/codegen/ir"
	"github.com/hl7gen/fhirgen/internal/codegen/model"
)

// ComplexTypeNames are FHIR complex datatypes the mapper recognizes as
// Complex(name) rather than falling through to the caller's own
// resource/backbone-name space. Names not in this set still map to
// Complex(name); the set only documents which ones are "known" FHIR
// datatypes versus forward references to sibling resources/backbones.
var complexTypeNames = map[string]bool{
	"Element": true, "BackboneElement": true, "Resource": true, "DomainResource": true,
	"Address": true, "Age": true, "Annotation": true, "Attachment": true,
	"CodeableConcept": true, "CodeableReference": true, "Coding": true,
	"ContactDetail": true, "ContactPoint": true, "Contributor": true, "Count": true,
	"DataRequirement": true, "Distance": true, "Dosage": true, "Duration": true,
	"Expression": true, "Extension": true, "HumanName": true, "Identifier": true,
	"Meta": true, "Money": true, "MoneyQuantity": true, "Narrative": true,
	"ParameterDefinition": true, "Period": true, "Population": true,
	"ProdCharacteristic": true, "ProductShelfLife": true, "Quantity": true,
	"Range": true, "Ratio": true, "RatioRange": true, "RelatedArtifact": true,
	"SampledData": true, "Signature": true, "SimpleQuantity": true, "Timing": true,
	"TriggerDefinition": true, "UsageContext": true, "Availability": true,
	"ExtendedContactDetail": true, "VirtualServiceDetail": true, "MarketingStatus": true,
}

// IsKnownComplexType reports whether name is a recognized FHIR complex
// datatype (as opposed to a sibling resource or backbone reference).
func IsKnownComplexType(name string) bool { return complexTypeNames[name] }

// ChoiceVariant is one materialized sibling field request produced when an
// element's path ends "[x]". The Structure Emitter turns each variant into
// a TargetField.
type ChoiceVariant struct {
	FHIRType string
	Type     ir.TargetType
}

// ChoiceExpansion is the "no single type" result step 2 produces: a
// path-prefix plus one variant per declared type[] entry.
type ChoiceExpansion struct {
	PathPrefix string
	Variants   []ChoiceVariant
}

// MapResult is the Type Mapper's output for one element: exactly one of
// Type or Choice is populated, plus any warning raised along the way.
// Warning is set when type[] is empty, when the first type code is empty,
// or when several type[] entries are present and the first is a complex
// type; an unrecognized non-primitive code maps to Complex(code) without a
// warning.
type MapResult struct {
	Type    ir.TargetType
	Choice  *ChoiceExpansion
	Warning string
}

// Mapper resolves FHIR types to TargetTypes, consulting a ValueSetIndex for
// required-strength enum bindings.
type Mapper struct {
	ValueSets *model.ValueSetIndex
	// MaxEnumSize bounds how large a required-binding ValueSet may be before
	// the mapper gives up on emitting an enum and falls back to a plain
	// string: a thousand-code enum is unusable as a target-language type.
	MaxEnumSize int
}

// NewMapper creates a Mapper over valueSets with a default enum size cap of
// 100 codes.
func NewMapper(valueSets *model.ValueSetIndex) *Mapper {
	return &Mapper{ValueSets: valueSets, MaxEnumSize: 100}
}

// MapElement maps one element's type[], binding, and cardinality to a
// TargetType. Non-primitive codes other than Reference map to Complex(code)
// with the code unchanged, whether or not it is a recognized FHIR datatype.
func (m *Mapper) MapElement(elem *model.ElementDefinition) MapResult {
	// Step 2: choice type short-circuits before array-lift/optionality,
	// since each variant carries its own (always-pointer) type.
	if elem.IsChoiceType() {
		return m.mapChoice(elem)
	}

	return m.mapSingular(elem, elem.IsArray())
}

// mapSingular implements steps 1, 3-7 for a non-choice element.
func (m *Mapper) mapSingular(elem *model.ElementDefinition, isArray bool) MapResult {
	if isArray {
		inner := m.mapSingular(elem, false)
		elemType := inner.Type
		if elemType.Kind == ir.KindOptionOf && elemType.Inner != nil {
			elemType = *elemType.Inner
		}
		if elem.Min == 0 {
			return MapResult{Type: ir.OptionOf(ir.VecOf(elemType)), Warning: inner.Warning}
		}
		return MapResult{Type: ir.VecOf(elemType), Warning: inner.Warning}
	}

	// Required enum binding.
	if elem.Binding != nil && elem.Binding.Strength == model.BindingRequired {
		if enumName, ok := m.enumNameFor(elem); ok {
			// Required-binding enums are never Option-wrapped, even when
			// min==0; optionality is carried by the enum's default variant,
			// not by an outer Option.
			return MapResult{Type: ir.EnumRef(enumName)}
		}
	}

	if len(elem.Type) == 0 {
		return MapResult{Type: ir.Custom("String"), Warning: "empty type[] for " + elem.Path}
	}

	typeCode := elem.Type[0].Code
	var base ir.TargetType
	var warning string

	switch {
	case typeCode == "":
		base = ir.Custom("String")
		warning = "empty type code for " + elem.Path
	case func() bool { _, ok := PrimitiveKindFor(typeCode); return ok }():
		kind, _ := PrimitiveKindFor(typeCode)
		base = ir.Primitive(string(kind))
	case typeCode == "Reference":
		base = ir.Reference(elem.Type[0].TargetProfile)
	default:
		base = ir.Complex(typeCode)
		if len(elem.Type) > 1 {
			warning = "multiple type[] entries at " + elem.Path + "; using first (" + typeCode + ")"
		}
	}

	if elem.Min == 0 && base.Kind != ir.KindVecOf {
		return MapResult{Type: ir.OptionOf(base), Warning: warning}
	}
	return MapResult{Type: base, Warning: warning}
}

// mapChoice fans a choice-typed element out: every declared type produces
// one always-pointer variant.
func (m *Mapper) mapChoice(elem *model.ElementDefinition) MapResult {
	if len(elem.Type) == 0 {
		// ChoiceWithoutTypes: fatal for the affected structure, since a
		// choice element with no declared type[] yields no variants at all.
		// The Mapper itself cannot abort generation (that's a
		// structure-level decision for the Structure Emitter); it signals
		// the condition via an empty Choice so the caller can detect and
		// propagate the fatal diagnostic.
		return MapResult{Choice: &ChoiceExpansion{PathPrefix: elem.BaseName()}}
	}

	expansion := &ChoiceExpansion{PathPrefix: elem.BaseName()}
	for _, t := range elem.Type {
		var inner ir.TargetType
		if kind, ok := PrimitiveKindFor(t.Code); ok {
			inner = ir.Primitive(string(kind))
		} else if t.Code == "Reference" {
			inner = ir.Reference(t.TargetProfile)
		} else {
			inner = ir.Complex(t.Code)
		}
		expansion.Variants = append(expansion.Variants, ChoiceVariant{
			FHIRType: t.Code,
			Type:     ir.OptionOf(inner), // choice variants are always pointers
		})
	}
	return MapResult{Choice: expansion}
}

// enumNameFor resolves a required-strength code binding to an enum's
// qualified name, returning false if the bound ValueSet is unknown, not
// enumerable, or too large to materialize as an enum.
func (m *Mapper) enumNameFor(elem *model.ElementDefinition) (string, bool) {
	if m.ValueSets == nil || elem.Binding == nil || elem.Binding.ValueSet == "" {
		return "", false
	}
	codes := m.ValueSets.Codes(elem.Binding.ValueSet)
	if len(codes) == 0 || len(codes) > m.MaxEnumSize {
		return "", false
	}
	return SanitizeEnumName(elem.Binding.ValueSet), true
}

// SanitizeEnumName derives a Go-safe (and generally target-safe) type name
// from a ValueSet canonical URL, taking its final path segment and
// PascalCasing each hyphen/underscore-separated word.
func SanitizeEnumName(valueSetURL string) string {
	seg := valueSetURL
	if idx := strings.LastIndex(seg, "/"); idx >= 0 {
		seg = seg[idx+1:]
	}
	if idx := strings.Index(seg, "|"); idx >= 0 {
		seg = seg[:idx]
	}
	parts := strings.FieldsFunc(seg, func(r rune) bool {
		return r == '-' || r == '_' || r == '.'
	})
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		if len(p) > 1 {
			b.WriteString(p[1:])
		}
	}
	return b.String()
}

// ParseMax parses an ElementDefinition.Max string ("*", "0", "1", "2", ...)
// into an integer, with -1 signaling unbounded ("*").
func ParseMax(max string) int {
	if max == "*" {
		return -1
	}
	n, err := strconv.Atoi(max)
	if err != nil {
		return 1
	}
	return n
}
