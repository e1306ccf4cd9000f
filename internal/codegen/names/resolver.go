// Package names implements the Name Resolver stage: turning FHIR's
// camelCase JSON keys and PascalCase type names into valid, collision-free
// target-language identifiers.
package names

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/hl7gen/fhirgen/internal/codegen/model"
)

// ReservedWordPolicy controls how an identifier that collides with a
// target-language keyword is escaped.
type ReservedWordPolicy int

const (
	// SuffixUnderscore escapes a reserved word by appending "_" (e.g. "type" -> "type_").
	SuffixUnderscore ReservedWordPolicy = iota
	// PrefixK escapes a reserved word by prepending "K" (e.g. "type" -> "KType"), Go style.
	PrefixK
)

// reservedWords are identifiers that collide with keywords in at least one
// of the five supported target languages (Go, Rust, C++, TypeScript,
// Python); the resolver escapes them regardless of which target a run
// picked, so the generated field name is always safe to rename into any of
// them later.
var reservedWords = map[string]bool{
	"type": true, "class": true, "import": true, "package": true,
	"interface": true, "const": true, "var": true, "func": true,
	"struct": true, "return": true, "for": true, "if": true, "else": true,
	"switch": true, "case": true, "default": true, "range": true,
	"break": true, "continue": true, "fn": true, "let": true, "mut": true,
	"impl": true, "trait": true, "enum": true, "pub": true, "use": true,
	"mod": true, "async": true, "await": true, "yield": true, "def": true,
	"lambda": true, "pass": true, "global": true, "nonlocal": true,
	"namespace": true, "template": true, "typename": true, "export": true,
}

// Resolver canonicalizes FHIR identifiers and disambiguates names that would
// otherwise collide. A zero-value Resolver is usable directly.
type Resolver struct {
	Policy ReservedWordPolicy

	seen map[string]string // target name -> the FHIR path/URL that claimed it first
}

// NewResolver creates a Resolver with the given reserved-word policy.
func NewResolver(policy ReservedWordPolicy) *Resolver {
	return &Resolver{Policy: policy, seen: make(map[string]string)}
}

// StructName returns the target record name for a StructureDefinition: its
// FHIR Name unchanged for resources, datatypes, and primitives. Nested
// backbones never reach this method; see BackboneStructName.
func (r *Resolver) StructName(sd *model.StructureDefinition) string {
	return r.Disambiguate(sd.Name, sd.URL)
}

// BackboneStructName returns the sibling record name for a backbone element
// at the given dotted path, by title-casing and concatenating every segment,
// the structure's own root included: "Patient.contact.name" -> "PatientContactName".
func (r *Resolver) BackboneStructName(path string) string {
	segments := strings.Split(path, ".")
	var b strings.Builder
	for _, seg := range segments {
		seg = strings.TrimSuffix(seg, "[x]")
		b.WriteString(toPascalCase(seg))
	}
	return r.Disambiguate(b.String(), path)
}

// Disambiguate records that name was requested by source and, if another
// source already claimed it, appends a stable hash-derived suffix so the two
// resulting names differ. For any two distinct FHIR identifiers, the
// generated names differ; collisions are rare but must never panic.
func (r *Resolver) Disambiguate(name, source string) string {
	if r.seen == nil {
		r.seen = make(map[string]string)
	}
	claimedBy, exists := r.seen[name]
	if !exists || claimedBy == source {
		r.seen[name] = source
		return name
	}
	disambiguated := fmt.Sprintf("%s_%s", name, stableSuffix(source))
	r.seen[disambiguated] = source
	return disambiguated
}

// stableSuffix derives a short, deterministic disambiguator from a full
// path or URL so reruns of the pipeline over the same input produce
// byte-identical output.
func stableSuffix(source string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(source))
	return fmt.Sprintf("%08x", h.Sum32())[:6]
}

// FieldName converts a camelCase FHIR element name into a target field name
// and its JSON serialization name. The serialization name always preserves
// the original FHIR spelling, even when the field name itself is escaped for
// a reserved word, so the wire format is unaffected by the escape.
func (r *Resolver) FieldName(fhirName string) (fieldName, jsonName string) {
	jsonName = fhirName
	base := toPascalCase(fhirName)
	if reservedWords[fhirName] {
		switch r.Policy {
		case PrefixK:
			base = "K" + base
		default:
			base = base + "_"
		}
	}
	return base, jsonName
}

// VariantName converts a value-set code into a target enum variant name,
// splitting on non-alphanumeric runs and title-casing each segment. A
// variant name that would start with a digit is prefixed "V_" so it remains
// a valid identifier in every target language. The original code string is
// preserved by the caller as the variant's serialization attribute.
func VariantName(code string) string {
	var segments []string
	var current strings.Builder
	for _, r := range code {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else if current.Len() > 0 {
			segments = append(segments, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		segments = append(segments, current.String())
	}

	var b strings.Builder
	for _, seg := range segments {
		b.WriteString(toPascalCase(seg))
	}
	name := b.String()
	if name == "" {
		name = "Unknown"
	}
	if unicode.IsDigit(rune(name[0])) {
		name = "V_" + name
	}
	return name
}

// TraitModule returns the snake_case namespace a structure's capability
// interfaces live under, e.g. "Patient" -> "patient", "VitalSigns" ->
// "vital_signs".
func TraitModule(structName string) string {
	return toSnakeCase(structName)
}

// ChoiceFieldName builds the field name and JSON name for one variant of a
// choice-type fan-out: "deceased" + "boolean" -> ("DeceasedBoolean", "deceasedBoolean").
func ChoiceFieldName(baseName, fhirTypeCode string) (fieldName, jsonName string) {
	fieldName = toPascalCase(baseName) + toPascalCase(fhirTypeCode)
	jsonName = toLowerFirst(baseName) + toPascalCase(fhirTypeCode)
	return fieldName, jsonName
}

func toPascalCase(s string) string {
	if s == "" {
		return ""
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func toLowerFirst(s string) string {
	if s == "" {
		return ""
	}
	runes := []rune(s)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
