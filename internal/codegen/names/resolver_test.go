package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hl7gen/fhirgen/internal/codegen/model"
)

func TestResolver_StructName(t *testing.T) {
	r := NewResolver(SuffixUnderscore)
	sd := &model.StructureDefinition{Name: "Patient", URL: "http://hl7.org/fhir/StructureDefinition/Patient"}
	assert.Equal(t, "Patient", r.StructName(sd))
}

func TestResolver_BackboneStructName(t *testing.T) {
	r := NewResolver(SuffixUnderscore)
	assert.Equal(t, "PatientContact", r.BackboneStructName("Patient.contact"))
	assert.Equal(t, "AuditEventAgentNetwork", r.BackboneStructName("AuditEvent.agent.network"))
}

func TestResolver_Disambiguate_NoCollision(t *testing.T) {
	r := NewResolver(SuffixUnderscore)
	a := r.Disambiguate("Foo", "A.foo")
	b := r.Disambiguate("Bar", "A.bar")
	assert.Equal(t, "Foo", a)
	assert.Equal(t, "Bar", b)
}

func TestResolver_Disambiguate_Collision(t *testing.T) {
	r := NewResolver(SuffixUnderscore)
	first := r.Disambiguate("FooBar", "A.foo.bar")
	second := r.Disambiguate("FooBar", "A.foobar")

	require.NotEqual(t, first, second)
	assert.Equal(t, "FooBar", first)
	assert.Contains(t, second, "FooBar_")

	// Deterministic: resolving the same collision again from a fresh
	// resolver yields the identical suffix.
	r2 := NewResolver(SuffixUnderscore)
	_ = r2.Disambiguate("FooBar", "A.foo.bar")
	again := r2.Disambiguate("FooBar", "A.foobar")
	assert.Equal(t, second, again)
}

func TestResolver_Disambiguate_NeverPanics(t *testing.T) {
	r := NewResolver(SuffixUnderscore)
	assert.NotPanics(t, func() {
		for i := 0; i < 50; i++ {
			r.Disambiguate("Same", "path-a")
			r.Disambiguate("Same", "path-b")
		}
	})
}

func TestResolver_FieldName_ReservedWord(t *testing.T) {
	r := NewResolver(SuffixUnderscore)
	field, json := r.FieldName("type")
	assert.Equal(t, "Type_", field)
	assert.Equal(t, "type", json, "serialization name preserves original FHIR spelling")

	r2 := NewResolver(PrefixK)
	field2, json2 := r2.FieldName("type")
	assert.Equal(t, "KType", field2)
	assert.Equal(t, "type", json2)
}

func TestResolver_FieldName_Ordinary(t *testing.T) {
	r := NewResolver(SuffixUnderscore)
	field, json := r.FieldName("birthDate")
	assert.Equal(t, "BirthDate", field)
	assert.Equal(t, "birthDate", json)
}

func TestVariantName(t *testing.T) {
	assert.Equal(t, "Male", VariantName("male"))
	assert.Equal(t, "NotDone", VariantName("not-done"))
	assert.Equal(t, "V_1Day", VariantName("1-day"))
}

func TestChoiceFieldName(t *testing.T) {
	field, json := ChoiceFieldName("deceased", "boolean")
	assert.Equal(t, "DeceasedBoolean", field)
	assert.Equal(t, "deceasedBoolean", json)

	field2, json2 := ChoiceFieldName("deceased", "dateTime")
	assert.Equal(t, "DeceasedDateTime", field2)
	assert.Equal(t, "deceasedDateTime", json2)
}

func TestTraitModule(t *testing.T) {
	assert.Equal(t, "patient", TraitModule("Patient"))
	assert.Equal(t, "vital_signs", TraitModule("VitalSigns"))
}
