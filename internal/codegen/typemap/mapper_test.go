package typemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hl7gen/fhirgen/internal/codegen/ir"
	"github.com/hl7gen/fhirgen/internal/codegen/model"
)

func TestMapElement_PrimitiveOptionalScalar(t *testing.T) {
	m := NewMapper(nil)
	elem := &model.ElementDefinition{Path: "Patient.birthDate", Min: 0, Max: "1",
		Type: []model.TypeRef{{Code: "date"}}}

	res := m.MapElement(elem)
	require.Nil(t, res.Choice)
	assert.Equal(t, "Option<date>", res.Type.String())
}

func TestMapElement_RequiredScalarNotOptional(t *testing.T) {
	m := NewMapper(nil)
	elem := &model.ElementDefinition{Path: "AdverseEvent.actuality", Min: 1, Max: "1",
		Type: []model.TypeRef{{Code: "string"}}}

	res := m.MapElement(elem)
	assert.Equal(t, "string", res.Type.String())
}

func TestMapElement_ArrayMinZero(t *testing.T) {
	m := NewMapper(nil)
	elem := &model.ElementDefinition{Path: "Patient.name", Min: 0, Max: "*",
		Type: []model.TypeRef{{Code: "HumanName"}}}

	res := m.MapElement(elem)
	assert.Equal(t, "Option<Vec<HumanName>>", res.Type.String())
}

func TestMapElement_ArrayMinOneIsBareVec(t *testing.T) {
	m := NewMapper(nil)
	elem := &model.ElementDefinition{Path: "Bundle.entry", Min: 1, Max: "*",
		Type: []model.TypeRef{{Code: "BackboneElement"}}}

	res := m.MapElement(elem)
	assert.Equal(t, "Vec<BackboneElement>", res.Type.String())
}

func TestMapElement_Reference(t *testing.T) {
	m := NewMapper(nil)
	elem := &model.ElementDefinition{Path: "Observation.subject", Min: 0, Max: "1",
		Type: []model.TypeRef{{Code: "Reference", TargetProfile: []string{"Patient", "Group"}}}}

	res := m.MapElement(elem)
	require.Equal(t, ir.KindOptionOf, res.Type.Kind)
	assert.Equal(t, ir.KindReference, res.Type.Inner.Kind)
	assert.ElementsMatch(t, []string{"Patient", "Group"}, res.Type.Inner.Targets)
}

func TestMapElement_ChoiceFanOut(t *testing.T) {
	m := NewMapper(nil)
	elem := &model.ElementDefinition{Path: "Patient.deceased[x]", Min: 0, Max: "1",
		Type: []model.TypeRef{{Code: "boolean"}, {Code: "dateTime"}}}

	res := m.MapElement(elem)
	require.NotNil(t, res.Choice)
	require.Len(t, res.Choice.Variants, 2)
	assert.Equal(t, "deceased", res.Choice.PathPrefix)
	assert.Equal(t, "boolean", res.Choice.Variants[0].FHIRType)
	assert.Equal(t, "Option<bool>", res.Choice.Variants[0].Type.String())
	assert.Equal(t, "dateTime", res.Choice.Variants[1].FHIRType)
	assert.Equal(t, "Option<dateTime>", res.Choice.Variants[1].Type.String())
}

func TestMapElement_ChoiceWithoutTypesIsEmptyExpansion(t *testing.T) {
	m := NewMapper(nil)
	elem := &model.ElementDefinition{Path: "Foo.bar[x]", Min: 0, Max: "1"}

	res := m.MapElement(elem)
	require.NotNil(t, res.Choice)
	assert.Empty(t, res.Choice.Variants)
}

func TestMapElement_UnmappableTypeFallsBackToString(t *testing.T) {
	m := NewMapper(nil)
	elem := &model.ElementDefinition{Path: "Foo.bar", Min: 0, Max: "1"}

	res := m.MapElement(elem)
	assert.Equal(t, ir.KindCustom, res.Type.Kind)
	assert.Equal(t, "String", res.Type.Raw)
	assert.NotEmpty(t, res.Warning)
}

func TestMapElement_RequiredEnumBinding(t *testing.T) {
	vs := &model.ValueSet{
		URL: "http://hl7.org/fhir/ValueSet/event-status",
		Compose: &model.ValueSetCompose{Include: []model.ValueSetInclude{
			{Concept: []model.Concept{{Code: "preparation"}, {Code: "in-progress"}}},
		}},
	}
	idx := model.NewValueSetIndex([]*model.ValueSet{vs}, nil)
	m := NewMapper(idx)

	elem := &model.ElementDefinition{Path: "AdverseEvent.actuality", Min: 1, Max: "1",
		Type:    []model.TypeRef{{Code: "code"}},
		Binding: &model.Binding{Strength: model.BindingRequired, ValueSet: vs.URL}}

	res := m.MapElement(elem)
	require.Equal(t, ir.KindEnumRef, res.Type.Kind)
	assert.Equal(t, "EventStatus", res.Type.Name)
}

func TestMapElement_OversizedValueSetFallsBackToString(t *testing.T) {
	var concepts []model.Concept
	for i := 0; i < 150; i++ {
		concepts = append(concepts, model.Concept{Code: "c"})
	}
	vs := &model.ValueSet{
		URL:     "http://hl7.org/fhir/ValueSet/all-types",
		Compose: &model.ValueSetCompose{Include: []model.ValueSetInclude{{Concept: concepts}}},
	}
	idx := model.NewValueSetIndex([]*model.ValueSet{vs}, nil)
	m := NewMapper(idx)

	elem := &model.ElementDefinition{Path: "Foo.type", Min: 1, Max: "1",
		Type:    []model.TypeRef{{Code: "code"}},
		Binding: &model.Binding{Strength: model.BindingRequired, ValueSet: vs.URL}}

	res := m.MapElement(elem)
	assert.Equal(t, ir.KindPrimitive, res.Type.Kind)
}

func TestSanitizeEnumName(t *testing.T) {
	assert.Equal(t, "AdministrativeGender", SanitizeEnumName("http://hl7.org/fhir/ValueSet/administrative-gender"))
	assert.Equal(t, "EventStatus", SanitizeEnumName("http://hl7.org/fhir/ValueSet/event-status|4.0.1"))
}
