package inherit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hl7gen/fhirgen/internal/codegen/model"
)

func sd(name, url, base string) *model.StructureDefinition {
	return &model.StructureDefinition{
		Name: name, URL: url, BaseDefinition: base,
		Kind: model.KindResource,
	}
}

func TestResolver_CoreResourceScenario(t *testing.T) {
	patient := sd("Patient", "http://hl7.org/fhir/StructureDefinition/Patient",
		"http://hl7.org/fhir/StructureDefinition/DomainResource")

	r := NewResolver([]*model.StructureDefinition{patient}, nil)

	assert.True(t, r.IsCoreResource(patient))
	assert.True(t, r.IsDomainResource(patient))
	assert.Equal(t, "Patient", r.ResolveCoreResourceType(patient))
	assert.Equal(t, BaseAccess{Depth: 2}, r.BaseAccessFor(patient))
}

func TestResolver_ProfileWithKnownResolution(t *testing.T) {
	observation := sd("Observation", "http://hl7.org/fhir/StructureDefinition/Observation",
		"http://hl7.org/fhir/StructureDefinition/DomainResource")
	vitalSigns := sd("vitalsigns", "http://hl7.org/fhir/StructureDefinition/vitalsigns",
		"http://hl7.org/fhir/StructureDefinition/Observation")
	vitalSigns.Name = "VitalSigns"

	r := NewResolver([]*model.StructureDefinition{observation, vitalSigns}, nil)

	assert.False(t, r.IsCoreResource(vitalSigns))
	assert.Equal(t, "Observation", r.ResolveCoreResourceType(vitalSigns))
	assert.Equal(t, BaseAccess{ViaTrait: true}, r.BaseAccessFor(vitalSigns))
}

func TestResolver_ProfileOnProfile(t *testing.T) {
	// BodyWeight's base is "vitalsigns", itself a profile of Observation,
	// and vitalsigns is NOT loaded in this run -- exercises the
	// known-profile-family fallback table.
	bodyWeight := sd("BodyWeight", "http://hl7.org/fhir/StructureDefinition/bodyweight",
		"http://hl7.org/fhir/StructureDefinition/vitalsigns")

	r := NewResolver([]*model.StructureDefinition{bodyWeight}, nil)

	assert.Equal(t, "Observation", r.ResolveCoreResourceType(bodyWeight))
}

func TestResolver_UnknownProfilePassesThrough(t *testing.T) {
	mystery := sd("MysteryProfile", "http://example.org/fhir/StructureDefinition/mystery",
		"http://example.org/fhir/StructureDefinition/unknown-base")

	r := NewResolver([]*model.StructureDefinition{mystery}, nil)

	assert.False(t, r.IsKnownBaseDefinition(mystery))
	assert.Equal(t, "unknown-base", r.ResolveCoreResourceType(mystery))
}

func TestResolver_KnownProfileMapOverride(t *testing.T) {
	custom := sd("CustomProfile", "http://example.org/fhir/StructureDefinition/custom",
		"http://example.org/fhir/StructureDefinition/myfamily")

	r := NewResolver([]*model.StructureDefinition{custom}, map[string]string{"myfamily": "Condition"})

	assert.Equal(t, "Condition", r.ResolveCoreResourceType(custom))
}

func TestResolver_ResourceAndDomainResourceDepths(t *testing.T) {
	resource := sd("Resource", "http://hl7.org/fhir/StructureDefinition/Resource", "")
	domainResource := sd("DomainResource", "http://hl7.org/fhir/StructureDefinition/DomainResource",
		"http://hl7.org/fhir/StructureDefinition/Resource")

	r := NewResolver([]*model.StructureDefinition{resource, domainResource}, nil)

	assert.Equal(t, BaseAccess{Depth: 0}, r.BaseAccessFor(resource))
	assert.Equal(t, BaseAccess{Depth: 1}, r.BaseAccessFor(domainResource))
}
