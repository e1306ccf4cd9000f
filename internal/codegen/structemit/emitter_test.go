package structemit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hl7gen/fhirgen/internal/codegen/diagnostics"
	"github.com/hl7gen/fhirgen/internal/codegen/inherit"
	"github.com/hl7gen/fhirgen/internal/codegen/ir"
	"github.com/hl7gen/fhirgen/internal/codegen/model"
	"github.com/hl7gen/fhirgen/internal/codegen/names"
	"github.com/hl7gen/fhirgen/internal/codegen/typemap"
)

func newEmitter(defs []*model.StructureDefinition) *Emitter {
	nr := names.NewResolver(names.SuffixUnderscore)
	inh := inherit.NewResolver(defs, nil)
	tm := typemap.NewMapper(nil)
	log := &diagnostics.Log{}
	return New(nr, inh, tm, log)
}

func sd(name, url, baseURL, rootType string, elements []model.ElementDefinition) *model.StructureDefinition {
	return &model.StructureDefinition{
		Name:           name,
		URL:            url,
		Type:           rootType,
		BaseDefinition: baseURL,
		Kind:           model.KindResource,
		Snapshot:       &model.Snapshot{Element: elements},
	}
}

func findField(fields []ir.TargetField, name string) *ir.TargetField {
	for i := range fields {
		if fields[i].Name == name {
			return &fields[i]
		}
	}
	return nil
}

func findRecord(records []ir.TargetRecord, name string) *ir.TargetRecord {
	for i := range records {
		if records[i].Name == name {
			return &records[i]
		}
	}
	return nil
}

func TestEmit_CoreResourceDirectFields(t *testing.T) {
	domainResource := sd("DomainResource", "http://hl7.org/fhir/StructureDefinition/DomainResource",
		"http://hl7.org/fhir/StructureDefinition/Resource", "DomainResource", nil)

	patient := sd("Patient", "http://hl7.org/fhir/StructureDefinition/Patient",
		"http://hl7.org/fhir/StructureDefinition/DomainResource", "Patient", []model.ElementDefinition{
			{Path: "Patient"},
			{Path: "Patient.active", Min: 0, Max: "1", Type: []model.TypeRef{{Code: "boolean"}}},
			{Path: "Patient.name", Min: 0, Max: "*", Type: []model.TypeRef{{Code: "HumanName"}}},
		})

	e := newEmitter([]*model.StructureDefinition{domainResource, patient})
	result := e.Emit(patient)

	assert.Equal(t, "Patient", result.Record.Name)
	assert.Equal(t, "DomainResource", result.Record.BaseName)
	require.Len(t, result.Record.Fields, 4) // base, active, _active, name
	assert.Equal(t, "Base", result.Record.Fields[0].Name)

	active := findField(result.Record.Fields, "Active")
	require.NotNil(t, active)
	assert.Equal(t, "active", active.JSONName)
	assert.Equal(t, "Option<bool>", active.Type.String())
	assert.NotEmpty(t, active.ExtensionField)

	nameField := findField(result.Record.Fields, "Name")
	require.NotNil(t, nameField)
	assert.Equal(t, "Option<Vec<HumanName>>", nameField.Type.String())
	assert.Empty(t, result.Siblings)
}

func TestEmit_BackboneNestingTwoDeep(t *testing.T) {
	auditEvent := sd("AuditEvent", "http://hl7.org/fhir/StructureDefinition/AuditEvent",
		"http://hl7.org/fhir/StructureDefinition/DomainResource", "AuditEvent", []model.ElementDefinition{
			{Path: "AuditEvent"},
			{Path: "AuditEvent.agent", Min: 1, Max: "*", Type: []model.TypeRef{{Code: "BackboneElement"}}},
			{Path: "AuditEvent.agent.who", Min: 0, Max: "1", Type: []model.TypeRef{{Code: "Reference"}}},
			{Path: "AuditEvent.agent.network", Min: 0, Max: "1", Type: []model.TypeRef{{Code: "BackboneElement"}}},
			{Path: "AuditEvent.agent.network.address", Min: 0, Max: "1", Type: []model.TypeRef{{Code: "string"}}},
		})

	e := newEmitter([]*model.StructureDefinition{auditEvent})
	result := e.Emit(auditEvent)

	require.Len(t, result.Siblings, 2)
	agentSibling := findRecord(result.Siblings, "AuditEventAgent")
	networkSibling := findRecord(result.Siblings, "AuditEventAgentNetwork")
	require.NotNil(t, agentSibling)
	require.NotNil(t, networkSibling)

	ownerAgentField := findField(result.Record.Fields, "Agent")
	require.NotNil(t, ownerAgentField)
	assert.Equal(t, "Vec<AuditEventAgent>", ownerAgentField.Type.String())

	networkField := findField(agentSibling.Fields, "Network")
	require.NotNil(t, networkField)
	assert.Equal(t, "Option<AuditEventAgentNetwork>", networkField.Type.String())
	assert.Equal(t, "BackboneElement", agentSibling.BaseName)
	assert.Equal(t, "BackboneElement", networkSibling.BaseName)

	addressField := findField(networkSibling.Fields, "Address")
	require.NotNil(t, addressField)
	assert.Equal(t, "Option<string>", addressField.Type.String())
}

func TestEmit_ChoiceFanOut(t *testing.T) {
	patient := sd("Patient", "http://hl7.org/fhir/StructureDefinition/Patient",
		"http://hl7.org/fhir/StructureDefinition/DomainResource", "Patient", []model.ElementDefinition{
			{Path: "Patient"},
			{Path: "Patient.deceased[x]", Min: 0, Max: "1", Type: []model.TypeRef{{Code: "boolean"}, {Code: "dateTime"}}},
		})

	e := newEmitter([]*model.StructureDefinition{patient})
	result := e.Emit(patient)

	// base + 2 variant fields + 2 extension companions (both primitive)
	require.Len(t, result.Record.Fields, 5)
	boolField := findField(result.Record.Fields, "DeceasedBoolean")
	require.NotNil(t, boolField)
	assert.Equal(t, "deceasedBoolean", boolField.JSONName)
	assert.True(t, boolField.IsChoiceVariant)
	assert.Equal(t, "deceased", boolField.ChoiceStem)

	dtField := findField(result.Record.Fields, "DeceasedDateTime")
	require.NotNil(t, dtField)
	assert.Equal(t, "deceasedDateTime", dtField.JSONName)
}

func TestEmit_EmptyProfileFilter(t *testing.T) {
	vitalSigns := sd("VitalSigns", "http://hl7.org/fhir/StructureDefinition/vitalsigns",
		"http://hl7.org/fhir/StructureDefinition/Observation", "Observation", nil)

	e := newEmitter([]*model.StructureDefinition{vitalSigns})
	result := e.Emit(vitalSigns)

	require.Len(t, result.Record.Diagnostics, 1)
	assert.Equal(t, ir.AnnotationEmptyStructure, result.Record.Diagnostics[0].Kind)
	assert.Equal(t, "Observation", result.Record.BaseName)
	require.Len(t, result.Record.Fields, 1) // only base
	assert.Empty(t, result.Siblings)
}
