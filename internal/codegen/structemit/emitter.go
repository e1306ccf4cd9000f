// Package structemit turns a resource or complex-type StructureDefinition
// into its TargetRecord: the field list, backbone sibling records, and
// default-construction rules a downstream emitter needs to lay out a
// concrete struct/class/message for it.
package structemit

import (
	"strings"

	"github.com/hl7gen/fhirgen/internal/codegen/diagnostics"
	"github.com/hl7gen/fhirgen/internal/codegen/inherit"
	"github.com/hl7gen/fhirgen/internal/codegen/ir"
	"github.com/hl7gen/fhirgen/internal/codegen/model"
	"github.com/hl7gen/fhirgen/internal/codegen/names"
	"github.com/hl7gen/fhirgen/internal/codegen/typemap"
)

// Record-kind strings, stored on ir.TargetRecord.Kind.
const (
	KindPrimitive = "primitive"
	KindDatatype  = "datatype"
	KindResource  = "resource"
	KindBackbone  = "backbone"
)

// Emitter produces TargetRecords for one StructureDefinition at a time. It
// is built fresh per pipeline run and shares the Name Resolver and Type
// Mapper instances the run constructed, so naming and type-mapping stay
// consistent across every structure processed.
type Emitter struct {
	Names   *names.Resolver
	Inherit *inherit.Resolver
	Mapper  *typemap.Mapper
	Log     *diagnostics.Log
}

// New creates an Emitter over the given shared stage state.
func New(nr *names.Resolver, inh *inherit.Resolver, tm *typemap.Mapper, log *diagnostics.Log) *Emitter {
	return &Emitter{Names: nr, Inherit: inh, Mapper: tm, Log: log}
}

// Result is everything Emit produced for one structure: its top-level
// record plus every backbone sibling record it promoted (at any nesting
// depth).
type Result struct {
	Record   ir.TargetRecord
	Siblings []ir.TargetRecord
	// Fatal is set when the structure has a choice element ("value[x]")
	// whose type[] is empty, so no variant field can be derived at all: the
	// caller must omit this structure entirely rather than add its
	// incomplete Record to the bundle.
	Fatal       bool
	FatalReason string
}

// Emit walks sd's snapshot elements into the top-level TargetRecord and any
// promoted backbone sibling records. Non-fatal conditions
// (UnknownBaseDefinition, UnmappableType, EmptyStructure) are recorded to
// e.Log; only EmptyStructure is also attached as an Annotation on the
// returned record, and no field carries an Annotation. sd is never mutated.
func (e *Emitter) Emit(sd *model.StructureDefinition) Result {
	recordName := e.Names.StructName(sd)
	baseName := e.baseFieldName(sd)

	elements := sd.Elements()
	if len(elements) == 0 {
		rec := ir.TargetRecord{
			Name:       recordName,
			FHIRName:   sd.Name,
			SourceURL:  sd.URL,
			Kind:       e.kindOf(sd),
			IsAbstract: sd.Abstract,
			BaseName:   baseName,
		}
		if baseName != "" {
			baseField := e.baseField(baseName)
			rec.Fields = append(rec.Fields, baseField)
			rec.Construct = append(rec.Construct, ir.ConstructionRule{Field: baseField, DefaultExpr: "recurse-base"})
		}
		rec.Diagnostics = append(rec.Diagnostics, ir.Annotation{
			Kind:    ir.AnnotationEmptyStructure,
			Message: "structure declares no elements in snapshot or differential",
		})
		e.Log.Add(ir.AnnotationEmptyStructure, sd.URL, "no elements; specific-resource trait suppressed")
		return Result{Record: rec}
	}

	rec := ir.TargetRecord{
		Name:        recordName,
		FHIRName:    sd.Name,
		SourceURL:   sd.URL,
		Kind:        e.kindOf(sd),
		Description: sd.Title,
		IsAbstract:  sd.Abstract,
		BaseName:    baseName,
	}
	if baseName != "" {
		baseField := e.baseField(baseName)
		rec.Fields = append(rec.Fields, baseField)
		rec.Construct = append(rec.Construct, ir.ConstructionRule{Field: baseField, DefaultExpr: "recurse-base"})
	}

	var siblings []ir.TargetRecord

	// Root element (elements[0]) describes the structure itself and carries
	// its own invariants, not a field; direct children start at index 1.
	for i := 1; i < len(elements); i++ {
		elem := &elements[i]

		if elem.SliceName != "" {
			continue // slices are a future refinement; not in scope
		}
		if e.isNestedElement(elem.Path, sd.Type) {
			continue // handled as part of its owning backbone's emission
		}

		if elem.IsBackboneElement() {
			siblingRec, field, nested := e.emitBackbone(sd, elements, elem)
			siblings = append(siblings, nested...)
			siblings = append(siblings, siblingRec)
			rec.Fields = append(rec.Fields, field)
			rec.Construct = append(rec.Construct, ir.ConstructionRule{Field: field, DefaultExpr: e.defaultExprFor(field)})
			continue
		}

		fields, constructRules := e.emitElementFields(sd.Name, elem)
		if elem.IsChoiceType() && len(fields) == 0 {
			return Result{
				Record:      rec,
				Fatal:       true,
				FatalReason: "ChoiceWithoutTypes: " + elem.Path,
			}
		}
		rec.Fields = append(rec.Fields, fields...)
		rec.Construct = append(rec.Construct, constructRules...)
	}

	return Result{Record: rec, Siblings: siblings}
}

// kindOf maps a StructureDefinition's FHIR kind to the record-kind tag
// stored on the emitted TargetRecord.
func (e *Emitter) kindOf(sd *model.StructureDefinition) string {
	switch {
	case sd.IsPrimitive():
		return KindPrimitive
	case sd.IsResource():
		return KindResource
	case strings.Contains(sd.BaseDefinition, "BackboneElement"):
		return KindBackbone
	default:
		return KindDatatype
	}
}

// baseFieldName returns the parent record's name a "base" composition field
// should reference, or "" for the root Element structure (which has none).
func (e *Emitter) baseFieldName(sd *model.StructureDefinition) string {
	if sd.BaseDefinition == "" {
		return ""
	}
	if parent, ok := e.Inherit.LookupByURL(sd.BaseDefinition); ok {
		return e.Names.StructName(parent)
	}
	// Base not indexed in this run: fall back to the final URL segment
	// unchanged rather than failing the whole structure.
	if !e.Inherit.IsKnownBaseDefinition(sd) {
		e.Log.Add(ir.AnnotationUnknownBaseDefinition, sd.URL, "base_definition not indexed: "+sd.BaseDefinition)
	}
	seg := sd.BaseDefinition
	if idx := strings.LastIndex(seg, "/"); idx >= 0 {
		seg = seg[idx+1:]
	}
	return seg
}

func (e *Emitter) baseField(baseName string) ir.TargetField {
	return ir.TargetField{
		Name:     "Base",
		JSONName: "",
		Type:     ir.Complex(baseName),
		Required: true,
	}
}

// isNestedElement reports whether path lies strictly under a backbone child
// (i.e. two or more segments past the structure's own root). Direct
// backbone elements themselves ("Owner.a") are NOT nested; their own
// children ("Owner.a.b") are, and are handled when that backbone is emitted.
func (e *Emitter) isNestedElement(path, rootType string) bool {
	suffix := strings.TrimPrefix(path, rootType+".")
	if suffix == path {
		return false
	}
	return strings.Contains(suffix, ".")
}

// emitBackbone promotes the backbone element at elem.Path into its own
// sibling TargetRecord, recursing into further nested backbones, and
// returns the field the owner record uses to reference it plus any
// grandchild sibling records to hoist up to the top-level Result.
func (e *Emitter) emitBackbone(sd *model.StructureDefinition, elements []model.ElementDefinition, elem *model.ElementDefinition) (ir.TargetRecord, ir.TargetField, []ir.TargetRecord) {
	siblingName := e.Names.BackboneStructName(elem.Path)
	siblingRec := ir.TargetRecord{
		Name:        siblingName,
		FHIRName:    elem.BaseName(),
		SourceURL:   sd.URL + "#" + elem.Path,
		Kind:        KindBackbone,
		Description: elem.Short,
		BaseName:    "BackboneElement",
	}
	baseField := e.baseField("BackboneElement")
	siblingRec.Fields = append(siblingRec.Fields, baseField)
	siblingRec.Construct = append(siblingRec.Construct, ir.ConstructionRule{Field: baseField, DefaultExpr: "recurse-base"})

	var hoisted []ir.TargetRecord
	childPrefix := elem.Path + "."
	for i := range elements {
		child := &elements[i]
		if child.Path == elem.Path || !strings.HasPrefix(child.Path, childPrefix) {
			continue
		}
		// Only direct children of this backbone; grandchildren are folded
		// in by the recursive emitBackbone call below, keyed on their own
		// immediate parent path.
		rest := strings.TrimPrefix(child.Path, childPrefix)
		if strings.Contains(rest, ".") {
			continue
		}
		if child.SliceName != "" {
			continue
		}
		if child.IsBackboneElement() {
			nestedRec, nestedField, grandchildren := e.emitBackbone(sd, elements, child)
			siblingRec.Fields = append(siblingRec.Fields, nestedField)
			siblingRec.Construct = append(siblingRec.Construct, ir.ConstructionRule{Field: nestedField, DefaultExpr: e.defaultExprFor(nestedField)})
			hoisted = append(hoisted, grandchildren...)
			hoisted = append(hoisted, nestedRec)
			continue
		}
		fields, constructRules := e.emitElementFields(sd.Name, child)
		siblingRec.Fields = append(siblingRec.Fields, fields...)
		siblingRec.Construct = append(siblingRec.Construct, constructRules...)
	}

	ownerFieldName, ownerJSONName := e.Names.FieldName(elem.BaseName())
	fieldType := e.mapBackboneFieldType(elem, siblingName)
	ownerField := ir.TargetField{
		Name:        ownerFieldName,
		JSONName:    ownerJSONName,
		Type:        fieldType,
		Description: elem.Short,
		Required:    elem.IsRequired(),
	}
	return siblingRec, ownerField, hoisted
}

// mapBackboneFieldType builds the Option<Vec<Name>> / Option<Name> / Vec<Name>
// wrapping for a field that references a promoted backbone sibling, by the
// same array/optionality rules the Type Mapper applies to any other complex
// field.
func (e *Emitter) mapBackboneFieldType(elem *model.ElementDefinition, siblingName string) ir.TargetType {
	base := ir.Complex(siblingName)
	if elem.IsArray() {
		if elem.Min == 0 {
			return ir.OptionOf(ir.VecOf(base))
		}
		return ir.VecOf(base)
	}
	if elem.Min == 0 {
		return ir.OptionOf(base)
	}
	return base
}

// emitElementFields maps one non-backbone, non-choice-excluded direct
// element to its TargetField(s): a single field for an ordinary element, a
// field plus its "_seg" extension companion for a primitive, or the full
// fan-out for a choice element.
func (e *Emitter) emitElementFields(structName string, elem *model.ElementDefinition) ([]ir.TargetField, []ir.ConstructionRule) {
	if elem.IsChoiceType() {
		return e.emitChoiceFields(elem)
	}

	result := e.Mapper.MapElement(elem)
	if result.Warning != "" {
		e.Log.Add(ir.AnnotationUnmappableType, structName+"."+elem.Path, result.Warning)
	}

	fieldName, jsonName := e.Names.FieldName(elem.BaseName())
	field := ir.TargetField{
		Name:        fieldName,
		JSONName:    jsonName,
		Type:        result.Type,
		Description: elem.Short,
		Required:    elem.IsRequired(),
	}

	// Primitive extension companion: only for elements whose mapped type is
	// (optionally wrapped) a Primitive; the caller already guarantees this
	// is a direct field, not backbone-internal plumbing.
	if isPrimitiveField(result.Type) {
		field.ExtensionField = fieldName + "Ext"
	}

	fields := []ir.TargetField{field}
	constructRules := []ir.ConstructionRule{{Field: field, DefaultExpr: e.defaultExprFor(field)}}

	if field.ExtensionField != "" {
		extField := ir.TargetField{
			Name:        field.ExtensionField,
			JSONName:    "_" + jsonName,
			Type:        ir.OptionOf(ir.Complex("Element")),
			Description: "Extension for " + fieldName,
		}
		fields = append(fields, extField)
		constructRules = append(constructRules, ir.ConstructionRule{Field: extField, DefaultExpr: "absent"})
	}

	return fields, constructRules
}

// emitChoiceFields fans a choice-typed element ("value[x]") out into one
// field per declared type; each primitive-typed variant also gets its own
// extension companion.
func (e *Emitter) emitChoiceFields(elem *model.ElementDefinition) ([]ir.TargetField, []ir.ConstructionRule) {
	stem := elem.BaseName()
	result := e.Mapper.MapElement(elem)
	if result.Choice == nil || len(result.Choice.Variants) == 0 {
		// ChoiceWithoutTypes: fatal for the owning structure, since a choice
		// element with no declared type[] yields no variant fields at all.
		// The Structure Emitter cannot unilaterally drop the structure (that
		// decision belongs to the pipeline, which owns per-structure
		// isolation); it signals the condition by returning no fields so the
		// caller can detect the incomplete record and omit it.
		e.Log.Add(ir.AnnotationUnmappableType, elem.Path, "ChoiceWithoutTypes: type[] empty for "+elem.Path)
		return nil, nil
	}

	var fields []ir.TargetField
	var constructRules []ir.ConstructionRule
	for _, variant := range result.Choice.Variants {
		fieldName, jsonName := names.ChoiceFieldName(stem, variant.FHIRType)
		field := ir.TargetField{
			Name:            fieldName,
			JSONName:        jsonName,
			Type:            variant.Type,
			Description:     elem.Short,
			IsChoiceVariant: true,
			ChoiceStem:      stem,
		}
		if isPrimitiveField(variant.Type) {
			field.ExtensionField = fieldName + "Ext"
		}
		fields = append(fields, field)
		constructRules = append(constructRules, ir.ConstructionRule{Field: field, DefaultExpr: "absent"})

		if field.ExtensionField != "" {
			extField := ir.TargetField{
				Name:        field.ExtensionField,
				JSONName:    "_" + jsonName,
				Type:        ir.OptionOf(ir.Complex("Element")),
				Description: "Extension for " + fieldName,
			}
			fields = append(fields, extField)
			constructRules = append(constructRules, ir.ConstructionRule{Field: extField, DefaultExpr: "absent"})
		}
	}
	return fields, constructRules
}

// isPrimitiveField reports whether t is (optionally wrapped) a Primitive
// TargetType, the trigger condition for an extension companion field.
func isPrimitiveField(t ir.TargetType) bool {
	if t.Kind == ir.KindOptionOf && t.Inner != nil {
		return t.Inner.Kind == ir.KindPrimitive
	}
	return t.Kind == ir.KindPrimitive
}

// defaultExprFor picks the Default-construction-rule tag for a field:
// absent optionals stay absent, collections start empty, enums default to
// their first variant, everything else uses the type's own zero value.
func (e *Emitter) defaultExprFor(field ir.TargetField) string {
	switch {
	case field.Type.IsOptional():
		return "absent"
	case field.Type.IsCollection():
		return "empty"
	case field.Type.Kind == ir.KindEnumRef:
		return "enum-first-variant"
	default:
		return "zero"
	}
}
