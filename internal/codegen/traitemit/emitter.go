// Package traitemit implements the Trait Emitter stage: for each generated
// record, the Accessors/Mutators/Existence capability interfaces and their
// concrete implementations, plus the per-structure constraint catalog.
package traitemit

import (
	"strings"

	"github.com/hl7gen/fhirgen/internal/codegen/inherit"
	"github.com/hl7gen/fhirgen/internal/codegen/ir"
	"github.com/hl7gen/fhirgen/internal/codegen/model"
	"github.com/hl7gen/fhirgen/internal/codegen/names"
)

// ResourceAccessors' fixed method set, common to every resource regardless
// of profile depth.
var resourceAccessorFields = []string{"Id", "ImplicitRules", "Language", "Meta"}

// DomainResourceAccessors' fixed method set.
var domainResourceAccessorFields = []string{"Text", "Contained", "Extension", "ModifierExtension"}

// Emitter produces capability interfaces, impls, and constraint catalogs
// for generated records.
type Emitter struct {
	Names   *names.Resolver
	Inherit *inherit.Resolver
}

// New creates a trait Emitter sharing the run's Name Resolver and
// Inheritance Resolver.
func New(nr *names.Resolver, inh *inherit.Resolver) *Emitter {
	return &Emitter{Names: nr, Inherit: inh}
}

// Result is everything EmitCapabilities produced for one record.
type Result struct {
	Interfaces []ir.TargetInterface
	Impls      []ir.TargetImpl
}

// EmitCapabilities builds the ResourceAccessors/DomainResourceAccessors/
// specific-resource Accessors, Mutators, and Existence interfaces and impls
// for rec, a record produced by the Structure Emitter for sd.
func (e *Emitter) EmitCapabilities(rec ir.TargetRecord, sd *model.StructureDefinition) Result {
	var res Result

	access := e.Inherit.BaseAccessFor(sd)

	if e.Inherit.IsCoreResource(sd) || sd.IsResource() {
		if iface, impl, ok := e.emitResourceAccessors(rec, sd, access); ok {
			res.Interfaces = append(res.Interfaces, iface)
			res.Impls = append(res.Impls, impl)
		}
	}
	if sd.Name == "DomainResource" || e.Inherit.IsDomainResource(sd) {
		if iface, impl, ok := e.emitDomainResourceAccessors(rec, sd, access); ok {
			res.Interfaces = append(res.Interfaces, iface)
			res.Impls = append(res.Impls, impl)
		}
	}

	directFields := ownDirectFields(rec)
	if len(directFields) > 0 {
		ifaceName := rec.Name + "Accessors"
		res.Interfaces = append(res.Interfaces, e.specificAccessorsInterface(ifaceName, directFields))
		res.Impls = append(res.Impls, e.specificAccessorsImpl(rec.Name, ifaceName, directFields))

		mutIfaceName := rec.Name + "Mutators"
		res.Interfaces = append(res.Interfaces, e.mutatorsInterface(mutIfaceName, rec.Name, directFields))
		res.Impls = append(res.Impls, e.mutatorsImpl(rec.Name, mutIfaceName, directFields))

		existIfaceName := rec.Name + "Existence"
		res.Interfaces = append(res.Interfaces, e.existenceInterface(existIfaceName, directFields))
		res.Impls = append(res.Impls, e.existenceImpl(rec.Name, existIfaceName, directFields))
	}

	return res
}

// ownDirectFields returns rec's fields that represent real FHIR elements:
// the synthetic "Base" composition field and "*Ext" extension companions
// are excluded, since neither is a real FHIR element and so neither gets
// its own accessor/mutator/existence method.
func ownDirectFields(rec ir.TargetRecord) []ir.TargetField {
	var out []ir.TargetField
	for _, f := range rec.Fields {
		if f.Name == "Base" {
			continue
		}
		if strings.HasSuffix(f.Name, "Ext") && isExtensionCompanion(rec.Fields, f.Name) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// isExtensionCompanion reports whether name is some other field's
// ExtensionField, i.e. it is itself a companion rather than a primary field
// that merely happens to end in "Ext".
func isExtensionCompanion(fields []ir.TargetField, name string) bool {
	for _, f := range fields {
		if f.ExtensionField == name {
			return true
		}
	}
	return false
}

// accessPath renders hops chained "Base." compositions, e.g. hops=2 ->
// "Base.Base".
func accessPath(hops int) string {
	if hops <= 0 {
		return ""
	}
	segs := make([]string, hops)
	for i := range segs {
		segs[i] = "Base"
	}
	return strings.Join(segs, ".")
}

// emitResourceAccessors builds the ResourceAccessors interface/impl pair.
// Every resource structure implements it; the method bodies either walk a
// direct base-composition chain or delegate to the parent's own impl
// (ViaTrait), per the BaseAccess the Inheritance Resolver computed.
func (e *Emitter) emitResourceAccessors(rec ir.TargetRecord, sd *model.StructureDefinition, access inherit.BaseAccess) (ir.TargetInterface, ir.TargetImpl, bool) {
	iface := ir.TargetInterface{Name: "ResourceAccessors", Capability: ir.CapabilityAccessors}
	impl := ir.TargetImpl{RecordName: rec.Name, InterfaceName: "ResourceAccessors"}

	for _, field := range resourceAccessorFields {
		ret := ir.OptionOf(ir.Primitive("string"))
		if field == "Meta" {
			ret = ir.OptionOf(ir.Complex("Meta"))
		}
		method := ir.InterfaceMethod{Name: field, ReturnType: ret, Return: ir.ReturnOptionalOwned}
		iface.Methods = append(iface.Methods, method)

		if access.ViaTrait {
			impl.Methods = append(impl.Methods, ir.MethodBody{
				Method: method, Kind: "trait-delegate",
				AccessPath: "Base", DelegateInterface: "ResourceAccessors", FieldName: field,
			})
			continue
		}
		impl.Methods = append(impl.Methods, ir.MethodBody{
			Method: method, Kind: "direct-field",
			AccessPath: accessPath(access.Depth), FieldName: field,
		})
	}
	return iface, impl, true
}

// emitDomainResourceAccessors builds the DomainResourceAccessors pair. The
// access depth is one hop shallower than ResourceAccessors', since
// DomainResource sits one composition level closer than Resource.
func (e *Emitter) emitDomainResourceAccessors(rec ir.TargetRecord, sd *model.StructureDefinition, access inherit.BaseAccess) (ir.TargetInterface, ir.TargetImpl, bool) {
	iface := ir.TargetInterface{Name: "DomainResourceAccessors", Capability: ir.CapabilityAccessors}
	impl := ir.TargetImpl{RecordName: rec.Name, InterfaceName: "DomainResourceAccessors"}

	domainDepth := access.Depth - 1
	if domainDepth < 0 {
		domainDepth = 0
	}

	for _, field := range domainResourceAccessorFields {
		var ret ir.TargetType
		var returnKind ir.ReturnContract
		var kind string
		switch field {
		case "Text":
			ret = ir.OptionOf(ir.Complex("Narrative"))
			returnKind = ir.ReturnOptionalOwned
			kind = "direct-field"
		case "Contained":
			ret = ir.VecOf(ir.Complex("Resource"))
			returnKind = ir.ReturnSliceOfT
			kind = "slice-or-empty"
		case "Extension", "ModifierExtension":
			ret = ir.VecOf(ir.Complex("Extension"))
			returnKind = ir.ReturnSliceOfT
			kind = "slice-or-empty"
		}
		method := ir.InterfaceMethod{Name: field, ReturnType: ret, Return: returnKind}
		iface.Methods = append(iface.Methods, method)

		if access.ViaTrait {
			impl.Methods = append(impl.Methods, ir.MethodBody{
				Method: method, Kind: "trait-delegate",
				AccessPath: "Base", DelegateInterface: "DomainResourceAccessors", FieldName: field,
			})
			continue
		}
		impl.Methods = append(impl.Methods, ir.MethodBody{
			Method: method, Kind: kind,
			AccessPath: accessPath(domainDepth), FieldName: field,
		})
	}
	return iface, impl, true
}

// specificAccessorsInterface builds the <Name>Accessors interface: one
// method per direct field, returning a slice for collections, an optional
// for nullable scalars, and an owned value otherwise.
func (e *Emitter) specificAccessorsInterface(name string, fields []ir.TargetField) ir.TargetInterface {
	iface := ir.TargetInterface{Name: name, Capability: ir.CapabilityAccessors}
	for _, f := range fields {
		iface.Methods = append(iface.Methods, accessorMethod(f))
	}
	return iface
}

func accessorMethod(f ir.TargetField) ir.InterfaceMethod {
	switch {
	case f.Type.IsCollection():
		vec := f.Type
		if vec.Kind == ir.KindOptionOf {
			vec = *vec.Inner
		}
		return ir.InterfaceMethod{Name: f.Name, ReturnType: *vec.Inner, Return: ir.ReturnSliceOfT}
	case f.Type.IsOptional():
		return ir.InterfaceMethod{Name: f.Name, ReturnType: f.Type, Return: ir.ReturnOptionalOwned}
	default:
		return ir.InterfaceMethod{Name: f.Name, ReturnType: f.Type, Return: ir.ReturnOwned}
	}
}

func (e *Emitter) specificAccessorsImpl(recordName, ifaceName string, fields []ir.TargetField) ir.TargetImpl {
	impl := ir.TargetImpl{RecordName: recordName, InterfaceName: ifaceName}
	for _, f := range fields {
		kind := "direct-field"
		if f.Type.IsCollection() {
			kind = "slice-or-empty"
		}
		impl.Methods = append(impl.Methods, ir.MethodBody{
			Method: accessorMethod(f), Kind: kind, FieldName: f.Name,
		})
	}
	return impl
}

// mutatorsInterface builds the <Name>Mutators interface: a new() factory
// plus a builder-by-move set_<field> per field (add_<field> too, for
// collection-valued fields).
func (e *Emitter) mutatorsInterface(name, recordName string, fields []ir.TargetField) ir.TargetInterface {
	iface := ir.TargetInterface{Name: name, Capability: ir.CapabilityMutators}
	iface.Methods = append(iface.Methods, ir.InterfaceMethod{
		Name: "New", ReturnType: ir.Complex(recordName), Return: ir.ReturnOwned,
	})
	for _, f := range fields {
		setReturn := ir.Complex(recordName)
		iface.Methods = append(iface.Methods, ir.InterfaceMethod{
			Name: "Set" + f.Name, Params: []ir.TargetType{ergonomicParamType(f.Type)}, ReturnType: setReturn, Return: ir.ReturnOwned,
		})
		if f.Type.IsCollection() {
			inner := f.Type
			if inner.Kind == ir.KindOptionOf {
				inner = *inner.Inner
			}
			iface.Methods = append(iface.Methods, ir.InterfaceMethod{
				Name: "Add" + f.Name, Params: []ir.TargetType{*inner.Inner}, ReturnType: setReturn, Return: ir.ReturnOwned,
			})
		}
	}
	return iface
}

// ergonomicParamType strips an outer Option wrapper for a set_<field>
// parameter: mutators accept the bare source type and wrap internally, so
// callers never have to construct an Option themselves.
func ergonomicParamType(t ir.TargetType) ir.TargetType {
	if t.Kind == ir.KindOptionOf && t.Inner != nil {
		return *t.Inner
	}
	return t
}

func (e *Emitter) mutatorsImpl(recordName, ifaceName string, fields []ir.TargetField) ir.TargetImpl {
	impl := ir.TargetImpl{RecordName: recordName, InterfaceName: ifaceName}
	impl.Methods = append(impl.Methods, ir.MethodBody{
		Method: ir.InterfaceMethod{Name: "New", ReturnType: ir.Complex(recordName), Return: ir.ReturnOwned},
		Kind:   "factory-new",
	})
	for _, f := range fields {
		impl.Methods = append(impl.Methods, ir.MethodBody{
			Method: ir.InterfaceMethod{Name: "Set" + f.Name, Return: ir.ReturnOwned},
			Kind:   "builder-set", FieldName: f.Name,
		})
		if f.Type.IsCollection() {
			impl.Methods = append(impl.Methods, ir.MethodBody{
				Method: ir.InterfaceMethod{Name: "Add" + f.Name, Return: ir.ReturnOwned},
				Kind:   "builder-add", FieldName: f.Name,
			})
		}
	}
	return impl
}

// existenceInterface builds the <Name>Existence interface: one has_<field>
// per ordinary field, collapsing choice-variant fields that share a stem
// into a single has_<stem>, since only one variant can be set at a time.
func (e *Emitter) existenceInterface(name string, fields []ir.TargetField) ir.TargetInterface {
	iface := ir.TargetInterface{Name: name, Capability: ir.CapabilityExistence}
	seenStems := make(map[string]bool)
	for _, f := range fields {
		if f.IsChoiceVariant {
			if seenStems[f.ChoiceStem] {
				continue
			}
			seenStems[f.ChoiceStem] = true
			iface.Methods = append(iface.Methods, ir.InterfaceMethod{
				Name: "Has" + titleCase(f.ChoiceStem), ReturnType: ir.Primitive("bool"), Return: ir.ReturnOwned,
			})
			continue
		}
		iface.Methods = append(iface.Methods, ir.InterfaceMethod{
			Name: "Has" + f.Name, ReturnType: ir.Primitive("bool"), Return: ir.ReturnOwned,
		})
	}
	return iface
}

func (e *Emitter) existenceImpl(recordName, ifaceName string, fields []ir.TargetField) ir.TargetImpl {
	impl := ir.TargetImpl{RecordName: recordName, InterfaceName: ifaceName}
	seenStems := make(map[string]bool)
	choiceFieldsByStem := make(map[string][]string)
	for _, f := range fields {
		if f.IsChoiceVariant {
			choiceFieldsByStem[f.ChoiceStem] = append(choiceFieldsByStem[f.ChoiceStem], f.Name)
		}
	}

	for _, f := range fields {
		if f.IsChoiceVariant {
			if seenStems[f.ChoiceStem] {
				continue
			}
			seenStems[f.ChoiceStem] = true
			impl.Methods = append(impl.Methods, ir.MethodBody{
				Method:       ir.InterfaceMethod{Name: "Has" + titleCase(f.ChoiceStem), ReturnType: ir.Primitive("bool"), Return: ir.ReturnOwned},
				Kind:         "choice-presence",
				ChoiceFields: choiceFieldsByStem[f.ChoiceStem],
			})
			continue
		}
		kind := "direct-field"
		switch {
		case f.Required:
			kind = "constant-true"
		case f.Type.IsCollection():
			kind = "slice-or-empty"
		case f.Type.IsOptional():
			kind = "direct-field"
		}
		impl.Methods = append(impl.Methods, ir.MethodBody{
			Method:    ir.InterfaceMethod{Name: "Has" + f.Name, ReturnType: ir.Primitive("bool"), Return: ir.ReturnOwned},
			Kind:      kind,
			FieldName: f.Name,
		})
	}
	return impl
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// BuildConstraintSet assembles the Invariants/Bindings/Cardinalities
// catalog for every non-slice element of sd, nested backbone elements
// included (plus its own root-element invariants).
// Only required-strength bindings are carried into the Bindings table.
func BuildConstraintSet(rec ir.TargetRecord, sd *model.StructureDefinition, resourceType string) ir.ConstraintSet {
	cs := ir.ConstraintSet{RecordName: rec.Name, ResourceType: resourceType, ProfileURL: sd.URL}

	elements := sd.Elements()
	for i, elem := range elements {
		if i == 0 {
			for _, c := range elem.Constraint {
				cs.Invariants = append(cs.Invariants, ir.Invariant{
					Key: c.Key, Severity: ir.Severity(c.Severity), Human: c.Human,
					Expression: c.Expression, XPath: c.XPath,
				})
			}
			continue
		}
		if elem.SliceName != "" {
			continue
		}
		for _, c := range elem.Constraint {
			cs.Invariants = append(cs.Invariants, ir.Invariant{
				Key: c.Key, Severity: ir.Severity(c.Severity), Human: c.Human,
				Expression: c.Expression, XPath: c.XPath,
			})
		}
		if elem.Binding != nil && elem.Binding.Strength == model.BindingRequired {
			cs.Bindings = append(cs.Bindings, ir.BindingConstraint{
				ElementPath: elem.Path, Strength: elem.Binding.Strength,
				ValueSetURL: elem.Binding.ValueSet, Description: elem.Binding.Description,
			})
		}
		cs.Cardinalities = append(cs.Cardinalities, ir.Cardinality{
			ElementPath: elem.Path, Min: elem.Min, Max: elem.Max,
		})
	}
	return cs
}
