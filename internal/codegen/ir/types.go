// Package ir defines the structural translator's output entities: the
// in-memory declarations (TargetRecord, TargetInterface, TargetImpl,
// ConstraintSet) that make up a DeclarationBundle. Every stage after the
// Name Resolver appends to this tree; nothing here is ever mutated once
// constructed.
package ir

// TypeKind tags a TargetType's variant.
type TypeKind int

// TargetType variants: the shapes a field or return type can take.
const (
	KindPrimitive TypeKind = iota
	KindComplex
	KindEnumRef
	KindReference
	KindOptionOf
	KindVecOf
	KindCustom
)

// TargetType is a tagged union: exactly one of
// Primitive/Complex/EnumRef/Reference/Inner/Raw is meaningful, selected by
// Kind.
type TargetType struct {
	Kind TypeKind

	Primitive string // meaningful when Kind == KindPrimitive; one of typemap.PrimitiveKind's values
	Name      string // meaningful when Kind == KindComplex or KindEnumRef: the qualified type name
	Targets   []string // meaningful when Kind == KindReference: allowed target resource names
	Inner     *TargetType // meaningful when Kind == KindOptionOf or KindVecOf
	Raw       string // meaningful when Kind == KindCustom: an escape-hatch type expression
}

// Primitive builds a Primitive(kind) TargetType.
func Primitive(kind string) TargetType { return TargetType{Kind: KindPrimitive, Primitive: kind} }

// Complex builds a Complex(qualifiedName) TargetType.
func Complex(qualifiedName string) TargetType { return TargetType{Kind: KindComplex, Name: qualifiedName} }

// EnumRef builds an EnumRef(qualifiedName) TargetType.
func EnumRef(qualifiedName string) TargetType { return TargetType{Kind: KindEnumRef, Name: qualifiedName} }

// Reference builds a Reference(allowedTargets) TargetType.
func Reference(allowedTargets []string) TargetType {
	return TargetType{Kind: KindReference, Name: "Reference", Targets: allowedTargets}
}

// OptionOf wraps inner in an OptionOf(inner) TargetType.
func OptionOf(inner TargetType) TargetType { return TargetType{Kind: KindOptionOf, Inner: &inner} }

// VecOf wraps inner in a VecOf(inner) TargetType.
func VecOf(inner TargetType) TargetType { return TargetType{Kind: KindVecOf, Inner: &inner} }

// Custom builds a Custom(raw) escape-hatch TargetType.
func Custom(raw string) TargetType { return TargetType{Kind: KindCustom, Raw: raw} }

// IsOptional reports whether t's outermost variant is OptionOf.
func (t TargetType) IsOptional() bool { return t.Kind == KindOptionOf }

// IsCollection reports whether t's outermost variant is VecOf, either
// directly or wrapped in an Option.
func (t TargetType) IsCollection() bool {
	if t.Kind == KindVecOf {
		return true
	}
	if t.Kind == KindOptionOf && t.Inner != nil {
		return t.Inner.Kind == KindVecOf
	}
	return false
}

// TargetField is one field of a TargetRecord.
type TargetField struct {
	Name        string // semantic target-language field name
	JSONName    string // FHIR wire serialization name, when it differs from Name
	Type        TargetType
	Description string
	// ExtensionField names the companion "_field" sibling carrying FHIR
	// primitive extension metadata, or "" if this field has none.
	ExtensionField string
	// IsChoiceVariant marks a field produced by choice-type fan-out.
	IsChoiceVariant bool
	// ChoiceStem is the path segment a choice field fans out from (minus
	// "[x]"), shared across every sibling variant.
	ChoiceStem string
	// Required mirrors the source element's min >= 1 cardinality.
	Required bool
}

// ConstructionRule describes how a TargetRecord's Default() is built for one
// field.
type ConstructionRule struct {
	Field TargetField
	// DefaultExpr is a language-agnostic description of the default value:
	// "absent", "zero", "empty", "enum-first-variant", or "recurse-base".
	DefaultExpr string
}

// TargetRecord is a generated record declaration: a struct/class/message in
// the target language, with an ordered field list in source declaration
// order so repeated runs over the same input produce byte-identical output.
type TargetRecord struct {
	Name        string
	FHIRName    string
	SourceURL   string
	Kind        string // "primitive", "datatype", "resource", "backbone"
	Description string
	IsAbstract  bool
	// BaseName is the parent record's Name, flattened into a "base" field;
	// empty only for the root Element record.
	BaseName   string
	Fields     []TargetField
	Construct  []ConstructionRule
	Diagnostics []Annotation
}

// ReturnContract tags how an InterfaceMethod returns its value.
type ReturnContract int

const (
	ReturnOwned ReturnContract = iota
	ReturnOptionalOwned
	ReturnSliceOfT
	ReturnUnit
)

// InterfaceMethod is one method signature of a TargetInterface.
type InterfaceMethod struct {
	Name       string
	Params     []TargetType
	ReturnType TargetType
	Return     ReturnContract
}

// InterfaceCapability names which of the three capability surfaces an
// interface is.
type InterfaceCapability int

const (
	CapabilityAccessors InterfaceCapability = iota
	CapabilityMutators
	CapabilityExistence
)

// TargetInterface is a named capability surface: Accessors, Mutators, or
// Existence.
type TargetInterface struct {
	Name       string
	Capability InterfaceCapability
	Methods    []InterfaceMethod
}

// MethodBody is a language-agnostic description of one method's
// implementation, sufficient for a downstream emitter to render real code:
// an access path ("Base.Base"), a kind tag, and enough structure to
// reproduce the method's exact runtime behavior.
type MethodBody struct {
	Method InterfaceMethod
	// Kind describes the body shape: "direct-field", "trait-delegate",
	// "choice-presence", "constant-true", "slice-or-empty", "builder-set",
	// "builder-add", "factory-new".
	Kind string
	// AccessPath is the base-composition chain ("Base.Base", or "" for a
	// field on the record itself) for direct-field bodies.
	AccessPath string
	// FieldName is the underlying TargetField.Name this method reads or
	// writes.
	FieldName string
	// ChoiceFields lists the sibling fan-out field names a choice-presence
	// body ORs together.
	ChoiceFields []string
	// DelegateInterface names the trait a trait-delegate body forwards to.
	DelegateInterface string
}

// TargetImpl binds a TargetRecord to a TargetInterface, carrying one
// MethodBody per interface method.
type TargetImpl struct {
	RecordName    string
	InterfaceName string
	Methods       []MethodBody
}

// Severity of a constraint invariant.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Invariant is one FHIRPath constraint entry of a ConstraintSet.
type Invariant struct {
	Key        string
	Severity   Severity
	Human      string
	Expression string
	XPath      string
}

// BindingConstraint is one required-strength value-set binding entry of a
// ConstraintSet. Only required-strength bindings appear here: looser
// bindings (extensible, preferred, example) don't constrain valid values
// enough to be worth enforcing at this layer.
type BindingConstraint struct {
	ElementPath string
	Strength    string
	ValueSetURL string
	Description string
}

// Cardinality is one (min,max) entry of a ConstraintSet.
type Cardinality struct {
	ElementPath string
	Min         int
	Max         string // "*" for unbounded, else a non-negative integer as a string
}

// ConstraintSet is the per-structure constraint catalog: invariants,
// bindings, and cardinalities, consumable by a runtime validator (external
// to this core).
type ConstraintSet struct {
	RecordName   string
	ResourceType string
	ProfileURL   string
	Invariants   []Invariant
	Bindings     []BindingConstraint
	Cardinalities []Cardinality
}

// AnnotationKind tags a diagnostic annotation attached to an output entity.
type AnnotationKind string

// Annotation kinds: the non-fatal conditions a pipeline run can record.
const (
	AnnotationUnknownBaseDefinition AnnotationKind = "UnknownBaseDefinition"
	AnnotationUnmappableType        AnnotationKind = "UnmappableType"
	AnnotationEmptyStructure        AnnotationKind = "EmptyStructure"
	AnnotationNameCollision         AnnotationKind = "NameCollision"
)

// Annotation is a non-fatal diagnostic attached directly to the output
// entity it concerns, in addition to being appended to the run's
// diagnostics log.
type Annotation struct {
	Kind    AnnotationKind
	Message string
}

// DeclarationBundle is the structural translator's complete output: every
// TargetRecord, TargetInterface, TargetImpl, and ConstraintSet produced by
// one run, grouped by source structure and ordered lexicographically by
// source URL so the same input always yields the same output.
type DeclarationBundle struct {
	Records     []TargetRecord
	Interfaces  []TargetInterface
	Impls       []TargetImpl
	Constraints []ConstraintSet
}
