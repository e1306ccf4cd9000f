package typemap

// PrimitiveKind enumerates the target-language primitive kinds TargetType's
// Primitive variant carries.
type PrimitiveKind string

// Primitive kinds: the target-language primitive each FHIR primitive type
// code maps to.
const (
	KindBool     PrimitiveKind = "bool"
	KindI32      PrimitiveKind = "i32"
	KindI64      PrimitiveKind = "i64"
	KindF64      PrimitiveKind = "f64"
	KindString   PrimitiveKind = "string"
	KindBytes    PrimitiveKind = "bytes"
	KindInstant  PrimitiveKind = "instant"
	KindDate     PrimitiveKind = "date"
	KindDateTime PrimitiveKind = "dateTime"
	KindTime     PrimitiveKind = "time"
)

// primitiveCodeTable is the FHIR code -> target primitive kind table.
var primitiveCodeTable = map[string]PrimitiveKind{
	"boolean":     KindBool,
	"integer":     KindI32,
	"positiveInt": KindI32,
	"unsignedInt": KindI32,
	"integer64":   KindI64,
	"decimal":     KindF64,

	"string":    KindString,
	"code":      KindString,
	"id":        KindString,
	"markdown":  KindString,
	"uri":       KindString,
	"url":       KindString,
	"canonical": KindString,
	"oid":       KindString,
	"uuid":      KindString,

	"base64Binary": KindBytes,

	"instant":  KindInstant,
	"dateTime": KindDateTime,
	"date":     KindDate,
	"time":     KindTime,
}

// PrimitiveKindFor returns the target primitive kind for a FHIR primitive
// type code, and whether that code is recognized as primitive at all.
func PrimitiveKindFor(fhirCode string) (PrimitiveKind, bool) {
	k, ok := primitiveCodeTable[fhirCode]
	return k, ok
}

// IsPrimitiveCode reports whether fhirCode names a FHIR primitive type.
func IsPrimitiveCode(fhirCode string) bool {
	_, ok := primitiveCodeTable[fhirCode]
	return ok
}
