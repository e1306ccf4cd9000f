package ir

import "fmt"

// TargetLanguage names the single language a run emits declarations for.
type TargetLanguage string

// Supported target languages.
const (
	LangRust   TargetLanguage = "rust"
	LangCPP    TargetLanguage = "cpp"
	LangGo     TargetLanguage = "go"
	LangTS     TargetLanguage = "ts"
	LangPython TargetLanguage = "python"
)

var primitiveRenderTable = map[TargetLanguage]map[string]string{
	LangRust: {
		"bool": "bool", "i32": "i32", "i64": "i64", "f64": "f64",
		"string": "String", "bytes": "Vec<u8>",
		"instant": "String", "date": "String", "dateTime": "String", "time": "String",
	},
	LangGo: {
		"bool": "bool", "i32": "int32", "i64": "int64", "f64": "float64",
		"string": "string", "bytes": "[]byte",
		"instant": "string", "date": "string", "dateTime": "string", "time": "string",
	},
	LangCPP: {
		"bool": "bool", "i32": "int32_t", "i64": "int64_t", "f64": "double",
		"string": "std::string", "bytes": "std::vector<uint8_t>",
		"instant": "std::string", "date": "std::string", "dateTime": "std::string", "time": "std::string",
	},
	LangTS: {
		"bool": "boolean", "i32": "number", "i64": "bigint", "f64": "number",
		"string": "string", "bytes": "Uint8Array",
		"instant": "string", "date": "string", "dateTime": "string", "time": "string",
	},
	LangPython: {
		"bool": "bool", "i32": "int", "i64": "int", "f64": "float",
		"string": "str", "bytes": "bytes",
		"instant": "str", "date": "str", "dateTime": "str", "time": "str",
	},
}

// Render produces an idiomatic type expression for t in lang. It is a
// best-effort rendering used for diagnostics and documentation; the actual
// source-text emission for a chosen target is delegated to an external
// per-language emitter this core never invokes.
func (t TargetType) Render(lang TargetLanguage) string {
	switch t.Kind {
	case KindPrimitive:
		if table, ok := primitiveRenderTable[lang]; ok {
			if s, ok := table[t.Primitive]; ok {
				return s
			}
		}
		return t.Primitive
	case KindComplex, KindEnumRef:
		return t.Name
	case KindReference:
		return "Reference"
	case KindOptionOf:
		return renderWrapper(lang, "Option", t.Inner.Render(lang))
	case KindVecOf:
		return renderWrapper(lang, "Vec", t.Inner.Render(lang))
	case KindCustom:
		return t.Raw
	default:
		return "<?>"
	}
}

func renderWrapper(lang TargetLanguage, wrapper, inner string) string {
	switch lang {
	case LangRust:
		return fmt.Sprintf("%s<%s>", wrapper, inner)
	case LangGo:
		if wrapper == "Option" {
			return "*" + inner
		}
		return "[]" + inner
	case LangCPP:
		if wrapper == "Option" {
			return fmt.Sprintf("std::optional<%s>", inner)
		}
		return fmt.Sprintf("std::vector<%s>", inner)
	case LangTS:
		if wrapper == "Option" {
			return inner + " | undefined"
		}
		return inner + "[]"
	case LangPython:
		if wrapper == "Option" {
			return fmt.Sprintf("Optional[%s]", inner)
		}
		return fmt.Sprintf("List[%s]", inner)
	default:
		return fmt.Sprintf("%s<%s>", wrapper, inner)
	}
}

// String renders t using the core's own abstract notation
// (Option<Vec<HumanName>>, Primitive kinds spelled as-is), independent of
// the run's configured target language. Used in diagnostics and test
// failure messages; Render(lang) is what an emitter would actually use.
func (t TargetType) String() string {
	switch t.Kind {
	case KindPrimitive:
		return t.Primitive
	case KindComplex, KindEnumRef:
		return t.Name
	case KindReference:
		return "Reference"
	case KindOptionOf:
		return "Option<" + t.Inner.String() + ">"
	case KindVecOf:
		return "Vec<" + t.Inner.String() + ">"
	case KindCustom:
		return t.Raw
	default:
		return "<?>"
	}
}
