package generator

import (
	"strings"

	"github.com/ardanlabs/unwindgen/parser"
)

// TypeMapper translates binding type spellings into C++ spellings.
type TypeMapper struct {
	extra map[string]string
}

// NewTypeMapper returns a mapper that consults extra before the built-in
// table. Names found in neither are used unchanged.
func NewTypeMapper(extra map[string]string) TypeMapper {
	return TypeMapper{extra: extra}
}

// MapSpelling maps a raw type spelling such as "&'a mut jpeg_error_mgr".
func (m TypeMapper) MapSpelling(spelling string) string {
	return m.Map(parser.ParseType(spelling))
}

// Map writes the mapped base followed by one pointer token per
// indirection, innermost first, so "*mut *const u8" becomes
// "uint8_t const * *".
func (m TypeMapper) Map(ts parser.TypeSpec) string {
	var b strings.Builder
	b.WriteString(m.base(ts.Base))

	for i := len(ts.Pointers) - 1; i >= 0; i-- {
		if ts.Pointers[i].Mutable {
			b.WriteString(" *")
		} else {
			b.WriteString(" const *")
		}
	}

	return b.String()
}

func (m TypeMapper) base(name string) string {
	if native, ok := m.extra[name]; ok {
		return native
	}

	switch name {
	case "c_void":
		return "void"
	case "boolean":
		return "boolean"
	case "c_char":
		return "char"
	case "c_int":
		return "int"
	case "c_uint":
		return "unsigned int"
	case "c_long":
		return "long"
	case "c_ulong":
		return "unsigned long"
	case "u8":
		return "uint8_t"
	case "i8":
		return "int8_t"
	case "u16":
		return "uint16_t"
	case "i16":
		return "int16_t"
	case "u32":
		return "uint32_t"
	case "i32":
		return "int32_t"
	case "u64":
		return "uint64_t"
	case "i64":
		return "int64_t"
	case "usize":
		return "size_t"
	case "isize":
		return "ptrdiff_t"
	case "f32":
		return "float"
	case "f64":
		return "double"

	// The native prototypes do not distinguish the mutable array aliases.
	case "JSAMPARRAY_MUT":
		return "JSAMPARRAY"
	case "JSAMPIMAGE_MUT":
		return "JSAMPIMAGE"
	default:
		return name
	}
}
