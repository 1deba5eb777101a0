// Package unwind holds the names and values both generated files must agree
// on to carry a native exception across the C ABI as a tagged result.
package unwind

// Discriminants of a tagged result.
const (
	TagOK  uint32 = 0
	TagErr uint32 = 1
)

// ThrowSymbol is the exported native function that raises the wrapper
// exception. The binding side calls it with an owned message buffer.
func ThrowSymbol(suffix string) string {
	return "ffi" + suffix + "_throw"
}
