package parser

// Indirection is one pointer or reference sigil of a type spelling. A
// shared reference maps like *const, a mutable one like *mut.
type Indirection struct {
	Mutable bool
}

// TypeSpec is a type spelling split into its indirections and base name.
// Pointers are ordered outermost first.
type TypeSpec struct {
	Spelling string
	Pointers []Indirection
	Base     string
}

type Argument struct {
	Name string
	Type TypeSpec
}

// Declaration is one extern function signature.
type Declaration struct {
	Name           string
	Visibility     string
	DocLines       []string
	AttributeLines []string
	Lifetime       string
	Args           []Argument
	Return         *TypeSpec
}

func (d Declaration) IsPublic() bool {
	return d.Visibility != ""
}

// ArgNames returns the argument identifiers in declaration order.
func (d Declaration) ArgNames() []string {
	names := make([]string, len(d.Args))
	for i, a := range d.Args {
		names[i] = a.Name
	}

	return names
}
