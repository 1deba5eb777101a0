// Package generator renders parsed declarations into a pair of wrapper
// files: a Rust file whose functions panic with the native error message,
// and a C++ file whose extern "C" functions catch the wrapper exception and
// return it as a tagged result.
package generator

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/janpfeifer/must"

	"github.com/ardanlabs/unwindgen/parser"
	"github.com/ardanlabs/unwindgen/unwind"
)

const (
	DefaultSuffix      = "_unwind"
	DefaultBindingFile = "unwind_ffi.rs"
	DefaultNativeFile  = "unwind_ffi.cpp"
)

// DefaultSkip lists declarations that are never wrapped.
var DefaultSkip = []string{
	// Installs the error manager; it runs before any handler can throw.
	"jpeg_std_error",
	// Takes a callback with the binding calling convention.
	"jpeg_set_marker_processor",
}

// DefaultIncludes are the headers declaring the wrapped functions.
var DefaultIncludes = []string{"jpeglib.h"}

type Options struct {
	Suffix      string
	BindingFile string
	NativeFile  string
	Includes    []string
	Skip        []string
	Types       map[string]string
	Logger      *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		Suffix:      DefaultSuffix,
		BindingFile: DefaultBindingFile,
		NativeFile:  DefaultNativeFile,
		Includes:    append([]string(nil), DefaultIncludes...),
		Skip:        append([]string(nil), DefaultSkip...),
	}
}

type Generator struct {
	decls  []parser.Declaration
	opts   Options
	types  TypeMapper
	skip   map[string]bool
	logger *slog.Logger
}

func New(decls []parser.Declaration, opts Options) *Generator {
	skip := make(map[string]bool, len(opts.Skip))
	for _, name := range opts.Skip {
		skip[name] = true
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Generator{
		decls:  decls,
		opts:   opts,
		types:  NewTypeMapper(opts.Types),
		skip:   skip,
		logger: logger,
	}
}

// Generate returns the content of both wrapper files keyed by file name.
func (g *Generator) Generate() (map[string]string, error) {
	if g.opts.Suffix == "" {
		return nil, fmt.Errorf("wrapper suffix is empty")
	}
	if g.opts.BindingFile == "" || g.opts.NativeFile == "" {
		return nil, fmt.Errorf("output file names must be set")
	}
	if g.opts.BindingFile == g.opts.NativeFile {
		return nil, fmt.Errorf("binding and native files share the name %q", g.opts.BindingFile)
	}

	decls := g.wrapped()

	files := make(map[string]string)

	bindingCode, err := g.generateBinding(decls)
	if err != nil {
		return nil, fmt.Errorf("generating binding wrappers: %w", err)
	}
	files[g.opts.BindingFile] = bindingCode

	nativeCode, err := g.generateNative(decls)
	if err != nil {
		return nil, fmt.Errorf("generating native wrappers: %w", err)
	}
	files[g.opts.NativeFile] = nativeCode

	return files, nil
}

// Skipped reports whether name is excluded from wrapping.
func (g *Generator) Skipped(name string) bool {
	return g.skip[name]
}

func (g *Generator) wrapped() []parser.Declaration {
	seen := make(map[string]bool, len(g.decls))

	var decls []parser.Declaration
	for _, d := range g.decls {
		seen[d.Name] = true
		if g.skip[d.Name] {
			g.logger.Debug("skipping declaration", "name", d.Name)
			continue
		}
		decls = append(decls, d)
	}

	for _, name := range g.opts.Skip {
		if !seen[name] {
			g.logger.Warn("skip entry matches no declaration", "name", name)
		}
	}

	g.logger.Debug("wrapping declarations", "total", len(g.decls), "wrapped", len(decls))

	return decls
}

const header = "// Code generated by unwindgen. DO NOT EDIT.\n"

var bindingPreamble = must.M1(template.New("binding").Parse(header + `
#[repr(C)]
#[derive(Clone, Copy)]
pub struct FfiErrorPayload {
    pub ptr: *mut u8,
    pub len: usize,
    pub cap: usize,
}

#[repr(C)]
#[derive(Clone, Copy)]
pub struct FfiUnit {
    _unused: u8,
}

#[repr(C)]
pub union FfiValue<T> {
    pub ok: ::core::mem::ManuallyDrop<T>,
    pub err: FfiErrorPayload,
}

#[repr(C)]
pub struct FfiResult<T> {
    pub tag: u32,
    pub value: FfiValue<T>,
}

extern "C-unwind" {
    /// Aborts the current native call. Ownership of the buffer moves to
    /// the wrapper that catches it.
    pub fn {{.Throw}}(ptr: *mut u8, len: usize, cap: usize) -> !;
}
`))

var nativePreamble = must.M1(template.New("native").Parse(header + `
#include <stddef.h>
#include <stdint.h>
#include <stdio.h>

extern "C" {
{{- range .Includes}}
#include "{{.}}"
{{- end}}
}

struct ffi_error_payload {
    uint8_t *ptr;
    size_t len;
    size_t cap;
};

struct ffi_unit {
    uint8_t unused;
};

template <typename T>
struct ffi_result {
    uint32_t tag;
    union {
        T ok;
        ffi_error_payload err;
    } value;
};

template <>
struct ffi_result<void> {
    uint32_t tag;
    union {
        ffi_unit ok;
        ffi_error_payload err;
    } value;
};

template <typename T>
ffi_result<T> ffi_ok(T value) {
    ffi_result<T> res;
    res.tag = {{.TagOK}};
    res.value.ok = value;
    return res;
}

inline ffi_result<void> ffi_ok_void() {
    ffi_result<void> res;
    res.tag = {{.TagOK}};
    res.value.ok = ffi_unit{};
    return res;
}

template <typename T>
ffi_result<T> ffi_err(ffi_error_payload payload) {
    ffi_result<T> res;
    res.tag = {{.TagErr}};
    res.value.err = payload;
    return res;
}

struct ffi_unwind_error {
    ffi_error_payload payload;
};

extern "C" void {{.Throw}}(uint8_t *ptr, size_t len, size_t cap) {
    throw ffi_unwind_error{ffi_error_payload{ptr, len, cap}};
}
`))

func (g *Generator) preambleData() map[string]any {
	return map[string]any{
		"Includes": g.opts.Includes,
		"Throw":    unwind.ThrowSymbol(g.opts.Suffix),
		"TagOK":    unwind.TagOK,
		"TagErr":   unwind.TagErr,
	}
}

func (g *Generator) generateBinding(decls []parser.Declaration) (string, error) {
	var buf bytes.Buffer

	if err := bindingPreamble.Execute(&buf, g.preambleData()); err != nil {
		return "", err
	}

	for _, d := range decls {
		fmt.Fprintf(&buf, "\n%s", g.bindingWrapper(d))
	}

	return buf.String(), nil
}

func (g *Generator) generateNative(decls []parser.Declaration) (string, error) {
	var buf bytes.Buffer

	if err := nativePreamble.Execute(&buf, g.preambleData()); err != nil {
		return "", err
	}

	for _, d := range decls {
		fmt.Fprintf(&buf, "\n%s", g.nativeWrapper(d))
	}

	return buf.String(), nil
}

func (g *Generator) bindingWrapper(d parser.Declaration) string {
	var buf bytes.Buffer

	inner := d.Name + g.opts.Suffix

	generics := ""
	if d.Lifetime != "" {
		generics = "<" + d.Lifetime + ">"
	}

	var params []string
	for _, a := range d.Args {
		params = append(params, fmt.Sprintf("%s: %s", a.Name, a.Type.Spelling))
	}
	paramsStr := strings.Join(params, ", ")

	ret := ""
	resultType := "FfiResult<FfiUnit>"
	if d.Return != nil {
		ret = " -> " + d.Return.Spelling
		resultType = "FfiResult<" + d.Return.Spelling + ">"
	}

	vis := ""
	if d.IsPublic() {
		vis = d.Visibility + " "
	}

	for _, line := range d.DocLines {
		fmt.Fprintf(&buf, "%s\n", line)
	}
	for _, line := range d.AttributeLines {
		fmt.Fprintf(&buf, "%s\n", line)
	}

	fmt.Fprintf(&buf, "%sunsafe fn %s%s(%s)%s {\n", vis, d.Name, generics, paramsStr, ret)
	fmt.Fprintf(&buf, "    extern \"C\" {\n")
	fmt.Fprintf(&buf, "        fn %s%s(%s) -> %s;\n", inner, generics, paramsStr, resultType)
	fmt.Fprintf(&buf, "    }\n")
	fmt.Fprintf(&buf, "    let res = %s(%s);\n", inner, strings.Join(d.ArgNames(), ", "))
	fmt.Fprintf(&buf, "    match res.tag {\n")
	if d.Return != nil {
		fmt.Fprintf(&buf, "        %d => ::core::mem::ManuallyDrop::into_inner(res.value.ok),\n", unwind.TagOK)
	} else {
		fmt.Fprintf(&buf, "        %d => {}\n", unwind.TagOK)
	}
	fmt.Fprintf(&buf, "        _ => {\n")
	fmt.Fprintf(&buf, "            let err = res.value.err;\n")
	fmt.Fprintf(&buf, "            panic!(\"{}\", String::from_raw_parts(err.ptr, err.len, err.cap))\n")
	fmt.Fprintf(&buf, "        }\n")
	fmt.Fprintf(&buf, "    }\n")
	fmt.Fprintf(&buf, "}\n")

	return buf.String()
}

// nativeWrapper forwards to the wrapped function through the global scope
// and builds the result with the preamble helpers. No local is declared
// next to the parameters, so any argument name reaches the call intact.
func (g *Generator) nativeWrapper(d parser.Declaration) string {
	var buf bytes.Buffer

	var params []string
	for _, a := range d.Args {
		params = append(params, fmt.Sprintf("%s %s", g.types.Map(a.Type), a.Name))
	}

	value := "void"
	if d.Return != nil {
		value = g.types.Map(*d.Return)
	}

	call := fmt.Sprintf("::%s(%s)", d.Name, strings.Join(d.ArgNames(), ", "))

	fmt.Fprintf(&buf, "extern \"C\" ffi_result<%s> %s%s(%s) {\n", value, d.Name, g.opts.Suffix, strings.Join(params, ", "))
	fmt.Fprintf(&buf, "    try {\n")
	if d.Return != nil {
		fmt.Fprintf(&buf, "        return ::ffi_ok<%s>(%s);\n", value, call)
	} else {
		fmt.Fprintf(&buf, "        %s;\n", call)
		fmt.Fprintf(&buf, "        return ::ffi_ok_void();\n")
	}
	fmt.Fprintf(&buf, "    } catch (const ::ffi_unwind_error &e) {\n")
	fmt.Fprintf(&buf, "        return ::ffi_err<%s>(e.payload);\n", value)
	fmt.Fprintf(&buf, "    }\n")
	fmt.Fprintf(&buf, "}\n")

	return buf.String()
}
