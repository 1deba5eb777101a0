// Package parser reads the extern block of a binding crate and turns each
// function declaration into a Declaration.
//
// The accepted grammar is a restricted subset of Rust extern syntax:
//
//	extern "C" {
//	    /// doc
//	    #[attribute]
//	    pub fn name<'a>(arg: Type, ...) -> RetType;
//	}
//
// A declaration may be preceded only by a visibility (pub or pub(...))
// and an unsafe or safe qualifier.
//
// Declarations are separated by ';', so a ';' may not appear inside a doc
// line or a type (array types such as [u8; 80] are not supported).
package parser

import (
	"regexp"
	"strings"

	"github.com/getlantern/errors"
	"github.com/janpfeifer/must"
)

var fnKeywordRe = regexp.MustCompile(`\bfn\b`)
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// qualifiersRe matches what may precede fn: an optional pub or pub(...)
// followed by an optional unsafe or safe.
var qualifiersRe = regexp.MustCompile(`^(?:(pub(?:\s*\([^()]*\))?)(?:\s+|$))?(?:unsafe|safe)?$`)

// Parse returns the declarations of the outermost brace block of src in
// source order. Any malformed declaration fails the whole parse.
func Parse(src string) ([]Declaration, error) {
	body, err := externBody(src)
	if err != nil {
		return nil, err
	}

	var decls []Declaration
	seen := make(map[string]bool)

	for _, fragment := range strings.Split(body, ";") {
		decl, ok, err := parseDeclaration(fragment)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		if seen[decl.Name] {
			return nil, errors.New("duplicate declaration of %s", decl.Name).With("declaration", decl.Name)
		}
		seen[decl.Name] = true

		decls = append(decls, decl)
	}

	return decls, nil
}

// MustParse is like Parse but panics on malformed input.
func MustParse(src string) []Declaration {
	return must.M1(Parse(src))
}

func externBody(src string) (string, error) {
	open := strings.Index(src, "{")
	closing := strings.LastIndex(src, "}")
	if open == -1 || closing == -1 || closing < open {
		return "", errors.New("no enclosing brace block found")
	}

	return src[open+1 : closing], nil
}

// parseDeclaration reports ok=false for fragments holding only whitespace
// or plain comments.
func parseDeclaration(fragment string) (Declaration, bool, error) {
	var decl Declaration

	// Doc and attribute lines are only recognizable before the fragment is
	// flattened onto one line.
	lines := strings.Split(fragment, "\n")
	i := 0
header:
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		switch {
		case line == "":
		case strings.HasPrefix(line, "///"):
			decl.DocLines = append(decl.DocLines, line)
		case strings.HasPrefix(line, "#["):
			decl.AttributeLines = append(decl.AttributeLines, line)
		case strings.HasPrefix(line, "//"):
		default:
			break header
		}
	}

	sig := strings.Join(strings.Fields(strings.Join(lines[i:], " ")), " ")
	if sig == "" {
		if len(decl.DocLines) > 0 || len(decl.AttributeLines) > 0 {
			return decl, false, errors.New("doc or attribute lines without a declaration").With("fragment", strings.TrimSpace(fragment))
		}
		return decl, false, nil
	}

	loc := fnKeywordRe.FindStringIndex(sig)
	if loc == nil {
		return decl, false, errors.New("missing fn keyword in %q", sig)
	}

	prefix := strings.TrimSpace(sig[:loc[0]])
	m := qualifiersRe.FindStringSubmatch(prefix)
	if m == nil {
		return decl, false, errors.New("unexpected %q before fn", prefix).With("signature", sig)
	}
	decl.Visibility = m[1]

	rest := sig[loc[1]:]

	open := strings.Index(rest, "(")
	if open == -1 {
		return decl, false, errors.New("missing argument list in %q", sig)
	}

	nameEnd := open
	lt := strings.Index(rest, "<")
	if lt != -1 && lt < open {
		nameEnd = lt
	}

	decl.Name = strings.TrimSpace(rest[:nameEnd])
	if !identRe.MatchString(decl.Name) {
		return decl, false, errors.New("invalid function name %q", decl.Name).With("signature", sig)
	}

	if nameEnd == lt {
		gt := strings.Index(rest[lt:open], ">")
		if gt == -1 {
			return decl, false, errors.New("unterminated generic parameter list").With("declaration", decl.Name)
		}
		decl.Lifetime = strings.TrimSpace(rest[lt+1 : lt+gt])
	}

	closing := matchParen(rest, open)
	if closing == -1 {
		return decl, false, errors.New("unbalanced parentheses").With("declaration", decl.Name)
	}

	args, err := splitArgs(decl.Name, rest[open+1:closing])
	if err != nil {
		return decl, false, err
	}
	decl.Args = args

	tail := strings.TrimSpace(rest[closing+1:])
	if tail != "" {
		ret, ok := strings.CutPrefix(tail, "->")
		if !ok {
			return decl, false, errors.New("unexpected %q after argument list", tail).With("declaration", decl.Name)
		}

		ret = strings.TrimSpace(ret)
		if ret == "" {
			return decl, false, errors.New("empty return type").With("declaration", decl.Name)
		}

		if ret != "()" {
			ts := ParseType(ret)
			decl.Return = &ts
		}
	}

	return decl, true, nil
}

// matchParen returns the index of the ')' closing the '(' at open, or -1.
func matchParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}

// splitArgs splits an argument list on commas that are not nested inside
// <>, () or [].
func splitArgs(decl, list string) ([]Argument, error) {
	var parts []string

	depth := 0
	start := 0
	for i := 0; i < len(list); i++ {
		switch list[i] {
		case '<', '(', '[':
			depth++
		case '>':
			if i > 0 && list[i-1] == '-' {
				continue
			}
			depth--
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, list[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, list[start:])

	var args []Argument
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, typ, ok := strings.Cut(part, ":")
		if !ok {
			return nil, errors.New("argument %q has no type", part).With("declaration", decl)
		}

		name = strings.TrimSpace(name)
		typ = strings.TrimSpace(typ)
		if !identRe.MatchString(name) {
			return nil, errors.New("invalid argument name %q", name).With("declaration", decl)
		}
		if typ == "" {
			return nil, errors.New("argument %s has an empty type", name).With("declaration", decl)
		}

		args = append(args, Argument{
			Name: name,
			Type: ParseType(typ),
		})
	}

	return args, nil
}
