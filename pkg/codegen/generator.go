// Package codegen generates Go source carrying wire-shape stability
// hashes. The generated constants pin the positional layout of each
// type at build time: a test comparing them against freshly extracted
// shapes fails the build when a field order changes by accident.
package codegen

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tijsvd/fcode/pkg/schema"
)

// Options configures code generation.
type Options struct {
	// Package is the package name of the generated file.
	Package string

	// ConstSuffix is appended to each type name to form the constant
	// name. Defaults to "WireHash".
	ConstSuffix string

	// Header is an optional comment line placed below the generated-code
	// marker, e.g. the command that produced the file.
	Header string
}

// Generate writes a Go source file with one uint64 constant per
// manifest type.
func Generate(w io.Writer, m *schema.Manifest, opts Options) error {
	if opts.Package == "" {
		return fmt.Errorf("codegen: package name is required")
	}
	suffix := opts.ConstSuffix
	if suffix == "" {
		suffix = "WireHash"
	}

	var b strings.Builder
	b.WriteString("// Code generated by fcode gen. DO NOT EDIT.\n")
	if opts.Header != "" {
		fmt.Fprintf(&b, "// %s\n", opts.Header)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "package %s\n\n", opts.Package)

	names := make([]string, 0, len(m.Types))
	byName := make(map[string]*schema.NamedShape, len(m.Types))
	for _, t := range m.Types {
		names = append(names, t.Name)
		byName[t.Name] = t
	}
	sort.Strings(names)

	b.WriteString("// Positional wire-shape hashes. A changed value means the\n")
	b.WriteString("// corresponding type's field layout changed; review against the\n")
	b.WriteString("// committed schema manifest before shipping.\n")
	b.WriteString("const (\n")
	for _, name := range names {
		t := byName[name]
		fmt.Fprintf(&b, "\t%s%s uint64 = %#016x\n", identifier(name), suffix, t.Shape.Hash())
	}
	b.WriteString(")\n")

	_, err := io.WriteString(w, b.String())
	return err
}

var titleCaser = cases.Title(language.English, cases.NoLower)

// identifier turns a manifest type name into an exported Go
// identifier.
func identifier(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return ' '
		}
	}, name)
	parts := strings.Fields(clean)
	for i, p := range parts {
		parts[i] = titleCaser.String(p)
	}
	id := strings.Join(parts, "")
	if id == "" {
		id = "Type"
	}
	if id[0] >= '0' && id[0] <= '9' {
		id = "T" + id
	}
	return id
}
