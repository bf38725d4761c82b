package schema

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// A Manifest is an ordered set of named wire shapes, the unit that is
// written to disk, committed, and diffed across releases.
type Manifest struct {
	Types []*NamedShape
}

// NamedShape binds a type name to its shape.
type NamedShape struct {
	Name  string
	Shape *Shape
}

// Lookup finds a named type.
func (m *Manifest) Lookup(name string) (*NamedShape, bool) {
	for _, t := range m.Types {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// Add appends a named shape, rejecting duplicates.
func (m *Manifest) Add(name string, s *Shape) error {
	if _, dup := m.Lookup(name); dup {
		return fmt.Errorf("schema: duplicate type %q", name)
	}
	m.Types = append(m.Types, &NamedShape{Name: name, Shape: s})
	return nil
}

// Sort orders types by name for stable output.
func (m *Manifest) Sort() {
	sort.Slice(m.Types, func(i, j int) bool {
		return m.Types[i].Name < m.Types[j].Name
	})
}

// Write renders the manifest in its text format:
//
//	# fcode schema manifest v1
//	type Point struct hash=0x8d1b...
//	  field X int32
//	  field Y int32
//	type Heading float64 hash=0x77b2...
//	type Event union hash=0x09fe...
//	  variant Login Login
//	  variant Logout unit
//	  variant Other unit fallback
func (m *Manifest) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# fcode schema manifest v1")
	for _, t := range m.Types {
		fmt.Fprintf(bw, "type %s %s hash=%#016x\n", t.Name, t.Shape.String(), t.Shape.Hash())
		switch t.Shape.Kind {
		case KindStruct:
			for _, f := range t.Shape.Fields {
				fmt.Fprintf(bw, "  field %s %s\n", f.Name, f.Shape.String())
			}
		case KindUnion:
			for _, v := range t.Shape.Variants {
				if v.Fallback {
					fmt.Fprintf(bw, "  variant %s %s fallback\n", v.Name, v.Shape.String())
				} else {
					fmt.Fprintf(bw, "  variant %s %s\n", v.Name, v.Shape.String())
				}
			}
		}
	}
	return bw.Flush()
}

// Read parses a manifest from its text format. Recorded hashes are
// verified against the parsed shapes so a hand-edited manifest cannot
// drift silently.
func Read(r io.Reader) (*Manifest, error) {
	m := &Manifest{}
	sc := bufio.NewScanner(r)
	var current *NamedShape
	wantHash := make(map[string]uint64)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := strings.TrimRight(sc.Text(), " \t")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		fields := strings.Fields(trimmed)
		switch fields[0] {
		case "type":
			if len(fields) != 4 || !strings.HasPrefix(fields[3], "hash=") {
				return nil, fmt.Errorf("schema: line %d: malformed type line", lineno)
			}
			name := fields[1]
			var shape *Shape
			switch fields[2] {
			case "struct":
				shape = &Shape{Kind: KindStruct}
			case "union":
				shape = &Shape{Kind: KindUnion}
			default:
				var err error
				shape, err = ParseExpr(fields[2])
				if err != nil {
					return nil, fmt.Errorf("schema: line %d: %w", lineno, err)
				}
			}
			h, err := strconv.ParseUint(strings.TrimPrefix(fields[3], "hash="), 0, 64)
			if err != nil {
				return nil, fmt.Errorf("schema: line %d: bad hash: %w", lineno, err)
			}
			current = &NamedShape{Name: name, Shape: shape}
			wantHash[name] = h
			if err := m.Add(name, shape); err != nil {
				return nil, fmt.Errorf("schema: line %d: %w", lineno, err)
			}
		case "field":
			if current == nil || current.Shape.Kind != KindStruct {
				return nil, fmt.Errorf("schema: line %d: field outside struct", lineno)
			}
			if len(fields) != 3 {
				return nil, fmt.Errorf("schema: line %d: malformed field line", lineno)
			}
			shape, err := ParseExpr(fields[2])
			if err != nil {
				return nil, fmt.Errorf("schema: line %d: %w", lineno, err)
			}
			current.Shape.Fields = append(current.Shape.Fields, Field{Name: fields[1], Shape: shape})
		case "variant":
			if current == nil || current.Shape.Kind != KindUnion {
				return nil, fmt.Errorf("schema: line %d: variant outside union", lineno)
			}
			if len(fields) != 3 && !(len(fields) == 4 && fields[3] == "fallback") {
				return nil, fmt.Errorf("schema: line %d: malformed variant line", lineno)
			}
			shape, err := ParseExpr(fields[2])
			if err != nil {
				return nil, fmt.Errorf("schema: line %d: %w", lineno, err)
			}
			current.Shape.Variants = append(current.Shape.Variants, Variant{
				Name:     fields[1],
				Shape:    shape,
				Fallback: len(fields) == 4,
			})
		default:
			return nil, fmt.Errorf("schema: line %d: unknown directive %q", lineno, fields[0])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	for _, t := range m.Types {
		if got, want := t.Shape.Hash(), wantHash[t.Name]; got != want {
			return nil, fmt.Errorf("schema: type %s: recorded hash %#016x does not match layout hash %#016x", t.Name, want, got)
		}
	}
	return m, nil
}

// ParseExpr parses a type expression: a primitive kind, `*T` for an
// option, `[]T` for a sequence, `map[K]V`, or a reference to a named
// type.
func ParseExpr(s string) (*Shape, error) {
	shape, rest, err := parseExpr(s)
	if err != nil {
		return nil, err
	}
	if rest != "" {
		return nil, fmt.Errorf("trailing input %q in type expression %q", rest, s)
	}
	return shape, nil
}

func parseExpr(s string) (*Shape, string, error) {
	switch {
	case s == "":
		return nil, "", fmt.Errorf("empty type expression")
	case strings.HasPrefix(s, "*"):
		elem, rest, err := parseExpr(s[1:])
		if err != nil {
			return nil, "", err
		}
		return OptionOf(elem), rest, nil
	case strings.HasPrefix(s, "[]"):
		elem, rest, err := parseExpr(s[2:])
		if err != nil {
			return nil, "", err
		}
		return SequenceOf(elem), rest, nil
	case strings.HasPrefix(s, "map["):
		key, rest, err := parseExpr(s[len("map["):])
		if err != nil {
			return nil, "", err
		}
		if !strings.HasPrefix(rest, "]") {
			return nil, "", fmt.Errorf("missing ] in map type")
		}
		value, rest, err := parseExpr(rest[1:])
		if err != nil {
			return nil, "", err
		}
		return MapOf(key, value), rest, nil
	}

	// An identifier: primitive kind or named reference.
	i := 0
	for i < len(s) && s[i] != ']' {
		i++
	}
	ident, rest := s[:i], s[i:]
	if ident == "" {
		return nil, "", fmt.Errorf("empty identifier in type expression")
	}
	k := Kind(ident)
	if k.IsPrimitive() && isKnownPrimitive(k) {
		return Primitive(k), rest, nil
	}
	return RefTo(ident), rest, nil
}

func isKnownPrimitive(k Kind) bool {
	switch k {
	case KindBool, KindInt8, KindInt16, KindInt32, KindInt64, KindInt128,
		KindUint8, KindUint16, KindUint32, KindUint64, KindUint128,
		KindFloat32, KindFloat64, KindString, KindBytes, KindUnit:
		return true
	}
	return false
}
