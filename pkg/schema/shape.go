// Package schema models the positional wire shape of fcode types.
//
// Because the wire carries no field names or tags, the declaration
// order of fields is the persistent identifier of a record. This
// package gives that contract teeth: shapes extracted from Go source
// can be written to a manifest, hashed, and diffed against a previous
// manifest to catch accidental reorderings and incompatible rewrites
// at build time.
package schema

import (
	"fmt"
	"hash/fnv"
	"io"
)

// Kind identifies a wire shape node.
type Kind string

const (
	KindBool    Kind = "bool"
	KindInt8    Kind = "int8"
	KindInt16   Kind = "int16"
	KindInt32   Kind = "int32"
	KindInt64   Kind = "int64"
	KindInt128  Kind = "int128"
	KindUint8   Kind = "uint8"
	KindUint16  Kind = "uint16"
	KindUint32  Kind = "uint32"
	KindUint64  Kind = "uint64"
	KindUint128 Kind = "uint128"
	KindFloat32 Kind = "float32"
	KindFloat64 Kind = "float64"
	KindString  Kind = "string"
	KindBytes   Kind = "bytes"
	KindUnit    Kind = "unit"

	KindOption   Kind = "option"   // Elem
	KindSequence Kind = "sequence" // Elem
	KindMap      Kind = "map"      // Key, Value
	KindStruct   Kind = "struct"   // Fields
	KindUnion    Kind = "union"    // Variants
	KindRef      Kind = "ref"      // Ref names another manifest type
)

// IsPrimitive reports whether the kind carries no child shapes.
func (k Kind) IsPrimitive() bool {
	switch k {
	case KindOption, KindSequence, KindMap, KindStruct, KindUnion, KindRef:
		return false
	default:
		return true
	}
}

// Signedness classes used by the compatibility checker.
func (k Kind) isSignedInt() bool {
	switch k {
	case KindInt8, KindInt16, KindInt32, KindInt64, KindInt128:
		return true
	}
	return false
}

func (k Kind) isUnsignedInt() bool {
	switch k {
	case KindUint8, KindUint16, KindUint32, KindUint64, KindUint128:
		return true
	}
	return false
}

func (k Kind) isFloat() bool {
	return k == KindFloat32 || k == KindFloat64
}

// intWidth returns the bit width of an integer kind, or 0.
func (k Kind) intWidth() int {
	switch k {
	case KindInt8, KindUint8:
		return 8
	case KindInt16, KindUint16:
		return 16
	case KindInt32, KindUint32:
		return 32
	case KindInt64, KindUint64:
		return 64
	case KindInt128, KindUint128:
		return 128
	}
	return 0
}

// Shape is one node of a wire shape. Child pointers are set according
// to Kind.
type Shape struct {
	Kind Kind

	// Elem is the inner shape of an option or sequence.
	Elem *Shape

	// Key and Value describe a map's entries.
	Key   *Shape
	Value *Shape

	// Fields are a struct's fields in declaration order.
	Fields []Field

	// Variants are a union's variants in discriminant order.
	Variants []Variant

	// Ref names another type in the same manifest.
	Ref string
}

// Field is one struct field. The name documents intent; the position
// is the wire contract.
type Field struct {
	Name  string
	Shape *Shape
}

// Variant is one union variant in discriminant order.
type Variant struct {
	Name     string
	Shape    *Shape
	Fallback bool
}

// String renders the shape as a type expression. Structs and unions
// render as their body-carrying manifest forms only at the top level
// of a named type; nested they must be refs.
func (s *Shape) String() string {
	switch s.Kind {
	case KindOption:
		return "*" + s.Elem.String()
	case KindSequence:
		return "[]" + s.Elem.String()
	case KindMap:
		return "map[" + s.Key.String() + "]" + s.Value.String()
	case KindRef:
		return s.Ref
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	default:
		return string(s.Kind)
	}
}

// Hash returns the 64-bit stability hash of the shape: FNV-1a over the
// positional layout. Field and variant names are excluded, since
// renames are wire-compatible. Referenced type names participate: a
// reference is resolved by name within a manifest. Any change to the
// hash of a deployed type deserves a compatibility review; an
// unchanged hash means the positional layout is identical.
func (s *Shape) Hash() uint64 {
	h := fnv.New64a()
	s.hashInto(h)
	return h.Sum64()
}

func (s *Shape) hashInto(w io.Writer) {
	io.WriteString(w, string(s.Kind))
	switch s.Kind {
	case KindOption, KindSequence:
		io.WriteString(w, "(")
		s.Elem.hashInto(w)
		io.WriteString(w, ")")
	case KindMap:
		io.WriteString(w, "(")
		s.Key.hashInto(w)
		io.WriteString(w, ",")
		s.Value.hashInto(w)
		io.WriteString(w, ")")
	case KindStruct:
		fmt.Fprintf(w, "/%d(", len(s.Fields))
		for _, f := range s.Fields {
			f.Shape.hashInto(w)
			io.WriteString(w, ";")
		}
		io.WriteString(w, ")")
	case KindUnion:
		fmt.Fprintf(w, "/%d(", len(s.Variants))
		for _, v := range s.Variants {
			v.Shape.hashInto(w)
			io.WriteString(w, ";")
		}
		io.WriteString(w, ")")
	case KindRef:
		io.WriteString(w, ":"+s.Ref)
	}
}

// Primitive returns a new shape node for a primitive kind.
func Primitive(k Kind) *Shape {
	return &Shape{Kind: k}
}

// OptionOf wraps a shape in an option.
func OptionOf(elem *Shape) *Shape {
	return &Shape{Kind: KindOption, Elem: elem}
}

// SequenceOf wraps a shape in a sequence.
func SequenceOf(elem *Shape) *Shape {
	return &Shape{Kind: KindSequence, Elem: elem}
}

// MapOf builds a map shape.
func MapOf(key, value *Shape) *Shape {
	return &Shape{Kind: KindMap, Key: key, Value: value}
}

// RefTo builds a reference to a named type.
func RefTo(name string) *Shape {
	return &Shape{Kind: KindRef, Ref: name}
}
