package extract

import (
	"fmt"
	"go/ast"
	"go/types"
	"reflect"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/tijsvd/fcode/pkg/schema"
)

// Paths of the wide-integer types, which have no go/types kind of
// their own.
const (
	int128Path  = "github.com/tijsvd/fcode/pkg/fcode.Int128"
	uint128Path = "github.com/tijsvd/fcode/pkg/fcode.Uint128"
)

// Collector walks loaded packages and accumulates wire shapes.
type Collector struct {
	manifest *schema.Manifest
	errs     []error
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{manifest: &schema.Manifest{}}
}

// Collect extracts shapes from all exported named types of the given
// packages. Interface types carry their variants in a doc-comment
// annotation, since discriminant order is a registration-time fact:
//
//	// Shape is anything the renderer can draw.
//	//
//	// fcode:union=Circle,Rect,*Unknown
//	type Shape interface{ ... }
//
// The * prefix marks the fallback variant.
func (c *Collector) Collect(pkgs []*packages.Package) (*schema.Manifest, error) {
	for _, pkg := range pkgs {
		c.collectPackage(pkg)
	}
	if len(c.errs) > 0 {
		return nil, c.errs[0]
	}
	c.manifest.Sort()
	return c.manifest, nil
}

func (c *Collector) collectPackage(pkg *packages.Package) {
	docs := typeDocs(pkg)
	scope := pkg.Types.Scope()
	for _, name := range scope.Names() {
		obj := scope.Lookup(name)
		typeName, ok := obj.(*types.TypeName)
		if !ok || !typeName.Exported() || typeName.IsAlias() {
			continue
		}
		c.collectType(typeName, docs[name])
	}
}

// typeDocs maps type names to their doc comments.
func typeDocs(pkg *packages.Package) map[string]string {
	docs := make(map[string]string)
	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			genDecl, ok := decl.(*ast.GenDecl)
			if !ok {
				continue
			}
			for _, spec := range genDecl.Specs {
				typeSpec, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				doc := genDecl.Doc
				if typeSpec.Doc != nil {
					doc = typeSpec.Doc
				}
				if doc != nil {
					docs[typeSpec.Name.Name] = doc.Text()
				}
			}
		}
	}
	return docs
}

func (c *Collector) collectType(typeName *types.TypeName, doc string) {
	name := typeName.Name()
	switch t := typeName.Type().Underlying().(type) {
	case *types.Struct:
		shape, err := c.structShape(name, t)
		if err != nil {
			c.errs = append(c.errs, err)
			return
		}
		c.add(name, shape)
	case *types.Interface:
		variants, ok := unionAnnotation(doc)
		if !ok {
			// Interfaces without an annotation are not part of the wire
			// surface.
			return
		}
		shape := &schema.Shape{Kind: schema.KindUnion}
		for _, v := range variants {
			fallback := strings.HasPrefix(v, "*")
			v = strings.TrimPrefix(v, "*")
			shape.Variants = append(shape.Variants, schema.Variant{
				Name:     v,
				Shape:    schema.RefTo(v),
				Fallback: fallback,
			})
		}
		c.add(name, shape)
	default:
		// Named basics, slices, maps, arrays, and pointers get an
		// entry of their underlying shape so references resolve.
		shape, err := c.fieldShape(name, typeName.Type().Underlying())
		if err != nil {
			return
		}
		c.add(name, shape)
	}
}

func (c *Collector) add(name string, s *schema.Shape) {
	if err := c.manifest.Add(name, s); err != nil {
		c.errs = append(c.errs, err)
	}
}

// unionAnnotation parses a "fcode:union=A,B,*C" doc annotation.
func unionAnnotation(doc string) ([]string, bool) {
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "fcode:union="); ok {
			return strings.Split(rest, ","), true
		}
	}
	return nil, false
}

// structShape builds the shape of a struct type: its exported,
// non-skipped fields in declaration order.
func (c *Collector) structShape(name string, t *types.Struct) (*schema.Shape, error) {
	shape := &schema.Shape{Kind: schema.KindStruct}
	var transparent bool
	for i := 0; i < t.NumFields(); i++ {
		field := t.Field(i)
		if !field.Exported() {
			continue
		}
		tag := tagValue(t.Tag(i), "fcode")
		if tag == "-" {
			continue
		}
		if tagHasOption(tag, "transparent") {
			transparent = true
		}
		fs, err := c.fieldShape(fmt.Sprintf("%s.%s", name, field.Name()), field.Type())
		if err != nil {
			return nil, err
		}
		shape.Fields = append(shape.Fields, schema.Field{Name: field.Name(), Shape: fs})
	}
	if transparent && len(shape.Fields) == 1 {
		return shape.Fields[0].Shape, nil
	}
	if len(shape.Fields) == 0 {
		return schema.Primitive(schema.KindUnit), nil
	}
	return shape, nil
}

// fieldShape maps one Go type to its wire shape.
func (c *Collector) fieldShape(loc string, t types.Type) (*schema.Shape, error) {
	if named, ok := t.(*types.Named); ok {
		obj := named.Obj()
		switch qualifiedPath(obj) {
		case int128Path:
			return schema.Primitive(schema.KindInt128), nil
		case uint128Path:
			return schema.Primitive(schema.KindUint128), nil
		}
		// Named composites and structs are referenced by name; named
		// basics flatten to their underlying primitive so that a local
		// alias does not force a manifest entry.
		if _, isBasic := named.Underlying().(*types.Basic); !isBasic {
			return schema.RefTo(obj.Name()), nil
		}
		t = named.Underlying()
	}

	switch u := t.(type) {
	case *types.Basic:
		return basicShape(loc, u)
	case *types.Pointer:
		elem, err := c.fieldShape(loc, u.Elem())
		if err != nil {
			return nil, err
		}
		return schema.OptionOf(elem), nil
	case *types.Slice:
		if isByte(u.Elem()) {
			return schema.Primitive(schema.KindBytes), nil
		}
		elem, err := c.fieldShape(loc, u.Elem())
		if err != nil {
			return nil, err
		}
		return schema.SequenceOf(elem), nil
	case *types.Array:
		elem, err := c.fieldShape(loc, u.Elem())
		if err != nil {
			return nil, err
		}
		return schema.SequenceOf(elem), nil
	case *types.Map:
		key, err := c.fieldShape(loc, u.Key())
		if err != nil {
			return nil, err
		}
		value, err := c.fieldShape(loc, u.Elem())
		if err != nil {
			return nil, err
		}
		return schema.MapOf(key, value), nil
	case *types.Struct:
		if u.NumFields() == 0 {
			return schema.Primitive(schema.KindUnit), nil
		}
		return nil, fmt.Errorf("extract: %s: anonymous struct types are not supported; name the type", loc)
	default:
		return nil, fmt.Errorf("extract: %s: unsupported type %s", loc, t)
	}
}

func basicShape(loc string, b *types.Basic) (*schema.Shape, error) {
	switch b.Kind() {
	case types.Bool:
		return schema.Primitive(schema.KindBool), nil
	case types.Int8:
		return schema.Primitive(schema.KindInt8), nil
	case types.Int16:
		return schema.Primitive(schema.KindInt16), nil
	case types.Int32:
		return schema.Primitive(schema.KindInt32), nil
	case types.Int64, types.Int:
		return schema.Primitive(schema.KindInt64), nil
	case types.Uint8:
		return schema.Primitive(schema.KindUint8), nil
	case types.Uint16:
		return schema.Primitive(schema.KindUint16), nil
	case types.Uint32:
		return schema.Primitive(schema.KindUint32), nil
	case types.Uint64, types.Uint, types.Uintptr:
		return schema.Primitive(schema.KindUint64), nil
	case types.Float32:
		return schema.Primitive(schema.KindFloat32), nil
	case types.Float64:
		return schema.Primitive(schema.KindFloat64), nil
	case types.String:
		return schema.Primitive(schema.KindString), nil
	default:
		return nil, fmt.Errorf("extract: %s: unsupported basic type %s", loc, b)
	}
}

func isByte(t types.Type) bool {
	b, ok := t.Underlying().(*types.Basic)
	return ok && b.Kind() == types.Uint8
}

func qualifiedPath(obj *types.TypeName) string {
	if obj.Pkg() == nil {
		return obj.Name()
	}
	return obj.Pkg().Path() + "." + obj.Name()
}

// tagValue extracts one key from a struct tag string.
func tagValue(tag, key string) string {
	return reflect.StructTag(tag).Get(key)
}

// tagHasOption reports whether a comma-separated tag carries an option.
func tagHasOption(tag, option string) bool {
	for tag != "" {
		var part string
		part, tag, _ = strings.Cut(tag, ",")
		if part == option {
			return true
		}
	}
	return false
}
