package fcode

import (
	"reflect"
	"sort"
	"strings"
	"sync"
)

// The reflection walker maps Go values onto the wire constructs:
//
//	bool, integers, floats     primitive encodings
//	Int128 / Uint128           wide Int varints
//	string, []byte             Bytes
//	pointer                    optional (nil is absent)
//	struct                     Sequence of fields in declaration order
//	empty struct               unit
//	transparent wrapper        its single field, directly
//	array, slice               Sequence
//	map                        Sequence of interleaved keys and values
//	interface                  Variant via a registered Union
//
// Field order is the wire contract: fields are walked in declaration
// order and positions must never be reordered. New fields go at the
// end. A field tagged `fcode:"-"` never reaches the wire.

var (
	int128Type  = reflect.TypeOf(Int128{})
	uint128Type = reflect.TypeOf(Uint128{})
)

// fieldInfo holds metadata about a marshalled struct field.
type fieldInfo struct {
	name  string
	index int
}

// structInfo holds cached metadata about a struct type.
type structInfo struct {
	fields      []fieldInfo
	transparent bool // single field encoded in place of the struct
}

// structInfoCache caches struct metadata keyed by reflect.Type.
var structInfoCache sync.Map

// getStructInfo returns cached struct metadata.
func getStructInfo(t reflect.Type) *structInfo {
	if cached, ok := structInfoCache.Load(t); ok {
		return cached.(*structInfo)
	}

	info := &structInfo{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("fcode")
		if tag == "-" {
			continue
		}
		info.fields = append(info.fields, fieldInfo{name: f.Name, index: i})
		if hasTagOption(tag, "transparent") {
			info.transparent = true
		}
	}
	if info.transparent && len(info.fields) != 1 {
		info.transparent = false
	}

	structInfoCache.Store(t, info)
	return info
}

// hasTagOption reports whether a comma-separated tag carries an option.
func hasTagOption(tag, option string) bool {
	for tag != "" {
		var part string
		part, tag, _ = strings.Cut(tag, ",")
		if part == option {
			return true
		}
	}
	return false
}

// encodeValue encodes one reflect.Value.
func encodeValue(e *Encoder, v reflect.Value, opts *Options) error {
	if !v.IsValid() {
		return NewEncodeError("cannot encode untyped nil", nil)
	}

	t := v.Type()
	switch t {
	case int128Type:
		return e.Int128(v.Interface().(Int128))
	case uint128Type:
		return e.Uint128(v.Interface().(Uint128))
	}

	switch v.Kind() {
	case reflect.Bool:
		return e.Bool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return e.Int64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return e.Uint64(v.Uint())
	case reflect.Float32:
		return e.Float32(float32(v.Float()))
	case reflect.Float64:
		return e.Float64(v.Float())
	case reflect.String:
		return e.String(v.String())
	case reflect.Pointer:
		return encodeOptional(e, v, opts)
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return e.Bytes(v.Bytes())
		}
		return encodeSequence(e, v, opts)
	case reflect.Array:
		return encodeSequence(e, v, opts)
	case reflect.Map:
		return encodeMap(e, v, opts)
	case reflect.Struct:
		return encodeStruct(e, v, opts)
	case reflect.Interface:
		return encodeUnion(e, v, opts)
	default:
		return NewEncodeError("unsupported type "+t.String(), nil)
	}
}

// encodeOptional encodes a pointer as an optional value.
func encodeOptional(e *Encoder, v reflect.Value, opts *Options) error {
	if v.IsNil() {
		return e.None()
	}
	if err := e.Some(); err != nil {
		return err
	}
	return encodeValue(e, v.Elem(), opts)
}

// encodeSequence encodes a slice or array as a counted sequence.
func encodeSequence(e *Encoder, v reflect.Value, opts *Options) error {
	n := v.Len()
	if err := e.BeginSequence(n); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := encodeValue(e, v.Index(i), opts); err != nil {
			return err
		}
	}
	return nil
}

// encodeStruct encodes a struct as a sequence of its fields in
// declaration order. An empty struct is the unit value; a transparent
// wrapper encodes its single field directly.
func encodeStruct(e *Encoder, v reflect.Value, opts *Options) error {
	info := getStructInfo(v.Type())
	if info.transparent {
		return encodeValue(e, v.Field(info.fields[0].index), opts)
	}
	if len(info.fields) == 0 {
		return e.Unit()
	}
	if err := e.BeginSequence(len(info.fields)); err != nil {
		return err
	}
	for _, f := range info.fields {
		if err := encodeValue(e, v.Field(f.index), opts); err != nil {
			return err
		}
	}
	return nil
}

// encodeMap encodes a map as a sequence of interleaved keys and
// values. Keys are sorted so that two encodes of the same map produce
// identical bytes.
func encodeMap(e *Encoder, v reflect.Value, opts *Options) error {
	if !isValidMapKeyType(v.Type().Key()) {
		return NewEncodeError("unsupported map key type "+v.Type().Key().String(), nil)
	}
	n := v.Len()
	if err := e.BeginMap(n); err != nil {
		return err
	}
	keys := sortMapKeys(v.MapKeys())
	for _, key := range keys {
		if err := encodeValue(e, key, opts); err != nil {
			return err
		}
		if err := encodeValue(e, v.MapIndex(key), opts); err != nil {
			return err
		}
	}
	return nil
}

// encodeUnion encodes an interface value as a variant of its
// registered union.
func encodeUnion(e *Encoder, v reflect.Value, opts *Options) error {
	if v.IsNil() {
		return NewEncodeError("cannot encode nil interface "+v.Type().String(), nil)
	}
	u, ok := unionsFor(opts).lookup(v.Type())
	if !ok {
		return NewEncodeError("no union registered for "+v.Type().String(), nil)
	}
	elem := v.Elem()
	disc, ok := u.discOf(elem.Type())
	if !ok {
		return NewEncodeError("type "+elem.Type().String()+" is not a variant of "+v.Type().String(), nil)
	}
	if err := e.BeginVariant(disc); err != nil {
		return err
	}
	return encodeValue(e, elem, opts)
}

// isValidMapKeyType reports whether a type can be a map key on the
// wire. Keys must have a total order for deterministic encoding.
func isValidMapKeyType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	default:
		return false
	}
}

// sortMapKeys sorts map keys for deterministic encoding.
func sortMapKeys(keys []reflect.Value) []reflect.Value {
	if len(keys) <= 1 {
		return keys
	}
	switch keys[0].Kind() {
	case reflect.String:
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		sort.Slice(keys, func(i, j int) bool { return keys[i].Int() < keys[j].Int() })
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		sort.Slice(keys, func(i, j int) bool { return keys[i].Uint() < keys[j].Uint() })
	case reflect.Bool:
		sort.Slice(keys, func(i, j int) bool { return !keys[i].Bool() && keys[j].Bool() })
	}
	return keys
}
