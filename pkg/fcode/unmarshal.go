package fcode

import (
	"reflect"
)

// decodeValue decodes one value from the decoder into v, which must be
// settable. Composite decodes always drain their sequence reader, also
// on error paths, so the cursor ends at the composite boundary.
func decodeValue(d *Decoder, v reflect.Value, opts *Options) error {
	t := v.Type()
	switch t {
	case int128Type:
		i, err := d.Int128()
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(i))
		return nil
	case uint128Type:
		u, err := d.Uint128()
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(u))
		return nil
	}

	switch v.Kind() {
	case reflect.Bool:
		b, err := d.Bool()
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int8:
		i, err := d.Int8()
		if err != nil {
			return err
		}
		v.SetInt(int64(i))
	case reflect.Int16:
		i, err := d.Int16()
		if err != nil {
			return err
		}
		v.SetInt(int64(i))
	case reflect.Int32:
		i, err := d.Int32()
		if err != nil {
			return err
		}
		v.SetInt(int64(i))
	case reflect.Int64, reflect.Int:
		i, err := d.Int64()
		if err != nil {
			return err
		}
		if v.OverflowInt(i) {
			return ErrValueOverflow
		}
		v.SetInt(i)
	case reflect.Uint8:
		u, err := d.Uint8()
		if err != nil {
			return err
		}
		v.SetUint(uint64(u))
	case reflect.Uint16:
		u, err := d.Uint16()
		if err != nil {
			return err
		}
		v.SetUint(uint64(u))
	case reflect.Uint32:
		u, err := d.Uint32()
		if err != nil {
			return err
		}
		v.SetUint(uint64(u))
	case reflect.Uint64, reflect.Uint, reflect.Uintptr:
		u, err := d.Uint64()
		if err != nil {
			return err
		}
		if v.OverflowUint(u) {
			return ErrValueOverflow
		}
		v.SetUint(u)
	case reflect.Float32:
		f, err := d.Float32()
		if err != nil {
			return err
		}
		v.SetFloat(float64(f))
	case reflect.Float64:
		f, err := d.Float64()
		if err != nil {
			return err
		}
		v.SetFloat(f)
	case reflect.String:
		s, err := d.String()
		if err != nil {
			return err
		}
		v.SetString(s)
	case reflect.Pointer:
		return decodeOptional(d, v, opts)
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			b, err := d.Bytes()
			if err != nil {
				return err
			}
			v.SetBytes(append([]byte(nil), b...))
			return nil
		}
		return decodeSlice(d, v, opts)
	case reflect.Array:
		return decodeArray(d, v, opts)
	case reflect.Map:
		return decodeMap(d, v, opts)
	case reflect.Struct:
		return decodeStruct(d, v, opts)
	case reflect.Interface:
		return decodeUnion(d, v, opts)
	default:
		return NewDecodeError("unsupported type "+t.String(), nil)
	}
	return nil
}

// decodeOptional decodes an optional into a pointer: absent sets nil,
// present allocates and decodes the inner value.
func decodeOptional(d *Decoder, v reflect.Value, opts *Options) error {
	ok, err := d.Option()
	if err != nil {
		return err
	}
	if !ok {
		v.SetZero()
		return nil
	}
	if v.IsNil() {
		v.Set(reflect.New(v.Type().Elem()))
	}
	return decodeValue(d, v.Elem(), opts)
}

// decodeSlice decodes a counted sequence into a slice.
func decodeSlice(d *Decoder, v reflect.Value, opts *Options) error {
	seq, err := d.Sequence()
	if err != nil {
		return err
	}
	n := seq.Len()
	slice := reflect.MakeSlice(v.Type(), n, n)
	for i := 0; i < n && seq.Next(); i++ {
		if err := decodeValue(d, slice.Index(i), opts); err != nil {
			_ = seq.Finish()
			return err
		}
	}
	v.Set(slice)
	return seq.Finish()
}

// decodeArray decodes a counted sequence into a fixed-size array.
// Extra wire elements are skipped; missing trailing elements are
// zeroed.
func decodeArray(d *Decoder, v reflect.Value, opts *Options) error {
	seq, err := d.Tuple(v.Len())
	if err != nil {
		return err
	}
	i := 0
	for ; i < v.Len() && seq.Next(); i++ {
		if err := decodeValue(d, v.Index(i), opts); err != nil {
			_ = seq.Finish()
			return err
		}
	}
	for ; i < v.Len(); i++ {
		v.Index(i).SetZero()
	}
	return seq.Finish()
}

// decodeMap decodes an interleaved key/value sequence into a map.
func decodeMap(d *Decoder, v reflect.Value, opts *Options) error {
	seq, err := d.Map()
	if err != nil {
		return err
	}
	entries := seq.Entries()
	m := reflect.MakeMapWithSize(v.Type(), entries)
	keyType := v.Type().Key()
	elemType := v.Type().Elem()
	for i := 0; i < entries; i++ {
		key := reflect.New(keyType).Elem()
		seq.Next()
		if err := decodeValue(d, key, opts); err != nil {
			_ = seq.Finish()
			return err
		}
		elem := reflect.New(elemType).Elem()
		seq.Next()
		if err := decodeValue(d, elem, opts); err != nil {
			_ = seq.Finish()
			return err
		}
		m.SetMapIndex(key, elem)
	}
	v.Set(m)
	return seq.Finish()
}

// decodeStruct decodes a sequence of fields in declaration order.
// Extra wire fields are skipped by the reader teardown; missing
// trailing fields are set to their zero value.
func decodeStruct(d *Decoder, v reflect.Value, opts *Options) error {
	info := getStructInfo(v.Type())
	if info.transparent {
		return decodeValue(d, v.Field(info.fields[0].index), opts)
	}
	if len(info.fields) == 0 {
		return d.Unit()
	}

	seq, err := d.Tuple(len(info.fields))
	if err != nil {
		return err
	}
	i := 0
	for ; i < len(info.fields) && seq.Next(); i++ {
		if err := decodeValue(d, v.Field(info.fields[i].index), opts); err != nil {
			_ = seq.Finish()
			return err
		}
	}
	for ; i < len(info.fields); i++ {
		v.Field(info.fields[i].index).SetZero()
	}
	return seq.Finish()
}

// decodeUnion decodes a variant into an interface value via its
// registered union.
func decodeUnion(d *Decoder, v reflect.Value, opts *Options) error {
	u, ok := unionsFor(opts).lookup(v.Type())
	if !ok {
		return NewDecodeError("no union registered for "+v.Type().String(), nil)
	}
	disc, err := d.Variant()
	if err != nil {
		return err
	}
	t, ok := u.typeOf(disc)
	if !ok {
		if u.fallback == nil {
			return NewDecodeError(v.Type().String(), ErrUnknownVariant)
		}
		if err := d.Skip(); err != nil {
			return err
		}
		v.Set(reflect.Zero(u.fallback))
		return nil
	}
	nv := reflect.New(t).Elem()
	if err := decodeValue(d, nv, opts); err != nil {
		return err
	}
	v.Set(nv)
	return nil
}
