package schema

import "fmt"

// BreakingChangeType classifies an incompatible schema rewrite.
type BreakingChangeType int

const (
	// FieldTypeChanged indicates a field's shape changed in a way the
	// wire cannot absorb.
	FieldTypeChanged BreakingChangeType = iota
	// FieldReordered indicates fields moved to different positions.
	FieldReordered
	// FieldInserted indicates a field was inserted before the end.
	FieldInserted
	// SignednessChanged indicates an integer changed signedness.
	SignednessChanged
	// VariantRemoved indicates a union variant was removed or moved.
	VariantRemoved
	// TypeRemoved indicates a named type disappeared.
	TypeRemoved
	// OptionalityChanged indicates option wrapping was added or removed.
	OptionalityChanged
)

// String returns a human-readable description.
func (t BreakingChangeType) String() string {
	switch t {
	case FieldTypeChanged:
		return "field type changed"
	case FieldReordered:
		return "field reordered"
	case FieldInserted:
		return "field inserted before the end"
	case SignednessChanged:
		return "integer signedness changed"
	case VariantRemoved:
		return "union variant removed"
	case TypeRemoved:
		return "type removed"
	case OptionalityChanged:
		return "optionality changed"
	default:
		return "unknown breaking change"
	}
}

// BreakingChange is one incompatible rewrite between two manifests.
type BreakingChange struct {
	Type     BreakingChangeType
	Message  string
	Location string
}

// Error renders the change as an error string.
func (b BreakingChange) Error() string {
	if b.Location != "" {
		return fmt.Sprintf("%s: %s at %s", b.Type, b.Message, b.Location)
	}
	return fmt.Sprintf("%s: %s", b.Type, b.Message)
}

// Report is the result of a compatibility check.
type Report struct {
	// Breaking lists rewrites that corrupt or fail decodes.
	Breaking []BreakingChange

	// Warnings lists legal rewrites that deserve attention: integer
	// narrowing, added union variants, dropped trailing fields.
	Warnings []string
}

// IsCompatible reports whether no breaking changes were found.
func (r *Report) IsCompatible() bool {
	return len(r.Breaking) == 0
}

func (r *Report) breakingf(t BreakingChangeType, loc, format string, args ...any) {
	r.Breaking = append(r.Breaking, BreakingChange{
		Type:     t,
		Message:  fmt.Sprintf(format, args...),
		Location: loc,
	})
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Check compares two manifests under the positional evolution rules:
// trailing fields may be added or dropped, integers may widen within a
// signedness family, floats may widen, tuples may become structs,
// strings may become byte strings, unions may gain trailing variants.
// Everything else (reorders, inserts, retypes) is breaking.
func Check(old, new *Manifest) *Report {
	r := &Report{}
	c := &checker{old: old, new: new, report: r}
	for _, oldType := range old.Types {
		newType, ok := new.Lookup(oldType.Name)
		if !ok {
			r.breakingf(TypeRemoved, oldType.Name, "type %q no longer exists", oldType.Name)
			continue
		}
		c.shapes(oldType.Name, oldType.Shape, newType.Shape)
	}
	return r
}

type checker struct {
	old, new *Manifest
	report   *Report
}

// resolve follows references within the owning manifest.
func resolve(m *Manifest, s *Shape) *Shape {
	for s.Kind == KindRef {
		t, ok := m.Lookup(s.Ref)
		if !ok {
			return s
		}
		s = t.Shape
	}
	return s
}

// shapes checks one old/new shape pair.
func (c *checker) shapes(loc string, old, new *Shape) {
	// Keep reference identity visible for messages, then resolve.
	oldR := resolve(c.old, old)
	newR := resolve(c.new, new)

	// Anything may be deprecated to unit: decoding unit skips the value.
	if newR.Kind == KindUnit {
		if oldR.Kind != KindUnit {
			c.report.warnf("%s: %s deprecated to unit", loc, old)
		}
		return
	}

	switch {
	case oldR.Kind == newR.Kind:
		c.sameKind(loc, oldR, newR)
	case oldR.Kind.isSignedInt() && newR.Kind.isSignedInt(),
		oldR.Kind.isUnsignedInt() && newR.Kind.isUnsignedInt():
		if newR.Kind.intWidth() < oldR.Kind.intWidth() {
			c.report.warnf("%s: narrowed %s to %s; large values will fail to decode", loc, oldR.Kind, newR.Kind)
		}
	case (oldR.Kind.isSignedInt() && newR.Kind.isUnsignedInt()) ||
		(oldR.Kind.isUnsignedInt() && newR.Kind.isSignedInt()):
		c.report.breakingf(SignednessChanged, loc, "%s -> %s", oldR.Kind, newR.Kind)
	case oldR.Kind.isFloat() && newR.Kind.isFloat():
		if oldR.Kind == KindFloat64 && newR.Kind == KindFloat32 {
			c.report.warnf("%s: narrowed float64 to float32; out-of-range values become infinity", loc)
		}
	case oldR.Kind == KindBool && newR.Kind.isUnsignedInt(),
		oldR.Kind.isUnsignedInt() && newR.Kind == KindBool:
		// false/0 and true/nonzero convert both ways.
	case oldR.Kind == KindUnit && (newR.Kind == KindBool || newR.Kind.isUnsignedInt()):
		// Unit is a single Int 0 on the wire.
	case oldR.Kind == KindString && newR.Kind == KindBytes:
		// Byte-identical payloads.
	case oldR.Kind == KindBytes && newR.Kind == KindString:
		c.report.warnf("%s: bytes reinterpreted as string; non-UTF-8 payloads will fail to decode", loc)
	case oldR.Kind == KindStruct && newR.Kind == KindSequence,
		oldR.Kind == KindSequence && newR.Kind == KindStruct:
		// A tuple and a struct share the Sequence encoding; positions
		// must still line up, which a homogeneous sequence cannot
		// promise, so flag it for review.
		c.report.warnf("%s: %s <-> %s rewrite; verify element positions", loc, oldR.Kind, newR.Kind)
	default:
		c.report.breakingf(FieldTypeChanged, loc, "%s -> %s", old, new)
	}
}

// sameKind checks two shapes of the same kind.
func (c *checker) sameKind(loc string, old, new *Shape) {
	switch old.Kind {
	case KindOption:
		c.shapes(loc+"/*", old.Elem, new.Elem)
	case KindSequence:
		c.shapes(loc+"/[]", old.Elem, new.Elem)
	case KindMap:
		c.shapes(loc+"/key", old.Key, new.Key)
		c.shapes(loc+"/value", old.Value, new.Value)
	case KindStruct:
		c.structs(loc, old, new)
	case KindUnion:
		c.unions(loc, old, new)
	case KindRef:
		// Both references were unresolvable in their manifests; all we
		// can compare is the name.
		if old.Ref != new.Ref {
			c.report.breakingf(FieldTypeChanged, loc, "%s -> %s", old.Ref, new.Ref)
		}
	}
}

// structs applies the trailing-field rules and looks for reorders.
func (c *checker) structs(loc string, old, new *Shape) {
	n := len(old.Fields)
	if len(new.Fields) < n {
		n = len(new.Fields)
		dropped := old.Fields[n:]
		names := make([]string, len(dropped))
		for i, f := range dropped {
			names[i] = f.Name
		}
		c.report.warnf("%s: trailing fields dropped: %v", loc, names)
	}
	for i := 0; i < n; i++ {
		c.shapes(fmt.Sprintf("%s.%s", loc, new.Fields[i].Name), old.Fields[i].Shape, new.Fields[i].Shape)
	}

	// A renamed field is fine; a known name at a different position is
	// the classic silent corruption.
	oldPos := make(map[string]int, len(old.Fields))
	for i, f := range old.Fields {
		oldPos[f.Name] = i
	}
	for i, f := range new.Fields {
		if j, known := oldPos[f.Name]; known && j != i {
			c.report.breakingf(FieldReordered, loc, "field %q moved from position %d to %d", f.Name, j, i)
		}
	}
}

// unions allow appended variants only.
func (c *checker) unions(loc string, old, new *Shape) {
	n := len(old.Variants)
	if len(new.Variants) < n {
		c.report.breakingf(VariantRemoved, loc, "union shrank from %d to %d variants", n, len(new.Variants))
		n = len(new.Variants)
	}
	for i := 0; i < n; i++ {
		c.shapes(fmt.Sprintf("%s.%s", loc, new.Variants[i].Name), old.Variants[i].Shape, new.Variants[i].Shape)
	}
	if len(new.Variants) > len(old.Variants) {
		hasFallback := false
		for _, v := range old.Variants {
			if v.Fallback {
				hasFallback = true
			}
		}
		if hasFallback {
			c.report.warnf("%s: union gained variants; old decoders map them to the fallback", loc)
		} else {
			c.report.warnf("%s: union gained variants and the old schema has no fallback; old decoders will fail on them", loc)
		}
	}
}
