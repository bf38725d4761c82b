package fcode

// Limits defines resource limits applied while decoding.
// They guard against hostile input: a crafted buffer can otherwise
// request huge allocations or drive the skip recursion arbitrarily deep.
type Limits struct {
	// MaxDepth is the maximum nesting depth of composites, including
	// values walked by skip. A value of 0 means no limit.
	MaxDepth int

	// MaxBytesLength is the maximum length of a Bytes payload. A value
	// of 0 means no limit.
	MaxBytesLength int

	// MaxSequenceLength is the maximum declared element count of a
	// Sequence. A value of 0 means no limit.
	MaxSequenceLength int
}

// DefaultLimits are generous limits suitable for most inputs.
var DefaultLimits = Limits{
	MaxDepth:          100,
	MaxBytesLength:    100 * 1024 * 1024,
	MaxSequenceLength: 1_000_000,
}

// SecureLimits are conservative limits for untrusted input.
var SecureLimits = Limits{
	MaxDepth:          32,
	MaxBytesLength:    10 * 1024 * 1024,
	MaxSequenceLength: 10_000,
}

// NoLimits disables all resource limits. Only for trusted input.
var NoLimits = Limits{}

// Options configures encoding and decoding behavior.
type Options struct {
	// Limits specifies resource limits.
	Limits Limits

	// Unions resolves interface values to variant discriminants. When
	// nil, DefaultUnions is consulted per interface type.
	Unions *UnionSet
}

// DefaultOptions are the default options.
var DefaultOptions = Options{
	Limits: DefaultLimits,
}

// SecureOptions apply conservative limits for untrusted input.
var SecureOptions = Options{
	Limits: SecureLimits,
}
