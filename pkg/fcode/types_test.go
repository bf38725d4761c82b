package fcode

import (
	"math"
	"testing"
)

func TestInt128Helpers(t *testing.T) {
	tests := []struct {
		v    int64
		sign int
	}{
		{0, 0},
		{1, 1},
		{-1, -1},
		{math.MaxInt64, 1},
		{math.MinInt64, -1},
	}
	for _, tt := range tests {
		i := Int128From64(tt.v)
		if got := i.Sign(); got != tt.sign {
			t.Errorf("Int128From64(%d).Sign() = %d, want %d", tt.v, got, tt.sign)
		}
		back, ok := i.Int64()
		if !ok || back != tt.v {
			t.Errorf("Int128From64(%d).Int64() = (%d, %v)", tt.v, back, ok)
		}
		if i.IsZero() != (tt.v == 0) {
			t.Errorf("Int128From64(%d).IsZero() = %v", tt.v, i.IsZero())
		}
	}

	if _, ok := MaxInt128.Int64(); ok {
		t.Error("MaxInt128 should not fit in int64")
	}
	if _, ok := MinInt128.Int64(); ok {
		t.Error("MinInt128 should not fit in int64")
	}
	if MinInt128.Sign() != -1 || MaxInt128.Sign() != 1 {
		t.Error("extreme signs wrong")
	}
}

func TestUint128Helpers(t *testing.T) {
	u := Uint128From64(42)
	if v, ok := u.Uint64(); !ok || v != 42 {
		t.Errorf("Uint64() = (%d, %v)", v, ok)
	}
	if u.IsZero() {
		t.Error("42 is not zero")
	}
	if !(Uint128{}).IsZero() {
		t.Error("zero value should be zero")
	}
	if _, ok := MaxUint128.Uint64(); ok {
		t.Error("MaxUint128 should not fit in uint64")
	}
}

func TestWideIntsInStructs(t *testing.T) {
	type ledgerEntry struct {
		Account uint64
		Balance Int128
		Nonce   Uint128
	}
	checkRoundTrip(t, ledgerEntry{
		Account: 7,
		Balance: Int128From64(-1_000_000),
		Nonce:   Uint128{Hi: 3, Lo: 9},
	})
}
