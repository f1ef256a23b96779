// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package difficulty

import (
	"math/big"
	"testing"
)

func TestBigToCompact(t *testing.T) {
	tests := []struct {
		in  int64
		out uint32
	}{
		{0, 0},
		{-1, 25231360},
	}

	for x, test := range tests {
		n := big.NewInt(test.in)
		r := BigToCompact(n)
		if r != test.out {
			t.Errorf("TestBigToCompact test #%d failed: got %d want %d\n",
				x, r, test.out)
			return
		}
	}
}

func TestCompactToBig(t *testing.T) {
	tests := []struct {
		in  uint32
		out int64
	}{
		{10000000, 0},
		{0x03123456, 0x123456},
		{0x04123456, 0x12345600},
	}

	for x, test := range tests {
		n := CompactToBig(test.in)
		want := big.NewInt(test.out)
		if n.Cmp(want) != 0 {
			t.Errorf("TestCompactToBig test #%d failed: got %d want %d\n",
				x, n.Int64(), want.Int64())
			return
		}
	}
}

func TestCompactRoundTrip(t *testing.T) {
	for _, bits := range []uint32{0x1d00ffff, 0x207fffff, 0x1b0404cb, 0x1f00ffff} {
		if got := BigToCompact(CompactToBig(bits)); got != bits {
			t.Errorf("TestCompactRoundTrip: %08x became %08x", bits, got)
		}
	}

	// 0x00ffff << 208 is the bitcoin genesis target.
	want := new(big.Int).Lsh(big.NewInt(0xffff), 208)
	if CompactToBig(0x1d00ffff).Cmp(want) != 0 {
		t.Errorf("TestCompactRoundTrip: 0x1d00ffff expands to %x", CompactToBig(0x1d00ffff))
	}
}

func TestCalcWork(t *testing.T) {
	tests := []struct {
		in  uint32
		out int64
	}{
		{10000000, 0},
	}

	for x, test := range tests {
		bits := uint32(test.in)

		r := CalcWork(bits)
		if r.Int64() != test.out {
			t.Errorf("TestCalcWork test #%d failed: got %v want %d\n",
				x, r.Int64(), test.out)
			return
		}
	}

	if CalcWork(0x1d00ffff).Cmp(CalcWork(0x207fffff)) <= 0 {
		t.Errorf("TestCalcWork: a harder target must carry more work")
	}
	// 0x207fffff is just under 2^255, so its work is 2.
	if CalcWork(0x207fffff).Int64() != 2 {
		t.Errorf("TestCalcWork: got %v for 0x207fffff", CalcWork(0x207fffff))
	}
}

func TestIsValidTarget(t *testing.T) {
	powLimit := CompactToBig(0x1d00ffff)
	if !IsValidTarget(0x1d00ffff, powLimit) || !IsValidTarget(0x1c00ffff, powLimit) {
		t.Errorf("TestIsValidTarget: valid targets rejected")
	}
	if IsValidTarget(0x1e00ffff, powLimit) || IsValidTarget(0, powLimit) || IsValidTarget(0x1d80ffff, powLimit) {
		t.Errorf("TestIsValidTarget: invalid targets accepted")
	}
}
