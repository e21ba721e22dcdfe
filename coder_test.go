// Copyright 2023 Sneller, Inc.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

package ransgo

import "testing"

// TestEncPutSymbolMatchesEncPut checks that the divisionless fast path
// (EncPutSymbol, driven by a precomputed EncSymbol) produces bit-identical
// state transitions to the reference division-based EncPut, for every
// symbol in a representative table - including the freq==1 special case.
func TestEncPutSymbolMatchesEncPut(t *testing.T) {
	const probBits = 8
	counts := []uint64{1, 1, 2, 50, 100, 100}
	stats, err := NewStatistics(0, len(counts)-1, probBits, counts)
	if err != nil {
		t.Fatal(err)
	}
	encTab := EncSymbolTable[uint32](stats)

	c := NewCoder[uint32, uint16](probBits)
	for sym := 0; sym < stats.size(); sym++ {
		freq, start := stats.Freq(sym)
		if freq == 0 {
			continue
		}
		for _, x0 := range []uint32{c.EncInit(), 1 << 20, 1<<23 - 1} {
			w1 := &writer[uint16]{}
			got := c.EncPutSymbol(x0, w1, encTab[sym])

			w2 := &writer[uint16]{}
			want := c.EncPut(x0, w2, start, freq)

			if got != want {
				t.Fatalf("sym=%d x0=%d: EncPutSymbol=%d, EncPut=%d", sym, x0, got, want)
			}
			if len(w1.out) != len(w2.out) {
				t.Fatalf("sym=%d x0=%d: emitted %d granules vs %d", sym, x0, len(w1.out), len(w2.out))
			}
			for i := range w1.out {
				if w1.out[i] != w2.out[i] {
					t.Fatalf("sym=%d x0=%d: granule %d differs: %d vs %d", sym, x0, i, w1.out[i], w2.out[i])
				}
			}
		}
	}
}

func TestCoder32Over16Roundtrip(t *testing.T) {
	const probBits = 10
	counts := []uint64{3, 1, 1, 20, 500, 1, 2}
	stats, err := NewStatistics(0, len(counts)-1, probBits, counts)
	if err != nil {
		t.Fatal(err)
	}
	encTab := EncSymbolTable[uint32](stats)
	decTab := DecSymbolTable(stats)
	cum := NewCumToSymbol(stats)

	syms := []int{0, 3, 4, 4, 4, 6, 1, 2, 5, 0, 4}

	c := NewCoder[uint32, uint16](probBits)
	x := c.EncInit()
	w := &writer[uint16]{}
	for i := len(syms) - 1; i >= 0; i-- {
		x = c.EncPutSymbol(x, w, encTab[syms[i]])
	}
	c.EncFlush(x, w)
	stream := w.reversed()

	r := newReader[uint16](stream)
	xd, ec := c.DecInit(r)
	if ec != ecOK {
		t.Fatal(errs[ec])
	}
	got := make([]int, 0, len(syms))
	for i := 0; i < len(syms); i++ {
		slot := c.DecGet(xd)
		sym := cum.Symbol(slot)
		got = append(got, sym)
		xd, ec = c.DecAdvanceSymbol(xd, r, decTab[sym])
		if ec != ecOK {
			t.Fatal(errs[ec])
		}
	}
	for i := range syms {
		if got[i] != syms[i] {
			t.Fatalf("symbol %d: got %d, want %d", i, got[i], syms[i])
		}
	}
}

func TestCoder64Over32Roundtrip(t *testing.T) {
	const probBits = 12
	counts := []uint64{9, 1, 40, 12, 3}
	stats, err := NewStatistics(0, len(counts)-1, probBits, counts)
	if err != nil {
		t.Fatal(err)
	}
	encTab := EncSymbolTable[uint64](stats)
	decTab := DecSymbolTable(stats)
	cum := NewCumToSymbol(stats)

	syms := []int{1, 1, 1, 0, 2, 3, 4, 2, 1}

	c := NewCoder[uint64, uint32](probBits)
	x := c.EncInit()
	w := &writer[uint32]{}
	for i := len(syms) - 1; i >= 0; i-- {
		x = c.EncPutSymbol(x, w, encTab[syms[i]])
	}
	c.EncFlush(x, w)
	stream := w.reversed()

	r := newReader[uint32](stream)
	xd, ec := c.DecInit(r)
	if ec != ecOK {
		t.Fatal(errs[ec])
	}
	got := make([]int, 0, len(syms))
	for i := 0; i < len(syms); i++ {
		slot := c.DecGet(xd)
		sym := cum.Symbol(slot)
		got = append(got, sym)
		xd, ec = c.DecAdvanceSymbol(xd, r, decTab[sym])
		if ec != ecOK {
			t.Fatal(errs[ec])
		}
	}
	for i := range syms {
		if got[i] != syms[i] {
			t.Fatalf("symbol %d: got %d, want %d", i, got[i], syms[i])
		}
	}
}
