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

import "math/bits"

// EncSymbol is an encoder-side descriptor for one symbol: the fixed-point
// reciprocal of its frequency plus the bias/complement terms needed to
// replace the encoder's division with a multiply-and-shift, following
// Alverson's "Integer Division using Reciprocals". Grounded on
// original_source/rans.h's RansEncSymbol<T>, generalized per spec.md §4.2
// so the reciprocal is derived for the coder's actual state width W (32 or
// 64) instead of always assuming W=32.
type EncSymbol struct {
	freq     uint32 // symbol frequency; EncPutSymbol derives x_max from it
	rcpFreq  uint64 // fixed-point reciprocal of freq, scaled for state width W
	rcpShift uint32 // reciprocal shift
	bias     uint32 // bias
	cmplFreq uint32 // (1<<probBits) - freq
}

// NewEncSymbol derives an EncSymbol for a symbol with cumulative-frequency
// start "start" and frequency "freq" out of a total of 1<<probBits, sized
// for use with a Coder[T, S] of the same T: W := stateBits[T]() (32 or 64)
// per spec.md §4.2, so (x * rcp_freq) >> (W + rcp_shift) == floor(x / freq)
// for every x < 2^(W-1) (EncPutSymbol corrects the at most one-too-large
// quotient a 32-bit state at or above 2^31 can give). An EncSymbol built
// for one W must only be fed to EncPutSymbol on a Coder of matching state
// width.
//
// freq==0 is never valid to encode. freq==1 is a special case: the
// reciprocal of 1 doesn't fit the fixed-point scheme used for freq>=2, so
// it is handled by choosing rcpFreq=2^W-1, rcpShift=0, which makes the
// fast encoder compute q=x-1 for any valid state x, and bias is chosen so
// that plugging q=x-1 back into the fast encoder's update reproduces
// exactly the same x_new as the reference encoder: bias = start + M - 1.
func NewEncSymbol[T State](start, freq uint32, probBits uint) EncSymbol {
	w := stateBits[T]()
	m := uint32(1) << probBits
	sym := EncSymbol{
		freq:     freq,
		cmplFreq: m - freq,
	}
	if freq < 2 {
		if w > 32 {
			sym.rcpFreq = ^uint64(0)
		} else {
			sym.rcpFreq = uint64(^uint32(0))
		}
		sym.rcpShift = 0
		sym.bias = start + m - 1
		return sym
	}

	// shift = ceil(log2(freq))
	var shift uint32
	for freq > (uint32(1) << shift) {
		shift++
	}
	sym.rcpFreq = reciprocal(shift+uint32(w)-1, freq)
	sym.rcpShift = shift - 1
	sym.bias = start
	return sym
}

// reciprocal computes floor((2^exp + freq - 1) / freq). For W=32 state,
// exp=shift+31 always fits a native 64-bit dividend. For W=64 state,
// exp=shift+63 can reach ~79 bits, so the dividend no longer fits in a
// uint64: the division is instead performed by splitting 2^exp + freq - 1
// into 64-bit (hi, lo) halves and using math/bits.Div64 for the 128-bit-by-
// 64-bit division, per spec.md §4.2's note on the 64-bit-state case.
func reciprocal(exp, freq uint32) uint64 {
	var hi, lo uint64
	if exp >= 64 {
		hi = uint64(1) << (exp - 64)
	} else {
		lo = uint64(1) << exp
	}
	var carry uint64
	lo, carry = bits.Add64(lo, uint64(freq)-1, 0)
	hi += carry
	q, _ := bits.Div64(hi, lo, uint64(freq))
	return q
}

// DecSymbol is a decoder-side descriptor: just the range start and
// frequency, since the decode-side arithmetic needs no reciprocal trick.
// Grounded on original_source/rans.h's RansDecSymbol.
type DecSymbol struct {
	Start uint32
	Freq  uint32
}

// NewDecSymbol builds a DecSymbol for a symbol with cumulative-frequency
// start "start" and frequency "freq".
func NewDecSymbol(start, freq uint32) DecSymbol {
	return DecSymbol{Start: start, Freq: freq}
}

// CumToSymbol is a dense map from cumulative frequency slot to symbol
// index, giving O(1) decode lookup as an alternative to Statistics.Symbol's
// binary search. Grounded on iguana's ANSDenseTable, generalized from a
// fixed 256-entry table keyed by byte value to an explicit symbol list.
type CumToSymbol struct {
	minSymbol int
	slots     []int32 // len == 1<<probBits, holds symbol index (0-based, add minSymbol)
}

// NewCumToSymbol builds the dense cum->sym map for stats.
func NewCumToSymbol(stats *Statistics) *CumToSymbol {
	total := stats.Total()
	c := &CumToSymbol{
		minSymbol: stats.minSymbol,
		slots:     make([]int32, total),
	}
	n := stats.size()
	for i := 0; i < n; i++ {
		freq, start := stats.Freq(stats.minSymbol + i)
		for slot := start; slot < start+freq; slot++ {
			c.slots[slot] = int32(i)
		}
	}
	return c
}

// Symbol returns the symbol whose [start, start+freq) range contains cum.
func (c *CumToSymbol) Symbol(cum uint32) int {
	return c.minSymbol + int(c.slots[cum])
}

// EncSymbolTable and DecSymbolTable build per-symbol descriptor tables for
// every symbol in stats, for codecs that want to encode/decode by symbol
// value directly rather than looking frequencies up by hand each call.

// EncSymbolTable returns descriptors indexed by symbol - stats.MinSymbol(),
// sized for a Coder[T, S] of the given state type T; see NewEncSymbol.
func EncSymbolTable[T State](stats *Statistics) []EncSymbol {
	n := stats.size()
	tab := make([]EncSymbol, n)
	for i := 0; i < n; i++ {
		freq, start := stats.Freq(stats.minSymbol + i)
		if freq == 0 {
			continue
		}
		tab[i] = NewEncSymbol[T](start, freq, stats.probBits)
	}
	return tab
}

// DecSymbolTable returns descriptors indexed by symbol - stats.MinSymbol().
func DecSymbolTable(stats *Statistics) []DecSymbol {
	n := stats.size()
	tab := make([]DecSymbol, n)
	for i := 0; i < n; i++ {
		freq, start := stats.Freq(stats.minSymbol + i)
		tab[i] = NewDecSymbol(start, freq)
	}
	return tab
}
