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

import (
	"math/bits"
	"unsafe"
)

// State is the set of integer widths a coder's running state can use.
type State interface {
	~uint32 | ~uint64
}

// lowerBound is L, the lower bound of the normalization interval
// [L, L<<streamBits[S]()). A 64-bit state uses 2^31; a 32-bit state uses
// 2^23 with byte granules and 2^16 with 16-bit granules, so that the whole
// interval fits in the state. Mirrors rans.h's needs64Bit<T>()-gated constexpr.
func lowerBound[T State, S granule]() T {
	var zero T
	if unsafe.Sizeof(zero) > 4 {
		return T(1) << 31
	}
	var g S
	if unsafe.Sizeof(g) > 1 {
		return T(1) << 16
	}
	return T(1) << 23
}

func streamBits[S granule]() uint {
	var zero S
	return uint(unsafe.Sizeof(zero)) * 8
}

// stateBits is W, the bit width of the coder's running state (32 or 64),
// used both to size the fast encoder's mulhi (see EncPutSymbol) and to
// derive the matching EncSymbol (see NewEncSymbol).
func stateBits[T State]() uint {
	var zero T
	return uint(unsafe.Sizeof(zero)) * 8
}

// Coder implements the rANS encode/decode primitives parametrized over
// state width T (uint32 or uint64) and stream granule S (uint8, uint16, or
// uint32), mirroring original_source/rans.h's Rans<T, Stream_t> template.
//
// Encoding must process symbols in reverse order (last symbol first); the
// decoder reads the resulting stream forwards, i.e. in the reverse of the
// order the encoder emitted its granules (see writer.reversed).
type Coder[T State, S granule] struct {
	probBits uint
}

// NewCoder returns a Coder for the given probability-bits scale (i.e.
// frequencies sum to 1<<probBits).
func NewCoder[T State, S granule](probBits uint) Coder[T, S] {
	return Coder[T, S]{probBits: probBits}
}

// EncInit initializes encoder state to the lower bound of the normalization
// interval.
func (c Coder[T, S]) EncInit() T {
	return lowerBound[T, S]()
}

// encRenorm emits granules until x is below the threshold past which
// encoding symbol freq would push state out of the normalization interval.
func (c Coder[T, S]) encRenorm(x T, w *writer[S], freq uint32) T {
	xMax := ((lowerBound[T, S]() >> c.probBits) << streamBits[S]()) * T(freq)
	for x >= xMax {
		w.emit(S(x))
		x >>= streamBits[S]()
	}
	return x
}

// EncPut encodes one symbol with range [start, start+freq) using the
// reference division-based update; see EncPutSymbol for the divisionless
// fast path driven by a precomputed EncSymbol.
func (c Coder[T, S]) EncPut(x T, w *writer[S], start, freq uint32) T {
	x = c.encRenorm(x, w, freq)
	return ((x / T(freq)) << c.probBits) + (x % T(freq)) + T(start)
}

// EncPutSymbol is the divisionless counterpart of EncPut, using a
// precomputed EncSymbol descriptor in place of (start, freq). The mulhi
// (x * rcp_freq) >> W must use the coder's actual state width W: for a
// 32-bit state x and rcp_freq both fit in 32 bits, so a 32x32->64 multiply
// followed by >>32 gives the high half directly; for a 64-bit state that
// no longer fits a native multiply, so the true high 64 bits of the
// 64x64->128 product are taken via math/bits.Mul64. sym must have been
// built with NewEncSymbol[T] for this same T, or the shift/bias derivation
// won't match this mulhi.
func (c Coder[T, S]) EncPutSymbol(x T, w *writer[S], sym EncSymbol) T {
	xMax := ((lowerBound[T, S]() >> c.probBits) << streamBits[S]()) * T(sym.freq)
	for x >= xMax {
		w.emit(S(x))
		x >>= streamBits[S]()
	}
	var q T
	if stateBits[T]() > 32 {
		hi, _ := bits.Mul64(uint64(x), sym.rcpFreq)
		q = T(hi >> sym.rcpShift)
	} else {
		q = T((uint64(x)*sym.rcpFreq)>>32) >> sym.rcpShift
		// the reciprocal is exact for x < 2^31; with 16-bit granules x can
		// reach 2^32, where q can come out one too large.
		if q*T(sym.freq) > x {
			q--
		}
	}
	return x + T(sym.bias) + q*T(sym.cmplFreq)
}

// EncFlush writes the final encoder state to w. Must be called exactly once
// after the last (i.e. first-in-stream) symbol has been encoded. Granules
// are emitted most significant first, so that after writer.reversed the
// state reads back in little-endian granule order, as DecInit expects.
func (c Coder[T, S]) EncFlush(x T, w *writer[S]) {
	bits := streamBits[S]()
	n := int(unsafe.Sizeof(x)) * 8 / int(bits)
	for i := n - 1; i >= 0; i-- {
		w.emit(S(x >> (uint(i) * bits)))
	}
}

// DecInit reads the initial decoder state from r.
func (c Coder[T, S]) DecInit(r *reader[S]) (T, errorCode) {
	bits := streamBits[S]()
	n := int(unsafe.Sizeof(T(0))) * 8 / int(bits)
	var x T
	for i := 0; i < n; i++ {
		v, ec := r.next()
		if ec != ecOK {
			return 0, ec
		}
		x |= T(v) << (uint(i) * bits)
	}
	return x, ecOK
}

// DecGet returns the current cumulative-frequency slot; the caller maps
// this to a symbol (via Statistics.Symbol, a CumToSymbol, or an AliasTable)
// and then calls DecAdvance or DecAdvanceSymbol with that symbol's range.
func (c Coder[T, S]) DecGet(x T) uint32 {
	return uint32(x) & (uint32(1)<<c.probBits - 1)
}

func (c Coder[T, S]) decRenorm(x T, r *reader[S]) (T, errorCode) {
	if x < lowerBound[T, S]() {
		bits := streamBits[S]()
		for x < lowerBound[T, S]() {
			v, ec := r.next()
			if ec != ecOK {
				return 0, ec
			}
			x = (x << bits) | T(v)
		}
	}
	return x, ecOK
}

// DecAdvance pops a symbol with range [start, start+freq) from state x,
// renormalizing from r as needed.
func (c Coder[T, S]) DecAdvance(x T, r *reader[S], start, freq uint32) (T, errorCode) {
	mask := T(1)<<c.probBits - 1
	x = T(freq)*(x>>c.probBits) + (x & mask) - T(start)
	return c.decRenorm(x, r)
}

// DecAdvanceSymbol is DecAdvance taking a DecSymbol descriptor.
func (c Coder[T, S]) DecAdvanceSymbol(x T, r *reader[S], sym DecSymbol) (T, errorCode) {
	return c.DecAdvance(x, r, sym.Start, sym.Freq)
}

// DecAdvanceStep is DecAdvance without renormalization or stream
// consumption, for callers that renormalize separately with DecRenorm.
func (c Coder[T, S]) DecAdvanceStep(x T, start, freq uint32) T {
	mask := T(1)<<c.probBits - 1
	return T(freq)*(x>>c.probBits) + (x & mask) - T(start)
}

// DecAdvanceSymbolStep is DecAdvanceStep taking a DecSymbol descriptor.
func (c Coder[T, S]) DecAdvanceSymbolStep(x T, sym DecSymbol) T {
	return c.DecAdvanceStep(x, sym.Start, sym.Freq)
}

// DecRenorm renormalizes x by reading granules from r until x is back in
// the normalization interval.
func (c Coder[T, S]) DecRenorm(x T, r *reader[S]) (T, errorCode) {
	return c.decRenorm(x, r)
}
