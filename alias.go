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

// AliasTable gives O(1) symbol decode independent of the table size M,
// trading the dense cum->sym map's M-sized table for a 2*N-sized one via
// Vose's alias method. Grounded entirely on original_source/main_alias.cpp's
// SymbolStats::make_alias_table / RansEncPutAlias / RansDecGetAlias, which
// is itself absent from the iguana teacher (which only ever decodes through
// a dense M-entry table).
//
// Requires M = stats.Total() to be evenly divisible by N = stats.size();
// NewAliasTable reports ErrAliasNotDivisible otherwise.
type AliasTable struct {
	minSymbol int
	tgtSum    uint32
	divider   []uint32 // len N, absolute threshold per bucket
	symID     []int32  // len 2N
	slotFreqs []uint32 // len 2N
	slotAdj   []uint32 // len 2N
	remap     []uint32 // len M: alias_remap, for the encoder
}

// NewAliasTable builds an alias table for stats.
func NewAliasTable(stats *Statistics) (*AliasTable, error) {
	n := stats.size()
	m := stats.Total()
	if n == 0 || m%uint32(n) != 0 {
		return nil, ErrAliasNotDivisible
	}
	tgtSum := m / uint32(n)

	remaining := make([]uint32, n)
	divider := make([]uint32, n)
	symID := make([]int32, 2*n)
	for i := 0; i < n; i++ {
		freq, _ := stats.Freq(stats.minSymbol + i)
		remaining[i] = freq
		divider[i] = tgtSum
		symID[i*2+0] = int32(i)
		symID[i*2+1] = int32(i)
	}

	curLarge, curSmall := 0, 0
	for curLarge < n && remaining[curLarge] < tgtSum {
		curLarge++
	}
	for curSmall < n && remaining[curSmall] >= tgtSum {
		curSmall++
	}
	nextSmall := curSmall + 1

	for curLarge < n && curSmall < n {
		symID[curSmall*2+0] = int32(curLarge)
		divider[curSmall] = remaining[curSmall]

		remaining[curLarge] -= tgtSum - divider[curSmall]

		if remaining[curLarge] >= tgtSum || nextSmall <= curLarge {
			curSmall = nextSmall
			for curSmall < n && remaining[curSmall] >= tgtSum {
				curSmall++
			}
			nextSmall = curSmall + 1
		} else {
			curSmall = curLarge
		}
		for curLarge < n && remaining[curLarge] < tgtSum {
			curLarge++
		}
	}

	slotFreqs := make([]uint32, 2*n)
	slotAdj := make([]uint32, 2*n)
	remap := make([]uint32, m)
	assigned := make([]uint32, n)

	for i := 0; i < n; i++ {
		j := int(symID[i*2+0])
		freqI, cumI := stats.Freq(stats.minSymbol + i)
		freqJ, cumJ := stats.Freq(stats.minSymbol + j)

		sym0Height := divider[i]
		sym1Height := tgtSum - divider[i]
		base0 := assigned[i]
		base1 := assigned[j]
		cbase0 := cumI + base0
		cbase1 := cumJ + base1

		divider[i] = uint32(i)*tgtSum + sym0Height

		slotFreqs[i*2+1] = freqI
		slotFreqs[i*2+0] = freqJ
		slotAdj[i*2+1] = uint32(i)*tgtSum - base0
		slotAdj[i*2+0] = uint32(i)*tgtSum - (base1 - sym0Height)

		for k := uint32(0); k < sym0Height; k++ {
			remap[cbase0+k] = k + uint32(i)*tgtSum
		}
		for k := uint32(0); k < sym1Height; k++ {
			remap[cbase1+k] = (k + sym0Height) + uint32(i)*tgtSum
		}

		assigned[i] += sym0Height
		assigned[j] += sym1Height
	}

	return &AliasTable{
		minSymbol: stats.minSymbol,
		tgtSum:    tgtSum,
		divider:   divider,
		symID:     symID,
		slotFreqs: slotFreqs,
		slotAdj:   slotAdj,
		remap:     remap,
	}, nil
}

// EncPutAlias encodes symbol sym (the caller's symbol value, not an index)
// through the alias table in place of EncPutSymbol/EncPut.
func (at *AliasTable) EncPutAlias(stats *Statistics, c Coder[uint32, uint16], x uint32, w *writer[uint16], sym int) uint32 {
	freq, cum := stats.Freq(sym)
	x = c.encRenorm(x, w, freq)
	slot := (x % freq) + cum
	return ((x / freq) << stats.probBits) + at.remap[slot]
}

// DecGetAlias returns the symbol value encoded in state x (via the scale
// used to build at) without advancing the decoder; call DecAdvanceAlias
// next to advance past it.
func (at *AliasTable) DecGetAlias(probBits uint, x uint32) int {
	mask := uint32(1)<<probBits - 1
	xm := x & mask
	n := uint32(len(at.divider))
	bucketID := xm / at.tgtSum
	if bucketID >= n {
		bucketID = n - 1
	}
	bucket2 := bucketID * 2
	if xm < at.divider[bucketID] {
		bucket2++
	}
	return at.minSymbol + int(at.symID[bucket2])
}

// DecAdvanceAlias advances the decoder state past the symbol most recently
// returned by DecGetAlias, renormalizing from r.
func (at *AliasTable) DecAdvanceAlias(c Coder[uint32, uint16], x uint32, r *reader[uint16], probBits uint) (uint32, errorCode) {
	mask := uint32(1)<<probBits - 1
	xm := x & mask
	n := uint32(len(at.divider))
	bucketID := xm / at.tgtSum
	if bucketID >= n {
		bucketID = n - 1
	}
	bucket2 := bucketID * 2
	if xm < at.divider[bucketID] {
		bucket2++
	}
	x = at.slotFreqs[bucket2]*(x>>probBits) + xm - at.slotAdj[bucket2]
	return c.decRenorm(x, r)
}
