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

import "github.com/ransgo/ransgo/internal/ints"

// byteHistogram counts byte occurrences in src using four interleaved
// histograms to avoid the store-to-load forwarding stall of a single
// accumulator, following iguana/ans32.go's ansHistogram.
func byteHistogram(src []byte) [256]uint64 {
	var h [4][256]uint64
	n := uint(len(src))
	e := ints.AlignDown(n, 4)
	for i := uint(0); i < e; i += 4 {
		h[0][src[i+0]]++
		h[1][src[i+1]]++
		h[2][src[i+2]]++
		h[3][src[i+3]]++
	}
	for i := e; i < n; i++ {
		h[0][src[i]]++
	}
	var counts [256]uint64
	for i := 0; i < 256; i++ {
		counts[i] = h[0][i] + h[1][i] + h[2][i] + h[3][i]
	}
	return counts
}

// Statistics is a frequency table over the symbol range [minSymbol,
// maxSymbol], rescaled so that frequencies sum to exactly 1<<probBits.
//
// This generalizes the fixed 256-byte alphabet of a typical byte-oriented
// rANS table to a caller-chosen contiguous integer range, following
// SymbolStatistics::buildFrequencyTable<T> from the CERN librans sources.
type Statistics struct {
	minSymbol int
	maxSymbol int
	probBits  uint

	freqs    []uint32 // len == size()
	cumFreqs []uint32 // len == size()+1
}

func (s *Statistics) size() int { return s.maxSymbol - s.minSymbol + 1 }

// MinSymbol returns the lowest symbol value covered by the table.
func (s *Statistics) MinSymbol() int { return s.minSymbol }

// MaxSymbol returns the highest symbol value covered by the table.
func (s *Statistics) MaxSymbol() int { return s.maxSymbol }

// ProbBits returns p such that frequencies sum to 1<<p.
func (s *Statistics) ProbBits() uint { return s.probBits }

// Freq returns the frequency and cumulative-frequency start for sym.
// sym must be in [MinSymbol(), MaxSymbol()].
func (s *Statistics) Freq(sym int) (freq, start uint32) {
	i := sym - s.minSymbol
	return s.freqs[i], s.cumFreqs[i]
}

// Total returns 1<<ProbBits(), the fixed total the frequencies sum to.
func (s *Statistics) Total() uint32 { return uint32(1) << s.probBits }

// Symbol maps a cumulative frequency in [0, Total()) back to the symbol
// whose range contains it. This is the reference O(log N) lookup; decoders
// wanting O(1) lookup should build an AliasTable or a dense cum->sym map
// (see NewCumToSymbol) instead of calling this in a hot loop.
func (s *Statistics) Symbol(cum uint32) int {
	lo, hi := 0, s.size()-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if s.cumFreqs[mid] <= cum {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return s.minSymbol + lo
}

// NewStatistics builds a rescaled frequency table over [minSymbol,
// maxSymbol] from observed per-symbol counts, targeting 1<<probBits total.
// counts must have length maxSymbol-minSymbol+1. Returns ErrModelCapacity if
// there are more nonzero-count symbols than 1<<probBits can assign at least
// frequency 1 each.
func NewStatistics(minSymbol, maxSymbol int, probBits uint, counts []uint64) (*Statistics, error) {
	n := maxSymbol - minSymbol + 1
	if len(counts) != n {
		return nil, ErrInvalidDescriptor
	}
	nonZero := 0
	var total uint64
	for _, c := range counts {
		if c != 0 {
			nonZero++
		}
		total += c
	}
	target := uint64(1) << probBits
	if uint64(nonZero) > target {
		return nil, ErrModelCapacity
	}
	if total == 0 {
		return nil, ErrEmptyInput
	}

	s := &Statistics{
		minSymbol: minSymbol,
		maxSymbol: maxSymbol,
		probBits:  probBits,
		freqs:     make([]uint32, n),
		cumFreqs:  make([]uint32, n+1),
	}
	for i, c := range counts {
		s.freqs[i] = uint32(c)
	}
	s.rescale(target, total)
	return s, nil
}

// rescale resamples freqs/cumFreqs so cumFreqs sums to target, repairing any
// symbol whose proportional share rounded down to zero by stealing a unit
// of frequency from the lowest nonzero-but->1 donor symbol. This is the
// "steal from donor" algorithm shared by iguana's normalizeFreqs and
// librans' rescaleFrequencyTable.
func (s *Statistics) rescale(target, curTotal uint64) {
	n := s.size()
	s.cumFreqs[0] = 0
	for i := 0; i < n; i++ {
		s.cumFreqs[i+1] = s.cumFreqs[i] + s.freqs[i]
	}

	for i := 1; i <= n; i++ {
		s.cumFreqs[i] = uint32((target * uint64(s.cumFreqs[i])) / curTotal)
	}

	for i := 0; i < n; i++ {
		if s.freqs[i] != 0 && s.cumFreqs[i+1] == s.cumFreqs[i] {
			// symbol i was rescaled down to zero frequency; steal a unit
			// from the lowest-frequency donor that can spare one.
			bestFreq := ^uint32(0)
			bestSteal := -1
			for j := 0; j < n; j++ {
				freq := s.cumFreqs[j+1] - s.cumFreqs[j]
				if freq > 1 && freq < bestFreq {
					bestFreq = freq
					bestSteal = j
				}
			}
			if bestSteal < 0 {
				// no donor available; leave symbol i at zero. Callers
				// relying on every observed symbol staying encodable
				// should pick a probBits large enough that nonZero <=
				// 1<<probBits with slack.
				continue
			}
			if bestSteal < i {
				for j := bestSteal + 1; j <= i; j++ {
					s.cumFreqs[j]--
				}
			} else {
				for j := i + 1; j <= bestSteal; j++ {
					s.cumFreqs[j]++
				}
			}
		}
	}

	for i := 0; i < n; i++ {
		s.freqs[i] = s.cumFreqs[i+1] - s.cumFreqs[i]
	}
}

// NewByteStatistics builds a Statistics table over the fixed byte alphabet
// [0,255] from src, handling the degenerate empty-input and
// single-repeated-byte cases the way iguana's ANSStatistics.observe does:
// empty input splits the total evenly between symbols 254 and 255, and a
// single repeated byte gets total-1, leaving one unit of probability mass
// unassigned to any symbol, so that table sums to Total()-1.
func NewByteStatistics(src []byte, probBits uint) *Statistics {
	const n = 256
	total := uint32(1) << probBits

	s := &Statistics{
		minSymbol: 0,
		maxSymbol: n - 1,
		probBits:  probBits,
		freqs:     make([]uint32, n),
		cumFreqs:  make([]uint32, n+1),
	}

	if len(src) == 0 {
		// Edge case: empty input. Arbitrarily assign half the probability
		// mass each to the last two symbols so a subsequent encode of
		// zero symbols still produces a well-formed (if never consulted)
		// table.
		s.freqs[n-2] = total / 2
		s.freqs[n-1] = total / 2
		s.cumFreqs[n-1] = total / 2
		s.cumFreqs[n] = total
		return s
	}

	counts := byteHistogram(src)
	maxIdx, maxCount := 0, uint64(0)
	for i, c := range counts {
		if c > maxCount {
			maxCount = c
			maxIdx = i
		}
	}

	if maxCount == uint64(len(src)) {
		// Edge case: a single repeated byte. A table that sums to exactly
		// a power of two needs N+1 bits to encode "all mass on one
		// symbol"; instead give the repeated symbol total-1 and let the
		// missing unit implicitly belong to a symbol that can never
		// occur, matching ans32.go's observe().
		for i := 0; i < n; i++ {
			s.freqs[i] = 0
		}
		s.freqs[maxIdx] = total - 1
		for i := 0; i <= maxIdx; i++ {
			s.cumFreqs[i] = 0
		}
		for i := maxIdx + 1; i <= n; i++ {
			s.cumFreqs[i] = total - 1
		}
		return s
	}

	var curTotal uint64
	for i := 0; i < n; i++ {
		s.freqs[i] = uint32(counts[i])
		curTotal += counts[i]
	}
	s.rescale(uint64(total), curTotal)
	return s
}
