// Copyright (c) 2017, Steinar H. Gunderson
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
	"math"

	"github.com/ransgo/ransgo/internal/ints"
)

// OptimalRenormalize rescales cumFreqs (length numSyms+1, cumFreqs[0]==0) so
// the total becomes targetTotal, choosing the rounding that minimizes the
// total number of coded bits rather than iguana/librans' plain
// proportional-rescale-plus-donor-steal. It is cheap but not free - cost is
// roughly quadratic in the number of distinct (nonzero-frequency) symbols.
//
// Grounded entirely on original_source/renormalize.cpp (Steinar H.
// Gunderson, 2017); absent from the iguana teacher. No symbol with nonzero
// input frequency is left with a rescaled frequency of zero.
func OptimalRenormalize(cumFreqs []uint32, numSyms, targetTotal uint32) {
	// drop zero-frequency symbols; they only complicate the search, and are
	// put back (with frequency 0) once the optimal choice is known.
	mapping := make([]uint32, numSyms+1)
	remapped := make([]uint32, numSyms+1)
	var newNumSyms uint32
	remapped[0] = 0
	for i := uint32(0); i < numSyms; i++ {
		if cumFreqs[i+1] == cumFreqs[i] {
			continue
		}
		mapping[newNumSyms] = i
		remapped[newNumSyms+1] = cumFreqs[i+1]
		newNumSyms++
	}

	log2cache := make([]float64, targetTotal+1)
	for i := uint32(0); i <= targetTotal; i++ {
		log2cache[i] = -math.Log2(float64(i) / float64(targetTotal))
	}

	cache := make(map[cacheKey]optimalChoice)
	findOptimalCost(remapped, newNumSyms, targetTotal, log2cache, cache)

	for i := range cumFreqs {
		cumFreqs[i] = 0
	}

	// reconstruct the optimal per-symbol frequencies from the cache, from
	// the last symbol (fewest slots left to argue over) backwards.
	availableSlots := targetTotal
	for symbolIdx := int(newNumSyms) - 1; symbolIdx >= 0; symbolIdx-- {
		var freq uint32
		if symbolIdx == 0 {
			freq = availableSlots
		} else {
			key := cacheKey{numSyms: symbolIdx + 1, availableSlots: availableSlots}
			freq = cache[key].chosenFreq
		}
		cumFreqs[mapping[symbolIdx]] = freq
		availableSlots -= freq
	}

	// convert the per-symbol frequencies (currently stashed in cumFreqs) back
	// into true cumulative frequencies.
	var total uint32
	for i := range cumFreqs {
		freq := cumFreqs[i]
		cumFreqs[i] = total
		total += freq
	}
}

type cacheKey struct {
	numSyms        int
	availableSlots uint32
}

type optimalChoice struct {
	cost       float64
	chosenFreq uint32
}

// findOptimalCost returns, recursively and with memoization, the minimum
// total coded-bit cost of distributing availableSlots slots across the
// (nonzero-frequency) symbols [0, numSyms), given their true cumulative
// frequencies in cumFreqs. Returns +Inf if no legal assignment exists.
func findOptimalCost(cumFreqs []uint32, numSyms uint32, availableSlots uint32, log2cache []float64, cache map[cacheKey]optimalChoice) float64 {
	if numSyms == 0 {
		return 0
	}
	if numSyms > availableSlots {
		// every symbol needs at least one slot.
		return math.Inf(1)
	}
	if numSyms == 1 {
		return float64(cumFreqs[1]) * log2cache[availableSlots]
	}

	key := cacheKey{numSyms: int(numSyms), availableSlots: availableSlots}
	if v, ok := cache[key]; ok {
		return v.cost
	}

	// the cost function is convex in the number of slots given to this
	// symbol, so guess the proportional share, then walk in whichever
	// direction decreases cost until it starts increasing again.
	freq := cumFreqs[numSyms] - cumFreqs[numSyms-1]
	guess := math.Round(float64(availableSlots) * float64(freq) / float64(cumFreqs[numSyms]))

	x1 := ints.Max(int(math.Floor(guess)), 1)
	x2 := x1 + 1

	cost1 := float64(freq)*log2cache[x1] + findOptimalCost(cumFreqs, numSyms-1, availableSlots-uint32(x1), log2cache, cache)
	cost2 := math.Inf(1)
	if uint32(x2) <= availableSlots {
		cost2 = float64(freq)*log2cache[x2] + findOptimalCost(cumFreqs, numSyms-1, availableSlots-uint32(x2), log2cache, cache)
	}

	var x, direction int
	var bestCost float64
	if math.IsInf(cost1, 1) && math.IsInf(cost2, 1) {
		x, bestCost, direction = x1, cost1, -1
	} else if cost1 < cost2 {
		x, bestCost, direction = x1, cost1, -1
	} else {
		x, bestCost, direction = x2, cost2, 1
	}
	bestChoice := x

	for {
		x += direction
		if x == 0 || uint32(x) > availableSlots {
			break
		}
		cost := float64(freq)*log2cache[x] + findOptimalCost(cumFreqs, numSyms-1, availableSlots-uint32(x), log2cache, cache)
		if cost > bestCost {
			break
		}
		bestChoice = x
		bestCost = cost
	}

	cache[key] = optimalChoice{cost: bestCost, chosenFreq: uint32(bestChoice)}
	return bestCost
}
