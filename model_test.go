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

func TestEncodeDecodeModelRoundtrip(t *testing.T) {
	// exercise all four control-code branches: literal (<5), one-nibble
	// (<21), two-nibble (<277), three-nibble (>=277) escapes.
	counts := []uint64{2, 10, 200, 3000, 0, 1, 4}
	stats, err := NewStatistics(0, len(counts)-1, 13, counts)
	if err != nil {
		t.Fatal(err)
	}

	buf := EncodeModel(nil, stats)
	buf = append(buf, 0xAA, 0xBB, 0xCC) // trailing payload, should survive untouched

	got, rest, err := DecodeModel(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.minSymbol != stats.minSymbol || got.maxSymbol != stats.maxSymbol || got.probBits != stats.probBits {
		t.Fatalf("header mismatch: got min=%d max=%d p=%d, want min=%d max=%d p=%d",
			got.minSymbol, got.maxSymbol, got.probBits, stats.minSymbol, stats.maxSymbol, stats.probBits)
	}
	for i := 0; i < stats.size(); i++ {
		wf, ws := stats.Freq(i)
		gf, gs := got.Freq(i)
		if wf != gf || ws != gs {
			t.Fatalf("symbol %d: got (freq=%d,start=%d), want (freq=%d,start=%d)", i, gf, gs, wf, ws)
		}
	}
	if len(rest) != 3 || rest[0] != 0xAA || rest[1] != 0xBB || rest[2] != 0xCC {
		t.Fatalf("trailing payload corrupted: %v", rest)
	}
}

func TestDecodeModelRejectsTruncatedInput(t *testing.T) {
	if _, _, err := DecodeModel([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected an error decoding a truncated model")
	}
}
