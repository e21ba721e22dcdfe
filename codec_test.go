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
	"bytes"
	"testing"

	"github.com/ransgo/ransgo/internal/ints"
)

func TestEncode16Roundtrip(t *testing.T) {
	in := []byte("test message 123 test message 456")

	ans := Encode16(in, 12)
	lenIn := len(in)
	lenANS := len(ans)
	ratio := 100.0 * (1.0 - float64(lenANS)/float64(lenIn))
	t.Logf("input size: %d, output size %d, compression ratio %f%%\n", lenIn, lenANS, ratio)

	dec, err := Decode16(ans, lenIn)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(in, dec) {
		t.Fatalf("roundtrip mismatch: got %q, want %q", dec, in)
	}
}

func TestEncode32Roundtrip(t *testing.T) {
	in := []byte("the quick brown fox jumps over the lazy dog, the quick brown fox jumps again")

	ans := Encode32(in, 14)
	dec, err := Decode32(ans, len(in))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(in, dec) {
		t.Fatalf("roundtrip mismatch: got %q, want %q", dec, in)
	}
}

func TestEncode16EmptyInput(t *testing.T) {
	ans := Encode16(nil, 12)
	dec, err := Decode16(ans, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(dec) != 0 {
		t.Fatalf("expected empty decode, got %d bytes", len(dec))
	}
}

func TestEncode16SingleRepeatedByte(t *testing.T) {
	in := bytes.Repeat([]byte{'x'}, 4096)
	ans := Encode16(in, 12)
	dec, err := Decode16(ans, len(in))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(in, dec) {
		t.Fatal("roundtrip mismatch on single repeated byte input")
	}
}

func TestEncode32LargeRandomInput(t *testing.T) {
	in := make([]byte, 1<<16)
	if err := ints.RandomFillSlice(in); err != nil {
		t.Fatal(err)
	}

	ans := Encode32(in, 14)
	dec, err := Decode32(ans, len(in))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(in, dec) {
		t.Fatal("roundtrip mismatch on large random input")
	}
}

func FuzzEncode16Roundtrip(f *testing.F) {
	f.Add([]byte("hello, world"))
	f.Fuzz(func(t *testing.T, ref []byte) {
		refLen := len(ref)
		compressed := Encode16(ref, 12)
		decompressed, err := Decode16(compressed, refLen)
		if err != nil {
			t.Fatalf("round-trip failed: %s", err)
		}
		if !bytes.Equal(ref, decompressed) {
			t.Fatal("round trip result is not equal to the input")
		}
	})
}

func FuzzEncode32Roundtrip(f *testing.F) {
	f.Add([]byte("hello, world"))
	f.Fuzz(func(t *testing.T, ref []byte) {
		refLen := len(ref)
		compressed := Encode32(ref, 12)
		decompressed, err := Decode32(compressed, refLen)
		if err != nil {
			t.Fatalf("round-trip failed: %s", err)
		}
		if !bytes.Equal(ref, decompressed) {
			t.Fatal("round trip result is not equal to the input")
		}
	})
}
