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

// Encode16 compresses src (an arbitrary byte slice) with a single-lane,
// 32-bit-state/16-bit-granule rANS coder, building its own byte-alphabet
// model and prepending the serialized model so Decode16 can rebuild it.
// Grounded on iguana/ans1.go's ANS1Encoder, generalized to run atop the
// parametric Coder[T,S] kernel instead of a hardcoded lane.
func Encode16(src []byte, probBits uint) []byte {
	stats := NewByteStatistics(src, probBits)
	encTab := EncSymbolTable[uint32](stats)

	c := NewCoder[uint32, uint16](probBits)
	x := c.EncInit()
	w := &writer[uint16]{}
	for i := len(src) - 1; i >= 0; i-- {
		x = c.EncPutSymbol(x, w, encTab[src[i]])
	}
	c.EncFlush(x, w)
	body := w.reversed()

	bodyBytes := make([]byte, len(body)*2)
	for i, v := range body {
		bodyBytes[2*i] = byte(v)
		bodyBytes[2*i+1] = byte(v >> 8)
	}

	dst := EncodeModel(nil, stats)
	dst = append(dst, bodyBytes...)
	return dst
}

// Decode16 reverses Encode16, decoding exactly dstLen bytes.
func Decode16(src []byte, dstLen int) ([]byte, error) {
	stats, body, err := DecodeModel(src)
	if err != nil {
		return nil, err
	}
	cum := NewCumToSymbol(stats)
	decTab := DecSymbolTable(stats)

	if len(body)%2 != 0 {
		return nil, ErrCorruptedBitStream
	}
	granules := make([]uint16, len(body)/2)
	for i := range granules {
		granules[i] = uint16(body[2*i]) | uint16(body[2*i+1])<<8
	}

	c := NewCoder[uint32, uint16](stats.probBits)
	r := newReader[uint16](granules)
	x, ec := c.DecInit(r)
	if ec != ecOK {
		return nil, errs[ec]
	}

	dst := make([]byte, 0, dstLen)
	for len(dst) < dstLen {
		slot := c.DecGet(x)
		sym := cum.Symbol(slot)
		dst = append(dst, byte(sym))
		var ec errorCode
		x, ec = c.DecAdvanceSymbol(x, r, decTab[sym-stats.minSymbol])
		if ec != ecOK {
			return nil, errs[ec]
		}
	}
	return dst, nil
}

// Encode32 compresses src with a single-lane, 64-bit-state/32-bit-granule
// rANS coder - the other corner of the state-width/stream-granularity
// matrix named by the coder kernel's parametrization. Otherwise identical
// in structure to Encode16.
func Encode32(src []byte, probBits uint) []byte {
	stats := NewByteStatistics(src, probBits)
	encTab := EncSymbolTable[uint64](stats)

	c := NewCoder[uint64, uint32](probBits)
	x := c.EncInit()
	w := &writer[uint32]{}
	for i := len(src) - 1; i >= 0; i-- {
		x = c.EncPutSymbol(x, w, encTab[src[i]])
	}
	c.EncFlush(x, w)
	body := w.reversed()

	bodyBytes := make([]byte, len(body)*4)
	for i, v := range body {
		bodyBytes[4*i] = byte(v)
		bodyBytes[4*i+1] = byte(v >> 8)
		bodyBytes[4*i+2] = byte(v >> 16)
		bodyBytes[4*i+3] = byte(v >> 24)
	}

	dst := EncodeModel(nil, stats)
	dst = append(dst, bodyBytes...)
	return dst
}

// Decode32 reverses Encode32, decoding exactly dstLen bytes.
func Decode32(src []byte, dstLen int) ([]byte, error) {
	stats, body, err := DecodeModel(src)
	if err != nil {
		return nil, err
	}
	cum := NewCumToSymbol(stats)
	decTab := DecSymbolTable(stats)

	if len(body)%4 != 0 {
		return nil, ErrCorruptedBitStream
	}
	granules := make([]uint32, len(body)/4)
	for i := range granules {
		granules[i] = uint32(body[4*i]) | uint32(body[4*i+1])<<8 | uint32(body[4*i+2])<<16 | uint32(body[4*i+3])<<24
	}

	c := NewCoder[uint64, uint32](stats.probBits)
	r := newReader[uint32](granules)
	x, ec := c.DecInit(r)
	if ec != ecOK {
		return nil, errs[ec]
	}

	dst := make([]byte, 0, dstLen)
	for len(dst) < dstLen {
		slot := c.DecGet(x)
		sym := cum.Symbol(slot)
		dst = append(dst, byte(sym))
		var ec errorCode
		x, ec = c.DecAdvanceSymbol(x, r, decTab[sym-stats.minSymbol])
		if ec != ecOK {
			return nil, errs[ec]
		}
	}
	return dst, nil
}
