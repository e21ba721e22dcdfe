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

import "encoding/binary"

// bitPacker accumulates variable-width fields into a byte buffer LSB-first,
// adapted from iguana's ansBitStream.
type bitPacker struct {
	acc uint64
	cnt uint
	buf []byte
}

func (p *bitPacker) add(v uint32, bits uint) {
	mask := ^(^uint32(0) << bits)
	p.acc |= uint64(v&mask) << p.cnt
	p.cnt += bits
	for p.cnt >= 8 {
		p.buf = append(p.buf, byte(p.acc))
		p.acc >>= 8
		p.cnt -= 8
	}
}

func (p *bitPacker) flush() {
	if p.cnt > 0 {
		p.buf = append(p.buf, byte(p.acc))
		p.acc = 0
		p.cnt = 0
	}
}

type bitUnpacker struct {
	acc uint64
	cnt uint
	src []byte
	pos int
}

func (u *bitUnpacker) get(bits uint) (uint32, errorCode) {
	for u.cnt < bits {
		if u.pos >= len(u.src) {
			return 0, ecOutOfInputData
		}
		u.acc |= uint64(u.src[u.pos]) << u.cnt
		u.pos++
		u.cnt += 8
	}
	mask := ^(^uint32(0) << bits)
	v := uint32(u.acc) & mask
	u.acc >>= bits
	u.cnt -= bits
	return v, ecOK
}

// EncodeModel serializes stats's (minSymbol, maxSymbol, probBits, freqs[])
// side channel, appending to dst and returning the extended slice. Grounded
// on iguana's ANSStatistics.Encode 3-bit-control/nibble-escape scheme:
//
//	000..100 => literal frequency 0..4
//	101      => one nibble,   frequency-5  in [0,16)
//	110      => two nibbles,  frequency-21 in [0,256)
//	111      => three nibbles, frequency-277 in [0,4096)
//
// except that for probBits > 12 the 111 escape carries probBits bits
// instead of three nibbles, so every frequency up to 1<<probBits fits;
// generalized from iguana's fixed 256-byte alphabet to stats's
// [minSymbol, maxSymbol] range, with an explicit header replacing the
// teacher's implicit "always 256 symbols, ctrl block is exactly 96 bytes"
// assumption.
func EncodeModel(dst []byte, stats *Statistics) []byte {
	var hdr [9]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(int32(stats.minSymbol)))
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(int32(stats.maxSymbol)))
	hdr[8] = byte(stats.probBits)
	dst = append(dst, hdr[:]...)

	var ctrl, data bitPacker
	n := stats.size()
	for i := 0; i < n; i++ {
		f := stats.freqs[i]
		switch {
		case f < 5:
			ctrl.add(f, 3)
		case f < 21:
			ctrl.add(0b101, 3)
			data.add(f-5, 4)
		case f < 277:
			ctrl.add(0b110, 3)
			data.add(f-21, 8)
		default:
			ctrl.add(0b111, 3)
			data.add(f-277, max(12, stats.probBits))
		}
	}
	ctrl.flush()
	data.flush()

	var lenBuf [8]byte
	binary.LittleEndian.PutUint32(lenBuf[0:4], uint32(len(ctrl.buf)))
	binary.LittleEndian.PutUint32(lenBuf[4:8], uint32(len(data.buf)))
	dst = append(dst, lenBuf[:]...)
	dst = append(dst, ctrl.buf...)
	dst = append(dst, data.buf...)
	return dst
}

// DecodeModel parses the side channel written by EncodeModel from the front
// of src, returning the rebuilt Statistics and the remaining suffix of src.
func DecodeModel(src []byte) (*Statistics, []byte, error) {
	if len(src) < 9+8 {
		return nil, nil, ErrOutOfInputData
	}
	minSymbol := int(int32(binary.LittleEndian.Uint32(src[0:4])))
	maxSymbol := int(int32(binary.LittleEndian.Uint32(src[4:8])))
	probBits := uint(src[8])
	ctrlLen := int(binary.LittleEndian.Uint32(src[9:13]))
	dataLen := int(binary.LittleEndian.Uint32(src[13:17]))
	rest := src[17:]
	if len(rest) < ctrlLen+dataLen {
		return nil, nil, ErrOutOfInputData
	}
	ctrlBuf := rest[:ctrlLen]
	dataBuf := rest[ctrlLen : ctrlLen+dataLen]
	rest = rest[ctrlLen+dataLen:]

	n := maxSymbol - minSymbol + 1
	if n <= 0 {
		return nil, nil, ErrInvalidDescriptor
	}

	ctrl := bitUnpacker{src: ctrlBuf}
	data := bitUnpacker{src: dataBuf}
	freqs := make([]uint32, n)
	var total uint64
	for i := 0; i < n; i++ {
		v, ec := ctrl.get(3)
		if ec != ecOK {
			return nil, nil, errs[ec]
		}
		var f uint32
		switch v {
		case 0b101:
			nib, ec := data.get(4)
			if ec != ecOK {
				return nil, nil, errs[ec]
			}
			f = nib + 5
		case 0b110:
			nib, ec := data.get(8)
			if ec != ecOK {
				return nil, nil, errs[ec]
			}
			f = nib + 21
		case 0b111:
			nib, ec := data.get(max(12, probBits))
			if ec != ecOK {
				return nil, nil, errs[ec]
			}
			f = nib + 277
		default:
			f = v
		}
		freqs[i] = f
		total += uint64(f)
	}

	s := &Statistics{
		minSymbol: minSymbol,
		maxSymbol: maxSymbol,
		probBits:  probBits,
		freqs:     freqs,
		cumFreqs:  make([]uint32, n+1),
	}
	for i := 0; i < n; i++ {
		s.cumFreqs[i+1] = s.cumFreqs[i] + freqs[i]
	}
	// NewByteStatistics' single-repeated-byte table sums to Total()-1.
	if total != uint64(s.Total()) && total+1 != uint64(s.Total()) {
		return nil, nil, ErrCorruptedBitStream
	}
	return s, rest, nil
}
