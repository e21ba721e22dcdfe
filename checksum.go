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
	"github.com/dchest/siphash"
	"golang.org/x/crypto/blake2b"
)

// Checksum computes a keyed SipHash-2-4 MAC over data, for callers who want
// to wrap an encoded stream (and/or its model side channel) with an
// integrity check before storing or transmitting it - the coder itself has
// no notion of a container format or checksum field, per its Non-goals.
// Grounded on vm/interphash.go's use of github.com/dchest/siphash for keyed
// hashing of fixed-size buffers.
func Checksum(key0, key1 uint64, data []byte) uint64 {
	return siphash.Hash(key0, key1, data)
}

// VerifyChecksum reports whether data's SipHash-2-4 MAC under the given key
// matches want.
func VerifyChecksum(key0, key1 uint64, data []byte, want uint64) bool {
	return Checksum(key0, key1, data) == want
}

// ModelFingerprint returns an unkeyed BLAKE2b-256 digest of a serialized
// model (as produced by EncodeModel), suitable as a content-addressable key
// for caching decoder-side lookup structures (a CumToSymbol map or
// AliasTable) built from that exact model across multiple streams. Grounded
// on fsenv.go / ion/blockfmt/index.go's use of blake2b.New256 for content
// hashing.
func ModelFingerprint(serializedModel []byte) [32]byte {
	return blake2b.Sum256(serializedModel)
}
