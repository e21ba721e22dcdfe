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

import "golang.org/x/exp/slices"

// granule is the set of integer widths a stream can be split into. It
// mirrors the C++ Stream_t template parameter of Rans<T, Stream_t>.
type granule interface {
	~uint8 | ~uint16 | ~uint32
}

// reader is a bounds-checked forward cursor over a decoder's input stream,
// adapted from iguana's stream.fetch8/16/24 cursor.
type reader[S granule] struct {
	data []S
	pos  int
}

func newReader[S granule](data []S) *reader[S] {
	return &reader[S]{data: data}
}

func (r *reader[S]) empty() bool {
	return r.pos >= len(r.data)
}

func (r *reader[S]) remaining() int {
	return len(r.data) - r.pos
}

// next pops the next granule moving forward, as the decoder consumes them.
func (r *reader[S]) next() (S, errorCode) {
	if r.pos >= len(r.data) {
		var zero S
		return zero, ecOutOfInputData
	}
	v := r.data[r.pos]
	r.pos++
	return v, ecOK
}

// writer accumulates an encoder's output by prepending granules, mirroring
// rans.h's backward-moving pointer: the encoder always knows the end of its
// buffer up front and walks towards the beginning as it emits. Since Go slices
// don't support pre-pending cheaply, writer instead appends to a forward
// buffer and the caller reverses the granule order once after EncFlush (see
// reversed), which is the idiomatic Go rendition of the same contract.
type writer[S granule] struct {
	out []S
}

func (w *writer[S]) emit(v S) {
	w.out = slices.Grow(w.out, 1)
	w.out = append(w.out, v)
}

// reversed returns the accumulated granules in the order a reader consuming
// them forwards expects, i.e. the reverse of emission order.
func (w *writer[S]) reversed() []S {
	n := len(w.out)
	rev := make([]S, n)
	for i, v := range w.out {
		rev[n-1-i] = v
	}
	return rev
}
