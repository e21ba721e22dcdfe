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

import "errors"

type errorCode uint32

const (
	ecOK errorCode = iota
	ecEmptyInput
	ecModelCapacity
	ecInvalidDescriptor
	ecAliasNotDivisible
	ecBufferExhausted
	ecOutOfInputData
	ecCorruptedBitStream
	ecLastCode
)

var errs = [ecLastCode]error{
	ecOK:                 nil,
	ecEmptyInput:          errors.New("ransgo: empty input"),
	ecModelCapacity:       errors.New("ransgo: too many distinct symbols for requested probability bits"),
	ecInvalidDescriptor:   errors.New("ransgo: invalid encoder or decoder descriptor"),
	ecAliasNotDivisible:   errors.New("ransgo: alias table requires table size divisible by symbol count"),
	ecBufferExhausted:     errors.New("ransgo: output buffer exhausted"),
	ecOutOfInputData:      errors.New("ransgo: out of input bytes"),
	ecCorruptedBitStream:  errors.New("ransgo: bitstream corruption detected"),
}

// Exported sentinels, for callers that want to errors.Is against a stable value.
var (
	ErrEmptyInput         = errs[ecEmptyInput]
	ErrModelCapacity      = errs[ecModelCapacity]
	ErrInvalidDescriptor  = errs[ecInvalidDescriptor]
	ErrAliasNotDivisible  = errs[ecAliasNotDivisible]
	ErrBufferExhausted    = errs[ecBufferExhausted]
	ErrOutOfInputData     = errs[ecOutOfInputData]
	ErrCorruptedBitStream = errs[ecCorruptedBitStream]
)
