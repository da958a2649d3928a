// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

// Package cbor implements a restricted profile of RFC 8949 CBOR, sufficient
// for ordinals/WebAuthn-style metadata: major types 0-7, canonical minimal
// integer widths on encode, half/single/double floats with a deterministic
// width policy, and indefinite-length byte/text strings and arrays/maps on
// decode only. Tagged values (major 6) are surfaced on decode but cannot be
// produced by Encode.
//
// Decode returns Go's own dynamic algebra (mirroring encoding/json's
// decode-into-interface{} idiom) rather than a bespoke wrapper type: the
// result is always one of uint64, int64, *big.Int, []byte, string, []any,
// Map, bool, nil, Undefined, float64, or Tag.
package cbor

import (
	"errors"
)

// ErrMalformedCBOR defines that the input bytes do not form valid CBOR
// under this profile (unknown additional-info, unexpected break, a chunk
// of an indefinite string with the wrong major type, or an unsigned
// argument above 2^64-1).
var ErrMalformedCBOR = errors.New("malformed cbor")

// ErrUnsupportedCBOREncode defines that Encode was asked to produce
// something this profile cannot emit: a Tag, or a Go value with no CBOR
// representation.
var ErrUnsupportedCBOREncode = errors.New("unsupported cbor encode")

// Undefined is the CBOR `undefined` simple value (major 7, additional info
// 23). It has no Go built-in equivalent, unlike null.
type Undefined struct{}

// MapEntry is one key/value pair of an ordered Map, in the order it was
// inserted (encode) or read off the wire (decode).
type MapEntry struct {
	Key   any
	Value any
}

// Map is an ordered CBOR map: insertion order is preserved on encode and
// decode, and keys may be any supported Value type, not just strings.
type Map []MapEntry

// Tag is a CBOR tagged value (major 6): a tag number and its tagged inner
// value. Decode-only — Encode rejects Tag values.
type Tag struct {
	Number uint64
	Value  any
}

// major types.
const (
	majorUint    = 0
	majorNegint  = 1
	majorBytes   = 2
	majorString  = 3
	majorArray   = 4
	majorMap     = 5
	majorTag     = 6
	majorSimple  = 7
	additionalMax5Bit = 23
)
