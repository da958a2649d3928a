// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package cbor_test

import (
	"math"
	"math/big"
	"testing"

	"ordlib/bitcoin/ord/cbor"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"zero", uint64(0)},
		{"small uint", uint64(10)},
		{"boundary uint8", uint64(23)},
		{"uint8 width", uint64(24)},
		{"uint16 width", uint64(256)},
		{"uint32 width", uint64(65536)},
		{"uint64 width", uint64(4294967296)},
		{"max uint64", uint64(math.MaxUint64)},
		{"negative small", int64(-1)},
		{"negative boundary", int64(-24)},
		{"negative wide", int64(-1000)},
		{"bytes", []byte{0x01, 0x02, 0x03}},
		{"empty bytes", []byte{}},
		{"string", "hello"},
		{"empty string", ""},
		{"true", true},
		{"false", false},
		{"null", nil},
		{"undefined", cbor.Undefined{}},
		{"array", []any{uint64(1), "two", []byte{3}}},
		{"empty array", []any{}},
		{"map", cbor.Map{{Key: "a", Value: uint64(1)}, {Key: "b", Value: uint64(2)}}},
		{"nested", []any{cbor.Map{{Key: uint64(1), Value: []any{uint64(2), uint64(3)}}}}},
		{"float nan", math.NaN()},
		{"float pos inf", math.Inf(1)},
		{"float neg inf", math.Inf(-1)},
		{"float neg zero", math.Copysign(0, -1)},
		{"float single precision", float64(float32(1.5))},
		{"float double precision", 0.1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			encoded, err := cbor.Encode(test.value)
			require.NoError(t, err)

			decoded, err := cbor.Decode(encoded)
			require.NoError(t, err)

			if f, ok := test.value.(float64); ok && math.IsNaN(f) {
				require.True(t, math.IsNaN(decoded.(float64)))
				return
			}

			require.EqualValues(t, test.value, decoded)
		})
	}
}

func TestEncodeCanonicalWidth(t *testing.T) {
	tests := []struct {
		value    uint64
		leadByte byte
	}{
		{0, 0x00},
		{23, 0x17},
		{24, 0x18},
		{255, 0x18},
		{256, 0x19},
		{65535, 0x19},
		{65536, 0x1A},
		{4294967296, 0x1B},
	}

	for _, test := range tests {
		encoded, err := cbor.Encode(test.value)
		require.NoError(t, err)
		require.EqualValues(t, test.leadByte, encoded[0])
	}
}

func TestEncodeBigInt(t *testing.T) {
	big1 := new(big.Int).Lsh(big.NewInt(1), 100)

	encoded, err := cbor.Encode(big1)
	require.Error(t, err)
	require.Nil(t, encoded)
	require.ErrorIs(t, err, cbor.ErrMalformedCBOR)

	withinRange := new(big.Int).SetUint64(math.MaxUint64)
	encoded, err = cbor.Encode(withinRange)
	require.NoError(t, err)

	decoded, err := cbor.Decode(encoded)
	require.NoError(t, err)
	require.EqualValues(t, uint64(math.MaxUint64), decoded)

	negativeWide := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 70))
	encoded, err = cbor.Encode(negativeWide)
	require.Error(t, err)
	require.Nil(t, encoded)
}

func TestEncodeUnsupported(t *testing.T) {
	_, err := cbor.Encode(cbor.Tag{Number: 1, Value: uint64(1)})
	require.ErrorIs(t, err, cbor.ErrUnsupportedCBOREncode)

	_, err = cbor.Encode(struct{ X int }{X: 1})
	require.ErrorIs(t, err, cbor.ErrUnsupportedCBOREncode)
}

func TestDecodeIndefiniteLength(t *testing.T) {
	tests := []struct {
		name     string
		bytes    []byte
		expected any
	}{
		{"indefinite bytes", []byte{0x5F, 0x41, 0x01, 0x41, 0x02, 0xFF}, []byte{0x01, 0x02}},
		{"indefinite string", []byte{0x7F, 0x61, 0x61, 0x61, 0x62, 0xFF}, "ab"},
		{"indefinite array", []byte{0x9F, 0x01, 0x02, 0xFF}, []any{uint64(1), uint64(2)}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			decoded, err := cbor.Decode(test.bytes)
			require.NoError(t, err)
			require.EqualValues(t, test.expected, decoded)
		})
	}
}

func TestDecodeIndefiniteStringChunkTypeMismatch(t *testing.T) {
	// Indefinite byte string (0x5F) containing a text-string chunk (0x61 'a').
	_, err := cbor.Decode([]byte{0x5F, 0x61, 0x61, 0xFF})
	require.Error(t, err)
	require.ErrorIs(t, err, cbor.ErrMalformedCBOR)
}

func TestDecodeTag(t *testing.T) {
	// Tag 0 (date/time string), value "x".
	decoded, err := cbor.Decode([]byte{0xC0, 0x61, 0x78})
	require.NoError(t, err)
	require.EqualValues(t, cbor.Tag{Number: 0, Value: "x"}, decoded)
}

func TestDecodeTrailingBytes(t *testing.T) {
	encoded, err := cbor.Encode(uint64(1))
	require.NoError(t, err)

	_, err = cbor.Decode(append(encoded, 0x00))
	require.Error(t, err)
	require.ErrorIs(t, err, cbor.ErrMalformedCBOR)
}

func TestDecodeMalformed(t *testing.T) {
	tests := [][]byte{
		{},
		{0x18},       // truncated extra-byte width
		{0x1C},       // reserved additional-info 28
		{0x00, 0xFF}, // trailing byte after a complete item is caught by Decode, but a bare break at top level is malformed too
		{0xFF},       // bare break code
	}

	for _, test := range tests {
		_, err := cbor.Decode(test)
		require.Error(t, err)
	}
}
