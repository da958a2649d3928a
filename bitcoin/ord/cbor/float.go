// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package cbor

import "math"

// canonical half-precision bit patterns for the values the encode policy
// routes to half-float regardless of their double-precision origin.
const (
	halfNaN     uint16 = 0x7E00
	halfPosInf  uint16 = 0x7C00
	halfNegInf  uint16 = 0xFC00
	halfNegZero uint16 = 0x8000
)

// decodeHalf converts an IEEE 754 half-precision bit pattern to float64,
// following RFC 8949's decode_half: sign, 5-bit exponent, 10-bit mantissa.
func decodeHalf(bits uint16) float64 {
	sign := bits & 0x8000
	exp := (bits >> 10) & 0x1F
	mant := uint64(bits & 0x3FF)

	var val float64
	switch exp {
	case 0:
		val = float64(mant) * math.Pow(2, -24)
	case 0x1F:
		if mant != 0 {
			return math.NaN()
		}
		val = math.Inf(1)
	default:
		val = (1 + float64(mant)/1024) * math.Pow(2, float64(exp)-15)
	}

	if sign != 0 {
		val = -val
	}

	return val
}

// encodeFloatBits selects the canonical wire encoding for a float64 per the
// profile's policy: the four special values always use their fixed
// half-precision bit pattern; otherwise single precision if the value
// round-trips losslessly through float32, else double precision.
//
// Returns the additional-info (25/26/27) and the big-endian bit pattern
// sized to match it.
func encodeFloatBits(f float64) (additional byte, bits uint64, width int) {
	switch {
	case math.IsNaN(f):
		return 25, uint64(halfNaN), 2
	case math.IsInf(f, 1):
		return 25, uint64(halfPosInf), 2
	case math.IsInf(f, -1):
		return 25, uint64(halfNegInf), 2
	case f == 0 && math.Signbit(f):
		return 25, uint64(halfNegZero), 2
	}

	if f32 := float32(f); float64(f32) == f {
		return 26, uint64(math.Float32bits(f32)), 4
	}

	return 27, math.Float64bits(f), 8
}
