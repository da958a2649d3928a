// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package cbor

import (
	"fmt"
	"math"
	"math/big"
)

// Decode parses exactly one CBOR item from b and returns it as the
// corresponding Go value (see the package doc for the full type list). It
// is an error for b to contain trailing bytes after the item, or to be
// empty.
func Decode(b []byte) (any, error) {
	c := &cursor{data: b}

	v, err := decodeValue(c)
	if err != nil {
		return nil, err
	}

	if c.pos != len(c.data) {
		return nil, fmt.Errorf("%w: %d trailing byte(s) after top-level item", ErrMalformedCBOR, len(c.data)-c.pos)
	}

	return v, nil
}

// decodeValue reads one CBOR item, dispatching on its major type.
func decodeValue(c *cursor) (any, error) {
	h, err := c.readHead()
	if err != nil {
		return nil, err
	}
	if h.isBreak {
		return nil, fmt.Errorf("%w: unexpected break code", ErrMalformedCBOR)
	}

	switch h.major {
	case majorUint:
		return h.argument, nil
	case majorNegint:
		return decodeNegint(h.argument), nil
	case majorBytes:
		return decodeBytesLike(c, h, majorBytes)
	case majorString:
		data, err := decodeBytesLike(c, h, majorString)
		if err != nil {
			return nil, err
		}
		return string(data.([]byte)), nil
	case majorArray:
		return decodeArray(c, h)
	case majorMap:
		return decodeMap(c, h)
	case majorTag:
		inner, err := decodeValue(c)
		if err != nil {
			return nil, err
		}
		return Tag{Number: h.argument, Value: inner}, nil
	case majorSimple:
		return decodeSimpleOrFloat(h)
	default:
		return nil, fmt.Errorf("%w: unknown major type %d", ErrMalformedCBOR, h.major)
	}
}

// decodeNegint converts a major-1 argument n (meaning the value -(n+1))
// to int64 when it fits, else *big.Int.
func decodeNegint(n uint64) any {
	if n <= math.MaxInt64 {
		return -int64(n) - 1
	}

	magnitude := new(big.Int).SetUint64(n)
	v := new(big.Int).Add(magnitude, big.NewInt(1))
	v.Neg(v)

	return v
}

// decodeValueOrBreak reads one item, or reports that a break code (the
// indefinite-length terminator) was seen instead.
func decodeValueOrBreak(c *cursor) (v any, isBreak bool, err error) {
	save := c.pos

	h, err := c.readHead()
	if err != nil {
		return nil, false, err
	}
	if h.isBreak {
		return nil, true, nil
	}

	c.pos = save
	v, err = decodeValue(c)
	if err != nil {
		return nil, false, err
	}

	return v, false, nil
}

// decodeBytesLike reads a definite or indefinite-length byte/text string,
// returning the concatenated raw bytes. Every chunk of an indefinite string
// must be a definite-length item of the same major type.
func decodeBytesLike(c *cursor, h head, major byte) (any, error) {
	if !h.indefinite {
		data, err := c.readN(int(h.argument))
		if err != nil {
			return nil, err
		}

		out := make([]byte, len(data))
		copy(out, data)

		return out, nil
	}

	var out []byte
	for {
		chunkHead, err := c.readHead()
		if err != nil {
			return nil, err
		}
		if chunkHead.isBreak {
			break
		}
		if chunkHead.major != major || chunkHead.indefinite {
			return nil, fmt.Errorf("%w: indefinite-length string chunk with wrong type", ErrMalformedCBOR)
		}

		data, err := c.readN(int(chunkHead.argument))
		if err != nil {
			return nil, err
		}
		out = append(out, data...)
	}

	if out == nil {
		out = []byte{}
	}

	return out, nil
}

// decodeArray reads a definite or indefinite-length array into []any.
func decodeArray(c *cursor, h head) (any, error) {
	if !h.indefinite {
		out := make([]any, 0, h.argument)
		for i := uint64(0); i < h.argument; i++ {
			v, err := decodeValue(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}

		return out, nil
	}

	var out []any
	for {
		v, isBreak, err := decodeValueOrBreak(c)
		if err != nil {
			return nil, err
		}
		if isBreak {
			break
		}
		out = append(out, v)
	}

	if out == nil {
		out = []any{}
	}

	return out, nil
}

// decodeMap reads a definite or indefinite-length map into a Map,
// preserving wire order.
func decodeMap(c *cursor, h head) (any, error) {
	if !h.indefinite {
		out := make(Map, 0, h.argument)
		for i := uint64(0); i < h.argument; i++ {
			key, err := decodeValue(c)
			if err != nil {
				return nil, err
			}
			value, err := decodeValue(c)
			if err != nil {
				return nil, err
			}
			out = append(out, MapEntry{Key: key, Value: value})
		}

		return out, nil
	}

	var out Map
	for {
		key, isBreak, err := decodeValueOrBreak(c)
		if err != nil {
			return nil, err
		}
		if isBreak {
			break
		}

		value, err := decodeValue(c)
		if err != nil {
			return nil, err
		}
		out = append(out, MapEntry{Key: key, Value: value})
	}

	if out == nil {
		out = Map{}
	}

	return out, nil
}

// decodeSimpleOrFloat resolves a major-7 item: booleans, null, undefined,
// a half/single/double float, or an unassigned simple value.
func decodeSimpleOrFloat(h head) (any, error) {
	switch h.additional {
	case 20:
		return false, nil
	case 21:
		return true, nil
	case 22:
		return nil, nil
	case 23:
		return Undefined{}, nil
	case 25:
		return decodeHalf(uint16(h.argument)), nil
	case 26:
		return float64(math.Float32frombits(uint32(h.argument))), nil
	case 27:
		return math.Float64frombits(h.argument), nil
	default:
		return nil, fmt.Errorf("%w: unsupported simple value %d", ErrMalformedCBOR, h.additional)
	}
}
