/*
 * codec.go, part of godadf5.
 *
 *
 * Copyright 2026 Raul Mera <rauldotmeraatusachdotcl>
 *
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package store

import (
	"github.com/fxamacker/cbor/v2"
)

// Shapes, compound field names, attribute values and mapping tables are
// CBOR encoded. The encoder uses Core Deterministic Encoding so the same
// metadata always produces the same bytes.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("store: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("store: CBOR decoder initialization failed: " + err.Error())
	}
}

func marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

func unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// attribute value kinds, as stored in the envelope.
const (
	kindString uint8 = iota + 1
	kindInt
	kindInts
	kindFloat
	kindFloats
)

// attrValue is the on-disk envelope for one attribute. The explicit kind
// keeps empty slices and scalars distinguishable after a round trip.
type attrValue struct {
	Kind   uint8     `cbor:"1,keyasint"`
	Str    string    `cbor:"2,keyasint,omitempty"`
	Ints   []int64   `cbor:"3,keyasint,omitempty"`
	Floats []float64 `cbor:"4,keyasint,omitempty"`
}

func encodeAttr(v any) ([]byte, error) {
	var a attrValue
	switch t := v.(type) {
	case string:
		a = attrValue{Kind: kindString, Str: t}
	case int:
		a = attrValue{Kind: kindInt, Ints: []int64{int64(t)}}
	case int32:
		a = attrValue{Kind: kindInt, Ints: []int64{int64(t)}}
	case int64:
		a = attrValue{Kind: kindInt, Ints: []int64{t}}
	case float64:
		a = attrValue{Kind: kindFloat, Floats: []float64{t}}
	case []int:
		ints := make([]int64, len(t))
		for i, w := range t {
			ints[i] = int64(w)
		}
		a = attrValue{Kind: kindInts, Ints: ints}
	case []int64:
		a = attrValue{Kind: kindInts, Ints: append([]int64(nil), t...)}
	case []float64:
		a = attrValue{Kind: kindFloats, Floats: append([]float64(nil), t...)}
	default:
		return nil, errorf("unsupported attribute type %T", v)
	}
	return marshal(a)
}

func decodeAttr(b []byte) (any, error) {
	var a attrValue
	if err := unmarshal(b, &a); err != nil {
		return nil, err
	}
	switch a.Kind {
	case kindString:
		return a.Str, nil
	case kindInt:
		if len(a.Ints) != 1 {
			return nil, errorf("malformed scalar integer attribute")
		}
		return a.Ints[0], nil
	case kindInts:
		if a.Ints == nil {
			return []int64{}, nil
		}
		return a.Ints, nil
	case kindFloat:
		if len(a.Floats) != 1 {
			return nil, errorf("malformed scalar float attribute")
		}
		return a.Floats[0], nil
	case kindFloats:
		if a.Floats == nil {
			return []float64{}, nil
		}
		return a.Floats, nil
	}
	return nil, errorf("unknown attribute kind %d", a.Kind)
}
