package types

import (
	"math"

	"go-rowdb/util/helpers"
)

func init() {
	typesMap[TYPE_FLOAT] = descriptor{
		name:      "FLOAT",
		fixedSize: 4,
		coerce:    coerceFloat,
		encode: func(v interface{}, dst []byte) {
			bin.PutUint32(dst, math.Float32bits(v.(float32)))
		},
		decode: func(src []byte) interface{} {
			return math.Float32frombits(bin.Uint32(src))
		},
		compare: func(a, b interface{}) int {
			return helpers.Compare(a.(float32), b.(float32))
		},
	}
}

func coerceFloat(v interface{}) (interface{}, error) {
	switch n := v.(type) {
	case float32:
		if math.IsNaN(float64(n)) {
			return nil, mismatch(TYPE_FLOAT, v)
		}
		return n, nil
	case float64:
		if math.IsNaN(n) {
			return nil, mismatch(TYPE_FLOAT, v)
		}
		return float32(n), nil
	case int:
		return float32(n), nil
	case int32:
		return float32(n), nil
	case int64:
		return float32(n), nil
	}
	return nil, mismatch(TYPE_FLOAT, v)
}
