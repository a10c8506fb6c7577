package types

import (
	"math"

	"go-rowdb/util/helpers"
)

func init() {
	typesMap[TYPE_INT] = descriptor{
		name:      "INT",
		fixedSize: 4,
		coerce:    coerceInt,
		encode: func(v interface{}, dst []byte) {
			bin.PutUint32(dst, uint32(v.(int32)))
		},
		decode: func(src []byte) interface{} {
			return int32(bin.Uint32(src))
		},
		compare: func(a, b interface{}) int {
			return helpers.Compare(a.(int32), b.(int32))
		},
	}
}

func coerceInt(v interface{}) (interface{}, error) {
	var i int64
	switch n := v.(type) {
	case int32:
		return n, nil
	case int:
		i = int64(n)
	case int8:
		i = int64(n)
	case int16:
		i = int64(n)
	case int64:
		i = n
	case uint8:
		i = int64(n)
	case uint16:
		i = int64(n)
	case uint32:
		i = int64(n)
	default:
		return nil, mismatch(TYPE_INT, v)
	}

	if i < math.MinInt32 || i > math.MaxInt32 {
		return nil, mismatch(TYPE_INT, v)
	}
	return int32(i), nil
}
