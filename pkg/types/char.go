package types

import "go-rowdb/util/helpers"

func init() {
	typesMap[TYPE_CHAR] = descriptor{
		name:      "CHAR",
		fixedSize: 1,
		coerce:    coerceChar,
		encode: func(v interface{}, dst []byte) {
			dst[0] = v.(byte)
		},
		decode: func(src []byte) interface{} {
			return src[0]
		},
		compare: func(a, b interface{}) int {
			return helpers.Compare(a.(byte), b.(byte))
		},
	}
}

func coerceChar(v interface{}) (interface{}, error) {
	switch c := v.(type) {
	case byte:
		return c, nil
	case rune:
		if c >= 0 && c <= 0xff {
			return byte(c), nil
		}
	case int:
		if c >= 0 && c <= 0xff {
			return byte(c), nil
		}
	case string:
		if len(c) == 1 {
			return c[0], nil
		}
	}
	return nil, mismatch(TYPE_CHAR, v)
}
