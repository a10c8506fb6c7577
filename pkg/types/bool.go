package types

func init() {
	typesMap[TYPE_BOOL] = descriptor{
		name:      "BOOL",
		fixedSize: 1,
		coerce: func(v interface{}) (interface{}, error) {
			if b, ok := v.(bool); ok {
				return b, nil
			}
			return nil, mismatch(TYPE_BOOL, v)
		},
		encode: func(v interface{}, dst []byte) {
			dst[0] = 0
			if v.(bool) {
				dst[0] = 1
			}
		},
		decode: func(src []byte) interface{} {
			return src[0] != 0
		},
		compare: func(a, b interface{}) int {
			return compareBool(a.(bool), b.(bool))
		},
	}
}

// false sorts before true.
func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}
