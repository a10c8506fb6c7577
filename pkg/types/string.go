package types

import (
	"bytes"
	"strings"
)

func init() {
	typesMap[TYPE_STRING] = descriptor{
		name: "STRING",
		coerce: func(v interface{}) (interface{}, error) {
			switch s := v.(type) {
			case string:
				if strings.IndexByte(s, 0) >= 0 {
					return nil, mismatch(TYPE_STRING, v)
				}
				return s, nil
			case []byte:
				if bytes.IndexByte(s, 0) >= 0 {
					return nil, mismatch(TYPE_STRING, v)
				}
				return string(s), nil
			}
			return nil, mismatch(TYPE_STRING, v)
		},
		encode: func(v interface{}, dst []byte) {
			n := copy(dst, v.(string))
			clear(dst[n:])
		},
		decode: func(src []byte) interface{} {
			if i := bytes.IndexByte(src, 0); i >= 0 {
				src = src[:i]
			}
			return string(src)
		},
		compare: func(a, b interface{}) int {
			return strings.Compare(a.(string), b.(string))
		},
	}
}
