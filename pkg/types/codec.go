package types

import (
	"math"
	"strings"

	"go-rowdb/util/helpers"
)

// Codec lays out keys of one Go type in a fixed number of bytes. Index
// trees are parameterized by it.
type Codec[K any] interface {
	Code() TypeCode
	Size() int
	Put(dst []byte, k K)
	Get(src []byte) K
	Compare(a, b K) int
	// Fits reports whether k can be stored in Size bytes without loss.
	Fits(k K) bool
}

type IntCodec struct{}

func (IntCodec) Code() TypeCode          { return TYPE_INT }
func (IntCodec) Size() int               { return 4 }
func (IntCodec) Put(dst []byte, k int32) { bin.PutUint32(dst, uint32(k)) }
func (IntCodec) Get(src []byte) int32    { return int32(bin.Uint32(src)) }
func (IntCodec) Fits(int32) bool         { return true }
func (IntCodec) Compare(a, b int32) int  { return helpers.Compare(a, b) }

type FloatCodec struct{}

func (FloatCodec) Code() TypeCode            { return TYPE_FLOAT }
func (FloatCodec) Size() int                 { return 4 }
func (FloatCodec) Put(dst []byte, k float32) { bin.PutUint32(dst, math.Float32bits(k)) }
func (FloatCodec) Get(src []byte) float32    { return math.Float32frombits(bin.Uint32(src)) }
func (FloatCodec) Fits(float32) bool         { return true }
func (FloatCodec) Compare(a, b float32) int  { return helpers.Compare(a, b) }

type CharCodec struct{}

func (CharCodec) Code() TypeCode         { return TYPE_CHAR }
func (CharCodec) Size() int              { return 1 }
func (CharCodec) Put(dst []byte, k byte) { dst[0] = k }
func (CharCodec) Get(src []byte) byte    { return src[0] }
func (CharCodec) Fits(byte) bool         { return true }
func (CharCodec) Compare(a, b byte) int  { return helpers.Compare(a, b) }

type BoolCodec struct{}

func (BoolCodec) Code() TypeCode { return TYPE_BOOL }
func (BoolCodec) Size() int      { return 1 }

func (BoolCodec) Put(dst []byte, k bool) {
	dst[0] = 0
	if k {
		dst[0] = 1
	}
}

func (BoolCodec) Get(src []byte) bool   { return src[0] != 0 }
func (BoolCodec) Fits(bool) bool        { return true }
func (BoolCodec) Compare(a, b bool) int { return compareBool(a, b) }

// StringCodec stores strings zero padded to Width bytes. Put truncates, so
// callers check the width first.
type StringCodec struct {
	Width int
}

func (c StringCodec) Code() TypeCode { return TYPE_STRING }
func (c StringCodec) Size() int      { return c.Width }

func (c StringCodec) Put(dst []byte, k string) {
	n := copy(dst[:c.Width], k)
	clear(dst[n:c.Width])
}

func (c StringCodec) Get(src []byte) string {
	return Decode(TYPE_STRING, src[:c.Width]).(string)
}

func (c StringCodec) Fits(k string) bool      { return len(k) <= c.Width }
func (c StringCodec) Compare(a, b string) int { return strings.Compare(a, b) }
