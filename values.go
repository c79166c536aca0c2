package dcmstream

import (
	"bytes"
	"encoding/hex"
	"math"
	"strings"
)

/*
===============================================================================
    Value Decoders
===============================================================================
*/

// Opaque holds the raw bytes of a large value whose VR has no decoder.
type Opaque []byte

// opaqueThreshold is the value length above which undecodable values are kept as Opaque
const opaqueThreshold = 1024

type valueDecoder func(vr VR, raw []byte, ctx *ParseContext) interface{}

var valueDecoders map[VR]valueDecoder

func init() {
	valueDecoders = map[VR]valueDecoder{
		FL: decodeFloat32s,
		FD: decodeFloat64s,
		SS: decodeInt16s,
		SL: decodeInt32s,
		SV: decodeInt64s,
		US: decodeUint16s,
		UL: decodeUint32s,
		UV: decodeUint64s,
		AT: decodeTags,
	}
	for _, vr := range RecognisedVRs {
		if vr.IsCharacterString() {
			valueDecoders[vr] = decodeText
		}
	}
}

// decodeValue interprets the raw value bytes of a scalar element according to its VR.
// It never fails: anything that cannot be interpreted falls back to a hex dump.
func decodeValue(vr VR, raw []byte, ctx *ParseContext) (value interface{}) {
	defer func() {
		if r := recover(); r != nil {
			ctx.log.Warnf("decoding %d byte %s value: %v", len(raw), vr, r)
			value = decodeDefault(raw)
		}
	}()
	if dec, found := valueDecoders[vr]; found {
		return dec(vr, raw, ctx)
	}
	if vr.IsBinary() || len(raw) > opaqueThreshold {
		if !vr.IsBinary() {
			return Opaque(bytes.Clone(raw))
		}
		return bytes.Clone(raw)
	}
	return decodeDefault(raw)
}

// decodeDefault is the catch-all: a hex dump of the raw bytes
func decodeDefault(raw []byte) string {
	return hex.EncodeToString(raw)
}

// textUsesCharacterSet returns whether the VR is subject to Specific Character Set.
// The remaining character string VRs use the default repertoire.
func textUsesCharacterSet(vr VR) bool {
	switch vr {
	case SH, LO, ST, PN, LT, UT, UC:
		return true
	}
	return false
}

// keepsLeadingSpaces returns whether leading spaces are significant for the VR
func keepsLeadingSpaces(vr VR) bool {
	switch vr {
	case LT, ST, UT, UR:
		return true
	}
	return false
}

// trimPadding removes value padding. UI values are padded with NUL, then any
// stray trailing space is removed. Other text is padded with space (or NUL).
func trimPadding(vr VR, s string) string {
	if vr == UI {
		return strings.TrimRight(strings.TrimRight(s, "\x00"), " ")
	}
	s = strings.TrimRight(s, " \x00")
	if !keepsLeadingSpaces(vr) {
		s = strings.TrimLeft(s, " ")
	}
	return s
}

// decodeText decodes a character string, splitting multiple values on backslash
func decodeText(vr VR, raw []byte, ctx *ParseContext) interface{} {
	text := string(raw)
	if textUsesCharacterSet(vr) {
		decoded, err := decodeBytes(raw, ctx.charset)
		if err != nil {
			ctx.log.Warnf("error decoding %s with CharacterSet %s: %v", vr, ctx.charset.Name, err)
			return decodeDefault(raw)
		}
		text = decoded
	}
	if !vr.permitsMultiplicity() || !strings.Contains(text, `\`) {
		return trimPadding(vr, text)
	}
	values := strings.Split(strings.TrimRight(text, " \x00"), `\`)
	for i := range values {
		values[i] = trimPadding(vr, values[i])
	}
	return values
}

// decodeNumbers splits `raw` into values of `width` bytes. A single value is
// returned as-is, several values as a slice. Lengths that are not a multiple of
// `width` fall back to a hex dump.
func decodeNumbers[T any](raw []byte, width int, read func([]byte) T) interface{} {
	if len(raw) == 0 {
		return nil
	}
	if len(raw)%width != 0 {
		return decodeDefault(raw)
	}
	if len(raw) == width {
		return read(raw)
	}
	values := make([]T, len(raw)/width)
	for i := range values {
		values[i] = read(raw[i*width : (i+1)*width])
	}
	return values
}

func decodeFloat32s(_ VR, raw []byte, ctx *ParseContext) interface{} {
	return decodeNumbers(raw, 4, func(b []byte) float32 { return math.Float32frombits(ctx.byteOrder.Uint32(b)) })
}

func decodeFloat64s(_ VR, raw []byte, ctx *ParseContext) interface{} {
	return decodeNumbers(raw, 8, func(b []byte) float64 { return math.Float64frombits(ctx.byteOrder.Uint64(b)) })
}

func decodeInt16s(_ VR, raw []byte, ctx *ParseContext) interface{} {
	return decodeNumbers(raw, 2, func(b []byte) int16 { return int16(ctx.byteOrder.Uint16(b)) })
}

func decodeInt32s(_ VR, raw []byte, ctx *ParseContext) interface{} {
	return decodeNumbers(raw, 4, func(b []byte) int32 { return int32(ctx.byteOrder.Uint32(b)) })
}

func decodeInt64s(_ VR, raw []byte, ctx *ParseContext) interface{} {
	return decodeNumbers(raw, 8, func(b []byte) int64 { return int64(ctx.byteOrder.Uint64(b)) })
}

func decodeUint16s(_ VR, raw []byte, ctx *ParseContext) interface{} {
	return decodeNumbers(raw, 2, ctx.byteOrder.Uint16)
}

func decodeUint32s(_ VR, raw []byte, ctx *ParseContext) interface{} {
	return decodeNumbers(raw, 4, ctx.byteOrder.Uint32)
}

func decodeUint64s(_ VR, raw []byte, ctx *ParseContext) interface{} {
	return decodeNumbers(raw, 8, ctx.byteOrder.Uint64)
}

func decodeTags(_ VR, raw []byte, ctx *ParseContext) interface{} {
	return decodeNumbers(raw, 4, func(b []byte) Tag { return tagFromBytes(b, ctx) })
}
