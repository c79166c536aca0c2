package dcmstream

import (
	"testing"

	"github.com/grailbio/go-dicom/dicomuid"
	"github.com/stretchr/testify/assert"
)

func TestDecodeExplicitShortHeader(t *testing.T) {
	t.Parallel()
	ctx := newTestContext(t, dicomuid.ExplicitVRLittleEndian)
	c := newCursor(ctx, []byte{
		0x28, 0x00, 0x10, 0x00, // (0028,0010)
		'U', 'S', // VR
		0x02, 0x00, // length
		0x00, 0x02, // value
	}, 0)
	tag, err := decodeTag(c)
	assert.NoError(t, err)
	assert.Equal(t, Tag(0x00280010), tag)
	vr, err := decodeVR(c, tag)
	assert.NoError(t, err)
	assert.Equal(t, US, vr)
	length, err := decodeLength(c, vr)
	assert.NoError(t, err)
	assert.Equal(t, uint32(2), length)
	assert.Equal(t, 8, c.Pos())
}

func TestDecodeExplicitExtendedHeader(t *testing.T) {
	t.Parallel()
	ctx := newTestContext(t, dicomuid.ExplicitVRLittleEndian)
	c := newCursor(ctx, []byte{
		0xE0, 0x7F, 0x10, 0x00, // (7fe0,0010)
		'O', 'B', // VR
		0x00, 0x00, // reserved
		0xFF, 0xFF, 0xFF, 0xFF, // undefined length
	}, 0)
	tag, err := decodeTag(c)
	assert.NoError(t, err)
	assert.Equal(t, PixelDataTag, tag)
	vr, err := decodeVR(c, tag)
	assert.NoError(t, err)
	length, err := decodeLength(c, vr)
	assert.NoError(t, err)
	assert.Equal(t, UndefinedLength, length)
	assert.Equal(t, 12, c.Pos())
}

func TestDecodeImplicitHeader(t *testing.T) {
	t.Parallel()
	ctx := newTestContext(t, dicomuid.ImplicitVRLittleEndian)
	c := newCursor(ctx, []byte{
		0x10, 0x00, 0x10, 0x00, // (0010,0010)
		0x08, 0x00, 0x00, 0x00, // length
	}, 0)
	tag, err := decodeTag(c)
	assert.NoError(t, err)
	vr, err := decodeVR(c, tag)
	assert.NoError(t, err)
	assert.Equal(t, PN, vr)
	assert.Equal(t, 4, c.Pos()) // implicit VR consumes nothing
	length, err := decodeLength(c, vr)
	assert.NoError(t, err)
	assert.Equal(t, uint32(8), length)

	// group length elements are UL
	vr, err = decodeVR(c, 0x00090000)
	assert.NoError(t, err)
	assert.Equal(t, UL, vr)
}

func TestDecodeBigEndianTag(t *testing.T) {
	t.Parallel()
	ctx := newTestContext(t, dicomuid.ExplicitVRBigEndian)
	c := newCursor(ctx, []byte{
		0xFF, 0xFE, 0xE0, 0x00, // item tag, big endian
	}, 0)
	tag, err := peekTag(c)
	assert.NoError(t, err)
	assert.Equal(t, ItemTag, tag)
	assert.Equal(t, 0, c.Pos())
}

func TestDecodeFieldsBoundary(t *testing.T) {
	t.Parallel()
	ctx := newTestContext(t, dicomuid.ExplicitVRLittleEndian)
	c := newCursor(ctx, []byte{0x10, 0x00, 0x20}, 0)
	_, err := decodeTag(c)
	assert.True(t, IsRecoverable(err))

	c = newCursor(ctx, []byte{'O', 'B', 0x00, 0x00, 0x01}, 0)
	_, err = decodeLength(c, OB)
	assert.True(t, IsRecoverable(err))

	c = newCursor(ctx, []byte{'x', '!'}, 0)
	_, err = decodeVR(c, 0x00100020)
	assert.IsType(t, &UnrecognisedVR{}, err)
}
