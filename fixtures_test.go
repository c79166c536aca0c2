package dcmstream

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"fmt"
	"strings"
	"testing"

	"github.com/grailbio/go-dicom/dicomio"
	"github.com/grailbio/go-dicom/dicomuid"
	"github.com/stretchr/testify/assert"
)

/*
===============================================================================
    Fixture Builder
===============================================================================
*/

// builder assembles encoded elements for tests
type builder struct {
	e        *dicomio.Encoder
	implicit bool
}

func newBuilder(bo binary.ByteOrder, implicit bool) *builder {
	mode := dicomio.ExplicitVR
	if implicit {
		mode = dicomio.ImplicitVR
	}
	return &builder{e: dicomio.NewBytesEncoder(bo, mode), implicit: implicit}
}

func explicitLE() *builder { return newBuilder(binary.LittleEndian, false) }

func (b *builder) tag(t Tag) *builder {
	b.e.WriteUInt16(t.Group())
	b.e.WriteUInt16(t.Element())
	return b
}

// header writes tag, VR (if explicit) and length
func (b *builder) header(t Tag, vr VR, length uint32) *builder {
	b.tag(t)
	switch {
	case b.implicit:
		b.e.WriteUInt32(length)
	case vr.IsExtended():
		b.e.WriteString(string(vr))
		b.e.WriteZeros(2)
		b.e.WriteUInt32(length)
	default:
		b.e.WriteString(string(vr))
		b.e.WriteUInt16(uint16(length))
	}
	return b
}

func (b *builder) element(t Tag, vr VR, value []byte) *builder {
	b.header(t, vr, uint32(len(value)))
	b.e.WriteBytes(value)
	return b
}

// str writes a text element padded to even length
func (b *builder) str(t Tag, vr VR, s string) *builder {
	if len(s)%2 == 1 {
		if vr == UI {
			s += "\x00"
		} else {
			s += " "
		}
	}
	return b.element(t, vr, []byte(s))
}

func (b *builder) u16(t Tag, v uint16) *builder {
	b.header(t, US, 2)
	b.e.WriteUInt16(v)
	return b
}

func (b *builder) item(length uint32) *builder {
	b.tag(ItemTag)
	b.e.WriteUInt32(length)
	return b
}

func (b *builder) itemEnd() *builder {
	b.tag(ItemDelimitationTag)
	b.e.WriteUInt32(0)
	return b
}

func (b *builder) seqEnd() *builder {
	b.tag(SequenceDelimitationTag)
	b.e.WriteUInt32(0)
	return b
}

func (b *builder) raw(p []byte) *builder {
	b.e.WriteBytes(p)
	return b
}

func (b *builder) bytes() []byte {
	if err := b.e.Error(); err != nil {
		panic(err)
	}
	return b.e.Bytes()
}

// dicomFile wraps `body` (already encoded in the syntax `tsUID` describes) with a
// header and a meta group declaring `tsUID`.
func dicomFile(tsUID string, body []byte) []byte {
	meta := explicitLE().
		element(0x00020001, OB, []byte{0x00, 0x01}).
		str(0x00020002, UI, "1.2.840.10008.5.1.4.1.1.7").
		str(TransferSyntaxUIDTag, UI, tsUID).
		bytes()
	f := explicitLE()
	f.e.WriteZeros(128)
	f.e.WriteString("DICM")
	f.header(0x00020000, UL, 4)
	f.e.WriteUInt32(uint32(len(meta)))
	return f.raw(meta).raw(body).bytes()
}

func deflate(t *testing.T, p []byte) []byte {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	assert.NoError(t, err)
	_, err = w.Write(p)
	assert.NoError(t, err)
	assert.NoError(t, w.Close())
	return buf.Bytes()
}

// sampleBody is an explicit little endian data set covering text, numbers, nested
// sequences of both length kinds and encapsulated pixel data.
func sampleBody() []byte {
	inner := explicitLE().str(0x00081150, UI, "1.2.3.4").str(0x00081155, UI, "1.2.3.4.5").bytes()
	definedItem := explicitLE().item(uint32(len(inner))).raw(inner).bytes()
	return explicitLE().
		str(SpecificCharacterSetTag, CS, "ISO_IR 100").
		str(0x00080060, CS, "OT").
		str(0x00100010, PN, "Doe^John").
		str(0x00100020, LO, "PID-0001").
		header(0x00081140, SQ, uint32(len(definedItem))).raw(definedItem).
		header(0x00089215, SQ, UndefinedLength).
		item(UndefinedLength).str(0x00080100, SH, "121327").str(0x00080102, SH, "DCM").itemEnd().
		item(UndefinedLength).str(0x00080100, SH, "T-D1100").itemEnd().
		seqEnd().
		u16(0x00280010, 4).
		u16(0x00280011, 4).
		header(PixelDataTag, OB, UndefinedLength).
		item(4).raw([]byte{0, 0, 0, 0}).
		item(8).raw([]byte{1, 2, 3, 4, 5, 6, 7, 8}).
		item(8).raw([]byte{9, 10, 11, 12, 13, 14, 15, 16}).
		seqEnd().
		bytes()
}

func sampleFile() []byte {
	return dicomFile(dicomuid.ExplicitVRLittleEndian, sampleBody())
}

// dump renders a data set with full values, for comparing decode results
func dump(ds *DataSet) []string {
	var lines []string
	var walk func(ds *DataSet, indent string)
	walk = func(ds *DataSet, indent string) {
		for _, el := range ds.Elements() {
			line := fmt.Sprintf("%s%s %s %s len=%d off=%d", indent, el.Tag, el.VR, el.Kind(), el.Length, el.Offset)
			switch el.Kind() {
			case ScalarKind:
				lines = append(lines, fmt.Sprintf("%s value=%#v", line, el.Value()))
			case SequenceKind:
				lines = append(lines, line)
				for i, item := range el.Items() {
					lines = append(lines, fmt.Sprintf("%s  item %d", indent, i))
					walk(item, indent+"    ")
				}
			case FragmentedKind:
				lines = append(lines, fmt.Sprintf("%s table=%v", line, el.OffsetTable()))
				for _, f := range el.Fragments() {
					lines = append(lines, fmt.Sprintf("%s  %d %d %v %x", indent, f.Index, f.Length, f.Skipped, f.Data))
				}
			}
		}
	}
	walk(ds, "")
	return lines
}

func dumpDicom(dcm *Dicom) string {
	return strings.Join(append(dump(dcm.Meta), dump(dcm.DataSet)...), "\n")
}

// feed decodes `data` in chunks of `size` bytes
func feed(data []byte, size int, cfg Config) (*Dicom, error) {
	d, err := NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	for len(data) > 0 {
		n := min(size, len(data))
		if err := d.Feed(data[:n]); err != nil {
			return nil, err
		}
		data = data[n:]
	}
	return d.Finish()
}

// newTestContext returns a context positioned in the main data set
func newTestContext(t *testing.T, uid string) *ParseContext {
	ts, err := LookupTransferSyntax(uid)
	assert.NoError(t, err)
	ctx := newParseContext(DefaultConfig(), NewDataSet())
	ctx.useTransferSyntax(ts)
	return ctx
}
