package dcmstream

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/grailbio/go-dicom/dicomuid"
	"github.com/stretchr/testify/assert"
	"github.com/suyashkumar/dicom"
	dicomtag "github.com/suyashkumar/dicom/pkg/tag"
)

func mustNewElement(t dicomtag.Tag, value interface{}) *dicom.Element {
	elem, err := dicom.NewElement(t, value)
	if err != nil {
		panic(fmt.Sprintf("failed to create element %v: %v", t, err))
	}
	return elem
}

func toTag(t dicomtag.Tag) Tag {
	return NewTag(t.Group, t.Element)
}

// writeWithIndependentEncoder encodes a small data set with a separate DICOM implementation
func writeWithIndependentEncoder(t *testing.T, tsUID string) []byte {
	t.Helper()
	ds := dicom.Dataset{Elements: []*dicom.Element{
		mustNewElement(dicomtag.FileMetaInformationVersion, []byte{0x00, 0x01}),
		mustNewElement(dicomtag.MediaStorageSOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.4"}),
		mustNewElement(dicomtag.MediaStorageSOPInstanceUID, []string{"1.2.826.0.1.3680043.8.498.1"}),
		mustNewElement(dicomtag.TransferSyntaxUID, []string{tsUID}),
		mustNewElement(dicomtag.ImageType, []string{"ORIGINAL", "PRIMARY"}),
		mustNewElement(dicomtag.Modality, []string{"MR"}),
		mustNewElement(dicomtag.SeriesDescription, []string{"T1 AX"}),
		mustNewElement(dicomtag.PatientName, []string{"Doe^Jane"}),
		mustNewElement(dicomtag.ReferencedImageSequence, [][]*dicom.Element{{
			mustNewElement(dicomtag.ReferencedSOPClassUID, []string{"1.2.3"}),
			mustNewElement(dicomtag.ReferencedSOPInstanceUID, []string{"1.2.3.4"}),
		}}),
		mustNewElement(dicomtag.Rows, []int{64}),
		mustNewElement(dicomtag.Columns, []int{32}),
	}}
	var buf bytes.Buffer
	if err := dicom.Write(&buf, ds); err != nil {
		t.Fatalf("writing data set: %v", err)
	}
	return buf.Bytes()
}

func TestParseIndependentlyEncodedFiles(t *testing.T) {
	t.Parallel()
	for _, uid := range []string{dicomuid.ExplicitVRLittleEndian, dicomuid.ImplicitVRLittleEndian} {
		data := writeWithIndependentEncoder(t, uid)
		for _, size := range []int{7, 64, len(data)} {
			dcm, err := feed(data, size, DefaultConfig())
			if !assert.NoError(t, err, "%s chunk size %d", uid, size) {
				continue
			}
			assert.Equal(t, uid, dcm.TransferSyntax.UID)

			el, found := dcm.GetElement(toTag(dicomtag.ImageType))
			if assert.True(t, found) {
				assert.Equal(t, []string{"ORIGINAL", "PRIMARY"}, el.Value())
			}
			el, _ = dcm.GetElement(toTag(dicomtag.Modality))
			assert.Equal(t, "MR", el.Value())
			el, _ = dcm.GetElement(toTag(dicomtag.SeriesDescription))
			assert.Equal(t, "T1 AX", el.Value())
			el, _ = dcm.GetElement(toTag(dicomtag.PatientName))
			assert.Equal(t, "Doe^Jane", el.Value())
			el, _ = dcm.GetElement(toTag(dicomtag.Rows))
			assert.Equal(t, uint16(64), el.Value())
			el, _ = dcm.GetElement(toTag(dicomtag.Columns))
			assert.Equal(t, uint16(32), el.Value())

			sq, found := dcm.GetElement(toTag(dicomtag.ReferencedImageSequence))
			if assert.True(t, found) && assert.Len(t, sq.Items(), 1) {
				item := sq.Items()[0]
				ref, _ := item.Get(toTag(dicomtag.ReferencedSOPClassUID))
				assert.Equal(t, "1.2.3", ref.Value())
				ref, _ = item.Get(toTag(dicomtag.ReferencedSOPInstanceUID))
				assert.Equal(t, "1.2.3.4", ref.Value())
			}
			assert.False(t, dcm.DataSet.Has(TransferSyntaxUIDTag))
		}
	}
}
