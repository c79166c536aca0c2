package dcmstream

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

/*
===============================================================================
    Dicom
===============================================================================
*/

// Dicom represents a file containing one SOP Instance
// as per http://dicom.nema.org/dicom/2013/output/chtml/part10/chapter_7.html
type Dicom struct {
	FilePath       string
	Preamble       [128]byte
	Meta           *DataSet
	DataSet        *DataSet
	TransferSyntax TransferSyntax
}

// GetElement returns the element indexed by `tag`, looking in the meta group
// for group 0x0002 tags and in the main data set otherwise.
// If the tag is not found, param `bool` will be false.
func (dcm *Dicom) GetElement(tag Tag) (*Element, bool) {
	if tag.Group() == 0x0002 {
		return dcm.Meta.Get(tag)
	}
	return dcm.DataSet.Get(tag)
}

// Describe returns a human-readable description of the meta group and data set
func (dcm *Dicom) Describe() []string {
	description := []string{fmt.Sprintf("Transfer syntax: %s", dcm.TransferSyntax)}
	description = append(description, dcm.Meta.Describe(0)...)
	return append(description, dcm.DataSet.Describe(0)...)
}

// dicmTestString contains the dicom magic value
var dicmTestString = []byte("DICM")

// validateHeader checks the 128 byte preamble and the magic that follows it.
// The preamble must be all zero.
func validateHeader(buf []byte) error {
	if len(buf) < HeaderLength {
		return NotADicomError("input is %d bytes, shorter than the %d byte header", len(buf), HeaderLength)
	}
	for i, b := range buf[:128] {
		if b != 0 {
			return NotADicomError("preamble byte %d is 0x%02X, expected 0x00", i, b)
		}
	}
	if !bytes.Equal(buf[128:HeaderLength], dicmTestString) {
		return NotADicomError("expected magic %q at offset 128, got %q", dicmTestString, buf[128:HeaderLength])
	}
	return nil
}

// ParseBytes decodes a complete DICOM file held in memory as a single window
func ParseBytes(source []byte, cfg Config) (*Dicom, error) {
	d, err := NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := d.Feed(source); err != nil {
		return nil, err
	}
	return d.Finish()
}

// ParseFile decodes the DICOM file at `path`, either streamed in chunks or read
// whole, according to `cfg.Mode`.
func ParseFile(path string, cfg Config) (*Dicom, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var (
		dcm *Dicom
		err error
	)
	if cfg.Mode == ModeWhole {
		var source []byte
		if source, err = os.ReadFile(path); err != nil {
			return nil, err
		}
		dcm, err = ParseBytes(source, cfg)
	} else {
		var f *os.File
		if f, err = os.Open(path); err != nil {
			return nil, err
		}
		defer f.Close()
		dcm, err = ParseStream(f, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("%q: %w", filepath.Base(path), err)
	}
	dcm.FilePath = path
	return dcm, nil
}
