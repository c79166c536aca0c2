package dcmstream

import (
	"encoding/binary"
	"fmt"

	"github.com/grailbio/go-dicom/dicomuid"
)

/*
===============================================================================
    `TransferSyntax`: Support For Multiple Transfer Syntaxes
===============================================================================
*/

// TransferSyntax describes how the main data set is encoded
type TransferSyntax struct {
	UID          string
	Name         string
	ImplicitVR   bool
	LittleEndian bool
	Deflated     bool
}

// supportedDefaultUID is assumed when the meta group declares no transfer syntax and none can be guessed
var supportedDefaultUID = dicomuid.ExplicitVRLittleEndian

// supportedTransferSyntaxes provides a mapping between transfer syntax UID and encoding
var supportedTransferSyntaxes = map[string]TransferSyntax{
	dicomuid.ImplicitVRLittleEndian:         {ImplicitVR: true, LittleEndian: true},
	dicomuid.ExplicitVRLittleEndian:         {ImplicitVR: false, LittleEndian: true},
	dicomuid.DeflatedExplicitVRLittleEndian: {ImplicitVR: false, LittleEndian: true, Deflated: true},
	dicomuid.ExplicitVRBigEndian:            {ImplicitVR: false, LittleEndian: false},
}

// LookupTransferSyntax returns the TransferSyntax for `uid`, or an `UnsupportedTransferSyntax`
// error if the syntax cannot be decoded.
func LookupTransferSyntax(uid string) (TransferSyntax, error) {
	ts, found := supportedTransferSyntaxes[uid]
	if !found {
		return TransferSyntax{}, UnsupportedTransferSyntaxError("transfer syntax %s is not supported", dicomuid.UIDString(uid))
	}
	ts.UID = uid
	ts.Name = uid
	if info, err := dicomuid.Lookup(uid); err == nil {
		ts.Name = info.Name
	}
	return ts, nil
}

// ByteOrder returns the byte order of the encoding
func (ts TransferSyntax) ByteOrder() binary.ByteOrder {
	if ts.LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Encoding returns a short description such as "ExplicitVR + LittleEndian"
func (ts TransferSyntax) Encoding() string {
	var implicitness = "ImplicitVR"
	var endian = "LittleEndian"
	if !ts.ImplicitVR {
		implicitness = "ExplicitVR"
	}
	if !ts.LittleEndian {
		endian = "BigEndian"
	}
	if ts.Deflated {
		endian += " + Deflated"
	}
	return fmt.Sprintf("%s + %s", implicitness, endian)
}

func (ts TransferSyntax) String() string {
	return fmt.Sprintf("%s (%s)", ts.Name, ts.Encoding())
}

// guessTransferSyntax is a heuristic for determining the in-use transfer syntax
// when the meta group does not declare one.
// 1. If the first group number read as little endian is > 2000, it is most likely big endian
// 2. If bytes four to six match a VR string, it is most likely explicit VR
func guessTransferSyntax(buf []byte) (ts TransferSyntax, success bool) {
	if len(buf) < 6 {
		return ts, false
	}
	littleEndian := true
	if firstTwoLE := binary.LittleEndian.Uint16(buf[0:2]); firstTwoLE > 2000 && firstTwoLE != 0x7FE0 {
		littleEndian = false
	}
	implicit := !VR(buf[4:6]).IsRecognised()
	uid := supportedDefaultUID
	switch {
	case implicit && littleEndian:
		uid = dicomuid.ImplicitVRLittleEndian
	case !littleEndian:
		uid = dicomuid.ExplicitVRBigEndian
	}
	ts, err := LookupTransferSyntax(uid)
	return ts, err == nil
}
