package dcmstream

import (
	"errors"
	"fmt"
)

/*
===============================================================================
    Error Types
===============================================================================
*/

// BoundaryExceeded is an error indicating that there are not enough bytes left
// in the current window to complete the element in progress.
// It is recoverable: the streaming layer stitches the next chunk and retries.
type BoundaryExceeded struct {
	error
}

// Truncated is an error indicating that the input ended while an element was incomplete
type Truncated struct {
	error
}

// Malformed is an error indicating a structural violation in the input
type Malformed struct {
	error
}

// UnrecognisedVR is an error indicating that a VR code is not in `RecognisedVRs`
type UnrecognisedVR struct {
	error
}

// MalformedTag is an error indicating that a tag string could not be parsed
type MalformedTag struct {
	error
}

// UnsupportedTransferSyntax is an error indicating that the meta group declares a
// transfer syntax which cannot be decoded
type UnsupportedTransferSyntax struct {
	error
}

// InvariantViolation is an error indicating a decoder bug rather than bad input
type InvariantViolation struct {
	error
}

// NotADicom is an error indicating that the input is not recognised as a valid dicom
type NotADicom struct {
	error
}

// InvalidConfig is an error indicating that a `Config` cannot be used
type InvalidConfig struct {
	error
}

// BoundaryExceededError raises a `BoundaryExceeded` error
func BoundaryExceededError(format string, a ...interface{}) *BoundaryExceeded {
	return &BoundaryExceeded{fmt.Errorf(format, a...)}
}

// TruncatedError raises a `Truncated` error
func TruncatedError(format string, a ...interface{}) *Truncated {
	return &Truncated{fmt.Errorf(format, a...)}
}

// MalformedError raises a `Malformed` error
func MalformedError(format string, a ...interface{}) *Malformed {
	return &Malformed{fmt.Errorf(format, a...)}
}

// UnrecognisedVRError raises a `UnrecognisedVR` error
func UnrecognisedVRError(format string, a ...interface{}) *UnrecognisedVR {
	return &UnrecognisedVR{fmt.Errorf(format, a...)}
}

// MalformedTagError raises a `MalformedTag` error
func MalformedTagError(format string, a ...interface{}) *MalformedTag {
	return &MalformedTag{fmt.Errorf(format, a...)}
}

// UnsupportedTransferSyntaxError raises a `UnsupportedTransferSyntax` error
func UnsupportedTransferSyntaxError(format string, a ...interface{}) *UnsupportedTransferSyntax {
	return &UnsupportedTransferSyntax{fmt.Errorf(format, a...)}
}

// InvariantViolationError raises a `InvariantViolation` error
func InvariantViolationError(format string, a ...interface{}) *InvariantViolation {
	return &InvariantViolation{fmt.Errorf(format, a...)}
}

// NotADicomError raises a `NotADicom` error
func NotADicomError(format string, a ...interface{}) *NotADicom {
	return &NotADicom{fmt.Errorf(format, a...)}
}

// InvalidConfigError raises a `InvalidConfig` error
func InvalidConfigError(format string, a ...interface{}) *InvalidConfig {
	return &InvalidConfig{fmt.Errorf(format, a...)}
}

// DecodeError reports a fatal error together with the element and absolute
// stream offset at which it occurred.
type DecodeError struct {
	Tag      Tag
	Position int64
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s %s at offset 0x%X: %v", e.Tag, tagName(e.Tag), e.Position, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsRecoverable returns whether `err` only signals that more bytes are required
func IsRecoverable(err error) bool {
	var boundary *BoundaryExceeded
	return errors.As(err, &boundary)
}
