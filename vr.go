package dcmstream

/*
===============================================================================
    Value Representation
===============================================================================
*/

// VR is a two letter Value Representation code.
// See ``6.2 Value Representation (VR)`` for more information
type VR string

// Recognised VRs.
const (
	AE VR = "AE"
	AS VR = "AS"
	AT VR = "AT"
	CS VR = "CS"
	DA VR = "DA"
	DS VR = "DS"
	DT VR = "DT"
	FD VR = "FD"
	FL VR = "FL"
	IS VR = "IS"
	LO VR = "LO"
	LT VR = "LT"
	OB VR = "OB"
	OD VR = "OD"
	OF VR = "OF"
	OL VR = "OL"
	OV VR = "OV"
	OW VR = "OW"
	PN VR = "PN"
	SH VR = "SH"
	SL VR = "SL"
	SQ VR = "SQ"
	SS VR = "SS"
	ST VR = "ST"
	SV VR = "SV"
	TM VR = "TM"
	UC VR = "UC"
	UI VR = "UI"
	UL VR = "UL"
	UN VR = "UN"
	UR VR = "UR"
	US VR = "US"
	UT VR = "UT"
	UV VR = "UV"
)

// RecognisedVRs lists all recognised VRs.
var RecognisedVRs = []VR{
	AE, AS, AT, CS, DA, DS, DT, FD, FL, IS, LO, LT, OB, OD, OF, OL, OV,
	OW, PN, SH, SL, SQ, SS, ST, SV, TM, UC, UI, UL, UN, UR, US, UT, UV,
}

var recognisedVRSet = func() map[VR]struct{} {
	set := make(map[VR]struct{}, len(RecognisedVRs))
	for _, vr := range RecognisedVRs {
		set[vr] = struct{}{}
	}
	return set
}()

// IsRecognised returns whether `vr` is one of `RecognisedVRs`
func (vr VR) IsRecognised() bool {
	_, ok := recognisedVRSet[vr]
	return ok
}

// IsExtended returns whether, in explicit VR encodings, the VR is followed by
// two reserved bytes and a 32-bit length rather than a 16-bit length.
func (vr VR) IsExtended() bool {
	switch vr {
	case OB, OD, OF, OL, OV, OW, SQ, SV, UC, UR, UT, UN, UV:
		return true
	default:
		return false
	}
}

// IsCharacterString returns whether the VR is of character string type
func (vr VR) IsCharacterString() bool {
	switch vr {
	case AE, AS, CS, DA, DS, DT, IS, LO, LT, PN, SH, ST, TM, UC, UI, UR, UT:
		return true
	default:
		return false
	}
}

// IsBinary returns whether the VR holds opaque binary data
func (vr VR) IsBinary() bool {
	switch vr {
	case OB, OD, OF, OL, OV, OW, UN:
		return true
	default:
		return false
	}
}

// permitsMultiplicity returns whether a character string of this VR may hold
// several backslash-delimited values. LT, ST, UT and UR may contain literal backslashes.
func (vr VR) permitsMultiplicity() bool {
	switch vr {
	case LT, ST, UT, UR:
		return false
	default:
		return vr.IsCharacterString()
	}
}
