package pimsclient

import "fmt"

// ValueType says what kind of value an identifier or pseudonym holds. PIMS
// treats kinds differently (a PatientID gets a different generation pattern
// than a SeriesInstanceUID), so the kind travels with every value. When a
// DICOM tag is pseudonymized the DICOM keyword is used as the value type.
type ValueType string

const (
	ValueTypePatientID         ValueType = "PatientID"
	ValueTypeStudyInstanceUID  ValueType = "StudyInstanceUID"
	ValueTypeSeriesInstanceUID ValueType = "SeriesInstanceUID"
	ValueTypeSOPInstanceUID    ValueType = "SOPInstanceUID"
	ValueTypeAccessionNumber   ValueType = "AccessionNumber"
	ValueTypeSalt              ValueType = "Salt"
)

// ValueTypes lists every value type known to this client.
var ValueTypes = []ValueType{
	ValueTypePatientID,
	ValueTypeStudyInstanceUID,
	ValueTypeSeriesInstanceUID,
	ValueTypeSOPInstanceUID,
	ValueTypeAccessionNumber,
	ValueTypeSalt,
}

// Known reports whether v is one of the value types this client understands.
func (v ValueType) Known() bool {
	for _, known := range ValueTypes {
		if v == known {
			return true
		}
	}
	return false
}

// Identifier is a real value that should be pseudonymized, tagged with its
// kind. The value is opaque to the client; format validity is the server's
// business. On the wire the kind is carried in the identity source field.
type Identifier struct {
	Value string
	Type  ValueType
}

func (i Identifier) String() string {
	return fmt.Sprintf("%s: %s", i.Type, i.Value)
}

// Typed constructors. Using these instead of struct literals keeps a
// StudyInstanceUID value from ending up in a PatientID request.

func PatientID(value string) Identifier {
	return Identifier{Value: value, Type: ValueTypePatientID}
}

func StudyInstanceUID(value string) Identifier {
	return Identifier{Value: value, Type: ValueTypeStudyInstanceUID}
}

func SeriesInstanceUID(value string) Identifier {
	return Identifier{Value: value, Type: ValueTypeSeriesInstanceUID}
}

// SOPInstanceUID designates a single slice in a DICOM file.
func SOPInstanceUID(value string) Identifier {
	return Identifier{Value: value, Type: ValueTypeSOPInstanceUID}
}

func AccessionNumber(value string) Identifier {
	return Identifier{Value: value, Type: ValueTypeAccessionNumber}
}

func Salt(value string) Identifier {
	return Identifier{Value: value, Type: ValueTypeSalt}
}

// Pseudonym is the generated stand-in for an identifier, like "Patient1" or
// "Case_23". Type is the value type of the identifier it replaces.
type Pseudonym struct {
	Value string
	Type  ValueType
}

func (p Pseudonym) String() string {
	return fmt.Sprintf("Pseudo%s: %s", p.Type, p.Value)
}

func PseudoPatientID(value string) Pseudonym {
	return Pseudonym{Value: value, Type: ValueTypePatientID}
}

func PseudoStudyInstanceUID(value string) Pseudonym {
	return Pseudonym{Value: value, Type: ValueTypeStudyInstanceUID}
}

func PseudoSeriesInstanceUID(value string) Pseudonym {
	return Pseudonym{Value: value, Type: ValueTypeSeriesInstanceUID}
}

func PseudoSOPInstanceUID(value string) Pseudonym {
	return Pseudonym{Value: value, Type: ValueTypeSOPInstanceUID}
}

func PseudoAccessionNumber(value string) Pseudonym {
	return Pseudonym{Value: value, Type: ValueTypeAccessionNumber}
}

func PseudoSalt(value string) Pseudonym {
	return Pseudonym{Value: value, Type: ValueTypeSalt}
}

// Key links an identifier with its pseudonym. Both sides share one value
// type. Keys are only ever built from server responses, never invented
// locally.
type Key struct {
	Identifier Identifier
	Pseudonym  Pseudonym
}

// ValueType returns the common value type of both sides of the key.
func (k Key) ValueType() ValueType {
	return k.Identifier.Type
}

func (k Key) String() string {
	return fmt.Sprintf("Key <%s>: %s", k.ValueType(), k.Pseudonym.Value)
}

// Describe renders the key like "original -> pseudonym".
func (k Key) Describe() string {
	return fmt.Sprintf("%s -> %s", k.Identifier.Value, k.Pseudonym.Value)
}

// newTypedKey builds a Key from raw wire strings. The identity source must
// name a known value type; anything else means the server speaks a schema
// this client does not.
func newTypedKey(identity, source, pseudonym string) (Key, error) {
	vt := ValueType(source)
	if !vt.Known() {
		return Key{}, &TypedKeyError{ValueType: source}
	}
	return Key{
		Identifier: Identifier{Value: identity, Type: vt},
		Pseudonym:  Pseudonym{Value: pseudonym, Type: vt},
	}, nil
}
