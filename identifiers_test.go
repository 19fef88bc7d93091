package pimsclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedConstructors(t *testing.T) {
	tests := []struct {
		name string
		id   Identifier
		want ValueType
	}{
		{"patient", PatientID("1234"), ValueTypePatientID},
		{"study", StudyInstanceUID("1.2.3"), ValueTypeStudyInstanceUID},
		{"series", SeriesInstanceUID("1.2.3.4"), ValueTypeSeriesInstanceUID},
		{"sop", SOPInstanceUID("1.2.3.4.5"), ValueTypeSOPInstanceUID},
		{"accession", AccessionNumber("A-7"), ValueTypeAccessionNumber},
		{"salt", Salt("s"), ValueTypeSalt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.id.Type)
			assert.True(t, tt.id.Type.Known())
		})
	}
}

func TestValueTypeKnown(t *testing.T) {
	assert.True(t, ValueTypePatientID.Known())
	assert.False(t, ValueType("EyeColor").Known())
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "PatientID: 1234", PatientID("1234").String())
	assert.Equal(t, "PseudoPatientID: Patient1", PseudoPatientID("Patient1").String())

	key := Key{Identifier: PatientID("1234"), Pseudonym: PseudoPatientID("Patient1")}
	assert.Equal(t, "Key <PatientID>: Patient1", key.String())
	assert.Equal(t, "1234 -> Patient1", key.Describe())
	assert.Equal(t, ValueTypePatientID, key.ValueType())
}

func TestNewTypedKey(t *testing.T) {
	key, err := newTypedKey("1234", "PatientID", "Patient1")
	require.NoError(t, err)
	assert.Equal(t, PatientID("1234"), key.Identifier)
	assert.Equal(t, PseudoPatientID("Patient1"), key.Pseudonym)
}

func TestNewTypedKey_UnknownValueType(t *testing.T) {
	_, err := newTypedKey("1234", "EyeColor", "p")

	var typedErr *TypedKeyError
	require.ErrorAs(t, err, &typedErr)
	assert.Equal(t, "EyeColor", typedErr.ValueType)
}
