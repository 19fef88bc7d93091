package pimsclient_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pimsclient "github.com/dmitrijs2005/pimsclient"
	"github.com/dmitrijs2005/pimsclient/pimstest"
)

// newTestKeyFile spins up the in-memory server with one keyfile and connects
// a KeyFile to it.
func newTestKeyFile(t *testing.T, kf pimstest.Keyfile, opts ...pimstest.Option) (*pimsclient.KeyFile, *pimstest.Server) {
	t.Helper()
	srv := pimstest.NewServer(opts...)
	t.Cleanup(srv.Close)
	srv.Add(kf)

	server, err := pimsclient.NewServer(srv.URL())
	require.NoError(t, err)
	session := pimsclient.NewSession(server, nil)

	keyfile, err := pimsclient.InitFromID(context.Background(), session, kf.ID)
	require.NoError(t, err)
	return keyfile, srv
}

func TestInitFromID(t *testing.T) {
	keyfile, _ := newTestKeyFile(t, pimstest.Keyfile{
		ID:          49,
		Name:        "test",
		Description: "a table",
	})

	assert.EqualValues(t, 49, keyfile.ID())
	assert.Equal(t, "test", keyfile.Name())
	assert.Equal(t, "a table", keyfile.Description())
	assert.Equal(t, "Guid", keyfile.PseudonymTemplate())
	assert.Equal(t, `KeyFile #49: "test" - ("a table")`, keyfile.String())
}

func TestInitFromID_UnknownKeyfile(t *testing.T) {
	srv := pimstest.NewServer()
	defer srv.Close()

	server, err := pimsclient.NewServer(srv.URL())
	require.NoError(t, err)
	session := pimsclient.NewSession(server, nil)

	_, err = pimsclient.InitFromID(context.Background(), session, 999)

	var srvErr *pimsclient.ServerError
	require.ErrorAs(t, err, &srvErr)
	assert.Equal(t, 404, srvErr.StatusCode)
}

func TestPseudonymize_PresetKey(t *testing.T) {
	keyfile, srv := newTestKeyFile(t, pimstest.Keyfile{ID: 1})
	srv.SetKey(1, "PatientID", "1234", "Patient1")

	keys, err := keyfile.Pseudonymize(context.Background(),
		[]pimsclient.Identifier{pimsclient.PatientID("1234")})
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, pimsclient.PatientID("1234"), keys[0].Identifier)
	assert.Equal(t, pimsclient.PseudoPatientID("Patient1"), keys[0].Pseudonym)
}

func TestPseudonymize_PreservesOrderAcrossTypes(t *testing.T) {
	keyfile, srv := newTestKeyFile(t, pimstest.Keyfile{ID: 1})
	srv.SetKey(1, "PatientID", "p1", "Patient1")
	srv.SetKey(1, "StudyInstanceUID", "1.2.3", "2.25.1")
	srv.SetKey(1, "PatientID", "p2", "Patient2")
	srv.SetKey(1, "AccessionNumber", "A-7", "Case_1")

	input := []pimsclient.Identifier{
		pimsclient.PatientID("p1"),
		pimsclient.StudyInstanceUID("1.2.3"),
		pimsclient.PatientID("p2"),
		pimsclient.AccessionNumber("A-7"),
	}
	keys, err := keyfile.Pseudonymize(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, keys, len(input))

	for i, key := range keys {
		assert.Equal(t, input[i], key.Identifier, "position %d", i)
		assert.Equal(t, input[i].Type, key.Pseudonym.Type, "position %d", i)
	}
	assert.Equal(t, "Patient1", keys[0].Pseudonym.Value)
	assert.Equal(t, "2.25.1", keys[1].Pseudonym.Value)
	assert.Equal(t, "Patient2", keys[2].Pseudonym.Value)
	assert.Equal(t, "Case_1", keys[3].Pseudonym.Value)
}

func TestPseudonymize_BatchesByValueType(t *testing.T) {
	keyfile, srv := newTestKeyFile(t, pimstest.Keyfile{ID: 1})
	before := srv.RequestCount()

	input := []pimsclient.Identifier{
		pimsclient.PatientID("a"),
		pimsclient.PatientID("b"),
		pimsclient.StudyInstanceUID("1.2"),
		pimsclient.PatientID("c"),
	}
	_, err := keyfile.Pseudonymize(context.Background(), input)
	require.NoError(t, err)

	// Two distinct value types, so exactly two deidentify calls.
	assert.Equal(t, 2, srv.RequestCount()-before)
}

func TestPseudonymize_EmptyInputSkipsServer(t *testing.T) {
	keyfile, srv := newTestKeyFile(t, pimstest.Keyfile{ID: 1})
	before := srv.RequestCount()

	keys, err := keyfile.Pseudonymize(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.Equal(t, before, srv.RequestCount())
}

func TestPseudonymize_IsStable(t *testing.T) {
	keyfile, _ := newTestKeyFile(t, pimstest.Keyfile{ID: 1})
	input := []pimsclient.Identifier{pimsclient.PatientID("1234")}

	first, err := keyfile.Pseudonymize(context.Background(), input)
	require.NoError(t, err)
	second, err := keyfile.Pseudonymize(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRoundTrip(t *testing.T) {
	keyfile, _ := newTestKeyFile(t, pimstest.Keyfile{ID: 1})

	input := []pimsclient.Identifier{
		pimsclient.PatientID("1234"),
		pimsclient.StudyInstanceUID("1.2.840.1"),
	}
	keys, err := keyfile.Pseudonymize(context.Background(), input)
	require.NoError(t, err)

	pseudonyms := make([]pimsclient.Pseudonym, 0, len(keys))
	for _, key := range keys {
		pseudonyms = append(pseudonyms, key.Pseudonym)
	}
	back, err := keyfile.Reidentify(context.Background(), pseudonyms)
	require.NoError(t, err)
	require.Len(t, back, len(input))

	recovered := make(map[string]pimsclient.Identifier)
	for _, key := range back {
		recovered[key.Pseudonym.Value] = key.Identifier
	}
	for _, key := range keys {
		assert.Equal(t, key.Identifier, recovered[key.Pseudonym.Value])
	}
}

func TestReidentify_OmitsUnknownPseudonyms(t *testing.T) {
	keyfile, srv := newTestKeyFile(t, pimstest.Keyfile{ID: 1})
	srv.SetKey(1, "PatientID", "1234", "Patient1")

	keys, err := keyfile.Reidentify(context.Background(), []pimsclient.Pseudonym{
		pimsclient.PseudoPatientID("Patient1"),
		pimsclient.PseudoPatientID("nobody"),
	})
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, pimsclient.PatientID("1234"), keys[0].Identifier)
}

func TestReidentify_EmptyInputSkipsServer(t *testing.T) {
	keyfile, srv := newTestKeyFile(t, pimstest.Keyfile{ID: 1})
	before := srv.RequestCount()

	keys, err := keyfile.Reidentify(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.Equal(t, before, srv.RequestCount())
}

func TestExists(t *testing.T) {
	keyfile, srv := newTestKeyFile(t, pimstest.Keyfile{ID: 1})
	srv.SetKey(1, "PatientID", "1234", "Patient1")

	result, err := keyfile.Exists(context.Background(),
		[]pimsclient.Identifier{pimsclient.PatientID("1234"), pimsclient.PatientID("ghost")},
		[]pimsclient.Pseudonym{pimsclient.PseudoPatientID("Patient1"), pimsclient.PseudoPatientID("nobody")})
	require.NoError(t, err)

	assert.Equal(t, map[string]bool{
		"1234":     true,
		"ghost":    false,
		"Patient1": true,
		"nobody":   false,
	}, result)
}

func TestExists_OnlyIdentifiersMakesOneRequest(t *testing.T) {
	keyfile, srv := newTestKeyFile(t, pimstest.Keyfile{ID: 1})
	before := srv.RequestCount()

	_, err := keyfile.Exists(context.Background(),
		[]pimsclient.Identifier{pimsclient.PatientID("1234")}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, srv.RequestCount()-before)
}

func TestDelete(t *testing.T) {
	keyfile, srv := newTestKeyFile(t, pimstest.Keyfile{ID: 1})
	srv.SetKey(1, "PatientID", "1234", "Patient1")

	err := keyfile.Delete(context.Background(),
		[]pimsclient.Identifier{pimsclient.PatientID("1234")})
	require.NoError(t, err)

	result, err := keyfile.Exists(context.Background(),
		[]pimsclient.Identifier{pimsclient.PatientID("1234")}, nil)
	require.NoError(t, err)
	assert.False(t, result["1234"])
}

func TestDelete_EmptyInputSkipsServer(t *testing.T) {
	keyfile, srv := newTestKeyFile(t, pimstest.Keyfile{ID: 1})
	before := srv.RequestCount()

	require.NoError(t, keyfile.Delete(context.Background(), nil))
	assert.Equal(t, before, srv.RequestCount())
}

// realistic template string from a production keyfile
const fullTemplate = "Guid|:PatientID|#Patient|S6|:StudyInstanceUID|2.25.#|S12|:SeriesInstanceUID|2.25.#|S12|:SOPInstanceUID|2.25.#|S12|:AccessionNumber|#Case_|S8"

func TestAssertPseudonymTemplates(t *testing.T) {
	keyfile, _ := newTestKeyFile(t, pimstest.Keyfile{ID: 1, PseudonymTemplate: fullTemplate})

	err := keyfile.AssertPseudonymTemplates(
		[]pimsclient.ValueType{
			pimsclient.ValueTypePatientID,
			pimsclient.ValueTypeStudyInstanceUID,
		},
		[]pimsclient.PseudonymTemplate{
			{Template: "#Patient|S6", Type: pimsclient.ValueTypePatientID},
		})
	require.NoError(t, err)
}

func TestAssertPseudonymTemplates_MissingType(t *testing.T) {
	keyfile, _ := newTestKeyFile(t, pimstest.Keyfile{ID: 1, PseudonymTemplate: "Guid|:PatientID|#Patient|S6"})

	err := keyfile.AssertPseudonymTemplates(
		[]pimsclient.ValueType{pimsclient.ValueTypeStudyInstanceUID}, nil)

	var tmplErr *pimsclient.TemplateError
	require.ErrorAs(t, err, &tmplErr)
	assert.Equal(t, "StudyInstanceUID", tmplErr.Missing)
}

func TestAssertPseudonymTemplates_WrongExactTemplate(t *testing.T) {
	keyfile, _ := newTestKeyFile(t, pimstest.Keyfile{ID: 1, PseudonymTemplate: fullTemplate})

	err := keyfile.AssertPseudonymTemplates(nil,
		[]pimsclient.PseudonymTemplate{
			{Template: "#Subject|S6", Type: pimsclient.ValueTypePatientID},
		})

	var tmplErr *pimsclient.TemplateError
	require.ErrorAs(t, err, &tmplErr)
	assert.Equal(t, ":PatientID|#Subject|S6", tmplErr.Missing)
}

func TestPseudonymTemplate_PIMSString(t *testing.T) {
	tmpl := pimsclient.PseudonymTemplate{Template: "#Patient|S6", Type: pimsclient.ValueTypePatientID}
	assert.Equal(t, ":PatientID|#Patient|S6", tmpl.PIMSString())
}
