package ntlm

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvUser, "z123456")
	t.Setenv(EnvPassword, "hunter2")

	creds, err := FromEnv("umcn")
	require.NoError(t, err)
	assert.Equal(t, "umcn", creds.Domain)
	assert.Equal(t, "z123456", creds.User)
	assert.Equal(t, "hunter2", creds.Password)
}

func TestFromEnv_Missing(t *testing.T) {
	t.Setenv(EnvUser, "")
	t.Setenv(EnvPassword, "")

	_, err := FromEnv("umcn")
	require.ErrorIs(t, err, ErrMissingCredentials)
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(Credentials{User: "x"})
	require.ErrorIs(t, err, ErrMissingCredentials)

	_, err = NewClient(Credentials{Password: "x"})
	require.ErrorIs(t, err, ErrMissingCredentials)
}

func TestCredentialsUsername(t *testing.T) {
	assert.Equal(t, `umcn\z123`, Credentials{Domain: "umcn", User: "z123"}.username())
	assert.Equal(t, "z123", Credentials{User: "z123"}.username())
}

func TestCredentialTransport_AttachesDomainQualifiedCreds(t *testing.T) {
	// The negotiator reads credentials from the Authorization header. It
	// probes anonymously first; when the server challenges with Basic
	// instead of NTLM it falls back to sending them as basic auth, which
	// lets the test observe the exact login name on the wire.
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			w.Header().Set("Www-Authenticate", `Basic realm="pims"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		got = auth
	}))
	defer srv.Close()

	client, err := NewClient(Credentials{Domain: "umcn", User: "z123", Password: "pw"})
	require.NoError(t, err)

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	require.True(t, strings.HasPrefix(got, "Basic "))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(got, "Basic "))
	require.NoError(t, err)
	assert.Equal(t, `umcn\z123:pw`, string(decoded))
}
