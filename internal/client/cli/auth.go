package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/pimsclient/auth/msal"
	"github.com/dmitrijs2005/pimsclient/auth/ntlm"
	"github.com/dmitrijs2005/pimsclient/internal/client/config"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// buildHTTPClient turns the configured auth method into an authenticated
// *http.Client ready for a pimsclient.Session.
func buildHTTPClient(ctx context.Context, cfg *config.Config, reader *bufio.Reader) (*http.Client, error) {
	switch cfg.AuthMethod {
	case config.AuthNTLM:
		return ntlmClient(cfg, reader)
	case config.AuthMSAL:
		return msalClient(ctx, cfg, reader)
	default:
		return nil, fmt.Errorf("unknown auth method %q", cfg.AuthMethod)
	}
}

// ntlmClient takes credentials from the environment when set and prompts for
// them otherwise.
func ntlmClient(cfg *config.Config, reader *bufio.Reader) (*http.Client, error) {
	creds, err := ntlm.FromEnv(cfg.Domain)
	if errors.Is(err, ntlm.ErrMissingCredentials) {
		creds.Domain = cfg.Domain
		creds.User, err = getSimpleText(reader, "Enter username", os.Stdout)
		if err != nil {
			return nil, err
		}
		password, err := getPassword(os.Stdout)
		if err != nil {
			return nil, err
		}
		creds.Password = string(password)
	} else if err != nil {
		return nil, err
	}

	return ntlm.NewClient(creds, ntlm.WithTimeout(cfg.Timeout))
}

// msalClient authenticates as a service principal with the configured
// certificate. PKCS#12 archives are assumed passphrase-protected, the way
// Azure portal exports them, and trigger a prompt; PEM files are assumed
// plain.
func msalClient(ctx context.Context, cfg *config.Config, reader *bufio.Reader) (*http.Client, error) {
	data, err := os.ReadFile(cfg.MSALCertificateFile)
	if err != nil {
		return nil, fmt.Errorf("reading certificate: %w", err)
	}

	var keyPair *msal.KeyPair
	switch filepath.Ext(cfg.MSALCertificateFile) {
	case ".pfx", ".p12":
		password, err := getPassword(os.Stdout)
		if err != nil {
			return nil, err
		}
		keyPair, err = msal.LoadPKCS12(data, string(password))
		if err != nil {
			return nil, err
		}
	default:
		keyPair, err = msal.LoadPEM(data, "")
		if err != nil {
			return nil, err
		}
	}

	tenant := msal.Tenant{ID: cfg.MSALTenantID}
	app := msal.Application{
		ClientID:    cfg.MSALClientID,
		Name:        "pims-cli",
		Certificate: keyPair,
	}
	api, err := msal.NewAPI(cfg.MSALAPIAppID, "PIMS", cfg.ServerURL)
	if err != nil {
		return nil, err
	}

	return msal.NewClient(ctx, tenant, app, api)
}
