package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Auth method names accepted in AuthMethod.
const (
	AuthNTLM = "ntlm"
	AuthMSAL = "msal"
)

// Config holds runtime settings for the PIMS CLI.
//
// Fields:
//   - ServerURL: base URL of the PIMS API, without trailing slash.
//   - KeyfileID: the pseudonym table to connect to.
//   - AuthMethod: "ntlm" (interactive, AD account) or "msal" (service
//     principal with certificate).
//   - Domain: AD domain prepended to the username for NTLM.
//   - Timeout: overall per-request timeout.
//
// The MSAL* fields are only consulted when AuthMethod is "msal".
type Config struct {
	ServerURL  string
	KeyfileID  int64
	AuthMethod string
	Domain     string
	Timeout    time.Duration

	MSALClientID        string
	MSALTenantID        string
	MSALAPIAppID        string
	MSALCertificateFile string
}

// LoadDefaults populates c with sensible defaults. The server URL and
// keyfile ID have no usable defaults and must come from JSON or flags.
func (c *Config) LoadDefaults() {
	c.AuthMethod = AuthNTLM
	c.Timeout = 30 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

// Validate rejects configurations the CLI cannot start with.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return errors.New("server URL is required")
	}
	if strings.HasSuffix(c.ServerURL, "/") {
		return fmt.Errorf("trailing slash in server URL %q, please remove it", c.ServerURL)
	}
	if c.KeyfileID <= 0 {
		return errors.New("a positive keyfile ID is required")
	}
	switch c.AuthMethod {
	case AuthNTLM:
	case AuthMSAL:
		if c.MSALClientID == "" || c.MSALTenantID == "" || c.MSALAPIAppID == "" || c.MSALCertificateFile == "" {
			return errors.New("msal auth needs msal_client_id, msal_tenant_id, msal_api_app_id and msal_certificate_file")
		}
	default:
		return fmt.Errorf("unknown auth method %q, use %q or %q", c.AuthMethod, AuthNTLM, AuthMSAL)
	}
	return nil
}
