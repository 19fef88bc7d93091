// Package ntlm builds *http.Client values that authenticate against PIMS
// with HTTP NTLM negotiation, for deployments living behind a Microsoft AD
// domain.
package ntlm

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Azure/go-ntlmssp"
)

// Environment keys for the legacy user/password configuration.
const (
	EnvUser     = "PIMS_CLIENT_USER"
	EnvPassword = "PIMS_CLIENT_PASSWORD"
)

// ErrMissingCredentials means no username or password was supplied and none
// was found in the environment.
var ErrMissingCredentials = errors.New("username and password not found, these are required")

// Credentials for an NTLM handshake. Domain may be empty for accounts that
// do not need domain qualification.
type Credentials struct {
	Domain   string
	User     string
	Password string
}

// username renders the domain-qualified login name.
func (c Credentials) username() string {
	if c.Domain == "" {
		return c.User
	}
	return c.Domain + `\` + c.User
}

// FromEnv reads credentials from PIMS_CLIENT_USER and PIMS_CLIENT_PASSWORD.
func FromEnv(domain string) (Credentials, error) {
	user := os.Getenv(EnvUser)
	password := os.Getenv(EnvPassword)
	if user == "" || password == "" {
		return Credentials{}, ErrMissingCredentials
	}
	return Credentials{Domain: domain, User: user, Password: password}, nil
}

// Option customizes the constructed client.
type Option func(*options)

type options struct {
	base    http.RoundTripper
	timeout time.Duration
}

// WithBaseTransport swaps the transport beneath the NTLM negotiator, e.g.
// for custom TLS configuration.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

// WithTimeout sets the overall per-request timeout. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// NewClient returns an *http.Client that performs the NTLM negotiation on
// every request using creds. The returned client is what a
// pimsclient.Session expects.
func NewClient(creds Credentials, opts ...Option) (*http.Client, error) {
	if creds.User == "" || creds.Password == "" {
		return nil, ErrMissingCredentials
	}
	o := options{base: http.DefaultTransport, timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	return &http.Client{
		Timeout: o.timeout,
		Transport: &credentialTransport{
			creds: creds,
			next:  ntlmssp.Negotiator{RoundTripper: o.base},
		},
	}, nil
}

// credentialTransport attaches the credentials to each outgoing request in
// the basic-auth form the NTLM negotiator reads them from.
type credentialTransport struct {
	creds Credentials
	next  http.RoundTripper
}

func (t *credentialTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.creds.username(), t.creds.Password)
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("ntlm round trip: %w", err)
	}
	return resp, nil
}
