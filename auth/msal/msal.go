// Package msal builds *http.Client values that authenticate against PIMS
// with a Microsoft Entra bearer token, acquired through the client
// credentials flow with a certificate.
//
// Two situations exist for PIMS authentication: a user running a script
// interactively (on-behalf-of flow) and a stand-alone service authenticating
// as itself. Like the services this package was written for, only the second
// is implemented: the caller registers an application in the tenant, uploads
// the public half of a key pair, and proves its identity with the private
// half.
package msal

import (
	"context"
	"crypto"
	"crypto/sha1"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/confidential"
	"golang.org/x/crypto/pkcs12"
)

// AuthorityHost is where tenants hand out tokens.
const AuthorityHost = "https://login.microsoftonline.com"

// ErrNoAccessToken means the tenant refused to hand out a token for the
// application/API combination.
var ErrNoAccessToken = errors.New("failed to obtain access token")

// KeyPair is the certificate plus private key an application authenticates
// with. Azure documentation calls this a "certificate"; in practice no
// certificate metadata is used, the auth just needs the key pair.
type KeyPair struct {
	certs []*x509.Certificate
	key   crypto.PrivateKey
}

// LoadPEM parses a PEM block holding a certificate and its private key.
// password decrypts an encrypted key and may be empty.
func LoadPEM(data []byte, password string) (*KeyPair, error) {
	certs, key, err := confidential.CertFromPEM(data, password)
	if err != nil {
		return nil, fmt.Errorf("parsing PEM key pair: %w", err)
	}
	return &KeyPair{certs: certs, key: key}, nil
}

// LoadPKCS12 parses a .pfx/.p12 archive, the format Azure portal exports.
func LoadPKCS12(data []byte, password string) (*KeyPair, error) {
	key, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, fmt.Errorf("parsing PKCS#12 key pair: %w", err)
	}
	return &KeyPair{certs: []*x509.Certificate{cert}, key: key}, nil
}

// Thumbprint returns the SHA-1 fingerprint of the public certificate, the
// value Azure shows next to an uploaded certificate.
func (kp *KeyPair) Thumbprint() string {
	sum := sha1.Sum(kp.certs[0].Raw)
	return hex.EncodeToString(sum[:])
}

// Application is a registered application in the Microsoft auth world,
// with the key pair proving it is who it says it is.
type Application struct {
	ClientID    string
	Name        string
	Certificate *KeyPair
}

// API is a web API that has Microsoft authentication, like PIMS itself.
type API struct {
	AppID   string
	Name    string
	BaseURL string
}

// NewAPI validates the API definition. A trailing slash in the base URL is
// rejected for the same reason pimsclient.NewServer rejects it.
func NewAPI(appID, name, baseURL string) (API, error) {
	if strings.HasSuffix(baseURL, "/") {
		return API{}, fmt.Errorf("trailing slash in base URL %q will cause misery later, please remove it", baseURL)
	}
	return API{AppID: appID, Name: name, BaseURL: baseURL}, nil
}

// Scope identifies this API as the thing access is requested to. The
// ".default" suffix requests the application's statically assigned
// permissions, i.e. log in as a service principal rather than on behalf of a
// user.
func (a API) Scope() string {
	return fmt.Sprintf("api://%s/.default", a.AppID)
}

// Tenant is the organization that can authorize access to APIs it owns.
type Tenant struct {
	ID   string
	Name string
}

// Authority is the token endpoint for this tenant.
func (t Tenant) Authority() string {
	return fmt.Sprintf("%s/%s", AuthorityHost, t.ID)
}

// AcquireToken asks the tenant for an access token allowing app to use api.
func (t Tenant) AcquireToken(ctx context.Context, app Application, api API) (string, error) {
	cred, err := confidential.NewCredFromCert(app.Certificate.certs, app.Certificate.key)
	if err != nil {
		return "", fmt.Errorf("building credential for %s: %w", app.Name, err)
	}
	client, err := confidential.New(t.Authority(), app.ClientID, cred)
	if err != nil {
		return "", fmt.Errorf("building confidential client for %s: %w", app.Name, err)
	}
	result, err := client.AcquireTokenByCredential(ctx, []string{api.Scope()})
	if err != nil {
		return "", fmt.Errorf("%w: %s requesting access to %s: %v", ErrNoAccessToken, app.Name, api.Name, err)
	}
	return result.AccessToken, nil
}

// NewClient acquires a token and returns an *http.Client that attaches it
// as a bearer token to every request. The returned client is what a
// pimsclient.Session expects.
//
// The token is acquired once; clients living longer than the token's
// lifetime should be rebuilt. PIMS batch jobs finish well within it.
func NewClient(ctx context.Context, tenant Tenant, app Application, api API) (*http.Client, error) {
	token, err := tenant.AcquireToken(ctx, app, api)
	if err != nil {
		return nil, err
	}
	return NewBearerClient(token), nil
}

// NewBearerClient wraps an already-acquired access token in an
// *http.Client.
func NewBearerClient(token string) *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &bearerTransport{
			token: token,
			next:  http.DefaultTransport,
		},
	}
}

type bearerTransport struct {
	token string
	next  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+t.token)
	return t.next.RoundTrip(req)
}
