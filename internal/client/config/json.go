package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/pimsclient/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Timeout is an
// integer number of seconds; after parsing, values are copied into the
// runtime Config (which uses time.Duration). Absent fields stay at their
// earlier (default) values.
type JsonConfig struct {
	ServerURL           *string `json:"server_url"`
	KeyfileID           *int64  `json:"keyfile_id"`
	AuthMethod          *string `json:"auth_method"`
	Domain              *string `json:"domain"`
	Timeout             *int    `json:"timeout"`
	MSALClientID        *string `json:"msal_client_id"`
	MSALTenantID        *string `json:"msal_tenant_id"`
	MSALAPIAppID        *string `json:"msal_api_app_id"`
	MSALCertificateFile *string `json:"msal_certificate_file"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Behavior:
//   - Reads and unmarshals the JSON into JsonConfig.
//   - Copies fields present in the JSON into the provided Config.
//   - Panics on read or unmarshal errors (caller should recover if desired).
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config) {
	// Resolve file path from flags.
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerURL != nil {
		cfg.ServerURL = *jc.ServerURL
	}
	if jc.KeyfileID != nil {
		cfg.KeyfileID = *jc.KeyfileID
	}
	if jc.AuthMethod != nil {
		cfg.AuthMethod = *jc.AuthMethod
	}
	if jc.Domain != nil {
		cfg.Domain = *jc.Domain
	}
	if jc.Timeout != nil {
		cfg.Timeout = time.Duration(*jc.Timeout) * time.Second
	}
	if jc.MSALClientID != nil {
		cfg.MSALClientID = *jc.MSALClientID
	}
	if jc.MSALTenantID != nil {
		cfg.MSALTenantID = *jc.MSALTenantID
	}
	if jc.MSALAPIAppID != nil {
		cfg.MSALAPIAppID = *jc.MSALAPIAppID
	}
	if jc.MSALCertificateFile != nil {
		cfg.MSALCertificateFile = *jc.MSALCertificateFile
	}
}
