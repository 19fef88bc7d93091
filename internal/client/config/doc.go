// Package config loads runtime configuration for the PIMS CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the PIMS server, without trailing slash
//	-k int      keyfile ID to connect to
//	-m string   auth method, "ntlm" or "msal"
//	-d string   AD domain for NTLM authentication
//	-t int      request timeout (seconds)
//
// # JSON schema
//
// Timeouts are given in whole seconds. The MSAL settings have no flag
// equivalents and can only come from JSON:
//
//	{
//	  "server_url": "https://pims.example.org/api",
//	  "keyfile_id": 49,
//	  "auth_method": "msal",
//	  "timeout": 30,
//	  "msal_client_id": "...",
//	  "msal_tenant_id": "...",
//	  "msal_api_app_id": "...",
//	  "msal_certificate_file": "pims.pem"
//	}
//
// Primary API
//
//   - type Config                     — all settings the CLI runs with
//   - func LoadConfig() *Config       — builds Config by applying defaults, JSON, then flags
//   - func (*Config) LoadDefaults()   — sets sensible defaults
//   - func (*Config) Validate() error — rejects incomplete configurations
//
// Note: This package does not read the NTLM credential environment
// variables; those belong to the auth/ntlm package.
package config
