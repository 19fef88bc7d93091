package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/pimsclient/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the PIMS server (default from Config)
//	-k int      keyfile ID (default from Config)
//	-m string   auth method, "ntlm" or "msal" (default from Config)
//	-d string   AD domain for NTLM (default from Config)
//	-t int      request timeout in seconds (default from Config)
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-k", "-m", "-d", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the PIMS server")
	fs.Int64Var(&cfg.KeyfileID, "k", cfg.KeyfileID, "keyfile ID")
	fs.StringVar(&cfg.AuthMethod, "m", cfg.AuthMethod, "auth method (ntlm or msal)")
	fs.StringVar(&cfg.Domain, "d", cfg.Domain, "AD domain for NTLM authentication")
	timeout := fs.Int("t", int(cfg.Timeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.Timeout = time.Duration(*timeout) * time.Second
}
