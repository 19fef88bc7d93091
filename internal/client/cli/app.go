package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	pimsclient "github.com/dmitrijs2005/pimsclient"
	"github.com/dmitrijs2005/pimsclient/internal/client/config"
	"github.com/dmitrijs2005/pimsclient/internal/logging"
)

// keyfileAPI is the slice of *pimsclient.KeyFile the commands use. Tests
// substitute a fake.
type keyfileAPI interface {
	Info() pimsclient.KeyfileInfo
	Pseudonymize(ctx context.Context, identifiers []pimsclient.Identifier) ([]pimsclient.Key, error)
	Reidentify(ctx context.Context, pseudonyms []pimsclient.Pseudonym) ([]pimsclient.Key, error)
	Exists(ctx context.Context, identifiers []pimsclient.Identifier, pseudonyms []pimsclient.Pseudonym) (map[string]bool, error)
	Delete(ctx context.Context, identifiers []pimsclient.Identifier) error
}

type App struct {
	config  *config.Config
	keyfile keyfileAPI
	reader  *bufio.Reader
	out     io.Writer
}

// NewApp authenticates against the configured server and connects to the
// configured keyfile. Interactive prompts (NTLM password, certificate
// passphrase) happen here, before the REPL starts.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)

	httpClient, err := buildHTTPClient(ctx, cfg, reader)
	if err != nil {
		return nil, err
	}

	server, err := pimsclient.NewServer(cfg.ServerURL)
	if err != nil {
		return nil, err
	}
	log := logging.NewSlog(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	session := pimsclient.NewSession(server, httpClient, pimsclient.WithLogger(log))

	keyfile, err := pimsclient.InitFromID(ctx, session, cfg.KeyfileID)
	if err != nil {
		return nil, fmt.Errorf("connecting to keyfile %d: %w", cfg.KeyfileID, err)
	}

	return &App{config: cfg, keyfile: keyfile, reader: reader, out: os.Stdout}, nil
}

func (a *App) getStatus() string {
	info := a.keyfile.Info()
	return fmt.Sprintf("(#%d %s)", info.ID, info.Name)
}

func (a *App) Run(ctx context.Context) {
	printlnFn("Welcome to the PIMS CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}
