package cli

import (
	"context"
	"fmt"

	pimsclient "github.com/dmitrijs2005/pimsclient"
)

// Info prints what the server reported about the connected keyfile.
func (a *App) Info(ctx context.Context) error {
	info := a.keyfile.Info()
	fmt.Fprintf(a.out, "KeyFile #%d: %q - (%q)\n", info.ID, info.Name, info.Description)
	fmt.Fprintf(a.out, "Template: %s\n", info.PseudonymTemplate)
	if info.Study != "" {
		fmt.Fprintf(a.out, "Study: %s\n", info.Study)
	}
	for _, m := range info.Members {
		fmt.Fprintf(a.out, "Member: %s\n", m.DisplayName)
	}
	return nil
}

// readIdentifiers prompts for a value type and a batch of values.
func (a *App) readIdentifiers() ([]pimsclient.Identifier, error) {
	vt, err := GetValueType(a.reader, a.out)
	if err != nil {
		return nil, err
	}
	values, err := GetLines(a.reader, fmt.Sprintf("Enter %s values", vt), a.out)
	if err != nil {
		return nil, err
	}
	identifiers := make([]pimsclient.Identifier, 0, len(values))
	for _, value := range values {
		identifiers = append(identifiers, pimsclient.Identifier{Value: value, Type: vt})
	}
	return identifiers, nil
}

// Pseudonymize prompts for identifiers and prints their pseudonyms.
func (a *App) Pseudonymize(ctx context.Context) error {
	identifiers, err := a.readIdentifiers()
	if err != nil {
		return err
	}

	keys, err := a.keyfile.Pseudonymize(ctx, identifiers)
	if err != nil {
		return err
	}
	for _, key := range keys {
		fmt.Fprintln(a.out, key.Describe())
	}
	return nil
}

// Reidentify prompts for pseudonyms and prints the identifiers behind them.
func (a *App) Reidentify(ctx context.Context) error {
	values, err := GetLines(a.reader, "Enter pseudonyms", a.out)
	if err != nil {
		return err
	}
	pseudonyms := make([]pimsclient.Pseudonym, 0, len(values))
	for _, value := range values {
		pseudonyms = append(pseudonyms, pimsclient.Pseudonym{Value: value})
	}

	keys, err := a.keyfile.Reidentify(ctx, pseudonyms)
	if err != nil {
		return err
	}
	for _, key := range keys {
		fmt.Fprintf(a.out, "%s <- %s (%s)\n", key.Identifier.Value, key.Pseudonym.Value, key.ValueType())
	}
	if len(keys) < len(pseudonyms) {
		fmt.Fprintf(a.out, "%d pseudonyms were not found\n", len(pseudonyms)-len(keys))
	}
	return nil
}

// Exists prompts for identifiers and reports which ones the keyfile knows.
func (a *App) Exists(ctx context.Context) error {
	identifiers, err := a.readIdentifiers()
	if err != nil {
		return err
	}

	found, err := a.keyfile.Exists(ctx, identifiers, nil)
	if err != nil {
		return err
	}
	for _, id := range identifiers {
		fmt.Fprintf(a.out, "%s: %t\n", id.Value, found[id.Value])
	}
	return nil
}

// Delete prompts for identifiers and removes them after confirmation.
func (a *App) Delete(ctx context.Context) error {
	identifiers, err := a.readIdentifiers()
	if err != nil {
		return err
	}
	if len(identifiers) == 0 {
		return nil
	}

	prompt := fmt.Sprintf("Delete %d identities and their pseudonyms? This cannot be undone. Type 'yes' to proceed", len(identifiers))
	answer, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return err
	}
	if answer != "yes" {
		fmt.Fprintln(a.out, "Aborted")
		return nil
	}

	if err := a.keyfile.Delete(ctx, identifiers); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %d identities\n", len(identifiers))
	return nil
}
