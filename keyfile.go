package pimsclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// KeyFile is an authenticated connection to one pseudonym table on a PIMS
// server. It is the main interface for working with PIMS: construct it once
// with InitFromID and use it for all pseudonymization in that keyfile.
//
// A KeyFile is immutable after construction and holds no local state besides
// the info fetched at init; it is safe for concurrent use if the session's
// underlying *http.Client is.
type KeyFile struct {
	session *Session
	info    KeyfileInfo
}

// InitFromID fetches the keyfile's info from the server and returns a ready
// KeyFile.
func InitFromID(ctx context.Context, session *Session, keyfileID int64) (*KeyFile, error) {
	var resp keyfileResponse
	if err := session.get(ctx, keyfilePath(keyfileID), &resp); err != nil {
		return nil, fmt.Errorf("getting keyfile %d: %w", keyfileID, err)
	}
	if err := resp.validate(); err != nil {
		return nil, err
	}
	return &KeyFile{session: session, info: resp.toInfo()}, nil
}

// Info returns what the server reported about this keyfile at init.
func (k *KeyFile) Info() KeyfileInfo { return k.info }

func (k *KeyFile) ID() int64 { return k.info.ID }

func (k *KeyFile) Name() string { return k.info.Name }

func (k *KeyFile) Description() string { return k.info.Description }

// PseudonymTemplate returns the server-side template string governing how
// new pseudonyms are generated, covering all value types at once.
func (k *KeyFile) PseudonymTemplate() string { return k.info.PseudonymTemplate }

func (k *KeyFile) String() string {
	return fmt.Sprintf("KeyFile #%d: %q - (%q)", k.info.ID, k.info.Name, k.info.Description)
}

// Pseudonymize asks the server for a pseudonym for each identifier. Known
// identifiers return their existing pseudonym; unknown ones get a fresh one
// generated and recorded server-side.
//
// The result has the same length and order as the input. The deidentify
// endpoint takes one identity source per call, so the input is batched by
// value type: one HTTP request per distinct type. An empty input returns an
// empty result without touching the server.
func (k *KeyFile) Pseudonymize(ctx context.Context, identifiers []Identifier) ([]Key, error) {
	if len(identifiers) == 0 {
		return []Key{}, nil
	}

	// One queue of pseudonyms per value type, filled batch by batch.
	queues := make(map[ValueType][]string)
	for _, vt := range valueTypeOrder(identifiers) {
		batch := make([]string, 0, len(identifiers))
		for _, id := range identifiers {
			if id.Type == vt {
				batch = append(batch, id.Value)
			}
		}
		pseudonyms, err := k.deidentify(ctx, vt, batch)
		if err != nil {
			return nil, err
		}
		if len(pseudonyms) != len(batch) {
			return nil, &ValidationError{Field: "results.values"}
		}
		queues[vt] = pseudonyms
	}

	// Reassemble in input order by draining each type's queue.
	keys := make([]Key, 0, len(identifiers))
	for _, id := range identifiers {
		queue := queues[id.Type]
		keys = append(keys, Key{
			Identifier: id,
			Pseudonym:  Pseudonym{Value: queue[0], Type: id.Type},
		})
		queues[id.Type] = queue[1:]
	}
	return keys, nil
}

// deidentify sends one batch of same-typed values and returns the pseudonym
// column from the reply.
func (k *KeyFile) deidentify(ctx context.Context, vt ValueType, values []string) ([]string, error) {
	query := url.Values{}
	query.Set("FileName", "DataEntry")
	query.Set("identity_source", string(vt))
	query.Set("CreateOutputfile", "true")
	query.Set("overwrite", "Overwrite")

	body := []deidentifyColumn{{
		Name:   "Column 1",
		Type:   []string{"Pseudonymize"},
		Action: "Pseudonymize",
		Values: values,
	}}

	var resp deidentifyResponse
	if err := k.session.post(ctx, deidentifyPath(k.info.ID), query, body, &resp); err != nil {
		return nil, fmt.Errorf("pseudonymizing %d %s values: %w", len(values), vt, err)
	}
	if err := resp.validate(); err != nil {
		return nil, err
	}
	return resp.pseudonyms()
}

// Reidentify looks up the original identifier for each pseudonym. Pseudonyms
// unknown to the server are omitted from the result, so it may be shorter
// than the input. If the server returns a pseudonym that was never asked
// for, the whole call fails with *IdentityNotFoundError rather than handing
// back someone else's identities. An empty input returns an empty result
// without touching the server.
func (k *KeyFile) Reidentify(ctx context.Context, pseudonyms []Pseudonym) ([]Key, error) {
	if len(pseudonyms) == 0 {
		return []Key{}, nil
	}

	requested := make(map[string]struct{}, len(pseudonyms))
	values := make([]string, 0, len(pseudonyms))
	for _, p := range pseudonyms {
		requested[p.Value] = struct{}{}
		values = append(values, p.Value)
	}

	var resp reidentifyResponse
	err := k.session.post(ctx, reidentifyPath(k.info.ID), nil, reidentifyRequest{Items: values}, &resp)
	if err != nil {
		return nil, fmt.Errorf("reidentifying %d pseudonyms: %w", len(pseudonyms), err)
	}
	if err := resp.validate(); err != nil {
		return nil, err
	}

	var unexpected []string
	keys := make([]Key, 0, len(resp.Pseudonyms.Items))
	for _, item := range resp.Pseudonyms.Items {
		if _, ok := requested[*item.Pseudonym]; !ok {
			unexpected = append(unexpected, *item.Pseudonym)
			continue
		}
		key, err := newTypedKey(*item.Value, *item.IdentitySource, *item.Pseudonym)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if len(unexpected) > 0 {
		return nil, &IdentityNotFoundError{Pseudonyms: unexpected}
	}
	return keys, nil
}

// Exists checks which of the given identifiers and pseudonyms are present in
// the keyfile. The result maps each value to whether the server knows it.
// Identifiers and pseudonyms live on different endpoints, so up to two
// requests are made; passing only one kind makes one.
func (k *KeyFile) Exists(ctx context.Context, identifiers []Identifier, pseudonyms []Pseudonym) (map[string]bool, error) {
	result := make(map[string]bool)

	if len(identifiers) > 0 {
		values := make([]string, 0, len(identifiers))
		for _, id := range identifiers {
			values = append(values, id.Value)
		}
		var found map[string]bool
		err := k.session.post(ctx, identityExistsPath(k.info.ID), nil, existsRequest{Items: values}, &found)
		if err != nil {
			return nil, fmt.Errorf("checking %d identities: %w", len(values), err)
		}
		for value, exists := range found {
			result[value] = exists
		}
	}

	if len(pseudonyms) > 0 {
		values := make([]string, 0, len(pseudonyms))
		for _, p := range pseudonyms {
			values = append(values, p.Value)
		}
		var found map[string]bool
		err := k.session.post(ctx, pseudonymExistsPath(k.info.ID), nil, existsRequest{Items: values}, &found)
		if err != nil {
			return nil, fmt.Errorf("checking %d pseudonyms: %w", len(values), err)
		}
		for value, exists := range found {
			result[value] = exists
		}
	}

	return result, nil
}

// Delete removes the given identifiers and their pseudonyms from the
// keyfile. An empty input is a no-op.
func (k *KeyFile) Delete(ctx context.Context, identifiers []Identifier) error {
	if len(identifiers) == 0 {
		return nil
	}
	values := make([]string, 0, len(identifiers))
	for _, id := range identifiers {
		values = append(values, id.Value)
	}
	err := k.session.post(ctx, identityDeletePath(k.info.ID), nil, deleteRequest{Items: values}, nil)
	if err != nil {
		return fmt.Errorf("deleting %d identities: %w", len(values), err)
	}
	return nil
}

// PseudonymTemplate is the generation template for a single value type. In
// PIMS the keyfile's template is one long string covering all value types
// separated by "|"; this client works with one type at a time because that
// matches how callers reason about their data.
type PseudonymTemplate struct {
	Template string
	Type     ValueType
}

// PIMSString renders the template the way it appears inside a keyfile's
// template string.
func (t PseudonymTemplate) PIMSString() string {
	return fmt.Sprintf(":%s|%s", t.Type, t.Template)
}

// AssertPseudonymTemplates verifies the keyfile's template covers what the
// caller needs, failing early with *TemplateError instead of letting a
// misconfigured keyfile generate invalid values later. A keyfile without a
// StudyInstanceUID template, for example, would hand out plain GUIDs, which
// are not valid DICOM UIDs.
//
// shouldHaveTemplate requires that some template is defined for each value
// type, whatever it is. shouldExist requires those exact templates verbatim.
func (k *KeyFile) AssertPseudonymTemplates(shouldHaveTemplate []ValueType, shouldExist []PseudonymTemplate) error {
	template := k.info.PseudonymTemplate
	for _, vt := range shouldHaveTemplate {
		if !strings.Contains(template, ":"+string(vt)) {
			return &TemplateError{Missing: string(vt), Template: template}
		}
	}
	for _, t := range shouldExist {
		if !strings.Contains(template, t.PIMSString()) {
			return &TemplateError{Missing: t.PIMSString(), Template: template}
		}
	}
	return nil
}

// valueTypeOrder returns the distinct value types of ids in first-seen
// order. Deterministic ordering keeps request patterns stable.
func valueTypeOrder(ids []Identifier) []ValueType {
	seen := make(map[ValueType]struct{})
	var order []ValueType
	for _, id := range ids {
		if _, ok := seen[id.Type]; !ok {
			seen[id.Type] = struct{}{}
			order = append(order, id.Type)
		}
	}
	return order
}
