package pimsclient

import "fmt"

// Wire-level request and response shapes for the PIMS2 swagger schema. The
// schema is owned by the server; these structs mirror it, they do not define
// it. Decoding is deliberately permissive: fields the server adds later are
// ignored. Required fields are modelled as pointers and checked by validate
// after decoding, so a missing field fails fast with a *ValidationError
// naming it.

func keyfilePath(id int64) string {
	return fmt.Sprintf("/Keyfiles/%d", id)
}

func deidentifyPath(id int64) string {
	return fmt.Sprintf("/Keyfiles/%d/Files/deidentify", id)
}

func reidentifyPath(id int64) string {
	return fmt.Sprintf("/Keyfiles/%d/Identities/reidentify", id)
}

func identityExistsPath(id int64) string {
	return fmt.Sprintf("/Keyfiles/%d/Identities/exists", id)
}

func pseudonymExistsPath(id int64) string {
	return fmt.Sprintf("/Keyfiles/%d/Pseudonyms/exists", id)
}

func identityDeletePath(id int64) string {
	return fmt.Sprintf("/Keyfiles/%d/Identities/delete", id)
}

// keyfileResponse mirrors GET /Keyfiles/{id}.
type keyfileResponse struct {
	ID                *int64          `json:"id"`
	Name              *string         `json:"name"`
	PseudonymTemplate *string         `json:"pseudonymTemplate"`
	Description       string          `json:"description"`
	CreationDate      string          `json:"creationDate"`
	Study             string          `json:"study"`
	SequenceNumber    int64           `json:"sequenceNumber"`
	WebhookStatus     string          `json:"webhookStatus"`
	Deletable         bool            `json:"deletable"`
	Members           []keyfileMember `json:"members"`
}

func (r *keyfileResponse) validate() error {
	switch {
	case r.ID == nil:
		return &ValidationError{Field: "id"}
	case r.Name == nil:
		return &ValidationError{Field: "name"}
	case r.PseudonymTemplate == nil:
		return &ValidationError{Field: "pseudonymTemplate"}
	}
	return nil
}

func (r *keyfileResponse) toInfo() KeyfileInfo {
	info := KeyfileInfo{
		ID:                *r.ID,
		Name:              *r.Name,
		PseudonymTemplate: *r.PseudonymTemplate,
		Description:       r.Description,
		CreationDate:      r.CreationDate,
		Study:             r.Study,
		SequenceNumber:    r.SequenceNumber,
		WebhookStatus:     r.WebhookStatus,
		Deletable:         r.Deletable,
	}
	for _, m := range r.Members {
		member := Member{
			ID:               m.ID,
			KeyfileID:        m.KeyfileID,
			RoleDefinitionID: m.RoleDefinitionID,
		}
		if m.User != nil {
			member.UserID = m.User.ID
			member.DisplayName = m.User.DisplayName
			member.Email = m.User.Email
		}
		info.Members = append(info.Members, member)
	}
	return info
}

type keyfileMember struct {
	ID               int64        `json:"id"`
	KeyfileID        int64        `json:"keyfileID"`
	User             *keyfileUser `json:"user"`
	RoleDefinitionID string       `json:"roleDefinitionID"`
}

type keyfileUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// KeyfileInfo is what the server knows about a keyfile. Study is optional
// and empty when the server did not return one. CreationDate is kept as the
// server's own timestamp string; PIMS emits 7-digit fractional seconds
// without a zone, which time.Time would mangle on round trips.
type KeyfileInfo struct {
	ID                int64
	Name              string
	Description       string
	PseudonymTemplate string
	CreationDate      string
	Study             string
	SequenceNumber    int64
	WebhookStatus     string
	Deletable         bool
	Members           []Member
}

// Member is a user with access to a keyfile.
type Member struct {
	ID               int64
	KeyfileID        int64
	UserID           string
	DisplayName      string
	Email            string
	RoleDefinitionID string
}

// deidentifyColumn is one column of a POST /Files/deidentify request. The
// endpoint is file-shaped: identifiers go in as a single column of values.
type deidentifyColumn struct {
	Name   string   `json:"Name"`
	Type   []string `json:"Type"`
	Action string   `json:"Action"`
	Values []string `json:"values"`
}

// deidentifyResponse mirrors the column-oriented deidentify reply. The
// column with pseudonymisationAction "PseudonymOutput" carries the generated
// pseudonyms, in request order.
type deidentifyResponse struct {
	Results  *[]deidentifyResultColumn `json:"results"`
	Comments string                    `json:"comments"`
}

func (r *deidentifyResponse) validate() error {
	if r.Results == nil {
		return &ValidationError{Field: "results"}
	}
	return nil
}

const pseudonymOutputAction = "PseudonymOutput"

// pseudonyms extracts the PseudonymOutput column.
func (r *deidentifyResponse) pseudonyms() ([]string, error) {
	for _, col := range *r.Results {
		if col.PseudonymisationAction == pseudonymOutputAction {
			return col.Values, nil
		}
	}
	return nil, &ValidationError{Field: "results.pseudonymisationAction"}
}

type deidentifyResultColumn struct {
	Name                   string   `json:"name"`
	Values                 []string `json:"values"`
	PseudonymisationAction string   `json:"pseudonymisationAction"`
}

// reidentifyRequest is the body of POST /Identities/reidentify.
type reidentifyRequest struct {
	Items []string `json:"items"`
}

// reidentifyResponse mirrors the paged reidentify reply.
type reidentifyResponse struct {
	Pseudonyms *reidentifyPage `json:"pseudonyms"`
}

func (r *reidentifyResponse) validate() error {
	if r.Pseudonyms == nil {
		return &ValidationError{Field: "pseudonyms"}
	}
	for i, item := range r.Pseudonyms.Items {
		if err := item.validate(); err != nil {
			return fmt.Errorf("pseudonyms.items[%d]: %w", i, err)
		}
	}
	return nil
}

type reidentifyPage struct {
	Page          int64            `json:"page"`
	PageSize      int64            `json:"pageSize"`
	TotalCount    int64            `json:"totalCount"`
	CountComplete bool             `json:"countComplete"`
	Items         []reidentifyItem `json:"items"`
}

type reidentifyItem struct {
	Value          *string `json:"value"`
	IdentitySource *string `json:"identitySource"`
	Pseudonym      *string `json:"pseudonym"`
}

func (i *reidentifyItem) validate() error {
	switch {
	case i.Value == nil:
		return &ValidationError{Field: "value"}
	case i.IdentitySource == nil:
		return &ValidationError{Field: "identitySource"}
	case i.Pseudonym == nil:
		return &ValidationError{Field: "pseudonym"}
	}
	return nil
}

// existsRequest is the body of the Identities/exists and Pseudonyms/exists
// endpoints. The reply is a plain map from value to bool.
type existsRequest struct {
	Items []string `json:"items"`
}

// deleteRequest is the body of POST /Identities/delete.
type deleteRequest struct {
	Items []string `json:"items"`
}
