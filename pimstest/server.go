// Package pimstest provides an in-memory stand-in for a PIMS server,
// speaking just enough of the PIMS2 schema to test clients against. It
// fixes behavior the real API leaves to deployment config: pseudonyms for
// the default "Guid" template are random UUIDs, and every endpoint answers
// exactly one keyfile lookup, deidentify, reidentify, exists or delete call
// per request.
package pimstest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// Keyfile is one pseudonym table held by the double.
type Keyfile struct {
	ID                int64
	Name              string
	Description       string
	PseudonymTemplate string
	Study             string

	// forward maps identity source -> value -> pseudonym.
	forward map[string]map[string]string
	// reverse maps pseudonym -> (value, source). Pseudonyms are unique per
	// keyfile, like on the real server.
	reverse map[string]identity
}

type identity struct {
	value  string
	source string
}

// Server is the double itself. Zero or more keyfiles are registered with
// Add; requests touching unknown keyfiles get a 404 with a server-style
// text body.
type Server struct {
	mu       sync.Mutex
	keyfiles map[int64]*Keyfile
	requests int
	generate func(source, value string) string

	httpSrv *httptest.Server
}

// Option customizes the double.
type Option func(*Server)

// WithGenerator replaces the pseudonym generator. The default returns a
// random UUID, matching the "Guid" template.
func WithGenerator(generate func(source, value string) string) Option {
	return func(s *Server) { s.generate = generate }
}

// NewServer starts the double. Callers must Close it.
func NewServer(opts ...Option) *Server {
	s := &Server{
		keyfiles: make(map[int64]*Keyfile),
		generate: func(string, string) string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /Keyfiles/{id}", s.count(s.handleGetKeyfile))
	mux.HandleFunc("POST /Keyfiles/{id}/Files/deidentify", s.count(s.handleDeidentify))
	mux.HandleFunc("POST /Keyfiles/{id}/Identities/reidentify", s.count(s.handleReidentify))
	mux.HandleFunc("POST /Keyfiles/{id}/Identities/exists", s.count(s.handleIdentityExists))
	mux.HandleFunc("POST /Keyfiles/{id}/Pseudonyms/exists", s.count(s.handlePseudonymExists))
	mux.HandleFunc("POST /Keyfiles/{id}/Identities/delete", s.count(s.handleDelete))
	s.httpSrv = httptest.NewServer(mux)
	return s
}

func (s *Server) Close() { s.httpSrv.Close() }

// URL is the base URL clients should point at.
func (s *Server) URL() string { return s.httpSrv.URL }

// RequestCount reports how many requests the double has seen.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// Add registers a keyfile. Empty Name and PseudonymTemplate get defaults so
// tests only state what they care about.
func (s *Server) Add(kf Keyfile) {
	if kf.Name == "" {
		kf.Name = fmt.Sprintf("keyfile%d", kf.ID)
	}
	if kf.PseudonymTemplate == "" {
		kf.PseudonymTemplate = "Guid"
	}
	kf.forward = make(map[string]map[string]string)
	kf.reverse = make(map[string]identity)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.keyfiles[kf.ID] = &kf
}

// SetKey plants a fixed identity-to-pseudonym mapping, for tests that need
// to know the pseudonym up front.
func (s *Server) SetKey(keyfileID int64, source, value, pseudonym string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kf := s.keyfiles[keyfileID]
	if kf.forward[source] == nil {
		kf.forward[source] = make(map[string]string)
	}
	kf.forward[source][value] = pseudonym
	kf.reverse[pseudonym] = identity{value: value, source: source}
}

func (s *Server) count(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests++
		s.mu.Unlock()
		next(w, r)
	}
}

// keyfileFor resolves the {id} path value, writing a 404 like the real
// server when the keyfile does not exist.
func (s *Server) keyfileFor(w http.ResponseWriter, r *http.Request) *Keyfile {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid keyfile id", http.StatusBadRequest)
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kf, ok := s.keyfiles[id]
	if !ok {
		http.Error(w, fmt.Sprintf("keyfile %d does not exist or you have no access", id), http.StatusNotFound)
		return nil
	}
	return kf
}

func (s *Server) handleGetKeyfile(w http.ResponseWriter, r *http.Request) {
	kf := s.keyfileFor(w, r)
	if kf == nil {
		return
	}
	// Field set mirrors a live PIMS2 capture, including fields this
	// client has no use for.
	writeJSON(w, map[string]any{
		"id":                kf.ID,
		"name":              kf.Name,
		"description":       kf.Description,
		"pseudonymTemplate": kf.PseudonymTemplate,
		"study":             kf.Study,
		"creationDate":      "2019-09-06T15:35:33.6406867",
		"members": []map[string]any{{
			"id":        78,
			"keyfileID": kf.ID,
			"user": map[string]any{
				"id":          "9ffc9b24-f3a7-4d3a-bd90-4ae395d973ec",
				"displayName": "Service principal: pimstest",
				"email":       "",
			},
			"roleDefinitionID": "5bc1c1bf-5ef9-4f0d-b27b-fa503755a15a",
			"activity":         map[string]any{"id": 3050922},
		}},
		"deletable":      false,
		"sequenceNumber": 792,
		"activity":       map[string]any{"id": 3050922},
		"webhookStatus":  "Disabled",
	})
}

func (s *Server) handleDeidentify(w http.ResponseWriter, r *http.Request) {
	kf := s.keyfileFor(w, r)
	if kf == nil {
		return
	}
	source := r.URL.Query().Get("identity_source")
	if source == "" {
		http.Error(w, "identity_source parameter is required", http.StatusBadRequest)
		return
	}

	var columns []struct {
		Values []string `json:"values"`
	}
	if err := json.NewDecoder(r.Body).Decode(&columns); err != nil || len(columns) == 0 {
		http.Error(w, "expected a list of data columns", http.StatusBadRequest)
		return
	}

	values := columns[0].Values
	pseudonyms := make([]string, 0, len(values))
	blanks := make([]string, len(values))

	s.mu.Lock()
	for _, value := range values {
		if kf.forward[source] == nil {
			kf.forward[source] = make(map[string]string)
		}
		pseudonym, ok := kf.forward[source][value]
		if !ok {
			pseudonym = s.generate(source, value)
			kf.forward[source][value] = pseudonym
			kf.reverse[pseudonym] = identity{value: value, source: source}
		}
		pseudonyms = append(pseudonyms, pseudonym)
	}
	s.mu.Unlock()

	writeJSON(w, map[string]any{
		"results": []map[string]any{
			{"values": blanks, "pseudonymisationAction": "Identifier"},
			{"values": blanks, "pseudonymisationAction": "IdentitySource"},
			{"values": pseudonyms, "name": "Pseudonym", "pseudonymisationAction": "PseudonymOutput"},
		},
		"comments": "",
	})
}

func (s *Server) handleReidentify(w http.ResponseWriter, r *http.Request) {
	kf := s.keyfileFor(w, r)
	if kf == nil {
		return
	}
	var req struct {
		Items []string `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "expected an items list", http.StatusBadRequest)
		return
	}

	items := make([]map[string]any, 0, len(req.Items))
	s.mu.Lock()
	for i, pseudonym := range req.Items {
		id, ok := kf.reverse[pseudonym]
		if !ok {
			continue // unknown pseudonyms are omitted, not errors
		}
		items = append(items, map[string]any{
			"id":             5289924 + i,
			"value":          id.value,
			"identitySource": id.source,
			"pseudonym":      pseudonym,
			"fields":         []any{},
			"activity":       map[string]any{"id": 3054186},
		})
	}
	s.mu.Unlock()

	writeJSON(w, map[string]any{
		"pseudonyms": map[string]any{
			"page":          0,
			"pageSize":      20,
			"totalCount":    len(items),
			"countComplete": true,
			"items":         items,
		},
		"headers": []any{},
	})
}

func (s *Server) handleIdentityExists(w http.ResponseWriter, r *http.Request) {
	kf := s.keyfileFor(w, r)
	if kf == nil {
		return
	}
	var req struct {
		Items []string `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "expected an items list", http.StatusBadRequest)
		return
	}
	result := make(map[string]bool, len(req.Items))
	s.mu.Lock()
	for _, value := range req.Items {
		found := false
		for _, values := range kf.forward {
			if _, ok := values[value]; ok {
				found = true
				break
			}
		}
		result[value] = found
	}
	s.mu.Unlock()
	writeJSON(w, result)
}

func (s *Server) handlePseudonymExists(w http.ResponseWriter, r *http.Request) {
	kf := s.keyfileFor(w, r)
	if kf == nil {
		return
	}
	var req struct {
		Items []string `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "expected an items list", http.StatusBadRequest)
		return
	}
	result := make(map[string]bool, len(req.Items))
	s.mu.Lock()
	for _, pseudonym := range req.Items {
		_, ok := kf.reverse[pseudonym]
		result[pseudonym] = ok
	}
	s.mu.Unlock()
	writeJSON(w, result)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	kf := s.keyfileFor(w, r)
	if kf == nil {
		return
	}
	var req struct {
		Items []string `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "expected an items list", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	for _, value := range req.Items {
		for _, values := range kf.forward {
			if pseudonym, ok := values[value]; ok {
				delete(values, value)
				delete(kf.reverse, pseudonym)
			}
		}
	}
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
