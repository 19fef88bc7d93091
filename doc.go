// Package pimsclient is a client for the PIMS pseudonym management web API.
//
// # Overview
//
// PIMS keeps identifier-to-pseudonym mappings in server-side tables called
// keyfiles. This package provides:
//  1. A typed identifier model (PatientID, StudyInstanceUID, ...) that keeps
//     different identifier kinds from being mixed up at call sites.
//  2. A Session over an externally supplied, already-authenticated
//     *http.Client (see the auth/ntlm and auth/msal subpackages) that speaks
//     the PIMS2 JSON schema.
//  3. A KeyFile client exposing Pseudonymize, Reidentify, Exists and Delete,
//     each a single synchronous HTTP call.
//
// Typical flow:
//
//	httpClient, _ := ntlm.NewClient(creds)
//	server, _ := pimsclient.NewServer("https://pims.example.org/api")
//	session := pimsclient.NewSession(server, httpClient)
//	keyfile, _ := pimsclient.InitFromID(ctx, session, 49)
//	keys, _ := keyfile.Pseudonymize(ctx, []pimsclient.Identifier{
//		pimsclient.PatientID("1234"),
//	})
//
// # Error Handling
//
// Non-2xx responses surface as errors that callers can match with errors.Is
// and errors.As: ErrUnauthorized for rejected credentials, *ServerError for
// other remote failures (its message is bounded to 300 characters), and
// *ValidationError when a response is missing a required field. Responses
// carrying unknown extra fields decode without error; the schema is
// deliberately open on the response side.
//
// The client never retries. Timeouts and cancellation belong to the supplied
// *http.Client and the context passed to each call.
package pimsclient
