// Package cli implements the interactive PIMS client.
//
// The CLI connects to one keyfile at startup (server URL, keyfile ID and
// auth method come from package config) and then runs a small REPL:
//
//	info          — show keyfile details
//	pseudonymize  — translate identifiers into pseudonyms
//	reidentify    — translate pseudonyms back
//	exists        — check which values the keyfile knows
//	delete        — remove identifiers from the keyfile
//	exit | quit   — leave the program
//
// Values are entered one per line, ended by an empty line. NTLM credentials
// are taken from the environment when present and prompted for otherwise;
// passwords are read without echo.
package cli
