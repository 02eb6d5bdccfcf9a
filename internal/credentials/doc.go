// Package credentials resolves login credentials and caches bearer tokens.
//
// Credentials come from pluggable Sources tried in order by a Chain:
//   - EnvSource reads OC_USERNAME and OC_PASSWORD
//   - FileSource reads a two-field text file (username, password)
//   - PromptSource asks on the terminal and writes the answer to a FileSource
//
// Read errors on local files (missing file, permission denied) mean "no value"
// and the chain falls through to the next source.
//
// Bearer tokens are cached by a TokenStore. FileTokenStore persists a JSON
// document with the token, its expiration date and the user id:
//
//	{"token": "...", "expiration_date": "2024-03-06T15:28:20+01:00", "user_id": 1234}
package credentials
