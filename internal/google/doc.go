// Package google handles the OAuth2 authorization ocslots needs to mirror
// meetings into Google Calendar.
//
// The client id and secret of a Google Cloud OAuth client are read from
// GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET. The token obtained with the
// authorization code flow is cached as JSON in the user cache directory and
// refreshed tokens are written back to it.
package google
