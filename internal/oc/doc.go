// Package oc is the session and authentication manager for the mentoring
// platform's scheduling API.
//
// A Client owns one cookie-carrying HTTP session, the bearer token and the
// authenticated user id for the lifetime of the process. Authenticate first
// tries the cached token from a credentials.TokenStore and only performs the
// CSRF plus form login when that token is missing, expired or a fresh login
// is forced. Once a token is known every API call carries it as an
// Authorization: Bearer header.
//
// Calls are synchronous and sequential. A Client must not be shared between
// goroutines.
//
// Example:
//
//	client, err := oc.NewClient(oc.DefaultConfig(),
//		oc.WithTokenStore(credentials.NewFileTokenStore("bearer-token.json")),
//		oc.WithLocation(loc),
//	)
//	if err != nil {
//		return err
//	}
//	ok, err := client.Authenticate(ctx, creds, false)
//	if err != nil {
//		return err
//	}
//	if !ok {
//		return errors.New("authentication failed")
//	}
//	events, err := client.Events(ctx)
package oc
