// Package pollbase provides the official Go client for the Pollbase
// data-collection and elections platform API.
//
// Pollbase exposes a versioned REST API for forms management, response
// analytics, RBAC administration, election lifecycle, notifications,
// security settings, API keys, and webhooks. This package wraps that API
// with an authenticated HTTP client that attaches a bearer token to every
// request, proactively refreshes the token before it expires, and retries
// a request exactly once after a 401 by refreshing the session. Concurrent
// refresh attempts are coalesced into a single network call.
//
// Quick start:
//
//	// Set POLLBASE_API_URL, then authenticate:
//	client := pollbase.NewClient()
//	if err := client.Auth.Login(ctx, "admin@example.org", password); err != nil {
//	    log.Fatal(err)
//	}
//
//	forms, _, err := client.Forms.List(ctx, pollbase.ListOptions{PerPage: 50})
//	if err != nil {
//	    var verr *pollbase.ValidationError
//	    if errors.As(err, &verr) {
//	        fmt.Println(verr.Fields)
//	    }
//	}
//
// Session state lives in a SessionManager owned by the client, never in
// package-level globals, so multiple independently authenticated clients
// can coexist in one process.
package pollbase

// APIVersion is the REST API version path segment this client targets.
const APIVersion = "v1"

// DefaultUserAgent identifies this client to the Pollbase API.
var DefaultUserAgent = "pollbase-go/" + Version

// Version is the SDK release version. Overridden at build time via -ldflags.
var Version = "1.2.0"
