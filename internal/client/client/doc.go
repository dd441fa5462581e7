// Package client contains client-side building blocks for Spotlight.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client and SubResource
//     interfaces) covering auth, the public talent directory, the profile
//     document and the per-user sub-resources.
//  2. A concrete REST implementation (see HTTPClient) that resolves paths
//     against a base URL, attaches a bearer token from a TokenSource chain,
//     rate limits outgoing calls and unwraps the backend's response envelopes
//     via package normalize.
//  3. Local persistence bootstrap utilities (InitDatabase, RunMigrations) for
//     the CLI, wiring an SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Every failed call returns *APIError carrying a user-facing message. It
// unwraps to one of ErrUnavailable, ErrUnauthorized, ErrForbidden,
// ErrNotFound, ErrRejected or normalize.ErrMalformedResponse.
//
// The client never retries and never clears a session by itself; a 401 on an
// authenticated, non-auth request is reported to the OnUnauthorized hook.
package client
