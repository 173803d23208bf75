// Package client is the HTTP client of the field-sales REST API.
//
// # Overview
//
// HTTPClient issues JSON requests against one base URL. Bearer tokens are read
// from an injected Session:
//  1. Before a call, an access token within five seconds of expiry is
//     refreshed (POST /api/v1/auth/refresh with the refresh token).
//  2. A 401 answer triggers exactly one refresh and one retry. A second 401,
//     or a failed refresh, yields an Unauthorized error ("Session expired").
//  3. Concurrent refreshes are collapsed with singleflight; a caller whose
//     token was already replaced by another goroutine retries with the new
//     token without a second round trip.
//
// After a successful refresh the session's TokenChangeFunc is called so the
// auth layer can persist the new bundle.
//
// # Error Handling
//
// Every failure is an *APIError whose Kind matches one sentinel with
// errors.Is: ErrUnauthorized, ErrServer (non-2xx, Status set), ErrUnavailable
// (no response received), ErrUnknown.
//
// See Also
//
//   - Interface: Client
//   - Impl:      HTTPClient
//   - State:     Session
package client
