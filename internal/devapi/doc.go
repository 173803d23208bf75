// Package devapi is an in-memory development backend for the field sales
// client.
//
// It serves the login, token refresh, day start/end, dashboard and invoice
// endpoints under /api/v1 plus a version manifest at /version.json. Access
// tokens are HS256 JWTs; refresh tokens are random hex strings that are
// rotated on every use. Two demo accounts are seeded: "agent" and "agent2",
// both with password "agent123".
//
// The server keeps everything in memory and is meant for local runs and
// end-to-end tests only.
package devapi
