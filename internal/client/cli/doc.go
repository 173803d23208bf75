// Package cli provides the interactive field-sales command-line client.
//
// It wires configuration, the local store, the API client and the services
// into a REPL. On start it runs the version gate, restores a remembered
// session and arms the end-of-day auto close when a day is in progress.
//
// Key features:
//   - Login (with "remember me") / Logout
//   - Day cycle: status, start, end
//   - Dashboard metrics and active invoices
//   - Version check
//
// An unauthorized API response logs the agent out. The REPL is started via
// App.Run(ctx), which blocks until the user exits.
package cli
