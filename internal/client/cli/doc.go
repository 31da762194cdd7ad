// Package cli provides the interactive gophshop command-line client.
//
// It wires configuration, the credential store, the remote transport and the
// session and cart engines behind a REPL. On start the previous session is
// restored from storage, a background watcher pings the server to show
// online/offline status, and user commands are dispatched to the engines.
//
// Key features:
//   - Register and verify by emailed code, with a persistent resend countdown
//   - Login (optionally remembered) / Logout
//   - Password reset: forgot, verify, reset
//   - Cart: show, add, inc/dec, rm, clear
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
