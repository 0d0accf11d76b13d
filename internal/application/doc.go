// Package application wires configuration into the packer, its result cache,
// session storage, HTTP handlers and the server, so the main package only
// parses flags and orchestrates shutdown.
package application
