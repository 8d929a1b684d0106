// Package cli provides the interactive gallery command-line client.
//
// It wires configuration and the HTTP API client into a small REPL:
//
//	register  create an account
//	login     authenticate and keep the session token in memory
//	me        show the identity attached to the current token
//	users     list registered users
//	ping      check server health
//	logout    forget the session token
//	exit      leave the program
//
// Passwords are read from the terminal without echo and wiped after use.
package cli
