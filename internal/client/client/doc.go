// Package client talks to the gallery HTTP API on behalf of the CLI.
//
// HTTPClient keeps the session token returned by Login in memory and sends it
// as a bearer token on protected calls. Server responses are mapped to the
// sentinel errors in this package and in internal/common so callers can use
// errors.Is:
//
//   - 400 -> common.ErrValidation
//   - 401 -> ErrUnauthorized
//   - 409 -> common.ErrDuplicateUserName
//   - 5xx or transport failure -> ErrUnavailable
package client
