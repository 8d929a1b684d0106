// Package auth issues and checks credentials: bcrypt password hashing,
// HS256 session tokens, and the verified identity carried in a request
// context.
package auth
