// Package api holds the JSON request and response bodies shared by the HTTP
// server and its client.
package api

import "time"

const (
	PathLogin    = "/api/users/login"
	PathRegister = "/api/users/register"
	PathCreate   = "/api/users/create"
	PathUsers    = "/api/users"
	PathMe       = "/api/users/me"
	PathHealth   = "/healthz"
	PathMetrics  = "/metrics"
)

// Credentials is the body of login and register requests.
type Credentials struct {
	UserName string `json:"userName"`
	Password string `json:"userPWD"`
}

// UpdateUserRequest changes a user. Empty fields are left as they are.
type UpdateUserRequest struct {
	UserName string `json:"userName,omitempty"`
	Password string `json:"userPWD,omitempty"`
}

type User struct {
	UserID   string `json:"userID"`
	UserName string `json:"userName"`
}

type LoginResponse struct {
	Success   bool      `json:"success"`
	User      User      `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userID"`
}

// Identity is the verified token claim set returned by the "me" endpoint.
type Identity struct {
	UserID    string    `json:"userID"`
	UserName  string    `json:"userName"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// MessageResponse carries every error and plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
