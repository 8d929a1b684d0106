package common

// AuthorizationHeaderName is the HTTP header that carries the session token.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the only accepted authorization scheme.
const BearerScheme = "Bearer"

// RequestIDHeaderName is echoed on every response by the server.
const RequestIDHeaderName = "X-Request-ID"
