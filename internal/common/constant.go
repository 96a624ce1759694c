package common

// AuthorizationHeaderName is the HTTP header carrying the bearer token.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token in the Authorization header value.
const BearerPrefix = "Bearer "

// DefaultSessionTitle is used when a session is created without a title.
const DefaultSessionTitle = "New Chat"

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6
