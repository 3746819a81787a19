package common

const (
	// AuthHeaderName is the default request header carrying the session token.
	AuthHeaderName = "Authorization"

	// AuthScheme is the default scheme prefix of AuthHeaderName. Matching is
	// case-insensitive.
	AuthScheme = "Bearer"
)
