package config

import (
	"net"
	"strconv"
	"time"

	"github.com/dmitrijs2005/peoplebook/internal/flagx"
	"github.com/joho/godotenv"
)

// loadDotEnv seeds the process environment from path when the file exists.
// Variables already set in the environment are not overridden.
func loadDotEnv(path string) {
	_ = godotenv.Load(path)
}

// parseEnv overlays values found through lookup onto config.
//
// Recognised variables:
//
//	HOST, PORT          combined into the HTTP bind address
//	DATABASE_URL        PostgreSQL DSN
//	SECRET_KEY          token signing key
//	TOKEN_VALIDITY      Go duration, e.g. "168h"
//	BCRYPT_COST         integer work factor
//	ALLOWED_ORIGIN      CORS origin
//	AUTH_BYPASS_PATHS   comma-separated list
//	LOG_LEVEL           debug|info|warn|error
//
// Malformed numeric or duration values are ignored and the previous value kept.
func parseEnv(config *Config, lookup func(string) (string, bool)) {
	host, hasHost := lookup("HOST")
	port, hasPort := lookup("PORT")
	if hasHost || hasPort {
		h, p, err := net.SplitHostPort(config.EndpointAddrHTTP)
		if err != nil {
			h, p = "", "8080"
		}
		if hasHost {
			h = host
		}
		if hasPort {
			p = port
		}
		config.EndpointAddrHTTP = net.JoinHostPort(h, p)
	}

	if v, ok := lookup("DATABASE_URL"); ok {
		config.DatabaseDSN = v
	}
	if v, ok := lookup("SECRET_KEY"); ok {
		config.SecretKey = v
	}
	if v, ok := lookup("TOKEN_VALIDITY"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			config.TokenValidityDuration = d
		}
	}
	if v, ok := lookup("BCRYPT_COST"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			config.BcryptCost = n
		}
	}
	if v, ok := lookup("ALLOWED_ORIGIN"); ok {
		config.AllowedOrigin = v
	}
	if v, ok := lookup("AUTH_BYPASS_PATHS"); ok {
		config.BypassPaths = flagx.SplitList(v)
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		config.LogLevel = v
	}
}
