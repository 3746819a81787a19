// Package gate decides, for every inbound HTTP request, whether it bypasses
// authentication, is rejected, or is admitted with a resolved identity.
//
// The decision is an ordered pipeline of named steps. The first step that
// reaches a decision ends the pipeline; a request that survives every check
// is admitted.
package gate

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/peoplebook/internal/common"
	"github.com/dmitrijs2005/peoplebook/internal/logging"
	"github.com/dmitrijs2005/peoplebook/internal/server/auth"
	"github.com/dmitrijs2005/peoplebook/internal/server/metrics"
)

// Kind tags an Outcome.
type Kind int

const (
	Bypass Kind = iota + 1
	Reject
	Admit
)

func (k Kind) String() string {
	switch k {
	case Bypass:
		return "bypass"
	case Reject:
		return "reject"
	case Admit:
		return "admit"
	default:
		return "unknown"
	}
}

// Machine-readable rejection reasons.
const (
	ReasonMissingAuthentication = "missing_authentication"
	ReasonWrongScheme           = "wrong_scheme"
	ReasonUndecodableToken      = "undecodable_token"
	ReasonTokenExpired          = "token_expired"
	ReasonTokenRevoked          = "token_revoked"
	ReasonInternalError         = "internal_error"
)

// Identity is the authenticated caller attached to admitted requests.
type Identity struct {
	AccountID int64
	Username  string
}

// Outcome is the result of classifying one request. Reason, Message and
// Status are set only for Reject; Identity only for Admit.
type Outcome struct {
	Kind     Kind
	Step     string
	Reason   string
	Message  string
	Status   int
	Identity Identity
}

// TokenDecoder is implemented by auth.Codec.
type TokenDecoder interface {
	Decode(token string) (auth.Claims, error)
}

// SessionValidator is implemented by services.AccountService.
type SessionValidator interface {
	IsSessionValid(ctx context.Context, claims auth.Claims) (bool, error)
}

// Config is the configurable surface of the gate.
type Config struct {
	HeaderName  string
	Scheme      string
	BypassPaths []string
}

type Gate struct {
	cfg      Config
	decoder  TokenDecoder
	sessions SessionValidator
	metrics  *metrics.Metrics
	logger   logging.Logger
	now      func() time.Time
	steps    []step
}

// request carries what earlier steps learned to the later ones.
type request struct {
	r      *http.Request
	token  string
	claims auth.Claims
}

type step struct {
	name string
	run  func(g *Gate, req *request) (Outcome, bool)
}

var pipeline = []step{
	{"preflight", (*Gate).preflight},
	{"allow-list", (*Gate).allowList},
	{"extract", (*Gate).extract},
	{"scheme", (*Gate).scheme},
	{"decode", (*Gate).decode},
	{"liveness", (*Gate).liveness},
	{"admit", (*Gate).admit},
}

// New builds a Gate. Empty header and scheme fall back to the common
// defaults. m may be nil.
func New(cfg Config, decoder TokenDecoder, sessions SessionValidator, m *metrics.Metrics, l logging.Logger) *Gate {
	if cfg.HeaderName == "" {
		cfg.HeaderName = common.AuthHeaderName
	}
	if cfg.Scheme == "" {
		cfg.Scheme = common.AuthScheme
	}
	cfg.BypassPaths = append([]string(nil), cfg.BypassPaths...)

	return &Gate{
		cfg:      cfg,
		decoder:  decoder,
		sessions: sessions,
		metrics:  m,
		logger:   l.With("module", "gate"),
		now:      time.Now,
		steps:    pipeline,
	}
}

// Classify runs the pipeline for r. It never writes a response.
func (g *Gate) Classify(r *http.Request) Outcome {
	req := &request{r: r}
	for _, s := range g.steps {
		if out, done := s.run(g, req); done {
			out.Step = s.name
			return out
		}
	}
	// admit always decides; unreachable unless the pipeline is edited.
	return reject(http.StatusInternalServerError, ReasonInternalError, "internal error")
}

func (g *Gate) preflight(req *request) (Outcome, bool) {
	if req.r.Method == http.MethodOptions {
		return Outcome{Kind: Bypass}, true
	}
	return Outcome{}, false
}

func (g *Gate) allowList(req *request) (Outcome, bool) {
	if g.bypassed(req.r.URL.Path) {
		return Outcome{Kind: Bypass}, true
	}
	return Outcome{}, false
}

func (g *Gate) extract(req *request) (Outcome, bool) {
	v := req.r.Header.Get(g.cfg.HeaderName)
	if strings.TrimSpace(v) == "" {
		return reject(http.StatusUnauthorized, ReasonMissingAuthentication, "missing authentication header"), true
	}
	req.token = v
	return Outcome{}, false
}

func (g *Gate) scheme(req *request) (Outcome, bool) {
	token, ok := cutScheme(req.token, g.cfg.Scheme)
	if !ok {
		return reject(http.StatusUnauthorized, ReasonWrongScheme, "wrong authentication scheme"), true
	}
	req.token = token
	return Outcome{}, false
}

func (g *Gate) decode(req *request) (Outcome, bool) {
	claims, err := g.decoder.Decode(req.token)
	if err != nil {
		return reject(http.StatusUnauthorized, ReasonUndecodableToken, "could not decode token: "+err.Error()), true
	}
	req.claims = claims
	return Outcome{}, false
}

func (g *Gate) liveness(req *request) (Outcome, bool) {
	if req.claims.Expired(g.now()) {
		return reject(http.StatusUnauthorized, ReasonTokenExpired, "token expired"), true
	}

	ok, err := g.sessions.IsSessionValid(req.r.Context(), req.claims)
	if err != nil {
		g.logger.Error(req.r.Context(), "session check failed", "account_id", req.claims.AccountID, "error", err)
		return reject(http.StatusInternalServerError, ReasonInternalError, "internal error"), true
	}
	if !ok {
		return reject(http.StatusUnauthorized, ReasonTokenRevoked, "token no longer valid"), true
	}
	return Outcome{}, false
}

func (g *Gate) admit(req *request) (Outcome, bool) {
	return Outcome{
		Kind:     Admit,
		Identity: Identity{AccountID: req.claims.AccountID, Username: req.claims.Subject},
	}, true
}

// bypassed reports whether path is on the allow-list. An entry matches the
// path itself and anything below it on a segment boundary, so "/auth/login"
// covers "/auth/login/" but not "/auth/loginx".
func (g *Gate) bypassed(path string) bool {
	for _, p := range g.cfg.BypassPaths {
		if p == "" {
			continue
		}
		base := strings.TrimSuffix(p, "/")
		if path == base || path == p || strings.HasPrefix(path, base+"/") {
			return true
		}
	}
	return false
}

// cutScheme strips a case-insensitive scheme and the whitespace after it.
// "Bearer" alone yields an empty token, which the decoder then rejects.
func cutScheme(v, scheme string) (string, bool) {
	if len(v) < len(scheme) || !strings.EqualFold(v[:len(scheme)], scheme) {
		return "", false
	}
	rest := v[len(scheme):]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

func reject(status int, reason, message string) Outcome {
	return Outcome{Kind: Reject, Status: status, Reason: reason, Message: message}
}
