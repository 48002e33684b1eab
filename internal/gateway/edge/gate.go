package edge

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/learnhub/pkg/httpx"
	"github.com/aussiebroadwan/learnhub/pkg/jwtx"
	"github.com/aussiebroadwan/learnhub/pkg/slogx"
)

// DefaultRenewalTimeout bounds the single renewal the gate may attempt.
const DefaultRenewalTimeout = 10 * time.Second

// Renewer exchanges the request's refresh cookie for a new credential. The
// returned header carries the Set-Cookie lines for the browser.
type Renewer interface {
	Renew(ctx context.Context, r *http.Request) (http.Header, error)
}

// RenewerFunc adapts a plain function to Renewer.
type RenewerFunc func(ctx context.Context, r *http.Request) (http.Header, error)

func (f RenewerFunc) Renew(ctx context.Context, r *http.Request) (http.Header, error) {
	return f(ctx, r)
}

// ============================================================================
// Path matching
// ============================================================================

// PathMatcher matches a path against protected prefixes. A prefix covers
// itself and its subtree: "/profile" matches "/profile" and "/profile/x"
// but not "/profiles".
type PathMatcher struct {
	prefixes []string
}

func NewPathMatcher(prefixes ...string) PathMatcher {
	var m PathMatcher
	for _, p := range prefixes {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		if p != "/" {
			p = strings.TrimSuffix(p, "/")
		}
		m.prefixes = append(m.prefixes, p)
	}
	return m
}

func (m PathMatcher) Match(path string) bool {
	for _, p := range m.prefixes {
		if p == "/" || path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// Prefixes returns the normalized prefixes.
func (m PathMatcher) Prefixes() []string {
	return append([]string(nil), m.prefixes...)
}

// ============================================================================
// Gate
// ============================================================================

// Outcome is what the gate did with a request.
type Outcome int

const (
	// Passed: the path is not protected.
	Passed Outcome = iota
	// Admitted: the access cookie verified.
	Admitted
	// Renewed: admitted after a successful renewal.
	Renewed
	// Redirected: sent to the login page.
	Redirected
)

func (o Outcome) String() string {
	switch o {
	case Passed:
		return "passed"
	case Admitted:
		return "admitted"
	case Renewed:
		return "renewed"
	case Redirected:
		return "redirected"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

type Config struct {
	Protected    PathMatcher
	Verifier     jwtx.Verifier
	Renewer      Renewer
	LoginPath    string // default "/login"
	AccessCookie string // default "access"

	RenewalTimeout time.Duration
	Logger         *slog.Logger
}

// Gate guards protected page paths before any page content is served.
type Gate struct {
	protected    PathMatcher
	verifier     jwtx.Verifier
	renewer      Renewer
	loginPath    string
	accessCookie string
	timeout      time.Duration
	logger       *slog.Logger
}

// New builds a gate. A nil Verifier rejects every token and a nil Renewer
// fails every renewal, so a misconfigured gate redirects instead of
// admitting.
func New(cfg Config) *Gate {
	g := &Gate{
		protected:    cfg.Protected,
		verifier:     cfg.Verifier,
		renewer:      cfg.Renewer,
		loginPath:    cfg.LoginPath,
		accessCookie: cfg.AccessCookie,
		timeout:      cfg.RenewalTimeout,
		logger:       cfg.Logger,
	}
	if g.verifier == nil {
		g.verifier = jwtx.NewVerifierHS256("", jwtx.VerifyOptions{})
	}
	if g.renewer == nil {
		g.renewer = RenewerFunc(func(context.Context, *http.Request) (http.Header, error) {
			return nil, ErrRenewerNotConfigured
		})
	}
	if g.loginPath == "" {
		g.loginPath = "/login"
	}
	if g.accessCookie == "" {
		g.accessCookie = "access"
	}
	if g.timeout <= 0 {
		g.timeout = DefaultRenewalTimeout
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// Middleware applies the gate in front of next.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := g.Decide(r)
		switch d.Outcome {
		case Passed:
			next.ServeHTTP(w, r)
		case Admitted:
			next.ServeHTTP(w, r.WithContext(httpx.ContextWithClaims(r.Context(), d.Claims)))
		case Renewed:
			httpx.RelaySetCookies(w.Header(), d.SetCookies)
			httpx.NoCache(w)
			next.ServeHTTP(w, r)
		default:
			httpx.NoCache(w)
			http.Redirect(w, r, g.loginPath, http.StatusSeeOther)
		}
	})
}

// Decision is the gate's verdict on a request.
type Decision struct {
	Outcome    Outcome
	Claims     jwtx.Claims // set when Admitted
	SetCookies http.Header // set when Renewed
	Reason     error       // why a request was redirected or renewed
}

// Decide classifies r without writing a response. It performs at most one
// renewal.
func (g *Gate) Decide(r *http.Request) Decision {
	if !g.protected.Match(r.URL.Path) {
		return Decision{Outcome: Passed}
	}
	log := slogx.FromContext(r.Context())

	token, ok := httpx.CookieValue(r, g.accessCookie)
	if !ok {
		return g.renew(r, log, ErrNoAccessCookie)
	}

	claims, err := g.verify(token)
	switch {
	case err == nil:
		return Decision{Outcome: Admitted, Claims: claims}
	case jwtx.IsExpired(err):
		return g.renew(r, log, err)
	default:
		log.Info("edge gate rejected access cookie", "error", err)
		return Decision{Outcome: Redirected, Reason: err}
	}
}

// verify never panics; a verifier that does is treated as a rejection.
func (g *Gate) verify(token string) (claims jwtx.Claims, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			claims, err = jwtx.Claims{}, fmt.Errorf("%w: verifier panic: %v", jwtx.ErrMalformed, rec)
		}
	}()
	return g.verifier.Verify(token)
}

func (g *Gate) renew(r *http.Request, log *slog.Logger, reason error) Decision {
	ctx, cancel := context.WithTimeout(r.Context(), g.timeout)
	defer cancel()

	header, err := g.renewer.Renew(ctx, r)
	if err != nil {
		log.Info("edge gate renewal failed", "reason", reason, "error", err)
		return Decision{Outcome: Redirected, Reason: err}
	}

	log.Debug("edge gate renewed session", "reason", reason)
	return Decision{Outcome: Renewed, SetCookies: header, Reason: reason}
}
