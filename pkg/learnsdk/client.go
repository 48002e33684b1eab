package learnsdk

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Navigator performs the "go to login" side effect when a session is lost.
// Browsers redirect, CLIs might print a prompt, tests record the call.
type Navigator interface {
	NavigateToLogin()
}

// NavigatorFunc adapts a plain function to Navigator.
type NavigatorFunc func()

func (f NavigatorFunc) NavigateToLogin() { f() }

type noopNavigator struct{}

func (noopNavigator) NavigateToLogin() {}

// Client talks to the learnhub gateway. It keeps the session cookies in a
// jar the way a browser would, and routes every call except renewal through
// its Coordinator.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	coord     *Coordinator
	navigator Navigator
	log       *slog.Logger
}

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	httpClient     *http.Client
	renewalTimeout time.Duration
	navigator      Navigator
	logger         *slog.Logger
}

// WithHTTPClient replaces the default http.Client. A cookie jar is installed
// if the client has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) { c.httpClient = hc }
}

// WithRenewalTimeout sets the coordinator's renewal bound.
func WithRenewalTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.renewalTimeout = d }
}

// WithNavigator sets what happens when the session is lost.
func WithNavigator(n Navigator) Option {
	return func(c *clientConfig) { c.navigator = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}

// NewClient creates a gateway client for baseURL, e.g. "https://learnhub.example".
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	cfg := clientConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		hc.Jar = jar
	}

	nav := cfg.navigator
	if nav == nil {
		nav = noopNavigator{}
	}
	log := cfg.logger
	if log == nil {
		log = slog.Default()
	}

	c := &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: hc,
		navigator:  nav,
		log:        log,
	}
	c.coord = NewCoordinator(hc, c.renew, CoordinatorOptions{
		RenewalTimeout: cfg.renewalTimeout,
		OnSessionLost:  nav.NavigateToLogin,
		Logger:         log,
	})
	return c, nil
}

// Coordinator exposes the client's refresh coordinator.
func (c *Client) Coordinator() *Coordinator {
	return c.coord
}
