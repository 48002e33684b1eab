package learnsdk

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// DefaultBackgroundInterval is how often an authenticated session renews
// its access cookie when background renewal is running.
const DefaultBackgroundInterval = 4 * time.Minute

// Status is the lifecycle position of a session.
type Status int

const (
	StatusUninitialized Status = iota
	StatusLoading
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// State is a snapshot of the session. Identity is non-nil exactly when the
// latest identity fetch succeeded and nothing has signed the user out since.
type State struct {
	Identity *Identity
	Loading  bool
	Status   Status
}

// Authenticated reports whether the snapshot carries an identity.
func (s State) Authenticated() bool { return s.Identity != nil }

// SessionOption configures a SessionProvider.
type SessionOption func(*SessionProvider)

// WithBackgroundInterval overrides DefaultBackgroundInterval.
func WithBackgroundInterval(d time.Duration) SessionOption {
	return func(p *SessionProvider) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(p *SessionProvider) {
		if l != nil {
			p.log = l
		}
	}
}

// SessionProvider owns the reconciled session state for one Client. Reads
// are safe from any goroutine; changes are published to subscribers.
type SessionProvider struct {
	client   *Client
	log      *slog.Logger
	interval time.Duration

	mu      sync.Mutex
	state   State
	seq     uint64
	subs    map[int]chan State
	nextSub int

	bgMu   sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewSessionProvider creates a provider in the Uninitialized state. A failed
// renewal anywhere in the client signs the provider out.
func NewSessionProvider(client *Client, opts ...SessionOption) *SessionProvider {
	p := &SessionProvider{
		client:   client,
		log:      client.log,
		interval: DefaultBackgroundInterval,
		state:    State{Status: StatusUninitialized},
		subs:     make(map[int]chan State),
	}
	for _, opt := range opts {
		opt(p)
	}
	client.coord.OnSessionLost(p.invalidate)
	return p
}

// ============================================================================
// Reads
// ============================================================================

// State returns the current snapshot.
func (p *SessionProvider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Authenticated reports whether an identity is present.
func (p *SessionProvider) Authenticated() bool {
	return p.State().Authenticated()
}

// HasRole reports whether the signed-in user has one of roles.
func (p *SessionProvider) HasRole(roles ...Role) bool {
	st := p.State()
	if st.Identity == nil {
		return false
	}
	return slices.Contains(roles, st.Identity.Role)
}

// Subscribe returns a channel that receives the current snapshot and every
// later change. A slow reader only sees the latest snapshot. Call cancel to
// stop receiving, the channel is closed.
func (p *SessionProvider) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = ch
	ch <- p.state
	p.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			close(ch)
			p.mu.Unlock()
		})
	}
	return ch, cancel
}

// ============================================================================
// Operations
// ============================================================================

// FetchIdentity asks the gateway who is signed in. Any failure, including a
// failed renewal, leaves the session Anonymous with no identity.
func (p *SessionProvider) FetchIdentity(ctx context.Context) (*Identity, error) {
	seq := p.begin()

	id, err := p.client.Profile(ctx)
	if err != nil {
		p.log.Debug("identity fetch failed", "error", err)
		p.finish(seq, nil)
		return nil, err
	}

	p.finish(seq, id)
	return id, nil
}

// Login signs in and then loads the identity.
func (p *SessionProvider) Login(ctx context.Context, req LoginRequest) error {
	seq := p.begin()

	if err := p.client.Login(ctx, req); err != nil {
		p.finish(seq, nil)
		return err
	}

	_, err := p.FetchIdentity(ctx)
	return err
}

// Logout signs out. The session is Anonymous afterwards and the navigator
// is sent to login even when the gateway call fails.
func (p *SessionProvider) Logout(ctx context.Context) error {
	err := p.client.Logout(ctx)
	if err != nil {
		p.log.Warn("logout failed", "error", err)
	}

	p.invalidate()
	p.client.navigator.NavigateToLogin()
	return err
}

// Refresh renews the access cookie directly. It does not change the session
// state.
func (p *SessionProvider) Refresh(ctx context.Context) bool {
	return p.client.Refresh(ctx)
}

// Init loads the session on startup: fetch the identity, and if that fails
// try one renewal followed by one more fetch.
func (p *SessionProvider) Init(ctx context.Context) State {
	if _, err := p.FetchIdentity(ctx); err == nil {
		return p.State()
	}
	if p.Refresh(ctx) {
		_, _ = p.FetchIdentity(ctx)
	}
	return p.State()
}

// ============================================================================
// State transitions
// ============================================================================

// begin marks the session as loading and returns a token that finish uses
// to discard results overtaken by a later operation.
func (p *SessionProvider) begin() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq++
	p.state.Loading = true
	p.state.Status = StatusLoading
	p.publishLocked()
	return p.seq
}

func (p *SessionProvider) finish(seq uint64, id *Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if seq != p.seq {
		return
	}
	p.setLocked(id)
}

// invalidate drops the identity and overtakes any fetch in flight.
func (p *SessionProvider) invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq++
	p.setLocked(nil)
}

func (p *SessionProvider) setLocked(id *Identity) {
	p.state.Identity = id
	p.state.Loading = false
	if id != nil {
		p.state.Status = StatusAuthenticated
	} else {
		p.state.Status = StatusAnonymous
	}
	p.publishLocked()
}

func (p *SessionProvider) publishLocked() {
	for _, ch := range p.subs {
		select {
		case ch <- p.state:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- p.state
		}
	}
}

// ============================================================================
// Background renewal
// ============================================================================

// Start begins renewing the access cookie every interval while the session
// is authenticated. Failures are logged and never change the state. Start on
// a running provider does nothing.
func (p *SessionProvider) Start() {
	p.bgMu.Lock()
	defer p.bgMu.Unlock()

	if p.stopCh != nil {
		return
	}
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	go p.run(p.stopCh, p.doneCh)
	p.log.Info("background renewal started", "interval", p.interval)
}

// Stop shuts down background renewal and waits for an in-progress renewal
// to finish.
func (p *SessionProvider) Stop() {
	p.bgMu.Lock()
	defer p.bgMu.Unlock()

	if p.stopCh == nil {
		return
	}
	close(p.stopCh)
	<-p.doneCh
	p.stopCh, p.doneCh = nil, nil
	p.log.Info("background renewal stopped")
}

func (p *SessionProvider) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.backgroundRenew()
		case <-stop:
			return
		}
	}
}

func (p *SessionProvider) backgroundRenew() {
	if p.State().Status != StatusAuthenticated {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.client.coord.timeout)
	defer cancel()

	if !p.client.Refresh(ctx) {
		p.log.Warn("background renewal failed")
	}
}
