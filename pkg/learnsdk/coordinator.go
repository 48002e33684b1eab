package learnsdk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// DefaultRenewalTimeout bounds a single renewal call.
const DefaultRenewalTimeout = 10 * time.Second

// Doer sends one HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// RenewFunc asks the gateway for a fresh credential. A nil error means the
// cookie jar now holds the new cookies.
type RenewFunc func(ctx context.Context) error

// CoordinatorOptions configures a Coordinator.
type CoordinatorOptions struct {
	// RenewalTimeout defaults to DefaultRenewalTimeout.
	RenewalTimeout time.Duration

	// OnSessionLost runs after a renewal started by this coordinator fails.
	OnSessionLost func()

	Logger *slog.Logger
}

// Coordinator wraps every SDK call and turns a 401 into at most one renewal,
// no matter how many calls observe the 401 at the same time. Calls that see
// a 401 while a renewal is in flight wait for it and then replay once.
type Coordinator struct {
	doer    Doer
	renew   RenewFunc
	timeout time.Duration
	log     *slog.Logger

	mu         sync.Mutex
	refreshing bool
	queue      []chan error
	onLost     []func()
}

// NewCoordinator builds a coordinator around doer.
func NewCoordinator(doer Doer, renew RenewFunc, opts CoordinatorOptions) *Coordinator {
	timeout := opts.RenewalTimeout
	if timeout <= 0 {
		timeout = DefaultRenewalTimeout
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	c := &Coordinator{
		doer:    doer,
		renew:   renew,
		timeout: timeout,
		log:     log,
	}
	if opts.OnSessionLost != nil {
		c.onLost = append(c.onLost, opts.OnSessionLost)
	}
	return c
}

// OnSessionLost registers another hook run when a renewal fails.
func (c *Coordinator) OnSessionLost(fn func()) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.onLost = append(c.onLost, fn)
	c.mu.Unlock()
}

// Refreshing reports whether a renewal is in flight.
func (c *Coordinator) Refreshing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshing
}

// Pending returns the number of calls waiting on the current renewal.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// ============================================================================
// Request path
// ============================================================================

// Do sends req. Responses other than 401 are returned as is, the caller owns
// the body. The request body must be replayable (GetBody set), which
// http.NewRequest arranges for bytes, strings and nil bodies.
func (c *Coordinator) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	discard(resp)

	// A call already marked as a retry never re-enters renewal.
	if isRetry(req.Context()) {
		return nil, ErrAuthorizationExpired
	}

	c.mu.Lock()
	if c.refreshing {
		wait := make(chan error, 1)
		c.queue = append(c.queue, wait)
		c.mu.Unlock()

		select {
		case err := <-wait:
			if err != nil {
				return nil, err
			}
			return c.replay(req)
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}
	}
	c.refreshing = true
	c.mu.Unlock()

	err = c.runRenewal(req.Context())
	c.settle(err)
	if err != nil {
		c.log.Warn("session renewal failed", "error", err)
		c.sessionLost()
		return nil, err
	}
	return c.replay(req)
}

// runRenewal calls renew, giving up after the coordinator's timeout even if
// renew ignores its context. The caller's cancellation does not abort the
// renewal because queued calls depend on it.
func (c *Coordinator) runRenewal(parent context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), c.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.renew(ctx) }()

	select {
	case err := <-done:
		if err != nil && errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", ErrRenewalTimeout, err)
		}
		return err
	case <-ctx.Done():
		return ErrRenewalTimeout
	}
}

// settle releases the lock and hands the outcome to every queued call in
// the order they arrived.
func (c *Coordinator) settle(err error) {
	c.mu.Lock()
	c.refreshing = false
	waiting := c.queue
	c.queue = nil
	c.mu.Unlock()

	for _, wait := range waiting {
		wait <- err
	}
}

func (c *Coordinator) sessionLost() {
	c.mu.Lock()
	hooks := append([]func(){}, c.onLost...)
	c.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// replay sends req a second time, marked as a retry.
func (c *Coordinator) replay(req *http.Request) (*http.Response, error) {
	retry, err := cloneForRetry(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(retry)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		discard(resp)
		return nil, ErrAuthorizationExpired
	}
	return resp, nil
}

func (c *Coordinator) send(req *http.Request) (*http.Response, error) {
	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetworkFailure, err)
	}
	return resp, nil
}

// ============================================================================
// Helpers
// ============================================================================

type retryKey struct{}

func markRetry(ctx context.Context) context.Context {
	return context.WithValue(ctx, retryKey{}, true)
}

func isRetry(ctx context.Context) bool {
	v, _ := ctx.Value(retryKey{}).(bool)
	return v
}

// cloneForRetry copies req with a fresh body. The Cookie header is dropped
// because http.Client writes jar cookies into the request it sends, and the
// replay must pick up the renewed ones.
func cloneForRetry(req *http.Request) (*http.Request, error) {
	retry := req.Clone(markRetry(req.Context()))
	retry.Header.Del("Cookie")

	if req.Body != nil && req.Body != http.NoBody {
		if req.GetBody == nil {
			return nil, errors.New("learnsdk: request body cannot be replayed")
		}
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to reset request body: %w", err)
		}
		retry.Body = body
	}
	return retry, nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
