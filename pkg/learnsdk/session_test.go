package learnsdk_test

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/learnhub/pkg/learnsdk"
	"github.com/stretchr/testify/require"
)

// fakeGateway mimics the gateway's session endpoints with an in-memory flag
// for whether the refresh cookie is still accepted.
type fakeGateway struct {
	mux          *http.ServeMux
	renewals     atomic.Int32
	logouts      atomic.Int32
	refreshValid atomic.Bool
	profileDown  atomic.Bool
	logoutStatus int
}

func newFakeGateway() *fakeGateway {
	g := &fakeGateway{mux: http.NewServeMux(), logoutStatus: http.StatusOK}
	g.refreshValid.Store(true)

	g.mux.HandleFunc("GET /api/profile", func(w http.ResponseWriter, r *http.Request) {
		if g.profileDown.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		profileGate(w, r)
	})
	g.mux.HandleFunc("GET /api/expired", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	g.mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		if string(b) != `{"mobile":"09120000000","password":"secret"}` {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"success":false,"message":"login failed","data":null,"errors":{"detail":"bad credentials"}}`)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "access", Value: "fresh", Path: "/"})
		http.SetCookie(w, &http.Cookie{Name: "refresh", Value: "r1", Path: "/"})
		_, _ = io.WriteString(w, `{"success":true,"message":"ok","data":null,"errors":null}`)
	})
	g.mux.HandleFunc("POST /api/refresh", func(w http.ResponseWriter, r *http.Request) {
		g.renewals.Add(1)
		if !g.refreshValid.Load() || !hasCookie(r, "refresh", "r1") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "access", Value: "fresh", Path: "/"})
	})
	g.mux.HandleFunc("POST /api/logout", func(w http.ResponseWriter, r *http.Request) {
		g.logouts.Add(1)
		http.SetCookie(w, &http.Cookie{Name: "access", Value: "", Path: "/", MaxAge: -1})
		http.SetCookie(w, &http.Cookie{Name: "refresh", Value: "", Path: "/", MaxAge: -1})
		w.WriteHeader(g.logoutStatus)
	})
	return g
}

type recordingNavigator struct{ calls atomic.Int32 }

func (n *recordingNavigator) NavigateToLogin() { n.calls.Add(1) }

func newSession(t *testing.T, g *fakeGateway, opts ...learnsdk.SessionOption) (*learnsdk.SessionProvider, *recordingNavigator, *learnsdk.Client) {
	t.Helper()
	nav := &recordingNavigator{}
	client, _ := newTestClient(t, g.mux, learnsdk.WithNavigator(nav))
	return learnsdk.NewSessionProvider(client, opts...), nav, client
}

func login(t *testing.T, p *learnsdk.SessionProvider) {
	t.Helper()
	require.NoError(t, p.Login(context.Background(), learnsdk.LoginRequest{Mobile: "09120000000", Password: "secret"}))
}

func TestNewProviderIsUninitialized(t *testing.T) {
	p, _, _ := newSession(t, newFakeGateway())
	st := p.State()
	require.Equal(t, learnsdk.StatusUninitialized, st.Status)
	require.Nil(t, st.Identity)
	require.False(t, p.Authenticated())
}

func TestLoginLoadsIdentity(t *testing.T) {
	p, _, _ := newSession(t, newFakeGateway())
	login(t, p)

	st := p.State()
	require.Equal(t, learnsdk.StatusAuthenticated, st.Status)
	require.False(t, st.Loading)
	require.Equal(t, "09120000000", st.Identity.Mobile)
	require.True(t, p.HasRole(learnsdk.RoleTeacher, learnsdk.RoleStudent))
	require.False(t, p.HasRole(learnsdk.RoleAdmin))
}

func TestLoginFailureLeavesAnonymous(t *testing.T) {
	p, _, _ := newSession(t, newFakeGateway())

	err := p.Login(context.Background(), learnsdk.LoginRequest{Mobile: "09120000000", Password: "wrong"})
	require.ErrorIs(t, err, learnsdk.ErrServerError)

	st := p.State()
	require.Equal(t, learnsdk.StatusAnonymous, st.Status)
	require.Nil(t, st.Identity)
	require.False(t, st.Loading)
}

func TestLoginValidatesBeforeSending(t *testing.T) {
	g := newFakeGateway()
	p, _, _ := newSession(t, g)

	err := p.Login(context.Background(), learnsdk.LoginRequest{Mobile: " "})
	var verr *learnsdk.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "mobile")
	require.Contains(t, verr.Fields, "password")
	require.Equal(t, learnsdk.StatusAnonymous, p.State().Status)
}

func TestFetchFailureClearsIdentity(t *testing.T) {
	g := newFakeGateway()
	p, _, _ := newSession(t, g)
	login(t, p)

	g.profileDown.Store(true)
	_, err := p.FetchIdentity(context.Background())
	require.ErrorIs(t, err, learnsdk.ErrServerError)

	st := p.State()
	require.Equal(t, learnsdk.StatusAnonymous, st.Status)
	require.Nil(t, st.Identity)
	require.False(t, st.Loading)
}

func TestLogoutIsUnconditional(t *testing.T) {
	g := newFakeGateway()
	g.logoutStatus = http.StatusInternalServerError
	p, nav, _ := newSession(t, g)
	login(t, p)

	err := p.Logout(context.Background())
	require.ErrorIs(t, err, learnsdk.ErrServerError)
	require.Equal(t, learnsdk.StatusAnonymous, p.State().Status)
	require.Nil(t, p.State().Identity)
	require.EqualValues(t, 1, nav.calls.Load())
}

func TestInitWithValidSession(t *testing.T) {
	g := newFakeGateway()
	p, _, _ := newSession(t, g)
	login(t, p)

	st := p.Init(context.Background())
	require.Equal(t, learnsdk.StatusAuthenticated, st.Status)
	require.Zero(t, g.renewals.Load())
}

func TestInitWithoutCookiesEndsAnonymous(t *testing.T) {
	g := newFakeGateway()
	p, nav, _ := newSession(t, g)

	st := p.Init(context.Background())
	require.Equal(t, learnsdk.StatusAnonymous, st.Status)
	require.False(t, st.Loading)
	require.Nil(t, st.Identity)

	// One renewal from the coordinator on the 401, one from Init itself.
	require.EqualValues(t, 2, g.renewals.Load())
	require.EqualValues(t, 1, nav.calls.Load())
}

func TestFailedRenewalSignsOut(t *testing.T) {
	g := newFakeGateway()
	p, nav, client := newSession(t, g)
	login(t, p)

	g.refreshValid.Store(false)
	err := client.Do(context.Background(), http.MethodGet, "/api/expired", nil, nil)
	require.ErrorIs(t, err, learnsdk.ErrRenewalFailed)
	require.Equal(t, learnsdk.StatusAnonymous, p.State().Status)
	require.EqualValues(t, 1, nav.calls.Load())
}

func TestStaleFetchDoesNotOverwriteLogout(t *testing.T) {
	g := newFakeGateway()
	entered := make(chan struct{})
	release := make(chan struct{})

	slow := http.NewServeMux()
	slow.HandleFunc("GET /api/profile", func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		_, _ = io.WriteString(w, identityBody)
	})
	slow.Handle("/", g.mux)

	nav := &recordingNavigator{}
	client, _ := newTestClient(t, slow, learnsdk.WithNavigator(nav))
	p := learnsdk.NewSessionProvider(client)

	done := make(chan error, 1)
	go func() {
		_, err := p.FetchIdentity(context.Background())
		done <- err
	}()
	<-entered
	require.True(t, p.State().Loading)

	require.NoError(t, p.Logout(context.Background()))
	close(release)
	require.NoError(t, <-done)

	st := p.State()
	require.Equal(t, learnsdk.StatusAnonymous, st.Status)
	require.Nil(t, st.Identity)
}

func TestRefreshDoesNotChangeState(t *testing.T) {
	g := newFakeGateway()
	p, _, _ := newSession(t, g)
	login(t, p)

	require.True(t, p.Refresh(context.Background()))

	g.refreshValid.Store(false)
	require.False(t, p.Refresh(context.Background()))
	require.Equal(t, learnsdk.StatusAuthenticated, p.State().Status)
}

func TestSubscribeSeesLatestState(t *testing.T) {
	p, _, _ := newSession(t, newFakeGateway())

	updates, cancel := p.Subscribe()
	first := <-updates
	require.Equal(t, learnsdk.StatusUninitialized, first.Status)

	login(t, p)

	var last learnsdk.State
	require.Eventually(t, func() bool {
		select {
		case last = <-updates:
		default:
		}
		return last.Status == learnsdk.StatusAuthenticated
	}, time.Second, time.Millisecond)
	require.NotNil(t, last.Identity)

	cancel()
	cancel()
	for range updates {
	}
}

func TestBackgroundRenewalOnlyWhileAuthenticated(t *testing.T) {
	g := newFakeGateway()
	p, _, _ := newSession(t, g, learnsdk.WithBackgroundInterval(5*time.Millisecond))

	p.Start()
	p.Start()
	t.Cleanup(p.Stop)
	time.Sleep(30 * time.Millisecond)
	require.Zero(t, g.renewals.Load())

	login(t, p)
	require.Eventually(t, func() bool { return g.renewals.Load() >= 2 }, time.Second, time.Millisecond)

	// A refused renewal is logged, not escalated.
	g.refreshValid.Store(false)
	before := g.renewals.Load()
	require.Eventually(t, func() bool { return g.renewals.Load() > before }, time.Second, time.Millisecond)
	require.Equal(t, learnsdk.StatusAuthenticated, p.State().Status)

	p.Stop()
	p.Stop()
	stopped := g.renewals.Load()
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, stopped, g.renewals.Load())
}
