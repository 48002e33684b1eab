/*
Package learnsdk provides a client SDK for the learnhub gateway.

# Overview

The gateway keeps the session in two cookies: a short-lived access token
and a refresh token. The SDK holds them in a cookie jar, the way a browser
does, and never reads them itself.

The package is organized around three types:

  - Client: the gateway's API (login, register, logout, profile, refresh)
  - Coordinator: wraps every Client call and renews the session on 401
  - SessionProvider: the observable session state built on top of Client

Create a Client and a SessionProvider:

	client, err := learnsdk.NewClient("https://learnhub.example",
		learnsdk.WithNavigator(learnsdk.NavigatorFunc(func() {
			fmt.Println("session expired, please sign in again")
		})),
	)
	if err != nil {
		return err
	}

	session := learnsdk.NewSessionProvider(client)
	state := session.Init(ctx)

# Renewal

When a call gets a 401 the Coordinator posts to /api/refresh and replays
the call once. Calls that get a 401 while that renewal is running wait for
it instead of starting their own:

  - renewal succeeds: each waiting call replays once
  - renewal fails: each waiting call returns the renewal error, and the
    Navigator is sent to login
  - a replayed call that is still rejected returns ErrAuthorizationExpired

A renewal that takes longer than the renewal timeout (10s by default)
fails with ErrRenewalTimeout.

Client.Refresh calls /api/refresh directly and bypasses the Coordinator.

# Session State

A SessionProvider moves between Uninitialized, Loading, Authenticated and
Anonymous. Identity is only present in Authenticated. Watch it with
Subscribe:

	updates, cancel := session.Subscribe()
	defer cancel()
	for st := range updates {
		fmt.Println(st.Status, st.Authenticated())
	}

Start runs background renewal every four minutes while the session is
authenticated; Stop ends it.

# Error Handling

  - ErrNetworkFailure: no response was received
  - ErrAuthorizationExpired: still 401 after renewal and replay
  - *APIError: any other non-2xx response, matches ErrServerError
  - *ValidationError: the request was rejected before it was sent

Example:

	err := session.Login(ctx, learnsdk.LoginRequest{Mobile: mobile, Password: pw})
	var verr *learnsdk.ValidationError
	switch {
	case errors.As(err, &verr):
		fmt.Println(verr.Fields)
	case errors.Is(err, learnsdk.ErrServerError):
		fmt.Println("gateway rejected the login:", err)
	}

# Thread Safety

Client, Coordinator and SessionProvider are safe for concurrent use.
*/
package learnsdk
