package edge

import "errors"

var (
	ErrNoAccessCookie       = errors.New("edge: no access cookie")
	ErrRenewerNotConfigured = errors.New("edge: renewer not configured")
)
