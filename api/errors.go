package api

import "errors"

// Failure classes for backend calls. An authentication-classified failure means the backend
// explicitly rejected the credential or session; a transient failure means nothing is known
// about the session and the attempt can be retried later. A protocol failure is a success
// response whose payload cannot be trusted.
var (
	ErrAuthentication = errors.New("authentication rejected")
	ErrTransient      = errors.New("temporary backend failure")
	ErrProtocol       = errors.New("malformed backend response")
)
