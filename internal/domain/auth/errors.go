package auth

import (
	perrors "github.com/CompilationErrror/library-auth/internal/platform/errors"
)

// Sentinel failures surfaced by the session service. All carry a kind so
// the transport layer can map them to status codes without string matching.
var (
	// ErrInvalidCredentials deliberately covers both unknown username and
	// wrong password so callers cannot enumerate accounts.
	ErrInvalidCredentials = perrors.New(perrors.KindAuth, "auth.login", "invalid username or password")

	// ErrInvalidRefreshToken covers absent, revoked and already-rotated tokens.
	ErrInvalidRefreshToken = perrors.New(perrors.KindAuth, "auth.refresh", "invalid refresh token")

	ErrRefreshTokenExpired = perrors.New(perrors.KindAuth, "auth.refresh", "refresh token expired")

	// ErrNotAuthorized is returned when a presented token pair is malformed
	// or the refresh token belongs to a different subject.
	ErrNotAuthorized = perrors.New(perrors.KindAuth, "auth.logout", "token does not belong to the authenticated user")

	ErrUsernameTaken = perrors.New(perrors.KindConflict, "auth.register", "username already exists")
	ErrEmailTaken    = perrors.New(perrors.KindConflict, "auth.register", "email already exists")
)
