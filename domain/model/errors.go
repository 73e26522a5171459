package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for the connection and publishing flows. Handlers map these
// to HTTP statuses; usecases wrap them with context via %w.
var (
	ErrConfiguration          = errors.New("platform credentials not configured")
	ErrInvalidState           = errors.New("invalid oauth state")
	ErrExpiredState           = errors.New("expired oauth state")
	ErrReplayedState          = errors.New("oauth state already used")
	ErrOAuthDenied            = errors.New("authorization denied at provider")
	ErrTokenExchangeFailed    = errors.New("token exchange failed")
	ErrIdentityFetchFailed    = errors.New("identity fetch failed")
	ErrTokenRefreshFailed     = errors.New("token refresh failed")
	ErrRefreshUnsupported     = errors.New("platform does not support token refresh")
	ErrUnsupportedPlatform    = errors.New("unsupported platform")
	ErrPermissionDenied       = errors.New("missing required permission")
	ErrMissingBusinessAccount = errors.New("no linked business account")
	ErrPublishFailed          = errors.New("publish failed")
	ErrPersistFailed          = errors.New("persist failed")
	ErrChannelInactive        = errors.New("channel is not active")
)

// ProviderError carries the provider's status and body for any non-2xx (or
// transport failure) not otherwise classified. Timeout marks deadline and
// cancellation failures distinctly.
type ProviderError struct {
	Platform   Platform
	Operation  string
	StatusCode int
	Body       string
	Timeout    bool
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s %s: timeout", e.Platform, e.Operation)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %s", e.Platform, e.Operation, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s: %v", e.Platform, e.Operation, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// AsProviderError unwraps err to a *ProviderError when one is in the chain.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
