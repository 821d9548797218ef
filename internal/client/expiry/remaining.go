// Package expiry provides the remaining-validity capabilities the token
// monitor polls. The bearer token itself stays opaque to the client core:
// the offline source reads only the expiry claim without verifying anything,
// and the online source defers the whole question to the backend.
package expiry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Tychelis/virtual-tutor-system-sub001/internal/client/monitor"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/client/storage"
	pkgapi "github.com/Tychelis/virtual-tutor-system-sub001/pkg/api"
)

// ErrNoToken is reported when the store holds no credential at poll time.
// Монитор трактует это как пропущенный tick, а не как истечение: гонку
// "другая вкладка только что вышла" закрывает reconcile, останавливая
// монитор, и ложного Expired не возникает.
var ErrNoToken = errors.New("no token in store")

// FromClaims returns a RemainingFunc that decodes the exp claim of the
// stored token without verifying its signature. The current token is
// re-read from the store on every poll.
func FromClaims(store storage.AuthStore) monitor.RemainingFunc {
	parser := jwt.NewParser()

	return func(ctx context.Context) (time.Duration, error) {
		token, err := store.Token(ctx)
		if err != nil {
			return 0, fmt.Errorf("read token: %w", err)
		}
		if token == "" {
			return 0, ErrNoToken
		}

		claims := jwt.RegisteredClaims{}
		if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
			return 0, fmt.Errorf("parse token claims: %w", err)
		}
		if claims.ExpiresAt == nil {
			return 0, fmt.Errorf("token has no expiry claim")
		}

		return time.Until(claims.ExpiresAt.Time), nil
	}
}

// StatusChecker asks the backend whether a token is still valid
type StatusChecker interface {
	TokenStatus(ctx context.Context, token string) (*pkgapi.TokenStatusResponse, error)
}

// FromStatus returns a RemainingFunc backed by GET /token_status. Network
// failures surface as errors and count as skipped ticks; a definitive
// valid=false answer is reported as zero remaining validity.
func FromStatus(client StatusChecker, store storage.AuthStore) monitor.RemainingFunc {
	return func(ctx context.Context) (time.Duration, error) {
		token, err := store.Token(ctx)
		if err != nil {
			return 0, fmt.Errorf("read token: %w", err)
		}
		if token == "" {
			return 0, ErrNoToken
		}

		status, err := client.TokenStatus(ctx, token)
		if err != nil {
			return 0, fmt.Errorf("token status request: %w", err)
		}

		if !status.Valid {
			return 0, nil
		}
		return time.Duration(status.ExpiresIn) * time.Second, nil
	}
}
