package identity

import (
	"context"

	"github.com/pkg/errors"
)

// StaticProvider resolves tokens from a fixed map. Used in tests and when the
// server runs with auth bypassed for local development.
type StaticProvider struct {
	// Identities maps token -> identity.
	Identities map[string]*Identity
}

func (p *StaticProvider) Authenticate(ctx context.Context, token string) (*Identity, error) {
	id, ok := p.Identities[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return id, nil
}
