package idp

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"furgon/pkg/platform/sentinel"
)

type memAccount struct {
	id     string
	email  string
	secret string
}

// InMemoryProvider fakes the identity provider for tests and local runs.
type InMemoryProvider struct {
	mu      sync.Mutex
	byEmail map[string]*memAccount
	byID    map[string]*memAccount
}

func NewInMemoryProvider() *InMemoryProvider {
	return &InMemoryProvider{
		byEmail: make(map[string]*memAccount),
		byID:    make(map[string]*memAccount),
	}
}

func (p *InMemoryProvider) Authenticate(_ context.Context, email, secret string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	acc, ok := p.byEmail[email]
	if !ok || acc.secret != secret {
		return "", ErrBadCredentials
	}
	return acc.id, nil
}

func (p *InMemoryProvider) CreateAccount(_ context.Context, email, secret string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.byEmail[email]; ok {
		return "", sentinel.ErrConflict
	}
	acc := &memAccount{id: uuid.NewString(), email: email, secret: secret}
	p.byEmail[email] = acc
	p.byID[acc.id] = acc
	return acc.id, nil
}

func (p *InMemoryProvider) SetSecret(_ context.Context, accountID, newSecret string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	acc, ok := p.byID[accountID]
	if !ok {
		return sentinel.ErrNotFound
	}
	acc.secret = newSecret
	return nil
}

func (p *InMemoryProvider) DeleteAccount(_ context.Context, accountID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	acc, ok := p.byID[accountID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(p.byID, accountID)
	delete(p.byEmail, acc.email)
	return nil
}

// HasAccount reports whether an account exists for the email. Test helper.
func (p *InMemoryProvider) HasAccount(email string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.byEmail[email]
	return ok
}
