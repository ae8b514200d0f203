package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lc/takedown/internal/dnsresolver"
)

var _ dnsresolver.Resolver = (*MockResolver)(nil)

// MockResolver is a testify mock of dnsresolver.Resolver.
type MockResolver struct {
	mock.Mock
}

// Resolve mocks the Resolve method.
func (m *MockResolver) Resolve(ctx context.Context, domain string) (string, bool) {
	args := m.Called(ctx, domain)
	return args.String(0), args.Bool(1)
}
