package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/shellbridge/authflow/internal/provider"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) GetOAuthURL(ctx context.Context, providerName, redirectURI, state string) (string, error) {
	args := m.Called(ctx, providerName, redirectURI, state)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) HandleCallback(ctx context.Context, params provider.CallbackParams) (*provider.AuthResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.AuthResult), args.Error(1)
}

func (m *MockProvider) SetSession(ctx context.Context, tokens provider.TokenSet) error {
	args := m.Called(ctx, tokens)
	return args.Error(0)
}

func (m *MockProvider) GetSession(ctx context.Context) (*provider.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Session), args.Error(1)
}

func (m *MockProvider) SignOut(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockStorage) DeleteOlderThan(ctx context.Context, prefix string, cutoff time.Time) (int, error) {
	args := m.Called(ctx, prefix, cutoff)
	return args.Int(0), args.Error(1)
}
