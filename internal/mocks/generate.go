// Package mocks provides mock implementations of the console's ports for tests.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	users := mocks.NewMockUserRepository(ctrl)
//	users.EXPECT().GetByEmail(gomock.Any(), "a@b.com").Return(user, nil)
package mocks

// Generate mock for UserRepository interface from internal/ports package.
// This creates MockUserRepository with methods for all UserRepository interface methods:
// Create, GetByEmail, List, UpdatePassword, UpdateRole, RecordLogin
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=user_repository_mock.go github.com/target/dns-manager-ui/internal/ports UserRepository

// Generate mock for Authenticator interface from internal/ports package.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=authenticator_mock.go github.com/target/dns-manager-ui/internal/ports Authenticator

// Generate mock for SessionStore interface from internal/ports package.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=session_store_mock.go github.com/target/dns-manager-ui/internal/ports SessionStore

// Generate mock for TokenCodec interface from internal/ports package.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=token_codec_mock.go github.com/target/dns-manager-ui/internal/ports TokenCodec
