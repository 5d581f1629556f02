package jwtware_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/handraise/handraise/middleware/jwtware"
)

// fakeClaims is a minimal AuthClaims for middleware tests. Role ordering
// mirrors the application hierarchy: volunteer < charity_admin < admin.
type fakeClaims struct {
	subject string
	role    string
}

func (c fakeClaims) Subject() string       { return c.subject }
func (c fakeClaims) UserID() string        { return c.subject }
func (c fakeClaims) Role() string          { return c.role }
func (c fakeClaims) InstitutionID() string { return "" }

func (c fakeClaims) HasRole(role string) bool { return c.role == role }

func (c fakeClaims) IsAtLeast(minRole string) bool {
	rank := map[string]int{"volunteer": 1, "charity_admin": 2, "admin": 3}
	return rank[c.role] >= rank[minRole]
}

// fakeValidator resolves known token strings to claims.
type fakeValidator struct {
	tokens map[string]jwtware.AuthClaims
}

func (v fakeValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, ok := v.tokens[tokenString]
	if !ok {
		return nil, errors.New("token is malformed")
	}
	return claims, nil
}

func newValidator(token string, claims jwtware.AuthClaims) fakeValidator {
	return fakeValidator{tokens: map[string]jwtware.AuthClaims{token: claims}}
}

func noopHandler(ctx router.Context) error { return nil }

func TestJWTWare_HeaderExtraction(t *testing.T) {
	claims := fakeClaims{subject: "12345", role: "volunteer"}

	cfg := jwtware.Config{
		SigningKey: jwtware.SigningKey{
			Key:    []byte("test-secret"),
			JWTAlg: "HS256",
		},
		TokenValidator: newValidator("valid-token", claims),
		ErrorHandler: func(ctx router.Context, err error) error {
			return err
		},
	}

	gate := jwtware.New(cfg)(noopHandler)

	t.Run("valid bearer token passes and stores claims", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.HeadersM["Authorization"] = "Bearer valid-token"
		ctx.On("GetString", "Authorization", "").Return("Bearer valid-token")
		ctx.On("Locals", "user", mock.Anything).Return(nil)

		require.NoError(t, gate(ctx))
		assert.True(t, ctx.NextCalled)
	})

	t.Run("missing token is rejected", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("")

		err := gate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), jwtware.ErrJWTMissingOrMalformed.Error())
	})

	t.Run("unknown token is rejected", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.HeadersM["Authorization"] = "Bearer forged-token"
		ctx.On("GetString", "Authorization", "").Return("Bearer forged-token")

		err := gate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "malformed")
	})
}

func TestJWTWare_CookieExtraction(t *testing.T) {
	claims := fakeClaims{subject: "12345", role: "volunteer"}

	cfg := jwtware.Config{
		SigningKey:     jwtware.SigningKey{Key: []byte("test-secret"), JWTAlg: "HS256"},
		TokenValidator: newValidator("cookie-token", claims),
		TokenLookup:    "header:Authorization,cookie:jwt",
		ErrorHandler: func(ctx router.Context, err error) error {
			return err
		},
	}

	gate := jwtware.New(cfg)(noopHandler)

	ctx := router.NewMockContext()
	ctx.CookiesM["jwt"] = "cookie-token"
	ctx.On("GetString", "Authorization", "").Return("")
	ctx.On("Locals", "user", mock.Anything).Return(nil)

	require.NoError(t, gate(ctx))
	assert.True(t, ctx.NextCalled)
}

// fixedPathMock overrides Path() from the base MockContext.
type fixedPathMock struct {
	*router.MockContext
	path string
}

func (m *fixedPathMock) Path() string { return m.path }

func TestJWTWare_Filter(t *testing.T) {
	cfg := jwtware.Config{
		SigningKey:     jwtware.SigningKey{Key: []byte("test-secret"), JWTAlg: "HS256"},
		TokenValidator: fakeValidator{},
		Filter: func(ctx router.Context) bool {
			return ctx.Path() == "/health"
		},
	}

	gate := jwtware.New(cfg)(noopHandler)

	ctx := &fixedPathMock{MockContext: router.NewMockContext(), path: "/health"}

	// the filter skips the gate entirely, no token needed
	require.NoError(t, gate(ctx))
	assert.True(t, ctx.NextCalled)
}

func TestJWTWare_RoleChecks(t *testing.T) {
	newCtx := func() *router.MockContext {
		ctx := router.NewMockContext()
		ctx.HeadersM["Authorization"] = "Bearer valid-token"
		ctx.On("GetString", "Authorization", "").Return("Bearer valid-token")
		ctx.On("Locals", "user", mock.Anything).Return(nil)
		return ctx
	}

	newGate := func(role string, cfg jwtware.Config) router.HandlerFunc {
		cfg.SigningKey = jwtware.SigningKey{Key: []byte("test-secret"), JWTAlg: "HS256"}
		cfg.TokenValidator = newValidator("valid-token", fakeClaims{subject: "u1", role: role})
		cfg.ErrorHandler = func(ctx router.Context, err error) error {
			return err
		}
		return jwtware.New(cfg)(noopHandler)
	}

	t.Run("required role matches", func(t *testing.T) {
		gate := newGate("charity_admin", jwtware.Config{RequiredRole: "charity_admin"})
		assert.NoError(t, gate(newCtx()))
	})

	t.Run("required role missing", func(t *testing.T) {
		gate := newGate("volunteer", jwtware.Config{RequiredRole: "charity_admin"})
		err := gate(newCtx())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "required role")
	})

	t.Run("minimum role satisfied by a higher role", func(t *testing.T) {
		gate := newGate("admin", jwtware.Config{MinimumRole: "charity_admin"})
		assert.NoError(t, gate(newCtx()))
	})

	t.Run("minimum role not met", func(t *testing.T) {
		gate := newGate("volunteer", jwtware.Config{MinimumRole: "charity_admin"})
		err := gate(newCtx())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "minimum role")
	})

	t.Run("custom role checker wins", func(t *testing.T) {
		gate := newGate("charity_admin", jwtware.Config{
			RequiredRole: "charity_admin",
			RoleChecker: func(claims jwtware.AuthClaims, role string) bool {
				return false
			},
		})
		err := gate(newCtx())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "custom role check")
	})
}

func TestJWTWare_ValidationListeners(t *testing.T) {
	claims := fakeClaims{subject: "u1", role: "volunteer"}

	var seen jwtware.AuthClaims
	cfg := jwtware.Config{
		SigningKey:     jwtware.SigningKey{Key: []byte("test-secret"), JWTAlg: "HS256"},
		TokenValidator: newValidator("valid-token", claims),
		ErrorHandler: func(ctx router.Context, err error) error {
			return err
		},
		ValidationListeners: []jwtware.ValidationListener{
			nil, // nil listeners are skipped
			func(ctx router.Context, c jwtware.AuthClaims) error {
				seen = c
				return nil
			},
		},
	}

	gate := jwtware.New(cfg)(noopHandler)

	ctx := router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer valid-token"
	ctx.On("GetString", "Authorization", "").Return("Bearer valid-token")
	ctx.On("Locals", "user", mock.Anything).Return(nil)

	require.NoError(t, gate(ctx))
	require.NotNil(t, seen)
	assert.Equal(t, "u1", seen.UserID())

	t.Run("listener error stops the request", func(t *testing.T) {
		cfg.ValidationListeners = []jwtware.ValidationListener{
			func(ctx router.Context, c jwtware.AuthClaims) error {
				return errors.New("listener rejected")
			},
		}
		gate := jwtware.New(cfg)(noopHandler)

		ctx := router.NewMockContext()
		ctx.HeadersM["Authorization"] = "Bearer valid-token"
		ctx.On("GetString", "Authorization", "").Return("Bearer valid-token")

		err := gate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "listener rejected")
	})
}

func TestGetExtractors(t *testing.T) {
	extractors := jwtware.GetExtractors("header:Authorization, query:token, param:jwt, cookie:session")
	assert.Len(t, extractors, 4)

	extractors = jwtware.GetExtractors("header:Authorization")
	assert.Len(t, extractors, 1)
}
