package handraise

import (
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/handraise/handraise/middleware/jwtware"
)

type Middleware interface {
	ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc
	RequireRoles(allowed ...UserRole) router.MiddlewareFunc
}

// RouteAuthenticator wires the Authenticator to HTTP: cookie handling, the
// session gate middleware, and the role guard.
type RouteAuthenticator struct {
	auth           Authenticator
	cfg            Config
	repo           RepositoryManager
	cookieDuration time.Duration
	Logger         Logger
	ErrorHandler   func(c router.Context, err error) error
}

var _ HTTPAuthenticator = (*RouteAuthenticator)(nil)

func NewHTTPAuthenticator(auther Authenticator, repo RepositoryManager, cfg Config) (*RouteAuthenticator, error) {
	cookieDuration := 24 * time.Hour
	if cfg.GetTokenExpiration() > 0 {
		cookieDuration = time.Duration(cfg.GetTokenExpiration()) * time.Hour
	}

	a := &RouteAuthenticator{
		cfg:            cfg,
		auth:           auther,
		repo:           repo,
		Logger:         defLogger{},
		cookieDuration: cookieDuration,
	}

	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

func (a RouteAuthenticator) GetCookieDuration() time.Duration {
	return a.cookieDuration
}

// ProtectedRoute is the session gate: it extracts the bearer token from the
// Authorization header or the session cookie, validates signature and expiry,
// resolves the subject against the credential store, and attaches the user to
// the request context. Any failure is terminal for the request.
func (a *RouteAuthenticator) ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		gate := jwtware.New(jwtware.Config{
			ErrorHandler: errorHandler,
			SigningKey: jwtware.SigningKey{
				Key:    []byte(cfg.GetSigningKey()),
				JWTAlg: cfg.GetSigningMethod(),
			},
			AuthScheme:     cfg.GetAuthScheme(),
			ContextKey:     cfg.GetContextKey(),
			TokenLookup:    cfg.GetTokenLookup(),
			TokenValidator: tokenValidatorAdapter{a.auth},
			SuccessHandler: a.resolveSubject(cfg, errorHandler),
		})
		return gate(hf)
	}
}

// resolveSubject looks the token subject up in the credential store. A token
// that validates but names a deleted user is rejected here, the only place
// that check happens. The rejection answers 401 like every other gate
// failure; a 404 here would tell callers which accounts still exist.
func (a *RouteAuthenticator) resolveSubject(cfg Config, errorHandler func(router.Context, error) error) router.HandlerFunc {
	return func(ctx router.Context) error {
		claims, ok := jwtware.ClaimsFromContext(ctx, cfg.GetContextKey())
		if !ok {
			return errorHandler(ctx, ErrUnableToDecodeSession)
		}

		user, err := a.repo.Users().GetByIdentifier(ctx.Context(), claims.UserID())
		if err != nil {
			a.Logger.Info("session subject no longer resolves", "subject", claims.UserID())
			return errorHandler(ctx, ErrIdentityNotFound)
		}

		ctx.Locals("current_user", user)
		ctx.SetContext(WithContext(ctx.Context(), user))

		return ctx.Next()
	}
}

// RequireRoles permits the request only when the resolved user's role is in
// the allowed set. It must run after ProtectedRoute; the role is always taken
// from the stored user record, never from anything the client sent.
func (a *RouteAuthenticator) RequireRoles(allowed ...UserRole) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			user, ok := UserFromRouterContext(ctx)
			if !ok {
				return a.ErrorHandler(ctx, ErrUnauthenticated)
			}

			if !RoleIn(user.Role, allowed...) {
				a.Logger.Info("role rejected for route",
					"role", user.Role,
					"path", ctx.OriginalURL(),
				)
				return a.ErrorHandler(ctx, ErrForbidden)
			}

			return next(ctx)
		}
	}
}

// UserFromRouterContext returns the user attached by the session gate.
func UserFromRouterContext(ctx router.Context) (*User, bool) {
	raw := ctx.Locals("current_user")
	if raw == nil {
		return nil, false
	}
	user, ok := raw.(*User)
	return user, ok
}

func (a *RouteAuthenticator) Login(ctx router.Context, payload LoginPayload) (string, error) {
	token, err := a.auth.Login(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Error("Login error: %s", err)
		return "", err
	}

	a.SetSessionCookie(ctx, token)
	return token, nil
}

func (a *RouteAuthenticator) Logout(ctx router.Context) {
	a.cookieDel(ctx, a.cfg.GetContextKey())
}

// SetSessionCookie attaches the minted token as an HTTP-only cookie so
// browser clients carry it implicitly.
func (a *RouteAuthenticator) SetSessionCookie(c router.Context, val string) {
	c.Cookie(&router.Cookie{
		Name:     a.cfg.GetContextKey(),
		Value:    val,
		Expires:  time.Now().Add(a.cookieDuration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

// MakeAuthErrorHandler maps session gate failures onto the API envelope.
func (a *RouteAuthenticator) MakeAuthErrorHandler() func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if errors.As(err, &richErr) {
			// keep the taxonomy error as-is
		} else if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
			richErr = ErrUnauthenticated
		} else {
			richErr = errors.Wrap(err, errors.CategoryAuth, "invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	status, payload := envelopeForError(err)
	return c.JSON(status, payload)
}

type tokenValidatorAdapter struct {
	auth Authenticator
}

func (t tokenValidatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	type claimsValidator interface {
		TokenService() TokenService
	}

	if cv, ok := t.auth.(claimsValidator); ok {
		return cv.TokenService().Validate(tokenString)
	}

	session, err := t.auth.SessionFromToken(tokenString)
	if err != nil {
		return nil, err
	}

	return claimsFromSession(session), nil
}

// claimsFromSession adapts a Session back into AuthClaims for middlewares
// that only got a plain Authenticator.
func claimsFromSession(s Session) AuthClaims {
	claims := &JWTClaims{}
	claims.UID = s.GetUserID()
	claims.RegisteredClaims.Subject = s.GetUserID()
	claims.RegisteredClaims.Issuer = s.GetIssuer()

	if data := s.GetData(); data != nil {
		if role, ok := data["role"].(string); ok {
			claims.UserRole = role
		}
		if inst, ok := data["institution_id"].(string); ok {
			claims.Institution = inst
		}
	}

	return claims
}
