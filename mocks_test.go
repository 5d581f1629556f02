package handraise_test

import (
	"context"
	"database/sql"
	"mime/multipart"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/handraise/handraise"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockAuthenticator implements handraise.Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, identifier, password string) (string, error) {
	args := m.Called(ctx, identifier, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthenticator) SessionFromToken(token string) (handraise.Session, error) {
	args := m.Called(token)
	return args.Get(0).(handraise.Session), args.Error(1)
}

func (m *MockAuthenticator) IdentityFromSession(ctx context.Context, session handraise.Session) (handraise.Identity, error) {
	args := m.Called(ctx, session)
	return args.Get(0).(handraise.Identity), args.Error(1)
}

// MockLoginPayload implements handraise.LoginPayload
type MockLoginPayload struct {
	Identifier string
	Password   string
}

func (m MockLoginPayload) GetIdentifier() string {
	return m.Identifier
}

func (m MockLoginPayload) GetPassword() string {
	return m.Password
}

// MockIdentityProvider implements handraise.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (handraise.Identity, error) {
	args := m.Called(ctx, identifier, password)
	identity, _ := args.Get(0).(handraise.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (handraise.Identity, error) {
	args := m.Called(ctx, identifier)
	identity, _ := args.Get(0).(handraise.Identity)
	return identity, args.Error(1)
}

// TestIdentity is a plain value implementing handraise.Identity
type TestIdentity struct {
	id            string
	name          string
	email         string
	role          string
	institutionID string
}

func (i TestIdentity) ID() string            { return i.id }
func (i TestIdentity) Name() string          { return i.name }
func (i TestIdentity) Email() string         { return i.email }
func (i TestIdentity) Role() string          { return i.role }
func (i TestIdentity) InstitutionID() string { return i.institutionID }

// mockConfig implements handraise.Config with test defaults
type mockConfig struct {
	signingKey      string
	tokenExpiration int
}

func newMockConfig() mockConfig {
	return mockConfig{
		signingKey:      "test-signing-key",
		tokenExpiration: 1,
	}
}

func (c mockConfig) GetSigningKey() string    { return c.signingKey }
func (c mockConfig) GetSigningMethod() string { return "HS256" }
func (c mockConfig) GetContextKey() string    { return "jwt" }
func (c mockConfig) GetTokenExpiration() int  { return c.tokenExpiration }
func (c mockConfig) GetTokenLookup() string   { return "header:Authorization,cookie:jwt" }
func (c mockConfig) GetAuthScheme() string    { return "Bearer" }
func (c mockConfig) GetIssuer() string        { return "handraise-test" }
func (c mockConfig) GetAudience() []string    { return nil }

// MockUsers mocks the users repository. The embedded interface covers the
// methods a given test never calls.
type MockUsers struct {
	mock.Mock
	handraise.Users
}

func (m *MockUsers) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*handraise.User, error) {
	args := m.Called(ctx, identifier)
	user, _ := args.Get(0).(*handraise.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*handraise.User, error) {
	args := m.Called(ctx, tx, identifier)
	user, _ := args.Get(0).(*handraise.User)
	return user, args.Error(1)
}

func (m *MockUsers) Register(ctx context.Context, user *handraise.User) (*handraise.User, error) {
	args := m.Called(ctx, user)
	record, _ := args.Get(0).(*handraise.User)
	return record, args.Error(1)
}

func (m *MockUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *handraise.User) (*handraise.User, error) {
	args := m.Called(ctx, tx, user)
	record, _ := args.Get(0).(*handraise.User)
	return record, args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *handraise.User, criteria ...repository.InsertCriteria) (*handraise.User, error) {
	args := m.Called(ctx, tx, record)
	user, _ := args.Get(0).(*handraise.User)
	return user, args.Error(1)
}

func (m *MockUsers) Update(ctx context.Context, record *handraise.User, criteria ...repository.UpdateCriteria) (*handraise.User, error) {
	args := m.Called(ctx, record)
	user, _ := args.Get(0).(*handraise.User)
	return user, args.Error(1)
}

func (m *MockUsers) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expiry time.Time) (*handraise.User, error) {
	args := m.Called(ctx, id, tokenHash, expiry)
	user, _ := args.Get(0).(*handraise.User)
	return user, args.Error(1)
}

func (m *MockUsers) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUsers) ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string) (*handraise.User, error) {
	args := m.Called(ctx, tokenHash, passwordHash)
	user, _ := args.Get(0).(*handraise.User)
	return user, args.Error(1)
}

func (m *MockUsers) TrackAttemptedLogin(ctx context.Context, user *handraise.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUsers) TrackSuccessfulLogin(ctx context.Context, user *handraise.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockEngagements mocks the engagements repository.
type MockEngagements struct {
	mock.Mock
	handraise.Engagements
}

func (m *MockEngagements) ListByInstitution(ctx context.Context, institutionID uuid.UUID) ([]*handraise.Engagement, error) {
	args := m.Called(ctx, institutionID)
	records, _ := args.Get(0).([]*handraise.Engagement)
	return records, args.Error(1)
}

// MockInstitutions mocks the institutions repository.
type MockInstitutions struct {
	mock.Mock
	repository.Repository[*handraise.Institution]
}

func (m *MockInstitutions) CreateTx(ctx context.Context, tx bun.IDB, record *handraise.Institution, criteria ...repository.InsertCriteria) (*handraise.Institution, error) {
	args := m.Called(ctx, tx, record)
	inst, _ := args.Get(0).(*handraise.Institution)
	return inst, args.Error(1)
}

// MockRepositoryManager mocks handraise.RepositoryManager.
type MockRepositoryManager struct {
	mock.Mock
	handraise.RepositoryManager
}

func (m *MockRepositoryManager) Users() handraise.Users {
	args := m.Called()
	return args.Get(0).(handraise.Users)
}

func (m *MockRepositoryManager) Institutions() repository.Repository[*handraise.Institution] {
	args := m.Called()
	return args.Get(0).(repository.Repository[*handraise.Institution])
}

func (m *MockRepositoryManager) Engagements() handraise.Engagements {
	args := m.Called()
	return args.Get(0).(handraise.Engagements)
}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	if err := args.Error(0); err != nil {
		return err
	}
	// execute the transaction body with a zero tx so handlers can be
	// exercised without a database
	return f(ctx, bun.Tx{})
}

// MockMailer implements handraise.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg handraise.MailMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockUserTracker implements handraise.UserTracker
type MockUserTracker struct {
	mock.Mock
}

func (m *MockUserTracker) GetByIdentifier(ctx context.Context, identifier string) (*handraise.User, error) {
	args := m.Called(ctx, identifier)
	user, _ := args.Get(0).(*handraise.User)
	return user, args.Error(1)
}

func (m *MockUserTracker) TrackAttemptedLogin(ctx context.Context, user *handraise.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserTracker) TrackSuccessfulLogin(ctx context.Context, user *handraise.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockContext mocks router.Context
type MockContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) FormFile(key string) (*multipart.FileHeader, error) {
	args := m.Called(key)
	fh, _ := args.Get(0).(*multipart.FileHeader)
	return fh, args.Error(1)
}

func (m *MockContext) FormValue(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) SendStatus(code int) error {
	args := m.Called(code)
	return args.Error(0)
}
