package config

import (
	"fmt"
	"time"
)

// BaseConfig is the application configuration tree. go-config hydrates it
// from config/app.json plus environment overrides.
type BaseConfig struct {
	App         App         `json:"app" koanf:"app"`
	Auth        Auth        `json:"auth" koanf:"auth"`
	Persistence Persistence `json:"persistence" koanf:"persistence"`
	Mailer      Mailer      `json:"mailer" koanf:"mailer"`
	Uploads     Uploads     `json:"uploads" koanf:"uploads"`
}

func (a BaseConfig) Validate() error {
	if a.Auth.SigningKey == "" {
		return fmt.Errorf("auth.signing_key is required")
	}
	return nil
}

func (a BaseConfig) GetApp() App {
	return a.App
}

func (a BaseConfig) GetAuth() Auth {
	return a.Auth
}

func (a BaseConfig) GetPersistence() Persistence {
	return a.Persistence
}

func (a BaseConfig) GetMailer() Mailer {
	return a.Mailer
}

func (a BaseConfig) GetUploads() Uploads {
	return a.Uploads
}

type App struct {
	Name    string `json:"name" koanf:"name"`
	Address string `json:"address" koanf:"address"`
	Debug   bool   `json:"debug" koanf:"debug"`
}

func (a App) GetName() string {
	if a.Name == "" {
		return "handraise"
	}
	return a.Name
}

func (a App) GetAddress() string {
	if a.Address == "" {
		return ":8080"
	}
	return a.Address
}

func (a App) GetDebug() bool {
	return a.Debug
}

// Auth satisfies the auth Config interface.
type Auth struct {
	SigningKey      string   `json:"signing_key" koanf:"signing_key"`
	SigningMethod   string   `json:"signing_method" koanf:"signing_method"`
	ContextKey      string   `json:"context_key" koanf:"context_key"`
	TokenExpiration int      `json:"token_expiration" koanf:"token_expiration"`
	TokenLookup     string   `json:"token_lookup" koanf:"token_lookup"`
	AuthScheme      string   `json:"auth_scheme" koanf:"auth_scheme"`
	Issuer          string   `json:"issuer" koanf:"issuer"`
	Audience        []string `json:"audience" koanf:"audience"`
}

func (a Auth) GetSigningKey() string {
	return a.SigningKey
}

func (a Auth) GetSigningMethod() string {
	if a.SigningMethod == "" {
		return "HS256"
	}
	return a.SigningMethod
}

func (a Auth) GetContextKey() string {
	if a.ContextKey == "" {
		return "jwt"
	}
	return a.ContextKey
}

func (a Auth) GetTokenExpiration() int {
	if a.TokenExpiration == 0 {
		return 24
	}
	return a.TokenExpiration
}

func (a Auth) GetTokenLookup() string {
	if a.TokenLookup == "" {
		return "header:Authorization,cookie:jwt"
	}
	return a.TokenLookup
}

func (a Auth) GetAuthScheme() string {
	if a.AuthScheme == "" {
		return "Bearer"
	}
	return a.AuthScheme
}

func (a Auth) GetIssuer() string {
	if a.Issuer == "" {
		return "handraise"
	}
	return a.Issuer
}

func (a Auth) GetAudience() []string {
	return a.Audience
}

type Persistence struct {
	Driver                string `json:"driver" koanf:"driver"`
	DSN                   string `json:"dsn" koanf:"dsn"`
	Server                string `json:"server" koanf:"server"`
	Database              string `json:"database" koanf:"database"`
	Debug                 bool   `json:"debug" koanf:"debug"`
	PingTimeoutExpression string `json:"ping_timeout" koanf:"ping_timeout"`
}

func (p Persistence) GetDriver() string {
	if p.Driver == "" {
		return "sqlite"
	}
	return p.Driver
}

func (p Persistence) GetDSN() string {
	if p.DSN == "" {
		return "file:handraise.db?cache=shared&_pragma=foreign_keys(1)"
	}
	return p.DSN
}

func (p Persistence) GetServer() string {
	return p.Server
}

func (p Persistence) GetDatabase() string {
	return p.Database
}

func (p Persistence) GetDebug() bool {
	return p.Debug
}

func (p Persistence) GetOtelIdentifier() string {
	return ""
}

func (p Persistence) GetPingTimeout() time.Duration {
	if p.PingTimeoutExpression == "" {
		return 5 * time.Second
	}
	dur, err := time.ParseDuration(p.PingTimeoutExpression)
	if err != nil {
		panic(
			fmt.Sprintf("unable to parse time: expr %s", p.PingTimeoutExpression),
		)
	}
	return dur
}

type Mailer struct {
	APIKey  string `json:"api_key" koanf:"api_key"`
	From    string `json:"from" koanf:"from"`
	BaseURL string `json:"base_url" koanf:"base_url"`
}

func (m Mailer) GetAPIKey() string {
	return m.APIKey
}

func (m Mailer) GetFrom() string {
	if m.From == "" {
		return "no-reply@handraise.org"
	}
	return m.From
}

// GetBaseURL is the public origin used to build recovery links.
func (m Mailer) GetBaseURL() string {
	if m.BaseURL == "" {
		return "http://localhost:8080"
	}
	return m.BaseURL
}

type Uploads struct {
	Dir string `json:"dir" koanf:"dir"`
}

func (u Uploads) GetDir() string {
	if u.Dir == "" {
		return "./uploads"
	}
	return u.Dir
}
