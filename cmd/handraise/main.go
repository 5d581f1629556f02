package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/handraise/handraise"
	"github.com/handraise/handraise/cmd/handraise/config"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type App struct {
	config  *gconfig.Container[*config.BaseConfig]
	bunDB   *bun.DB
	auth    *handraise.Auther
	auther  handraise.HTTPAuthenticator
	repo    handraise.RepositoryManager
	mailer  handraise.Mailer
	uploads handraise.UploadStore
	srv     router.Server[*fiber.App]
	logger  *glog.BaseLogger
}

func (a *App) Config() *config.BaseConfig {
	return a.config.Raw()
}

func (a *App) SetRepository(repo handraise.RepositoryManager) {
	a.repo = repo
}

func (a *App) SetDB(db *bun.DB) {
	a.bunDB = db
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func (a *App) SetHTTPServer(srv router.Server[*fiber.App]) {
	a.srv = srv
}

func main() {

	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Info),
		glog.WithName("handraise"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := gconfig.New(&config.BaseConfig{}).
		WithLogger(lgr.GetLogger("config"))

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if app.Config().GetApp().GetDebug() {
		fmt.Println("============")
		fmt.Println(print.MaybeHighlightJSON(cfg.Raw()))
		fmt.Println("============")
	}

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPAuth(ctx, app); err != nil {
		panic(err)
	}

	ProtectedRoutes(app)

	app.srv.Serve(app.Config().GetApp().GetAddress())

	WaitExitSignal()
}

func WithPersistence(ctx context.Context, app *App) error {
	cfg := app.Config().GetPersistence()

	db, err := sql.Open(sqliteshim.ShimName, cfg.GetDSN())
	if err != nil {
		log.Fatal(err)
		return err
	}

	persistence.RegisterModel((*handraise.User)(nil))
	persistence.RegisterModel((*handraise.Institution)(nil))
	persistence.RegisterModel((*handraise.Engagement)(nil))

	dialect := sqlitedialect.New()
	client, err := persistence.New(cfg, db, dialect)
	if err != nil {
		log.Fatal(err)
		return err
	}

	client.SetLogger(app.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(handraise.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}

	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	if err := client.ValidateDialects(ctx); err != nil {
		return err
	}

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	app.SetDB(client.DB())
	app.SetRepository(handraise.NewRepositoryManager(client.DB()))

	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			AppName:       app.Config().GetApp().GetName(),
			UnescapePath:  true,
			StrictRouting: false,
			BodyLimit:     handraise.MaxProfilePicBytes + 1024,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	srv.Router().Get("/health", func(ctx router.Context) error {
		return ctx.JSON(http.StatusOK, map[string]any{
			"success": true,
			"message": "ok",
			"data": map[string]any{
				"time": time.Now().UTC().Format(time.RFC3339),
			},
		})
	})

	srv.Router().Static("/uploads", app.Config().GetUploads().GetDir())

	app.SetHTTPServer(srv)

	return nil
}

// userTrackerAdapter narrows the users repository to the login tracking
// surface the identity provider needs.
type userTrackerAdapter struct {
	users handraise.Users
}

func (a userTrackerAdapter) GetByIdentifier(ctx context.Context, identifier string) (*handraise.User, error) {
	return a.users.GetByIdentifier(ctx, identifier)
}

func (a userTrackerAdapter) TrackAttemptedLogin(ctx context.Context, user *handraise.User) error {
	return a.users.TrackAttemptedLogin(ctx, user)
}

func (a userTrackerAdapter) TrackSuccessfulLogin(ctx context.Context, user *handraise.User) error {
	return a.users.TrackSuccessfulLogin(ctx, user)
}

func WithHTTPAuth(ctx context.Context, app *App) error {
	cfg := app.Config().GetAuth()

	provider := handraise.NewUserProvider(userTrackerAdapter{users: app.repo.Users()}).
		WithLogger(app.GetLogger("auth:provider"))

	authenticator := handraise.NewAuthenticator(provider, cfg).
		WithLogger(app.GetLogger("auth"))
	app.auth = authenticator

	httpAuth, err := handraise.NewHTTPAuthenticator(authenticator, app.repo, cfg)
	if err != nil {
		return err
	}
	httpAuth.Logger = app.GetLogger("auth:http")
	app.auther = httpAuth

	mailerCfg := app.Config().GetMailer()
	app.mailer = handraise.NewResendMailer(mailerCfg.GetAPIKey(), mailerCfg.GetFrom())

	uploads, err := handraise.NewDiskUploadStore(app.Config().GetUploads().GetDir())
	if err != nil {
		return err
	}
	app.uploads = uploads

	handraise.RegisterAuthRoutes(app.srv.Router().Group("/"),
		func(ac *handraise.AuthController) *handraise.AuthController {
			ac.Debug = app.Config().GetApp().GetDebug()
			ac.Auther = httpAuth
			ac.Sessions = authenticator
			ac.Repo = app.repo
			ac.Mailer = app.mailer
			ac.Uploads = uploads
			ac.Config = cfg
			ac.WithLogger(app.GetLogger("auth:ctrl"))
			return ac
		})

	return nil
}

// ProtectedRoutes registers the institution-scoped endpoints that sit behind
// both the session gate and the role guard.
func ProtectedRoutes(app *App) {

	p := app.srv.Router()

	cfg := app.Config().GetAuth()

	auther, ok := app.auther.(*handraise.RouteAuthenticator)
	if !ok {
		panic("expected RouteAuthenticator")
	}

	protected := auther.ProtectedRoute(cfg, auther.MakeAuthErrorHandler())
	staffOnly := auther.RequireRoles(handraise.RoleCharityAdmin, handraise.RoleAdmin)

	p.Get("/api/engagements", EngagementsIndex(app), protected, staffOnly)
}

// EngagementsIndex lists the engagements of the caller's institution.
// Platform admins may pass ?institution_id= to inspect any institution.
func EngagementsIndex(app *App) router.HandlerFunc {
	return func(ctx router.Context) error {
		user, ok := handraise.UserFromRouterContext(ctx)
		if !ok {
			return ctx.JSON(http.StatusUnauthorized, map[string]any{
				"success": false,
				"message": "missing session",
			})
		}

		var institutionID uuid.UUID
		switch {
		case user.Role == handraise.RoleAdmin && ctx.Query("institution_id", "") != "":
			id, err := uuid.Parse(ctx.Query("institution_id", ""))
			if err != nil {
				return ctx.JSON(http.StatusBadRequest, map[string]any{
					"success": false,
					"message": "institution_id must be a UUID",
				})
			}
			institutionID = id
		case user.InstitutionID != nil:
			institutionID = *user.InstitutionID
		default:
			return ctx.JSON(http.StatusForbidden, map[string]any{
				"success": false,
				"message": "no institution scope for this account",
			})
		}

		records, err := app.repo.Engagements().ListByInstitution(ctx.Context(), institutionID)
		if err != nil {
			app.GetLogger("engagements").Error("list error", "error", err)
			return ctx.JSON(http.StatusInternalServerError, map[string]any{
				"success": false,
				"message": "could not list engagements",
			})
		}

		return ctx.JSON(http.StatusOK, map[string]any{
			"success": true,
			"message": "",
			"data":    records,
		})
	}
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
