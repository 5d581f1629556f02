package handraise

import (
	"context"
	"fmt"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/nyaruka/phonenumbers"
)

// SessionIssuer mints a session for an already verified identity, e.g. the
// auto sign-in right after a password reset.
type SessionIssuer interface {
	IssueSession(ctx context.Context, identifier string) (string, error)
}

type AuthControllerRoutes struct {
	Register       string
	Login          string
	Logout         string
	ForgotPassword string
	ResetPassword  string
	Profile        string
	ProfilePic     string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Routes       *AuthControllerRoutes
	Auther       HTTPAuthenticator
	Sessions     SessionIssuer
	Mailer       Mailer
	Uploads      UploadStore
	Config       Config
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Register:       "/api/users",
			Login:          "/api/users/login",
			Logout:         "/api/users/logout",
			ForgotPassword: "/api/users/forgot-password",
			ResetPassword:  "/api/users/reset-password/:token",
			Profile:        "/api/users/profile",
			ProfilePic:     "/api/users/profile-pic",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = func(ctx router.Context, err error) error {
			status, payload := envelopeForError(err)
			return ctx.JSON(status, payload)
		}
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	if c.Config == nil {
		panic("Missing Config in auth controller...")
	}

	return c
}

func (a *AuthController) WithLogger(logger Logger) *AuthController {
	a.Logger = logger
	return a
}

func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	gate := controller.Auther.ProtectedRoute(
		controller.Config,
		makeGateErrorHandler(controller.ErrorHandler),
	)

	app.Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("users.register")

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("users.login")

	app.Post(controller.Routes.Logout, controller.LogOut, gate).
		SetName("users.logout")

	app.Post(controller.Routes.ForgotPassword, controller.ForgotPasswordPost).
		SetName("users.forgot-password")

	app.Patch(controller.Routes.ResetPassword, controller.ResetPasswordPatch).
		SetName("users.reset-password")

	app.Get(controller.Routes.Profile, controller.ProfileShow, gate).
		SetName("users.profile.show")

	app.Put(controller.Routes.Profile, controller.ProfileUpdate, gate).
		SetName("users.profile.update")

	app.Post(controller.Routes.ProfilePic, controller.ProfilePicUpload, gate).
		SetName("users.profile-pic")
}

func makeGateErrorHandler(fallback router.ErrorHandler) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return fallback(ctx, richErr)
		}
		if IsTokenExpiredError(err) {
			return fallback(ctx, ErrTokenExpired)
		}
		if IsMalformedError(err) {
			return fallback(ctx, ErrTokenMalformed)
		}
		return fallback(ctx, ErrUnauthenticated)
	}
}

// RegistrationCreatePayload is the sign up payload
type RegistrationCreatePayload struct {
	Name            string `form:"name" json:"name"`
	Email           string `form:"email" json:"email"`
	Phone           string `form:"phone_number" json:"phone_number"`
	BirthDate       string `form:"birth_date" json:"birth_date"`
	Role            string `form:"role" json:"role"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
	InstitutionName string `form:"institution_name" json:"institution_name"`
	InstitutionType string `form:"institution_type" json:"institution_type"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber)),
		validation.Field(&r.BirthDate, validation.Date("2006-01-02")),
		validation.Field(&r.Role, validation.In(RoleVolunteer, RoleCharityAdmin)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
		validation.Field(
			&r.InstitutionName,
			validation.By(func(value any) error {
				s, _ := value.(string)
				if r.Role == RoleCharityAdmin && s == "" {
					return goerrors.New("institution_name is required for charity administrators", goerrors.CategoryValidation)
				}
				return nil
			}),
		),
	)
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload: ", "error", err)
		return respond(ctx, http.StatusBadRequest, "Error parsing body", nil)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload: ", "error", err)
		return respondValidation(ctx, err)
	}

	if a.Debug {
		fmt.Println("======= USER REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("============================")
	}

	var birthDate *time.Time
	if payload.BirthDate != "" {
		bd, err := time.Parse("2006-01-02", payload.BirthDate)
		if err != nil {
			return respond(ctx, http.StatusBadRequest, "birth_date must be YYYY-MM-DD", nil)
		}
		birthDate = &bd
	}

	var created *User
	req := RegisterUserMessage{
		Name:            payload.Name,
		Email:           payload.Email,
		Phone:           payload.Phone,
		BirthDate:       birthDate,
		Role:            payload.Role,
		Password:        payload.Password,
		InstitutionName: payload.InstitutionName,
		InstitutionType: payload.InstitutionType,
		OnResponse: func(user *User) {
			created = user
		},
	}

	registerUser := NewRegisterUserHandler(a.Repo)
	if err := registerUser.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register user error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	profile, err := ProfileForUser(created)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	// sign the fresh account in right away
	token, err := a.Sessions.IssueSession(ctx.Context(), created.Email)
	if err != nil {
		a.Logger.Error("register auto sign-in error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}
	a.Auther.SetSessionCookie(ctx, token)

	return respond(ctx, http.StatusCreated, "User registered", map[string]any{
		"user":  profile,
		"token": token,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Email
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: ", "error", err)
		return respond(ctx, http.StatusBadRequest, "Error parsing body", nil)
	}

	if err := payload.Validate(); err != nil {
		return respondValidation(ctx, err)
	}

	token, err := a.Auther.Login(ctx, payload)
	if err != nil {
		// an unknown email and a bad password answer differently on purpose,
		// matching the public client contract
		if goerrors.Is(err, ErrIdentityNotFound) {
			return respond(ctx, http.StatusNotFound, "User not found", nil)
		}
		if goerrors.Is(err, ErrTooManyLoginAttempts) {
			return a.ErrorHandler(ctx, err)
		}
		return respond(ctx, http.StatusUnauthorized, "Invalid credentials", nil)
	}

	user, err := a.Repo.Users().GetByIdentifier(ctx.Context(), payload.Email)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	profile, err := ProfileForUser(user)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return respond(ctx, http.StatusOK, "Logged in", map[string]any{
		"user":  profile,
		"token": token,
	})
}

func (a *AuthController) LogOut(ctx router.Context) error {
	a.Auther.Logout(ctx)
	return respond(ctx, http.StatusOK, "Logged out", nil)
}

// ForgotPasswordPayload starts a password recovery
type ForgotPasswordPayload struct {
	Email string `form:"email" json:"email"`
}

// Validate will validate the payload
func (r ForgotPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
	)
}

func (a *AuthController) ForgotPasswordPost(ctx router.Context) error {
	payload := new(ForgotPasswordPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("forgot password parse payload: ", "error", err)
		return respond(ctx, http.StatusBadRequest, "Error parsing body", nil)
	}

	if err := payload.Validate(); err != nil {
		return respondValidation(ctx, err)
	}

	initPwdReset := NewInitializePasswordResetHandler(a.Repo, a.Mailer).
		WithLogger(a.Logger)

	req := InitializePasswordResetMessage{
		Email: payload.Email,
	}

	if err := initPwdReset.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("forgot password error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return respond(ctx, http.StatusOK, "Recovery e-mail sent", nil)
}

// ResetPasswordPayload carries the new password for a pending recovery
type ResetPasswordPayload struct {
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r ResetPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(8, 100),
		),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) ResetPasswordPatch(ctx router.Context) error {
	rawToken := ctx.Param("token", "")

	payload := new(ResetPasswordPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("reset password parse payload: ", "error", err)
		return respond(ctx, http.StatusBadRequest, "Error parsing body", nil)
	}

	if err := payload.Validate(); err != nil {
		return respondValidation(ctx, err)
	}

	var user *User
	req := FinalizePasswordResetMessage{
		Token:    rawToken,
		Password: payload.Password,
		OnResponse: func(u *User) {
			user = u
		},
	}

	finalizePwdReset := NewFinalizePasswordResetHandler(a.Repo).
		WithLogger(a.Logger)

	if err := finalizePwdReset.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("reset password error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	// the reset proves control of the mailbox, so sign the user in
	token, err := a.Sessions.IssueSession(ctx.Context(), user.Email)
	if err != nil {
		a.Logger.Error("reset auto sign-in error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}
	a.Auther.SetSessionCookie(ctx, token)

	profile, err := ProfileForUser(user)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return respond(ctx, http.StatusOK, "Password updated", map[string]any{
		"user":  profile,
		"token": token,
	})
}

func (a *AuthController) ProfileShow(ctx router.Context) error {
	user, ok := UserFromRouterContext(ctx)
	if !ok {
		return a.ErrorHandler(ctx, ErrUnauthenticated)
	}

	profile, err := ProfileForUser(user)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return respond(ctx, http.StatusOK, "", profile)
}

// ProfileUpdatePayload carries the self-service editable fields. Role,
// email, and institution linkage are deliberately not here.
type ProfileUpdatePayload struct {
	Name            string   `form:"name" json:"name"`
	Phone           string   `form:"phone_number" json:"phone_number"`
	Skills          []string `form:"skills" json:"skills"`
	Availability    string   `form:"availability" json:"availability"`
	AreasOfInterest []string `form:"areas_of_interest" json:"areas_of_interest"`
}

// Validate will validate the payload
func (r ProfileUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber)),
		validation.Field(&r.Availability, validation.Length(0, 200)),
	)
}

func (a *AuthController) ProfileUpdate(ctx router.Context) error {
	user, ok := UserFromRouterContext(ctx)
	if !ok {
		return a.ErrorHandler(ctx, ErrUnauthenticated)
	}

	payload := new(ProfileUpdatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("profile update parse payload: ", "error", err)
		return respond(ctx, http.StatusBadRequest, "Error parsing body", nil)
	}

	if err := payload.Validate(); err != nil {
		return respondValidation(ctx, err)
	}

	user.Name = payload.Name
	user.Phone = payload.Phone
	user.Skills = payload.Skills
	user.Availability = payload.Availability
	user.AreasOfInterest = payload.AreasOfInterest

	updated, err := a.Repo.Users().Update(ctx.Context(), user)
	if err != nil {
		a.Logger.Error("profile update error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	profile, err := ProfileForUser(updated)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return respond(ctx, http.StatusOK, "Profile updated", profile)
}

func (a *AuthController) ProfilePicUpload(ctx router.Context) error {
	user, ok := UserFromRouterContext(ctx)
	if !ok {
		return a.ErrorHandler(ctx, ErrUnauthenticated)
	}

	body := ctx.Body()
	contentType := ctx.Header("Content-Type")

	ref, err := a.Uploads.SaveProfilePic(user.ID, contentType, body)
	if err != nil {
		a.Logger.Error("profile pic upload error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	user.ProfilePic = ref
	if _, err := a.Repo.Users().Update(ctx.Context(), user); err != nil {
		a.Logger.Error("profile pic persist error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return respond(ctx, http.StatusOK, "Profile picture updated", map[string]string{
		"profile_pic": ref,
	})
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return goerrors.New("values must match", goerrors.CategoryValidation)
		}
		return nil
	}
}

// ValidatePhoneNumber accepts empty values and otherwise requires a parseable
// phone number. Region-less numbers must carry a country prefix.
func ValidatePhoneNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, "US")
	if err != nil {
		return goerrors.New("must be a valid phone number", goerrors.CategoryValidation)
	}
	if !phonenumbers.IsValidNumber(num) {
		return goerrors.New("must be a valid phone number", goerrors.CategoryValidation)
	}
	return nil
}

func respondValidation(ctx router.Context, err error) error {
	return ctx.JSON(http.StatusBadRequest, struct {
		Success bool              `json:"success"`
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors,omitempty"`
	}{
		Success: false,
		Message: "Validation failed",
		Errors:  FormatValidationErrorToMap(err),
	})
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field -> message map for JSON responses.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	verrs, ok := err.(validation.Errors)
	if !ok {
		out["payload"] = err.Error()
		return out
	}

	for field, ferr := range verrs {
		if ferr != nil {
			out[field] = ferr.Error()
		}
	}

	return out
}
