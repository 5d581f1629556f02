package handraise

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type InitializePasswordResetMessage struct {
	Email      string `json:"email" doc:"Account email the recovery token is sent to."`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (p InitializePasswordResetMessage) Type() string { return "user.password_reset" }

type InitializePasswordResetResponse struct {
	Email   string
	Success bool
}

// InitializePasswordResetHandler mints a one-time recovery token, persists its
// hash with a short expiry, and sends the plaintext out-of-band. A delivery
// failure rolls the stored hash back so the user never holds an acknowledged
// but undeliverable token.
type InitializePasswordResetHandler struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
}

func NewInitializePasswordResetHandler(repo RepositoryManager, mailer Mailer) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:   repo,
		mailer: mailer,
		logger: defLogger{},
	}
}

func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByIdentifier(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrUserNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	raw, hash, err := GenerateResetToken()
	if err != nil {
		return err
	}

	ttl, err := time.ParseDuration(ResetTokenTTL)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "invalid reset token TTL")
	}
	expiry := time.Now().Add(ttl)

	if _, err := h.repo.Users().SetResetToken(ctx, user.ID, hash, expiry); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store reset token")
	}

	msg := MailMessage{
		To:      user.Email,
		Subject: fmt.Sprintf("Password Reset Token (valid for %s)", ResetTokenTTL),
		HTML:    resetEmailBody(user.Name, raw),
		Text:    fmt.Sprintf("Use this token to reset your password: %s", raw),
	}

	if err := h.mailer.Send(ctx, msg); err != nil {
		h.logger.Error("reset token delivery failed, clearing token", "error", err, "email", user.Email)

		// compensating cleanup so the account returns to its idle state
		if clearErr := h.repo.Users().ClearResetToken(ctx, user.ID); clearErr != nil {
			h.logger.Error("failed to clear undelivered reset token", "error", clearErr, "user_id", user.ID.String())
		}

		return goerrors.Wrap(err, ErrDeliveryFailure.Category, ErrDeliveryFailure.Message).
			WithCode(ErrDeliveryFailure.Code).
			WithTextCode(ErrDeliveryFailure.TextCode)
	}

	if event.OnResponse != nil {
		event.OnResponse(&InitializePasswordResetResponse{
			Email:   user.Email,
			Success: true,
		})
	}

	return nil
}

func resetEmailBody(name, rawToken string) string {
	return fmt.Sprintf(`<p>Hi %s,</p>
<p>We received a request to reset your password. Use the token below to choose a new one. It expires in %s.</p>
<p><code>%s</code></p>
<p>If you did not request this, you can safely ignore this e-mail.</p>`, name, ResetTokenTTL, rawToken)
}
