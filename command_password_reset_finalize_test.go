package handraise_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/handraise/handraise"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFinalizePasswordResetHandler_Execute(t *testing.T) {
	ctx := context.Background()
	rawToken := "2afafc0acceff2f2d25b3a22b0b0bfcbca975f1c4c9d6ab5d1b102c0faa784e6"
	tokenHash := handraise.HashResetToken(rawToken)

	t.Run("consumes the token and swaps the password", func(t *testing.T) {
		user := &handraise.User{
			ID:    uuid.New(),
			Email: "pat@example.com",
			Role:  handraise.RoleVolunteer,
		}

		users := &MockUsers{}
		repo := &MockRepositoryManager{}

		repo.On("Users").Return(users)
		users.On("ConsumeResetToken", mock.Anything, tokenHash, mock.AnythingOfType("string")).
			Run(func(args mock.Arguments) {
				// the repository receives a bcrypt hash, never the plaintext
				passwordHash := args.String(2)
				assert.NoError(t, handraise.ComparePasswordAndHash("new-password-1", passwordHash))
			}).
			Return(user, nil).Once()

		var got *handraise.User
		handler := handraise.NewFinalizePasswordResetHandler(repo)
		err := handler.Execute(ctx, handraise.FinalizePasswordResetMessage{
			Token:    rawToken,
			Password: "new-password-1",
			OnResponse: func(u *handraise.User) {
				got = u
			},
		})
		require.NoError(t, err)

		require.NotNil(t, got)
		assert.Equal(t, user.Email, got.Email)

		users.AssertExpectations(t)
	})

	t.Run("spent or unknown token maps to ErrResetTokenInvalid", func(t *testing.T) {
		users := &MockUsers{}
		repo := &MockRepositoryManager{}

		repo.On("Users").Return(users)
		users.On("ConsumeResetToken", mock.Anything, tokenHash, mock.Anything).
			Return(nil, repository.NewRecordNotFound()).Once()

		handler := handraise.NewFinalizePasswordResetHandler(repo)
		err := handler.Execute(ctx, handraise.FinalizePasswordResetMessage{
			Token:    rawToken,
			Password: "new-password-1",
		})

		assert.ErrorIs(t, err, handraise.ErrResetTokenInvalid)
	})

	t.Run("empty token never reaches the repository", func(t *testing.T) {
		users := &MockUsers{}
		repo := &MockRepositoryManager{}

		handler := handraise.NewFinalizePasswordResetHandler(repo)
		err := handler.Execute(ctx, handraise.FinalizePasswordResetMessage{
			Token:    "",
			Password: "new-password-1",
		})

		assert.ErrorIs(t, err, handraise.ErrResetTokenInvalid)
		users.AssertNotCalled(t, "ConsumeResetToken", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty password is rejected before token consumption", func(t *testing.T) {
		users := &MockUsers{}
		repo := &MockRepositoryManager{}

		handler := handraise.NewFinalizePasswordResetHandler(repo)
		err := handler.Execute(ctx, handraise.FinalizePasswordResetMessage{
			Token:    rawToken,
			Password: "",
		})

		assert.Error(t, err)
		users.AssertNotCalled(t, "ConsumeResetToken", mock.Anything, mock.Anything, mock.Anything)
	})
}
