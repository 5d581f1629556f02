package handraise

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	Institutions() repository.Repository[*Institution]
	Engagements() Engagements
}

func NewInstitutionsRepository(db *bun.DB) repository.Repository[*Institution] {
	handlers := repository.ModelHandlers[*Institution]{
		NewRecord: func() *Institution {
			return &Institution{}
		},
		GetID: func(record *Institution) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *Institution, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "name"
		},
	}
	return repository.NewRepository(db, handlers)
}

type mngr struct {
	db           *bun.DB
	users        Users
	institutions repository.Repository[*Institution]
	engagements  Engagements
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:           db,
		users:        NewUsersRepository(db),
		institutions: NewInstitutionsRepository(db),
		engagements:  NewEngagementsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.institutions == nil {
		return errors.New("repository institutions should be initialized")
	}

	if m.engagements == nil {
		return errors.New("repository engagements should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Institutions() repository.Repository[*Institution] {
	return m.institutions
}

func (m mngr) Engagements() Engagements {
	return m.engagements
}
