package handraise

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Engagements stores volunteer assignments. Listing is scoped to an
// institution so a charity admin only ever sees their own records.
type Engagements interface {
	repository.Repository[*Engagement]

	ListByInstitution(ctx context.Context, institutionID uuid.UUID) ([]*Engagement, error)
	ListByInstitutionTx(ctx context.Context, tx bun.IDB, institutionID uuid.UUID) ([]*Engagement, error)
}

type engagements struct {
	repository.Repository[*Engagement]
	db *bun.DB
}

var _ Engagements = (*engagements)(nil)

func NewEngagementsRepository(db *bun.DB) Engagements {
	repo := repository.NewRepository[*Engagement](db, repository.ModelHandlers[*Engagement]{
		NewRecord: func() *Engagement { return &Engagement{} },
		GetID: func(e *Engagement) uuid.UUID {
			if e == nil {
				return uuid.Nil
			}
			return e.ID
		},
		SetID: func(e *Engagement, id uuid.UUID) {
			if e != nil {
				e.ID = id
			}
		},
		GetIdentifier: func() string {
			return "id"
		},
	})

	return &engagements{
		Repository: repo,
		db:         db,
	}
}

func (a *engagements) ListByInstitution(ctx context.Context, institutionID uuid.UUID) ([]*Engagement, error) {
	return a.ListByInstitutionTx(ctx, a.db, institutionID)
}

func (a *engagements) ListByInstitutionTx(ctx context.Context, tx bun.IDB, institutionID uuid.UUID) ([]*Engagement, error) {
	var records []*Engagement
	err := tx.NewSelect().
		Model(&records).
		Where("?TableAlias.institution_id = ?", institutionID.String()).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return records, nil
}
