package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/yakoovad/hackathon-portal/internal/db"
)

type pgxParticipantRepository struct {
	pool *pgxpool.Pool
}

func NewPgxParticipantRepository(pool *pgxpool.Pool) ParticipantRepository {
	return &pgxParticipantRepository{pool: pool}
}

func (p *pgxParticipantRepository) Create(ctx context.Context, participant *Participant) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("participant", "email"),
		im.Values(psql.Arg(participant.Email)),
		im.Returning("registered_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	err = e.QueryRow(ctx, sql, args...).Scan(&participant.RegisteredAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyExists
	}

	return err
}

func (p *pgxParticipantRepository) Exists(ctx context.Context, email string) (bool, error) {
	return exists(ctx, db.GetPgxExecutorFromContext(ctx, p.pool), "participant", "email", email)
}

func (p *pgxParticipantRepository) GetAll(ctx context.Context) ([]*Participant, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("email", "registered_at"),
		sm.From("participant"),
		sm.OrderBy(psql.Quote("registered_at")).Asc(),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Participant, error) {
		participant := &Participant{}
		if err := row.Scan(&participant.Email, &participant.RegisteredAt); err != nil {
			return nil, err
		}
		return participant, nil
	})
}
