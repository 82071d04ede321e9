package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/yakoovad/hackathon-portal/internal/db"
)

var teamColumns = []any{
	"id", "team_name", "challenge", "created_by", "members",
	"max_members", "locked", "version", "created_at", "updated_at",
}

type pgxTeamRepository struct {
	pool *pgxpool.Pool
}

func NewPgxTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &pgxTeamRepository{pool: pool}
}

func (p *pgxTeamRepository) Create(ctx context.Context, team *Team) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	members, err := encodeList(team.Members)
	if err != nil {
		return err
	}

	q := psql.Insert(
		im.Into("team", "id", "team_name", "challenge", "created_by", "members", "max_members", "locked"),
		im.Values(
			psql.Arg(team.ID),
			psql.Arg(team.Name),
			psql.Arg(team.Challenge),
			psql.Arg(team.CreatedBy),
			psql.Arg(members),
			psql.Arg(team.MaxMembers),
			psql.Arg(team.Locked),
		),
		im.Returning("version", "created_at", "updated_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	err = e.QueryRow(ctx, sql, args...).Scan(&team.Version, &team.CreatedAt, &team.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyExists
	}

	return err
}

func (p *pgxTeamRepository) Get(ctx context.Context, id string) (*Team, error) {
	return p.getOne(ctx, "id", id)
}

func (p *pgxTeamRepository) GetByCreator(ctx context.Context, email string) (*Team, error) {
	return p.getOne(ctx, "created_by", email)
}

func (p *pgxTeamRepository) getOne(ctx context.Context, column, value string) (*Team, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(teamColumns...),
		sm.From("team"),
		sm.Where(psql.Quote(column).EQ(psql.Arg(value))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	team, err := scanTeam(e.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return team, nil
}

func (p *pgxTeamRepository) GetAll(ctx context.Context) ([]*Team, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(teamColumns...),
		sm.From("team"),
		sm.OrderBy(psql.Quote("created_at")).Asc(),
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

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Team, error) {
		return scanTeam(row)
	})
}

func (p *pgxTeamRepository) Update(ctx context.Context, team *Team) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	members, err := encodeList(team.Members)
	if err != nil {
		return err
	}

	q := psql.Update(
		um.Table("team"),
		um.SetCol("team_name").ToArg(team.Name),
		um.SetCol("challenge").ToArg(team.Challenge),
		um.SetCol("members").ToArg(members),
		um.SetCol("locked").ToArg(team.Locked),
		um.SetCol("version").ToArg(team.Version+1),
		um.SetCol("updated_at").ToArg(time.Now().UTC()),
		um.Where(
			psql.Quote("id").EQ(psql.Arg(team.ID)).
				And(psql.Quote("version").EQ(psql.Arg(team.Version))),
		),
		um.Returning("version", "updated_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	err = e.QueryRow(ctx, sql, args...).Scan(&team.Version, &team.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the row is gone or someone else bumped the version.
		if _, getErr := p.Get(ctx, team.ID); errors.Is(getErr, ErrNotFound) {
			return ErrNotFound
		}
		return ErrConflict
	}
	return err
}

func (p *pgxTeamRepository) Delete(ctx context.Context, id string) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From("team"),
		dm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	commandTag, err := e.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}

	if commandTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTeam(row rowScanner) (*Team, error) {
	team := &Team{}
	var members []byte
	if err := row.Scan(
		&team.ID,
		&team.Name,
		&team.Challenge,
		&team.CreatedBy,
		&members,
		&team.MaxMembers,
		&team.Locked,
		&team.Version,
		&team.CreatedAt,
		&team.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(members, &team.Members); err != nil {
		return nil, errors.Wrap(err, "decode team members")
	}
	return team, nil
}

// encodeList marshals a list for a JSONB column, writing [] rather than null for nil.
func encodeList[T any](list []T) ([]byte, error) {
	if list == nil {
		list = []T{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return nil, errors.Wrap(err, "encode list")
	}
	return b, nil
}
