package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/yakoovad/hackathon-portal/internal/db"
)

var submissionColumns = []any{
	"team_id", "project_name", "project_description", "github_url", "deployed_url",
	"slides", "videos", "images", "submitted_at", "updated_at",
}

type pgxSubmissionRepository struct {
	pool *pgxpool.Pool
}

func NewPgxSubmissionRepository(pool *pgxpool.Pool) SubmissionRepository {
	return &pgxSubmissionRepository{pool: pool}
}

func (p *pgxSubmissionRepository) Get(ctx context.Context, teamID string) (*Submission, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(submissionColumns...),
		sm.From("submission"),
		sm.Where(psql.Quote("team_id").EQ(psql.Arg(teamID))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	s, err := scanSubmission(e.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (p *pgxSubmissionRepository) Upsert(ctx context.Context, s *Submission) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	slides, err := encodeList(s.Slides)
	if err != nil {
		return err
	}
	videos, err := encodeList(s.Videos)
	if err != nil {
		return err
	}
	images, err := encodeList(s.Images)
	if err != nil {
		return err
	}

	// submitted_at is left to its column default and never touched on conflict.
	q := psql.Insert(
		im.Into("submission", "team_id", "project_name", "project_description",
			"github_url", "deployed_url", "slides", "videos", "images"),
		im.Values(
			psql.Arg(s.TeamID),
			psql.Arg(s.ProjectName),
			psql.Arg(s.ProjectDescription),
			psql.Arg(s.GithubURL),
			psql.Arg(s.DeployedURL),
			psql.Arg(slides),
			psql.Arg(videos),
			psql.Arg(images),
		),
		im.OnConflict(psql.Quote("team_id")).DoUpdate(
			im.SetCol("project_name").ToArg(s.ProjectName),
			im.SetCol("project_description").ToArg(s.ProjectDescription),
			im.SetCol("github_url").ToArg(s.GithubURL),
			im.SetCol("deployed_url").ToArg(s.DeployedURL),
			im.SetCol("slides").ToArg(slides),
			im.SetCol("videos").ToArg(videos),
			im.SetCol("images").ToArg(images),
			im.SetCol("updated_at").ToArg(time.Now().UTC()),
		),
		im.Returning("submitted_at", "updated_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	return e.QueryRow(ctx, sql, args...).Scan(&s.SubmittedAt, &s.UpdatedAt)
}

func (p *pgxSubmissionRepository) GetAll(ctx context.Context) ([]*Submission, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(submissionColumns...),
		sm.From("submission"),
		sm.OrderBy(psql.Quote("submitted_at")).Asc(),
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

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Submission, error) {
		return scanSubmission(row)
	})
}

func (p *pgxSubmissionRepository) Delete(ctx context.Context, teamID string) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From("submission"),
		dm.Where(psql.Quote("team_id").EQ(psql.Arg(teamID))),
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

func scanSubmission(row rowScanner) (*Submission, error) {
	s := &Submission{}
	var slides, videos, images []byte
	if err := row.Scan(
		&s.TeamID,
		&s.ProjectName,
		&s.ProjectDescription,
		&s.GithubURL,
		&s.DeployedURL,
		&slides,
		&videos,
		&images,
		&s.SubmittedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		raw  []byte
		dest any
	}{
		{slides, &s.Slides},
		{videos, &s.Videos},
		{images, &s.Images},
	} {
		if err := json.Unmarshal(f.raw, f.dest); err != nil {
			return nil, errors.Wrap(err, "decode submission files")
		}
	}
	return s, nil
}
