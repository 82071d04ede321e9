package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/yakoovad/hackathon-portal/internal/db"
	"github.com/yakoovad/hackathon-portal/internal/model"
)

var feedbackColumns = []any{
	"email", "overall_experience", "organization", "challenge_quality", "mentor_support",
	"communication", "highlights", "improvements", "challenge_comments", "mentor_comments",
	"additional_comments", "would_participate_again", "submitted_at",
}

type pgxFeedbackRepository struct {
	pool *pgxpool.Pool
}

func NewPgxFeedbackRepository(pool *pgxpool.Pool) FeedbackRepository {
	return &pgxFeedbackRepository{pool: pool}
}

func (p *pgxFeedbackRepository) Create(ctx context.Context, f *Feedback) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("feedback", "email", "overall_experience", "organization", "challenge_quality",
			"mentor_support", "communication", "highlights", "improvements", "challenge_comments",
			"mentor_comments", "additional_comments", "would_participate_again"),
		im.Values(
			psql.Arg(f.Email),
			psql.Arg(f.OverallExperience),
			psql.Arg(f.Organization),
			psql.Arg(f.ChallengeQuality),
			psql.Arg(f.MentorSupport),
			psql.Arg(f.Communication),
			psql.Arg(f.Highlights),
			psql.Arg(f.Improvements),
			psql.Arg(f.ChallengeComments),
			psql.Arg(f.MentorComments),
			psql.Arg(f.AdditionalComments),
			psql.Arg(string(f.WouldParticipateAgain)),
		),
		im.Returning("submitted_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	err = e.QueryRow(ctx, sql, args...).Scan(&f.SubmittedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyExists
	}

	return err
}

func (p *pgxFeedbackRepository) Exists(ctx context.Context, email string) (bool, error) {
	return exists(ctx, db.GetPgxExecutorFromContext(ctx, p.pool), "feedback", "email", email)
}

func (p *pgxFeedbackRepository) Get(ctx context.Context, email string) (*Feedback, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(feedbackColumns...),
		sm.From("feedback"),
		sm.Where(psql.Quote("email").EQ(psql.Arg(email))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	f, err := scanFeedback(e.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (p *pgxFeedbackRepository) GetAll(ctx context.Context) ([]*Feedback, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(feedbackColumns...),
		sm.From("feedback"),
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

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Feedback, error) {
		return scanFeedback(row)
	})
}

func (p *pgxFeedbackRepository) Delete(ctx context.Context, email string) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From("feedback"),
		dm.Where(psql.Quote("email").EQ(psql.Arg(email))),
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

func scanFeedback(row rowScanner) (*Feedback, error) {
	f := &Feedback{}
	var again string
	if err := row.Scan(
		&f.Email,
		&f.OverallExperience,
		&f.Organization,
		&f.ChallengeQuality,
		&f.MentorSupport,
		&f.Communication,
		&f.Highlights,
		&f.Improvements,
		&f.ChallengeComments,
		&f.MentorComments,
		&f.AdditionalComments,
		&again,
		&f.SubmittedAt,
	); err != nil {
		return nil, err
	}
	f.WouldParticipateAgain = model.ParticipateAgain(again)
	return f, nil
}

// exists checks for a row whose column equals value.
func exists(ctx context.Context, e db.Executor, table, column, value string) (bool, error) {
	q := psql.Select(
		sm.Columns(psql.Raw("1")),
		sm.From(table),
		sm.Where(psql.Quote(column).EQ(psql.Arg(value))),
		sm.Limit(1),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return false, err
	}

	var one int
	if err = e.QueryRow(ctx, sql, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
