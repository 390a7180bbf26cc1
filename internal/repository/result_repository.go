package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/quizdesk-backend/internal/model"
)

var ErrResultNotFound = errors.New("result not found")

const resultColumns = `id, session_id, roll_number, name, category, correct_answers, total_questions,
	obtained_marks, total_marks, percentage, passed, is_auto_submitted, is_cheater, cheat_reason,
	breakdown, submitted_at`

var resultCopyColumns = []string{
	"id", "session_id", "roll_number", "name", "category", "correct_answers", "total_questions",
	"obtained_marks", "total_marks", "percentage", "passed", "is_auto_submitted", "is_cheater",
	"cheat_reason", "breakdown", "answers", "submitted_at",
}

// ResultRepository handles persisted quiz results.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// InsertBatch bulk inserts submissions with COPY. Any duplicate fails the
// whole batch; callers fall back to Insert.
func (r *ResultRepository) InsertBatch(ctx context.Context, subs []model.Submission) error {
	rows := make([][]interface{}, 0, len(subs))
	for i := range subs {
		rows = append(rows, submissionRow(&subs[i]))
	}

	_, err := r.pool.CopyFrom(ctx, pgx.Identifier{"results"}, resultCopyColumns, pgx.CopyFromRows(rows))
	return err
}

// Insert stores one submission. Re-inserting the same result ID is a no-op.
func (r *ResultRepository) Insert(ctx context.Context, sub model.Submission) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO results (`+joinColumns(resultCopyColumns)+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		 ON CONFLICT (id) DO NOTHING`,
		submissionRow(&sub)...,
	)
	return err
}

// ListPaginated retrieves results, newest first.
func (r *ResultRepository) ListPaginated(ctx context.Context, filter model.ResultFilter, limit, offset int) ([]model.Result, int, error) {
	where, args := resultWhere(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM results`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	argIdx := len(args) + 1
	query := `SELECT ` + resultColumns + ` FROM results` + where +
		` ORDER BY submitted_at DESC LIMIT $` + strconv.Itoa(argIdx) + ` OFFSET $` + strconv.Itoa(argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	results, err := scanResults(rows)
	return results, total, err
}

// ListAll retrieves every result matching filter, for exports.
func (r *ResultRepository) ListAll(ctx context.Context, filter model.ResultFilter) ([]model.Result, error) {
	where, args := resultWhere(filter)
	rows, err := r.pool.Query(ctx, `SELECT `+resultColumns+` FROM results`+where+` ORDER BY submitted_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanResults(rows)
}

// GetByID retrieves a result with its breakdown.
func (r *ResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Result, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+resultColumns+` FROM results WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results, err := scanResults(rows)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrResultNotFound
	}
	return &results[0], nil
}

// Delete removes a result by ID.
func (r *ResultRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM results WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrResultNotFound
	}
	return nil
}

func submissionRow(sub *model.Submission) []interface{} {
	res := &sub.Result
	return []interface{}{
		res.ID, res.SessionID, res.RollNumber, res.Name, res.Category, res.CorrectAnswers, res.TotalQuestions,
		res.ObtainedMarks, res.TotalMarks, res.Percentage, res.Passed, res.IsAutoSubmitted, res.IsCheater,
		res.CheatReason, res.Breakdown, sub.Answers, res.SubmittedAt,
	}
}

func resultWhere(filter model.ResultFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	add := func(clause string, v interface{}) {
		args = append(args, v)
		clauses = append(clauses, clause+` $`+strconv.Itoa(len(args)))
	}

	if filter.Category != "" {
		add(`category =`, filter.Category)
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := strconv.Itoa(len(args))
		clauses = append(clauses, `(name ILIKE $`+n+` OR roll_number ILIKE $`+n+`)`)
	}
	if filter.Passed != nil {
		add(`passed =`, *filter.Passed)
	}
	if filter.Cheater != nil {
		add(`is_cheater =`, *filter.Cheater)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	where := ` WHERE ` + clauses[0]
	for _, c := range clauses[1:] {
		where += ` AND ` + c
	}
	return where, args
}

func scanResults(rows pgx.Rows) ([]model.Result, error) {
	var results []model.Result
	for rows.Next() {
		var res model.Result
		if err := rows.Scan(
			&res.ID, &res.SessionID, &res.RollNumber, &res.Name, &res.Category, &res.CorrectAnswers, &res.TotalQuestions,
			&res.ObtainedMarks, &res.TotalMarks, &res.Percentage, &res.Passed, &res.IsAutoSubmitted, &res.IsCheater,
			&res.CheatReason, &res.Breakdown, &res.SubmittedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

func joinColumns(cols []string) string {
	out := cols[0]
	for _, c := range cols[1:] {
		out += ", " + c
	}
	return out
}
