package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"WorksForMeBot/model"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Fixed width so that creation_date sorts as text in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS plans (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	creator_user_id  INTEGER NOT NULL,
	question         TEXT NOT NULL,
	enabled          INTEGER NOT NULL DEFAULT 0,
	creation_date    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_plans_creator ON plans(creator_user_id, enabled);

CREATE TABLE IF NOT EXISTS options (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	plan_id  INTEGER NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
	option   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_options_plan ON options(plan_id);

CREATE TABLE IF NOT EXISTS answers (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	option_id            INTEGER NOT NULL REFERENCES options(id) ON DELETE CASCADE,
	answering_user_id    INTEGER NOT NULL,
	answering_user_name  TEXT NOT NULL,
	answer               INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_answers_option_user ON answers(option_id, answering_user_id);
`

// SQLiteStore implements Repository on an embedded SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time
}

var _ Repository = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at path and
// ensures the schema exists.
func NewSQLiteStore(path string, logger zerolog.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps writes serialized and pragmas in effect.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	s := &SQLiteStore{
		db:  db,
		log: logger,
		now: func() time.Time { return time.Now().UTC() },
	}
	logger.Info().Str("path", path).Msg("SQLite store initialized")
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func outcome(res sql.Result) (model.Outcome, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return model.NotFound, fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return model.NotFound, nil
	}
	return model.Found, nil
}

// CreatePlan inserts a disabled plan and returns its id.
func (s *SQLiteStore) CreatePlan(ctx context.Context, creatorID int64, question string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO plans (creator_user_id, question, enabled, creation_date) VALUES (?, ?, 0, ?)`,
		creatorID, question, s.now().UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("creating plan: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading plan id: %w", err)
	}
	s.log.Debug().Int64("plan_id", id).Int64("creator", creatorID).Msg("plan created")
	return id, nil
}

func (s *SQLiteStore) MarkReady(ctx context.Context, planID int64) (model.Outcome, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE plans SET enabled = 1 WHERE id = ?`, planID)
	if err != nil {
		return model.NotFound, fmt.Errorf("enabling plan: %w", err)
	}
	return outcome(res)
}

func (s *SQLiteStore) RenameTitle(ctx context.Context, planID, ownerID int64, question string) (model.Outcome, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE plans SET question = ? WHERE id = ? AND creator_user_id = ?`,
		question, planID, ownerID)
	if err != nil {
		return model.NotFound, fmt.Errorf("renaming plan: %w", err)
	}
	return outcome(res)
}

// DeletePlan removes a plan owned by ownerID together with its options and
// their answers, in one transaction.
func (s *SQLiteStore) DeletePlan(ctx context.Context, ownerID, planID int64) (model.Outcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.NotFound, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM plans WHERE id = ? AND creator_user_id = ?`, planID, ownerID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NotFound, nil
	}
	if err != nil {
		return model.NotFound, fmt.Errorf("looking up plan: %w", err)
	}

	statements := []string{
		`DELETE FROM answers WHERE option_id IN (SELECT id FROM options WHERE plan_id = ?)`,
		`DELETE FROM options WHERE plan_id = ?`,
		`DELETE FROM plans WHERE id = ?`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, planID); err != nil {
			return model.NotFound, fmt.Errorf("deleting plan: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return model.NotFound, fmt.Errorf("committing plan deletion: %w", err)
	}
	s.log.Debug().Int64("plan_id", planID).Msg("plan deleted")
	return model.Found, nil
}

func scanPlan(row *sql.Row) (*model.Plan, error) {
	var p model.Plan
	var enabled int
	var created string
	err := row.Scan(&p.ID, &p.CreatorUserID, &p.Question, &enabled, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	p.Enabled = enabled != 0
	p.CreationDate, err = time.Parse(timeLayout, created)
	if err != nil {
		return nil, fmt.Errorf("parsing creation date %q: %w", created, err)
	}
	return &p, nil
}

func (s *SQLiteStore) GetPlan(ctx context.Context, planID int64) (*model.Plan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, creator_user_id, question, enabled, creation_date FROM plans WHERE id = ?`, planID)
	return scanPlan(row)
}

// GetOwnedPlan returns model.ErrPlanNotFound both when the plan is missing
// and when ownerID did not create it.
func (s *SQLiteStore) GetOwnedPlan(ctx context.Context, planID, ownerID int64) (*model.Plan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, creator_user_id, question, enabled, creation_date FROM plans WHERE id = ? AND creator_user_id = ?`,
		planID, ownerID)
	return scanPlan(row)
}

func (s *SQLiteStore) queryPlanSummaries(ctx context.Context, query string, args ...any) ([]model.PlanSummary, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	defer rows.Close()

	var plans []model.PlanSummary
	for rows.Next() {
		var p model.PlanSummary
		if err := rows.Scan(&p.ID, &p.Question); err != nil {
			return nil, fmt.Errorf("reading plan row: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// ListOwnedPlans returns the published plans created by userID.
func (s *SQLiteStore) ListOwnedPlans(ctx context.Context, userID int64) ([]model.PlanSummary, error) {
	return s.queryPlanSummaries(ctx,
		`SELECT id, question FROM plans WHERE creator_user_id = ? AND enabled = 1 ORDER BY id`, userID)
}

// ListOwnedPlansFiltered returns up to limit published plans of userID whose
// question contains substring, newest first. Matching is case-insensitive
// under Unicode simple case folding, so it is done here rather than with
// LIKE, which only folds ASCII.
func (s *SQLiteStore) ListOwnedPlansFiltered(ctx context.Context, userID int64, substring string, limit int) ([]model.PlanSummary, error) {
	plans, err := s.queryPlanSummaries(ctx,
		`SELECT id, question FROM plans WHERE creator_user_id = ? AND enabled = 1 ORDER BY creation_date DESC, id DESC`,
		userID)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(substring)
	matched := make([]model.PlanSummary, 0, min(len(plans), max(limit, 0)))
	for _, p := range plans {
		if len(matched) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(p.Question), needle) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func (s *SQLiteStore) AddOption(ctx context.Context, planID int64, text string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO options (plan_id, option) VALUES (?, ?)`, planID, text)
	if err != nil {
		return 0, fmt.Errorf("adding option: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading option id: %w", err)
	}
	return id, nil
}

// RemoveOption deletes the option only when it belongs to planID. Its
// answers go with it through the foreign key cascade.
func (s *SQLiteStore) RemoveOption(ctx context.Context, planID, optionID int64) (model.Outcome, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM options WHERE plan_id = ? AND id = ?`, planID, optionID)
	if err != nil {
		return model.NotFound, fmt.Errorf("removing option: %w", err)
	}
	return outcome(res)
}

func (s *SQLiteStore) GetOption(ctx context.Context, optionID int64) (*model.Option, error) {
	var o model.Option
	err := s.db.QueryRowContext(ctx,
		`SELECT id, plan_id, option FROM options WHERE id = ?`, optionID).Scan(&o.ID, &o.PlanID, &o.Option)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrOptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading option: %w", err)
	}
	return &o, nil
}

func (s *SQLiteStore) ListOptions(ctx context.Context, planID int64) ([]model.Option, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, plan_id, option FROM options WHERE plan_id = ? ORDER BY id`, planID)
	if err != nil {
		return nil, fmt.Errorf("listing options: %w", err)
	}
	defer rows.Close()

	var options []model.Option
	for rows.Next() {
		var o model.Option
		if err := rows.Scan(&o.ID, &o.PlanID, &o.Option); err != nil {
			return nil, fmt.Errorf("reading option row: %w", err)
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

// ListOptionsWithTally counts YES and IF_NECESSARY answers per option.
// Options nobody answered are returned with zero counts.
func (s *SQLiteStore) ListOptionsWithTally(ctx context.Context, planID int64) ([]model.OptionTally, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			o.id,
			o.option,
			COALESCE(SUM(CASE WHEN a.answer = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN a.answer = ? THEN 1 ELSE 0 END), 0)
		FROM options o
		LEFT JOIN answers a ON a.option_id = o.id
		WHERE o.plan_id = ?
		GROUP BY o.id, o.option
		ORDER BY o.id`,
		model.AnswerYes, model.AnswerIfNecessary, planID)
	if err != nil {
		return nil, fmt.Errorf("tallying options: %w", err)
	}
	defer rows.Close()

	var tallies []model.OptionTally
	for rows.Next() {
		var t model.OptionTally
		if err := rows.Scan(&t.ID, &t.Option, &t.YesCount, &t.MaybeCount); err != nil {
			return nil, fmt.Errorf("reading tally row: %w", err)
		}
		tallies = append(tallies, t)
	}
	return tallies, rows.Err()
}

// ListOptionsWithNames is ListOptionsWithTally plus the voter names in each
// bucket. The join is folded here instead of with GROUP_CONCAT so names
// keep vote order and may contain any separator.
func (s *SQLiteStore) ListOptionsWithNames(ctx context.Context, planID int64) ([]model.OptionVoters, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.id, o.option, a.answering_user_name, a.answer
		FROM options o
		LEFT JOIN answers a ON a.option_id = o.id
		WHERE o.plan_id = ?
		ORDER BY o.id, a.id`, planID)
	if err != nil {
		return nil, fmt.Errorf("listing option voters: %w", err)
	}
	defer rows.Close()

	var voters []model.OptionVoters
	for rows.Next() {
		var (
			id     int64
			option string
			name   sql.NullString
			answer sql.NullInt64
		)
		if err := rows.Scan(&id, &option, &name, &answer); err != nil {
			return nil, fmt.Errorf("reading voter row: %w", err)
		}
		if len(voters) == 0 || voters[len(voters)-1].ID != id {
			voters = append(voters, model.OptionVoters{ID: id, Option: option})
		}
		if !answer.Valid {
			continue
		}
		cur := &voters[len(voters)-1]
		switch model.AnswerValue(answer.Int64) {
		case model.AnswerYes:
			cur.YesNames = append(cur.YesNames, name.String)
			cur.YesCount++
		case model.AnswerIfNecessary:
			cur.MaybeNames = append(cur.MaybeNames, name.String)
			cur.MaybeCount++
		}
	}
	return voters, rows.Err()
}

// GetVote returns the stored answer of userID for optionID, if any.
func (s *SQLiteStore) GetVote(ctx context.Context, optionID, userID int64) (model.AnswerValue, bool, error) {
	var v int
	err := s.db.QueryRowContext(ctx,
		`SELECT answer FROM answers WHERE option_id = ? AND answering_user_id = ? ORDER BY id LIMIT 1`,
		optionID, userID).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading vote: %w", err)
	}
	return model.AnswerValue(v), true, nil
}

// CastVote records value for (optionID, userID), inserting the first time
// and updating in place afterwards, so the pair never has two rows.
func (s *SQLiteStore) CastVote(ctx context.Context, optionID, userID int64, userName string, value model.AnswerValue) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE answers SET answer = ?, answering_user_name = ? WHERE option_id = ? AND answering_user_id = ?`,
		value, userName, optionID, userID)
	if err != nil {
		return fmt.Errorf("updating vote: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO answers (option_id, answering_user_id, answering_user_name, answer) VALUES (?, ?, ?, ?)`,
			optionID, userID, userName, value)
		if err != nil {
			return fmt.Errorf("inserting vote: %w", err)
		}
	}
	return tx.Commit()
}
