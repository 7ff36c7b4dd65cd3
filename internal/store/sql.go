// internal/store/sql.go
//
// SQL implementation of the Store interface over the games table
// (see internal/db/sql). Guesses and feedback are stored as JSON arrays;
// the bisector is stored through its remaining bounds (cur_low, cur_high).

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/numguess/internal/game"
)

type sqlStore struct{ db *sql.DB }

// NewSQLStore returns a Store backed by db. The schema must be migrated.
func NewSQLStore(db *sql.DB) Store { return &sqlStore{db: db} }

const gameColumns = `id, COALESCE(user_id,''), COALESCE(anonymous_id,''), range_low, range_high,
	cur_low, cur_high, max_guesses, guesses, feedback, status, started_at, COALESCE(finished_at,'')`

func (s *sqlStore) Save(ctx context.Context, g *game.Game) error {
	rec := g.Record()
	guesses, err := json.Marshal(rec.Guesses)
	if err != nil {
		return err
	}
	feedback, err := json.Marshal(rec.Feedback)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO games (id, user_id, anonymous_id, range_low, range_high, cur_low, cur_high,
		                   max_guesses, guesses, feedback, status, started_at, finished_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			user_id=excluded.user_id,
			anonymous_id=excluded.anonymous_id,
			cur_low=excluded.cur_low,
			cur_high=excluded.cur_high,
			guesses=excluded.guesses,
			feedback=excluded.feedback,
			status=excluded.status,
			finished_at=excluded.finished_at`,
		rec.ID, nullable(rec.UserID), nullable(rec.AnonID), rec.Low, rec.High, rec.CurLow, rec.CurHigh,
		rec.MaxGuesses, string(guesses), string(feedback), string(rec.Status),
		formatTime(rec.StartedAt), nullable(formatTime(rec.FinishedAt)),
	)
	if err != nil {
		return fmt.Errorf("save game %s: %w", rec.ID, err)
	}
	return nil
}

func (s *sqlStore) Get(ctx context.Context, id string) (*game.Game, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id=?`, id)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return g, err
}

func (s *sqlStore) ListByUser(ctx context.Context, userID string, limit int) ([]*game.Game, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+gameColumns+`
		FROM games WHERE user_id=? ORDER BY started_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*game.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *sqlStore) ClaimAnon(ctx context.Context, anonID, userID string) error {
	if anonID == "" || userID == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE games SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`, userID, anonID)
	return err
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanGame(sc scanner) (*game.Game, error) {
	var (
		rec                 game.Record
		guesses, feedback   string
		status              string
		started, finishedAt string
	)
	if err := sc.Scan(&rec.ID, &rec.UserID, &rec.AnonID, &rec.Low, &rec.High,
		&rec.CurLow, &rec.CurHigh, &rec.MaxGuesses, &guesses, &feedback, &status,
		&started, &finishedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(guesses), &rec.Guesses); err != nil {
		return nil, fmt.Errorf("decode guesses of %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(feedback), &rec.Feedback); err != nil {
		return nil, fmt.Errorf("decode feedback of %s: %w", rec.ID, err)
	}
	rec.Status = game.Status(status)
	rec.StartedAt = parseTime(started)
	rec.FinishedAt = parseTime(finishedAt)
	return game.Restore(rec)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

// parseTime parses stored timestamps; on error returns zero time.
func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
