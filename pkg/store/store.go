// Package store persists haikus in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/haikumesh/haikumesh/pkg/logger"
)

// ErrNotFound is returned when a haiku id does not exist.
var ErrNotFound = errors.New("haiku not found")

// Haiku is one stored poem with its quality score.
type Haiku struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a SQLite-backed haiku collection.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS haikus (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    text TEXT NOT NULL,
    score INTEGER NOT NULL CHECK (score BETWEEN 1 AND 100),
    created_at TIMESTAMP NOT NULL
)`

const createScoreIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_haikus_score ON haikus(score)`

// seedHaikus populate a fresh database so reads have something to show.
var seedHaikus = []struct {
	text  string
	score int
}{
	{"Old silent pond...\nA frog jumps into the pond,\nsplash! Silence again.", 85},
	{"An old silent pond...\nA frog jumps into the pond,\nsplash! Silence again.", 92},
	{"Light of a candle\nis transferred to another candle—\nspring twilight.", 78},
}

// Open opens (or creates) the store at path. ":memory:" gives an
// ephemeral store. An empty store is seeded with a few classics.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection avoids lock errors.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: logger.GetLogger()}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.seed(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) initSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create haikus table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, createScoreIndexSQL); err != nil {
		return fmt.Errorf("failed to create score index: %w", err)
	}
	return nil
}

func (s *Store) seed() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM haikus`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count haikus: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, seed := range seedHaikus {
		if _, err := s.Create(ctx, seed.text, seed.score); err != nil {
			return fmt.Errorf("failed to seed haikus: %w", err)
		}
	}
	s.logger.Info("seeded haiku store", "count", len(seedHaikus))
	return nil
}

// Create stores a new haiku. Score must be between 1 and 100.
func (s *Store) Create(ctx context.Context, text string, score int) (*Haiku, error) {
	if text == "" {
		return nil, fmt.Errorf("haiku text is required")
	}
	if score < 1 || score > 100 {
		return nil, fmt.Errorf("score must be between 1 and 100, got %d", score)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO haikus (text, score, created_at) VALUES (?, ?, ?)`,
		text, score, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert haiku: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted id: %w", err)
	}

	return &Haiku{ID: id, Text: text, Score: score, CreatedAt: now}, nil
}

// Get returns one haiku by id.
func (s *Store) Get(ctx context.Context, id int64) (*Haiku, error) {
	var h Haiku
	err := s.db.QueryRowContext(ctx,
		`SELECT id, text, score, created_at FROM haikus WHERE id = ?`, id).
		Scan(&h.ID, &h.Text, &h.Score, &h.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get haiku: %w", err)
	}
	return &h, nil
}

// List returns haikus in insertion order with pagination. A non-positive
// limit means 10.
func (s *Store) List(ctx context.Context, offset, limit int) ([]Haiku, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, score, created_at FROM haikus ORDER BY id LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list haikus: %w", err)
	}
	defer rows.Close()

	return scanHaikus(rows)
}

// Search returns haikus whose text contains query (when non-empty) and
// whose score is at least minScore (when positive). Both empty returns
// everything.
func (s *Store) Search(ctx context.Context, query string, minScore int) ([]Haiku, error) {
	sqlQuery := `SELECT id, text, score, created_at FROM haikus WHERE 1=1`
	var args []any

	if query != "" {
		sqlQuery += ` AND text LIKE ?`
		args = append(args, "%"+query+"%")
	}
	if minScore > 0 {
		sqlQuery += ` AND score >= ?`
		args = append(args, minScore)
	}
	sqlQuery += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search haikus: %w", err)
	}
	defer rows.Close()

	return scanHaikus(rows)
}

// Delete removes a haiku by id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM haikus WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete haiku: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func scanHaikus(rows *sql.Rows) ([]Haiku, error) {
	var haikus []Haiku
	for rows.Next() {
		var h Haiku
		if err := rows.Scan(&h.ID, &h.Text, &h.Score, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan haiku: %w", err)
		}
		haikus = append(haikus, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read haikus: %w", err)
	}
	return haikus, nil
}
