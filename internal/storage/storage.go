// Package storage persists polls, responses and demographic profiles in a SQL
// database. SQLite (modernc.org/sqlite, pure Go) is the default backend;
// PostgreSQL is available through lib/pq with the same schema.
//
// Queries are written with "?" placeholders and rebound for drivers that use
// numbered parameters. Option lists and response values are stored as JSON
// text so both backends share one schema.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/rewired-gh/pollsight/internal/models"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	// ErrNotFound is returned when a poll or user record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateResponse is returned when a user answers the same poll twice.
	ErrDuplicateResponse = errors.New("user has already responded to this poll")
	// ErrAlreadyExists is returned when creating a poll whose ID is taken.
	ErrAlreadyExists = errors.New("already exists")
)

// Storage is a SQL-backed store safe for concurrent use.
type Storage struct {
	db     *sql.DB
	driver string
}

// New opens the database and creates the schema if needed. For SQLite an empty
// dsn or ":memory:" gives a private in-memory database.
func New(driver, dsn string) (*Storage, error) {
	switch driver {
	case "", DriverSQLite:
		driver = DriverSQLite
		if dsn == "" {
			dsn = ":memory:"
		}
	case DriverPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("postgres driver requires a dsn")
		}
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", driver)
	}

	if driver == DriverSQLite {
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite {
		// SQLite allows a single writer, and every new connection to
		// ":memory:" would see an empty database.
		db.SetMaxOpenConns(1)
	}

	s := &Storage{db: db, driver: driver}
	if err := s.createSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// ensureDir creates the parent directory of a SQLite file path. In-memory
// databases and "file:" URIs are left alone.
func ensureDir(dsn string) error {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	path := dsn
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// rebind rewrites "?" placeholders as "$1", "$2", ... for postgres.
func (s *Storage) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// isUniqueViolation recognizes unique constraint failures from both drivers.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT:
			return true
		}
	}
	return false
}

type rowScanner interface {
	Scan(dest ...any) error
}

const pollColumns = `id, creator_id, question, description, category, type, min_value, max_value,
	options, demographic_filters, upvotes, response_count, is_active, created_at`

func scanPoll(row rowScanner) (*models.Poll, error) {
	var (
		p                models.Poll
		pollType         string
		minValue         sql.NullFloat64
		maxValue         sql.NullFloat64
		options, filters string
		createdAt        int64
	)
	err := row.Scan(&p.ID, &p.CreatorID, &p.Question, &p.Description, &p.Category, &pollType,
		&minValue, &maxValue, &options, &filters, &p.Upvotes, &p.ResponseCount, &p.IsActive, &createdAt)
	if err != nil {
		return nil, err
	}

	p.Type = models.PollType(pollType)
	if minValue.Valid {
		v := minValue.Float64
		p.MinValue = &v
	}
	if maxValue.Valid {
		v := maxValue.Float64
		p.MaxValue = &v
	}
	if err := json.Unmarshal([]byte(options), &p.Options); err != nil {
		return nil, fmt.Errorf("failed to decode options of poll %s: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(filters), &p.DemographicFilters); err != nil {
		return nil, fmt.Errorf("failed to decode demographic filters of poll %s: %w", p.ID, err)
	}
	p.CreatedAt = time.Unix(0, createdAt).UTC()
	return &p, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func marshalJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
