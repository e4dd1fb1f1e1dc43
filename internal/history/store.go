// Package history persists snippet execution records in PostgreSQL and
// serves the queries behind the dashboard. Snippet output is stored
// snappy-compressed; code and error text stay uncompressed so keyword
// search can run in SQL.
package history

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/golang/snappy"
	"github.com/jackc/pgconn"
	_ "github.com/jackc/pgx/v4/stdlib"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
)

var jsonit = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS executions (
	id BIGSERIAL PRIMARY KEY,
	sender_id TEXT NOT NULL DEFAULT '',
	code TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	output BYTEA NOT NULL,
	success BOOLEAN NOT NULL,
	error_text TEXT NOT NULL DEFAULT '',
	file_paths JSONB NOT NULL DEFAULT '[]',
	elapsed_ms BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS executions_created_at_idx ON executions (created_at DESC);
CREATE INDEX IF NOT EXISTS executions_sender_id_idx ON executions (sender_id);
`

// Store persists and queries execution records.
type Store struct {
	db *sql.DB
}

// NewStore opens a connection pool against the given DSN and verifies it is
// reachable, retrying for a short period so the service can start while the
// database is still coming up.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, ErrNoDatabase
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, ErrHistory.MsgErr("failed to open database", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	err = retry.Do(
		func() error {
			return db.PingContext(ctx)
		},
		retry.Attempts(5),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warn().Err(err).Uint("attempt", n).Msg("database not reachable, retrying")
		}),
	)
	if err != nil {
		db.Close()
		return nil, ErrHistory.MsgErr("failed to ping database", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaDDL); err != nil {
		return ErrHistory.MsgErr("failed to create schema", err)
	}
	return nil
}

// Insert stores one execution record and returns its assigned id.
func (s *Store) Insert(ctx context.Context, rec *Record) (int64, error) {
	paths := rec.FilePaths
	if paths == nil {
		paths = []string{}
	}
	pathsJSON, err := jsonit.Marshal(paths)
	if err != nil {
		return 0, ErrHistory.MsgErr("failed to serialize file paths", err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO executions (sender_id, code, description, output, success, error_text, file_paths, elapsed_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		rec.SenderID,
		rec.Code,
		rec.Description,
		compressOutput(rec.Output),
		rec.Success,
		rec.ErrorText,
		pathsJSON,
		rec.ElapsedMS,
	).Scan(&id)
	if err != nil {
		return 0, classifyDBError(err, "failed to insert execution record")
	}
	return id, nil
}

// Get returns a single record by id.
func (s *Store) Get(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, sender_id, code, description, output, success, error_text, file_paths, elapsed_ms, created_at
		FROM executions WHERE id = $1`, id)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, classifyDBError(err, "failed to load execution record")
	}
	return rec, nil
}

// List returns a page of records matching the filter, newest first, along
// with the total count of matching rows.
func (s *Store) List(ctx context.Context, f ListFilter) ([]*Record, int64, error) {
	page := f.Page
	if page < 1 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	where, args := buildFilter(f)

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM executions"+where, args...).Scan(&total); err != nil {
		return nil, 0, classifyDBError(err, "failed to count execution records")
	}

	query := `
		SELECT id, sender_id, code, description, output, success, error_text, file_paths, elapsed_ms, created_at
		FROM executions` + where +
		" ORDER BY created_at DESC, id DESC" +
		" LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, classifyDBError(err, "failed to list execution records")
	}
	defer rows.Close()

	records := []*Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, classifyDBError(err, "failed to scan execution record")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, classifyDBError(err, "failed to iterate execution records")
	}
	return records, total, nil
}

// Statistics aggregates totals, the success rate, the number of distinct
// senders and per-day counts for the last seven days.
func (s *Store) Statistics(ctx context.Context) (*Statistics, error) {
	st := &Statistics{Daily: []DailyCount{}}

	err := s.db.QueryRowContext(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE success),
		       count(DISTINCT sender_id)
		FROM executions`).Scan(&st.TotalExecutions, &st.SuccessCount, &st.DistinctSenders)
	if err != nil {
		return nil, classifyDBError(err, "failed to aggregate statistics")
	}
	st.FailureCount = st.TotalExecutions - st.SuccessCount
	if st.TotalExecutions > 0 {
		st.SuccessRate = float64(st.SuccessCount) / float64(st.TotalExecutions)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT to_char(created_at::date, 'YYYY-MM-DD'), count(*)
		FROM executions
		WHERE created_at >= now() - interval '7 days'
		GROUP BY created_at::date
		ORDER BY created_at::date`)
	if err != nil {
		return nil, classifyDBError(err, "failed to aggregate daily statistics")
	}
	defer rows.Close()

	for rows.Next() {
		var d DailyCount
		if err := rows.Scan(&d.Day, &d.Count); err != nil {
			return nil, classifyDBError(err, "failed to scan daily statistics")
		}
		st.Daily = append(st.Daily, d)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyDBError(err, "failed to iterate daily statistics")
	}
	return st, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec       Record
		output    []byte
		pathsJSON []byte
	)
	err := row.Scan(&rec.ID, &rec.SenderID, &rec.Code, &rec.Description, &output,
		&rec.Success, &rec.ErrorText, &pathsJSON, &rec.ElapsedMS, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}

	rec.Output, err = decompressOutput(output)
	if err != nil {
		return nil, err
	}

	rec.FilePaths = []string{}
	if len(pathsJSON) > 0 {
		if err := jsonit.Unmarshal(pathsJSON, &rec.FilePaths); err != nil {
			return nil, err
		}
	}
	return &rec, nil
}

func buildFilter(f ListFilter) (string, []any) {
	clauses := []string{}
	args := []any{}

	if f.SenderID != "" {
		args = append(args, f.SenderID)
		clauses = append(clauses, "sender_id = $"+strconv.Itoa(len(args)))
	}
	if f.Keyword != "" {
		args = append(args, "%"+escapeLike(f.Keyword)+"%")
		n := strconv.Itoa(len(args))
		clauses = append(clauses, "(code ILIKE $"+n+" OR error_text ILIKE $"+n+")")
	}
	if f.Success != nil {
		args = append(args, *f.Success)
		clauses = append(clauses, "success = $"+strconv.Itoa(len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	where := " WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		where += " AND " + c
	}
	return where, args
}

func compressOutput(s string) []byte {
	return snappy.Encode(nil, []byte(s))
}

func decompressOutput(b []byte) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	out, err := snappy.Decode(nil, b)
	if err != nil {
		return "", ErrHistory.MsgErr("failed to decompress output", err)
	}
	return string(out), nil
}

func classifyDBError(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return ErrHistory.MsgErr(msg+": "+pgErr.Code, err)
	}
	return ErrHistory.MsgErr(msg, err)
}

func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
