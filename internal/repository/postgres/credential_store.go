package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"authgate/internal/domain"
	"authgate/internal/observability"

	"github.com/lib/pq"
)

// CredentialStore implements domain.CredentialStore for PostgreSQL.
// The table name and the unique-username constraint are configurable so
// the store can back any field-name mapping the auth core is given.
type CredentialStore struct {
	db    *sql.DB
	table string

	// usernameConstraint, when set, narrows unique-violation mapping
	// to the username column's constraint. Empty maps any unique
	// violation on insert to ErrDuplicateUsername.
	usernameConstraint string
}

// NewCredentialStore creates a credential store over db for table.
func NewCredentialStore(db *sql.DB, table string) *CredentialStore {
	return &CredentialStore{db: db, table: table}
}

// WithUsernameConstraint sets the unique-constraint name checked when
// mapping insert failures to ErrDuplicateUsername.
func (s *CredentialStore) WithUsernameConstraint(name string) *CredentialStore {
	s.usernameConstraint = name
	return s
}

func (s *CredentialStore) observe(operation string, start time.Time) {
	observability.DBQueryDuration.WithLabelValues(operation, s.table).
		Observe(time.Since(start).Seconds())
}

// FindUnique returns the single record whose field equals value.
func (s *CredentialStore) FindUnique(ctx context.Context, field string, value any) (domain.Record, error) {
	defer s.observe("find_unique", time.Now())

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = $1",
		pq.QuoteIdentifier(s.table), pq.QuoteIdentifier(field))

	rows, err := s.db.QueryContext(ctx, query, value)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, domain.ErrUserNotFound
	}
	return scanRecord(rows)
}

// Create inserts a new record and returns it with store-generated
// fields (id, timestamps) filled in.
func (s *CredentialStore) Create(ctx context.Context, data domain.Record) (domain.Record, error) {
	defer s.observe("create", time.Now())

	// Deterministic column order keeps the statement stable for tests
	// and statement caches.
	columns := make([]string, 0, len(data))
	for k := range data {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, c := range columns {
		quoted[i] = pq.QuoteIdentifier(c)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = data[c]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		pq.QuoteIdentifier(s.table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		if IsUniqueViolation(err, s.usernameConstraint) {
			return nil, domain.ErrDuplicateUsername
		}
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			if IsUniqueViolation(err, s.usernameConstraint) {
				return nil, domain.ErrDuplicateUsername
			}
			return nil, err
		}
		return nil, sql.ErrNoRows
	}
	return scanRecord(rows)
}

// Count returns the total number of records in the table.
func (s *CredentialStore) Count(ctx context.Context) (int64, error) {
	defer s.observe("count", time.Now())

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", pq.QuoteIdentifier(s.table))

	var n int64
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// DeleteMany removes every record matching all fields of filter and
// returns the number removed. An empty filter removes all records.
func (s *CredentialStore) DeleteMany(ctx context.Context, filter domain.Record) (int64, error) {
	defer s.observe("delete_many", time.Now())

	query := fmt.Sprintf("DELETE FROM %s", pq.QuoteIdentifier(s.table))

	columns := make([]string, 0, len(filter))
	for k := range filter {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	args := make([]any, 0, len(columns))
	if len(columns) > 0 {
		conds := make([]string, len(columns))
		for i, c := range columns {
			conds[i] = fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(c), i+1)
			args = append(args, filter[c])
		}
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// scanRecord reads the current row into a Record keyed by column name.
// Byte slices are converted to strings; everything else passes through
// as the driver reports it.
func scanRecord(rows *sql.Rows) (domain.Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}

	record := make(domain.Record, len(columns))
	for i, c := range columns {
		if b, ok := values[i].([]byte); ok {
			record[c] = string(b)
			continue
		}
		record[c] = values[i]
	}
	return record, nil
}
