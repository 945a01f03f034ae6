package domain

import "context"

// Record is an opaque user record: field name -> value. The auth core
// only understands the configured id, username, hashed-password and
// salt fields; everything else passes through untouched.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// String returns the named field as a string, or "" if absent or not
// a string.
func (r Record) String(field string) string {
	s, _ := r[field].(string)
	return s
}

// CredentialStore defines the interface for user credential persistence.
// Implementations own the record shape; the auth core issues at most one
// read and, for signup, one read-then-write per request.
type CredentialStore interface {
	// FindUnique returns the single record whose field equals value,
	// or ErrUserNotFound.
	FindUnique(ctx context.Context, field string, value any) (Record, error)

	// Create inserts a new record and returns it with any
	// store-generated fields filled in. A unique-constraint violation
	// on the username field is reported as ErrDuplicateUsername.
	Create(ctx context.Context, data Record) (Record, error)

	// Count returns the total number of records.
	Count(ctx context.Context) (int64, error)

	// DeleteMany removes every record matching all fields of filter
	// and returns the number removed. An empty filter removes all.
	DeleteMany(ctx context.Context, filter Record) (int64, error)
}
