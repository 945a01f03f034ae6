// Package testutil provides shared test utilities and mocks for
// testing the authgate application.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"authgate/internal/domain"
)

// MockCredentialStore implements domain.CredentialStore for testing.
// Set the Func fields to customize behavior; otherwise an in-memory
// record set backs the calls.
type MockCredentialStore struct {
	mu sync.RWMutex

	// Function overrides - set these to customize behavior
	FindUniqueFunc func(ctx context.Context, field string, value any) (domain.Record, error)
	CreateFunc     func(ctx context.Context, data domain.Record) (domain.Record, error)
	CountFunc      func(ctx context.Context) (int64, error)
	DeleteManyFunc func(ctx context.Context, filter domain.Record) (int64, error)

	// UsernameField drives duplicate detection in Create. Default
	// "username".
	UsernameField string

	// In-memory storage for simple tests
	Records []domain.Record

	nextID atomic.Int64
}

// NewMockCredentialStore creates a mock with an empty record set.
func NewMockCredentialStore() *MockCredentialStore {
	return &MockCredentialStore{UsernameField: "username"}
}

// Seed adds a record directly to the in-memory set, assigning an id
// when none is present.
func (m *MockCredentialStore) Seed(record domain.Record) domain.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := record["id"]; !ok {
		record["id"] = fmt.Sprintf("user-%d", m.nextID.Add(1))
	}
	m.Records = append(m.Records, record)
	return record
}

func (m *MockCredentialStore) FindUnique(ctx context.Context, field string, value any) (domain.Record, error) {
	if m.FindUniqueFunc != nil {
		return m.FindUniqueFunc(ctx, field, value)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.Records {
		if fmt.Sprint(r[field]) == fmt.Sprint(value) {
			return r.Clone(), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockCredentialStore) Create(ctx context.Context, data domain.Record) (domain.Record, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	username := m.UsernameField
	if username == "" {
		username = "username"
	}
	for _, r := range m.Records {
		if r[username] == data[username] {
			return nil, domain.ErrDuplicateUsername
		}
	}

	record := data.Clone()
	if _, ok := record["id"]; !ok {
		record["id"] = fmt.Sprintf("user-%d", m.nextID.Add(1))
	}
	m.Records = append(m.Records, record)
	return record.Clone(), nil
}

func (m *MockCredentialStore) Count(ctx context.Context) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.Records)), nil
}

func (m *MockCredentialStore) DeleteMany(ctx context.Context, filter domain.Record) (int64, error) {
	if m.DeleteManyFunc != nil {
		return m.DeleteManyFunc(ctx, filter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.Records[:0]
	var removed int64
	for _, r := range m.Records {
		matches := true
		for k, v := range filter {
			if fmt.Sprint(r[k]) != fmt.Sprint(v) {
				matches = false
				break
			}
		}
		if matches {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	m.Records = kept
	return removed, nil
}
