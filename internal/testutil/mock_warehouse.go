package testutil

import (
	"context"
	"sync"
)

// MockWarehouse records the statements a pipeline run sends to a warehouse
// session. It satisfies pipeline.Session and the report queries.
type MockWarehouse struct {
	mu sync.Mutex

	// Execution tracking
	Executed []string
	Queries  []string

	// Behavior control
	ExecErrors map[string]error // keyed by statement label
	CloseError error
	RowCounts  map[string]int64 // tables absent here do not exist

	Closed int
}

// NewMockWarehouse creates an empty mock session
func NewMockWarehouse() *MockWarehouse {
	return &MockWarehouse{
		ExecErrors: make(map[string]error),
		RowCounts:  make(map[string]int64),
	}
}

// ExecCommit records the label unless an error is configured for it
func (m *MockWarehouse) ExecCommit(_ context.Context, label, query string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.ExecErrors[label]; ok {
		return err
	}
	m.Executed = append(m.Executed, label)
	m.Queries = append(m.Queries, query)
	return nil
}

// CountRows returns the configured count
func (m *MockWarehouse) CountRows(_ context.Context, table string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RowCounts[table], nil
}

// TableExists reports whether a count is configured for table
func (m *MockWarehouse) TableExists(_ context.Context, table string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.RowCounts[table]
	return ok, nil
}

// Close counts the call and returns CloseError
func (m *MockWarehouse) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed++
	return m.CloseError
}
