package test

import (
	"context"
	"database/sql"

	"github.com/stretchr/testify/mock"

	dbadapter "github.com/tigerroll/surfin-etl/pkg/batch/adapter/database"
	dbconfig "github.com/tigerroll/surfin-etl/pkg/batch/adapter/database/config"
)

// MockDBConnection is a testify mock of dbadapter.DBConnection.
type MockDBConnection struct {
	mock.Mock
}

func (m *MockDBConnection) Close() error { return m.Called().Error(0) }
func (m *MockDBConnection) Type() string { return m.Called().String(0) }
func (m *MockDBConnection) Name() string { return m.Called().String(0) }

func (m *MockDBConnection) RefreshConnection(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockDBConnection) Config() dbconfig.DatabaseConfig {
	return m.Called().Get(0).(dbconfig.DatabaseConfig)
}

func (m *MockDBConnection) GetSQLDB() (*sql.DB, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sql.DB), args.Error(1)
}

func (m *MockDBConnection) ExecuteQueryAdvanced(ctx context.Context, target interface{}, query map[string]interface{}, orderBy string, limit int) error {
	return m.Called(ctx, target, query, orderBy, limit).Error(0)
}

func (m *MockDBConnection) Count(ctx context.Context, model interface{}, query map[string]interface{}) (int64, error) {
	args := m.Called(ctx, model, query)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDBConnection) IsTableNotExistError(err error) bool {
	return m.Called(err).Bool(0)
}

// MockDBConnectionResolver is a mock implementation of dbadapter.DBConnectionResolver.
type MockDBConnectionResolver struct {
	mock.Mock
}

// ResolveDBConnection mocks the ResolveDBConnection method.
func (m *MockDBConnectionResolver) ResolveDBConnection(ctx context.Context, name string) (dbadapter.DBConnection, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(dbadapter.DBConnection), args.Error(1)
}

// testSingleConnectionResolver always resolves to one predefined connection.
type testSingleConnectionResolver struct {
	conn dbadapter.DBConnection
}

func (r *testSingleConnectionResolver) ResolveDBConnection(ctx context.Context, name string) (dbadapter.DBConnection, error) {
	return r.conn, nil
}

// NewTestSingleConnectionResolver creates a resolver that returns conn for every name.
func NewTestSingleConnectionResolver(conn dbadapter.DBConnection) dbadapter.DBConnectionResolver {
	return &testSingleConnectionResolver{conn: conn}
}

var (
	_ dbadapter.DBConnection         = (*MockDBConnection)(nil)
	_ dbadapter.DBConnectionResolver = (*MockDBConnectionResolver)(nil)
)
