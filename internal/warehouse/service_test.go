package warehouse

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"songdwh/pkg/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	service := NewServiceFromDB(db, discardLogger())
	require.NoError(t, service.Connect(context.Background()))
	return service, mock
}

func TestNewService(t *testing.T) {
	config := Config{
		Host:     "dwhcluster.abc123.us-west-2.redshift.amazonaws.com",
		Port:     5439,
		Database: "dwh",
		User:     "dwhuser",
		Password: "secret",
		SSLMode:  "require",
	}

	service := NewService(config, nil)

	assert.NotNil(t, service)
	assert.Equal(t, config, service.config)
	assert.False(t, service.IsConnected())
	assert.NotNil(t, service.logger)
}

func TestValidateConfig(t *testing.T) {
	valid := Config{Host: "h", Port: 5439, Database: "dwh", User: "u"}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantError bool
		errorMsg  string
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "missing host", mutate: func(c *Config) { c.Host = "" }, wantError: true, errorMsg: "host is required"},
		{name: "missing database", mutate: func(c *Config) { c.Database = "" }, wantError: true, errorMsg: "database name is required"},
		{name: "missing user", mutate: func(c *Config) { c.User = "" }, wantError: true, errorMsg: "user is required"},
		{name: "zero port", mutate: func(c *Config) { c.Port = 0 }, wantError: true, errorMsg: "port 0 is out of range"},
		{name: "port too large", mutate: func(c *Config) { c.Port = 70000 }, wantError: true, errorMsg: "out of range"},
		{name: "empty password allowed", mutate: func(c *Config) { c.Password = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid
			tt.mutate(&config)
			err := ValidateConfig(config)
			if tt.wantError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConnectRejectsInvalidConfig(t *testing.T) {
	service := NewService(Config{Port: 5439}, discardLogger())

	err := service.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigMissing, errors.GetErrorCode(err))
	assert.False(t, service.IsConnected())
}

func TestDSN(t *testing.T) {
	service := NewService(Config{
		Host:     "example.com",
		Port:     5439,
		Database: "dwh",
		User:     "etl",
		Password: `p@ss 'w\rd`,
		SSLMode:  "require",
	}, nil)

	assert.Equal(t,
		`host='example.com' port='5439' dbname='dwh' user='etl' password='p@ss \'w\\rd' sslmode='require'`,
		service.dsn())

	service.config.SSLMode = ""
	assert.NotContains(t, service.dsn(), "sslmode")
}

func TestExecCommit(t *testing.T) {
	service, mock := newMockService(t)

	tests := []struct {
		name      string
		query     string
		setupMock func()
		wantError bool
		errorCode errors.ErrorCode
		errorMsg  string
	}{
		{
			name:  "successful execution",
			query: "DROP TABLE IF EXISTS users",
			setupMock: func() {
				mock.ExpectBegin()
				mock.ExpectExec("DROP TABLE IF EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectCommit()
			},
		},
		{
			name:  "statement failure rolls back",
			query: "INSERT INTO users SELECT 1",
			setupMock: func() {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO users SELECT 1").
					WillReturnError(fmt.Errorf(`relation "staging_events" does not exist`))
				mock.ExpectRollback()
			},
			wantError: true,
			errorCode: errors.ErrCodeSQLObjectNotFound,
			errorMsg:  "Failed to execute insert users",
		},
		{
			name:  "begin failure",
			query: "DROP TABLE IF EXISTS songs",
			setupMock: func() {
				mock.ExpectBegin().WillReturnError(fmt.Errorf("connection reset"))
			},
			wantError: true,
			errorCode: errors.ErrCodeSQLTransaction,
			errorMsg:  "Failed to begin transaction",
		},
		{
			name:  "commit failure",
			query: "DROP TABLE IF EXISTS time",
			setupMock: func() {
				mock.ExpectBegin()
				mock.ExpectExec("DROP TABLE IF EXISTS time").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectCommit().WillReturnError(fmt.Errorf("serializable isolation violation"))
			},
			wantError: true,
			errorCode: errors.ErrCodeSQLTransaction,
			errorMsg:  "Failed to commit transaction",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			label := "insert users"
			err := service.ExecCommit(context.Background(), label, tt.query)

			if tt.wantError {
				require.Error(t, err)
				assert.Equal(t, tt.errorCode, errors.GetErrorCode(err))
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestExecCommitNotConnected(t *testing.T) {
	service := NewService(Config{}, discardLogger())

	err := service.ExecCommit(context.Background(), "drop users", "DROP TABLE IF EXISTS users")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNotConnected, errors.GetErrorCode(err))
}

func TestCountRows(t *testing.T) {
	service, mock := newMockService(t)

	mock.ExpectQuery("SELECT COUNT(*) FROM songplays").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6820))

	n, err := service.CountRows(context.Background(), "songplays")
	require.NoError(t, err)
	assert.Equal(t, int64(6820), n)

	mock.ExpectQuery("SELECT COUNT(*) FROM users").
		WillReturnError(fmt.Errorf(`relation "users" does not exist`))

	_, err = service.CountRows(context.Background(), "users")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSQLObjectNotFound, errors.GetErrorCode(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	service := NewServiceFromDB(db, discardLogger())
	require.NoError(t, service.Connect(context.Background()))

	mock.ExpectQuery("information_schema.tables").
		WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("information_schema.tables").
		WithArgs("time").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	exists, err := service.TableExists(context.Background(), "users")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = service.TableExists(context.Background(), "time")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClose(t *testing.T) {
	service, mock := newMockService(t)
	mock.ExpectClose()

	require.NoError(t, service.Close())
	assert.False(t, service.IsConnected())

	// Second close is a no-op
	assert.NoError(t, service.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectContextTimeout(t *testing.T) {
	service := NewService(Config{ConnectTimeout: 50 * time.Millisecond}, nil)

	ctx, cancel := service.connectContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, time.Second)

	service.config.ConnectTimeout = 0
	ctx2, cancel2 := service.connectContext(context.Background())
	defer cancel2()
	_, ok = ctx2.Deadline()
	assert.False(t, ok)
}
