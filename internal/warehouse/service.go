package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"songdwh/pkg/errors"
)

// DriverName is the database/sql driver used for Redshift and Postgres
const DriverName = "pgx"

// Service is a single warehouse session. All statements run on one pinned
// connection; it is not safe for concurrent use.
type Service struct {
	db        *sql.DB
	conn      *sql.Conn
	config    Config
	connected bool
	logger    *slog.Logger
}

// Config holds warehouse connection configuration
type Config struct {
	Host           string
	Port           int
	Database       string
	User           string
	Password       string
	SSLMode        string
	ConnectTimeout time.Duration
}

// NewService creates a new warehouse service
func NewService(config Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		config: config,
		logger: logger,
	}
}

// NewServiceFromDB wraps an already opened pool. Connect still pins a
// connection from it.
func NewServiceFromDB(db *sql.DB, logger *slog.Logger) *Service {
	s := NewService(Config{}, logger)
	s.db = db
	return s
}

// Connect opens the pool, pins one connection and pings it
func (s *Service) Connect(ctx context.Context) error {
	if s.connected {
		return nil
	}

	if s.db == nil {
		if err := ValidateConfig(s.config); err != nil {
			return err
		}

		db, err := sql.Open(DriverName, s.dsn())
		if err != nil {
			return errors.ConnectionError("Failed to open warehouse connection", err).
				WithContext("host", s.config.Host)
		}
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		s.db = db
	}

	connCtx, cancel := s.connectContext(ctx)
	defer cancel()

	conn, err := s.db.Conn(connCtx)
	if err == nil {
		err = conn.PingContext(connCtx)
		if err != nil {
			conn.Close()
		}
	}
	if err != nil {
		s.db.Close()
		s.db = nil

		if strings.Contains(err.Error(), "password authentication failed") {
			return errors.Wrap(err, errors.ErrCodeAuthenticationFailed, "Authentication failed").
				WithSeverity(errors.SeverityCritical).
				WithContext("user", s.config.User).
				WithSuggestions(
					"Verify DB_USER and DB_PASSWORD in the [CLUSTER] section",
					"Check DWH_CLUSTER_DB_PASSWORD or the OS keyring entry",
				)
		}
		if connCtx.Err() == context.DeadlineExceeded {
			return errors.Wrap(err, errors.ErrCodeConnectionTimeout, "Timed out connecting to warehouse").
				WithSeverity(errors.SeverityCritical).
				WithContext("host", s.config.Host).
				WithContext("timeout", s.config.ConnectTimeout.String())
		}
		return errors.ConnectionError("Failed to connect to warehouse", err).
			WithContext("host", s.config.Host).
			WithContext("port", s.config.Port)
	}

	s.conn = conn
	s.connected = true
	s.logger.Debug("warehouse session opened", "host", s.config.Host, "database", s.config.Database)
	return nil
}

// Close releases the pinned connection and the pool. Safe to call twice.
func (s *Service) Close() error {
	if !s.connected {
		return nil
	}
	s.connected = false

	var connErr error
	if s.conn != nil {
		connErr = s.conn.Close()
		s.conn = nil
	}
	dbErr := s.db.Close()
	s.db = nil

	if connErr != nil {
		return fmt.Errorf("failed to close session: %w", connErr)
	}
	if dbErr != nil {
		return fmt.Errorf("failed to close connection: %w", dbErr)
	}

	s.logger.Debug("warehouse session closed")
	return nil
}

// IsConnected reports whether a session is open
func (s *Service) IsConnected() bool {
	return s.connected
}

// ExecCommit runs one statement in its own transaction and commits it, so
// each statement is durable before the next one starts. label names the
// statement in errors and logs.
func (s *Service) ExecCommit(ctx context.Context, label, query string) error {
	if !s.connected {
		return errors.New(errors.ErrCodeNotConnected, "Not connected to warehouse").
			WithSuggestions("Call Connect() before executing SQL")
	}

	start := time.Now()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSQLTransaction, "Failed to begin transaction").
			WithContext("statement", label)
	}

	res, err := tx.ExecContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return errors.SQLError(fmt.Sprintf("Failed to execute %s", label), query, err).
			WithContext("statement", label)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeSQLTransaction, "Failed to commit transaction").
			WithContext("statement", label)
	}

	attrs := []any{"statement", label, "duration", time.Since(start)}
	if n, err := res.RowsAffected(); err == nil {
		attrs = append(attrs, "rows", n)
	}
	s.logger.Debug("statement committed", attrs...)

	return nil
}

// CountRows returns the number of rows in a table
func (s *Service) CountRows(ctx context.Context, table string) (int64, error) {
	if !s.connected {
		return 0, errors.New(errors.ErrCodeNotConnected, "Not connected to warehouse")
	}

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)

	var n int64
	if err := s.conn.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, errors.SQLError(fmt.Sprintf("Failed to count rows in %s", table), query, err).
			WithContext("table", table)
	}
	return n, nil
}

// TableExists reports whether a table is visible on the search path
func (s *Service) TableExists(ctx context.Context, table string) (bool, error) {
	if !s.connected {
		return false, errors.New(errors.ErrCodeNotConnected, "Not connected to warehouse")
	}

	const query = `SELECT COUNT(*) FROM information_schema.tables
WHERE table_schema = ANY (current_schemas(false)) AND table_name = $1`

	var n int64
	if err := s.conn.QueryRowContext(ctx, query, table).Scan(&n); err != nil {
		return false, errors.SQLError("Failed to look up table", query, err).
			WithContext("table", table)
	}
	return n > 0, nil
}

// Helper methods

// connectContext bounds connection setup only; statements get no timeout
func (s *Service) connectContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.ConnectTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.config.ConnectTimeout)
}

func (s *Service) dsn() string {
	params := []struct{ key, value string }{
		{"host", s.config.Host},
		{"port", strconv.Itoa(s.config.Port)},
		{"dbname", s.config.Database},
		{"user", s.config.User},
		{"password", s.config.Password},
	}
	if s.config.SSLMode != "" {
		params = append(params, struct{ key, value string }{"sslmode", s.config.SSLMode})
	}

	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, fmt.Sprintf("%s=%s", p.key, quoteDSNValue(p.value)))
	}
	return strings.Join(parts, " ")
}

// quoteDSNValue single-quotes a keyword/value DSN value, escaping
// backslashes and quotes.
func quoteDSNValue(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

// ValidateConfig validates the warehouse configuration
func ValidateConfig(config Config) error {
	if config.Host == "" {
		return errors.MissingConfigError("host")
	}
	if config.Database == "" {
		return errors.MissingConfigError("database name")
	}
	if config.User == "" {
		return errors.MissingConfigError("user")
	}
	if config.Port <= 0 || config.Port > 65535 {
		return errors.ConfigError(fmt.Sprintf("port %d is out of range", config.Port), "db_port")
	}
	return nil
}
