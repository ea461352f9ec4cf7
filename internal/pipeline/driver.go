// Package pipeline sequences the catalog statements against one warehouse
// session: schema reset, staging load, transform, disconnect.
package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"songdwh/internal/catalog"
	"songdwh/pkg/errors"
)

// Session is the single warehouse connection the driver owns for a run
type Session interface {
	ExecCommit(ctx context.Context, label, query string) error
	Close() error
}

// Opener obtains a connected session
type Opener func(ctx context.Context) (Session, error)

// State is a pipeline stage
type State int

const (
	Disconnected State = iota
	Connected
	SchemaReady
	Staged
	Transformed
)

var stateNames = map[State]string{
	Disconnected: "disconnected",
	Connected:    "connected",
	SchemaReady:  "schema-ready",
	Staged:       "staged",
	Transformed:  "transformed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Driver runs the statement sequences. Every statement is committed before
// the next starts; the first failure stops the run with no retry.
type Driver struct {
	catalog *catalog.Catalog
	open    Opener
	logger  *slog.Logger
	session Session
	state   State
}

// New creates a driver for the given catalog
func New(cat *catalog.Catalog, open Opener, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		catalog: cat,
		open:    open,
		logger:  logger,
		state:   Disconnected,
	}
}

// State returns the current stage
func (d *Driver) State() State {
	return d.state
}

// Connect opens the session
func (d *Driver) Connect(ctx context.Context) error {
	if d.state != Disconnected {
		return errors.StateError("connect", d.state.String())
	}

	session, err := d.open(ctx)
	if err != nil {
		return err
	}

	d.session = session
	d.state = Connected
	d.logger.Info("connected to warehouse")
	return nil
}

// ResetSchema drops then recreates every table. A failure part way leaves
// the schema partially recreated.
func (d *Driver) ResetSchema(ctx context.Context) error {
	if d.state != Connected {
		return errors.StateError("reset schema", d.state.String())
	}

	if err := d.run(ctx, "reset-schema", errors.ErrCodeSchemaReset,
		d.catalog.DropTables, d.catalog.CreateTables); err != nil {
		return err
	}

	d.state = SchemaReady
	return nil
}

// LoadStaging bulk-loads both staging tables. The schema reset normally
// runs as its own process, so a fresh connection is accepted here.
func (d *Driver) LoadStaging(ctx context.Context) error {
	if d.state != Connected && d.state != SchemaReady {
		return errors.StateError("load staging tables", d.state.String())
	}

	if err := d.run(ctx, "load-staging", errors.ErrCodeStagingFailed, d.catalog.CopyTables); err != nil {
		return err
	}

	d.state = Staged
	return nil
}

// Transform fills the fact and dimension tables from staging
func (d *Driver) Transform(ctx context.Context) error {
	if d.state != Staged {
		return errors.StateError("transform", d.state.String())
	}

	if err := d.run(ctx, "transform", errors.ErrCodeTransformFailed, d.catalog.InsertTables); err != nil {
		return err
	}

	d.state = Transformed
	return nil
}

// Disconnect releases the session. It is a no-op when already disconnected.
func (d *Driver) Disconnect() error {
	if d.session == nil {
		d.state = Disconnected
		return nil
	}

	err := d.session.Close()
	d.session = nil
	d.state = Disconnected
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConnectionFailed, "Failed to release warehouse session")
	}

	d.logger.Info("disconnected from warehouse")
	return nil
}

// RunSetup connects, resets the schema and disconnects. The session is
// released on every path.
func (d *Driver) RunSetup(ctx context.Context) (err error) {
	if err := d.Connect(ctx); err != nil {
		return err
	}
	defer func() { err = d.release(err) }()

	return d.ResetSchema(ctx)
}

// RunETL connects, loads staging, transforms and disconnects. The session
// is released on every path.
func (d *Driver) RunETL(ctx context.Context) (err error) {
	if err := d.Connect(ctx); err != nil {
		return err
	}
	defer func() { err = d.release(err) }()

	if err := d.LoadStaging(ctx); err != nil {
		return err
	}
	return d.Transform(ctx)
}

func (d *Driver) release(runErr error) error {
	closeErr := d.Disconnect()
	if runErr == nil {
		return closeErr
	}
	if closeErr != nil {
		d.logger.Error("failed to release session after error", "error", closeErr)
		return stderrors.Join(runErr, closeErr)
	}
	return runErr
}

func (d *Driver) run(ctx context.Context, stage string, code errors.ErrorCode, sequences ...[]catalog.Statement) error {
	start := time.Now()
	d.logger.Info("stage started", "stage", stage)

	for _, seq := range sequences {
		for _, stmt := range seq {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, code, fmt.Sprintf("%s cancelled before %s %s", stage, stmt.Kind, stmt.Table)).
					WithContext("stage", stage)
			}

			label := fmt.Sprintf("%s %s", stmt.Kind, stmt.Table)
			d.logger.Debug("executing statement", "stage", stage, "statement", label)

			if err := d.session.ExecCommit(ctx, label, stmt.SQL); err != nil {
				d.logger.Error("stage failed", "stage", stage, "statement", label, "error", err)
				return errors.Wrap(err, code, fmt.Sprintf("%s failed at %s", stage, label)).
					WithContext("stage", stage).
					WithContext("table", stmt.Table)
			}
		}
	}

	d.logger.Info("stage completed", "stage", stage, "duration", time.Since(start))
	return nil
}
