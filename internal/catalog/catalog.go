// Package catalog holds the SQL text of the star schema: table drops and
// creates, the two staging COPY statements and the five mart INSERTs, plus
// the four ordered sequences the pipeline runs.
package catalog

import (
	"fmt"
	"strings"

	"songdwh/pkg/models"
)

// Kind groups statements into the four pipeline sequences
type Kind string

const (
	KindDrop   Kind = "drop"
	KindCreate Kind = "create"
	KindCopy   Kind = "copy"
	KindInsert Kind = "insert"
)

// Engine selects the SQL dialect the DDL and transforms are rendered for
type Engine string

const (
	// Redshift is the production warehouse
	Redshift Engine = "redshift"
	// Postgres drops the physical layout hints so the schema and transforms
	// run on a plain Postgres server. COPY still requires Redshift.
	Postgres Engine = "postgres"
)

// DefaultRegion is used when the config carries no S3 region
const DefaultRegion = "us-west-2"

// ParseEngine maps a config value to an Engine; empty means Redshift
func ParseEngine(s string) (Engine, error) {
	switch Engine(strings.ToLower(strings.TrimSpace(s))) {
	case "", Redshift:
		return Redshift, nil
	case Postgres:
		return Postgres, nil
	default:
		return "", fmt.Errorf("unknown engine %q (want %q or %q)", s, Redshift, Postgres)
	}
}

// Statement is one SQL statement and the table it targets
type Statement struct {
	Kind  Kind
	Table string
	SQL   string
}

// Catalog is the full set of statements, built once from config
type Catalog struct {
	Engine       Engine
	DropTables   []Statement
	CreateTables []Statement
	CopyTables   []Statement
	InsertTables []Statement
}

// New builds the Redshift catalog
func New(cfg *models.Config) *Catalog {
	return NewForEngine(cfg, Redshift)
}

// NewForEngine builds the catalog for the given dialect. The config values
// are substituted into the COPY statements verbatim and never validated.
func NewForEngine(cfg *models.Config, engine Engine) *Catalog {
	c := &Catalog{Engine: engine}

	for _, t := range tables {
		c.DropTables = append(c.DropTables, Statement{
			Kind:  KindDrop,
			Table: t.name,
			SQL:   renderDrop(t.name),
		})
		c.CreateTables = append(c.CreateTables, Statement{
			Kind:  KindCreate,
			Table: t.name,
			SQL:   renderCreate(t, engine),
		})
	}

	region := cfg.S3.Region
	if region == "" {
		region = DefaultRegion
	}

	c.CopyTables = []Statement{
		{
			Kind:  KindCopy,
			Table: StagingEvents,
			SQL: RenderCopy(CopySpec{
				Table:     StagingEvents,
				Source:    cfg.S3.LogData,
				IAMRole:   cfg.IAMRole.ARN,
				Region:    region,
				JSONPaths: cfg.S3.LogJSONPath,
			}),
		},
		{
			Kind:  KindCopy,
			Table: StagingSongs,
			SQL: RenderCopy(CopySpec{
				Table:   StagingSongs,
				Source:  cfg.S3.SongData,
				IAMRole: cfg.IAMRole.ARN,
				Region:  region,
			}),
		},
	}

	c.InsertTables = []Statement{
		{Kind: KindInsert, Table: Songplays, SQL: songplayInsert},
		{Kind: KindInsert, Table: Users, SQL: userInsert},
		{Kind: KindInsert, Table: Songs, SQL: songInsert},
		{Kind: KindInsert, Table: Artists, SQL: artistInsert},
		{Kind: KindInsert, Table: Time, SQL: timeInsert(engine)},
	}

	return c
}

// Sequence returns the ordered statements of one kind
func (c *Catalog) Sequence(kind Kind) []Statement {
	switch kind {
	case KindDrop:
		return c.DropTables
	case KindCreate:
		return c.CreateTables
	case KindCopy:
		return c.CopyTables
	case KindInsert:
		return c.InsertTables
	default:
		return nil
	}
}

// Tables returns the seven table names in create order
func Tables() []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.name
	}
	return names
}
