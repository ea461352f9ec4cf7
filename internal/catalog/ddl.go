package catalog

import (
	"fmt"
	"strings"
)

// Table names
const (
	StagingEvents = "staging_events"
	StagingSongs  = "staging_songs"
	Songplays     = "songplays"
	Users         = "users"
	Songs         = "songs"
	Artists       = "artists"
	Time          = "time"
)

type column struct {
	name     string
	typ      string
	identity bool
	notNull  bool
	sortKey  bool
	distKey  bool
}

type table struct {
	name    string
	columns []column
}

// tables is in drop/create order
var tables = []table{
	{
		name: StagingEvents,
		columns: []column{
			{name: "event_id", typ: "INT", identity: true},
			{name: "artist", typ: "VARCHAR"},
			{name: "auth", typ: "VARCHAR"},
			{name: "first_name", typ: "VARCHAR"},
			{name: "gender", typ: "VARCHAR"},
			{name: "item_in_session", typ: "INT"},
			{name: "last_name", typ: "VARCHAR"},
			{name: "length", typ: "FLOAT"},
			{name: "level", typ: "VARCHAR"},
			{name: "location", typ: "VARCHAR"},
			{name: "method", typ: "VARCHAR"},
			{name: "page", typ: "VARCHAR"},
			{name: "registration", typ: "FLOAT"},
			{name: "session_id", typ: "INT", sortKey: true, distKey: true},
			{name: "song", typ: "VARCHAR"},
			{name: "status", typ: "INT"},
			{name: "ts", typ: "BIGINT"},
			{name: "user_agent", typ: "VARCHAR"},
			{name: "user_id", typ: "INT"},
		},
	},
	{
		name: StagingSongs,
		columns: []column{
			{name: "num_songs", typ: "VARCHAR"},
			{name: "artist_id", typ: "VARCHAR", sortKey: true, distKey: true},
			{name: "artist_latitude", typ: "FLOAT"},
			{name: "artist_longitude", typ: "FLOAT"},
			{name: "artist_location", typ: "VARCHAR"},
			{name: "artist_name", typ: "VARCHAR"},
			{name: "song_id", typ: "VARCHAR"},
			{name: "title", typ: "VARCHAR"},
			{name: "duration", typ: "FLOAT"},
			{name: "year", typ: "INT"},
		},
	},
	{
		name: Songplays,
		columns: []column{
			{name: "songplay_id", typ: "INT", identity: true, sortKey: true},
			{name: "start_time", typ: "TIMESTAMP", notNull: true},
			{name: "user_id", typ: "INT", notNull: true, distKey: true},
			{name: "level", typ: "VARCHAR"},
			{name: "song_id", typ: "VARCHAR"},
			{name: "artist_id", typ: "VARCHAR"},
			{name: "session_id", typ: "INT"},
			{name: "location", typ: "VARCHAR"},
			{name: "user_agent", typ: "VARCHAR"},
		},
	},
	{
		name: Users,
		columns: []column{
			{name: "user_id", typ: "INT", sortKey: true},
			{name: "first_name", typ: "VARCHAR"},
			{name: "last_name", typ: "VARCHAR"},
			{name: "gender", typ: "VARCHAR"},
			{name: "level", typ: "VARCHAR"},
		},
	},
	{
		name: Songs,
		columns: []column{
			{name: "song_id", typ: "VARCHAR", sortKey: true},
			{name: "title", typ: "VARCHAR"},
			{name: "artist_id", typ: "VARCHAR"},
			{name: "year", typ: "INT"},
			{name: "duration", typ: "FLOAT"},
		},
	},
	{
		name: Artists,
		columns: []column{
			{name: "artist_id", typ: "VARCHAR", sortKey: true},
			{name: "artist_name", typ: "VARCHAR"},
			{name: "artist_location", typ: "VARCHAR"},
			{name: "artist_latitude", typ: "FLOAT"},
			{name: "artist_longitude", typ: "FLOAT"},
		},
	},
	{
		name: Time,
		columns: []column{
			{name: "start_time", typ: "TIMESTAMP", sortKey: true},
			{name: "hour", typ: "INT"},
			{name: "day", typ: "INT"},
			{name: "week", typ: "INT"},
			{name: "month", typ: "INT"},
			{name: "year", typ: "INT"},
			{name: "weekday", typ: "INT"},
		},
	},
}

func renderDrop(name string) string {
	return "DROP TABLE IF EXISTS " + name
}

func renderCreate(t table, engine Engine) string {
	defs := make([]string, len(t.columns))
	for i, c := range t.columns {
		defs[i] = "    " + renderColumn(c, engine)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s\n(\n%s\n)", t.name, strings.Join(defs, ",\n"))
}

func renderColumn(c column, engine Engine) string {
	parts := []string{c.name, c.typ}

	if c.identity {
		switch engine {
		case Postgres:
			parts = append(parts, "GENERATED BY DEFAULT AS IDENTITY (START WITH 0 MINVALUE 0)")
		default:
			parts = append(parts, "IDENTITY(0,1)")
		}
	}
	if c.notNull {
		parts = append(parts, "NOT NULL")
	}
	if engine == Redshift {
		if c.sortKey {
			parts = append(parts, "SORTKEY")
		}
		if c.distKey {
			parts = append(parts, "DISTKEY")
		}
	}

	return strings.Join(parts, " ")
}
