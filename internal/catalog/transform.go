package catalog

import "fmt"

// startTimeExpr converts epoch milliseconds to a timestamp, truncated to the second
const startTimeExpr = "TIMESTAMP 'epoch' + %s::INT8 / 1000 * INTERVAL '1 second'"

// songplayInsert emits exactly one row per NextSong event; when several
// songs share a title and artist name the lowest song_id is used
var songplayInsert = `INSERT INTO songplays (start_time, user_id, level, song_id, artist_id, session_id, location, user_agent)
SELECT
    ` + fmt.Sprintf(startTimeExpr, "e.ts") + ` AS start_time,
    e.user_id,
    e.level,
    s.song_id,
    s.artist_id,
    e.session_id,
    e.location,
    e.user_agent
FROM staging_events e
LEFT JOIN (
    SELECT
        title,
        artist_name,
        song_id,
        artist_id,
        ROW_NUMBER() OVER (PARTITION BY title, artist_name ORDER BY song_id) AS match_rank
    FROM staging_songs
) s
    ON e.song = s.title
    AND e.artist = s.artist_name
    AND s.match_rank = 1
WHERE e.page = 'NextSong'`

// userInsert keeps the latest snapshot per user; rows without ts rank last
const userInsert = `INSERT INTO users (user_id, first_name, last_name, gender, level)
WITH ranked_users AS (
    SELECT
        user_id,
        first_name,
        last_name,
        gender,
        level,
        ROW_NUMBER() OVER (PARTITION BY user_id ORDER BY ts DESC NULLS LAST) AS recency_rank
    FROM staging_events
    WHERE page = 'NextSong'
)
SELECT
    user_id,
    first_name,
    last_name,
    gender,
    level
FROM ranked_users
WHERE recency_rank = 1`

const songInsert = `INSERT INTO songs (song_id, title, artist_id, year, duration)
SELECT DISTINCT
    song_id,
    title,
    artist_id,
    year,
    duration
FROM staging_songs`

const artistInsert = `INSERT INTO artists (artist_id, artist_name, artist_location, artist_latitude, artist_longitude)
SELECT DISTINCT
    artist_id,
    artist_name,
    artist_location,
    artist_latitude,
    artist_longitude
FROM staging_songs`

// timeInsert extracts calendar parts per distinct start time. Postgres has
// no weekday part; dow uses the same 0 = Sunday numbering.
func timeInsert(engine Engine) string {
	weekday := "weekday"
	if engine == Postgres {
		weekday = "dow"
	}

	return `INSERT INTO time (start_time, hour, day, week, month, year, weekday)
WITH start_times AS (
    SELECT DISTINCT
        ` + fmt.Sprintf(startTimeExpr, "ts") + ` AS start_time
    FROM staging_events
    WHERE page = 'NextSong'
)
SELECT
    start_time,
    EXTRACT(hour FROM start_time),
    EXTRACT(day FROM start_time),
    EXTRACT(week FROM start_time),
    EXTRACT(month FROM start_time),
    EXTRACT(year FROM start_time),
    EXTRACT(` + weekday + ` FROM start_time)
FROM start_times`
}
