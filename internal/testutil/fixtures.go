// Package testutil holds shared test fixtures: a sample configuration in
// both its file and struct forms, and a recording warehouse session.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"songdwh/internal/common"
	"songdwh/pkg/models"
)

// SampleINI is a complete dwh.cfg in the classic quoted style
const SampleINI = `[CLUSTER]
HOST=dwhcluster.abc123.us-west-2.redshift.amazonaws.com
DB_NAME=dwh
DB_USER=dwhuser
DB_PASSWORD=Passw0rd
DB_PORT=5439

[IAM_ROLE]
ARN='arn:aws:iam::123:role/dwhRole'

[S3]
LOG_DATA='s3://udacity-dend/log_data'
LOG_JSONPATH='s3://udacity-dend/log_json_path.json'
SONG_DATA='s3://udacity-dend/song_data'
`

// SampleConfig returns the configuration catalog tests render against
func SampleConfig() *models.Config {
	return &models.Config{
		Cluster: models.Cluster{
			Host:   "localhost",
			DBName: "dwh",
			DBUser: "dwhuser",
			DBPort: 5439,
		},
		IAMRole: models.IAMRole{ARN: "arn:aws:iam::123:role/x"},
		S3: models.S3{
			LogData:     "s3://bucket/log_data",
			LogJSONPath: "s3://bucket/log_json_path.json",
			SongData:    "s3://bucket/song_data",
		},
	}
}

// WriteConfig writes content as dwh.cfg in a fresh temp dir and returns its path
func WriteConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dwh.cfg")
	if err := os.WriteFile(path, []byte(content), common.FilePermissionSecure); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}
