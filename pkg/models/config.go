package models

import "time"

// Config is the effective pipeline configuration. Section and key names
// follow dwh.cfg; YAML files use the same names in lower case.
type Config struct {
	Cluster Cluster `yaml:"cluster" mapstructure:"cluster"`
	IAMRole IAMRole `yaml:"iam_role" mapstructure:"iam_role"`
	S3      S3      `yaml:"s3" mapstructure:"s3"`
}

// Cluster holds the warehouse connection settings
type Cluster struct {
	Host           string        `yaml:"host" mapstructure:"host"`
	DBName         string        `yaml:"db_name" mapstructure:"db_name"`
	DBUser         string        `yaml:"db_user" mapstructure:"db_user"`
	DBPassword     string        `yaml:"db_password" mapstructure:"db_password"`
	DBPort         int           `yaml:"db_port" mapstructure:"db_port"`
	SSLMode        string        `yaml:"ssl_mode" mapstructure:"ssl_mode"`
	Engine         string        `yaml:"engine" mapstructure:"engine"` // "redshift" or "postgres"
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`
}

// IAMRole is the role the warehouse assumes to read object storage
type IAMRole struct {
	ARN string `yaml:"arn" mapstructure:"arn"`
}

// S3 holds the object storage locations of the raw data
type S3 struct {
	LogData     string `yaml:"log_data" mapstructure:"log_data"`
	LogJSONPath string `yaml:"log_jsonpath" mapstructure:"log_jsonpath"`
	SongData    string `yaml:"song_data" mapstructure:"song_data"`
	Region      string `yaml:"region" mapstructure:"region"`
}

// Redacted returns a copy with the password masked, for display.
func (c Config) Redacted() Config {
	if c.Cluster.DBPassword != "" {
		c.Cluster.DBPassword = "********"
	}
	return c
}
