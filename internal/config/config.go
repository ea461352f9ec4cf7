package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"
	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	"songdwh/internal/common"
	apperrors "songdwh/pkg/errors"
	"songdwh/pkg/models"
)

const (
	// DefaultConfigFile is read from the working directory when nothing else is given
	DefaultConfigFile = "dwh.cfg"

	// ConfigEnvVar overrides the config file location
	ConfigEnvVar = "DWH_CONFIG"

	// EnvPrefix prefixes per-key overrides, e.g. DWH_CLUSTER_DB_PASSWORD
	EnvPrefix = "DWH"

	// KeyringService is the OS keyring service holding cluster passwords
	KeyringService = "songdwh"
)

// Keys lists every recognized setting as section.key
var Keys = []string{
	"cluster.host",
	"cluster.db_name",
	"cluster.db_user",
	"cluster.db_password",
	"cluster.db_port",
	"cluster.ssl_mode",
	"cluster.engine",
	"cluster.connect_timeout",
	"iam_role.arn",
	"s3.log_data",
	"s3.log_jsonpath",
	"s3.song_data",
	"s3.region",
}

// GetConfigFile resolves the config file from an explicit path, the
// DWH_CONFIG environment variable, or the default name, in that order.
func GetConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if configFile := os.Getenv(ConfigEnvVar); configFile != "" {
		return configFile
	}
	return DefaultConfigFile
}

// Load reads the config file at path (INI unless the extension says YAML),
// applies defaults and DWH_* environment overrides, and falls back to the
// OS keyring for an empty password. A missing file is only an error when
// the path was given explicitly; otherwise env and defaults are used.
func Load(path string) (*models.Config, error) {
	explicit := path != ""
	configFile := GetConfigFile(path)

	v := newViper()

	cleanedPath, err := common.CleanPath(configFile)
	if err != nil {
		return nil, apperrors.ConfigError(fmt.Sprintf("invalid config file path: %v", err), "config")
	}

	if _, err := os.Stat(cleanedPath); err != nil {
		if !os.IsNotExist(err) || explicit || os.Getenv(ConfigEnvVar) != "" {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeConfigNotFound,
				fmt.Sprintf("config file %s not found", configFile)).
				WithContext("path", cleanedPath)
		}
	} else if err := readInto(v, cleanedPath); err != nil {
		return nil, err
	}

	var cfg models.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfigInvalid, "failed to decode configuration").
			WithContext("path", cleanedPath)
	}

	normalize(&cfg)

	if cfg.Cluster.DBPassword == "" && cfg.Cluster.DBUser != "" {
		cfg.Cluster.DBPassword = lookupPassword(cfg.Cluster.DBUser)
	}

	return &cfg, nil
}

// Marshal renders the config as YAML with the password masked
func Marshal(cfg *models.Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// StorePassword saves a cluster password in the OS keyring
func StorePassword(user, password string) error {
	if err := keyring.Set(KeyringService, user, password); err != nil {
		return fmt.Errorf("failed to store password for %s: %w", user, err)
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("cluster.db_port", 5439)
	v.SetDefault("cluster.ssl_mode", "prefer")
	v.SetDefault("cluster.engine", "redshift")
	v.SetDefault("cluster.connect_timeout", "30s")
	v.SetDefault("s3.region", "us-west-2")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range Keys {
		_ = v.BindEnv(key)
	}

	return v
}

func readInto(v *viper.Viper, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeConfigInvalid, "failed to read YAML config").
				WithContext("path", path)
		}
		return nil
	default:
		settings, err := readINI(path)
		if err != nil {
			return err
		}
		if err := v.MergeConfigMap(settings); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeConfigInvalid, "failed to merge INI config").
				WithContext("path", path)
		}
		return nil
	}
}

// readINI parses a dwh.cfg style file into section -> key -> value.
// Inline comments are not stripped so passwords may contain ';' or '#'.
func readINI(path string) (map[string]interface{}, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
		Insensitive:         true,
	}, path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfigInvalid, "failed to parse INI config").
			WithContext("path", path)
	}

	settings := make(map[string]interface{})
	for _, section := range f.Sections() {
		keys := section.KeysHash()
		if len(keys) == 0 {
			continue
		}
		values := make(map[string]interface{}, len(keys))
		for k, val := range keys {
			values[k] = val
		}
		settings[section.Name()] = values
	}

	return settings, nil
}

func normalize(cfg *models.Config) {
	fields := []*string{
		&cfg.Cluster.Host,
		&cfg.Cluster.DBName,
		&cfg.Cluster.DBUser,
		&cfg.Cluster.DBPassword,
		&cfg.Cluster.SSLMode,
		&cfg.Cluster.Engine,
		&cfg.IAMRole.ARN,
		&cfg.S3.LogData,
		&cfg.S3.LogJSONPath,
		&cfg.S3.SongData,
		&cfg.S3.Region,
	}
	for _, f := range fields {
		*f = Unquote(strings.TrimSpace(*f))
	}
	cfg.Cluster.Engine = strings.ToLower(cfg.Cluster.Engine)
}

// Unquote strips one pair of matching surrounding quotes
func Unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '\'' || first == '"') && first == last {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func lookupPassword(user string) string {
	password, err := keyring.Get(KeyringService, user)
	if err != nil {
		// keyring.ErrNotFound, or no keyring backend on this host
		return ""
	}
	return password
}
