package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/de-tools/snapshot-sweeper/pkg/services/retention"
	s3store "github.com/de-tools/snapshot-sweeper/pkg/store/s3"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel   = "ERROR"
	DefaultSchedule   = "0 12 * * *"
	DefaultServerAddr = ":8080"
)

var ErrRetentionDaysMissing = errors.New("RETENTION_DAYS is not set")

type Settings struct {
	Region          string `mapstructure:"region"`
	LogLevel        string `mapstructure:"log_level"`
	SnapshotPattern string `mapstructure:"snapshot_pattern"`
	RetentionDays   int    `mapstructure:"retention_days"`
	CopiedTagKey    string `mapstructure:"copied_tag_key"`
	CopiedTagValue  string `mapstructure:"copied_tag_value"`
	DryRun          bool   `mapstructure:"dry_run"`
	ReportBucket    string `mapstructure:"report_bucket"`
	ReportPrefix    string `mapstructure:"report_prefix"`
	Schedule        string `mapstructure:"schedule"`
	ServerAddr      string `mapstructure:"server_addr"`
}

type LoadOptions struct {
	// File is an optional config file (yaml, json, toml, env...).
	File string
	// Flags override environment and file values when set.
	Flags *pflag.FlagSet
}

var envBindings = map[string][]string{
	"region":           {"DEST_REGION", "AWS_DEFAULT_REGION"},
	"log_level":        {"LOG_LEVEL"},
	"snapshot_pattern": {"SNAPSHOT_PATTERN"},
	"retention_days":   {"RETENTION_DAYS"},
	"copied_tag_key":   {"COPIED_TAG_KEY"},
	"copied_tag_value": {"COPIED_TAG_VALUE"},
	"dry_run":          {"DRY_RUN"},
	"report_bucket":    {"REPORT_BUCKET"},
	"report_prefix":    {"REPORT_PREFIX"},
	"schedule":         {"SCHEDULE"},
	"server_addr":      {"SERVER_ADDR"},
}

var flagBindings = map[string]string{
	"region":           "region",
	"log_level":        "log-level",
	"snapshot_pattern": "pattern",
	"retention_days":   "retention-days",
	"dry_run":          "dry-run",
	"schedule":         "schedule",
	"server_addr":      "addr",
}

// Load reads the settings once. A missing retention window or an invalid
// pattern is a configuration error.
func Load(opts LoadOptions) (*Settings, error) {
	v := viper.New()

	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("snapshot_pattern", retention.AllSnapshots)
	v.SetDefault("copied_tag_key", retention.DefaultCopiedTagKey)
	v.SetDefault("copied_tag_value", retention.DefaultCopiedTagValue)
	v.SetDefault("report_prefix", s3store.DefaultPrefix)
	v.SetDefault("schedule", DefaultSchedule)
	v.SetDefault("server_addr", DefaultServerAddr)

	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if opts.Flags != nil {
		for key, name := range flagBindings {
			flag := opts.Flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if !v.IsSet("retention_days") {
		return nil, ErrRetentionDaysMissing
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	settings.Region = strings.TrimSpace(settings.Region)
	settings.LogLevel = strings.TrimSpace(settings.LogLevel)

	if _, err := settings.Policy(); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Policy builds the retention policy described by the settings.
func (s *Settings) Policy() (retention.Policy, error) {
	policy, err := retention.NewPolicy(s.SnapshotPattern, s.RetentionDays)
	if err != nil {
		return retention.Policy{}, fmt.Errorf("invalid retention policy: %w", err)
	}
	return policy.WithCopiedTag(s.CopiedTagKey, s.CopiedTagValue), nil
}
