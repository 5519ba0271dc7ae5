package config

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/syssam/datascript/dialect"
	"github.com/syssam/datascript/dialect/sql"
	"github.com/syssam/datascript/script"
)

const (
	// EnvPrefix prefixes every environment override: DATASCRIPT_SCRIPT_TYPE
	// sets script.type.
	EnvPrefix = "DATASCRIPT"

	defaultTagName = "yaml"
)

// Config is the configuration of a datascript run.
type Config struct {
	Source    Source `yaml:"source"`
	Script    Script `yaml:"script"`
	Output    Output `yaml:"output"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Source says where the rows come from: a fixture or snapshot file, or a
// live database query.
type Source struct {
	Input         string            `yaml:"input"`
	Driver        string            `yaml:"driver"`
	DSN           string            `yaml:"dsn"`
	Table         string            `yaml:"table"`
	Where         string            `yaml:"where"`
	Keys          []string          `yaml:"keys"`
	Unique        []string          `yaml:"unique"`
	Identity      []string          `yaml:"identity"`
	ReadOnly      []string          `yaml:"readonly"`
	Relationships map[string]string `yaml:"relationships"`
	SlowQuery     time.Duration     `yaml:"slow_query"`
}

// Script shapes the generated script.
type Script struct {
	Type        script.ScriptType `yaml:"type"`
	Compat      dialect.Level     `yaml:"compat"`
	Transaction bool              `yaml:"transaction"`
	Progress    int               `yaml:"progress"`
	Database    string            `yaml:"database"`
	Comment     string            `yaml:"comment"`
	DateTime    string            `yaml:"datetime"`
	Modifiers   bool              `yaml:"modifiers"`
	Workers     int               `yaml:"workers"`
}

// Output says where scripts and their by-products are written.
type Output struct {
	Dir      string `yaml:"dir"`
	File     string `yaml:"file"`
	DDL      bool   `yaml:"ddl"`
	Snapshot string `yaml:"snapshot"`
	Watch    bool   `yaml:"watch"`
}

// Drivers are the database/sql driver names rows can be captured with.
var Drivers = []any{"pgx", "postgres", "mysql", "sqlite"}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Source),
		validation.Field(&c.Script),
		validation.Field(&c.LogLevel, validation.Required, validation.In("trace", "debug", "info", "warn", "error")),
		validation.Field(&c.LogFormat, validation.Required, validation.In("console", "json")),
	)
}

func (s Source) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Input, validation.When(s.Driver == "", validation.Required.Error("input or driver is required"))),
		validation.Field(&s.Driver, validation.In(Drivers...)),
		validation.Field(&s.DSN, validation.When(s.Driver != "", validation.Required)),
		validation.Field(&s.Table, validation.When(s.Driver != "", validation.Required)),
		validation.Field(&s.SlowQuery, validation.Min(time.Duration(0))),
	)
}

func (s Script) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Type, validation.By(func(any) error {
			if !s.Type.Valid() {
				return fmt.Errorf("unknown script type %d", int(s.Type))
			}
			return nil
		})),
		validation.Field(&s.Progress, validation.Min(0)),
		validation.Field(&s.Workers, validation.Min(0)),
	)
}

// DateTimeLayout resolves the datetime setting: legacy (the default), iso,
// or a Go time layout.
func (s Script) DateTimeLayout() string {
	switch strings.ToLower(strings.TrimSpace(s.DateTime)) {
	case "", "legacy":
		return sql.LegacyDateTime
	case "iso":
		return sql.ISODateTime
	}
	return s.DateTime
}

// TableOptions returns the table options of the script settings.
func (s Script) TableOptions() []script.TableOption {
	opts := []script.TableOption{
		script.WithCompatibility(s.Compat),
		script.WithDateTimeLayout(s.DateTimeLayout()),
	}
	if s.Database != "" {
		opts = append(opts, script.WithDatabase(s.Database))
	}
	if s.Comment != "" {
		opts = append(opts, script.WithComment(s.Comment))
	}
	if !s.Modifiers {
		opts = append(opts, script.WithoutModifiers())
	}
	return opts
}

// GeneratorOptions returns the generator options of the script settings.
func (s Script) GeneratorOptions() []script.Option {
	return []script.Option{
		script.WithType(s.Type),
		script.WithTransaction(s.Transaction),
		script.WithProgressGap(s.Progress),
	}
}

// ScanOptions returns the column flags database/sql cannot report.
func (s Source) ScanOptions() []sql.ScanOption {
	return []sql.ScanOption{
		sql.WithKeys(s.Keys...),
		sql.WithUnique(s.Unique...),
		sql.WithIdentity(s.Identity...),
		sql.WithReadOnly(s.ReadOnly...),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.input", "")
	v.SetDefault("source.driver", "")
	v.SetDefault("source.dsn", "")
	v.SetDefault("source.table", "")
	v.SetDefault("source.where", "")
	v.SetDefault("source.keys", []string{})
	v.SetDefault("source.unique", []string{})
	v.SetDefault("source.identity", []string{})
	v.SetDefault("source.readonly", []string{})
	v.SetDefault("source.slow_query", time.Second)
	v.SetDefault("script.type", script.Insert.String())
	v.SetDefault("script.compat", dialect.Modern.String())
	v.SetDefault("script.transaction", true)
	v.SetDefault("script.progress", 0)
	v.SetDefault("script.database", "")
	v.SetDefault("script.comment", "")
	v.SetDefault("script.datetime", "legacy")
	v.SetDefault("script.modifiers", true)
	v.SetDefault("script.workers", 0)
	v.SetDefault("output.dir", ".")
	v.SetDefault("output.file", "")
	v.SetDefault("output.ddl", false)
	v.SetDefault("output.snapshot", "")
	v.SetDefault("output.watch", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}

// FlagKeys maps command line flag names to configuration keys.
var FlagKeys = map[string]string{
	"input":       "source.input",
	"driver":      "source.driver",
	"dsn":         "source.dsn",
	"table":       "source.table",
	"where":       "source.where",
	"keys":        "source.keys",
	"identity":    "source.identity",
	"type":        "script.type",
	"compat":      "script.compat",
	"transaction": "script.transaction",
	"progress":    "script.progress",
	"database":    "script.database",
	"comment":     "script.comment",
	"datetime":    "script.datetime",
	"workers":     "script.workers",
	"out":         "output.file",
	"dir":         "output.dir",
	"ddl":         "output.ddl",
	"snapshot":    "output.snapshot",
	"watch":       "output.watch",
	"log-level":   "log_level",
	"log-format":  "log_format",
}

// BindFlags binds the flags of fs named in FlagKeys. Flags the user did not
// set leave the configured value alone.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range FlagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s to key %s: %w", name, key, err)
		}
	}
	return nil
}

// Load reads the configuration. Values come, by increasing precedence, from
// defaults, the YAML file at path (if any), DATASCRIPT_* environment
// variables and the flags of fs that were set.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := BindFlags(v, fs); err != nil {
			return Config{}, err
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = defaultTagName
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
