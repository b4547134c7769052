// Package config resolves a YAML document into the pieces the demo CLI
// wires together: a logger, a trigger registry, a user directory and a
// servicegroups table seeded with demo data. It follows
// thisisjab-logzilla's config.Config.Parse() shape — a thin struct of
// yaml-tagged fields plus a Parse method translating them into the
// concrete collaborators the rest of the module depends on only via
// interface.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"go.yaml.in/yaml/v3"

	"github.com/watchflow/queryplan/directory"
	"github.com/watchflow/queryplan/fault"
	"github.com/watchflow/queryplan/tables/servicegroups"
	"github.com/watchflow/queryplan/triggers"
)

// Config is the top-level YAML shape.
type Config struct {
	Logger        LoggerConfig         `yaml:"logger"`
	Users         []string             `yaml:"users"`
	Triggers      []string             `yaml:"triggers"`
	ServiceGroups []ServiceGroupConfig `yaml:"service_groups"`
	WorkersCount  int                  `yaml:"scanner_workers_count"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
	Type  string `yaml:"type"`
}

// ServiceGroupConfig is the YAML shape of one servicegroups.Group.
type ServiceGroupConfig struct {
	Name       string `yaml:"name"`
	Alias      string `yaml:"alias"`
	Notes      string `yaml:"notes"`
	NotesURL   string `yaml:"notes_url"`
	ActionURL  string `yaml:"action_url"`
	NumOK      int64  `yaml:"num_services_ok"`
	NumWarn    int64  `yaml:"num_services_warn"`
	NumCrit    int64  `yaml:"num_services_crit"`
	NumUnknown int64  `yaml:"num_services_unknown"`
	NumPending int64  `yaml:"num_services_pending"`
}

// Runtime is everything Parse produces, ready to hand to protocol.New.
type Runtime struct {
	Logger   *slog.Logger
	Table    *servicegroups.Table
	Triggers *triggers.Registry
	Workers  int
}

// Load reads and decodes a YAML config file at path.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fault.New(fault.ConfigCode, "cannot read config").WithOriginal(err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fault.New(fault.ConfigCode, "cannot parse config").WithOriginal(err)
	}
	return cfg, nil
}

// Parse resolves cfg into a Runtime.
func (cfg Config) Parse() (*Runtime, error) {
	logger, err := parseLoggerConfig(cfg.Logger)
	if err != nil {
		return nil, fault.New(fault.ConfigCode, "cannot create logger").WithOriginal(err)
	}

	triggerNames := cfg.Triggers
	if len(triggerNames) == 0 {
		triggerNames = triggers.DefaultNames
	}
	reg := triggers.NewRegistry(triggerNames)

	dir := directory.New(cfg.Users)

	groups := make([]*servicegroups.Group, len(cfg.ServiceGroups))
	for i, g := range cfg.ServiceGroups {
		groups[i] = &servicegroups.Group{
			Name:       g.Name,
			Alias:      g.Alias,
			Notes:      g.Notes,
			NotesURL:   g.NotesURL,
			ActionURL:  g.ActionURL,
			NumOK:      g.NumOK,
			NumWarn:    g.NumWarn,
			NumCrit:    g.NumCrit,
			NumUnknown: g.NumUnknown,
			NumPending: g.NumPending,
		}
	}
	table := servicegroups.New(groups, dir)

	workers := cfg.WorkersCount
	if workers <= 0 {
		workers = 8
	}

	return &Runtime{Logger: logger, Table: table, Triggers: reg, Workers: workers}, nil
}

func parseLoggerConfig(cfg LoggerConfig) (*slog.Logger, error) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "", "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	var handler slog.Handler
	switch cfg.Type {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	case "text":
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	case "", "colored-text":
		handler = tint.NewHandler(os.Stdout, &tint.Options{Level: level})
	default:
		return nil, fmt.Errorf("invalid log type: %s", cfg.Type)
	}

	return slog.New(handler), nil
}
