package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Settings is the top-level recondesk.yaml configuration. It is treated as an
// immutable value: every engine invocation receives a copy, and administrative
// updates produce a new value rather than mutating a shared instance.
type Settings struct {
	InputRoot string `yaml:"input_root"`
	OutputDir string `yaml:"output_dir"`

	AutoEnabled     bool   `yaml:"auto_enabled"`
	AutoTime        string `yaml:"auto_time"` // "HH:MM" in TimeZone
	TimeZone        string `yaml:"time_zone"`
	LookbackBizDays int    `yaml:"lookback_business_days"`
	ListenAddr      string `yaml:"listen_addr"`

	Entities []Entity `yaml:"entities"`
}

// Entity identifies one merchant entity's reconciliation inputs. The engine
// consumes this as read-only configuration.
type Entity struct {
	ID               string   `yaml:"id"`
	Name             string   `yaml:"name"`
	LedgerFolder     string   `yaml:"ledger_folder"`
	ProcessorFolders []string `yaml:"processor_folders"`

	// AmountTolerance overrides the flat GREEN tolerance floor (default 10.00).
	AmountTolerance decimal.Decimal `yaml:"amount_tolerance,omitempty"`
}

// InputPath resolves a configured folder name against the input root.
func (s *Settings) InputPath(folder string) string {
	return filepath.Join(s.InputRoot, folder)
}

// Entity returns the entity with the given ID.
func (s *Settings) Entity(entityID string) (Entity, bool) {
	for _, e := range s.Entities {
		if e.ID == entityID {
			return e, true
		}
	}
	return Entity{}, false
}

// Load reads a recondesk.yaml file from disk and applies environment
// overrides.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Settings
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	applyEnv(&cfg)
	return &cfg, nil
}

// Save writes Settings to a YAML file.
func Save(path string, cfg *Settings) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns Settings with sensible defaults for a new workspace.
func Default(inputRoot, outputDir string) *Settings {
	return &Settings{
		InputRoot:       inputRoot,
		OutputDir:       outputDir,
		AutoEnabled:     true,
		AutoTime:        "02:30",
		TimeZone:        "America/New_York",
		LookbackBizDays: 3,
		ListenAddr:      ":8000",
		Entities: []Entity{
			{
				ID:               "helpgrid",
				Name:             "Helpgrid",
				LedgerFolder:     "HG NAV Reports",
				ProcessorFolders: []string{"Braintree", "Stripe", "NMI Chesapeake", "NMI Cliq", "NMI Esquire"},
			},
		},
	}
}

// applyEnv overlays environment variables onto loaded settings.
func applyEnv(cfg *Settings) {
	if v := os.Getenv("RECON_INPUT_ROOT"); v != "" {
		cfg.InputRoot = v
	}
	if v := os.Getenv("RECON_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("RECON_AUTO_ENABLED"); v != "" {
		cfg.AutoEnabled = v == "1"
	}
	if v := os.Getenv("RECON_AUTO_TIME"); v != "" {
		cfg.AutoTime = v
	}
	if v := os.Getenv("RECON_LOOKBACK_BDAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LookbackBizDays = n
		}
	}
	if v := os.Getenv("RECON_PORT"); v != "" {
		cfg.ListenAddr = ":" + v
	}
	if v := os.Getenv("RECON_AMOUNT_TOL"); v != "" {
		if tol, err := decimal.NewFromString(v); err == nil {
			for i := range cfg.Entities {
				cfg.Entities[i].AmountTolerance = tol
			}
		}
	}
}

// WithUpdates returns a copy of s with non-zero fields of u applied. The
// receiver is never modified; callers swap the returned value in atomically.
func (s Settings) WithUpdates(u Updates) Settings {
	out := s
	out.Entities = append([]Entity(nil), s.Entities...)
	if u.AutoEnabled != nil {
		out.AutoEnabled = *u.AutoEnabled
	}
	if u.AutoTime != "" {
		out.AutoTime = u.AutoTime
	}
	if u.LookbackBizDays > 0 {
		out.LookbackBizDays = u.LookbackBizDays
	}
	return out
}

// Updates is an administrative settings change request.
type Updates struct {
	AutoEnabled     *bool  `json:"auto_enabled,omitempty"`
	AutoTime        string `json:"auto_time,omitempty"`
	LookbackBizDays int    `json:"lookback_business_days,omitempty"`
}
