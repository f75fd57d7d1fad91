package service

import (
	"time"

	"github.com/diagnosis/gatepass/pkg/config"
	"github.com/diagnosis/gatepass/pkg/logger"
	"github.com/diagnosis/gatepass/services/passes/internal/domain"
)

// Settings are the issuance rules shared by the registry, the pipeline and the gate.
type Settings struct {
	Location    *time.Location
	MinDuration time.Duration
	HandoffTTL  time.Duration
	DisplayPath string
	FormPath    string
	FormIdleTTL time.Duration
}

func SettingsFrom(cfg config.PassConfig) Settings {
	loc, ok := cfg.Location()
	if !ok {
		logger.Warn("Unknown pass timezone, using UTC", "timezone", cfg.Timezone)
	}
	if cfg.MinDuration > 0 && cfg.MinDuration < domain.MinPassDuration {
		logger.Warn("Pass minimum duration below the floor, using the floor",
			"configured", cfg.MinDuration, "floor", domain.MinPassDuration)
	}
	s := Settings{
		Location:    loc,
		MinDuration: cfg.MinDuration,
		HandoffTTL:  cfg.HandoffTTL,
		DisplayPath: cfg.DisplayPath,
		FormPath:    cfg.FormPath,
		FormIdleTTL: cfg.FormIdleTTL,
	}
	return s.withDefaults()
}

func (s Settings) withDefaults() Settings {
	if s.Location == nil {
		s.Location = time.Local
	}
	// Deployments may lengthen the minimum window, never shorten it.
	if s.MinDuration < domain.MinPassDuration {
		s.MinDuration = domain.MinPassDuration
	}
	if s.HandoffTTL <= 0 {
		s.HandoffTTL = 10 * time.Minute
	}
	if s.FormIdleTTL <= 0 {
		s.FormIdleTTL = 30 * time.Minute
	}
	if s.DisplayPath == "" {
		s.DisplayPath = "/display"
	}
	if s.FormPath == "" {
		s.FormPath = "/forms"
	}
	return s
}

// RegistrationPath is where a blocked display sends the resident back to.
func (s Settings) RegistrationPath(v domain.Variant) string {
	if _, ok := v.Schema(); ok {
		return s.FormPath + "/" + string(v)
	}
	return s.FormPath
}
