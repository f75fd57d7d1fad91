package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/diagnosis/gatepass/pkg/config"
	"github.com/diagnosis/gatepass/services/passes/internal/domain"
)

func TestSettingsFrom_MinDurationFloor(t *testing.T) {
	cases := []struct {
		name       string
		configured time.Duration
		want       time.Duration
	}{
		{"unset", 0, domain.MinPassDuration},
		{"negative", -time.Minute, domain.MinPassDuration},
		{"below floor", 5 * time.Minute, domain.MinPassDuration},
		{"just below floor", 14*time.Minute + 59*time.Second, domain.MinPassDuration},
		{"at floor", 15 * time.Minute, 15 * time.Minute},
		{"longer", 30 * time.Minute, 30 * time.Minute},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := SettingsFrom(config.PassConfig{Timezone: "UTC", MinDuration: tc.configured})
			require.Equal(t, tc.want, s.MinDuration)
		})
	}
}

func TestSettings_ShortMinimumDoesNotReachTheGate(t *testing.T) {
	settings := testSettings()
	settings.MinDuration = time.Minute
	g := NewIssuanceGate(nil, nil, nil, settings)
	require.Equal(t, domain.MinPassDuration, g.settings.MinDuration)
}

func TestSettings_Defaults(t *testing.T) {
	s := Settings{}.withDefaults()
	require.Equal(t, "/display", s.DisplayPath)
	require.Equal(t, "/forms", s.FormPath)
	require.Equal(t, 10*time.Minute, s.HandoffTTL)
	require.Equal(t, "/forms/cab", s.RegistrationPath(domain.VariantCab))
	require.Equal(t, "/forms", s.RegistrationPath(""))
}
