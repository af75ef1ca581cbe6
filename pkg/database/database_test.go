package database

import (
	"testing"

	"runsight_backend/internal/config"
)

func TestShouldAutoMigrate(t *testing.T) {
	tests := []struct {
		name         string
		mode         string
		forceMigrate bool
		want         bool
	}{
		{"debug always migrates", "debug", false, true},
		{"debug with flag", "debug", true, true},
		{"release skips by default", "release", false, false},
		{"release with --migrate", "release", true, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &config.Config{ForceMigrate: tc.forceMigrate}
			cfg.Server.Mode = tc.mode
			if got := shouldAutoMigrate(cfg); got != tc.want {
				t.Errorf("shouldAutoMigrate(mode=%s, force=%t) = %t, want %t",
					tc.mode, tc.forceMigrate, got, tc.want)
			}
		})
	}
}
