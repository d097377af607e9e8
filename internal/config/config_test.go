package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

// resetViper clears all viper state between tests to avoid cross-contamination.
func resetViper() {
	viper.Reset()
}

func TestLoadDefaults(t *testing.T) {
	resetViper()

	cfg := Load()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"DBPath", cfg.DBPath, ".intake/intake.db"},
		{"PolicyPath", cfg.PolicyPath, ".intake/policy.toml"},
		{"AuditPath", cfg.AuditPath, ".intake/audit.jsonl"},
		{"InboxDir", cfg.InboxDir, ".intake/inbox"},
		{"RefreshSeconds", cfg.RefreshSeconds, 5},
		{"Verbose", cfg.Verbose, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	tests := []struct {
		name   string
		envKey string
		envVal string
		field  func(Config) any
		want   any
	}{
		{
			name:   "db_path",
			envKey: "INTAKE_DB_PATH",
			envVal: "/var/lib/intake/intake.db",
			field:  func(c Config) any { return c.DBPath },
			want:   "/var/lib/intake/intake.db",
		},
		{
			name:   "inbox_dir",
			envKey: "INTAKE_INBOX_DIR",
			envVal: "/srv/inbox",
			field:  func(c Config) any { return c.InboxDir },
			want:   "/srv/inbox",
		},
		{
			name:   "refresh_seconds",
			envKey: "INTAKE_REFRESH_SECONDS",
			envVal: "30",
			field:  func(c Config) any { return c.RefreshSeconds },
			want:   30,
		},
		{
			name:   "verbose",
			envKey: "INTAKE_VERBOSE",
			envVal: "true",
			field:  func(c Config) any { return c.Verbose },
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper()
			viper.SetEnvPrefix("INTAKE")
			viper.AutomaticEnv()

			os.Setenv(tt.envKey, tt.envVal)
			defer os.Unsetenv(tt.envKey)

			cfg := Load()
			got := tt.field(cfg)
			if got != tt.want {
				t.Errorf("%s: got %v (%T), want %v (%T)", tt.name, got, got, tt.want, tt.want)
			}
		})
	}
}
