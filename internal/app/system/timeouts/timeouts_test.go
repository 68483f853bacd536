package timeouts

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	Reset()

	if got := Ping(); got != DefaultPing {
		t.Errorf("Ping() = %v, want %v", got, DefaultPing)
	}
	if got := Short(); got != DefaultShort {
		t.Errorf("Short() = %v, want %v", got, DefaultShort)
	}
	if got := Medium(); got != DefaultMedium {
		t.Errorf("Medium() = %v, want %v", got, DefaultMedium)
	}
	if got := Long(); got != DefaultLong {
		t.Errorf("Long() = %v, want %v", got, DefaultLong)
	}
}

func TestConfigureOverrides(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Configure(Config{Short: 1 * time.Second, Long: 45 * time.Second})

	if got := Short(); got != 1*time.Second {
		t.Errorf("Short() = %v, want 1s", got)
	}
	if got := Long(); got != 45*time.Second {
		t.Errorf("Long() = %v, want 45s", got)
	}
	// Unset fields keep their current values.
	if got := Ping(); got != DefaultPing {
		t.Errorf("Ping() = %v, want %v", got, DefaultPing)
	}
	if got := Medium(); got != DefaultMedium {
		t.Errorf("Medium() = %v, want %v", got, DefaultMedium)
	}
}

func TestConfigureIgnoresZeroValues(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Configure(Config{Medium: 20 * time.Second})
	Configure(Config{})

	if got := Medium(); got != 20*time.Second {
		t.Errorf("Medium() after zero-value Configure = %v, want 20s", got)
	}
}
