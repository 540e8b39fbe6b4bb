package led

import (
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestNoopController(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctrl := newNoop(logger)

	if err := ctrl.Set("user", true, "solid"); err != nil {
		t.Errorf("Set() returned error: %v", err)
	}
	if got := ctrl.state("user"); got != PatternSolid {
		t.Errorf("state = %q, want %q", got, PatternSolid)
	}
	if err := ctrl.Set("user", false, "blink"); err != nil {
		t.Errorf("Set() returned error: %v", err)
	}
	if got := ctrl.state("user"); got != PatternNone {
		t.Errorf("state after disable = %q, want %q", got, PatternNone)
	}
	if types := ctrl.Available(); len(types) != 0 {
		t.Errorf("Available() = %v, want empty slice", types)
	}
	if patterns := ctrl.Patterns(); len(patterns) != 0 {
		t.Errorf("Patterns() = %v, want empty slice", patterns)
	}
}

func TestSysfsController_Available(t *testing.T) {
	ctrl := newSysfs(t.TempDir(), map[string]string{"user": "usr_led", "system": "sys_led"})
	got := ctrl.Available()
	want := []string{"system", "user"}
	if !slices.Equal(got, want) {
		t.Errorf("Available() = %v, want %v", got, want)
	}
}

// fakeLED creates a sysfs-like LED directory.
func fakeLED(t *testing.T, root, name string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, attr := range []string{"trigger", "brightness"} {
		if err := os.WriteFile(filepath.Join(dir, attr), []byte(""), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func readAttr(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestSysfsController_Set(t *testing.T) {
	tests := []struct {
		name           string
		enabled        bool
		pattern        string
		wantTrigger    string
		wantBrightness string
	}{
		{"solid on", true, "solid", "none", "1"},
		{"blink leaves brightness to trigger", true, "blink", "heartbeat", ""},
		{"off", false, "none", "none", "0"},
		{"raw trigger", true, "timer", "timer", "1"},
		{"brightness only", true, "", "", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			dir := fakeLED(t, root, "usr_led")
			ctrl := newSysfs(root, map[string]string{"user": "usr_led"})

			if err := ctrl.Set("user", tt.enabled, tt.pattern); err != nil {
				t.Fatalf("Set() returned error: %v", err)
			}
			if got := readAttr(t, dir, "trigger"); got != tt.wantTrigger {
				t.Errorf("trigger = %q, want %q", got, tt.wantTrigger)
			}
			if got := readAttr(t, dir, "brightness"); got != tt.wantBrightness {
				t.Errorf("brightness = %q, want %q", got, tt.wantBrightness)
			}
		})
	}
}

func TestSysfsController_Set_Errors(t *testing.T) {
	ctrl := newSysfs(t.TempDir(), map[string]string{"user": "usr_led"})

	if err := ctrl.Set("nonexistent", true, ""); err == nil {
		t.Error("Set() with invalid LED type should return error")
	}
	if err := ctrl.Set("user", true, "solid"); err == nil {
		t.Error("Set() with missing LED directory should return error")
	}
}

func TestSupports(t *testing.T) {
	sys := newSysfs(t.TempDir(), map[string]string{"user": "usr_led"})
	off := newNoop(nil)

	tests := []struct {
		name    string
		ctrl    Controller
		pattern string
		want    bool
	}{
		{"sysfs solid", sys, PatternSolid, true},
		{"sysfs heartbeat", sys, PatternHeartbeat, true},
		{"sysfs unknown", sys, "disco", false},
		{"sysfs empty", sys, "", true},
		{"noop solid", off, PatternSolid, false},
		{"noop empty", off, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Supports(tt.ctrl, tt.pattern); got != tt.want {
				t.Errorf("Supports(%q) = %v, want %v", tt.pattern, got, tt.want)
			}
		})
	}
}
