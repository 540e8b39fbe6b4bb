package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smazurov/camsession/pkg/camera"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "camera.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	return path
}

func runProfileCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := CreateProfileCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNegotiateCmd(t *testing.T) {
	tests := []struct {
		name    string
		profile string
		flags   []string
		want    []string
		absent  string
	}{
		{
			name:    "profile target",
			profile: "",
			want:    []string{"format:     1280x720 texture", "framerate:  30 fps"},
			absent:  "frame size",
		},
		{
			name:    "flag overrides",
			profile: "",
			flags:   []string{"--width", "1900", "--height", "1000", "--fps", "20"},
			want:    []string{"target:     1900x1000@20 fps", "format:     1920x1080 texture", "framerate:  15-30 fps"},
		},
		{
			name:    "legacy reports frame size",
			profile: "[camera]\ngeneration = \"legacy\"\n",
			flags:   []string{"--width", "640", "--height", "480"},
			want:    []string{"format:     640x480 NV21", "frame size: 460800 bytes"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeProfile(t, tt.profile)
			out, err := runProfileCmd(t, append([]string{"negotiate", path}, tt.flags...)...)
			if err != nil {
				t.Fatalf("negotiate: %v\n%s", err, out)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			if tt.absent != "" && strings.Contains(out, tt.absent) {
				t.Errorf("output should not contain %q:\n%s", tt.absent, out)
			}
		})
	}
}

func TestNegotiateCmdNoFormats(t *testing.T) {
	path := writeProfile(t, "[camera.capabilities]\npreview_sizes = []\n")
	if _, err := runProfileCmd(t, "negotiate", path); err == nil {
		t.Fatal("expected error for a profile without sizes")
	}
}

func TestProfileCheckCmd(t *testing.T) {
	path := writeProfile(t, "[camera]\nid = \"7\"\nfacing = \"front\"\nsensor_orientation = 270\n")
	out, err := runProfileCmd(t, "check", path)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	for _, w := range []string{"camera:      7", "facing:      front", "orientation: 270", "profile OK"} {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
}

func TestProfileCheckCmdInvalid(t *testing.T) {
	path := writeProfile(t, "[camera]\nfacing = \"sideways\"\n")
	if _, err := runProfileCmd(t, "check", path); err == nil {
		t.Fatal("expected error for invalid facing")
	}
}

func TestFpsRange(t *testing.T) {
	tests := []struct {
		lo, hi int
		want     string
	}{
		{30000, 30000, "30"},
		{15000, 30000, "15-30"},
		{7500, 30000, "7.5-30"},
	}
	for _, tt := range tests {
		got := fpsRange(camera.FramerateRange{Min: tt.lo, Max: tt.hi})
		if got != tt.want {
			t.Errorf("fpsRange(%d,%d) = %q, want %q", tt.lo, tt.hi, got, tt.want)
		}
	}
}
