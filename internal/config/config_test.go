package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

// TestConfig represents a test configuration structure.
type TestConfig struct {
	Config string `help:"Config file path"`

	StringField   string        `toml:"test.string_field" env:"STRING_FIELD"`
	BoolField     bool          `toml:"test.bool_field" env:"BOOL_FIELD"`
	IntField      int           `toml:"test.int_field" env:"INT_FIELD"`
	FloatField    float64       `toml:"test.float_field" env:"FLOAT_FIELD"`
	DurationField time.Duration `toml:"test.duration_field" env:"DURATION_FIELD"`
	SliceField    []string      `toml:"test.slice_field" env:"SLICE_FIELD"`

	NestedString string `toml:"nested.value" env:"NESTED_VALUE"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadConfigFromTOML(t *testing.T) {
	path := writeConfig(t, `
[test]
string_field = "hello world"
bool_field = true
int_field = 42
float_field = 1.5
duration_field = "2s"
slice_field = ["item1", "item2", "item3"]

[nested]
value = "nested value"
`)

	config := &TestConfig{Config: path}
	if err := LoadConfig(config, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.StringField != "hello world" {
		t.Errorf("Expected StringField to be 'hello world', got '%s'", config.StringField)
	}
	if !config.BoolField {
		t.Errorf("Expected BoolField to be true, got %v", config.BoolField)
	}
	if config.IntField != 42 {
		t.Errorf("Expected IntField to be 42, got %d", config.IntField)
	}
	if config.FloatField != 1.5 {
		t.Errorf("Expected FloatField to be 1.5, got %v", config.FloatField)
	}
	if config.DurationField != 2*time.Second {
		t.Errorf("Expected DurationField to be 2s, got %v", config.DurationField)
	}
	expectedSlice := []string{"item1", "item2", "item3"}
	if !reflect.DeepEqual(config.SliceField, expectedSlice) {
		t.Errorf("Expected SliceField to be %v, got %v", expectedSlice, config.SliceField)
	}
	if config.NestedString != "nested value" {
		t.Errorf("Expected NestedString to be 'nested value', got '%s'", config.NestedString)
	}
}

func TestLoadConfigDurationMilliseconds(t *testing.T) {
	path := writeConfig(t, "[test]\nduration_field = 1500\n")

	config := &TestConfig{Config: path}
	if err := LoadConfig(config, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.DurationField != 1500*time.Millisecond {
		t.Errorf("Expected DurationField to be 1.5s, got %v", config.DurationField)
	}
}

func TestLoadConfigFromEnvVars(t *testing.T) {
	t.Setenv("CAMSESSION_STRING_FIELD", "env string")
	t.Setenv("CAMSESSION_BOOL_FIELD", "false")
	t.Setenv("CAMSESSION_INT_FIELD", "123")
	t.Setenv("CAMSESSION_DURATION_FIELD", "250ms")
	t.Setenv("CAMSESSION_SLICE_FIELD", "a,b,c")
	t.Setenv("CAMSESSION_NESTED_VALUE", "env nested")

	config := &TestConfig{BoolField: true}
	if err := LoadConfig(config, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.StringField != "env string" {
		t.Errorf("Expected StringField to be 'env string', got '%s'", config.StringField)
	}
	if config.BoolField {
		t.Errorf("Expected BoolField to be false, got %v", config.BoolField)
	}
	if config.IntField != 123 {
		t.Errorf("Expected IntField to be 123, got %d", config.IntField)
	}
	if config.DurationField != 250*time.Millisecond {
		t.Errorf("Expected DurationField to be 250ms, got %v", config.DurationField)
	}
	if !reflect.DeepEqual(config.SliceField, []string{"a", "b", "c"}) {
		t.Errorf("Expected SliceField to be [a b c], got %v", config.SliceField)
	}
	if config.NestedString != "env nested" {
		t.Errorf("Expected NestedString to be 'env nested', got '%s'", config.NestedString)
	}
}

func TestLoadConfigInvalidEnvValue(t *testing.T) {
	t.Setenv("CAMSESSION_INT_FIELD", "twelve")

	if err := LoadConfig(&TestConfig{}, nil); err == nil {
		t.Fatal("Expected error for non-numeric int env value")
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	path := writeConfig(t, `
[test]
string_field = "toml value"
bool_field = true
int_field = 100
slice_field = ["toml1", "toml2"]
`)

	t.Setenv("CAMSESSION_STRING_FIELD", "env override")
	t.Setenv("CAMSESSION_BOOL_FIELD", "false")
	t.Setenv("CAMSESSION_INT_FIELD", "200")

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Int("int-field", 0, "")
	if err := cmd.Flags().Set("int-field", "300"); err != nil {
		t.Fatal(err)
	}

	config := &TestConfig{Config: path, IntField: 300}
	if err := LoadConfig(config, cmd); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.StringField != "env override" {
		t.Errorf("Expected StringField to be 'env override', got '%s'", config.StringField)
	}
	if config.BoolField {
		t.Errorf("Expected BoolField to be false (env override), got %v", config.BoolField)
	}
	if config.IntField != 300 {
		t.Errorf("Expected IntField to keep CLI value 300, got %d", config.IntField)
	}
	if !reflect.DeepEqual(config.SliceField, []string{"toml1", "toml2"}) {
		t.Errorf("Expected SliceField from TOML, got %v", config.SliceField)
	}
}

func TestFieldNameToFlag(t *testing.T) {
	tests := map[string]string{
		"Port":                 "port",
		"LoggingLevel":         "logging-level",
		"CaptureReacquireWait": "capture-reacquire-wait",
	}
	for in, want := range tests {
		if got := fieldNameToFlag(in); got != want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGetNestedValue(t *testing.T) {
	data := map[string]any{
		"level1": map[string]any{
			"level2": map[string]any{
				"value": "nested_value",
			},
			"simple": "simple_value",
		},
		"root": "root_value",
	}

	tests := []struct {
		path     string
		expected any
	}{
		{"root", "root_value"},
		{"level1.simple", "simple_value"},
		{"level1.level2.value", "nested_value"},
		{"nonexistent", nil},
		{"level1.nonexistent", nil},
		{"root.child", nil},
	}

	for _, test := range tests {
		if result := getNestedValue(data, test.path); result != test.expected {
			t.Errorf("getNestedValue(%q) = %v, expected %v", test.path, result, test.expected)
		}
	}
}

func TestSetFieldValueFromString(t *testing.T) {
	type TestStruct struct {
		FloatField float64
		SliceField []string
		Duration   time.Duration
	}

	s := &TestStruct{}
	v := reflect.ValueOf(s).Elem()

	if err := setFieldValueFromString(v.FieldByName("FloatField"), "29.97"); err != nil {
		t.Fatal(err)
	}
	if s.FloatField != 29.97 {
		t.Errorf("Expected FloatField to be 29.97, got %v", s.FloatField)
	}

	if err := setFieldValueFromString(v.FieldByName("SliceField"), " a , b , c "); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(s.SliceField, []string{"a", "b", "c"}) {
		t.Errorf("Expected SliceField to be [a b c], got %v", s.SliceField)
	}

	if err := setFieldValueFromString(v.FieldByName("Duration"), "soon"); err == nil {
		t.Error("Expected error for invalid duration")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	config := &TestConfig{Config: "nonexistent_file.toml"}
	if err := LoadConfig(config, nil); err != nil {
		t.Fatalf("LoadConfig should not fail for missing file: %v", err)
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	path := writeConfig(t, "[test\ninvalid toml syntax\n")

	if err := LoadConfig(&TestConfig{Config: path}, nil); err == nil {
		t.Fatal("LoadConfig should fail for invalid TOML")
	}
}

func TestLoadLoggingConfig(t *testing.T) {
	path := writeConfig(t, `
[logging]
level = "warn"
format = "json"
camera = "debug"
capture = "error"
`)

	cfg := LoadLoggingConfig(path)
	if cfg.Level != "warn" || cfg.Format != "json" {
		t.Errorf("Expected warn/json, got %s/%s", cfg.Level, cfg.Format)
	}
	if cfg.Modules["camera"] != "debug" || cfg.Modules["capture"] != "error" {
		t.Errorf("Unexpected module levels: %v", cfg.Modules)
	}

	defaults := LoadLoggingConfig("")
	if defaults.Level != "info" || defaults.Format != "text" {
		t.Errorf("Expected defaults info/text, got %s/%s", defaults.Level, defaults.Format)
	}
}
