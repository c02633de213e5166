package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/boshu2/siteqa/internal/qa"
)

// isolate points HOME and the cwd at empty temp dirs and clears QA_* vars.
func isolate(t *testing.T) (home, cwd string) {
	t.Helper()
	home = t.TempDir()
	cwd = t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range EnvVars {
		t.Setenv(key, "")
	}
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(cwd); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) }) //nolint:errcheck // test cleanup
	return home, cwd
}

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, configDirName, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Output != "table" {
		t.Errorf("Default Output = %q, want %q", cfg.Output, "table")
	}
	if cfg.BaseRef != "origin/main" {
		t.Errorf("Default BaseRef = %q, want %q", cfg.BaseRef, "origin/main")
	}
	if cfg.Shell != "sh" {
		t.Errorf("Default Shell = %q, want %q", cfg.Shell, "sh")
	}
	if cfg.Verbose {
		t.Error("Default Verbose = true, want false")
	}
	if cfg.Policy.QAVersion != qa.QAPolicyVersion || cfg.Policy.A11yVersion != qa.A11yPolicyVersion {
		t.Errorf("Default Policy = %+v", cfg.Policy)
	}
	if len(cfg.Rules.AllowedContentPatterns) == 0 {
		t.Error("Default Rules should carry built-in patterns")
	}
}

func TestMerge(t *testing.T) {
	dst := Default()
	src := &Config{
		Output:  "json",
		BaseRef: "upstream/develop",
		Rules:   qa.PathRules{AllowedContentPatterns: []string{"docs/**"}},
	}

	result := merge(dst, src)

	if result.Output != "json" {
		t.Errorf("merge Output = %q, want %q", result.Output, "json")
	}
	if result.BaseRef != "upstream/develop" {
		t.Errorf("merge BaseRef = %q", result.BaseRef)
	}
	if len(result.Rules.AllowedContentPatterns) != 1 || result.Rules.AllowedContentPatterns[0] != "docs/**" {
		t.Errorf("merge AllowedContentPatterns = %v", result.Rules.AllowedContentPatterns)
	}
	// Lists not set in src keep their defaults.
	if len(result.Rules.NonContentPatterns) != len(qa.DefaultPathRules().NonContentPatterns) {
		t.Errorf("merge should preserve default NonContentPatterns, got %v", result.Rules.NonContentPatterns)
	}
	if result.Shell != "sh" {
		t.Errorf("merge preserved Shell = %q, want sh", result.Shell)
	}
}

func TestApplyEnv(t *testing.T) {
	isolate(t)
	t.Setenv(EnvOutput, "yaml")
	t.Setenv(EnvVerbose, "1")
	t.Setenv(EnvBaseRef, " origin/release ")
	t.Setenv(EnvForceMode, "full")
	t.Setenv(EnvChangedFiles, "content/a.md\n")
	t.Setenv(EnvShell, "bash")

	cfg := applyEnv(Default())

	if cfg.Output != "yaml" {
		t.Errorf("applyEnv Output = %q, want yaml", cfg.Output)
	}
	if !cfg.Verbose {
		t.Error("applyEnv Verbose = false, want true")
	}
	if cfg.BaseRef != "origin/release" {
		t.Errorf("applyEnv BaseRef = %q", cfg.BaseRef)
	}
	if cfg.ForceMode != "full" {
		t.Errorf("applyEnv ForceMode = %q", cfg.ForceMode)
	}
	if cfg.ChangedFiles != "content/a.md\n" {
		t.Errorf("applyEnv ChangedFiles = %q", cfg.ChangedFiles)
	}
	if cfg.Shell != "bash" {
		t.Errorf("applyEnv Shell = %q", cfg.Shell)
	}
}

func TestLoadFromPath_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
output: json
base_ref: origin/trunk
verbose: true
policy:
  qa_version: 2.0.0
rules:
  allowed_content:
    - "content/**"
    - "notes/**"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("loadFromPath() error = %v", err)
	}
	if cfg.Output != "json" || cfg.BaseRef != "origin/trunk" || !cfg.Verbose {
		t.Errorf("loadFromPath = %+v", cfg)
	}
	if cfg.Policy.QAVersion != "2.0.0" {
		t.Errorf("Policy.QAVersion = %q", cfg.Policy.QAVersion)
	}
	if len(cfg.Rules.AllowedContentPatterns) != 2 {
		t.Errorf("AllowedContentPatterns = %v", cfg.Rules.AllowedContentPatterns)
	}
}

func TestLoadFromPath_TOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
output = "yaml"
shell = "bash"

[policy]
a11y_version = "2.0.0-a11y"

[rules]
a11y_critical_data = ["data/menus/**"]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("loadFromPath() error = %v", err)
	}
	if cfg.Output != "yaml" || cfg.Shell != "bash" {
		t.Errorf("loadFromPath = %+v", cfg)
	}
	if cfg.Policy.A11yVersion != "2.0.0-a11y" {
		t.Errorf("Policy.A11yVersion = %q", cfg.Policy.A11yVersion)
	}
	if len(cfg.Rules.A11yCriticalDataPatterns) != 1 || cfg.Rules.A11yCriticalDataPatterns[0] != "data/menus/**" {
		t.Errorf("A11yCriticalDataPatterns = %v", cfg.Rules.A11yCriticalDataPatterns)
	}
}

func TestLoadFromPath_NotExists(t *testing.T) {
	cfg, err := loadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Errorf("missing file should not error: %v", err)
	}
	if cfg != nil {
		t.Error("missing file should return nil config")
	}
}

func TestLoadFromPath_Empty(t *testing.T) {
	cfg, err := loadFromPath("")
	if err != nil || cfg != nil {
		t.Errorf("loadFromPath(\"\") = %v, %v", cfg, err)
	}
}

func TestLoadFromPath_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := loadFromPath(path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoadFromPath_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("output: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadFromPath(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_Precedence(t *testing.T) {
	home, cwd := isolate(t)
	writeConfig(t, home, "config.yaml", "output: yaml\nbase_ref: origin/home\nshell: zsh\n")
	writeConfig(t, cwd, "config.toml", "base_ref = \"origin/project\"\n")
	t.Setenv(EnvShell, "bash")

	cfg, err := Load(&Config{Output: "json"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Output != "json" {
		t.Errorf("flag should win for Output, got %q", cfg.Output)
	}
	if cfg.BaseRef != "origin/project" {
		t.Errorf("project should win over home for BaseRef, got %q", cfg.BaseRef)
	}
	if cfg.Shell != "bash" {
		t.Errorf("env should win over home for Shell, got %q", cfg.Shell)
	}
}

func TestLoad_ExplicitConfigPath(t *testing.T) {
	_, cwd := isolate(t)
	path := filepath.Join(cwd, "custom.yml")
	if err := os.WriteFile(path, []byte("force_mode: full\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfig, path)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !qa.IsForceFull(cfg.ForceMode) {
		t.Errorf("ForceMode = %q, want full", cfg.ForceMode)
	}
}

func TestLoad_InvalidPattern(t *testing.T) {
	_, cwd := isolate(t)
	writeConfig(t, cwd, "config.yaml", "rules:\n  non_content:\n    - \"layouts/[\"\n")

	_, err := Load(nil)
	if !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("expected ErrInvalidPattern, got %v", err)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	_, cwd := isolate(t)
	if err := os.WriteFile(filepath.Join(cwd, ".env"), []byte("QA_BASE_REF=origin/dotenv\n"), 0644); err != nil {
		t.Fatal(err)
	}
	// t.Setenv above left QA_BASE_REF as an empty string; godotenv only
	// fills variables that are absent.
	if err := os.Unsetenv(EnvBaseRef); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseRef != "origin/dotenv" {
		t.Errorf("BaseRef = %q, want origin/dotenv", cfg.BaseRef)
	}
}

func TestResolve(t *testing.T) {
	home, cwd := isolate(t)
	writeConfig(t, home, "config.yaml", "verbose: true\nlog_format: json\n")
	writeConfig(t, cwd, "config.yaml", "shell: bash\n")
	t.Setenv(EnvForceMode, "full")

	rc := Resolve(FlagValues{Output: "json", BaseRef: "origin/flag"})

	checks := []struct {
		name   string
		got    resolved
		value  interface{}
		source Source
	}{
		{"output", rc.Output, "json", SourceFlag},
		{"base_ref", rc.BaseRef, "origin/flag", SourceFlag},
		{"verbose", rc.Verbose, true, SourceHome},
		{"log_format", rc.LogFormat, "json", SourceHome},
		{"shell", rc.Shell, "bash", SourceProject},
		{"force_mode", rc.ForceMode, "full", SourceEnv},
	}
	for _, c := range checks {
		if c.got.Value != c.value || c.got.Source != c.source {
			t.Errorf("%s = %v (%s), want %v (%s)", c.name, c.got.Value, c.got.Source, c.value, c.source)
		}
	}
}

func TestResolve_Defaults(t *testing.T) {
	isolate(t)

	rc := Resolve(FlagValues{})
	if rc.Output.Value != "table" || rc.Output.Source != SourceDefault {
		t.Errorf("Output = %+v", rc.Output)
	}
	if rc.BaseRef.Value != "origin/main" || rc.BaseRef.Source != SourceDefault {
		t.Errorf("BaseRef = %+v", rc.BaseRef)
	}
	if rc.Verbose.Value != false || rc.Verbose.Source != SourceDefault {
		t.Errorf("Verbose = %+v", rc.Verbose)
	}
}

func TestResolveStringField(t *testing.T) {
	tests := []struct {
		name                          string
		home, project, env, flag, def string
		wantValue                     string
		wantSource                    Source
	}{
		{"default only", "", "", "", "", "d", "d", SourceDefault},
		{"home", "h", "", "", "", "d", "h", SourceHome},
		{"project over home", "h", "p", "", "", "d", "p", SourceProject},
		{"env over project", "h", "p", "e", "", "d", "e", SourceEnv},
		{"flag over all", "h", "p", "e", "f", "d", "f", SourceFlag},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveStringField(tt.home, tt.project, tt.env, tt.flag, tt.def)
			if got.Value != tt.wantValue || got.Source != tt.wantSource {
				t.Errorf("got %v (%s), want %v (%s)", got.Value, got.Source, tt.wantValue, tt.wantSource)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		val     string
		want    bool
		wantSet bool
	}{
		{"true", true, true},
		{"1", true, true},
		{"TRUE", true, true},
		{"false", false, true},
		{"0", false, true},
		{"", false, false},
		{"yes", false, false},
	}
	for _, tt := range tests {
		t.Setenv("QA_TEST_BOOL", tt.val)
		got, set := getEnvBool("QA_TEST_BOOL")
		if got != tt.want || set != tt.wantSet {
			t.Errorf("getEnvBool(%q) = %v, %v; want %v, %v", tt.val, got, set, tt.want, tt.wantSet)
		}
	}
}
