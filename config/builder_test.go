package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/samber/do/v2"
)

func TestLoaderBuilder_Layers(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("AEBUILD_EVENT__POOL_SIZE", "32")

	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", baseYAML)
	writeFile(t, dir, "staging.yaml", "logger:\n  level: warn\nevent:\n  pool_size: 2\n")

	loader, err := NewLoaderBuilder().
		WithConfigPath(dir).
		WithEnvPrefix("AEBUILD").
		WithFlags(&struct {
			Level string `config:"logger.level"`
		}{Level: "debug"}).
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	// env 覆盖 staging.yaml
	if got := loader.GetInt("event.pool_size"); got != 32 {
		t.Errorf("event.pool_size = %d, want 32", got)
	}
	// flags 覆盖 staging.yaml
	if got := loader.GetString("logger.level"); got != "debug" {
		t.Errorf("logger.level = %s, want debug", got)
	}
	if got := len(loader.GetLoadedFiles()); got != 2 {
		t.Errorf("loaded files = %d, want 2", got)
	}
}

func TestLoaderBuilder_AbsoluteConfigFile(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("ENV", "")

	dir := t.TempDir()
	path := writeFile(t, dir, "custom.yaml", "event:\n  pool_size: 7\n")

	loader, err := NewLoaderBuilder().
		WithConfigPath(filepath.Join(dir, "ignored")).
		WithConfigFile(path).
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if got := loader.GetInt("event.pool_size"); got != 7 {
		t.Errorf("event.pool_size = %d, want 7", got)
	}
}

func TestLoaderBuilder_Empty(t *testing.T) {
	loader, err := NewLoaderBuilder().Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if loader.IsSet("event") {
		t.Error("empty builder should produce empty config")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "dev" {
		t.Errorf("GetEnv() = %s, want dev", got)
	}

	t.Setenv("ENV", "test")
	if got := GetEnv(); got != "test" {
		t.Errorf("GetEnv() = %s, want test", got)
	}

	t.Setenv("APP_ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("GetEnv() = %s, want prod", got)
	}
}

func TestProvideLoader(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", baseYAML)

	injector := do.New()
	do.Provide(injector, ProvideLoader(ProvideLoaderOptions{ConfigPath: dir}))

	loader, err := do.Invoke[*Loader](injector)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if got := loader.GetString("app.name"); got != "asyncevent-test" {
		t.Errorf("app.name = %s", got)
	}
}

func TestProvideLoader_Error(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "event: [unclosed")

	injector := do.New()
	do.Provide(injector, ProvideLoader(ProvideLoaderOptions{ConfigPath: dir}))

	if _, err := do.Invoke[*Loader](injector); err == nil {
		t.Fatal("expected build error")
	}
}

func TestProvideLoaderValue(t *testing.T) {
	loader := NewLoader()
	injector := do.New()
	do.Provide(injector, ProvideLoaderValue(loader))

	got := do.MustInvoke[*Loader](injector)
	if got != loader {
		t.Error("should return the registered loader")
	}
}

type stubValidator struct{ err error }

func (s stubValidator) Validate() error { return s.err }

func TestValidateAll(t *testing.T) {
	boom := errors.New("boom")

	if err := ValidateAll(stubValidator{}, nil, stubValidator{}); err != nil {
		t.Errorf("ValidateAll() = %v, want nil", err)
	}
	if err := ValidateAll(stubValidator{}, stubValidator{err: boom}, stubValidator{err: errors.New("later")}); !errors.Is(err, boom) {
		t.Errorf("ValidateAll() = %v, want first error", err)
	}
}
