package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	var cfg Config
	cfg.Database.Path = "data/test.db"
	cfg.Auth.JWTSecret = "secret"
	cfg.Auth.TokenTTLMinutes = 30
	cfg.Comments.EditPolicy = "owner"
	return cfg
}

func TestLoad_DefaultsAndEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOOKSHELF_AUTH_JWTSECRET", "from-env")
	t.Setenv("BOOKSHELF_SERVER_ADDR", "127.0.0.1:9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 60, cfg.Auth.TokenTTLMinutes)
	assert.Equal(t, "data/bookshelf.db", cfg.Database.Path)
	assert.Equal(t, "owner", cfg.Comments.EditPolicy)
	assert.Equal(t, "bookshelf-exports", cfg.Storage.KeyPrefix)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_TrustedProxies(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Server.TrustedProxies)

	t.Setenv("BOOKSHELF_SERVER_TRUSTEDPROXIES", "10.0.0.1,192.168.0.0/16")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1", "192.168.0.0/16"}, cfg.Server.TrustedProxies)
}

func TestLoadDotEnv_DoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nBOOKSHELF_TEST_A=\"quoted\"\nBOOKSHELF_TEST_B=file\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("BOOKSHELF_TEST_B", "env")
	t.Setenv("BOOKSHELF_TEST_A", "")
	require.NoError(t, os.Unsetenv("BOOKSHELF_TEST_A"))

	loadDotEnv(path)

	assert.Equal(t, "quoted", os.Getenv("BOOKSHELF_TEST_A"))
	assert.Equal(t, "env", os.Getenv("BOOKSHELF_TEST_B"))
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_MissingSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.JWTSecret = "  "
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWTSECRET")
}

func TestValidate_HalfConfiguredAdmin(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.AdminUsername = "root"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin")
}

func TestValidate_UnknownEditPolicy(t *testing.T) {
	cfg := validConfig()
	cfg.Comments.EditPolicy = "anyone"
	assert.Error(t, cfg.Validate())
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	var cfg Config
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt secret")
	assert.Contains(t, err.Error(), "token ttl")
	assert.Contains(t, err.Error(), "database path")
}
