package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeMaps_NestedOverride(t *testing.T) {
	base := map[string]interface{}{
		"server": map[string]interface{}{"port": ":5000", "require_auth": false},
		"jwt":    map[string]interface{}{"secret": "base"},
	}
	env := map[string]interface{}{
		"server": map[string]interface{}{"require_auth": true},
	}

	merged := MergeMaps(base, env)
	server := merged["server"].(map[string]interface{})
	require.Equal(t, ":5000", server["port"])
	require.Equal(t, true, server["require_auth"])
	require.Equal(t, "base", merged["jwt"].(map[string]interface{})["secret"])
}

func TestParseEnv(t *testing.T) {
	env := ParseEnv("# comment\nJWT_SECRET=\"abc\"\n\nHF_KEY='k'\nBROKEN\n")
	require.Equal(t, map[string]string{"JWT_SECRET": "abc", "HF_KEY": "k"}, env)
}

func TestLoadConfig_EnvFileAndSecrets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.yaml"),
		[]byte("server:\n  port: \":5000\"\njwt:\n  secret: \"${JWT_SECRET}\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.yaml"),
		[]byte("server:\n  port: \":6000\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secrets.env"),
		[]byte("JWT_SECRET=s3cret\n"), 0o644))

	raw, err := LoadConfig("test", dir)
	require.NoError(t, err)

	var out struct {
		Server ServerConfig `yaml:"server"`
		JWT    JWTConfig    `yaml:"jwt"`
	}
	require.NoError(t, Decode(raw, &out))
	require.Equal(t, ":6000", out.Server.Port)
	require.Equal(t, "s3cret", out.JWT.Secret)
}

func TestOverrideServerFromEnv_BarePort(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("PORT", "8080")

	cfg := ServerConfig{Port: ":5000"}
	OverrideServerFromEnv(&cfg)
	require.Equal(t, ":8080", cfg.Port)
}
