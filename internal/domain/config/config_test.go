package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkpress/internal/domain/config"
	domainerr "inkpress/internal/domain/errors"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, config.Default().Validate())
}

func TestValidate(t *testing.T) {
	t.Run("collects every failing field", func(t *testing.T) {
		cfg := config.Default()
		cfg.Site.Title = " "
		cfg.Site.BaseURL = "ftp://example.com"
		cfg.Export.AssetDir = "../escape"
		cfg.Log.Level = "loud"

		err := cfg.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, domainerr.ErrInvalid))

		var ve domainerr.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.ElementsMatch(t,
			[]string{"site.title", "site.base_url", "export.asset_dir", "log.level"},
			ve.Fields(),
		)
	})

	t.Run("theme requires theme dir", func(t *testing.T) {
		cfg := config.Default()
		cfg.Export.ThemeName = "plain"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "export.theme_dir")
	})
}

func TestLoad(t *testing.T) {
	t.Run("file values override defaults", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "inkpress.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
site:
  title: Field Notes
  base_url: https://notes.example.com
export:
  out_dir: dist
`), 0o644))

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, "Field Notes", cfg.Site.Title)
		assert.Equal(t, "https://notes.example.com", cfg.Site.BaseURL)
		assert.Equal(t, "dist", cfg.Export.OutDir)
		assert.Equal(t, config.Default().Export.FeedPath, cfg.Export.FeedPath)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "inkpress.yaml")
		require.NoError(t, os.WriteFile(path, []byte("serve:\n  addr: \":9000\"\n"), 0o644))
		t.Setenv("INKPRESS_SERVE_ADDR", ":9100")

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":9100", cfg.Serve.Addr)
	})

	t.Run("explicit missing file is an error", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid values fail validation", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("site:\n  base_url: not-a-url\n"), 0o644))
		_, err := config.Load(path)
		assert.ErrorIs(t, err, domainerr.ErrInvalid)
	})
}
