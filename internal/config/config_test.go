package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadRequiresProjectID(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("PROJECT_ID", "codessa-test")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "codessa-test", cfg.ProjectID)
	assert.Equal(t, "us-central1", cfg.VertexAIRegion)
	assert.Equal(t, "scrolls", cfg.ScrollCollection)
	assert.Equal(t, "codessa_scrolls", cfg.SearchIndexName)
	assert.Equal(t, 5, cfg.PageSize)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadReadsYAMLFile(t *testing.T) {
	path := writeConfigFile(t, `
project_id: codessa-prod
scroll_collection: prod_scrolls
page_size: 10
algolia:
  app_id_secret: algolia-app-id
  api_key_secret: algolia-api-key
logging:
  level: debug
  format: text
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "codessa-prod", cfg.ProjectID)
	assert.Equal(t, "prod_scrolls", cfg.ScrollCollection)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, "algolia-app-id", cfg.Algolia.AppIDSecret)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
project_id: from-file
page_size: 10
`)
	t.Setenv("PROJECT_ID", "from-env")
	t.Setenv("PAGE_SIZE", "7")
	t.Setenv("ALGOLIA_APP_ID", "APP123")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.ProjectID)
	assert.Equal(t, 7, cfg.PageSize)
	assert.Equal(t, "APP123", cfg.Algolia.AppID)
}

func TestLoadRejectsInvalidPageSize(t *testing.T) {
	path := writeConfigFile(t, `
project_id: codessa-test
page_size: 0
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := writeConfigFile(t, "project_id: [unclosed")

	_, err := Load(path)
	assert.Error(t, err)
}
