package oauth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProviderConfigYAML(t *testing.T) {
	cfg, err := ParseProviderConfig([]byte(`
client_id: id
client_secret: secret
redirect_url: https://app.example.com/callback
fields: [id, firstName, vanityName]
scopes:
  - r_liteprofile
approval_prompt: force
fetch_email: true
http_timeout: 10s
`))
	require.NoError(t, err)

	assert.Equal(t, "id", cfg.ClientID)
	assert.Equal(t, Fields{"id", "firstName", "vanityName"}, cfg.Fields)
	assert.Equal(t, []string{"r_liteprofile"}, cfg.Scopes)
	assert.Equal(t, "force", cfg.ApprovalPrompt)
	assert.True(t, cfg.FetchEmail)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
}

func TestParseProviderConfigJSON(t *testing.T) {
	cfg, err := ParseProviderConfig([]byte(`{"client_id":"id","client_secret":"secret","redirect_url":"https://cb","fields":["id"]}`))
	require.NoError(t, err)
	assert.Equal(t, Fields{"id"}, cfg.Fields)
}

func TestParseProviderConfigRejectsNonListFields(t *testing.T) {
	inputs := []string{
		`fields: foo`,
		`fields: 42`,
		`fields: {a: b}`,
		`fields: [id, [nested]]`,
		`fields: [id, 7]`,
		`{"fields":"foo"}`,
		`{"fields":{"a":"b"}}`,
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := ParseProviderConfig([]byte(in))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestParseProviderConfigEmptyFields(t *testing.T) {
	cfg, err := ParseProviderConfig([]byte(`fields: []`))
	require.NoError(t, err)
	assert.NotNil(t, cfg.Fields)
	assert.Empty(t, cfg.Fields)

	cfg, err = ParseProviderConfig([]byte(`client_id: id`))
	require.NoError(t, err)
	assert.Nil(t, cfg.Fields)
}

func TestFieldsUnmarshalJSON(t *testing.T) {
	var cfg ProviderConfig
	require.NoError(t, json.Unmarshal([]byte(`{"fields":["id","lastName"]}`), &cfg))
	assert.Equal(t, Fields{"id", "lastName"}, cfg.Fields)

	cfg = ProviderConfig{}
	require.NoError(t, json.Unmarshal([]byte(`{"fields":null}`), &cfg))
	assert.Nil(t, cfg.Fields)

	err := json.Unmarshal([]byte(`{"fields":"foo"}`), &cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	err = json.Unmarshal([]byte(`{"fields":["id",1]}`), &cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadProviderConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linkedin.yaml")
	require.NoError(t, os.WriteFile(path, []byte("client_id: from-file\nfields: [id]\n"), 0o600))

	cfg, err := LoadProviderConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.ClientID)
	assert.Equal(t, Fields{"id"}, cfg.Fields)

	_, err = LoadProviderConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestProviderConfigWithFieldsIsImmutable(t *testing.T) {
	base := ProviderConfig{Fields: Fields{"id"}}

	changed := base.WithFields("id", "headline")
	assert.Equal(t, Fields{"id"}, base.Fields)
	assert.Equal(t, Fields{"id", "headline"}, changed.Fields)

	empty := base.WithFields()
	assert.NotNil(t, empty.Fields)
	assert.Empty(t, empty.Fields)
	assert.Empty(t, empty.withDefaults().Fields)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}
