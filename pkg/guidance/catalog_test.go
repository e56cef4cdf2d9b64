package guidance

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	e, ok := c.Lookup("profile", "IDENTITY_CHECK_FAILED")
	require.True(t, ok)
	assert.Equal(t, "PAN verification failed.", e.UserMessage)
	assert.Len(t, e.Tips, 3)

	_, ok = c.Lookup("profile", "FORM_SHARE_FAILED")
	assert.False(t, ok, "guidance is scoped by stage")
	_, ok = c.Lookup("nowhere", "IDENTITY_CHECK_FAILED")
	assert.False(t, ok)

	assert.Contains(t, c.Keys(), "onboarding/FORM_SHARE_FAILED")
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()

	t.Run("empty path falls back to embedded", func(t *testing.T) {
		c, err := LoadCatalog("")
		require.NoError(t, err)
		assert.Equal(t, Default().Keys(), c.Keys())
	})

	t.Run("override file", func(t *testing.T) {
		path := filepath.Join(dir, "custom.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"version":"2","stages":{"readiness":{"READINESS_DELIVERY_FAILED":{"userMessage":"Resend later."}}}}`), 0o600))
		c, err := LoadCatalog(path)
		require.NoError(t, err)
		e, ok := c.Lookup("readiness", "READINESS_DELIVERY_FAILED")
		require.True(t, ok)
		assert.Equal(t, "Resend later.", e.UserMessage)
	})

	t.Run("invalid entries", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"stages":{"payroll":{},"lead":{"X":{}}}}`), 0o600))
		_, err := LoadCatalog(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown stage "payroll"`)
		assert.Contains(t, err.Error(), "lead/X: missing userMessage")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCatalog(filepath.Join(dir, "none.json"))
		assert.True(t, os.IsNotExist(err))
	})
}
