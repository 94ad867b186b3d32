package tracking

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadUserID_StableAcrossCalls(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	first := LoadUserID()
	require.NotEmpty(t, first)
	_, err := uuid.Parse(first)
	require.NoError(t, err)

	second := LoadUserID()
	assert.Equal(t, first, second)
}

func TestLoadUserID_ReadsExistingProfile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir, err := profileDir()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	existing := uuid.NewString()
	require.NoError(t, os.WriteFile(filepath.Join(dir, profileFileName), []byte(existing+"\n"), 0o600))

	assert.Equal(t, existing, LoadUserID())
}

func TestLoadUserID_EmptyProfileRegenerates(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir, err := profileDir()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, profileFileName), []byte("  \n"), 0o600))

	id := LoadUserID()
	require.NotEmpty(t, id)
	assert.NotEqual(t, "", strings.TrimSpace(id))

	// The regenerated id was persisted for next time.
	assert.Equal(t, id, LoadUserID())
}
