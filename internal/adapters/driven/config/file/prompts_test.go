package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askbase/internal/core/ports/driven"
)

func TestNewPromptStore_NoIOInConstructor(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "prompts")

	store, err := NewPromptStore(tmpDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	// Lazy init: the directory must not exist until first Load.
	_, err = os.Stat(tmpDir)
	assert.True(t, os.IsNotExist(err))
}

func TestPromptStore_LoadCreatesDefaults(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "prompts")
	store, err := NewPromptStore(tmpDir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Contains(t, prompt, "ONLY on the provided passages")

	// Default files were written for editing.
	for _, name := range []string{driven.PromptAnswerSystem, driven.PromptInsufficientContext} {
		_, err := os.Stat(filepath.Join(tmpDir, name+".txt"))
		assert.NoError(t, err, "expected default file for %s", name)
	}
	_, err = os.Stat(filepath.Join(tmpDir, "README.md"))
	assert.NoError(t, err)
}

func TestPromptStore_LoadInsufficientContext(t *testing.T) {
	store, err := NewPromptStore(filepath.Join(t.TempDir(), "prompts"))
	require.NoError(t, err)

	msg, err := store.Load(driven.PromptInsufficientContext)
	require.NoError(t, err)
	assert.Contains(t, msg, "don't have enough information")
}

func TestPromptStore_UserEditWins(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "prompts")
	require.NoError(t, os.MkdirAll(tmpDir, 0700))

	custom := "Answer tersely. Cite nothing."
	path := filepath.Join(tmpDir, driven.PromptAnswerSystem+".txt")
	require.NoError(t, os.WriteFile(path, []byte(custom+"\n"), 0600))

	store, err := NewPromptStore(tmpDir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Equal(t, custom, prompt)
}

func TestPromptStore_ReloadPicksUpEdits(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "prompts")
	store, err := NewPromptStore(tmpDir)
	require.NoError(t, err)

	first, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)

	edited := "Edited instruction."
	path := filepath.Join(tmpDir, driven.PromptAnswerSystem+".txt")
	require.NoError(t, os.WriteFile(path, []byte(edited), 0600))

	// Cached value still served until Reload.
	cached, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	store.Reload()

	fresh, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Equal(t, edited, fresh)
}

func TestPromptStore_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(filepath.Join(t.TempDir(), "prompts"))
	require.NoError(t, err)

	_, err = store.Load("no_such_prompt")
	assert.Error(t, err)
}

func TestPromptStore_InitFailureFallsBackToDefaults(t *testing.T) {
	// A path under /dev/null cannot be created.
	store, err := NewPromptStore("/dev/null/prompts")
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Contains(t, prompt, "ONLY on the provided passages")

	_, err = store.Load("no_such_prompt")
	assert.Error(t, err)
}
