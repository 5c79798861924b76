package persona

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxworks/voxbench/internal/core"
	"github.com/voxworks/voxbench/internal/params"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "personas"))
}

func writeClip(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

func TestListEmptyStore(t *testing.T) {
	store := newTestStore(t)

	// Root does not exist yet; list must still succeed.
	names, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestSaveThenLoad(t *testing.T) {
	store := newTestStore(t)
	clip := writeClip(t, "voice.wav", []byte("RIFF fake clip bytes"))

	p := params.Set{
		RepetitionPenalty: 1.4,
		MinP:              0.02,
		TopP:              0.9,
		Exaggeration:      0.8,
		CfgWeight:         0.6,
		Temperature:       1.3,
	}

	result, err := store.Save("narrator", clip, p)
	require.NoError(t, err)
	assert.Equal(t, "narrator", result.Persona.Name)
	assert.Equal(t, []string{"narrator"}, result.Names)

	loaded, err := store.Load("narrator")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, p, loaded.Params)

	// The stored clip is a byte-identical copy under the fixed base name.
	assert.Equal(t, filepath.Join(store.Dir("narrator"), "reference.wav"), loaded.AudioPath)
	stored, err := os.ReadFile(loaded.AudioPath)
	require.NoError(t, err)
	original, err := os.ReadFile(clip)
	require.NoError(t, err)
	assert.Equal(t, original, stored)
}

func TestListIsSorted(t *testing.T) {
	store := newTestStore(t)
	clip := writeClip(t, "voice.wav", []byte("clip"))

	for _, name := range []string{"B", "A"} {
		_, err := store.Save(name, clip, params.Defaults())
		require.NoError(t, err)
	}

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, names)
}

func TestListIgnoresStrayFiles(t *testing.T) {
	store := newTestStore(t)
	clip := writeClip(t, "voice.wav", []byte("clip"))

	_, err := store.Save("real", clip, params.Defaults())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(store.Root(), "stray.txt"), []byte("x"), 0644))

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"real"}, names)
}

func TestSaveOverwrites(t *testing.T) {
	store := newTestStore(t)
	clip1 := writeClip(t, "one.wav", []byte("first clip"))
	clip2 := writeClip(t, "two.wav", []byte("second clip"))

	p1 := params.Defaults()
	p2 := params.Defaults()
	p2.Temperature = 1.9

	_, err := store.Save("X", clip1, p1)
	require.NoError(t, err)
	_, err = store.Save("X", clip2, p2)
	require.NoError(t, err)

	loaded, err := store.Load("X")
	require.NoError(t, err)
	assert.Equal(t, p2, loaded.Params)

	stored, err := os.ReadFile(loaded.AudioPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("second clip"), stored)
}

func TestSaveValidation(t *testing.T) {
	store := newTestStore(t)
	clip := writeClip(t, "voice.wav", []byte("clip"))

	t.Run("empty name", func(t *testing.T) {
		_, err := store.Save("", clip, params.Defaults())
		require.Error(t, err)
		assert.True(t, core.IsValidation(err))
	})

	t.Run("missing audio", func(t *testing.T) {
		_, err := store.Save("narrator", "", params.Defaults())
		require.Error(t, err)
		assert.True(t, core.IsValidation(err))
	})

	t.Run("path separator in name", func(t *testing.T) {
		_, err := store.Save("../escape", clip, params.Defaults())
		require.Error(t, err)
		assert.True(t, core.IsValidation(err))
	})

	t.Run("unreadable audio leaves no config", func(t *testing.T) {
		_, err := store.Save("broken", filepath.Join(t.TempDir(), "no-such.wav"), params.Defaults())
		require.Error(t, err)
		assert.NoFileExists(t, filepath.Join(store.Dir("broken"), ConfigFileName))
	})
}

func TestSavePreservesExtension(t *testing.T) {
	store := newTestStore(t)

	t.Run("mp3 kept", func(t *testing.T) {
		clip := writeClip(t, "voice.mp3", []byte("mp3 bytes"))
		result, err := store.Save("mp3voice", clip, params.Defaults())
		require.NoError(t, err)
		assert.Equal(t, "reference.mp3", filepath.Base(result.Persona.AudioPath))
	})

	t.Run("no extension falls back to wav", func(t *testing.T) {
		clip := writeClip(t, "rawclip", []byte("raw bytes"))
		result, err := store.Save("rawvoice", clip, params.Defaults())
		require.NoError(t, err)
		assert.Equal(t, "reference.wav", filepath.Base(result.Persona.AudioPath))
	})
}

func TestLoadMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load("ghost")
	require.Error(t, err)
	assert.True(t, core.IsNotFound(err))
}

func TestLoadEmptyNameIsNoSelection(t *testing.T) {
	store := newTestStore(t)

	loaded, err := store.Load("")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestLoadDefaultsMissingFields(t *testing.T) {
	store := newTestStore(t)

	// Simulate an older save that only recorded two fields.
	dir := store.Dir("vintage")
	require.NoError(t, os.MkdirAll(dir, 0755))
	record := `{"temperature": 1.5, "audio_filename": "reference.flac"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(record), 0644))

	loaded, err := store.Load("vintage")
	require.NoError(t, err)

	assert.Equal(t, 1.5, loaded.Params.Temperature)
	assert.Equal(t, params.DefaultRepetitionPenalty, loaded.Params.RepetitionPenalty)
	assert.Equal(t, params.DefaultMinP, loaded.Params.MinP)
	assert.Equal(t, params.DefaultTopP, loaded.Params.TopP)
	assert.Equal(t, params.DefaultExaggeration, loaded.Params.Exaggeration)
	assert.Equal(t, params.DefaultCfgWeight, loaded.Params.CfgWeight)
	assert.Equal(t, filepath.Join(dir, "reference.flac"), loaded.AudioPath)
}

func TestLoadDefaultsAudioFilename(t *testing.T) {
	store := newTestStore(t)

	dir := store.Dir("noaudio")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(`{}`), 0644))

	loaded, err := store.Load("noaudio")
	require.NoError(t, err)

	// Path is resolved without checking the clip exists.
	assert.Equal(t, filepath.Join(dir, "reference.wav"), loaded.AudioPath)
	assert.NoFileExists(t, loaded.AudioPath)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	clip := writeClip(t, "voice.wav", []byte("clip"))

	_, err := store.Save("victim", clip, params.Defaults())
	require.NoError(t, err)

	require.NoError(t, store.Delete("victim"))
	assert.NoDirExists(t, store.Dir("victim"))

	err = store.Delete("victim")
	require.Error(t, err)
	assert.True(t, core.IsNotFound(err))
}

func TestNormalizeNameNFC(t *testing.T) {
	store := newTestStore(t)
	clip := writeClip(t, "voice.wav", []byte("clip"))

	// "が" composed from "か" + combining dakuten must land in the same
	// directory as the precomposed form.
	decomposed := "がんちゃん"
	composed := "がんちゃん"

	_, err := store.Save(decomposed, clip, params.Defaults())
	require.NoError(t, err)

	loaded, err := store.Load(composed)
	require.NoError(t, err)
	assert.Equal(t, composed, loaded.Name)
}
