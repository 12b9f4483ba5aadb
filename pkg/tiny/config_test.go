package tiny

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults for missing keys", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, ConfigFile)
		require.NoError(t, os.WriteFile(path, []byte("trace = true\n"), 0644))

		config, err := LoadConfig(path)
		require.NoError(t, err)
		assert.True(t, config.Trace)
		assert.True(t, config.Cache)
		assert.Empty(t, config.Bindings)
		assert.Equal(t, DefaultCacheDir(), config.CacheDirectory())
	})

	t.Run("all keys", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, ConfigFile)
		require.NoError(t, os.WriteFile(path, []byte(`trace = false
cache = false
cache_dir = "cache"

[bindings]
width = 3
height = 4
`), 0644))

		config, err := LoadConfig(path)
		require.NoError(t, err)
		assert.False(t, config.Trace)
		assert.False(t, config.Cache)
		assert.Equal(t, filepath.Join(dir, "cache"), config.CacheDirectory())
		assert.Equal(t, Bindings{{Name: "height", Value: 4}, {Name: "width", Value: 3}}, config.BindingList())
	})

	t.Run("unknown keys", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ConfigFile)
		require.NoError(t, os.WriteFile(path, []byte("tracing = true\n"), 0644))

		_, err := LoadConfig(path)
		require.ErrorContains(t, err, "unknown keys")
	})

	t.Run("invalid toml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ConfigFile)
		require.NoError(t, os.WriteFile(path, []byte("[bindings\n"), 0644))

		_, err := LoadConfig(path)
		require.Error(t, err)
	})
}

func TestFindConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	t.Run("stops at .git", func(t *testing.T) {
		require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0755))

		path, config, err := FindConfig(nested)
		require.NoError(t, err)
		assert.Empty(t, path)
		assert.Nil(t, config)
	})

	t.Run("walks up", func(t *testing.T) {
		configPath := filepath.Join(root, "a", ConfigFile)
		require.NoError(t, os.WriteFile(configPath, []byte("[bindings]\nn = 1\n"), 0644))

		path, config, err := FindConfig(nested)
		require.NoError(t, err)
		assert.Equal(t, configPath, path)
		require.NotNil(t, config)
		assert.Equal(t, int64(1), config.Bindings["n"])
	})
}

func TestApplyEnv(t *testing.T) {
	config := DefaultConfig()
	err := config.ApplyEnv([]string{
		"HOME=/root",
		"TINY_TRACE=true",
		"TINY_CACHE=0",
		"TINY_CACHE_DIR=/tmp/tiny",
		"TINY_BINDING_WIDTH=12",
		"TINY_BINDING_=5",
	})
	require.NoError(t, err)

	assert.True(t, config.Trace)
	assert.False(t, config.Cache)
	assert.Equal(t, "/tmp/tiny", config.CacheDirectory())
	assert.Equal(t, map[string]int64{"width": 12}, config.Bindings)

	t.Run("bad values", func(t *testing.T) {
		require.Error(t, DefaultConfig().ApplyEnv([]string{"TINY_TRACE=maybe"}))
		require.Error(t, DefaultConfig().ApplyEnv([]string{"TINY_BINDING_X=one"}))
	})
}

func TestBindings(t *testing.T) {
	b := BindingsFromMap(map[string]int64{"b": 2, "a": 1})
	assert.Equal(t, []string{"a", "b"}, b.Names())
	assert.Equal(t, []int64{1, 2}, b.Values())
	assert.Equal(t, []string{"a", "b"}, b.Env().Names())

	shadowed := b.With("b", 20)
	v, ok := shadowed.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, int64(20), v)

	// With copies
	v, ok = b.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, int64(2), v)

	_, ok = b.Lookup("c")
	assert.False(t, ok)
}
