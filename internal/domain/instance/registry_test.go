package instance

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAddAndGet(t *testing.T) {
	r := NewRegistry()
	dir := t.TempDir()

	inst := &Instance{UUID: "abc", Nickname: "lobby", Cwd: dir}
	require.NoError(t, r.Add(inst))

	assert.True(t, r.Exists("abc"))
	assert.False(t, r.Exists("missing"))
	assert.False(t, r.Exists(""))

	got, err := r.Get("abc")
	require.NoError(t, err)
	assert.Equal(t, dir, got.Cwd)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestRegistryGeneratesUUID(t *testing.T) {
	r := NewRegistry()
	inst := &Instance{Nickname: "generated", Cwd: t.TempDir()}
	require.NoError(t, r.Add(inst))

	assert.NotEmpty(t, inst.UUID)
	assert.True(t, r.Exists(inst.UUID))
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(&Instance{UUID: "dup", Cwd: t.TempDir()}))
	assert.Error(t, r.Add(&Instance{UUID: "dup", Cwd: t.TempDir()}))
}

func TestRegistryRequiresCwd(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Add(&Instance{UUID: "nocwd"}))
	assert.Error(t, r.Add(nil))
}

func TestRegistryGetMissing(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("ghost")
	assert.True(t, errors.Is(err, ErrInstanceNotFound))
}

func TestRegistryRemoveAndList(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(&Instance{UUID: "2", Nickname: "b", Cwd: t.TempDir()}))
	require.NoError(t, r.Add(&Instance{UUID: "1", Nickname: "a", Cwd: t.TempDir()}))

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Nickname)
	assert.Equal(t, 2, r.Count())

	r.Remove("1")
	assert.False(t, r.Exists("1"))
	assert.Equal(t, 1, r.Count())
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "instances.yaml",
			content: `instances:
  - uuid: one
    nickname: survival
    cwd: data/one
  - uuid: two
    nickname: creative
    cwd: data/two
`,
		},
		{
			name: "toml",
			file: "instances.toml",
			content: `[[instances]]
uuid = "one"
nickname = "survival"
cwd = "data/one"

[[instances]]
uuid = "two"
nickname = "creative"
cwd = "data/two"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			r := NewRegistry()
			n, err := r.LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			inst, err := r.Get("one")
			require.NoError(t, err)
			assert.Equal(t, "survival", inst.Nickname)
			assert.Equal(t, filepath.Join(dir, "data", "one"), inst.Cwd)
		})
	}
}

func TestLoadFileUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "instances.ini")
	require.NoError(t, os.WriteFile(path, []byte("x=1"), 0644))

	_, err := NewRegistry().LoadFile(path)
	assert.Error(t, err)
}
