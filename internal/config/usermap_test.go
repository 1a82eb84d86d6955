package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUserMap(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    UserMap
		wantErr string
	}{
		{name: "empty", input: "", want: UserMap{}},
		{name: "single", input: "alice=a.smith", want: UserMap{"alice": "a.smith"}},
		{
			name:  "several with spaces and trailing separator",
			input: " alice = a.smith ; bob=b.jones;",
			want:  UserMap{"alice": "a.smith", "bob": "b.jones"},
		},
		{name: "author with spaces", input: "Alice Smith=a.smith", want: UserMap{"Alice Smith": "a.smith"}},
		{name: "missing separator", input: "alice", wantErr: "invalid user map syntax 'alice'"},
		{name: "two separators", input: "alice=a=b", wantErr: "invalid user map syntax 'alice=a=b'"},
		{name: "empty login", input: "alice=", wantErr: "invalid user map syntax 'alice='"},
		{name: "duplicate", input: "alice=a;alice=b", wantErr: "duplicate user map entry 'alice'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseUserMap(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadUserMapFile(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		path := writeFile(t, "users.yaml", "Alice: a.smith\nbob: b.jones\n")
		got, err := LoadUserMapFile(path)
		require.NoError(t, err)
		assert.Equal(t, UserMap{"Alice": "a.smith", "bob": "b.jones"}, got)
	})

	t.Run("yml", func(t *testing.T) {
		path := writeFile(t, "users.yml", "carol: c.white\n")
		got, err := LoadUserMapFile(path)
		require.NoError(t, err)
		assert.Equal(t, UserMap{"carol": "c.white"}, got)
	})

	t.Run("toml", func(t *testing.T) {
		path := writeFile(t, "users.toml", "alice = \"a.smith\"\n\"Bob Jones\" = \"b.jones\"\n")
		got, err := LoadUserMapFile(path)
		require.NoError(t, err)
		assert.Equal(t, UserMap{"alice": "a.smith", "Bob Jones": "b.jones"}, got)
	})

	t.Run("json", func(t *testing.T) {
		path := writeFile(t, "users.json", `{"Dave": "d.brown"}`)
		got, err := LoadUserMapFile(path)
		require.NoError(t, err)
		assert.Equal(t, UserMap{"Dave": "d.brown"}, got)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := writeFile(t, "users.txt", "alice=a.smith")
		_, err := LoadUserMapFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported format")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeFile(t, "users.yaml", "- alice\n- bob\n")
		_, err := LoadUserMapFile(path)
		assert.Error(t, err)
	})

	t.Run("empty login", func(t *testing.T) {
		path := writeFile(t, "users.yaml", "alice: \"\"\n")
		_, err := LoadUserMapFile(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadUserMapFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestUserMapMerge(t *testing.T) {
	m := UserMap{"alice": "a.smith"}
	require.NoError(t, m.Merge(UserMap{"bob": "b.jones"}))
	assert.Equal(t, UserMap{"alice": "a.smith", "bob": "b.jones"}, m)

	err := m.Merge(UserMap{"alice": "someone.else"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate user map entry 'alice'")
}
