package activity

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRepoList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []RepoID
	}{
		{
			name:  "one per line",
			input: "acme/widgets\nx/y\n",
			want:  []RepoID{{"acme", "widgets"}, {"x", "y"}},
		},
		{
			name:  "comments and blanks",
			input: "# canonical list\n\nacme/widgets\n  \n# x/y\nx/z\n",
			want:  []RepoID{{"acme", "widgets"}, {"x", "z"}},
		},
		{
			name:  "csv with header",
			input: "repository,stars,language\nacme/widgets,120,Go\nx/y,3,Rust\n",
			want:  []RepoID{{"acme", "widgets"}, {"x", "y"}},
		},
		{
			name:  "ragged csv",
			input: "repo\nacme/widgets,1\nx/y\n",
			want:  []RepoID{{"acme", "widgets"}, {"x", "y"}},
		},
		{
			name:  "empty",
			input: "",
			want:  []RepoID{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadRepoList(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadRepoList_Malformed(t *testing.T) {
	_, err := ReadRepoList(strings.NewReader("acme/widgets\nnot-a-repo\n"))
	assert.ErrorIs(t, err, ErrMalformedRepo)
}

func TestReadRepoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repos.txt")
	require.NoError(t, os.WriteFile(path, []byte("acme/widgets\n"), 0644))

	got, err := ReadRepoFile(path)
	require.NoError(t, err)
	assert.Equal(t, []RepoID{{"acme", "widgets"}}, got)

	_, err = ReadRepoFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
