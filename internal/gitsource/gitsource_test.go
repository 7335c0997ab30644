package gitsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPath(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{url: "https://github.com/acme/banks.git", want: filepath.Join("repos", "github.com", "acme", "banks")},
		{url: "http://git.local/team/exams", want: filepath.Join("repos", "git.local", "team", "exams")},
		{url: "git@github.com:acme/banks.git", want: filepath.Join("repos", "github.com", "acme", "banks")},
		{url: "not a url", wantErr: true},
		{url: "https://h/../../x", wantErr: true},
		{url: "https://h/a/../../../x.git", wantErr: true},
		{url: "git@h:../../x.git", wantErr: true},
		{url: "https://h/a/../b", want: filepath.Join("repos", "h", "b")},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := LocalPath("repos", tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://github.com/acme/banks"))
	assert.True(t, IsRemote("git@github.com:acme/banks.git"))
	assert.True(t, IsRemote("/srv/banks.git"))
	assert.False(t, IsRemote("/home/me/banks"))
	assert.False(t, IsRemote("banks"))
}

// newUpstream creates a repository with one committed file.
func newUpstream(t *testing.T) (string, *git.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	commitFile(t, repo, dir, "net.csv", "v1")
	return dir, repo
}

func commitFile(t *testing.T, repo *git.Repository, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)
	_, err = wt.Commit("update "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}

func TestSync_ClonesThenPulls(t *testing.T) {
	upstream, repo := newUpstream(t)
	local := filepath.Join(t.TempDir(), "clones", "banks")
	ctx := context.Background()

	require.NoError(t, Sync(ctx, upstream, local, nil))
	body, err := os.ReadFile(filepath.Join(local, "net.csv"))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(body))

	require.NoError(t, Sync(ctx, upstream, local, nil), "pulling an up-to-date clone is fine")

	commitFile(t, repo, upstream, "net.csv", "v2")
	require.NoError(t, Sync(ctx, upstream, local, nil))
	body, err = os.ReadFile(filepath.Join(local, "net.csv"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(body))
}
