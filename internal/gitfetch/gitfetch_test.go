package gitfetch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/secdatalab/secfetch/internal/catalog"
	"github.com/secdatalab/secfetch/internal/logging"
	"github.com/secdatalab/secfetch/internal/phase"
)

// newOrigin creates a local git repository with one commit to clone from.
func newOrigin(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# dataset\n"), 0o644))

	worktree, err := repo.Worktree()
	require.NoError(t, err)
	_, err = worktree.Add("README.md")
	require.NoError(t, err)
	_, err = worktree.Commit("initial commit", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "test",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)

	return dir
}

func newFetcher(t *testing.T) (*Fetcher, *logging.TestLogger) {
	t.Helper()
	tl := logging.NewTestLogger()
	return New(time.Minute, tl.Logger), tl
}

func TestFetchClone(t *testing.T) {
	origin := newOrigin(t)
	fetcher, _ := newFetcher(t)
	target := filepath.Join(t.TempDir(), "repo")

	desc := catalog.Descriptor{Kind: catalog.KindGit, Source: origin, LocalName: "repo"}
	out := fetcher.Fetch(context.Background(), desc, target, false)

	assert.Equal(t, phase.StatusDownloaded, out.Status)
	assert.Equal(t, "cloned", out.Detail)
	assert.Positive(t, out.SizeBytes)
	assert.FileExists(t, filepath.Join(target, "README.md"))
}

func TestFetchSkipsExistingClone(t *testing.T) {
	origin := newOrigin(t)
	fetcher, _ := newFetcher(t)
	target := filepath.Join(t.TempDir(), "repo")
	desc := catalog.Descriptor{Kind: catalog.KindGit, Source: origin, LocalName: "repo"}

	first := fetcher.Fetch(context.Background(), desc, target, false)
	require.Equal(t, phase.StatusDownloaded, first.Status)

	second := fetcher.Fetch(context.Background(), desc, target, false)
	assert.Equal(t, phase.StatusSkipped, second.Status)
	assert.Equal(t, "already present", second.Detail)
	assert.Positive(t, second.SizeBytes)
}

func TestFetchUpdateWhenUpToDate(t *testing.T) {
	origin := newOrigin(t)
	fetcher, _ := newFetcher(t)
	target := filepath.Join(t.TempDir(), "repo")
	desc := catalog.Descriptor{Kind: catalog.KindGit, Source: origin, LocalName: "repo"}

	first := fetcher.Fetch(context.Background(), desc, target, false)
	require.Equal(t, phase.StatusDownloaded, first.Status)

	out := fetcher.Fetch(context.Background(), desc, target, true)
	assert.Equal(t, phase.StatusUpdated, out.Status)
	// go-git reports an up-to-date pull either way depending on version.
	assert.Contains(t, []string{"already up to date", "fast-forwarded"}, out.Detail)
	assert.Positive(t, out.SizeBytes)
}

func TestFetchReplacesInvalidRemnant(t *testing.T) {
	origin := newOrigin(t)
	fetcher, tl := newFetcher(t)
	target := filepath.Join(t.TempDir(), "repo")

	// Simulate an interrupted clone: a directory that is not a repository.
	require.NoError(t, os.MkdirAll(target, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "partial"), []byte("x"), 0o644))

	desc := catalog.Descriptor{Kind: catalog.KindGit, Source: origin, LocalName: "repo"}
	out := fetcher.Fetch(context.Background(), desc, target, false)

	assert.Equal(t, phase.StatusDownloaded, out.Status)
	assert.FileExists(t, filepath.Join(target, "README.md"))
	assert.NoFileExists(t, filepath.Join(target, "partial"))
	tl.AssertLogged(t, zapcore.WarnLevel, "removing invalid remnant")
}

func TestFetchCloneFailureLeavesNoTarget(t *testing.T) {
	fetcher, _ := newFetcher(t)
	target := filepath.Join(t.TempDir(), "repo")

	desc := catalog.Descriptor{
		Kind:      catalog.KindGit,
		Source:    filepath.Join(t.TempDir(), "no-such-origin"),
		LocalName: "repo",
	}
	out := fetcher.Fetch(context.Background(), desc, target, false)

	assert.Equal(t, phase.StatusFailed, out.Status)
	assert.Contains(t, out.Detail, "clone failed")
	assert.NoDirExists(t, target)
}

func TestFetchUpdateFailureKeepsLocalCopy(t *testing.T) {
	origin := newOrigin(t)
	fetcher, _ := newFetcher(t)
	target := filepath.Join(t.TempDir(), "repo")
	desc := catalog.Descriptor{Kind: catalog.KindGit, Source: origin, LocalName: "repo"}

	first := fetcher.Fetch(context.Background(), desc, target, false)
	require.Equal(t, phase.StatusDownloaded, first.Status)

	// Make the remote unreachable, then update.
	require.NoError(t, os.RemoveAll(origin))

	out := fetcher.Fetch(context.Background(), desc, target, true)
	assert.Equal(t, phase.StatusFailed, out.Status)
	assert.Contains(t, out.Detail, "update failed")
	assert.FileExists(t, filepath.Join(target, "README.md"), "failed update must keep the local copy")
}
