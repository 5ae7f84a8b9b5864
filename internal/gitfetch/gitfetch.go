// Package gitfetch acquires git-backed resources via shallow clone and
// fast-forward update.
//
// Full history is never required for dataset use, so clones are restricted
// to the latest revision of the default branch. Every network operation is
// bounded by the configured timeout; a timed-out or failed clone removes
// the partial target so the next run sees it as absent.
package gitfetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	git "github.com/go-git/go-git/v5"
	"go.uber.org/zap"

	"github.com/secdatalab/secfetch/internal/catalog"
	"github.com/secdatalab/secfetch/internal/dirstat"
	"github.com/secdatalab/secfetch/internal/logging"
	"github.com/secdatalab/secfetch/internal/phase"
	"github.com/secdatalab/secfetch/internal/probe"
)

// Fetcher clones or updates git repositories.
type Fetcher struct {
	timeout time.Duration
	log     *logging.Logger
}

// New creates a git fetcher with the given per-operation timeout.
func New(timeout time.Duration, log *logging.Logger) *Fetcher {
	if log == nil {
		log = logging.NewNop()
	}
	return &Fetcher{
		timeout: timeout,
		log:     log,
	}
}

// Fetch implements phase.Fetcher for git resources.
func (f *Fetcher) Fetch(ctx context.Context, desc catalog.Descriptor, targetDir string, update bool) phase.Outcome {
	out := phase.Outcome{
		Name:   desc.LocalName,
		Kind:   desc.Kind,
		Source: desc.Source,
	}

	switch probe.Repo(targetDir) {
	case probe.Valid:
		if !update {
			out.Status = phase.StatusSkipped
			out.Detail = "already present"
			out.SizeBytes = dirstat.Size(targetDir)
			return out
		}
		return f.pull(ctx, targetDir, out)

	case probe.Invalid:
		f.log.Warn(ctx, "removing invalid remnant", zap.String("path", targetDir))
		if err := os.RemoveAll(targetDir); err != nil {
			out.Status = phase.StatusFailed
			out.Detail = fmt.Sprintf("removing invalid remnant: %v", err)
			return out
		}
	}

	return f.clone(ctx, desc.Source, targetDir, out)
}

// clone performs a shallow clone bounded by the fetcher timeout.
func (f *Fetcher) clone(ctx context.Context, url, targetDir string, out phase.Outcome) phase.Outcome {
	f.log.Info(ctx, "cloning repository", zap.String("url", url))

	cloneCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	_, err := git.PlainCloneContext(cloneCtx, targetDir, false, &git.CloneOptions{
		URL:          url,
		Depth:        1,
		SingleBranch: true,
		Tags:         git.NoTags,
	})
	if err != nil {
		// Never leave a half-cloned directory behind; the next run
		// should see Absent, not Invalid.
		_ = os.RemoveAll(targetDir)

		out.Status = phase.StatusFailed
		if errors.Is(cloneCtx.Err(), context.DeadlineExceeded) {
			out.Detail = fmt.Sprintf("clone timed out after %s", f.timeout)
		} else {
			out.Detail = fmt.Sprintf("clone failed: %v", err)
		}
		return out
	}

	out.Status = phase.StatusDownloaded
	out.Detail = "cloned"
	out.SizeBytes = dirstat.Size(targetDir)
	return out
}

// pull attempts a fast-forward update of an existing clone. On failure the
// local copy is left untouched.
func (f *Fetcher) pull(ctx context.Context, targetDir string, out phase.Outcome) phase.Outcome {
	f.log.Info(ctx, "updating repository", zap.String("path", targetDir))

	pullCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	repo, err := git.PlainOpen(targetDir)
	if err != nil {
		out.Status = phase.StatusFailed
		out.Detail = fmt.Sprintf("opening repository: %v", err)
		return out
	}
	worktree, err := repo.Worktree()
	if err != nil {
		out.Status = phase.StatusFailed
		out.Detail = fmt.Sprintf("opening worktree: %v", err)
		return out
	}

	err = worktree.PullContext(pullCtx, &git.PullOptions{
		RemoteName:   "origin",
		SingleBranch: true,
	})
	switch {
	case err == nil:
		out.Status = phase.StatusUpdated
		out.Detail = "fast-forwarded"
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		out.Status = phase.StatusUpdated
		out.Detail = "already up to date"
	case errors.Is(pullCtx.Err(), context.DeadlineExceeded):
		out.Status = phase.StatusFailed
		out.Detail = fmt.Sprintf("update timed out after %s", f.timeout)
	default:
		out.Status = phase.StatusFailed
		out.Detail = fmt.Sprintf("update failed: %v", err)
	}

	if out.Status != phase.StatusFailed {
		out.SizeBytes = dirstat.Size(targetDir)
	}
	return out
}
