// Package hub downloads Hugging Face dataset snapshots.
//
// A snapshot is opaque to secfetch: the file list comes from the hub API
// and every listed file is fetched into the target directory. Presence of
// a non-empty target directory is what marks the snapshot as acquired.
package hub

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/secdatalab/secfetch/internal/catalog"
	"github.com/secdatalab/secfetch/internal/config"
	"github.com/secdatalab/secfetch/internal/dirstat"
	"github.com/secdatalab/secfetch/internal/logging"
	"github.com/secdatalab/secfetch/internal/phase"
	"github.com/secdatalab/secfetch/internal/probe"
)

// datasetInfo is the hub API's dataset metadata. Only the file listing is
// needed.
type datasetInfo struct {
	ID       string `json:"id"`
	Siblings []struct {
		Rfilename string `json:"rfilename"`
	} `json:"siblings"`
}

// Downloader fetches dataset snapshots from the hub.
type Downloader struct {
	client *resty.Client
	log    *logging.Logger
}

// New creates a hub downloader from config.
func New(cfg config.HubConfig, log *logging.Logger) *Downloader {
	if log == nil {
		log = logging.NewNop()
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.FileTimeout.Duration()).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second)

	return &Downloader{
		client: client,
		log:    log,
	}
}

// Fetch implements phase.Fetcher for hub resources.
func (d *Downloader) Fetch(ctx context.Context, desc catalog.Descriptor, targetDir string, update bool) phase.Outcome {
	out := phase.Outcome{
		Name:   desc.LocalName,
		Kind:   desc.Kind,
		Source: desc.Source,
	}

	switch probe.Snapshot(targetDir) {
	case probe.Valid:
		if !update {
			out.Status = phase.StatusSkipped
			out.Detail = "already present"
			out.SizeBytes = dirstat.Size(targetDir)
			return out
		}
	case probe.Invalid:
		d.log.Warn(ctx, "removing invalid snapshot remnant", zap.String("path", targetDir))
		if err := os.RemoveAll(targetDir); err != nil {
			out.Status = phase.StatusFailed
			out.Detail = fmt.Sprintf("removing invalid remnant: %v", err)
			return out
		}
	}

	refreshed := probe.Snapshot(targetDir) == probe.Valid

	files, err := d.snapshot(ctx, desc.Source, targetDir)
	if err != nil {
		// A partial first-time snapshot would probe as valid on the next
		// run, so remove it. A failed refresh keeps the existing copy.
		if !refreshed {
			_ = os.RemoveAll(targetDir)
		}

		out.Status = phase.StatusFailed
		out.Detail = fmt.Sprintf("snapshot failed: %v", err)
		return out
	}

	if refreshed {
		out.Status = phase.StatusUpdated
	} else {
		out.Status = phase.StatusDownloaded
	}
	out.Detail = fmt.Sprintf("%d file(s)", files)
	out.SizeBytes = dirstat.Size(targetDir)
	return out
}

// snapshot downloads every file of the dataset into targetDir and returns
// the file count.
func (d *Downloader) snapshot(ctx context.Context, datasetID, targetDir string) (int, error) {
	var info datasetInfo
	resp, err := d.client.R().
		SetContext(ctx).
		SetResult(&info).
		ForceContentType("application/json").
		Get("/api/datasets/" + datasetID)
	if err != nil {
		return 0, fmt.Errorf("listing dataset %s: %w", datasetID, err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("listing dataset %s: HTTP %d", datasetID, resp.StatusCode())
	}
	if len(info.Siblings) == 0 {
		return 0, fmt.Errorf("dataset %s has no files", datasetID)
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return 0, fmt.Errorf("creating target directory: %w", err)
	}

	for _, sibling := range info.Siblings {
		localPath := filepath.Join(targetDir, filepath.FromSlash(sibling.Rfilename))
		if !strings.HasPrefix(localPath, targetDir+string(filepath.Separator)) {
			return 0, fmt.Errorf("dataset file name %q escapes the target directory", sibling.Rfilename)
		}
		if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
			return 0, fmt.Errorf("creating directory for %s: %w", sibling.Rfilename, err)
		}

		d.log.Debug(ctx, "downloading dataset file", zap.String("file", sibling.Rfilename))

		resp, err := d.client.R().
			SetContext(ctx).
			SetOutput(localPath).
			Get(fmt.Sprintf("/datasets/%s/resolve/main/%s", datasetID, sibling.Rfilename))
		if err != nil {
			return 0, fmt.Errorf("downloading %s: %w", sibling.Rfilename, err)
		}
		if resp.IsError() {
			return 0, fmt.Errorf("downloading %s: HTTP %d", sibling.Rfilename, resp.StatusCode())
		}
	}

	return len(info.Siblings), nil
}
