package github

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"gitlab.com/tozd/go/errors"

	"github.com/hassansecfix/policy-edit-sub000/pkg/config"
	"github.com/hassansecfix/policy-edit-sub000/pkg/log"
)

// 🚚 Delivery runs the whole round trip: commit the edited document,
// dispatch the conversion workflow, wait for it, and collect artifacts.
type Delivery struct {
	client  *Client
	cfg     *config.DeliveryArgs
	console *log.Logger
}

// 🏭 NewDelivery creates a delivery orchestrator.
func NewDelivery(client *Client, cfg *config.DeliveryArgs, console *log.Logger) *Delivery {
	return &Delivery{client: client, cfg: cfg, console: console}
}

// Deliver pushes localPath through the repository. When wait is false it
// returns after the dispatch; otherwise it blocks for the run and
// returns the artifact download URLs.
func (d *Delivery) Deliver(ctx context.Context, localPath string, wait bool) (map[string]string, error) {
	content, err := os.ReadFile(localPath)
	if err != nil {
		return nil, errors.Errorf("reading %s for delivery: %w", localPath, err)
	}

	remote := d.cfg.CommitPath
	if remote == "" {
		remote = filepath.Base(localPath)
	}

	if d.console != nil {
		d.console.Infof("committing %s to %s/%s@%s", remote, d.cfg.Owner, d.cfg.Repo, d.cfg.Branch)
	}
	msg := "Deliver edited policy document"
	if err := d.client.CommitFile(ctx, d.cfg.Owner, d.cfg.Repo, d.cfg.Branch, remote, content, msg); err != nil {
		return nil, err
	}

	dispatchedAt := time.Now()
	inputs := map[string]any{"document": remote}
	if err := d.client.DispatchWorkflow(ctx, d.cfg.Owner, d.cfg.Repo, d.cfg.WorkflowFile, d.cfg.Branch, inputs); err != nil {
		return nil, err
	}
	if !wait {
		return nil, nil
	}

	if d.console != nil {
		d.console.Infof("waiting for %s to finish", d.cfg.WorkflowFile)
	}
	run, err := d.client.WaitForRun(ctx, d.cfg.Owner, d.cfg.Repo, d.cfg.WorkflowFile, dispatchedAt, 0)
	if err != nil {
		return nil, err
	}
	if run.GetConclusion() != "success" {
		return nil, errors.Errorf("conversion workflow finished with conclusion %q", run.GetConclusion())
	}

	urls, err := d.client.ArtifactURLs(ctx, d.cfg.Owner, d.cfg.Repo, run.GetID())
	if err != nil {
		return nil, err
	}
	if d.console != nil {
		d.console.Successf("delivery complete, %d artifact(s) available", len(urls))
	}
	return urls, nil
}
