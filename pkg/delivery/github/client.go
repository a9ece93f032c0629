// Package github delivers run outputs through a GitHub repository: the
// edited document is committed, a conversion workflow is dispatched, and
// the resulting artifacts are located. All calls go through one
// rate-limited client so bursts never trip the API's secondary limits.
package github

import (
	"context"
	"sync"
	"time"

	"github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/oauth2"
)

// 🔧 Options configures the delivery client.
type Options struct {
	Token       string
	MinInterval time.Duration // minimum spacing between API calls
	BaseURL     string        // override for tests
}

// 🎯 Client wraps the GitHub API with call spacing.
type Client struct {
	gh          *github.Client
	minInterval time.Duration

	mu       sync.Mutex
	lastCall time.Time
}

// 🏭 New creates a delivery client.
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.Token == "" {
		return nil, errors.Errorf("a GitHub token is required")
	}
	if opts.MinInterval <= 0 {
		opts.MinInterval = 500 * time.Millisecond
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
	gh := github.NewClient(oauth2.NewClient(ctx, ts))
	if opts.BaseURL != "" {
		var err error
		gh, err = gh.WithEnterpriseURLs(opts.BaseURL, opts.BaseURL)
		if err != nil {
			return nil, errors.Errorf("setting API base URL: %w", err)
		}
	}
	return &Client{gh: gh, minInterval: opts.MinInterval}, nil
}

// throttle blocks until the minimum spacing since the previous call has
// elapsed.
func (c *Client) throttle(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	wait := c.lastCall.Add(c.minInterval).Sub(now)
	if wait < 0 {
		wait = 0
	}
	c.lastCall = now.Add(wait)
	c.mu.Unlock()

	if wait == 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// 📤 CommitFile creates or updates one file on the branch.
func (c *Client) CommitFile(ctx context.Context, owner, repo, branch, path string, content []byte, message string) error {
	logger := zerolog.Ctx(ctx)

	if err := c.throttle(ctx); err != nil {
		return err
	}
	existing, _, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, &github.RepositoryContentGetOptions{Ref: branch})
	var sha *string
	switch {
	case err == nil && existing != nil:
		sha = existing.SHA
	case resp != nil && resp.StatusCode == 404:
		// new file
	case err != nil:
		return errors.Errorf("checking existing content at %s: %w", path, err)
	}

	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
		Branch:  github.String(branch),
		SHA:     sha,
	}

	if err := c.throttle(ctx); err != nil {
		return err
	}
	if sha != nil {
		_, _, err = c.gh.Repositories.UpdateFile(ctx, owner, repo, path, opts)
	} else {
		_, _, err = c.gh.Repositories.CreateFile(ctx, owner, repo, path, opts)
	}
	if err != nil {
		return errors.Errorf("committing %s: %w", path, err)
	}
	logger.Info().Str("path", path).Str("branch", branch).Bool("update", sha != nil).Msg("file committed")
	return nil
}

// 🚀 DispatchWorkflow triggers the conversion workflow on ref.
func (c *Client) DispatchWorkflow(ctx context.Context, owner, repo, workflowFile, ref string, inputs map[string]any) error {
	if err := c.throttle(ctx); err != nil {
		return err
	}
	event := github.CreateWorkflowDispatchEventRequest{Ref: ref, Inputs: inputs}
	if _, err := c.gh.Actions.CreateWorkflowDispatchEventByFileName(ctx, owner, repo, workflowFile, event); err != nil {
		return errors.Errorf("dispatching workflow %s: %w", workflowFile, err)
	}
	zerolog.Ctx(ctx).Info().Str("workflow", workflowFile).Str("ref", ref).Msg("workflow dispatched")
	return nil
}

// ⏳ WaitForRun polls until a run of the workflow created at or after
// since finishes, and returns it. The caller inspects the conclusion.
func (c *Client) WaitForRun(ctx context.Context, owner, repo, workflowFile string, since time.Time, pollInterval time.Duration) (*github.WorkflowRun, error) {
	logger := zerolog.Ctx(ctx)
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}

	for {
		if err := c.throttle(ctx); err != nil {
			return nil, err
		}
		runs, _, err := c.gh.Actions.ListWorkflowRunsByFileName(ctx, owner, repo, workflowFile, &github.ListWorkflowRunsOptions{
			Created:     ">=" + since.UTC().Format(time.RFC3339),
			ListOptions: github.ListOptions{PerPage: 5},
		})
		if err != nil {
			return nil, errors.Errorf("listing workflow runs: %w", err)
		}
		for _, run := range runs.WorkflowRuns {
			if run.GetStatus() == "completed" {
				logger.Info().Int64("run_id", run.GetID()).Str("conclusion", run.GetConclusion()).Msg("workflow run finished")
				return run, nil
			}
		}

		t := time.NewTimer(pollInterval)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, errors.Errorf("waiting for workflow run: %w", ctx.Err())
		case <-t.C:
		}
	}
}

// 📦 ArtifactURLs returns the download URLs of a run's artifacts.
func (c *Client) ArtifactURLs(ctx context.Context, owner, repo string, runID int64) (map[string]string, error) {
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}
	artifacts, _, err := c.gh.Actions.ListWorkflowRunArtifacts(ctx, owner, repo, runID, nil)
	if err != nil {
		return nil, errors.Errorf("listing run artifacts: %w", err)
	}
	urls := make(map[string]string, len(artifacts.Artifacts))
	for _, a := range artifacts.Artifacts {
		urls[a.GetName()] = a.GetArchiveDownloadURL()
	}
	return urls, nil
}
