package pipeline

import (
	"context"

	"gitlab.com/tozd/go/errors"

	"github.com/hassansecfix/policy-edit-sub000/pkg/config"
	"github.com/hassansecfix/policy-edit-sub000/pkg/document"
	"github.com/hassansecfix/policy-edit-sub000/pkg/document/memdoc"
	"github.com/hassansecfix/policy-edit-sub000/pkg/host"
)

// 🔌 OpenDocument opens the run's document on the chosen backend: the
// live automation host, or the in-memory backend for dry runs. The
// returned closer tears the backend down; the document handle must not
// be used after calling it.
func OpenDocument(ctx context.Context, cfg *config.Config, dryRun bool) (document.Document, func() error, error) {
	if dryRun {
		d, err := memdoc.Open(cfg.Document.Input)
		if err != nil {
			return nil, nil, errors.Errorf("opening document for dry run: %w", err)
		}
		return d, func() error { return nil }, nil
	}

	sess, err := host.Connect(ctx, host.Options{
		Address:        cfg.Host.Address,
		ConnectRetries: cfg.Host.ConnectRetries,
		RetryInterval:  cfg.Host.Interval(),
	})
	if err != nil {
		return nil, nil, err
	}
	doc, err := sess.Open(ctx, cfg.Document.Input)
	if err != nil {
		_ = sess.Close()
		return nil, nil, err
	}
	return doc, sess.Close, nil
}
