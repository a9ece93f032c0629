package opts

import (
	"context"

	"github.com/hassansecfix/policy-edit-sub000/pkg/config"
	"github.com/hassansecfix/policy-edit-sub000/pkg/log"
)

// RootOpts contains shared options used by all commands. The config is
// loaded lazily so flag parsing has happened by the time it is read.
type RootOpts struct {
	ConfigFile string
	Debug      bool
	Console    *log.Logger
}

// Load reads and validates the run configuration.
func (o *RootOpts) Load(ctx context.Context) (*config.Config, error) {
	return config.Load(ctx, o.ConfigFile)
}
