// Package supervisor runs the player's background services under a suture
// tree so a crashing watcher or sync loop is restarted without taking the
// frame loop down.
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"vj-frame/pkg/logging"
)

// TreeConfig holds supervisor tuning. Zero values take the defaults.
type TreeConfig struct {
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  5 * time.Second,
	}
}

// Tree has two layers: media (directory watcher, S3 mirror) and api
// (metrics endpoint).
type Tree struct {
	root   *suture.Supervisor
	media  *suture.Supervisor
	api    *suture.Supervisor
	config TreeConfig
}

// NewTree builds the tree. Supervisor events are logged through logger, or
// through the global zerolog logger when logger is nil.
func NewTree(logger *slog.Logger, config TreeConfig) *Tree {
	d := DefaultTreeConfig()
	if config.FailureThreshold == 0 {
		config.FailureThreshold = d.FailureThreshold
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = d.FailureDecay
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = d.FailureBackoff
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = d.ShutdownTimeout
	}
	if logger == nil {
		logger = slog.New(logging.NewSlogHandler())
	}

	spec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}
	rootSpec := spec
	rootSpec.EventHook = (&sutureslog.Handler{Logger: logger}).MustHook()

	root := suture.New("vj-frame", rootSpec)
	media := suture.New("media", spec)
	api := suture.New("api", spec)
	root.Add(media)
	root.Add(api)

	return &Tree{root: root, media: media, api: api, config: config}
}

func (t *Tree) Root() *suture.Supervisor { return t.root }

// AddMediaService adds a service feeding the media library.
func (t *Tree) AddMediaService(svc suture.Service) suture.ServiceToken {
	return t.media.Add(svc)
}

// AddAPIService adds a network-facing service.
func (t *Tree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// ServeBackground starts the tree. The channel yields the result once ctx is
// cancelled and every service stopped.
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// UnstoppedServiceReport lists services that ignored shutdown.
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
