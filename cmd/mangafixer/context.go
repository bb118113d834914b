package main

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"mangafixer/internal/config"
	"mangafixer/internal/runlock"
	"mangafixer/internal/tracking"
)

type commandContext struct {
	configFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

// errNoStore reports that no run has created the tracking store yet.
var errNoStore = errors.New("no tracking store yet")

// withStore runs fn with the run lock held and the tracking store open. It
// returns errNoStore rather than creating a store, so the first run still
// bootstraps.
func (c *commandContext) withStore(ctx context.Context, fn func(*tracking.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	lock, err := runlock.Acquire(cfg.LockPath())
	if err != nil {
		return err
	}
	defer lock.Release()

	exists, err := tracking.Exists(cfg.Paths.DataDir)
	if err != nil {
		return err
	}
	if !exists {
		return errNoStore
	}
	store, err := tracking.Open(ctx, cfg.Paths.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// storeBusy reports whether err means another process owns the store.
func storeBusy(err error) bool {
	return errors.Is(err, runlock.ErrLocked)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
