package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"stanza/internal/config"
	"stanza/internal/logging"
	"stanza/internal/stanza"
	"stanza/internal/syncstate"
	"stanza/internal/workflow"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	indexOnce sync.Once
	index     *syncstate.Store
	indexErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// ensureIndex opens the sync index once. It returns nil without error when
// the index is disabled.
func (c *commandContext) ensureIndex() (*syncstate.Store, error) {
	c.indexOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.indexErr = err
			return
		}
		if !cfg.Index.Enabled {
			return
		}
		c.index, c.indexErr = syncstate.Open(cfg.Index.Path)
	})
	return c.index, c.indexErr
}

func (c *commandContext) requireIndex() (*syncstate.Store, error) {
	index, err := c.ensureIndex()
	if err != nil {
		return nil, err
	}
	if index == nil {
		return nil, errors.New("sync index is disabled; set [index] enabled = true in the configuration")
	}
	return index, nil
}

func (c *commandContext) newRunner() (*workflow.Runner, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	index, err := c.ensureIndex()
	if err != nil {
		return nil, fmt.Errorf("open sync index: %w", err)
	}
	return workflow.NewRunner(workflow.Options{
		Format:  stanzaFormat(cfg),
		Index:   index,
		LockDir: cfg.LockDir(),
		Logger:  logger,
	})
}

func (c *commandContext) close() error {
	if c.index == nil {
		return nil
	}
	err := c.index.Close()
	c.index = nil
	return err
}

func stanzaFormat(cfg *config.Config) stanza.Format {
	headings := make([]string, len(cfg.Format.Headings))
	copy(headings, cfg.Format.Headings)
	return stanza.Format{
		Headings:     headings,
		Extension:    cfg.Format.Extension,
		Frontmatter:  cfg.Format.Frontmatter,
		ManifestName: cfg.Format.Manifest,
		WrapWidth:    cfg.Format.WrapWidth,
		AllowUnicode: cfg.Format.AllowUnicode,
	}
}

// resolveJobs maps positional arguments onto jobs. Two arguments are an
// explicit pair, one names a configured document, and none selects every
// configured document. For combine the pair is given destination first, so
// swapPair flips it.
func (c *commandContext) resolveJobs(args []string, swapPair bool) ([]workflow.Job, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	switch len(args) {
	case 2:
		first, err := config.ExpandPath(args[0])
		if err != nil {
			return nil, err
		}
		second, err := config.ExpandPath(args[1])
		if err != nil {
			return nil, err
		}
		if swapPair {
			first, second = second, first
		}
		return []workflow.Job{{Source: first, Destination: second}}, nil
	case 1:
		doc, ok := cfg.Document(args[0])
		if !ok {
			return nil, fmt.Errorf("no document named %q in the configuration", args[0])
		}
		return []workflow.Job{documentJob(doc)}, nil
	case 0:
		if len(cfg.Documents) == 0 {
			return nil, errors.New("no documents configured; pass paths explicitly or add [[documents]] to the configuration")
		}
		jobs := make([]workflow.Job, 0, len(cfg.Documents))
		for _, doc := range cfg.Documents {
			jobs = append(jobs, documentJob(doc))
		}
		return jobs, nil
	default:
		return nil, fmt.Errorf("expected at most 2 arguments, got %d", len(args))
	}
}

// resolveDestinations accepts a document name or a stanza directory path.
func (c *commandContext) resolveDestinations(args []string) ([]workflow.Job, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		if doc, ok := cfg.Document(args[0]); ok {
			return []workflow.Job{documentJob(doc)}, nil
		}
		dest, err := config.ExpandPath(args[0])
		if err != nil {
			return nil, err
		}
		return []workflow.Job{{Destination: dest}}, nil
	}
	return c.resolveJobs(args, false)
}

func documentJob(doc config.Document) workflow.Job {
	return workflow.Job{Name: doc.Name, Source: doc.Source, Destination: doc.Destination}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
