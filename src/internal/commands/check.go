package commands

import (
	"flag"
	"fmt"
	"strings"

	"github.com/maksimkurb/tinydnsproxy/src/internal/config"
)

func CreateCheckCommand() *CheckCommand {
	return &CheckCommand{
		fs: flag.NewFlagSet("check", flag.ExitOnError),
	}
}

// CheckCommand reports whether a domain is present in the configured block lists.
type CheckCommand struct {
	fs     *flag.FlagSet
	cfg    *config.Config
	ctx    *AppContext
	domain string
}

func (c *CheckCommand) Name() string {
	return c.fs.Name()
}

func (c *CheckCommand) Init(args []string, ctx *AppContext) error {
	c.ctx = ctx

	if err := c.fs.Parse(args); err != nil {
		return err
	}

	if c.fs.NArg() != 1 {
		return fmt.Errorf("usage: check <domain>")
	}
	c.domain = strings.TrimSuffix(c.fs.Arg(0), ".")
	if c.domain == "" {
		return fmt.Errorf("domain must not be empty")
	}

	cfg, err := loadAndValidateConfigOrFail(ctx.ConfigPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	return nil
}

func (c *CheckCommand) Run() error {
	ctx, stop := signalContext()
	defer stop()

	cache, err := refreshOnce(ctx, c.cfg)
	if err != nil {
		return err
	}

	if cache.Check(c.domain) {
		fmt.Fprintf(c.ctx.out(), "%s is blocked\n", c.domain)
	} else {
		fmt.Fprintf(c.ctx.out(), "%s is not blocked\n", c.domain)
	}

	return nil
}
