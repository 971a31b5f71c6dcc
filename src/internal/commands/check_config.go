package commands

import (
	"flag"
	"fmt"

	"github.com/maksimkurb/tinydnsproxy/src/internal/config"
)

func CreateCheckConfigCommand() *CheckConfigCommand {
	return &CheckConfigCommand{
		fs: flag.NewFlagSet("check-config", flag.ExitOnError),
	}
}

type CheckConfigCommand struct {
	fs  *flag.FlagSet
	cfg *config.Config
	ctx *AppContext
}

func (c *CheckConfigCommand) Name() string {
	return c.fs.Name()
}

func (c *CheckConfigCommand) Init(args []string, ctx *AppContext) error {
	c.ctx = ctx

	if err := c.fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadAndValidateConfigOrFail(ctx.ConfigPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	return nil
}

func (c *CheckConfigCommand) Run() error {
	out := c.ctx.out()

	fmt.Fprintf(out, "Configuration %s is valid\n", c.ctx.ConfigPath)
	fmt.Fprintf(out, "  listen:           %s (udp)\n", c.cfg.GetBindAddr())
	fmt.Fprintf(out, "  workers:          %d\n", c.cfg.GetWorkerCount())
	fmt.Fprintf(out, "  refresh interval: %s\n", c.cfg.GetRefreshInterval())
	fmt.Fprintf(out, "  upstream timeout: %s\n", c.cfg.GetUpstreamTimeout())
	if c.cfg.General.APIListen != "" {
		fmt.Fprintf(out, "  status API:       %s\n", c.cfg.General.APIListen)
	}

	fmt.Fprintf(out, "Block lists (%d):\n", len(c.cfg.HTTPBlockLists)+len(c.cfg.FileBlockLists))
	for _, list := range c.cfg.HTTPBlockLists {
		fmt.Fprintf(out, "  - %s\n", list.URL)
	}
	for _, list := range c.cfg.FileBlockLists {
		fmt.Fprintf(out, "  - %s\n", list.GetAbsolutePath(c.cfg))
	}

	fmt.Fprintf(out, "DoT providers (%d):\n", len(c.cfg.DoTProviders))
	for _, provider := range c.cfg.DoTProviders {
		pinned := ""
		if provider.Cert != "" {
			pinned = " (pinned)"
		}
		fmt.Fprintf(out, "  - %s%s\n", provider, pinned)
	}

	return nil
}
