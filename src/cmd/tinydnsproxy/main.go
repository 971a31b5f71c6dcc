package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/maksimkurb/tinydnsproxy/src/internal/api"
	"github.com/maksimkurb/tinydnsproxy/src/internal/commands"
	"github.com/maksimkurb/tinydnsproxy/src/internal/log"
)

var (
	version = "dev"
	commit  = "n/a"
	date    = "n/a"
)

func main() {
	ctx := &commands.AppContext{}

	flag.StringVar(&ctx.ConfigPath, "config", "/etc/tinydnsproxy/config.toml", "Path to configuration file")
	flag.BoolVar(&ctx.Verbose, "verbose", false, "Enable debug logging")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Blocking DNS-over-TLS forwarding proxy\n")
		fmt.Fprintf(os.Stderr, "Version: %s (Commit: %s, Date: %s)\n\n", version, commit, date)
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <command>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "       %s <config.toml>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  service                 Run the DNS proxy (default when a config file is given)\n")
		fmt.Fprintf(os.Stderr, "  check-config            Validate the configuration and print a summary\n")
		fmt.Fprintf(os.Stderr, "  fetch-lists             Fetch all block lists once and print entry counts\n")
		fmt.Fprintf(os.Stderr, "  check <domain>          Report whether a domain is blocked\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	api.Version, api.Commit, api.Date = version, commit, date

	if ctx.Verbose {
		log.SetVerbose(true)
	}

	args := flag.Args()

	if len(args) < 1 {
		flag.Usage()
		os.Exit(1)
	}

	// tinydnsproxy <config.toml> runs the service with that file.
	if strings.HasSuffix(args[0], ".toml") {
		ctx.ConfigPath = args[0]
		args = append([]string{"service"}, args[1:]...)
	}

	if _, err := os.Stat(ctx.ConfigPath); errors.Is(err, os.ErrNotExist) {
		log.Fatalf("Configuration file not found: %s", ctx.ConfigPath)
	}

	cmds := []commands.Runner{
		commands.CreateServiceCommand(),
		commands.CreateCheckConfigCommand(),
		commands.CreateFetchListsCommand(),
		commands.CreateCheckCommand(),
	}

	subcommand := args[0]
	for _, cmd := range cmds {
		if cmd.Name() == subcommand {
			if err := cmd.Init(args[1:], ctx); err != nil {
				log.Fatalf("Failed to initialize command: %v", err)
			}

			if err := cmd.Run(); err != nil {
				log.Fatalf("Failed to run command: %v", err)
			}

			os.Exit(0)
		}
	}

	log.Fatalf("Unknown subcommand: %s", subcommand)
}
