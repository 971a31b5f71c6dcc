// Package commands implements CLI command handlers for tinydnsproxy.
//
// Each subcommand implements the Runner interface:
//   - Init(): parse arguments, load and validate configuration
//   - Run(): execute the command
//   - Name(): return command name for routing
//
// # Available Commands
//
//   - service: run the DNS proxy with block list refresh and the optional status API
//   - check-config: validate the configuration and print a summary
//   - fetch-lists: fetch every block list once and print entry counts
//   - check: fetch every block list once and report whether a domain is blocked
//
// # Example Usage
//
//	cmd := commands.CreateCheckConfigCommand()
//	ctx := &commands.AppContext{ConfigPath: "/etc/tinydnsproxy/config.toml"}
//	if err := cmd.Init(nil, ctx); err != nil {
//	    log.Fatalf("Failed to initialize command: %v", err)
//	}
//	if err := cmd.Run(); err != nil {
//	    log.Fatalf("Failed to run command: %v", err)
//	}
package commands
