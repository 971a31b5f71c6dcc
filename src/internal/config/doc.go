// Package config handles configuration file parsing and validation for tinydnsproxy.
//
// The configuration is a TOML file with a [general] section, zero or more
// [[http_block_list]] and [[file_block_list]] sources and one or more
// [[dot_provider]] upstreams:
//
//	[general]
//	bind_ip = "127.0.0.1"
//	bind_port = 53
//	refresh_blocklists_after = 1440
//
//	[[http_block_list]]
//	url = "https://example.com/hosts"
//
//	[[dot_provider]]
//	ip = "1.1.1.1"
//	port = 853
//	hostname = "cloudflare-dns.com"
//
// Relative paths (file lists, pinned certificates) are resolved against the
// directory of the configuration file.
//
//	cfg, err := config.LoadConfig("/etc/tinydnsproxy/config.toml")
//	if err != nil {
//	    log.Fatalf("%v", err)
//	}
//	if err := cfg.ValidateConfig(); err != nil {
//	    log.Fatalf("%v", err)
//	}
package config
