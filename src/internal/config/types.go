package config

import (
	"fmt"
	"net"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/maksimkurb/tinydnsproxy/src/internal/utils"
)

const (
	defaultUpstreamTimeout = 5 * time.Second
)

type Config struct {
	// General holds listener, worker and refresh settings.
	General *GeneralConfig `toml:"general"`
	// HTTPBlockLists are block lists downloaded over HTTP(S) on every refresh.
	HTTPBlockLists []*HTTPBlockList `toml:"http_block_list,omitempty"`
	// FileBlockLists are block lists read from local files on every refresh.
	FileBlockLists []*FileBlockList `toml:"file_block_list,omitempty"`
	// DoTProviders are the DNS-over-TLS upstreams. At least one is required.
	DoTProviders []*DoTProvider `toml:"dot_provider"`

	_absConfigFilePath string
}

type GeneralConfig struct {
	// BindIP is the IP address the UDP listener binds to.
	BindIP string `toml:"bind_ip" json:"bind_ip" validate:"required,ip"`
	// BindPort is the UDP port the listener binds to.
	BindPort uint16 `toml:"bind_port" json:"bind_port" validate:"required,min=1"`
	// RefreshBlocklistsAfter is the block list refresh interval in minutes.
	RefreshBlocklistsAfter uint64 `toml:"refresh_blocklists_after" json:"refresh_blocklists_after" validate:"required,min=1"`
	// WorkerThreads is the number of request workers (0 = number of CPUs).
	WorkerThreads int `toml:"worker_threads,omitempty" json:"worker_threads" validate:"min=0"`
	// UpstreamTimeoutSeconds bounds connect, handshake and exchange with a provider (0 = 5 seconds).
	UpstreamTimeoutSeconds int `toml:"upstream_timeout_seconds,omitempty" json:"upstream_timeout_seconds" validate:"min=0,max=300"`
	// APIListen is the host:port of the status API (empty = disabled).
	APIListen string `toml:"api_listen,omitempty" json:"api_listen" validate:"hostport_or_empty"`
	// WatchFileLists triggers an early refresh when a file block list changes on disk.
	WatchFileLists bool `toml:"watch_file_lists,omitempty" json:"watch_file_lists"`
}

type HTTPBlockList struct {
	// URL is the http:// or https:// address of the list.
	URL string `toml:"url" json:"url" validate:"required,list_url"`
}

type FileBlockList struct {
	// Path is the list file path, relative paths are resolved against the config directory.
	Path string `toml:"path" json:"path" validate:"required"`
}

type DoTProvider struct {
	// IP is the provider address.
	IP string `toml:"ip" json:"ip" validate:"required,ip"`
	// Port is the provider DoT port, usually 853.
	Port uint16 `toml:"port" json:"port" validate:"required,min=1"`
	// Hostname is used for SNI and certificate verification.
	Hostname string `toml:"hostname" json:"hostname" validate:"required,hostname_rfc1123"`
	// Cert is an optional PEM certificate the provider must present.
	Cert string `toml:"cert,omitempty" json:"cert,omitempty"`
}

func (c *Config) GetConfigDir() string {
	return filepath.Dir(c._absConfigFilePath)
}

// GetBindAddr returns the listener address in host:port form.
func (c *Config) GetBindAddr() string {
	return net.JoinHostPort(c.General.BindIP, strconv.Itoa(int(c.General.BindPort)))
}

// GetWorkerCount returns the configured worker count or the number of CPUs.
func (c *Config) GetWorkerCount() int {
	if c.General.WorkerThreads > 0 {
		return c.General.WorkerThreads
	}
	return runtime.NumCPU()
}

func (c *Config) GetRefreshInterval() time.Duration {
	return time.Duration(c.General.RefreshBlocklistsAfter) * time.Minute
}

func (c *Config) GetUpstreamTimeout() time.Duration {
	if c.General.UpstreamTimeoutSeconds > 0 {
		return time.Duration(c.General.UpstreamTimeoutSeconds) * time.Second
	}
	return defaultUpstreamTimeout
}

// GetAbsolutePath returns the list file path resolved against the config directory.
func (f *FileBlockList) GetAbsolutePath(cfg *Config) string {
	return utils.GetAbsolutePath(f.Path, cfg.GetConfigDir())
}

// GetAbsCertPath returns the pinned certificate path resolved against the
// config directory, or "" if no certificate is pinned.
func (p *DoTProvider) GetAbsCertPath(cfg *Config) string {
	if p.Cert == "" {
		return ""
	}
	return utils.GetAbsolutePath(p.Cert, cfg.GetConfigDir())
}

// Address returns the provider address in ip:port form.
func (p *DoTProvider) Address() string {
	return net.JoinHostPort(p.IP, strconv.Itoa(int(p.Port)))
}

func (p *DoTProvider) String() string {
	return fmt.Sprintf("%s@%s", p.Hostname, p.Address())
}
