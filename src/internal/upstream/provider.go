package upstream

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"math/rand/v2"
	"net"
	"os"
	"strconv"

	"github.com/maksimkurb/tinydnsproxy/src/internal/config"
	apperrors "github.com/maksimkurb/tinydnsproxy/src/internal/errors"
)

// Provider is a DNS-over-TLS server.
type Provider struct {
	IP       string
	Port     uint16
	Hostname string
	Pinned   bool

	rootCAs *x509.CertPool
}

// NewProvider returns a provider. If certPEM is not empty it must contain at
// least one PEM certificate which becomes the only accepted trust anchor.
func NewProvider(ip string, port uint16, hostname string, certPEM []byte) (*Provider, error) {
	p := &Provider{IP: ip, Port: port, Hostname: hostname}

	if len(certPEM) > 0 {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(certPEM) {
			return nil, apperrors.NewConfigError(fmt.Sprintf("no valid PEM certificate for provider %s", p), nil)
		}
		p.rootCAs = pool
		p.Pinned = true
	}

	return p, nil
}

func (p *Provider) Address() string {
	return net.JoinHostPort(p.IP, strconv.Itoa(int(p.Port)))
}

func (p *Provider) String() string {
	return fmt.Sprintf("%s@%s", p.Hostname, p.Address())
}

func (p *Provider) tlsConfig() *tls.Config {
	return &tls.Config{
		ServerName: p.Hostname,
		RootCAs:    p.rootCAs,
		MinVersion: tls.VersionTLS12,
	}
}

// Providers is an immutable list of providers. It is safe for concurrent use.
type Providers struct {
	list []*Provider
}

func NewProviders(list ...*Provider) *Providers {
	return &Providers{list: list}
}

// NewProvidersFromConfig builds providers from cfg, reading pinned certificates
// from disk. An empty provider list is an error matching apperrors.ErrNoProviders.
func NewProvidersFromConfig(cfg *config.Config) (*Providers, error) {
	if len(cfg.DoTProviders) == 0 {
		return nil, apperrors.ErrNoProviders
	}

	list := make([]*Provider, 0, len(cfg.DoTProviders))
	for _, pc := range cfg.DoTProviders {
		var certPEM []byte
		if certPath := pc.GetAbsCertPath(cfg); certPath != "" {
			content, err := os.ReadFile(certPath)
			if err != nil {
				return nil, apperrors.NewConfigError(fmt.Sprintf("failed to read certificate for provider %s", pc), err)
			}
			certPEM = content
		}

		p, err := NewProvider(pc.IP, pc.Port, pc.Hostname, certPEM)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}

	return NewProviders(list...), nil
}

// Select returns a provider chosen uniformly at random.
func (p *Providers) Select() (*Provider, error) {
	if len(p.list) == 0 {
		return nil, apperrors.ErrNoProviders
	}
	return p.list[rand.IntN(len(p.list))], nil
}

func (p *Providers) Len() int {
	return len(p.list)
}

// All returns a copy of the provider list.
func (p *Providers) All() []*Provider {
	return append([]*Provider(nil), p.list...)
}
