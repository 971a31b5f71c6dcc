package dnsproxy

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"runtime"
	"sync"
	"time"

	"github.com/miekg/dns"

	"github.com/maksimkurb/tinydnsproxy/src/internal/config"
	"github.com/maksimkurb/tinydnsproxy/src/internal/dnswire"
	apperrors "github.com/maksimkurb/tinydnsproxy/src/internal/errors"
	"github.com/maksimkurb/tinydnsproxy/src/internal/log"
	"github.com/maksimkurb/tinydnsproxy/src/internal/metrics"
	"github.com/maksimkurb/tinydnsproxy/src/internal/upstream"
)

const (
	receiveBufferSize  = 8192            // Largest datagram accepted from clients
	udpReadTimeout     = 1 * time.Second // UDP read deadline so the loop notices shutdown
	queueSizePerWorker = 16              // Pending requests per worker before receive blocks
)

// ProxyConfig contains configuration for the DNS proxy.
type ProxyConfig struct {
	// ListenAddr is the UDP host:port to listen on.
	ListenAddr string

	// Workers is the number of request workers (0 = number of CPUs).
	Workers int
}

// ProxyConfigFromAppConfig creates a ProxyConfig from the application config.
func ProxyConfigFromAppConfig(cfg *config.Config) ProxyConfig {
	return ProxyConfig{
		ListenAddr: cfg.GetBindAddr(),
		Workers:    cfg.GetWorkerCount(),
	}
}

// BlockList reports whether a domain is blocked.
type BlockList interface {
	Check(domain string) bool
}

// ProviderSelector picks the upstream for a request.
type ProviderSelector interface {
	Select() (*upstream.Provider, error)
}

// Exchanger sends a raw query to a provider and returns the raw response.
type Exchanger interface {
	Exchange(ctx context.Context, provider *upstream.Provider, query []byte) ([]byte, error)
}

// replier sends a response datagram. net.PacketConn satisfies it.
type replier interface {
	WriteTo(b []byte, addr net.Addr) (int, error)
}

type request struct {
	msg   []byte
	addr  net.Addr
	reply replier
}

// DNSProxy is a UDP DNS proxy that answers blocked queries with NXDOMAIN and
// forwards everything else over DNS-over-TLS.
type DNSProxy struct {
	config ProxyConfig

	blockList BlockList
	providers ProviderSelector
	client    Exchanger
	metrics   *metrics.Metrics

	conn *net.UDPConn
	wg   sync.WaitGroup
}

// NewDNSProxy creates a new DNS proxy. m may be nil.
func NewDNSProxy(cfg ProxyConfig, blockList BlockList, providers ProviderSelector, client Exchanger, m *metrics.Metrics) *DNSProxy {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	return &DNSProxy{
		config:    cfg,
		blockList: blockList,
		providers: providers,
		client:    client,
		metrics:   m,
	}
}

// Listen binds the UDP socket.
func (p *DNSProxy) Listen() error {
	udpAddr, err := net.ResolveUDPAddr("udp", p.config.ListenAddr)
	if err != nil {
		return apperrors.NewIOError(fmt.Sprintf("failed to resolve UDP address %s", p.config.ListenAddr), err)
	}

	p.conn, err = net.ListenUDP("udp", udpAddr)
	if err != nil {
		return apperrors.NewIOError(fmt.Sprintf("failed to listen UDP on %s", p.config.ListenAddr), err)
	}

	log.Infof("DNS proxy listening on %s", p.conn.LocalAddr())
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (p *DNSProxy) Addr() net.Addr {
	if p.conn == nil {
		return nil
	}
	return p.conn.LocalAddr()
}

// Serve handles requests until ctx is done or receiving fails with a
// non-transient error. The socket is bound first if Listen was not called.
// Serve waits for queued requests to finish and closes the socket on return.
func (p *DNSProxy) Serve(ctx context.Context) error {
	if p.conn == nil {
		if err := p.Listen(); err != nil {
			return err
		}
	}
	defer func() { _ = p.conn.Close() }()

	requests := make(chan request, p.config.Workers*queueSizePerWorker)
	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, requests)
	}
	log.Debugf("Started %d DNS workers", p.config.Workers)

	err := p.serveUDP(ctx, requests)

	close(requests)
	p.wg.Wait()

	log.Infof("DNS proxy stopped")
	return err
}

// serveUDP receives datagrams and queues them for the workers.
func (p *DNSProxy) serveUDP(ctx context.Context, requests chan<- request) error {
	buf := make([]byte, receiveBufferSize)

	for {
		if ctx.Err() != nil {
			return nil
		}

		if err := p.conn.SetReadDeadline(time.Now().Add(udpReadTimeout)); err != nil {
			return apperrors.NewIOError("failed to set read deadline", err)
		}
		n, clientAddr, err := p.conn.ReadFrom(buf)
		if err != nil {
			if isTransient(err) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return apperrors.NewIOError("failed to receive datagram", err)
		}

		msg := make([]byte, n)
		copy(msg, buf[:n])
		clear(buf[:n])

		select {
		case requests <- request{msg: msg, addr: clientAddr, reply: p.conn}:
		case <-ctx.Done():
			return nil
		}
	}
}

func (p *DNSProxy) worker(ctx context.Context, requests <-chan request) {
	defer p.wg.Done()

	for req := range requests {
		p.handle(ctx, req)
	}
}

// handle processes one request and writes the reply, if any.
func (p *DNSProxy) handle(ctx context.Context, req request) {
	resp, err := p.processRequest(ctx, req.addr, req.msg)
	if err != nil {
		p.metrics.ObserveQuery(metrics.ResultDropped)
		log.Warnf("Dropping request from %s: %v", req.addr, err)
		return
	}

	if _, err := req.reply.WriteTo(resp, req.addr); err != nil {
		log.Debugf("UDP write error to %s: %v", req.addr, err)
	}
}

// processRequest returns the reply for msg. Blocked queries are answered by
// rewriting msg in place.
func (p *DNSProxy) processRequest(ctx context.Context, clientAddr net.Addr, msg []byte) ([]byte, error) {
	domain, err := dnswire.ExtractQuestionDomain(msg)
	if err != nil {
		return nil, err
	}
	id := binary.BigEndian.Uint16(msg[0:2])

	if log.IsVerbose() {
		log.Debugf("[%04x] DNS query: %s from %s", id, describeQuery(msg, domain), clientAddr)
	}

	if p.blockList.Check(domain) {
		if err := dnswire.ForceNXDomain(msg); err != nil {
			return nil, err
		}
		p.metrics.ObserveQuery(metrics.ResultBlocked)
		log.Debugf("[%04x] %s is blocked", id, domain)
		return msg, nil
	}

	provider, err := p.providers.Select()
	if err != nil {
		return nil, err
	}

	started := time.Now()
	resp, err := p.client.Exchange(ctx, provider, msg)
	if err != nil {
		p.metrics.UpstreamFailed(errorKind(err))
		return nil, fmt.Errorf("[%04x] upstream %s failed for %s: %w", id, provider, domain, err)
	}
	p.metrics.ObserveUpstream(provider.String(), time.Since(started))
	p.metrics.ObserveQuery(metrics.ResultForwarded)

	log.Debugf("[%04x] %s resolved via %s", id, domain, provider)
	return resp, nil
}

// describeQuery returns "name type" for log output, falling back to the
// extracted domain if msg does not unpack.
func describeQuery(msg []byte, domain string) string {
	var m dns.Msg
	if err := m.Unpack(msg); err != nil || len(m.Question) == 0 {
		return domain
	}
	q := m.Question[0]
	return fmt.Sprintf("%s %s", q.Name, dns.TypeToString[q.Qtype])
}

// errorKind maps an upstream error to its metrics label.
func errorKind(err error) string {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrCodeIO:
		return metrics.KindConnect
	case apperrors.ErrCodeTLS, apperrors.ErrCodeTLSHandshake:
		return metrics.KindTLS
	case apperrors.ErrCodeFraming:
		return metrics.KindFraming
	default:
		return metrics.KindOther
	}
}
