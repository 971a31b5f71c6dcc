package testutil

import (
	"crypto/tls"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/miekg/dns"
)

// DoTServer is an in-process DNS-over-TLS server backed by miekg/dns.
type DoTServer struct {
	Hostname string
	IP       string
	Port     uint16
	CertPEM  []byte

	queries atomic.Int64
	server  *dns.Server
}

// Queries returns the number of queries the server has answered.
func (s *DoTServer) Queries() int64 {
	return s.queries.Load()
}

// StartDoTServer starts a DoT server on 127.0.0.1 with a self-signed
// certificate for hostname. It is shut down when the test finishes.
func StartDoTServer(t testing.TB, hostname string, handler dns.HandlerFunc) *DoTServer {
	t.Helper()

	cert, certPEM := SelfSignedCert(t, hostname)
	ln, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	})
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}

	s := &DoTServer{
		Hostname: hostname,
		IP:       "127.0.0.1",
		Port:     uint16(ln.Addr().(*net.TCPAddr).Port),
		CertPEM:  certPEM,
	}

	started := make(chan struct{})
	s.server = &dns.Server{
		Listener: ln,
		Net:      "tcp-tls",
		Handler: dns.HandlerFunc(func(w dns.ResponseWriter, r *dns.Msg) {
			s.queries.Add(1)
			handler(w, r)
		}),
		NotifyStartedFunc: func() { close(started) },
	}

	go func() {
		_ = s.server.ActivateAndServe()
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("DoT server did not start")
	}

	t.Cleanup(func() {
		_ = s.server.Shutdown()
	})
	return s
}

// AnswerA returns a handler answering every query with an A record.
func AnswerA(ip string) dns.HandlerFunc {
	return func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		m.RecursionAvailable = true
		m.Answer = append(m.Answer, &dns.A{
			Hdr: dns.RR_Header{Name: r.Question[0].Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 300},
			A:   net.ParseIP(ip),
		})
		_ = w.WriteMsg(m)
	}
}

// PackQuery builds a packed single-question A query for name.
func PackQuery(t testing.TB, id uint16, name string) []byte {
	t.Helper()

	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), dns.TypeA)
	m.Id = id
	packed, err := m.Pack()
	if err != nil {
		t.Fatalf("Failed to pack query: %v", err)
	}
	return packed
}
