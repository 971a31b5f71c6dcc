package dnswire

import (
	"bytes"
	"errors"
	"testing"

	"github.com/miekg/dns"

	apperrors "github.com/maksimkurb/tinydnsproxy/src/internal/errors"
)

func packQuery(t *testing.T, names ...string) []byte {
	t.Helper()

	msg := new(dns.Msg)
	msg.Id = 0xbeef
	msg.RecursionDesired = true
	for _, name := range names {
		msg.Question = append(msg.Question, dns.Question{Name: name, Qtype: dns.TypeA, Qclass: dns.ClassINET})
	}

	packed, err := msg.Pack()
	if err != nil {
		t.Fatalf("Failed to pack query: %v", err)
	}
	return packed
}

func TestExtractQuestionDomain(t *testing.T) {
	tests := []struct {
		name     string
		qname    string
		expected string
	}{
		{"simple", "example.com.", "example.com"},
		{"case preserved", "Ads.Example.COM.", "Ads.Example.COM"},
		{"single label", "localhost.", "localhost"},
		{"deep", "a.b.c.d.e.f.example.org.", "a.b.c.d.e.f.example.org"},
		{"hyphen and digits", "cdn-01.static9.net.", "cdn-01.static9.net"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractQuestionDomain(packQuery(t, tt.qname))
			if err != nil {
				t.Fatalf("ExtractQuestionDomain() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("ExtractQuestionDomain() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestExtractQuestionDomain_QuestionCount(t *testing.T) {
	tests := []struct {
		name  string
		names []string
	}{
		{"no questions", nil},
		{"two questions", []string{"example.com.", "example.org."}},
		{"three questions", []string{"a.com.", "b.com.", "c.com."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := packQuery(t, tt.names...)
			original := append([]byte(nil), msg...)

			_, err := ExtractQuestionDomain(msg)
			if !errors.Is(err, apperrors.ErrTooManyQuestions) {
				t.Errorf("ExtractQuestionDomain() error = %v, want TooManyQuestions", err)
			}
			if !bytes.Equal(msg, original) {
				t.Error("ExtractQuestionDomain() modified the message")
			}
		})
	}
}

func TestExtractQuestionDomain_Malformed(t *testing.T) {
	valid := packQuery(t, "example.com.")

	tests := []struct {
		name string
		msg  []byte
	}{
		{"empty", nil},
		{"header only prefix", valid[:5]},
		{"no question bytes", valid[:HeaderSize]},
		{"truncated label", valid[:HeaderSize+4]},
		{"missing terminator", valid[:HeaderSize+1+7+1+3]},
		{"label longer than buffer", append(append([]byte(nil), valid[:HeaderSize]...), 0x3f, 'a', 'b')},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractQuestionDomain(tt.msg)
			if !errors.Is(err, apperrors.ErrMalformedMessage) {
				t.Errorf("ExtractQuestionDomain() error = %v, want MalformedMessage", err)
			}
		})
	}
}

func TestExtractQuestionDomain_InvalidEncoding(t *testing.T) {
	msg := append([]byte(nil), packQuery(t, "example.com.")[:HeaderSize]...)
	msg = append(msg, 2, 0xff, 0xfe, 3, 'c', 'o', 'm', 0, 0, 1, 0, 1)

	_, err := ExtractQuestionDomain(msg)
	if !errors.Is(err, apperrors.ErrInvalidEncoding) {
		t.Errorf("ExtractQuestionDomain() error = %v, want InvalidEncoding", err)
	}
}

func TestForceNXDomain(t *testing.T) {
	msg := packQuery(t, "blocked.example.com.")
	original := append([]byte(nil), msg...)

	if err := ForceNXDomain(msg); err != nil {
		t.Fatalf("ForceNXDomain() error = %v", err)
	}

	if msg[2] != 0x81 || msg[3] != 0x83 {
		t.Errorf("flags = %#02x %#02x, want 0x81 0x83", msg[2], msg[3])
	}
	if !bytes.Equal(msg[:2], original[:2]) || !bytes.Equal(msg[4:], original[4:]) {
		t.Error("ForceNXDomain() changed bytes outside the flags")
	}

	reply := new(dns.Msg)
	if err := reply.Unpack(msg); err != nil {
		t.Fatalf("Rewritten message does not unpack: %v", err)
	}
	if !reply.Response || !reply.RecursionAvailable {
		t.Errorf("Expected response with RA set, got %+v", reply.MsgHdr)
	}
	if reply.Rcode != dns.RcodeNameError {
		t.Errorf("Rcode = %s, want NXDOMAIN", dns.RcodeToString[reply.Rcode])
	}
	if reply.Id != 0xbeef {
		t.Errorf("Id = %#04x, want 0xbeef", reply.Id)
	}
	if len(reply.Question) != 1 || reply.Question[0].Name != "blocked.example.com." {
		t.Errorf("Question section changed: %v", reply.Question)
	}
}

func TestForceNXDomain_Idempotent(t *testing.T) {
	once := packQuery(t, "example.com.")
	twice := append([]byte(nil), once...)

	_ = ForceNXDomain(once)
	_ = ForceNXDomain(twice)
	_ = ForceNXDomain(twice)

	if !bytes.Equal(once, twice) {
		t.Errorf("ForceNXDomain() is not idempotent: %x vs %x", once, twice)
	}
}

func TestForceNXDomain_TooShort(t *testing.T) {
	for _, msg := range [][]byte{nil, {0x12}, {0x12, 0x34, 0x01}} {
		if err := ForceNXDomain(msg); !errors.Is(err, apperrors.ErrMalformedMessage) {
			t.Errorf("ForceNXDomain(%x) error = %v, want MalformedMessage", msg, err)
		}
	}
}
