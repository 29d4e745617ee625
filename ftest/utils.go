package ftest

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
	giimapclient "github.com/emersion/go-imap/v2/imapclient"
	giimapserver "github.com/emersion/go-imap/v2/imapserver"
	giimapmemserver "github.com/emersion/go-imap/v2/imapserver/imapmemserver"
)

const (
	DefaultUser = "user@example.com"
	DefaultPass = "password"
)

// MailboxMessage is appended to Mailbox (INBOX when empty) before the server starts.
// Date is written verbatim as the Date header when set.
type MailboxMessage struct {
	Mailbox string
	From    string
	Subject string
	Date    string
	Body    string
	Time    time.Time
}

// StoredMessage is what a test observes in a mailbox after a workflow ran.
type StoredMessage struct {
	UID     uint32
	From    string
	Subject string
	Deleted bool
}

// Server is a running in-memory IMAP server.
type Server struct {
	Addr  string
	UIDs  []uint32
	close func()
}

func (s *Server) Close() {
	s.close()
}

// SetupIMAPServer starts a TLS IMAP server with INBOX, the extra mailboxes and the
// given messages. UIDs holds the appended UIDs in message order.
func SetupIMAPServer(t *testing.T, extraMailboxes []string, messages []MailboxMessage) *Server {
	t.Helper()

	tlsConfig := testTLSConfig(t)
	mem := giimapmemserver.New()
	user := giimapmemserver.NewUser(DefaultUser, DefaultPass)
	mem.AddUser(user)

	if err := user.Create("INBOX", nil); err != nil {
		t.Fatalf("create mailbox: %v", err)
	}
	for _, mailbox := range extraMailboxes {
		if strings.TrimSpace(mailbox) == "" {
			continue
		}
		if err := user.Create(mailbox, nil); err != nil {
			t.Fatalf("create mailbox %q: %v", mailbox, err)
		}
	}

	uids := make([]uint32, 0, len(messages))
	for _, msg := range messages {
		mailbox := strings.TrimSpace(msg.Mailbox)
		if mailbox == "" {
			mailbox = "INBOX"
		}
		appendTime := msg.Time
		if appendTime.IsZero() {
			appendTime = time.Now()
		}
		data, err := user.Append(mailbox, newLiteral(t, sampleMessage(msg)), &imap.AppendOptions{Time: appendTime})
		if err != nil {
			t.Fatalf("append message: %v", err)
		}
		uids = append(uids, uint32(data.UID))
	}

	server := giimapserver.New(&giimapserver.Options{
		NewSession: func(*giimapserver.Conn) (giimapserver.Session, *giimapserver.GreetingData, error) {
			return mem.NewSession(), nil, nil
		},
		TLSConfig:    tlsConfig,
		InsecureAuth: true,
	})

	ln, err := tls.Listen("tcp", "127.0.0.1:0", tlsConfig)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	cleanup := func() {
		_ = server.Close()
		_ = ln.Close()
		select {
		case <-errCh:
		default:
		}
	}

	return &Server{
		Addr:  ln.Addr().String(),
		UIDs:  uids,
		close: cleanup,
	}
}

// ClientTLSConfig trusts the self-signed test certificate.
func ClientTLSConfig() *tls.Config {
	return &tls.Config{InsecureSkipVerify: true}
}

// ListMailbox logs in on a fresh connection and returns every message in mailbox,
// including those flagged \Deleted but not yet expunged.
func ListMailbox(t *testing.T, addr, mailbox string) []StoredMessage {
	t.Helper()

	client, err := giimapclient.DialTLS(addr, &giimapclient.Options{TLSConfig: ClientTLSConfig()})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() {
		_ = client.Logout().Wait()
	}()

	if err := client.Login(DefaultUser, DefaultPass).Wait(); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := client.Select(mailbox, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		t.Fatalf("select %q: %v", mailbox, err)
	}

	search, err := client.UIDSearch(&imap.SearchCriteria{}, nil).Wait()
	if err != nil {
		t.Fatalf("search %q: %v", mailbox, err)
	}
	uids := search.AllUIDs()
	if len(uids) == 0 {
		return nil
	}

	buffers, err := client.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:      true,
		Flags:    true,
		Envelope: true,
	}).Collect()
	if err != nil {
		t.Fatalf("fetch %q: %v", mailbox, err)
	}

	out := make([]StoredMessage, 0, len(buffers))
	for _, buf := range buffers {
		stored := StoredMessage{UID: uint32(buf.UID)}
		if buf.Envelope != nil {
			stored.Subject = buf.Envelope.Subject
			if len(buf.Envelope.From) > 0 {
				stored.From = buf.Envelope.From[0].Addr()
			}
		}
		for _, flag := range buf.Flags {
			if flag == imap.FlagDeleted {
				stored.Deleted = true
			}
		}
		out = append(out, stored)
	}
	return out
}

// Subjects returns the subjects of the stored messages that are not flagged \Deleted.
func Subjects(messages []StoredMessage) []string {
	out := []string{}
	for _, msg := range messages {
		if msg.Deleted {
			continue
		}
		out = append(out, msg.Subject)
	}
	return out
}

type literalReader struct {
	*bytes.Reader
	size int64
}

func newLiteral(t *testing.T, raw string) imap.LiteralReader {
	t.Helper()
	buf := []byte(raw)
	return &literalReader{
		Reader: bytes.NewReader(buf),
		size:   int64(len(buf)),
	}
}

func (lr *literalReader) Size() int64 {
	return lr.size
}

func sampleMessage(msg MailboxMessage) string {
	builder := &strings.Builder{}
	builder.WriteString("From: ")
	builder.WriteString(msg.From)
	builder.WriteString("\r\n")
	builder.WriteString("To: User <")
	builder.WriteString(DefaultUser)
	builder.WriteString(">\r\n")
	if msg.Date != "" {
		builder.WriteString("Date: ")
		builder.WriteString(msg.Date)
		builder.WriteString("\r\n")
	}
	builder.WriteString("Subject: ")
	builder.WriteString(msg.Subject)
	builder.WriteString("\r\n")
	builder.WriteString("\r\n")
	builder.WriteString(msg.Body)
	builder.WriteString("\r\n")
	return builder.String()
}

func testTLSConfig(t *testing.T) *tls.Config {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		t.Fatalf("generate serial: %v", err)
	}

	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName: "localhost",
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create cert: %v", err)
	}

	cert := tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{"imap"},
	}
}
