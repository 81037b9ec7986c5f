package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/emersion/go-message"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-job-digest/pkg/config"
)

// recordingBackend は受信した1通のメールを記録する SMTP バックエンドです。
type recordingBackend struct {
	user, password string

	mu       sync.Mutex
	authUser string
	from     string
	to       []string
	data     []byte
}

func (b *recordingBackend) NewSession(*smtp.Conn) (smtp.Session, error) {
	return &recordingSession{b: b}, nil
}

type recordingSession struct {
	b *recordingBackend
}

func (s *recordingSession) AuthMechanisms() []string { return []string{sasl.Plain} }

func (s *recordingSession) Auth(mech string) (sasl.Server, error) {
	return sasl.NewPlainServer(func(identity, username, password string) error {
		if username != s.b.user || password != s.b.password {
			return errors.New("invalid credentials")
		}
		s.b.mu.Lock()
		s.b.authUser = username
		s.b.mu.Unlock()
		return nil
	}), nil
}

func (s *recordingSession) Mail(from string, _ *smtp.MailOptions) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.b.from = from
	return nil
}

func (s *recordingSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.b.to = append(s.b.to, to)
	return nil
}

func (s *recordingSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.b.data = data
	return nil
}

func (s *recordingSession) Reset()        {}
func (s *recordingSession) Logout() error { return nil }

// testCertificates は、127.0.0.1 向けのサーバー証明書と、それを信頼するクライアント設定を返します。
func testCertificates(t *testing.T) (server, client *tls.Config) {
	t.Helper()
	ts := httptest.NewTLSServer(http.NotFoundHandler())
	t.Cleanup(ts.Close)

	pool := x509.NewCertPool()
	pool.AddCert(ts.Certificate())
	return &tls.Config{Certificates: ts.TLS.Certificates}, &tls.Config{RootCAs: pool}
}

func startSMTPServer(t *testing.T, be smtp.Backend, tlsConfig *tls.Config) string {
	t.Helper()
	s := smtp.NewServer(be)
	s.Domain = "localhost"
	s.TLSConfig = tlsConfig
	s.ErrorLog = log.New(io.Discard, "", 0)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go s.Serve(l)
	t.Cleanup(func() { s.Close() })

	return l.Addr().String()
}

func loopbackMail(addr string) config.Mail {
	return config.Mail{
		User:        "bot@example.com",
		AppPassword: "app-password",
		To:          "me@example.com",
		SenderName:  "Daily Job Bot",
		SMTPAddr:    addr,
	}
}

func TestSend_LoopbackSTARTTLS(t *testing.T) {
	serverTLS, clientTLS := testCertificates(t)
	be := &recordingBackend{user: "bot@example.com", password: "app-password"}
	addr := startSMTPServer(t, be, serverTLS)

	m := NewMailer(loopbackMail(addr), WithTLSConfig(clientTLS), WithClock(fixedNow))
	body := "<p>No matching jobs found today.</p>"
	require.NoError(t, m.Send(context.Background(), "Daily Cloud & DevOps Jobs – 2024-01-02", body))

	be.mu.Lock()
	defer be.mu.Unlock()
	assert.Equal(t, "bot@example.com", be.authUser)
	assert.Equal(t, "bot@example.com", be.from)
	assert.Equal(t, []string{"me@example.com"}, be.to)

	e, err := message.Read(bytes.NewReader(be.data))
	require.NoError(t, err)
	got, err := io.ReadAll(e.Body)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))
}

func TestSend_LoopbackWithoutSTARTTLS(t *testing.T) {
	be := &recordingBackend{user: "bot@example.com", password: "app-password"}
	addr := startSMTPServer(t, be, nil)

	m := NewMailer(loopbackMail(addr))
	err := m.Send(context.Background(), "s", "<p>x</p>")

	assert.ErrorIs(t, err, ErrStartTLSUnsupported)
	be.mu.Lock()
	defer be.mu.Unlock()
	assert.Empty(t, be.authUser, "平文のまま認証しない")
	assert.Empty(t, be.data)
}

func TestSend_LoopbackWrongPassword(t *testing.T) {
	serverTLS, clientTLS := testCertificates(t)
	be := &recordingBackend{user: "bot@example.com", password: "another-password"}
	addr := startSMTPServer(t, be, serverTLS)

	m := NewMailer(loopbackMail(addr), WithTLSConfig(clientTLS))
	err := m.Send(context.Background(), "s", "<p>x</p>")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP認証に失敗しました")
	be.mu.Lock()
	defer be.mu.Unlock()
	assert.Empty(t, be.data)
}
