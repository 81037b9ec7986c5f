// Package notify は、ダイジェストを HTML メールとして SMTP (STARTTLS) で送信します。
package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/shouni/go-job-digest/pkg/config"
)

var (
	// ErrMissingCredentials は、GMAIL_USER または GMAIL_APP_PASSWORD が未設定の場合に返されます。
	ErrMissingCredentials = errors.New("Gmailの認証情報が設定されていません (GMAIL_USER, GMAIL_APP_PASSWORD)")
	// ErrStartTLSUnsupported は、サーバーが STARTTLS に対応していない場合に返されます。
	ErrStartTLSUnsupported = errors.New("SMTPサーバーがSTARTTLSに対応していません")
)

// DefaultDialTimeout は SMTP サーバーへの接続タイムアウトです。
const DefaultDialTimeout = 30 * time.Second

// Sender はメール送信のインターフェースです。
type Sender interface {
	Send(ctx context.Context, subject, htmlBody string) error
}

// Checker は、送信前に設定を検証できる Sender が実装します。
type Checker interface {
	Check() error
}

// Client は、STARTTLS 確立後の SMTP セッションの操作です。
type Client interface {
	Auth(a sasl.Client) error
	SendMail(from string, to []string, r io.Reader) error
	Quit() error
	Close() error
}

var _ Client = (*smtp.Client)(nil)

// DialFunc は SMTP サーバーへ接続し、STARTTLS で暗号化したセッションを返します。
// サーバーが STARTTLS に対応していない場合は ErrStartTLSUnsupported を返します。
type DialFunc func(ctx context.Context, addr string, tlsConfig *tls.Config) (Client, error)

// Mailer は Sender インターフェースを実装する構造体です。
type Mailer struct {
	cfg       config.Mail
	dial      DialFunc
	tlsConfig *tls.Config
	now       func() time.Time
}

// Option は Mailer の設定を行う関数型です。
type Option func(*Mailer)

// WithDialFunc は接続処理を差し替えます。
func WithDialFunc(fn DialFunc) Option {
	return func(m *Mailer) {
		if fn != nil {
			m.dial = fn
		}
	}
}

// WithTLSConfig は STARTTLS で使う TLS 設定を指定します。ServerName が空の場合は接続先のホスト名を使います。
func WithTLSConfig(cfg *tls.Config) Option {
	return func(m *Mailer) {
		m.tlsConfig = cfg
	}
}

// WithClock は Date ヘッダーに使う現在時刻を差し替えます。
func WithClock(now func() time.Time) Option {
	return func(m *Mailer) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMailer は Mailer を初期化します。
func NewMailer(cfg config.Mail, opts ...Option) *Mailer {
	if cfg.SMTPAddr == "" {
		cfg.SMTPAddr = config.DefaultSMTPAddr
	}
	m := &Mailer{
		cfg:  cfg,
		dial: dialSMTP,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Check は、送信に必要な認証情報が揃っているかどうかを検証します。
func (m *Mailer) Check() error {
	if !m.cfg.HasCredentials() {
		return ErrMissingCredentials
	}
	return nil
}

// Send は件名と HTML 本文のメールを1通送信します。
// 認証情報がない場合は、接続する前に ErrMissingCredentials を返します。リトライは行いません。
func (m *Mailer) Send(ctx context.Context, subject, htmlBody string) error {
	if err := m.Check(); err != nil {
		return err
	}

	to := m.cfg.Recipient()
	msg, err := BuildMessage(m.cfg.SenderName, m.cfg.User, to, subject, htmlBody, m.now())
	if err != nil {
		return err
	}

	host, _, err := net.SplitHostPort(m.cfg.SMTPAddr)
	if err != nil {
		return fmt.Errorf("SMTPアドレスが不正です (addr: %s): %w", m.cfg.SMTPAddr, err)
	}
	tlsConfig := &tls.Config{}
	if m.tlsConfig != nil {
		tlsConfig = m.tlsConfig.Clone()
	}
	if tlsConfig.ServerName == "" {
		tlsConfig.ServerName = host
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("メール送信前に中断されました: %w", err)
	}

	c, err := m.dial(ctx, m.cfg.SMTPAddr, tlsConfig)
	if err != nil {
		return fmt.Errorf("SMTPサーバーへの接続に失敗しました (addr: %s): %w", m.cfg.SMTPAddr, err)
	}
	defer c.Close()

	if err := c.Auth(sasl.NewPlainClient("", m.cfg.User, m.cfg.AppPassword)); err != nil {
		return fmt.Errorf("SMTP認証に失敗しました: %w", err)
	}
	if err := c.SendMail(m.cfg.User, []string{to}, bytes.NewReader(msg)); err != nil {
		return fmt.Errorf("メール送信に失敗しました: %w", err)
	}
	if err := c.Quit(); err != nil {
		return fmt.Errorf("SMTPセッションの終了に失敗しました: %w", err)
	}
	return nil
}

// BuildMessage は text/html (UTF-8) の単一パートメッセージを組み立てます。
func BuildMessage(senderName, from, to, subject, htmlBody string, date time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(date)
	h.SetAddressList("From", []*mail.Address{{Name: senderName, Address: from}})
	h.SetAddressList("To", []*mail.Address{{Address: to}})
	h.SetSubject(subject)
	h.SetContentType("text/html", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("メールヘッダーの書き込みに失敗しました: %w", err)
	}
	if _, err := io.WriteString(w, htmlBody); err != nil {
		return nil, fmt.Errorf("メール本文の書き込みに失敗しました: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("メール本文の書き込みに失敗しました: %w", err)
	}
	return buf.Bytes(), nil
}

// dialSMTP は TCP 接続を確立し、EHLO と STARTTLS を実行します。
func dialSMTP(ctx context.Context, addr string, tlsConfig *tls.Config) (Client, error) {
	d := net.Dialer{Timeout: DefaultDialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	c, err := smtp.NewClientStartTLS(conn, tlsConfig)
	if err != nil {
		// go-smtp はこの失敗を区別できるエラー型で返さない
		if strings.Contains(err.Error(), "support STARTTLS") {
			return nil, fmt.Errorf("%w: %v", ErrStartTLSUnsupported, err)
		}
		return nil, err
	}
	return c, nil
}
