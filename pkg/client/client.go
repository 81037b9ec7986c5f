package client

import (
	"context"
	"net/http"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"

	"github.com/shouni/go-job-digest/pkg/httpclient"
)

// Doer は、標準の *http.Client.Do() と互換性のあるHTTPクライアントのインターフェースです。
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client は httpkit.Client をラップし、引数の順序を (ctx, url) に揃えます。
// すべてのリクエストに固定の User-Agent を付与します。
type Client struct {
	kit *httpkit.Client
}

type options struct {
	doer       Doer
	maxRetries uint64
	userAgent  string
}

// ClientOption はClientの設定を行うための関数型です。
type ClientOption func(*options)

// WithHTTPClient はカスタムのDoerを設定します。
func WithHTTPClient(doer Doer) ClientOption {
	return func(o *options) {
		o.doer = doer
	}
}

// WithMaxRetries は最大リトライ回数を設定します。
func WithMaxRetries(max uint64) ClientOption {
	return func(o *options) {
		o.maxRetries = max
	}
}

// WithUserAgent は送信する User-Agent を上書きします。
func WithUserAgent(ua string) ClientOption {
	return func(o *options) {
		if ua != "" {
			o.userAgent = ua
		}
	}
}

// userAgentDoer は、委譲先の Doer に渡す前に User-Agent ヘッダーを設定します。
type userAgentDoer struct {
	next      Doer
	userAgent string
}

func (d *userAgentDoer) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", d.userAgent)
	return d.next.Do(req)
}

// New は新しいClientを初期化します。
func New(timeout time.Duration, opts ...ClientOption) *Client {
	if timeout <= 0 {
		timeout = httpclient.DefaultHTTPTimeout
	}

	o := options{userAgent: httpclient.DefaultUserAgent}
	for _, opt := range opts {
		opt(&o)
	}
	if o.doer == nil {
		o.doer = &http.Client{Timeout: timeout}
	}

	kit := httpkit.New(
		timeout,
		httpkit.WithHTTPClient(&userAgentDoer{next: o.doer, userAgent: o.userAgent}),
		httpkit.WithMaxRetries(o.maxRetries),
	)
	return &Client{kit: kit}
}

// FetchBytes は URL からコンテンツを取得し、生のバイト配列として返します。
// リトライロジックは httpkit.Client が処理します。
func (c *Client) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	return c.kit.FetchBytes(ctx, url)
}
