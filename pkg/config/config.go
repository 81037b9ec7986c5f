// Package config は実行設定を読み込みます。
// 既定値の上に .env と YAML ファイル (任意) を重ね、メール設定は環境変数で上書きします。
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/shouni/go-job-digest/pkg/filter"
)

const (
	DefaultTimeout    = 15 * time.Second
	DefaultMaxRetries = 0
	DefaultDelay      = 2 * time.Second
	DefaultLimit      = 25
	DefaultSenderName = "Daily Job Bot"
	DefaultSMTPAddr   = "smtp.gmail.com:587"

	DefaultIndeedURL         = "https://in.indeed.com"
	DefaultWellfoundURL      = "https://wellfound.com"
	DefaultWeWorkRemotelyURL = "https://weworkremotely.com"
)

// 環境変数名
const (
	EnvGmailUser        = "GMAIL_USER"
	EnvGmailAppPassword = "GMAIL_APP_PASSWORD"
	EnvEmailTo          = "EMAIL_TO"
	EnvSenderName       = "SENDER_NAME"
)

var (
	ErrInvalidYearsRange = errors.New("経験年数の範囲が不正です")
	ErrNoKeywords        = errors.New("検索キーワードが設定されていません")
	ErrInvalidTimeout    = errors.New("タイムアウトは正の値である必要があります")
	ErrInvalidLimit      = errors.New("取得件数の上限は正の値である必要があります")
)

// Config は実行全体の設定です。Load で生成した後は値として各コンポーネントに渡し、変更しません。
type Config struct {
	Search  Search  `yaml:"search"`
	Filter  Filter  `yaml:"filter"`
	HTTP    HTTP    `yaml:"http"`
	Sources Sources `yaml:"sources"`
	Mail    Mail    `yaml:"mail"`
}

type Search struct {
	Keywords []string `yaml:"keywords"`
}

type Filter struct {
	RoleKeywords  []string `yaml:"role_keywords"`
	MinYears      int      `yaml:"min_years"`
	MaxYears      int      `yaml:"max_years"`
	LocationTerms []string `yaml:"location_terms"`
}

// Criteria は filter パッケージの絞り込み条件に変換します。
func (f Filter) Criteria() filter.Criteria {
	return filter.Criteria{
		RoleKeywords:  append([]string(nil), f.RoleKeywords...),
		MinYears:      f.MinYears,
		MaxYears:      f.MaxYears,
		LocationTerms: append([]string(nil), f.LocationTerms...),
	}
}

type HTTP struct {
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries uint64        `yaml:"max_retries"`
	Delay      time.Duration `yaml:"delay"`
	Limit      int           `yaml:"limit"`
	UserAgent  string        `yaml:"user_agent"`
}

// Source は1つの求人サイトの設定です。
type Source struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
}

type Sources struct {
	Indeed         Source `yaml:"indeed"`
	Wellfound      Source `yaml:"wellfound"`
	WeWorkRemotely Source `yaml:"weworkremotely"`
}

// Mail は送信設定です。認証情報は環境変数からのみ読み込みます。
type Mail struct {
	User        string `yaml:"-"`
	AppPassword string `yaml:"-"`
	To          string `yaml:"to"`
	SenderName  string `yaml:"sender_name"`
	SMTPAddr    string `yaml:"smtp_addr"`
}

// HasCredentials は、送信に必要な認証情報が揃っているかどうかを返します。
func (m Mail) HasCredentials() bool {
	return m.User != "" && m.AppPassword != ""
}

// Recipient は宛先を返します。未設定の場合は送信者自身です。
func (m Mail) Recipient() string {
	if m.To != "" {
		return m.To
	}
	return m.User
}

// Default はコード内の既定値で構成された Config を返します。
func Default() Config {
	return Config{
		Search: Search{Keywords: append([]string(nil), filter.DefaultRoleKeywords...)},
		Filter: Filter{
			RoleKeywords:  append([]string(nil), filter.DefaultRoleKeywords...),
			MinYears:      filter.DefaultMinYears,
			MaxYears:      filter.DefaultMaxYears,
			LocationTerms: append([]string(nil), filter.DefaultLocationTerms...),
		},
		HTTP: HTTP{
			Timeout:    DefaultTimeout,
			MaxRetries: DefaultMaxRetries,
			Delay:      DefaultDelay,
			Limit:      DefaultLimit,
		},
		Sources: Sources{
			Indeed:         Source{Enabled: true, BaseURL: DefaultIndeedURL},
			Wellfound:      Source{Enabled: true, BaseURL: DefaultWellfoundURL},
			WeWorkRemotely: Source{Enabled: false, BaseURL: DefaultWeWorkRemotelyURL},
		},
		Mail: Mail{
			SenderName: DefaultSenderName,
			SMTPAddr:   DefaultSMTPAddr,
		},
	}
}

// Load は既定値に .env、YAML ファイル (path が空でない場合)、環境変数の順で設定を重ねます。
// .env が存在しない場合は無視します。
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("設定ファイルの読み込みに失敗しました (path: %s): %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("設定ファイルのパースに失敗しました (path: %s): %w", path, err)
		}
	}

	applyEnv(&cfg.Mail, os.Getenv)
	return cfg, nil
}

func applyEnv(m *Mail, getenv func(string) string) {
	if v := getenv(EnvGmailUser); v != "" {
		m.User = v
	}
	if v := getenv(EnvGmailAppPassword); v != "" {
		m.AppPassword = v
	}
	if v := getenv(EnvEmailTo); v != "" {
		m.To = v
	}
	if v := getenv(EnvSenderName); v != "" {
		m.SenderName = v
	}
	if m.To == "" {
		m.To = m.User
	}
	if m.SenderName == "" {
		m.SenderName = DefaultSenderName
	}
	if m.SMTPAddr == "" {
		m.SMTPAddr = DefaultSMTPAddr
	}
}

// Validate は設定値の整合性を検証します。認証情報の有無は送信時に確認します。
func (c Config) Validate() error {
	if len(c.Search.Keywords) == 0 {
		return ErrNoKeywords
	}
	if c.Filter.MinYears < 0 || c.Filter.MinYears > c.Filter.MaxYears {
		return fmt.Errorf("%w: min=%d, max=%d", ErrInvalidYearsRange, c.Filter.MinYears, c.Filter.MaxYears)
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, c.HTTP.Timeout)
	}
	if c.HTTP.Limit <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, c.HTTP.Limit)
	}
	return nil
}
