package pipeline

import (
	"fmt"

	"github.com/shouni/go-job-digest/pkg/client"
	"github.com/shouni/go-job-digest/pkg/config"
	"github.com/shouni/go-job-digest/pkg/extract"
	"github.com/shouni/go-job-digest/pkg/feed"
	"github.com/shouni/go-job-digest/pkg/filter"
	"github.com/shouni/go-job-digest/pkg/httpclient"
	"github.com/shouni/go-job-digest/pkg/notify"
	"github.com/shouni/go-job-digest/pkg/scraper"
	"github.com/shouni/go-job-digest/pkg/source"
)

// Fetchers は、ソースが使う HTTP クライアントです。
type Fetchers struct {
	HTML extract.Fetcher
	Feed feed.Fetcher
}

// NewFetchers は、設定のタイムアウト、リトライ回数、User-Agent で HTTP クライアントを初期化します。
func NewFetchers(cfg config.Config) Fetchers {
	return Fetchers{
		HTML: httpclient.New(
			cfg.HTTP.Timeout,
			httpclient.WithMaxRetries(cfg.HTTP.MaxRetries),
			httpclient.WithUserAgent(cfg.HTTP.UserAgent),
		),
		Feed: client.New(
			cfg.HTTP.Timeout,
			client.WithMaxRetries(cfg.HTTP.MaxRetries),
			client.WithUserAgent(cfg.HTTP.UserAgent),
		),
	}
}

// NewSources は、設定で有効になっているソースを Indeed、Wellfound、WeWorkRemotely の順に生成します。
func NewSources(cfg config.Config, f Fetchers) ([]source.Source, error) {
	extractor, err := extract.NewExtractor(f.HTML)
	if err != nil {
		return nil, fmt.Errorf("Extractorの初期化エラー: %w", err)
	}

	var sources []source.Source
	if cfg.Sources.Indeed.Enabled {
		sources = append(sources, source.NewIndeed(extractor, cfg.Sources.Indeed.BaseURL, cfg.HTTP.Limit))
	}
	if cfg.Sources.Wellfound.Enabled {
		sources = append(sources, source.NewWellfound(extractor, cfg.Sources.Wellfound.BaseURL, cfg.HTTP.Limit))
	}
	if cfg.Sources.WeWorkRemotely.Enabled {
		if f.Feed == nil {
			return nil, fmt.Errorf("フィード用のFetcherが設定されていません")
		}
		parser := feed.NewParser(f.Feed)
		sources = append(sources, source.NewWeWorkRemotely(parser, cfg.Sources.WeWorkRemotely.BaseURL, cfg.HTTP.Limit))
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("有効なソースがありません")
	}
	return sources, nil
}

// NewDeps は設定から Run の依存関係を組み立てます。
func NewDeps(cfg config.Config, f Fetchers) (Deps, error) {
	if err := cfg.Validate(); err != nil {
		return Deps{}, err
	}
	sources, err := NewSources(cfg, f)
	if err != nil {
		return Deps{}, err
	}
	return Deps{
		Scraper:  scraper.NewSequentialScraper(sources, cfg.HTTP.Delay),
		Filter:   filter.New(cfg.Filter.Criteria()),
		Sender:   notify.NewMailer(cfg.Mail),
		Keywords: append([]string(nil), cfg.Search.Keywords...),
	}, nil
}
