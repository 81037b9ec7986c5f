package scraper

import (
	"context"
	"log"
	"time"

	"github.com/shouni/go-job-digest/pkg/source"
	"github.com/shouni/go-job-digest/pkg/types"
)

const (
	// DefaultRequestDelay は、各取得の後に挟む固定の待機時間です。
	DefaultRequestDelay = 2 * time.Second
)

// Scraper は、すべてのソースから求人を集めて重複を除いた一覧を返すインターフェースです。
type Scraper interface {
	Collect(ctx context.Context, keywords []string) []types.Job
}

// SleepFunc は待機処理です。コンテキストが終了した場合はエラーを返します。
type SleepFunc func(ctx context.Context, d time.Duration) error

// SequentialScraper は Scraper インターフェースを実装する逐次処理構造体です。
// キーワード × ソースの順に1件ずつ取得し、取得のたびに固定時間待機します。
type SequentialScraper struct {
	sources []source.Source
	delay   time.Duration
	sleep   SleepFunc
}

// Option は SequentialScraper の設定を行う関数型です。
type Option func(*SequentialScraper)

// WithSleepFunc は待機処理を差し替えます。
func WithSleepFunc(fn SleepFunc) Option {
	return func(s *SequentialScraper) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// NewSequentialScraper は SequentialScraper を初期化します。delay が負の場合は 0 とみなします。
func NewSequentialScraper(sources []source.Source, delay time.Duration, opts ...Option) *SequentialScraper {
	if delay < 0 {
		delay = 0
	}
	s := &SequentialScraper{
		sources: sources,
		delay:   delay,
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchAll は、各キーワードについてすべてのソースを順に呼び出し、結果を呼び出し順に返します。
// 取得エラーはログに記録され、そのソースは0件として扱われます。
// コンテキストが終了した場合は、それまでの結果を返します。
func (s *SequentialScraper) FetchAll(ctx context.Context, keywords []string) []types.SourceResult {
	results := make([]types.SourceResult, 0, len(keywords)*len(s.sources))

	for _, kw := range keywords {
		for _, src := range s.sources {
			if err := ctx.Err(); err != nil {
				log.Printf("取得を中断しました: %v", err)
				return results
			}

			jobs, err := src.Fetch(ctx, kw)
			res := types.SourceResult{Source: src.Name(), Keyword: kw, Jobs: jobs, Err: err}
			if err != nil {
				log.Printf("%s error (keyword: %q): %v", src.Name(), kw, err)
				res.Jobs = nil
			} else {
				log.Printf("%s: %q で %d 件取得しました", src.Name(), kw, len(jobs))
			}
			results = append(results, res)

			if err := s.sleep(ctx, s.delay); err != nil {
				log.Printf("待機中に中断されました: %v", err)
				return results
			}
		}
	}
	return results
}

// Collect は FetchAll の結果を連結し、重複を除いた求人一覧を返します。
func (s *SequentialScraper) Collect(ctx context.Context, keywords []string) []types.Job {
	var all []types.Job
	for _, res := range s.FetchAll(ctx, keywords) {
		if res.OK() {
			all = append(all, res.Jobs...)
		}
	}
	return Dedup(all)
}

// Dedup は DedupKey が最初に現れた求人のみを残します。キーが空の求人は破棄します。
// 出力順は最初に出現した順です。
func Dedup(jobs []types.Job) []types.Job {
	seen := make(map[string]struct{}, len(jobs))
	unique := make([]types.Job, 0, len(jobs))
	for _, job := range jobs {
		key := job.DedupKey()
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, job)
	}
	return unique
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
