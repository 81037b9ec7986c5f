package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/shouni/go-job-digest/pkg/digest"
	"github.com/shouni/go-job-digest/pkg/filter"
	"github.com/shouni/go-job-digest/pkg/notify"
	"github.com/shouni/go-job-digest/pkg/scraper"
)

// Deps は1回の実行に必要な依存関係です。
type Deps struct {
	Scraper  scraper.Scraper
	Filter   *filter.Filter
	Sender   notify.Sender
	Keywords []string
	Now      func() time.Time

	// DryRun が true の場合はメールを送信せず、HTML を Output に書き出します。
	DryRun  bool
	Output  io.Writer
	Verbose bool
}

// Summary は実行結果の要約です。
type Summary struct {
	Collected int
	Matched   int
	Subject   string
}

// Run は、収集、絞り込み、HTML生成、件名生成、送信を順に実行するメインの処理パイプラインです。
// 該当する求人がない場合も「求人なし」のメールを送信します。
// 送信設定の不備 (認証情報なしなど) は、収集を始める前にエラーとして返します。
func Run(ctx context.Context, d Deps) (Summary, error) {
	if d.Scraper == nil || d.Filter == nil {
		return Summary{}, fmt.Errorf("pipeline.Run: Scraper と Filter は必須です")
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}

	// 0. 送信前の検証
	if !d.DryRun {
		if d.Sender == nil {
			return Summary{}, fmt.Errorf("pipeline.Run: Sender が設定されていません")
		}
		if c, ok := d.Sender.(notify.Checker); ok {
			if err := c.Check(); err != nil {
				return Summary{}, err
			}
		}
	}

	// 1. 収集と重複排除
	jobs := d.Scraper.Collect(ctx, d.Keywords)
	log.Printf("収集完了: %d 件 (重複排除後)", len(jobs))

	// 2. 絞り込み
	if d.Verbose {
		for _, job := range jobs {
			ok, reason := d.Filter.Explain(job)
			switch {
			case ok:
			case reason == filter.ReasonExperience:
				log.Printf("除外 [%s %s] %s (%s)", reason, filter.ParseExperience(filter.CombinedText(job)), job.Title, job.Link)
			default:
				log.Printf("除外 [%s] %s (%s)", reason, job.Title, job.Link)
			}
		}
	}
	matches := d.Filter.Apply(jobs)
	log.Printf("条件に一致した求人: %d 件", len(matches))

	// 3. 本文と件名
	body, err := digest.BuildHTML(matches)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{
		Collected: len(jobs),
		Matched:   len(matches),
		Subject:   digest.Subject(now()),
	}

	// 4. 送信
	if d.DryRun {
		if d.Output == nil {
			return summary, nil
		}
		if _, err := io.WriteString(d.Output, body+"\n"); err != nil {
			return summary, fmt.Errorf("HTMLの出力に失敗しました: %w", err)
		}
		return summary, nil
	}

	if err := d.Sender.Send(ctx, summary.Subject, body); err != nil {
		return summary, fmt.Errorf("ダイジェストの送信に失敗しました: %w", err)
	}
	log.Printf("送信完了: %s", summary.Subject)
	return summary, nil
}
