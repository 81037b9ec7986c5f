package extract

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	textUtils "github.com/shouni/go-utils/text"

	"github.com/shouni/go-job-digest/pkg/types"
)

// DefaultLimit は、1回の取得で抽出するアンカー数の上限です。
const DefaultLimit = 25

// SnippetMode は、Snippet に何を格納するかを表します。
type SnippetMode int

const (
	// SnippetParent はアンカーの親要素のテキストを使います。
	SnippetParent SnippetMode = iota
	// SnippetTitle はタイトルをそのまま使います。
	SnippetTitle
)

// Rule は、サイト固有の抽出ルールです。
type Rule struct {
	Source   string // 取得元のサイト名
	Selector string // アンカーを選択するCSSセレクター

	// Limit は抽出件数の上限です。0 以下の場合は DefaultLimit を使います。
	Limit int

	// Location が空でない場合、すべての求人の勤務地をこの値に固定します。
	// 空の場合は親要素のテキストを勤務地として扱います。
	Location string

	Snippet SnippetMode

	// RequireHref が true の場合、href を持たないアンカーを無視します。
	RequireHref bool
	// UniqueLinks が true の場合、同一ページ内で重複したリンクを無視します。
	UniqueLinks bool
}

func (r Rule) limit() int {
	if r.Limit <= 0 {
		return DefaultLimit
	}
	return r.Limit
}

// Extractor は、Fetcher を使って求人一覧ページの取得と抽出を管理します。
type Extractor struct {
	fetcher Fetcher
}

// NewExtractor は、新しいExtractorのインスタンスを生成します。
func NewExtractor(fetcher Fetcher) (*Extractor, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("extract.NewExtractor: Fetcher cannot be nil")
	}
	return &Extractor{
		fetcher: fetcher,
	}, nil
}

// FetchAndExtract は指定されたURLからページを取得し、ルールに従って求人を抽出します。
func (e *Extractor) FetchAndExtract(ctx context.Context, pageURL string, rule Rule) ([]types.Job, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("URLのパースエラー: %w", err)
	}

	htmlBytes, err := e.fetcher.FetchBytes(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBytes))
	if err != nil {
		return nil, fmt.Errorf("HTML解析に失敗しました: %w", err)
	}

	return ExtractListings(doc, base, rule), nil
}

// ExtractListings は goquery.Document からルールに一致するアンカーを走査し、求人を生成します。
// 出力順はDOMの出現順です。
func ExtractListings(doc *goquery.Document, base *url.URL, rule Rule) []types.Job {
	limit := rule.limit()
	jobs := make([]types.Job, 0, limit)
	seen := make(map[string]struct{})

	doc.Find(rule.Selector).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if rule.RequireHref && href == "" {
			return true
		}

		link := ResolveLink(base, href)
		if rule.UniqueLinks && link != "" {
			if _, dup := seen[link]; dup {
				return true
			}
			seen[link] = struct{}{}
		}

		title := textUtils.NormalizeText(a.Text())
		parentText := ""
		if parent := a.Parent(); parent.Length() > 0 {
			parentText = textUtils.NormalizeText(parent.Text())
		}

		job := types.Job{
			Title:  title,
			Link:   link,
			Source: rule.Source,
		}

		if rule.Location != "" {
			job.Location = rule.Location
		} else {
			job.Location = parentText
		}

		switch rule.Snippet {
		case SnippetTitle:
			job.Snippet = title
		default:
			job.Snippet = parentText
		}

		jobs = append(jobs, job)
		return len(jobs) < limit
	})

	return jobs
}

// ResolveLink は href をページのURLを基準に絶対URLへ解決します。
// http / https 以外のスキームになる場合や解決できない場合は空文字列を返します。
func ResolveLink(base *url.URL, href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	if ref.Host == "" {
		return ""
	}
	return ref.String()
}
