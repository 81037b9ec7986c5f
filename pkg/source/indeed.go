package source

import (
	"context"
	"fmt"

	"github.com/shouni/go-job-digest/pkg/extract"
	"github.com/shouni/go-job-digest/pkg/types"
)

const (
	IndeedName    = "Indeed"
	indeedBaseURL = "https://in.indeed.com"
)

// Indeed は in.indeed.com の検索結果ページから求人を取得します。
type Indeed struct {
	extractor *extract.Extractor
	baseURL   string
	limit     int
}

// NewIndeed は Indeed ソースを生成します。baseURL が空の場合は既定のURLを使います。
func NewIndeed(extractor *extract.Extractor, baseURL string, limit int) *Indeed {
	if baseURL == "" {
		baseURL = indeedBaseURL
	}
	return &Indeed{extractor: extractor, baseURL: baseURL, limit: limit}
}

func (s *Indeed) Name() string { return IndeedName }

// SearchURL はキーワードに対応する検索URLを返します。
func (s *Indeed) SearchURL(keyword string) string {
	return fmt.Sprintf("%s/jobs?q=%s+remote+cloud+devops&l=India", s.baseURL, queryKeyword(keyword))
}

// Fetch は data-jk 属性を持つアンカーを求人として抽出します。
// 勤務地とスニペットには、アンカーの親要素のテキストを使います。
func (s *Indeed) Fetch(ctx context.Context, keyword string) ([]types.Job, error) {
	return s.extractor.FetchAndExtract(ctx, s.SearchURL(keyword), extract.Rule{
		Source:   IndeedName,
		Selector: "a[data-jk]",
		Limit:    s.limit,
		Snippet:  extract.SnippetParent,
	})
}
