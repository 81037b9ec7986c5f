package source

import (
	"context"
	"fmt"

	"github.com/shouni/go-job-digest/pkg/extract"
	"github.com/shouni/go-job-digest/pkg/types"
)

const (
	WellfoundName    = "Wellfound"
	wellfoundBaseURL = "https://wellfound.com"
)

// Wellfound は wellfound.com のリモート求人検索から求人を取得します。
type Wellfound struct {
	extractor *extract.Extractor
	baseURL   string
	limit     int
}

func NewWellfound(extractor *extract.Extractor, baseURL string, limit int) *Wellfound {
	if baseURL == "" {
		baseURL = wellfoundBaseURL
	}
	return &Wellfound{extractor: extractor, baseURL: baseURL, limit: limit}
}

func (s *Wellfound) Name() string { return WellfoundName }

func (s *Wellfound) SearchURL(keyword string) string {
	return fmt.Sprintf("%s/jobs?search=%s&remote=true", s.baseURL, queryKeyword(keyword))
}

// Fetch は href に "/jobs/" を含むアンカーを抽出します。
// 検索条件がリモート限定のため、勤務地は常に "Remote" です。
func (s *Wellfound) Fetch(ctx context.Context, keyword string) ([]types.Job, error) {
	return s.extractor.FetchAndExtract(ctx, s.SearchURL(keyword), extract.Rule{
		Source:      WellfoundName,
		Selector:    `a[href*="/jobs/"]`,
		Limit:       s.limit,
		Location:    "Remote",
		Snippet:     extract.SnippetTitle,
		RequireHref: true,
		UniqueLinks: true,
	})
}
