package source

import (
	"context"
	"fmt"

	"github.com/shouni/go-job-digest/pkg/feed"
	"github.com/shouni/go-job-digest/pkg/types"
)

const (
	WeWorkRemotelyName    = "WeWorkRemotely"
	weWorkRemotelyBaseURL = "https://weworkremotely.com"
)

// WeWorkRemotely は weworkremotely.com の検索RSSから求人を取得します。
type WeWorkRemotely struct {
	parser  *feed.Parser
	baseURL string
	limit   int
}

func NewWeWorkRemotely(parser *feed.Parser, baseURL string, limit int) *WeWorkRemotely {
	if baseURL == "" {
		baseURL = weWorkRemotelyBaseURL
	}
	return &WeWorkRemotely{parser: parser, baseURL: baseURL, limit: limit}
}

func (s *WeWorkRemotely) Name() string { return WeWorkRemotelyName }

func (s *WeWorkRemotely) SearchURL(keyword string) string {
	return fmt.Sprintf("%s/remote-jobs/search.rss?term=%s", s.baseURL, queryKeyword(keyword))
}

func (s *WeWorkRemotely) Fetch(ctx context.Context, keyword string) ([]types.Job, error) {
	parsed, err := s.parser.FetchAndParse(ctx, s.SearchURL(keyword))
	if err != nil {
		return nil, err
	}
	return feed.ItemsToJobs(parsed, WeWorkRemotelyName, s.limit), nil
}
