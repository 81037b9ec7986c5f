package feed

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	textUtils "github.com/shouni/go-utils/text"

	"github.com/shouni/go-job-digest/pkg/types"
)

const (
	// RemoteLocation は、勤務地が取得できない場合に使うリモート求人の勤務地です。
	RemoteLocation = "Remote"

	// regionField は、勤務地を表す RSS アイテムの独自要素名です。
	regionField = "region"
)

// ItemsToJobs は gofeed.Feed のアイテムを求人に変換します。
// "会社名: 職種" 形式のタイトルは会社名と職種に分割します。limit が 0 以下の場合は上限なしです。
func ItemsToJobs(feed *gofeed.Feed, source string, limit int) []types.Job {
	if feed == nil || len(feed.Items) == 0 {
		return []types.Job{}
	}

	jobs := make([]types.Job, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		if limit > 0 && len(jobs) >= limit {
			break
		}

		company, title := splitCompanyTitle(textUtils.NormalizeText(item.Title))
		description := htmlToText(item.Description)

		jobs = append(jobs, types.Job{
			Title:    title,
			Company:  company,
			Location: itemLocation(item),
			Link:     sanitizeLink(item.Link),
			Source:   source,
			Snippet:  strings.TrimSpace(title + " " + description),
		})
	}
	return jobs
}

// itemLocation は独自要素 region の値を返します。ない場合は RemoteLocation です。
func itemLocation(item *gofeed.Item) string {
	if region := textUtils.NormalizeText(item.Custom[regionField]); region != "" {
		return region
	}
	return RemoteLocation
}

// splitCompanyTitle は "Acme: DevOps Engineer" を ("Acme", "DevOps Engineer") に分割します。
func splitCompanyTitle(raw string) (company, title string) {
	before, after, found := strings.Cut(raw, ": ")
	if !found || strings.TrimSpace(before) == "" || strings.TrimSpace(after) == "" {
		return "", raw
	}
	return strings.TrimSpace(before), strings.TrimSpace(after)
}

// htmlToText はフィード本文のHTMLをプレーンテキストにします。
func htmlToText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return textUtils.NormalizeText(fragment)
	}
	return textUtils.NormalizeText(doc.Text())
}

func sanitizeLink(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return u.String()
}
