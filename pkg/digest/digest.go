// Package digest は、絞り込んだ求人一覧をメール本文用の HTML 断片に変換します。
package digest

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/shouni/go-job-digest/pkg/types"
)

const (
	// NoJobsHTML は、該当する求人がない場合の本文です。
	NoJobsHTML = "<p>No matching jobs found today.</p>"

	// LocationPlaceholder は、勤務地が空の場合に表示する文字です。
	LocationPlaceholder = "—"

	subjectPrefix = "Daily Cloud & DevOps Jobs – "
)

var headers = []string{"#", "Title", "Company", "Location"}

// Subject は、now の UTC 日付を含むメールの件名を返します。
func Subject(now time.Time) string {
	return subjectPrefix + now.UTC().Format("2006-01-02")
}

// BuildHTML は、求人一覧を1行1件の HTML テーブルに変換します。
// テキストと href 属性はすべてエスケープされ、http/https 以外のリンクは "#" に置き換えられます。
func BuildHTML(jobs []types.Job) (string, error) {
	if len(jobs) == 0 {
		return NoJobsHTML, nil
	}

	table := element(atom.Table,
		html.Attribute{Key: "border", Val: "1"},
		html.Attribute{Key: "cellpadding", Val: "6"},
	)

	head := element(atom.Tr)
	for _, h := range headers {
		head.AppendChild(cell(atom.Th, text(h)))
	}
	table.AppendChild(head)

	for i, job := range jobs {
		row := element(atom.Tr)
		row.AppendChild(cell(atom.Td, text(strconv.Itoa(i+1))))

		a := element(atom.A, html.Attribute{Key: "href", Val: SafeLink(job.Link)})
		a.AppendChild(text(job.Title))
		row.AppendChild(cell(atom.Td, a))

		row.AppendChild(cell(atom.Td, text(job.CompanyOrSource())))

		location := job.Location
		if location == "" {
			location = LocationPlaceholder
		}
		row.AppendChild(cell(atom.Td, text(location)))

		table.AppendChild(row)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, table); err != nil {
		return "", fmt.Errorf("HTMLのレンダリングに失敗しました: %w", err)
	}
	return buf.String(), nil
}

// SafeLink は、ホストを持つ絶対 http/https URL であればそのまま返し、それ以外は "#" を返します。
func SafeLink(link string) string {
	link = strings.TrimSpace(link)
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return "#"
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return link
	default:
		return "#"
	}
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func cell(a atom.Atom, child *html.Node) *html.Node {
	n := element(a)
	n.AppendChild(child)
	return n
}
