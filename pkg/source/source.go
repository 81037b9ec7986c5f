// Package source は、求人サイトごとの取得処理を Source インターフェースの背後に隔離します。
// サイトのマークアップは安定した契約ではないため、各実装は壊れやすいことを前提としています。
package source

import (
	"context"
	"net/url"

	textUtils "github.com/shouni/go-utils/text"

	"github.com/shouni/go-job-digest/pkg/types"
)

// Source は1つの求人サイトから、キーワードに対応する求人を取得します。
type Source interface {
	Name() string
	Fetch(ctx context.Context, keyword string) ([]types.Job, error)
}

// queryKeyword は、キーワードの空白を正規化してクエリ値としてエスケープします。空白は "+" になります。
func queryKeyword(keyword string) string {
	return url.QueryEscape(textUtils.NormalizeText(keyword))
}
