package types

import "strings"

// Job は、求人サイトから取得した1件の求人情報です。
// 各フィールドはベストエフォートで抽出されるため、空や不正確な値を含むことがあります。
type Job struct {
	Title    string // 表示用のタイトル
	Company  string // 会社名 (取得できない場合は空)
	Location string // 勤務地、またはアンカー周辺のテキスト
	Link     string // 求人の絶対URL (重複排除の主キー)
	Source   string // 取得元のサイト名
	Snippet  string // キーワード・経験年数の判定に使う周辺テキスト
}

// DedupKey は重複排除に使うキーを返します。Link を優先し、空の場合は Title を使います。
// 空文字列が返る場合、その求人は保持されません。
func (j Job) DedupKey() string {
	if link := strings.TrimSpace(j.Link); link != "" {
		return link
	}
	return strings.TrimSpace(j.Title)
}

// CompanyOrSource は表示用の会社名を返します。会社名がない場合は取得元のサイト名です。
func (j Job) CompanyOrSource() string {
	if j.Company != "" {
		return j.Company
	}
	return j.Source
}

// SourceResult は、1つのソースに対する1回の取得結果、またはその処理中に発生したエラーを保持します。
// Err が nil でない場合、Jobs は空として扱われます。
type SourceResult struct {
	Source  string // 取得元のサイト名
	Keyword string // 検索キーワード
	Jobs    []Job  // 取得した求人
	Err     error  // 処理中に発生したエラー
}

// OK は取得が成功したかどうかを返します。
func (r SourceResult) OK() bool {
	return r.Err == nil
}
