// Package filter は、収集した求人をキーワード、経験年数、勤務地の3つの条件で絞り込みます。
// すべての判定は副作用のない純粋な関数です。
package filter

import (
	"strings"
	"unicode"

	textUtils "github.com/shouni/go-utils/text"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/shouni/go-job-digest/pkg/types"
)

const (
	DefaultMinYears = 2
	DefaultMaxYears = 6
)

// DefaultRoleKeywords は、対象とする職種キーワードです。検索キーワードとしても使われます。
var DefaultRoleKeywords = []string{
	"DevOps Engineer",
	"Cloud Engineer",
	"Site Reliability Engineer",
	"Platform Engineer",
	"Infrastructure Engineer",
	"AWS Engineer",
	"Azure DevOps Engineer",
	"Kubernetes Engineer",
}

// GenericTerms は、職種キーワードに一致しない場合に使う汎用語です。
var GenericTerms = []string{"devops", "cloud", "sre", "site reliability"}

// DefaultLocationTerms は、勤務地として許容する語です。
var DefaultLocationTerms = []string{"remote", "india", "pan india", "india remote"}

// Reason は、求人が除外された理由です。
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonKeyword    Reason = "keyword"
	ReasonExperience Reason = "experience"
	ReasonLocation   Reason = "location"
)

// Criteria は絞り込み条件です。
type Criteria struct {
	RoleKeywords  []string
	MinYears      int
	MaxYears      int
	LocationTerms []string
}

// DefaultCriteria は既定の絞り込み条件を返します。
func DefaultCriteria() Criteria {
	return Criteria{
		RoleKeywords:  append([]string(nil), DefaultRoleKeywords...),
		MinYears:      DefaultMinYears,
		MaxYears:      DefaultMaxYears,
		LocationTerms: append([]string(nil), DefaultLocationTerms...),
	}
}

// Filter は Criteria に基づいて求人を絞り込みます。
type Filter struct {
	criteria Criteria
}

// New は Filter を初期化します。
func New(c Criteria) *Filter {
	return &Filter{criteria: c}
}

// Apply は、3つの条件をすべて満たす求人のみを元の順序のまま返します。
func (f *Filter) Apply(jobs []types.Job) []types.Job {
	matched := make([]types.Job, 0, len(jobs))
	for _, job := range jobs {
		if ok, _ := f.Explain(job); ok {
			matched = append(matched, job)
		}
	}
	return matched
}

// Explain は、キーワード、経験年数、勤務地の順に判定し、最初に失敗した条件を返します。
func (f *Filter) Explain(job types.Job) (bool, Reason) {
	combined := CombinedText(job)

	if !KeywordRelevant(combined, f.criteria.RoleKeywords) {
		return false, ReasonKeyword
	}
	if !ExperienceMatches(ParseExperience(combined), f.criteria.MinYears, f.criteria.MaxYears) {
		return false, ReasonExperience
	}
	if !LocationMatches(job.Location, f.criteria.LocationTerms) {
		return false, ReasonLocation
	}
	return true, ReasonNone
}

// CombinedText は、タイトル、会社名、勤務地、周辺テキストを連結して空白を正規化した文字列を返します。
func CombinedText(job types.Job) string {
	return textUtils.NormalizeText(strings.Join([]string{job.Title, job.Company, job.Location, job.Snippet}, " "))
}

// KeywordRelevant は、職種キーワードまたは汎用語のいずれかを含むかどうかを大文字小文字を区別せずに判定します。
func KeywordRelevant(text string, keywords []string) bool {
	t := strings.ToLower(text)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(t, strings.ToLower(kw)) {
			return true
		}
	}
	for _, term := range GenericTerms {
		if strings.Contains(t, term) {
			return true
		}
	}
	return false
}

// LocationMatches は、勤務地が空であるか、許容語のいずれかを含むかどうかを判定します。
// 比較の前に発音区別符号を取り除きます。
func LocationMatches(location string, terms []string) bool {
	if location == "" {
		return true
	}
	t := strings.ToLower(foldDiacritics(location))
	for _, term := range terms {
		if term != "" && strings.Contains(t, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}
