package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// 先に定義したものから順に評価し、最初に一致したルールを採用します。
var (
	rangePattern   = regexp.MustCompile(`(\d{1,2})\s*[-–]\s*(\d{1,2})\s*years?`)
	plusPattern    = regexp.MustCompile(`(\d{1,2})\s*\+\s*years?`)
	minimumPattern = regexp.MustCompile(`minimum\s+of\s+(\d{1,2})\s*years?`)
	singlePattern  = regexp.MustCompile(`(\d{1,2})\s*years?`)
)

// Range は、テキストから抽出した経験年数の範囲 (両端を含む) です。
// nil の境界は不明 (上限・下限なし) を表します。
type Range struct {
	Min *int
	Max *int
}

// Known は、少なくとも一方の境界が判明しているかどうかを返します。
func (r Range) Known() bool {
	return r.Min != nil || r.Max != nil
}

func (r Range) String() string {
	bound := func(p *int) string {
		if p == nil {
			return "?"
		}
		return strconv.Itoa(*p)
	}
	return fmt.Sprintf("[%s, %s]", bound(r.Min), bound(r.Max))
}

// ParseExperience は、自由形式のテキストから経験年数の範囲を抽出します。
func ParseExperience(text string) Range {
	if text == "" {
		return Range{}
	}
	t := strings.ToLower(text)

	if m := rangePattern.FindStringSubmatch(t); m != nil {
		return Range{Min: atoi(m[1]), Max: atoi(m[2])}
	}
	if m := plusPattern.FindStringSubmatch(t); m != nil {
		return Range{Min: atoi(m[1])}
	}
	if m := minimumPattern.FindStringSubmatch(t); m != nil {
		return Range{Min: atoi(m[1])}
	}
	if m := singlePattern.FindStringSubmatch(t); m != nil {
		return Range{Min: atoi(m[1]), Max: atoi(m[1])}
	}
	return Range{}
}

// ExperienceMatches は、抽出した範囲が許容範囲 [minYears, maxYears] と重なるかどうかを判定します。
// 範囲が不明な場合は通過とします。
func ExperienceMatches(r Range, minYears, maxYears int) bool {
	if !r.Known() {
		return true
	}
	switch {
	case r.Min != nil && r.Max != nil:
		return !(*r.Max < minYears || *r.Min > maxYears)
	case r.Min != nil:
		return *r.Min <= maxYears
	default:
		return *r.Max >= minYears
	}
}

// atoi は最大2桁の数字列のみを受け取るため、変換エラーは発生しません。
func atoi(s string) *int {
	n, _ := strconv.Atoi(s)
	return &n
}
