package advisor

import (
	"slices"
	"strings"
)

// Provinces accepted as UserInput.Province.
var Provinces = []string{
	"北京", "天津", "河北", "山西", "内蒙古",
	"辽宁", "吉林", "黑龙江",
	"上海", "江苏", "浙江", "安徽", "福建", "江西", "山东",
	"河南", "湖北", "湖南", "广东", "广西", "海南",
	"重庆", "四川", "贵州", "云南", "西藏",
	"陕西", "甘肃", "青海", "宁夏", "新疆",
}

// Streams accepted as UserInput.Stream.
var Streams = []string{"物理类", "历史类", "综合", "理科", "文科"}

// Score types accepted as UserInput.ScoreType.
const (
	ScoreTypeRank  = "rank"
	ScoreTypeScore = "score"
)

// ScoreTypes lists the accepted score types.
var ScoreTypes = []string{ScoreTypeRank, ScoreTypeScore}

// IsProvince reports whether name is a known province.
func IsProvince(name string) bool {
	return slices.Contains(Provinces, name)
}

// IsStream reports whether name is a known stream.
func IsStream(name string) bool {
	return slices.Contains(Streams, name)
}

// CompleteProvince returns the provinces starting with prefix. It backs shell
// completion of the --province flag.
func CompleteProvince(prefix string) []string {
	var out []string
	for _, p := range Provinces {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	return out
}
