package processor

import (
	"strings"

	"github.com/LJTian/WeiboTrending/internal/collector"
)

// SimpleProcessor 把榜单原始数据整理为 TrendingItem，并负责按标题去重合并
type SimpleProcessor struct{}

func NewSimpleProcessor() *SimpleProcessor {
	return &SimpleProcessor{}
}

// Process 保持榜单顺序；标题不做任何规整，作为唯一键原样保留
func (p *SimpleProcessor) Process(raw []collector.RawItem) []collector.TrendingItem {
	out := make([]collector.TrendingItem, 0, len(raw))
	for _, r := range raw {
		out = append(out, collector.TrendingItem{
			Title:       toValidUTF8(r.Desc),
			Category:    toValidUTF8(string(r.Category)),
			Description: toValidUTF8(string(r.Description)),
			URL:         r.Scheme,
			Hot:         r.DescExtr,
			Ads:         r.IsPromoted(),
		})
	}
	return out
}

// Merge 依次拼接 fresh 与 existing，按标题去重，先出现者保留。
// 因此同名条目以 fresh（本轮采集）为准
func Merge(fresh, existing []collector.TrendingItem) []collector.TrendingItem {
	out := make([]collector.TrendingItem, 0, len(fresh)+len(existing))
	seen := make(map[string]struct{}, len(fresh)+len(existing))

	for _, list := range [][]collector.TrendingItem{fresh, existing} {
		for _, it := range list {
			if _, ok := seen[it.Title]; ok {
				continue
			}
			seen[it.Title] = struct{}{}
			out = append(out, it)
		}
	}
	return out
}

// toValidUTF8 非法字节替换为 U+FFFD，避免写出无法解析的 JSON
func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "�")
}
