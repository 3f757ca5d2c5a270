package collector

import (
	"bytes"
	"context"
	"encoding/json"
)

// TrendingItem 一条热搜；Title 是唯一键（大小写敏感、不做 trim）
type TrendingItem struct {
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Hot         HotScore `json:"hot"`
	Ads         bool     `json:"ads"`
}

// RawItem 对应微博 card_group 中的一条原始数据
type RawItem struct {
	Desc        string          `json:"desc"`
	DescExtr    HotScore        `json:"desc_extr"`
	Scheme      string          `json:"scheme"`
	Category    FlexText        `json:"category"`
	Description FlexText        `json:"description"`
	Promotion   json.RawMessage `json:"promotion"`
}

// IsPromoted promotion 字段为“真值”即视为推广
func (r RawItem) IsPromoted() bool {
	b := bytes.TrimSpace(r.Promotion)
	if len(b) == 0 {
		return false
	}
	switch string(b) {
	case "null", "false", "0", `""`:
		return false
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		return f != 0
	}
	return true
}

// FlexText 接口里有的字段时而是数字时而是字符串，统一按文本保存
type FlexText string

func (t *FlexText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = FlexText(s)
		return nil
	}
	// 数字、布尔等原样保留文本形式
	*t = FlexText(b)
	return nil
}

// HotScore 热度值（desc_extr），解码规则同 FlexText
type HotScore string

func (h *HotScore) UnmarshalJSON(b []byte) error {
	var t FlexText
	if err := t.UnmarshalJSON(b); err != nil {
		return err
	}
	*h = HotScore(t)
	return nil
}

func (h HotScore) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(h))
}

// Fetcher 抽象热搜榜数据源
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]RawItem, error)
}
