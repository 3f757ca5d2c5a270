package notify

import (
	"fmt"
	"math"
	"math/big"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/LJTian/WeiboTrending/internal/collector"
)

const (
	searchURLPrefix = "https://m.weibo.cn/search?containerid="
	maxRanked       = 50
	timeLayout      = "2006-01-02 15:04:05"
)

// ranks 0️⃣1️⃣ … 5️⃣0️⃣，超出表长的名次直接丢弃
var ranks = buildRanks(maxRanked)

func buildRanks(n int) []string {
	keycap := func(d int) string { return strconv.Itoa(d) + "\uFE0F\u20E3" }
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, keycap(i/10)+keycap(i%10))
	}
	return out
}

// Format 生成频道消息：过滤推广 → 去掉第一条 → 取后续至多 50 条 → 加表头。
// 输入是本轮采集的列表，不是合并后的日榜
func Format(items []collector.TrendingItem, now time.Time) string {
	eligible := make([]collector.TrendingItem, 0, len(items))
	for _, it := range items {
		if !it.Ads {
			eligible = append(eligible, it)
		}
	}

	// 第一条通常是置顶，已经在别处展示
	if len(eligible) > 0 {
		eligible = eligible[1:]
	}
	if len(eligible) > maxRanked {
		eligible = eligible[:maxRanked]
	}

	lines := make([]string, 0, len(eligible)+1)
	lines = append(lines, fmt.Sprintf("**微博实时热搜** %s ([查看更多]())\n", now.Format(timeLayout)))
	for i, it := range eligible {
		if i >= len(ranks) {
			break
		}
		lines = append(lines, fmt.Sprintf("%s [%s](%s) %s", ranks[i], it.Title, SearchURL(it.URL), FormatHot(it.Hot)))
	}
	return strings.Join(lines, "\n")
}

// SearchURL 取 scheme 中的 containerid 拼成移动端搜索页地址
func SearchURL(scheme string) string {
	containerID := ""
	if u, err := url.Parse(scheme); err == nil {
		containerID = u.Query().Get("containerid")
	}
	return searchURLPrefix + collector.EncodeURIComponent(containerID)
}

// leadingFloat 取开头能解析成数字的部分，如 "123400 热" 取 123400
var leadingFloat = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// FormatHot 以“万”为单位保留两位小数；无法解析时输出 N/A
func FormatHot(h collector.HotScore) string {
	num := leadingFloat.FindString(strings.TrimSpace(string(h)))
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return "N/A"
	}
	return toFixed2(v/10000) + " 万"
}

// toFixed2 按精确的二进制值保留两位小数，恰好一半时远离零进位（与 JS toFixed(2) 一致）
func toFixed2(x float64) string {
	if math.Abs(x) >= 1e21 {
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	sign := ""
	if x < 0 {
		sign = "-"
		x = -x
	}
	r := new(big.Rat).SetFloat64(x)
	r.Mul(r, big.NewRat(100, 1))

	// n = floor(r + 1/2)
	num := new(big.Int).Lsh(r.Num(), 1)
	num.Add(num, r.Denom())
	n := num.Quo(num, new(big.Int).Lsh(r.Denom(), 1))

	intPart, frac := new(big.Int).QuoRem(n, big.NewInt(100), new(big.Int))
	return fmt.Sprintf("%s%s.%02d", sign, intPart.String(), frac.Int64())
}
