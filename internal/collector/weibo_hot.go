package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultIndexURL       = "https://m.weibo.cn/api/container/getIndex?containerid=106003type%3D25%26t%3D3%26disable_hot%3D1%26filter_type%3Drealtimehot"
	DefaultUserAgent      = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile/15E148"
	weiboMaxResponseBytes = 4 << 20 // 4MB
)

// weiboIndexResp 对应 getIndex 的响应结构，只取用到的字段
type weiboIndexResp struct {
	OK   int `json:"ok"`
	Data struct {
		Cards []struct {
			CardGroup []RawItem `json:"card_group"`
		} `json:"cards"`
	} `json:"data"`
}

// WeiboHotFetcher 抓取微博实时热搜榜
type WeiboHotFetcher struct {
	IndexURL  string
	UserAgent string
	Client    *http.Client
	Logger    *zap.Logger
}

// NewWeiboHotFetcher timeout 为 0 时不设置客户端超时
func NewWeiboHotFetcher(indexURL, userAgent string, timeout time.Duration, logger *zap.Logger) *WeiboHotFetcher {
	if indexURL == "" {
		indexURL = DefaultIndexURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeiboHotFetcher{
		IndexURL:  indexURL,
		UserAgent: userAgent,
		Client:    &http.Client{Timeout: timeout},
		Logger:    logger,
	}
}

func (w *WeiboHotFetcher) Name() string {
	return "weibo_hot"
}

// Fetch ok != 1 或者没有 card_group 时返回 nil, nil，表示“本轮没有可报告的数据”
func (w *WeiboHotFetcher) Fetch(ctx context.Context) ([]RawItem, error) {
	w.Logger.Info("fetch Weibo Hot Search", zap.String("url", w.IndexURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.IndexURL, nil)
	if err != nil {
		return nil, fmt.Errorf("weibo: build request: %w", err)
	}
	if w.UserAgent != "" {
		req.Header.Set("User-Agent", w.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weibo: fetch index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weibo: unexpected status %d", resp.StatusCode)
	}

	var data weiboIndexResp
	if err := json.NewDecoder(io.LimitReader(resp.Body, weiboMaxResponseBytes)).Decode(&data); err != nil {
		return nil, fmt.Errorf("weibo: decode index: %w", err)
	}

	if data.OK != 1 {
		w.Logger.Warn("weibo index not ok", zap.Int("ok", data.OK))
		return nil, nil
	}
	if len(data.Data.Cards) == 0 || data.Data.Cards[0].CardGroup == nil {
		w.Logger.Warn("weibo index has no card_group")
		return nil, nil
	}

	items := data.Data.Cards[0].CardGroup
	w.Logger.Info("fetch Weibo Hot Search done", zap.Int("items", len(items)))
	return items, nil
}
