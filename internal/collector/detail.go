package collector

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

const DefaultDetailURL = "https://m.s.weibo.com/topic/detail?q=%s"

// Enrichment 详情页补充信息；抓取失败时两个字段都为空
type Enrichment struct {
	Category    string `json:"category"`
	Description string `json:"description"`
}

func (e Enrichment) IsZero() bool {
	return e.Category == "" && e.Description == ""
}

// Enricher 根据标题补充分类与简介。实现必须“尽力而为”，不向上返回错误
type Enricher interface {
	Enrich(ctx context.Context, title string) Enrichment
}

// DetailEnricher 抓取话题详情页，解析分类与导语
type DetailEnricher struct {
	URLTemplate string
	UserAgent   string
	Timeout     time.Duration
	Logger      *zap.Logger
}

func NewDetailEnricher(urlTemplate, userAgent string, timeout time.Duration, logger *zap.Logger) *DetailEnricher {
	if urlTemplate == "" {
		urlTemplate = DefaultDetailURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DetailEnricher{
		URLTemplate: urlTemplate,
		UserAgent:   userAgent,
		Timeout:     timeout,
		Logger:      logger,
	}
}

func (d *DetailEnricher) Enrich(ctx context.Context, title string) Enrichment {
	detailURL := fmt.Sprintf(d.URLTemplate, EncodeURIComponent(title))

	opts := []colly.CollectorOption{colly.StdlibContext(ctx)}
	if d.UserAgent != "" {
		opts = append(opts, colly.UserAgent(d.UserAgent))
	}
	c := colly.NewCollector(opts...)
	c.SetRequestTimeout(d.Timeout)

	var out Enrichment
	c.OnHTML("html", func(e *colly.HTMLElement) {
		out = extractDetail(e.DOM)
	})

	if err := c.Visit(detailURL); err != nil {
		d.Logger.Debug("fetch topic detail failed", zap.String("title", title), zap.Error(err))
		enrichTotal.WithLabelValues("failed").Inc()
		return Enrichment{}
	}

	if out.IsZero() {
		enrichTotal.WithLabelValues("empty").Inc()
	} else {
		enrichTotal.WithLabelValues("ok").Inc()
	}
	return out
}

// extractDetail 分类取 #pl_topicband 下第一个 dl>dd；导语取第二个 dl 中最后一个非主持人的 dd
func extractDetail(doc *goquery.Selection) Enrichment {
	band := doc.Find("#pl_topicband dl")
	return Enrichment{
		Category:    strings.TrimSpace(doc.Find("#pl_topicband dl>dd").First().Text()),
		Description: strings.TrimSpace(band.Eq(1).Find("dd:not(.host-row)").Last().Text()),
	}
}

// EncodeURIComponent 与浏览器 encodeURIComponent 的转义规则保持一致
func EncodeURIComponent(s string) string {
	escaped := url.QueryEscape(s)
	return uriComponentReplacer.Replace(escaped)
}

var uriComponentReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)
