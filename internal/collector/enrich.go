package collector

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// EnrichAll 逐条补充分类与简介，原地修改 items。
// concurrency <= 1 时按列表顺序串行；否则最多 concurrency 个并发请求，
// 结果按下标回填，完成顺序不影响最终值
func EnrichAll(ctx context.Context, enricher Enricher, items []TrendingItem, concurrency int) {
	if concurrency <= 1 {
		for i := range items {
			applyEnrichment(&items[i], enricher.Enrich(ctx, items[i].Title))
		}
		return
	}

	results := make([]Enrichment, len(items))
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i := range items {
		g.Go(func() error {
			results[i] = enricher.Enrich(ctx, items[i].Title)
			return nil
		})
	}
	_ = g.Wait()

	for i := range items {
		applyEnrichment(&items[i], results[i])
	}
}

// 只在详情页给出非空值时覆盖，否则保留榜单原值
func applyEnrichment(item *TrendingItem, e Enrichment) {
	if e.Category != "" {
		item.Category = e.Category
	}
	if e.Description != "" {
		item.Description = e.Description
	}
}
