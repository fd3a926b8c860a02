package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const collectTimeout = 5 * time.Second

// StatsFunc reports current catalog size.
type StatsFunc func(ctx context.Context) (records, series int, err error)

// CatalogCollector reads catalog size at scrape time.
type CatalogCollector struct {
	stats       StatsFunc
	recordsDesc *prometheus.Desc
	seriesDesc  *prometheus.Desc
	upDesc      *prometheus.Desc
}

func NewCatalogCollector(stats StatsFunc) *CatalogCollector {
	return &CatalogCollector{
		stats: stats,
		recordsDesc: prometheus.NewDesc(
			namespace+"_catalog_records",
			"Number of stored release rows",
			nil, nil,
		),
		seriesDesc: prometheus.NewDesc(
			namespace+"_catalog_series",
			"Number of distinct series IDs",
			nil, nil,
		),
		upDesc: prometheus.NewDesc(
			namespace+"_catalog_up",
			"Whether the catalog could be read during the scrape",
			nil, nil,
		),
	}
}

func (c *CatalogCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.recordsDesc
	ch <- c.seriesDesc
	ch <- c.upDesc
}

func (c *CatalogCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
	defer cancel()

	records, series, err := c.stats(ctx)
	if err != nil {
		ch <- prometheus.MustNewConstMetric(c.upDesc, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.upDesc, prometheus.GaugeValue, 1)
	ch <- prometheus.MustNewConstMetric(c.recordsDesc, prometheus.GaugeValue, float64(records))
	ch <- prometheus.MustNewConstMetric(c.seriesDesc, prometheus.GaugeValue, float64(series))
}
