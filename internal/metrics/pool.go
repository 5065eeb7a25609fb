package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	store "github.com/dropDatabas3/socialauth/internal/store/v2"
)

// dbPoolCollector expone gauges del pool de la base.
type dbPoolCollector struct {
	stats func() (store.PoolStats, bool)

	acquiredDesc *prometheus.Desc
	idleDesc     *prometheus.Desc
	totalDesc    *prometheus.Desc
}

func newDBPoolCollector(stats func() (store.PoolStats, bool)) *dbPoolCollector {
	return &dbPoolCollector{
		stats:        stats,
		acquiredDesc: prometheus.NewDesc("db_pool_acquired", "Conexiones adquiridas", nil, nil),
		idleDesc:     prometheus.NewDesc("db_pool_idle", "Conexiones inactivas", nil, nil),
		totalDesc:    prometheus.NewDesc("db_pool_total", "Conexiones totales", nil, nil),
	}
}

func (c *dbPoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquiredDesc
	ch <- c.idleDesc
	ch <- c.totalDesc
}

func (c *dbPoolCollector) Collect(ch chan<- prometheus.Metric) {
	st, ok := c.stats()
	if !ok {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.acquiredDesc, prometheus.GaugeValue, float64(st.Acquired))
	ch <- prometheus.MustNewConstMetric(c.idleDesc, prometheus.GaugeValue, float64(st.Idle))
	ch <- prometheus.MustNewConstMetric(c.totalDesc, prometheus.GaugeValue, float64(st.Total))
}
