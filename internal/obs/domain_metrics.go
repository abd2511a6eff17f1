package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PricingRuleSelections counts quote outcomes: a rule applied or the list price kept.
	PricingRuleSelections *prometheus.CounterVec
	// CartRecalculations counts cart recalculation outcomes.
	CartRecalculations *prometheus.CounterVec
	// RuleCacheLookups counts rule cache hits and misses.
	RuleCacheLookups *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PricingRuleSelections = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_rule_selections_total",
			Help:      "Count of price quotes by selection outcome.",
		}, []string{"outcome"})
		CartRecalculations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_recalculations_total",
			Help:      "Count of cart recalculations by result.",
		}, []string{"result"})
		RuleCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_rule_cache_lookups_total",
			Help:      "Count of active rule cache lookups by result.",
		}, []string{"result"})

		mustRegisterCollector(reg, PricingRuleSelections, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PricingRuleSelections = v
			}
		})
		mustRegisterCollector(reg, CartRecalculations, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CartRecalculations = v
			}
		})
		mustRegisterCollector(reg, RuleCacheLookups, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				RuleCacheLookups = v
			}
		})
	})
}

// CountCartRecalculation records a recalculation result when domain metrics are registered.
func CountCartRecalculation(result string) {
	if CartRecalculations != nil {
		CartRecalculations.WithLabelValues(result).Inc()
	}
}

// CountRuleCacheLookup records a cache hit or miss when domain metrics are registered.
func CountRuleCacheLookup(hit bool) {
	if RuleCacheLookups == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	RuleCacheLookups.WithLabelValues(result).Inc()
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
}
