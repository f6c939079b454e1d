package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gatehouse-io/gatehouse/internal/authz"
)

// AuthzCollector feeds authorization decision and roles-cache counters into
// Prometheus. It satisfies both observer interfaces of the authz package.
type AuthzCollector struct {
	decisions *prometheus.CounterVec
	cacheHits prometheus.Counter
	cacheMiss prometheus.Counter
}

var (
	_ authz.DecisionObserver = (*AuthzCollector)(nil)
	_ authz.CacheObserver    = (*AuthzCollector)(nil)
)

// NewAuthzCollector registers the authorization collectors.
func NewAuthzCollector(registerer prometheus.Registerer) *AuthzCollector {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gatehouse_authz_decisions_total",
		Help: "Authorization verdicts partitioned by resource, action and outcome.",
	}, []string{"resource", "action", "outcome"})
	hits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gatehouse_authz_roles_cache_hits_total",
		Help: "Role resolutions answered from the in-memory cache.",
	})
	misses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gatehouse_authz_roles_cache_misses_total",
		Help: "Role resolutions that fell through to the role store.",
	})
	registerer.MustRegister(decisions, hits, misses)
	return &AuthzCollector{decisions: decisions, cacheHits: hits, cacheMiss: misses}
}

// Decision implements authz.DecisionObserver.
func (c *AuthzCollector) Decision(resource authz.Resource, action authz.Action, allowed bool) {
	if c == nil {
		return
	}
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	c.decisions.WithLabelValues(string(resource), string(action), outcome).Inc()
}

// CacheHit implements authz.CacheObserver.
func (c *AuthzCollector) CacheHit() {
	if c == nil {
		return
	}
	c.cacheHits.Inc()
}

// CacheMiss implements authz.CacheObserver.
func (c *AuthzCollector) CacheMiss() {
	if c == nil {
		return
	}
	c.cacheMiss.Inc()
}
