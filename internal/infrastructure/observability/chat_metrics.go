package observability

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes Prometheus counters for the conversational flows and the
// search proxies. A nil *ChatMetrics is valid and records nothing.
type ChatMetrics struct {
	transitions *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
	proxyCalls  *prometheus.CounterVec
	staleWrites prometheus.Counter
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "musemate",
			Subsystem: "chat",
			Name:      "transitions_total",
			Help:      "Flow state machine transitions by flow and outcome",
		}, []string{"flow", "outcome"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "musemate",
			Subsystem: "chat",
			Name:      "fallback_resolutions_total",
			Help:      "Free-text utterances by the stage of the fallback chain that answered them",
		}, []string{"stage"}),
		proxyCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "musemate",
			Subsystem: "proxy",
			Name:      "calls_total",
			Help:      "Video and web search proxy calls by source and status",
		}, []string{"source", "status"}),
		staleWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "musemate",
			Subsystem: "chat",
			Name:      "stale_writes_total",
			Help:      "Chat requests rejected because the session moved on",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.transitions, m.fallbacks, m.proxyCalls, m.staleWrites)
	return m
}

func (m *ChatMetrics) ObserveTransition(flow, outcome string) {
	if m == nil {
		return
	}
	if flow == "" {
		flow = "none"
	}
	m.transitions.WithLabelValues(flow, outcome).Inc()
}

func (m *ChatMetrics) ObserveFallback(stage string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(stage).Inc()
}

func (m *ChatMetrics) ObserveProxyCall(source, status string) {
	if m == nil {
		return
	}
	m.proxyCalls.WithLabelValues(source, status).Inc()
}

func (m *ChatMetrics) ObserveStaleWrite() {
	if m == nil {
		return
	}
	m.staleWrites.Inc()
}
