// Package metrics publica os contadores de cada invocação no formato
// CloudWatch Embedded Metric Format (EMF).
package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/diillson/aws-macie-tagger-go/internal/domain/entity"
	"github.com/diillson/aws-macie-tagger-go/internal/domain/repository"
)

const (
	metricLabel   = "metric"
	coldStartName = "ColdStart"
	counterName   = "macie_tagger_events_total"
)

// EMFRepositoryImpl acumula contadores num registry Prometheus e os grava
// como uma linha EMF a cada Flush.
type EMFRepositoryImpl struct {
	mu        sync.Mutex
	registry  *prometheus.Registry
	counters  *prometheus.CounterVec
	namespace string
	service   string
	out       io.Writer
	now       func() time.Time
}

// NewEMFRepository cria o repositório de métricas. out normalmente é os.Stdout,
// de onde o CloudWatch Logs extrai as métricas.
func NewEMFRepository(namespace, service string, out io.Writer) *EMFRepositoryImpl {
	counters := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: counterName,
		Help: "Tagging handler events by outcome.",
	}, []string{metricLabel})

	registry := prometheus.NewRegistry()
	registry.MustRegister(counters)

	return &EMFRepositoryImpl{
		registry:  registry,
		counters:  counters,
		namespace: namespace,
		service:   service,
		out:       out,
		now:       time.Now,
	}
}

var _ repository.MetricsRepository = (*EMFRepositoryImpl)(nil)

// Registry expõe o registry subjacente.
func (r *EMFRepositoryImpl) Registry() *prometheus.Registry {
	return r.registry
}

// RecordSummary soma os contadores de um processamento.
func (r *EMFRepositoryImpl) RecordSummary(summary entity.Summary) {
	for name, value := range summary.Counters() {
		r.counters.WithLabelValues(name).Add(float64(value))
	}
}

// RecordColdStart marca a invocação como cold start.
func (r *EMFRepositoryImpl) RecordColdStart() {
	r.counters.WithLabelValues(coldStartName).Inc()
}

type emfMetric struct {
	Name string `json:"Name"`
	Unit string `json:"Unit"`
}

type emfDirective struct {
	Namespace  string      `json:"Namespace"`
	Dimensions [][]string  `json:"Dimensions"`
	Metrics    []emfMetric `json:"Metrics"`
}

type emfMetadata struct {
	Timestamp         int64          `json:"Timestamp"`
	CloudWatchMetrics []emfDirective `json:"CloudWatchMetrics"`
}

// Flush grava os contadores acumulados e os zera. Sem contadores, nada é
// escrito.
func (r *EMFRepositoryImpl) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("error gathering metrics: %w", err)
	}
	values := counterValues(families)
	if len(values) == 0 {
		return nil
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	directive := emfDirective{
		Namespace:  r.namespace,
		Dimensions: [][]string{{"service"}},
	}
	doc := map[string]interface{}{
		"service": r.service,
	}
	for _, name := range names {
		directive.Metrics = append(directive.Metrics, emfMetric{Name: name, Unit: "Count"})
		doc[name] = values[name]
	}
	doc["_aws"] = emfMetadata{
		Timestamp:         r.now().UnixMilli(),
		CloudWatchMetrics: []emfDirective{directive},
	}

	line, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("error encoding metrics: %w", err)
	}
	if _, err := fmt.Fprintln(r.out, string(line)); err != nil {
		return fmt.Errorf("error writing metrics: %w", err)
	}

	r.counters.Reset()
	return nil
}

func counterValues(families []*dto.MetricFamily) map[string]float64 {
	values := make(map[string]float64)
	for _, mf := range families {
		if mf.GetName() != counterName {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == metricLabel {
					values[lp.GetValue()] += m.GetCounter().GetValue()
				}
			}
		}
	}
	return values
}
