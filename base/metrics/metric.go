// Package metrics names and exposes the metrics of the application in the
// Prometheus format.
package metrics

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"sync"

	vm "github.com/VictoriaMetrics/metrics"

	"github.com/safing/rdapboot/base/log"
)

// PrometheusFormatRequirement is required format defined by prometheus for
// metric and label names.
const (
	prometheusBaseFormt         = "[a-zA-Z_][a-zA-Z0-9_]*"
	PrometheusFormatRequirement = "^" + prometheusBaseFormt + "$"
)

var (
	prometheusFormat = regexp.MustCompile(PrometheusFormatRequirement)

	metricNamespace = "rdapboot"
	namespaceLock   sync.Mutex
	logMetricsOnce  sync.Once
)

// SetNamespace sets the prefix of all metric names.
func SetNamespace(namespace string) error {
	if namespace != "" && !prometheusFormat.MatchString(namespace) {
		return fmt.Errorf("metric namespace %q must match %s", namespace, PrometheusFormatRequirement)
	}

	namespaceLock.Lock()
	defer namespaceLock.Unlock()
	metricNamespace = namespace
	return nil
}

// Counter returns the counter with the given ID and labels, creating it if
// needed. Slashes in the ID are replaced with underscores, eg.
// "cache/total" becomes "rdapboot_cache_total".
// It panics if the ID or a label name is invalid.
func Counter(id string, labels map[string]string) *vm.Counter {
	return vm.GetOrCreateCounter(LabeledID(id, labels))
}

// LabeledID returns the Prometheus-compatible labeled ID of a metric.
func LabeledID(id string, labels map[string]string) string {
	metricID := strings.TrimSpace(strings.ReplaceAll(id, "/", "_"))

	namespaceLock.Lock()
	if metricNamespace != "" {
		metricID = metricNamespace + "_" + metricID
	}
	namespaceLock.Unlock()

	if !prometheusFormat.MatchString(metricID) {
		panic(fmt.Sprintf("metric name %q must match %s", metricID, PrometheusFormatRequirement))
	}
	if len(labels) == 0 {
		return metricID
	}

	// Render labels sorted in order to make the labeled ID reproducible.
	rendered := make([]string, 0, len(labels))
	for labelName, labelValue := range labels {
		if !prometheusFormat.MatchString(labelName) {
			panic(fmt.Sprintf("metric label name %q must match %s", labelName, PrometheusFormatRequirement))
		}
		rendered = append(rendered, fmt.Sprintf("%s=%q", labelName, labelValue))
	}
	sort.Strings(rendered)

	return fmt.Sprintf("%s{%s}", metricID, strings.Join(rendered, ","))
}

// WritePrometheus writes all metrics to w.
func WritePrometheus(w io.Writer, exposeProcessMetrics bool) {
	logMetricsOnce.Do(registerLogMetrics)
	vm.WritePrometheus(w, exposeProcessMetrics)
}

func registerLogMetrics() {
	vm.GetOrCreateGauge(LabeledID("logs/warning/total", nil), func() float64 {
		return float64(log.TotalWarningLogLines())
	})
	vm.GetOrCreateGauge(LabeledID("logs/error/total", nil), func() float64 {
		return float64(log.TotalErrorLogLines())
	})
	vm.GetOrCreateGauge(LabeledID("logs/critical/total", nil), func() float64 {
		return float64(log.TotalCriticalLogLines())
	})
}
