package metrics

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabeledID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "rdapboot_cache_total", LabeledID("cache/total", nil))
	assert.Equal(t,
		`rdapboot_cache_total{kind="dns",result="hit"}`,
		LabeledID("cache/total", map[string]string{"result": "hit", "kind": "dns"}),
	)

	assert.Panics(t, func() { LabeledID("cache total", nil) })
	assert.Panics(t, func() { LabeledID("cache/total", map[string]string{"bad-label": "x"}) })
}

func TestWritePrometheus(t *testing.T) {
	t.Parallel()

	Counter("test/total", map[string]string{"case": "write"}).Add(3)

	var buf bytes.Buffer
	WritePrometheus(&buf, false)
	assert.Contains(t, buf.String(), `rdapboot_test_total{case="write"} 3`)
	assert.Contains(t, buf.String(), "rdapboot_logs_warning_total")
}
