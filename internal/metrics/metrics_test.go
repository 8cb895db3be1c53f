package metrics_test

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"inkpress/internal/metrics"
)

func TestRecordImport(t *testing.T) {
	okBefore := testutil.ToFloat64(metrics.ImportFilesTotal.WithLabelValues("json", metrics.StatusOK))
	failBefore := testutil.ToFloat64(metrics.ImportFilesTotal.WithLabelValues("json", metrics.StatusFailed))

	metrics.RecordImport("json", nil, 0.01)
	metrics.RecordImport("json", errors.New("boom"), 0.02)
	metrics.RecordImport("json", nil, 0.03)

	assert.Equal(t, okBefore+2, testutil.ToFloat64(metrics.ImportFilesTotal.WithLabelValues("json", metrics.StatusOK)))
	assert.Equal(t, failBefore+1, testutil.ToFloat64(metrics.ImportFilesTotal.WithLabelValues("json", metrics.StatusFailed)))
}

func TestRecordImport_UnknownFormat(t *testing.T) {
	before := testutil.ToFloat64(metrics.ImportFilesTotal.WithLabelValues("unknown", metrics.StatusFailed))
	metrics.RecordImport("", errors.New("x"), 0)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ImportFilesTotal.WithLabelValues("unknown", metrics.StatusFailed)))
}

func TestRecordExport(t *testing.T) {
	before := testutil.ToFloat64(metrics.ExportTotal.WithLabelValues(metrics.StatusFailed))
	metrics.RecordExport(errors.New("missing title"))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ExportTotal.WithLabelValues(metrics.StatusFailed)))
}
