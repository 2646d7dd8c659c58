package exporter

import (
	"io"
	"sort"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/marocz/ece-exporter/internal/metrics"
)

// toMetricFamilies converts MetricSets to the exposition wire model. All ECE
// families are gauges. Families with no rows are dropped — the text encoder
// rejects empty families, and absence is the correct representation anyway.
func toMetricFamilies(sets ...metrics.MetricSet) []*dto.MetricFamily {
	var out []*dto.MetricFamily
	for _, set := range sets {
		for _, f := range set {
			if len(f.Rows) == 0 {
				continue
			}
			mf := &dto.MetricFamily{
				Name: strPtr(f.Name),
				Help: strPtr(f.Help),
				Type: dto.MetricType_GAUGE.Enum(),
			}
			for _, row := range f.Rows {
				m := &dto.Metric{Gauge: &dto.Gauge{Value: floatPtr(row.Value)}}
				for _, l := range row.Labels {
					m.Label = append(m.Label, &dto.LabelPair{
						Name:  strPtr(l.Name),
						Value: strPtr(l.Value),
					})
				}
				mf.Metric = append(mf.Metric, m)
			}
			out = append(out, mf)
		}
	}
	return out
}

// writeText renders families as plain-text exposition, sorted by family name.
func writeText(w io.Writer, fams []*dto.MetricFamily) error {
	sort.Slice(fams, func(i, j int) bool {
		return fams[i].GetName() < fams[j].GetName()
	})

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range fams {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

// expositionFormat is the Content-Type value for plain-text exposition.
func expositionFormat() string {
	return string(expfmt.NewFormat(expfmt.TypeTextPlain))
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }
