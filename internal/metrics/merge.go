package metrics

import (
	"go.uber.org/zap"

	"github.com/sells-group/diligence-cli/internal/model"
)

// Merge resolves a freshly derived MetricSet against the persisted source of
// truth, field by field. Precedence per field, applied independently:
//
//  1. an existing manual, non-placeholder value wins outright
//  2. otherwise a non-placeholder freshly derived value beats a stale one
//  3. otherwise whichever side is non-placeholder is kept
//  4. otherwise the slot stays empty
//
// Metrics are never merged as a whole blob, so a manual ARR survives even
// when every other slot is re-derived. Merge(m, m) == m.
func Merge(existing, derived *model.MetricSet) *model.MetricSet {
	out := &model.MetricSet{}
	if existing == nil {
		existing = &model.MetricSet{}
	}
	if derived == nil {
		derived = &model.MetricSet{}
	}

	overridden := 0
	for _, field := range model.MetricFields {
		ex := existing.Get(field)
		de := derived.Get(field)

		switch {
		case ex.Usable() && ex.Source == model.SourceManual:
			out.Set(field, copyValue(ex))
		case de.Usable():
			if ex.Usable() && ex.Value != de.Value {
				overridden++
			}
			out.Set(field, copyValue(de))
		case ex.Usable():
			out.Set(field, copyValue(ex))
		}
	}

	if overridden > 0 {
		zap.L().Debug("metrics: merge replaced stale values",
			zap.Int("replaced", overridden),
		)
	}
	return out
}

func copyValue(v *model.MetricValue) *model.MetricValue {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}
