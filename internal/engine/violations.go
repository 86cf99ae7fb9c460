package engine

import (
	"fmt"

	"github.com/unbound-force/metricsbar/internal/metric"
)

// rule inspects a record and reports a violation when it is breached.
type rule func(r *metric.Record, t Thresholds) (metric.Violation, bool)

var rules = []rule{
	func(r *metric.Record, t Thresholds) (metric.Violation, bool) {
		if t.MaxComplexity <= 0 || r.CCN <= t.MaxComplexity {
			return metric.Violation{}, false
		}
		return metric.Violation{
			Name:  "Too complex code",
			Level: metric.LevelError,
			Description: fmt.Sprintf("cyclomatic complexity %d exceeds %d; split the file into smaller units",
				r.CCN, t.MaxComplexity),
		}, true
	},
	func(r *metric.Record, t Thresholds) (metric.Violation, bool) {
		if t.MaxFunctionComplexity <= 0 || r.MaxFunctionCCN <= t.MaxFunctionComplexity {
			return metric.Violation{}, false
		}
		return metric.Violation{
			Name:  "Too complex function code",
			Level: metric.LevelError,
			Description: fmt.Sprintf("a function has cyclomatic complexity %d, above %d",
				r.MaxFunctionCCN, t.MaxFunctionComplexity),
		}, true
	},
	func(r *metric.Record, t Thresholds) (metric.Violation, bool) {
		if t.MaxBugs <= 0 || r.Halstead.Bugs < t.MaxBugs {
			return metric.Violation{}, false
		}
		return metric.Violation{
			Name:  "Probably bugged",
			Level: metric.LevelWarning,
			Description: fmt.Sprintf("estimated bug count %.2f reaches %.2f",
				r.Halstead.Bugs, t.MaxBugs),
		}, true
	},
	func(r *metric.Record, t Thresholds) (metric.Violation, bool) {
		if t.MaxLogicalLines <= 0 || r.LLOC <= t.MaxLogicalLines {
			return metric.Violation{}, false
		}
		return metric.Violation{
			Name:  "Too long",
			Level: metric.LevelWarning,
			Description: fmt.Sprintf("%d logical lines exceed %d",
				r.LLOC, t.MaxLogicalLines),
		}, true
	},
	func(r *metric.Record, t Thresholds) (metric.Violation, bool) {
		if t.MinMaintainability <= 0 || r.MI >= t.MinMaintainability {
			return metric.Violation{}, false
		}
		return metric.Violation{
			Name:  "Low maintainability",
			Level: metric.LevelWarning,
			Description: fmt.Sprintf("maintainability index %.1f is below %.1f",
				r.MI, t.MinMaintainability),
		}, true
	},
}

// ApplyViolations checks every record of coll against the thresholds of
// cfg and replaces the record's violations with the result. A zero
// threshold disables its rule.
func (e *Engine) ApplyViolations(cfg *Config, coll *metric.Collection) error {
	if cfg == nil {
		return fmt.Errorf("applying violations: nil config")
	}
	if coll == nil {
		return fmt.Errorf("applying violations: nil collection")
	}
	out := e.output(cfg)

	total := 0
	for _, r := range coll.All() {
		r.Violations = nil
		for _, check := range rules {
			if v, ok := check(r, cfg.Thresholds); ok {
				r.Violations = append(r.Violations, v)
			}
		}
		total += len(r.Violations)
	}

	out.Info("violations detected", "violations", total)
	return nil
}
