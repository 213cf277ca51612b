package harness

import (
	"math"
	"reflect"
)

// valuesMatch compares an expected scenario value with an actual record
// value. Numbers match within Tolerance; slices and maps match element-wise.
func valuesMatch(want, got any) bool {
	if wf, ok := asNumber(want); ok {
		gf, ok := asNumber(got)
		if !ok {
			return false
		}
		if math.IsInf(wf, 0) || math.IsInf(gf, 0) {
			return wf == gf
		}
		return math.Abs(wf-gf) <= Tolerance
	}

	switch w := want.(type) {
	case []any:
		g, ok := got.([]any)
		if !ok || len(g) != len(w) {
			return false
		}
		for i := range w {
			if !valuesMatch(w[i], g[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		g, ok := got.(map[string]any)
		if !ok || len(g) != len(w) {
			return false
		}
		for k, wv := range w {
			gv, ok := g[k]
			if !ok || !valuesMatch(wv, gv) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(want, got)
}

func asNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}
