package domain

// FeatureSet is the enriched, read-only view of one application: every raw
// applicant and loan field plus the derived ratios and buckets, keyed by
// feature name. Values are float64, bool, or string. It is created once per
// request by the feature deriver and discarded when the request completes.
type FeatureSet map[string]any

// Number returns the named feature coerced to float64. Booleans map to
// 1/0; missing or non-numeric features return 0.
func (f FeatureSet) Number(name string) float64 {
	switch v := f[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// Bool returns the named feature as a bool, false when missing or not a
// bool.
func (f FeatureSet) Bool(name string) bool {
	v, _ := f[name].(bool)
	return v
}

// String returns the named feature as a string, "" when missing.
func (f FeatureSet) String(name string) string {
	v, _ := f[name].(string)
	return v
}
