package cep

// Override is a data patch for a code with a documented incorrect upstream
// mapping. Applied after normal resolution, never as a general rule.
type Override struct {
	City         string
	State        string
	DeliveryZone string
}

// defaultOverrides ships empty; add entries only for specific codes whose
// upstream data is verifiably wrong.
var defaultOverrides = map[string]Override{}

func applyOverride(overrides map[string]Override, result *Result) {
	if result == nil {
		return
	}
	patch, ok := overrides[result.Cep]
	if !ok {
		return
	}
	if patch.City != "" {
		result.City = patch.City
	}
	if patch.State != "" {
		result.State = patch.State
	}
	if patch.DeliveryZone != "" {
		result.DeliveryZone = patch.DeliveryZone
	}
}
