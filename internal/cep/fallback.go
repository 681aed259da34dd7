package cep

// RegionalEntry maps a code or regional prefix to a coarse location.
type RegionalEntry struct {
	City         string
	State        string
	DeliveryZone string
}

// FallbackTable resolves codes the upstream APIs could not. Exact-code
// entries win over regional ones; the regional key is the code's first five
// digits padded with "000".
type FallbackTable struct {
	exact    map[string]RegionalEntry
	regional map[string]RegionalEntry
}

// NewFallbackTable builds the static table.
func NewFallbackTable() *FallbackTable {
	return &FallbackTable{
		exact: map[string]RegionalEntry{
			"39685000": {City: "Virgolândia", State: "MG", DeliveryZone: "interior"},
		},
		regional: map[string]RegionalEntry{
			"01000000": {City: "São Paulo", State: "SP", DeliveryZone: "capital"},
			"20000000": {City: "Rio de Janeiro", State: "RJ", DeliveryZone: "capital"},
			"30000000": {City: "Belo Horizonte", State: "MG", DeliveryZone: "capital"},
			"40000000": {City: "Salvador", State: "BA", DeliveryZone: "capital"},
			"60000000": {City: "Fortaleza", State: "CE", DeliveryZone: "capital"},
			"70000000": {City: "Brasília", State: "DF", DeliveryZone: "capital"},
			"80000000": {City: "Curitiba", State: "PR", DeliveryZone: "capital"},
			"90000000": {City: "Porto Alegre", State: "RS", DeliveryZone: "capital"},
		},
	}
}

// Resolve returns the fallback entry for a normalized code, if any.
func (t *FallbackTable) Resolve(code string) (*RegionalEntry, bool) {
	if len(code) != 8 {
		return nil, false
	}
	if entry, ok := t.exact[code]; ok {
		return &entry, true
	}
	if entry, ok := t.regional[code[:5]+"000"]; ok {
		return &entry, true
	}
	return nil, false
}
