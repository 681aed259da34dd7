package enums

import "fmt"

// DeliveryZoneType identifies how a delivery restriction zone is expressed.
type DeliveryZoneType string

const (
	DeliveryZoneTypeCepRange    DeliveryZoneType = "cep_range"
	DeliveryZoneTypeCepSpecific DeliveryZoneType = "cep_specific"
	DeliveryZoneTypeIBGE        DeliveryZoneType = "ibge"
	DeliveryZoneTypeCity        DeliveryZoneType = "cidade"
)

var validDeliveryZoneTypes = []DeliveryZoneType{
	DeliveryZoneTypeCepRange,
	DeliveryZoneTypeCepSpecific,
	DeliveryZoneTypeIBGE,
	DeliveryZoneTypeCity,
}

// IsValid reports whether the value is known.
func (d DeliveryZoneType) IsValid() bool {
	for _, candidate := range validDeliveryZoneTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// DeliveryRestrictionType describes how a matching zone affects delivery.
type DeliveryRestrictionType string

const (
	DeliveryRestrictionNotDelivered    DeliveryRestrictionType = "not_delivered"
	DeliveryRestrictionFreightOnDemand DeliveryRestrictionType = "freight_on_demand"
	DeliveryRestrictionHigherFee       DeliveryRestrictionType = "higher_fee"
)

var validDeliveryRestrictionTypes = []DeliveryRestrictionType{
	DeliveryRestrictionNotDelivered,
	DeliveryRestrictionFreightOnDemand,
	DeliveryRestrictionHigherFee,
}

// IsValid reports whether the value is known.
func (d DeliveryRestrictionType) IsValid() bool {
	for _, candidate := range validDeliveryRestrictionTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeliveryRestrictionType converts raw input into a DeliveryRestrictionType.
func ParseDeliveryRestrictionType(value string) (DeliveryRestrictionType, error) {
	for _, candidate := range validDeliveryRestrictionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery restriction type %q", value)
}
