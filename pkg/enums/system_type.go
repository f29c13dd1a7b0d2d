package enums

import "fmt"

// SystemType maps to the point_system_type_enum enum in Postgres.
type SystemType string

const (
	SystemTypeDKP         SystemType = "dkp"
	SystemTypeEPGP        SystemType = "epgp"
	SystemTypeLootCouncil SystemType = "loot_council"
)

var validSystemTypes = []SystemType{
	SystemTypeDKP,
	SystemTypeEPGP,
	SystemTypeLootCouncil,
}

// IsValid reports whether the value matches the canonical system type enum.
func (t SystemType) IsValid() bool {
	for _, candidate := range validSystemTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseSystemType converts raw input into SystemType.
func ParseSystemType(value string) (SystemType, error) {
	for _, candidate := range validSystemTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid system type %q", value)
}
