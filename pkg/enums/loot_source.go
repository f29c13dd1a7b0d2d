package enums

import "fmt"

// LootSourceType maps to the loot_source_type_enum enum in Postgres.
type LootSourceType string

const (
	LootSourceBoss    LootSourceType = "boss"
	LootSourceTrash   LootSourceType = "trash"
	LootSourceQuest   LootSourceType = "quest"
	LootSourceCrafted LootSourceType = "crafted"
	LootSourceOther   LootSourceType = "other"
)

var validLootSourceTypes = []LootSourceType{
	LootSourceBoss,
	LootSourceTrash,
	LootSourceQuest,
	LootSourceCrafted,
	LootSourceOther,
}

// IsValid reports whether the value matches the canonical source enum.
func (s LootSourceType) IsValid() bool {
	for _, candidate := range validLootSourceTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseLootSourceType converts raw input into LootSourceType.
func ParseLootSourceType(value string) (LootSourceType, error) {
	for _, candidate := range validLootSourceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid loot source type %q", value)
}
