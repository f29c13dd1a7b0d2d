package enums

import "fmt"

// ItemRarity maps to the item_rarity_enum enum in Postgres.
type ItemRarity string

const (
	ItemRarityCommon    ItemRarity = "common"
	ItemRarityUncommon  ItemRarity = "uncommon"
	ItemRarityRare      ItemRarity = "rare"
	ItemRarityEpic      ItemRarity = "epic"
	ItemRarityLegendary ItemRarity = "legendary"
)

var validItemRarities = []ItemRarity{
	ItemRarityCommon,
	ItemRarityUncommon,
	ItemRarityRare,
	ItemRarityEpic,
	ItemRarityLegendary,
}

// IsValid reports whether the value matches the canonical rarity enum.
func (r ItemRarity) IsValid() bool {
	for _, candidate := range validItemRarities {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseItemRarity converts raw input into ItemRarity.
func ParseItemRarity(value string) (ItemRarity, error) {
	for _, candidate := range validItemRarities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item rarity %q", value)
}
