package rating

// Tier is a cosmetic label derived from rating thresholds. It has no
// gameplay effect.
type Tier string

const (
	TierChampion Tier = "Champion"
	TierDiamond  Tier = "Diamond"
	TierGold     Tier = "Gold"
	TierSilver   Tier = "Silver"
	TierBronze   Tier = "Bronze"
)

// TierFor maps a rating to its presentation tier.
func TierFor(value int) Tier {
	switch {
	case value >= 1800:
		return TierChampion
	case value >= 1500:
		return TierDiamond
	case value >= 1300:
		return TierGold
	case value >= 1100:
		return TierSilver
	default:
		return TierBronze
	}
}
