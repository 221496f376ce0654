package db

import (
	"testing"

	"rockspotter/models"
)

func TestDefaultAchievementsAreValid(t *testing.T) {
	names := make(map[string]bool)
	for _, a := range DefaultAchievements {
		if names[a.Name] {
			t.Errorf("Duplicate achievement name %q", a.Name)
		}
		names[a.Name] = true
		if err := a.Criteria.Validate(); err != nil {
			t.Errorf("%s: %v", a.Name, err)
		}
		if !models.ValidAchievementType(a.Type) {
			t.Errorf("%s: unknown type %q", a.Name, a.Type)
		}
		if !models.ValidRarity(a.Rarity) {
			t.Errorf("%s: unknown rarity %q", a.Name, a.Rarity)
		}
	}
}

func TestExtractDBName(t *testing.T) {
	cases := map[string]string{
		"mongodb://localhost:27017/rocks":        "rocks",
		"mongodb://localhost:27017":              "rockspotter",
		"mongodb+srv://u:p@cluster.example.net/": "rockspotter",
	}
	for uri, want := range cases {
		if got := extractDBName(uri); got != want {
			t.Errorf("extractDBName(%q): expected %s, got %s", uri, want, got)
		}
	}
}

func TestIndexModelsCoverAwardsUniqueness(t *testing.T) {
	indexes := indexModels()[AwardsCollection]
	if len(indexes) != 1 || indexes[0].Options == nil || indexes[0].Options.Unique == nil || !*indexes[0].Options.Unique {
		t.Errorf("Expected a unique (userId, achievementId) index on awards")
	}
}
