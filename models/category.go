package models

// Category is one of the six fixed discussion boards. Threads reference a
// category by name, not by id.
type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:32;uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

// CategoryNames is the fixed membership; thread creation rejects anything else.
var CategoryNames = []string{
	"General Discussion",
	"Doubt Solving",
	"Consultation",
	"Resources",
	"Support",
	"Miscellaneous",
}

// CategoryDescriptions seeds the boards table on first boot.
var CategoryDescriptions = map[string]string{
	"General Discussion": "A place for topics which are not strictly specific to a single category.",
	"Doubt Solving":      "Stuck somewhere? Use this board to clear your doubts!",
	"Consultation":       "Get advice from other users. Career advice, financial advice, ask it out here!",
	"Resources":          "Looking for resources to back you up? Ask it out here!",
	"Support":            "Having problems with the site? Report right here.",
	"Miscellaneous":      "Not sure which category your topic belongs to? Add it here!",
}

// ValidCategory reports whether name is part of the fixed set.
func ValidCategory(name string) bool {
	for _, c := range CategoryNames {
		if c == name {
			return true
		}
	}
	return false
}
