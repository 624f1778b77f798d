package forum

import (
	"context"

	"gorm.io/gorm"

	"github.com/stufor/stufor/models"
)

// SeedCategories inserts the six fixed boards on first boot. Existing rows are
// left untouched.
func SeedCategories(ctx context.Context, db *gorm.DB) error {
	for _, name := range models.CategoryNames {
		var count int64
		if err := db.WithContext(ctx).Model(&models.Category{}).
			Where("name = ?", name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		cat := models.Category{Name: name, Description: models.CategoryDescriptions[name]}
		if err := db.WithContext(ctx).Create(&cat).Error; err != nil {
			return err
		}
	}
	return nil
}

// GrantAdmins sets the admin flag for the configured usernames. Unknown names
// are skipped; they may simply not have signed up yet.
func GrantAdmins(ctx context.Context, db *gorm.DB, usernames []string) error {
	for _, name := range usernames {
		if err := db.WithContext(ctx).Model(&models.User{}).
			Where("username = ?", name).
			UpdateColumn("is_admin", true).Error; err != nil {
			return err
		}
	}
	return nil
}
