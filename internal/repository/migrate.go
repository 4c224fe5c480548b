package repository

import "gorm.io/gorm"

// AutoMigrate creates the schema for every row model this package owns.
// Refresh tokens live in the auth module and migrate themselves.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&userModel{},
		&postModel{},
		&imageAttachmentModel{},
		&imageVariantModel{},
	)
}
