package models

import "time"

// Country is a destination offered in the catalog. IDs are stable small
// integers assigned by the seed data, not generated.
type Country struct {
	ID        int       `gorm:"column:id;primaryKey"`
	Name      string    `gorm:"column:name;type:text;not null;uniqueIndex"`
	Flag      string    `gorm:"column:flag;type:text;not null"`
	Region    *string   `gorm:"column:region;type:text"`
	Plans     []Plan    `gorm:"foreignKey:CountryID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
