package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	CategoryHappy      = "happy"
	CategorySad        = "sad"
	CategoryDepression = "depression"
	CategoryADHD       = "adhd"
	CategoryOther      = "other"
)

var Categories = []string{CategoryHappy, CategorySad, CategoryDepression, CategoryADHD, CategoryOther}

// Post is an anonymous story. CreatedBy is set once from the caller's token.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Article   string    `gorm:"type:text;not null" json:"article"`
	Category  string    `gorm:"size:16" json:"options"`
	Tags      []string  `gorm:"type:text;serializer:json" json:"tags"`
	CreatedBy uint      `gorm:"not null;index" json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AfterFind reports rows stored without tags as an empty list.
func (p *Post) AfterFind(*gorm.DB) error {
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return nil
}

// IsCategory reports whether v is a known category. Empty means uncategorized.
func IsCategory(v string) bool {
	if v == "" {
		return true
	}
	for _, c := range Categories {
		if c == v {
			return true
		}
	}
	return false
}
