package models

import "time"

// ShareHistory is an append-only log entry recording that a profile's data was
// shared with some party. The API only reads these rows; they are written by
// external tooling (see scripts/seed_share_history). ProfileID is a plain
// reference without a cascade, so entries survive profile deletion.
type ShareHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	ProfileID    string    `gorm:"column:profile_id;size:36;index;not null" json:"profileId"`
	SharedWith   string    `gorm:"column:shared_with;size:255;not null" json:"sharedWith"`
	Purpose      string    `gorm:"column:purpose;size:255" json:"purpose"`
	SharedFields string    `gorm:"column:shared_fields;size:512" json:"sharedFields"`
	SharedAt     time.Time `gorm:"column:shared_at;not null" json:"sharedAt"`
}
