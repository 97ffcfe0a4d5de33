package models

// BattlepassLevel defines the points threshold for one level of a season
type BattlepassLevel struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	BattlepassID string `gorm:"index;not null" json:"battlepass_id"`
	Level        int    `gorm:"not null" json:"level"`
	Name         string `json:"name"`
	Points       int64  `gorm:"not null" json:"points"` // total points required to reach this level

	SyncStatus SyncStatus `gorm:"not null;default:'pending'" json:"sync_status"`

	Timestamps
}
