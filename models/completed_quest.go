package models

import "time"

// CompletedQuest is one earned unit of a quest by one identity.
// Rows are append-only: the matching engine is the only writer and
// nothing ever updates or deletes them.
type CompletedQuest struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	QuestID    string    `gorm:"index;not null" json:"quest_id"`
	IdentityID string    `gorm:"index;not null" json:"identity_id"`
	GuildID    string    `gorm:"not null" json:"guild_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
