package models

import "time"

// ActivityEvent is one raw interaction recorded by an ingestion
// adapter (discord bot, twitter poller). Rows are append-only and
// pre-filtered to quest-relevant activity types before they land here.
type ActivityEvent struct {
	ID           string    `gorm:"primaryKey;type:uuid" json:"id"`
	IdentityID   string    `gorm:"index;not null" json:"identity_id"`
	GuildID      string    `gorm:"index;not null" json:"guild_id"`
	ChannelID    *string   `gorm:"index" json:"channel_id,omitempty"`
	ActivityType string    `gorm:"not null" json:"activity_type"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
