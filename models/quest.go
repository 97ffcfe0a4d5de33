package models

// QuestSource identifies the platform an activity originates from
type QuestSource string

const (
	QuestSourceDiscord QuestSource = "discord"
	QuestSourceTwitter QuestSource = "twitter"
	QuestSourceGamedao QuestSource = "gamedao"
)

// Quest is a point-earning rule inside one battlepass.
//
// ChannelID == nil makes it a "general" quest: it is evaluated against
// the aggregate activity of an identity across all channels of a guild
// on a calendar day. Repeat == false means completable at most once
// ever; Repeat == true means completable up to MaxDaily units per day.
type Quest struct {
	ID           string      `gorm:"primaryKey;type:uuid" json:"id"`
	BattlepassID string      `gorm:"index;not null" json:"battlepass_id"`
	Source       QuestSource `gorm:"not null;default:'discord'" json:"source"`
	Type         string      `gorm:"not null" json:"type"` // post, reaction, connect, join, like, retweet, follow, comment
	ChannelID    *string     `gorm:"index" json:"channel_id,omitempty"`

	Repeat   bool  `gorm:"default:false" json:"repeat"`
	Quantity int   `gorm:"not null;default:1" json:"quantity"` // raw actions per completion unit
	Points   int64 `gorm:"not null" json:"points"`
	MaxDaily *int  `json:"max_daily,omitempty"`

	// Twitter-sourced quests carry their own matching hints
	Hashtag   *string `json:"hashtag,omitempty"`
	TwitterID *string `json:"twitter_id,omitempty"`

	Timestamps
}
