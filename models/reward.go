package models

// SyncStatus reflects how far an entity has propagated to the chain
type SyncStatus string

const (
	SyncStatusPending SyncStatus = "pending"
	SyncStatusSynced  SyncStatus = "synced"
	SyncStatusFailed  SyncStatus = "failed"
)

// BattlepassReward is an authored reward (NFT collection) of a season
type BattlepassReward struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	BattlepassID string `gorm:"index;not null" json:"battlepass_id"`
	Name         string `gorm:"not null" json:"name"`
	CID          string `json:"cid"` // IPFS metadata pointer
	Total        int    `gorm:"not null" json:"total"`
	Available    int    `gorm:"not null" json:"available"`
	Level        *int   `json:"level,omitempty"` // minimum level to claim, nil = any
	Premium      bool   `gorm:"default:false" json:"premium"`

	SyncStatus        SyncStatus `gorm:"not null;default:'pending'" json:"sync_status"`
	CollectionChainID *string    `json:"collection_chain_id,omitempty"`

	Timestamps
}

// RewardClaim is one participant's redemption of one reward. The
// (participant, reward) pair is unique: a failed claim is re-claimed
// through a fresh job under the same row, never a second row.
type RewardClaim struct {
	ID            string     `gorm:"primaryKey;type:uuid" json:"id"`
	ParticipantID string     `gorm:"uniqueIndex:idx_claim_participant_reward;not null" json:"participant_id"`
	RewardID      string     `gorm:"uniqueIndex:idx_claim_participant_reward;not null" json:"reward_id"`
	SyncStatus    SyncStatus `gorm:"not null;default:'pending'" json:"sync_status"`
	NftID         *string    `json:"nft_id,omitempty"`

	Timestamps
}
