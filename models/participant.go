package models

// ParticipantStatus tracks the pass-claim lifecycle of a member.
// free → pendingPayment (no free pass left) → pending (claim job
// enqueued) → claimed (chain confirmation observed).
type ParticipantStatus string

const (
	ParticipantStatusFree           ParticipantStatus = "free"
	ParticipantStatusPendingPayment ParticipantStatus = "pendingPayment"
	ParticipantStatusPending        ParticipantStatus = "pending"
	ParticipantStatusClaimed        ParticipantStatus = "claimed"
)

// Participant is one identity's membership in one battlepass
type Participant struct {
	ID           string            `gorm:"primaryKey;type:uuid" json:"id"`
	BattlepassID string            `gorm:"uniqueIndex:idx_participant_pass_identity;not null" json:"battlepass_id"`
	IdentityID   string            `gorm:"uniqueIndex:idx_participant_pass_identity;not null" json:"identity_id"`
	Premium      bool              `gorm:"default:false" json:"premium"`
	Status       ParticipantStatus `gorm:"not null;default:'free'" json:"status"`
	PassChainID  *string           `json:"pass_chain_id,omitempty"` // NFT id minted on claim

	Timestamps
}
