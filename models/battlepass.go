package models

import (
	"time"

	"gorm.io/gorm"
)

// Battlepass is one seasonal reward program scoped to an organization.
// Active and Finalized are intentionally separate: a battlepass whose
// season ended stays `active=false, finalized=false` until the matching
// engine has run one terminal reconciliation pass over it.
type Battlepass struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	ChainID string `gorm:"uniqueIndex;not null" json:"chain_id"` // on-chain collection id
	OrgID   string `gorm:"index;not null" json:"org_id"`         // guild/org the season belongs to
	Name    string `json:"name"`

	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"` // set exactly when Active flips to false

	Active    bool `gorm:"default:true;index" json:"active"`
	Finalized bool `gorm:"default:false" json:"finalized"`
	Joinable  bool `gorm:"default:true" json:"joinable"`

	FreePasses     int `gorm:"default:0" json:"free_passes"`
	FreeClaimed    int `gorm:"default:0" json:"free_claimed"`
	PremiumPasses  int `gorm:"default:0" json:"premium_passes"`
	PremiumClaimed int `gorm:"default:0" json:"premium_claimed"`
	TotalJoined    int `gorm:"default:0" json:"total_joined"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
