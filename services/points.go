package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// IdentityPoints is one leaderboard row
type IdentityPoints struct {
	IdentityID string `json:"identity_id"`
	Points     int64  `json:"points"`
}

// PointsService is a read-only projection over the completion ledger.
// It never writes; point totals are always derived by summing the
// owning quest's points per completion row.
type PointsService struct {
	DB *gorm.DB
}

func NewPointsService(db *gorm.DB) *PointsService {
	return &PointsService{DB: db}
}

// TotalPoints sums every completion of one identity within one battlepass
func (s *PointsService) TotalPoints(battlepassID, identityID string) (int64, error) {
	var total int64
	err := s.DB.Raw(`
		SELECT COALESCE(SUM(q.points), 0)
		FROM completed_quests cq
		INNER JOIN quests q ON q.id = cq.quest_id
		WHERE q.battlepass_id = ? AND cq.identity_id = ?
	`, battlepassID, identityID).Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum points for %s: %w", identityID, err)
	}
	return total, nil
}

// Leaderboard returns per-identity totals for a battlepass, highest
// first. When since is set, the cutoff keys on the newest completion
// per identity: an identity with any completion after the cutoff is
// included with its full total, not just its post-cutoff rows.
//
// Completion rows are stamped at the earned day's UTC midnight, so the
// cutoff is effectively day-granular: an intraday since value behaves
// like the start of that calendar day.
func (s *PointsService) Leaderboard(battlepassID string, since *time.Time) ([]IdentityPoints, error) {
	query := `
		SELECT cq.identity_id, SUM(q.points) AS points
		FROM completed_quests cq
		INNER JOIN quests q ON q.id = cq.quest_id
		WHERE q.battlepass_id = ?
		GROUP BY cq.identity_id`
	args := []interface{}{battlepassID}

	if since != nil {
		query += ` HAVING MAX(cq.created_at) >= ?`
		args = append(args, since.UTC())
	}
	query += ` ORDER BY points DESC`

	var entries []IdentityPoints
	if err := s.DB.Raw(query, args...).Scan(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to build leaderboard: %w", err)
	}
	return entries, nil
}
