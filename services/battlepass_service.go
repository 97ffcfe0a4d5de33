package services

import (
	"errors"
	"fmt"
	"time"

	"battlepass-backend/jobs"
	"battlepass-backend/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrNotJoinable       = errors.New("battlepass is not joinable")
	ErrAlreadyJoined     = errors.New("identity already joined this battlepass")
	ErrClaimInFlight     = errors.New("reward claim already pending or synced")
	ErrRewardUnavailable = errors.New("reward has no supply left")
)

// JobQueue is the slice of the dispatcher this service needs: hand
// over a job, learn whether it was accepted.
type JobQueue interface {
	Enqueue(job jobs.Job) error
}

// BattlepassService owns the domain mutations around seasons,
// participants and claims. Anything that must reach the chain goes
// through the job queue; entity state is never updated optimistically
// for chain outcomes, and the pending marker is always committed
// before the job becomes visible to the sync worker.
type BattlepassService struct {
	DB   *gorm.DB
	Log  *logrus.Logger
	Jobs JobQueue
}

func NewBattlepassService(db *gorm.DB, log *logrus.Logger, queue JobQueue) *BattlepassService {
	return &BattlepassService{DB: db, Log: log, Jobs: queue}
}

// CreateBattlepass opens a new season. The chain-side collection is
// created out of band; ChainID references it.
func (s *BattlepassService) CreateBattlepass(chainID, orgID, name string, start time.Time, freePasses, premiumPasses int) (*models.Battlepass, error) {
	bp := &models.Battlepass{
		ID:            uuid.NewString(),
		ChainID:       chainID,
		OrgID:         orgID,
		Name:          name,
		StartDate:     start.UTC(),
		Active:        true,
		Joinable:      true,
		FreePasses:    freePasses,
		PremiumPasses: premiumPasses,
	}
	if err := s.DB.Create(bp).Error; err != nil {
		return nil, fmt.Errorf("failed to create battlepass: %w", err)
	}
	s.Log.Infof("🎫 battlepass %s created for org %s", chainID, orgID)
	return bp, nil
}

// CloseBattlepass ends the season: Active flips to false and EndDate
// is stamped in the same write. Finalization stays with the matching
// engine's terminal pass.
func (s *BattlepassService) CloseBattlepass(battlepassID string) error {
	now := time.Now().UTC()
	res := s.DB.Model(&models.Battlepass{}).
		Where("id = ? AND active = ?", battlepassID, true).
		Updates(map[string]interface{}{
			"active":   false,
			"joinable": false,
			"end_date": now,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to close battlepass: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("battlepass %s is not active", battlepassID)
	}
	return nil
}

// JoinBattlepass registers an identity for a season. A free pass is
// consumed when one is left, otherwise the participant waits in
// pendingPayment until PaymentReceived.
func (s *BattlepassService) JoinBattlepass(battlepassID, identityID string) (*models.Participant, error) {
	var participant *models.Participant
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var bp models.Battlepass
		if err := tx.First(&bp, "id = ?", battlepassID).Error; err != nil {
			return err
		}
		if !bp.Active || !bp.Joinable {
			return ErrNotJoinable
		}

		var existing models.Participant
		err := tx.Where("battlepass_id = ? AND identity_id = ?", battlepassID, identityID).First(&existing).Error
		if err == nil {
			return ErrAlreadyJoined
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// A consumed free pass goes straight to pending inside this
		// transaction: the claim job must never become visible to the
		// sync worker before the pending marker is committed.
		p := models.Participant{
			ID:           uuid.NewString(),
			BattlepassID: battlepassID,
			IdentityID:   identityID,
			Status:       models.ParticipantStatusPending,
		}
		bp.TotalJoined++
		if bp.FreeClaimed < bp.FreePasses {
			bp.FreeClaimed++
		} else {
			p.Status = models.ParticipantStatusPendingPayment
		}

		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		if err := tx.Save(&bp).Error; err != nil {
			return err
		}
		participant = &p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if participant.Status == models.ParticipantStatusPending {
		if err := s.enqueuePassClaim(participant, models.ParticipantStatusFree); err != nil {
			return nil, err
		}
	}
	s.Log.Infof("👤 identity %s joined battlepass %s (status=%s)", identityID, battlepassID, participant.Status)
	return participant, nil
}

// PaymentReceived upgrades a pendingPayment participant to premium and
// enqueues the pass claim.
func (s *BattlepassService) PaymentReceived(participantID string) (*models.Participant, error) {
	var p models.Participant
	if err := s.DB.First(&p, "id = ?", participantID).Error; err != nil {
		return nil, err
	}
	if p.Status != models.ParticipantStatusPendingPayment {
		return nil, fmt.Errorf("participant %s is not awaiting payment (status=%s)", participantID, p.Status)
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&p).Updates(map[string]interface{}{
			"premium": true,
			"status":  models.ParticipantStatusPending,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Battlepass{}).
			Where("id = ?", p.BattlepassID).
			Update("premium_claimed", gorm.Expr("premium_claimed + 1")).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record payment for %s: %w", participantID, err)
	}
	p.Premium = true
	p.Status = models.ParticipantStatusPending

	if err := s.enqueuePassClaim(&p, models.ParticipantStatusPendingPayment); err != nil {
		return nil, err
	}
	return &p, nil
}

// enqueuePassClaim hands an already-pending participant's claim to the
// chain queue. The pending marker was committed by the caller, so by
// the time the sync worker can see the job no later write from this
// side can race its confirmation. A full queue means no job exists:
// the participant is handed back to revertTo so the claim can be
// re-issued.
func (s *BattlepassService) enqueuePassClaim(p *models.Participant, revertTo models.ParticipantStatus) error {
	if err := s.Jobs.Enqueue(jobs.ClaimBattlepassJob(p.ID)); err != nil {
		if revertErr := s.DB.Model(&models.Participant{}).Where("id = ?", p.ID).
			Update("status", revertTo).Error; revertErr != nil {
			s.Log.Errorf("❌ failed to revert participant %s after dropped claim job: %v", p.ID, revertErr)
		} else {
			p.Status = revertTo
		}
		return fmt.Errorf("failed to schedule pass claim for %s: %w", p.ID, err)
	}
	return nil
}

// ClaimReward creates (or revives) the claim row for one participant
// and reward and enqueues the chain claim. Double claims are rejected
// here, before any job exists; only a failed claim may be re-issued,
// and it re-uses the same row and idempotency key.
func (s *BattlepassService) ClaimReward(participantID, rewardID string) (*models.RewardClaim, error) {
	var claim *models.RewardClaim
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var p models.Participant
		if err := tx.First(&p, "id = ?", participantID).Error; err != nil {
			return fmt.Errorf("unknown participant %s: %w", participantID, err)
		}
		var reward models.BattlepassReward
		if err := tx.First(&reward, "id = ?", rewardID).Error; err != nil {
			return fmt.Errorf("unknown reward %s: %w", rewardID, err)
		}
		if reward.BattlepassID != p.BattlepassID {
			return fmt.Errorf("reward %s does not belong to participant's battlepass", rewardID)
		}

		var existing models.RewardClaim
		err := tx.Where("participant_id = ? AND reward_id = ?", participantID, rewardID).First(&existing).Error
		switch {
		case err == nil:
			if existing.SyncStatus != models.SyncStatusFailed {
				return ErrClaimInFlight
			}
			existing.SyncStatus = models.SyncStatusPending
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			claim = &existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			if reward.Available <= 0 {
				return ErrRewardUnavailable
			}
			reward.Available--
			if err := tx.Save(&reward).Error; err != nil {
				return err
			}
			c := models.RewardClaim{
				ID:            uuid.NewString(),
				ParticipantID: participantID,
				RewardID:      rewardID,
				SyncStatus:    models.SyncStatusPending,
			}
			if err := tx.Create(&c).Error; err != nil {
				return err
			}
			claim = &c
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	if err := s.Jobs.Enqueue(jobs.ClaimRewardJob(claim.ID)); err != nil {
		// No job exists for this claim. Park it as failed so the
		// normal re-claim path can re-issue it later.
		if markErr := s.DB.Model(&models.RewardClaim{}).Where("id = ?", claim.ID).
			Update("sync_status", models.SyncStatusFailed).Error; markErr != nil {
			s.Log.Errorf("❌ failed to mark claim %s after dropped job: %v", claim.ID, markErr)
		}
		return nil, fmt.Errorf("failed to schedule reward claim %s: %w", claim.ID, err)
	}
	return claim, nil
}

// LevelInput is one authored level definition
type LevelInput struct {
	Level  int    `json:"level"`
	Name   string `json:"name"`
	Points int64  `json:"points"`
}

// CreateLevels authors the season's level curve and schedules one
// chain job covering all of it.
func (s *BattlepassService) CreateLevels(battlepassID string, inputs []LevelInput) ([]models.BattlepassLevel, error) {
	if len(inputs) == 0 {
		return nil, errors.New("no levels supplied")
	}
	levels := make([]models.BattlepassLevel, 0, len(inputs))
	for _, in := range inputs {
		levels = append(levels, models.BattlepassLevel{
			ID:           uuid.NewString(),
			BattlepassID: battlepassID,
			Level:        in.Level,
			Name:         in.Name,
			Points:       in.Points,
			SyncStatus:   models.SyncStatusPending,
		})
	}
	if err := s.DB.Create(&levels).Error; err != nil {
		return nil, fmt.Errorf("failed to create levels: %w", err)
	}

	if err := s.Jobs.Enqueue(jobs.CreateLevelsJob(battlepassID)); err != nil {
		if markErr := s.DB.Model(&models.BattlepassLevel{}).
			Where("battlepass_id = ?", battlepassID).
			Update("sync_status", models.SyncStatusFailed).Error; markErr != nil {
			s.Log.Errorf("❌ failed to mark levels of %s after dropped job: %v", battlepassID, markErr)
		}
		return nil, fmt.Errorf("failed to schedule level sync for %s: %w", battlepassID, err)
	}
	return levels, nil
}

// CreateReward authors a reward and schedules its chain collection
func (s *BattlepassService) CreateReward(battlepassID, name, cid string, total int, level *int, premium bool) (*models.BattlepassReward, error) {
	reward := &models.BattlepassReward{
		ID:           uuid.NewString(),
		BattlepassID: battlepassID,
		Name:         name,
		CID:          cid,
		Total:        total,
		Available:    total,
		Level:        level,
		Premium:      premium,
		SyncStatus:   models.SyncStatusPending,
	}
	if err := s.DB.Create(reward).Error; err != nil {
		return nil, fmt.Errorf("failed to create reward: %w", err)
	}

	if err := s.Jobs.Enqueue(jobs.CreateRewardJob(reward.ID)); err != nil {
		if markErr := s.DB.Model(&models.BattlepassReward{}).Where("id = ?", reward.ID).
			Update("sync_status", models.SyncStatusFailed).Error; markErr != nil {
			s.Log.Errorf("❌ failed to mark reward %s after dropped job: %v", reward.ID, markErr)
		}
		return nil, fmt.Errorf("failed to schedule reward sync for %s: %w", reward.ID, err)
	}
	return reward, nil
}

// SyncPoints pushes one identity's current point total to the chain
func (s *BattlepassService) SyncPoints(battlepassID, identityID string) error {
	var bp models.Battlepass
	if err := s.DB.First(&bp, "id = ?", battlepassID).Error; err != nil {
		return err
	}
	if err := s.Jobs.Enqueue(jobs.SyncPointsJob(bp.ChainID, bp.ID, identityID)); err != nil {
		return fmt.Errorf("failed to schedule points sync for %s: %w", identityID, err)
	}
	return nil
}
