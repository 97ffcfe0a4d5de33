package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"battlepass-backend/chain"
	"battlepass-backend/jobs"
	"battlepass-backend/models"
	"battlepass-backend/services"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ChainSyncWorker drains the job queue one job at a time and executes
// each against the chain through the single signing identity. Serial
// execution is a hard requirement, not tuning: transactions from one
// signer must be strictly nonce-ordered.
//
// Entity state is updated only after confirmation or rejection, never
// before submission. A job is consumed whether it succeeds or fails on
// chain; retry always requires a fresh domain-triggered enqueue.
type ChainSyncWorker struct {
	db     *gorm.DB
	log    *logrus.Logger
	jobs   *jobs.Dispatcher
	client chain.Client
	signer *chain.Signer
	events *chain.EventStream
	points *services.PointsService

	confirmTimeout time.Duration
}

func NewChainSyncWorker(db *gorm.DB, log *logrus.Logger, dispatcher *jobs.Dispatcher, client chain.Client, signer *chain.Signer, events *chain.EventStream, points *services.PointsService, confirmTimeout time.Duration) *ChainSyncWorker {
	if confirmTimeout <= 0 {
		confirmTimeout = 2 * time.Minute
	}
	return &ChainSyncWorker{
		db:             db,
		log:            log,
		jobs:           dispatcher,
		client:         client,
		signer:         signer,
		events:         events,
		points:         points,
		confirmTimeout: confirmTimeout,
	}
}

func (w *ChainSyncWorker) Run(ctx context.Context) {
	w.log.Infof("🔁 starting chain sync worker (signer=%s, concurrency=1)", w.signer.Address())
	for {
		job, ok := w.jobs.Next(ctx)
		if !ok {
			w.log.Info("⏹️ chain sync worker stopped")
			return
		}
		if err := w.execute(ctx, job); err != nil {
			w.log.Errorf("❌ [CHAIN] job %s failed: %v", job.IdempotencyKey, err)
		} else {
			w.log.Infof("✅ [CHAIN] job %s synced", job.IdempotencyKey)
		}
		w.jobs.Done(job.IdempotencyKey)
	}
}

func (w *ChainSyncWorker) execute(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case jobs.TypeClaimBattlepass:
		return w.claimBattlepass(ctx, job.Payload["participant_id"])
	case jobs.TypeSyncPoints:
		return w.syncPoints(ctx, job.Payload["battlepass_id"], job.Payload["identity_id"])
	case jobs.TypeClaimReward:
		return w.claimReward(ctx, job.Payload["claim_id"])
	case jobs.TypeCreateReward:
		return w.createReward(ctx, job.Payload["reward_id"])
	case jobs.TypeCreateLevels:
		return w.createLevels(ctx, job.Payload["battlepass_id"])
	default:
		return fmt.Errorf("unknown job type %q", job.Type)
	}
}

// submit signs the call, registers a confirmation waiter under the
// locally computed tx hash, then submits. Exactly one of the select
// arms fires per submission and the waiter is removed on every exit
// path. A missing confirmation within the timeout is a failure, not a
// hang.
func (w *ChainSyncWorker) submit(ctx context.Context, call string, args map[string]string, confirmation string) (chain.Event, error) {
	tx, err := w.signer.Sign(call, args)
	if err != nil {
		return chain.Event{}, err
	}

	wait, cancel := w.events.Register(tx.Hash)
	defer cancel()

	if err := w.client.Submit(ctx, tx); err != nil {
		return chain.Event{}, fmt.Errorf("submission of %s failed: %w", call, err)
	}

	timer := time.NewTimer(w.confirmTimeout)
	defer timer.Stop()

	select {
	case ev := <-wait:
		if ev.Error != "" {
			return ev, fmt.Errorf("%s rejected: %s", call, ev.Error)
		}
		if ev.Method != confirmation {
			return ev, fmt.Errorf("unexpected event %s.%s for %s", ev.Section, ev.Method, call)
		}
		return ev, nil
	case <-timer.C:
		return chain.Event{}, fmt.Errorf("no confirmation for %s (tx %s) within %s", call, tx.Hash, w.confirmTimeout)
	case <-ctx.Done():
		return chain.Event{}, ctx.Err()
	}
}

func (w *ChainSyncWorker) claimBattlepass(ctx context.Context, participantID string) error {
	var p models.Participant
	if err := w.db.First(&p, "id = ?", participantID).Error; err != nil {
		return fmt.Errorf("unknown participant %s: %w", participantID, err)
	}
	var bp models.Battlepass
	if err := w.db.First(&bp, "id = ?", p.BattlepassID).Error; err != nil {
		return fmt.Errorf("unknown battlepass %s: %w", p.BattlepassID, err)
	}

	ev, err := w.submit(ctx, "battlepass.claim_battlepass", map[string]string{
		"battlepass_id": bp.ChainID,
		"recipient":     p.IdentityID,
		"premium":       strconv.FormatBool(p.Premium),
	}, "BattlepassClaimed")
	if err != nil {
		// No pass was minted. Hand the participant back to its
		// pre-enqueue state so a deliberate re-issue can run again.
		prev := models.ParticipantStatusFree
		if p.Premium {
			prev = models.ParticipantStatusPendingPayment
		}
		if revertErr := w.db.Model(&p).Update("status", prev).Error; revertErr != nil {
			w.log.Errorf("❌ [CHAIN] failed to revert participant %s after rejected claim: %v", p.ID, revertErr)
		}
		return err
	}

	updates := map[string]interface{}{"status": models.ParticipantStatusClaimed}
	if nft, ok := ev.Data["nft_id"]; ok {
		updates["pass_chain_id"] = nft
	}
	return w.db.Model(&p).Updates(updates).Error
}

func (w *ChainSyncWorker) syncPoints(ctx context.Context, battlepassID, identityID string) error {
	var bp models.Battlepass
	if err := w.db.First(&bp, "id = ?", battlepassID).Error; err != nil {
		return fmt.Errorf("unknown battlepass %s: %w", battlepassID, err)
	}

	total, err := w.points.TotalPoints(bp.ID, identityID)
	if err != nil {
		return err
	}

	_, err = w.submit(ctx, "battlepass.set_points", map[string]string{
		"battlepass_id": bp.ChainID,
		"identity":      identityID,
		"points":        strconv.FormatInt(total, 10),
	}, "PointsUpdated")
	return err
}

func (w *ChainSyncWorker) claimReward(ctx context.Context, claimID string) error {
	var claim models.RewardClaim
	if err := w.db.First(&claim, "id = ?", claimID).Error; err != nil {
		return fmt.Errorf("unknown reward claim %s: %w", claimID, err)
	}
	var reward models.BattlepassReward
	if err := w.db.First(&reward, "id = ?", claim.RewardID).Error; err != nil {
		return fmt.Errorf("unknown reward %s: %w", claim.RewardID, err)
	}
	var p models.Participant
	if err := w.db.First(&p, "id = ?", claim.ParticipantID).Error; err != nil {
		return fmt.Errorf("unknown participant %s: %w", claim.ParticipantID, err)
	}

	collection := reward.ID
	if reward.CollectionChainID != nil {
		collection = *reward.CollectionChainID
	}

	ev, err := w.submit(ctx, "battlepass.claim_reward", map[string]string{
		"collection_id": collection,
		"recipient":     p.IdentityID,
	}, "RewardClaimed")
	if err != nil {
		if markErr := w.db.Model(&claim).Update("sync_status", models.SyncStatusFailed).Error; markErr != nil {
			w.log.Errorf("❌ [CHAIN] failed to mark claim %s failed: %v", claim.ID, markErr)
		}
		return err
	}

	updates := map[string]interface{}{"sync_status": models.SyncStatusSynced}
	if nft, ok := ev.Data["nft_id"]; ok {
		updates["nft_id"] = nft
	}
	return w.db.Model(&claim).Updates(updates).Error
}

func (w *ChainSyncWorker) createReward(ctx context.Context, rewardID string) error {
	var reward models.BattlepassReward
	if err := w.db.First(&reward, "id = ?", rewardID).Error; err != nil {
		return fmt.Errorf("unknown reward %s: %w", rewardID, err)
	}
	var bp models.Battlepass
	if err := w.db.First(&bp, "id = ?", reward.BattlepassID).Error; err != nil {
		return fmt.Errorf("unknown battlepass %s: %w", reward.BattlepassID, err)
	}

	ev, err := w.submit(ctx, "battlepass.create_reward", map[string]string{
		"battlepass_id": bp.ChainID,
		"cid":           reward.CID,
		"total":         strconv.Itoa(reward.Total),
		"premium":       strconv.FormatBool(reward.Premium),
	}, "RewardCreated")
	if err != nil {
		if markErr := w.db.Model(&reward).Update("sync_status", models.SyncStatusFailed).Error; markErr != nil {
			w.log.Errorf("❌ [CHAIN] failed to mark reward %s failed: %v", reward.ID, markErr)
		}
		return err
	}

	updates := map[string]interface{}{"sync_status": models.SyncStatusSynced}
	if collection, ok := ev.Data["collection_id"]; ok {
		updates["collection_chain_id"] = collection
	}
	return w.db.Model(&reward).Updates(updates).Error
}

func (w *ChainSyncWorker) createLevels(ctx context.Context, battlepassID string) error {
	var bp models.Battlepass
	if err := w.db.First(&bp, "id = ?", battlepassID).Error; err != nil {
		return fmt.Errorf("unknown battlepass %s: %w", battlepassID, err)
	}
	var levels []models.BattlepassLevel
	if err := w.db.Where("battlepass_id = ?", battlepassID).Order("level ASC").Find(&levels).Error; err != nil {
		return err
	}
	if len(levels) == 0 {
		return fmt.Errorf("battlepass %s has no levels to sync", battlepassID)
	}

	type levelEntry struct {
		Level  int   `json:"level"`
		Points int64 `json:"points"`
	}
	curve := make([]levelEntry, 0, len(levels))
	for _, l := range levels {
		curve = append(curve, levelEntry{Level: l.Level, Points: l.Points})
	}
	encoded, err := json.Marshal(curve)
	if err != nil {
		return fmt.Errorf("failed to encode level curve: %w", err)
	}

	_, err = w.submit(ctx, "battlepass.add_levels", map[string]string{
		"battlepass_id": bp.ChainID,
		"levels":        string(encoded),
	}, "LevelsAdded")

	status := models.SyncStatusSynced
	if err != nil {
		status = models.SyncStatusFailed
	}
	if updateErr := w.db.Model(&models.BattlepassLevel{}).
		Where("battlepass_id = ?", battlepassID).
		Update("sync_status", status).Error; updateErr != nil && err == nil {
		return updateErr
	}
	return err
}
