package services

import (
	"context"
	"testing"
	"time"

	"battlepass-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedBattlepass(t *testing.T, db *gorm.DB, start time.Time) *models.Battlepass {
	t.Helper()
	bp := &models.Battlepass{
		ID:        uuid.NewString(),
		ChainID:   "bp-" + uuid.NewString()[:8],
		OrgID:     "guild-1",
		StartDate: start,
		Active:    true,
		Joinable:  true,
	}
	require.NoError(t, db.Create(bp).Error)
	return bp
}

func seedParticipant(t *testing.T, db *gorm.DB, bp *models.Battlepass, identityID string) {
	t.Helper()
	require.NoError(t, db.Create(&models.Participant{
		ID:           uuid.NewString(),
		BattlepassID: bp.ID,
		IdentityID:   identityID,
		Status:       models.ParticipantStatusFree,
	}).Error)
}

func seedActivity(t *testing.T, db *gorm.DB, identityID, guildID string, channelID *string, at time.Time, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, db.Create(&models.ActivityEvent{
			ID:           uuid.NewString(),
			IdentityID:   identityID,
			GuildID:      guildID,
			ChannelID:    channelID,
			ActivityType: "post",
			CreatedAt:    at.Add(time.Duration(i) * time.Minute),
		}).Error)
	}
}

func completionCount(t *testing.T, db *gorm.DB, questID, identityID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.CompletedQuest{}).
		Where("quest_id = ? AND identity_id = ?", questID, identityID).
		Count(&n).Error)
	return n
}

// A general one-shot quest completes once no matter how many channels
// the activity is spread over, and a re-run adds nothing.
func TestReconcileOneShotGeneralQuest(t *testing.T) {
	db := newTestDB(t)
	svc := NewMatchingService(db, newTestLogger())
	start := time.Now().UTC().Add(-48 * time.Hour)

	bp := seedBattlepass(t, db, start)
	seedParticipant(t, db, bp, "alice")

	quest := models.Quest{
		ID:           uuid.NewString(),
		BattlepassID: bp.ID,
		Source:       models.QuestSourceDiscord,
		Type:         "post",
		Quantity:     2,
		Points:       1000,
	}
	require.NoError(t, db.Create(&quest).Error)

	at := time.Now().UTC().Add(-2 * time.Hour)
	seedActivity(t, db, "alice", "guild-1", ptr("c1"), at, 2)
	seedActivity(t, db, "alice", "guild-1", ptr("c2"), at, 1)

	require.NoError(t, svc.Reconcile(context.Background(), bp))
	assert.EqualValues(t, 1, completionCount(t, db, quest.ID, "alice"))

	// second run, no new activity
	require.NoError(t, svc.Reconcile(context.Background(), bp))
	assert.EqualValues(t, 1, completionCount(t, db, quest.ID, "alice"))
}

func TestReconcileRepeatingQuestIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewMatchingService(db, newTestLogger())
	start := time.Now().UTC().Add(-48 * time.Hour)

	bp := seedBattlepass(t, db, start)
	seedParticipant(t, db, bp, "bob")

	quest := models.Quest{
		ID:           uuid.NewString(),
		BattlepassID: bp.ID,
		Type:         "post",
		Repeat:       true,
		Quantity:     2,
		Points:       50,
		MaxDaily:     ptr(1),
	}
	require.NoError(t, db.Create(&quest).Error)

	// anchor mid-day so all seeded posts share one calendar date
	day := time.Now().UTC().AddDate(0, 0, -1).Truncate(24 * time.Hour).Add(10 * time.Hour)

	// 6 posts in one day, quantity 2 → floor gives 3 units, the daily
	// value of 1 does not reduce it under the max-based rule
	seedActivity(t, db, "bob", "guild-1", nil, day, 6)

	require.NoError(t, svc.Reconcile(context.Background(), bp))
	assert.EqualValues(t, 3, completionCount(t, db, quest.ID, "bob"))

	require.NoError(t, svc.Reconcile(context.Background(), bp))
	assert.EqualValues(t, 3, completionCount(t, db, quest.ID, "bob"))

	// two more posts the same day → one more unit
	seedActivity(t, db, "bob", "guild-1", nil, day.Add(2*time.Hour), 2)
	require.NoError(t, svc.Reconcile(context.Background(), bp))
	assert.EqualValues(t, 4, completionCount(t, db, quest.ID, "bob"))
}

// Activity in a channel without a channel quest still counts toward
// general quests, while the channel quest sees only its own channel.
func TestReconcileChannelVsGeneralScope(t *testing.T) {
	db := newTestDB(t)
	svc := NewMatchingService(db, newTestLogger())
	start := time.Now().UTC().Add(-48 * time.Hour)

	bp := seedBattlepass(t, db, start)
	seedParticipant(t, db, bp, "carol")

	channelQuest := models.Quest{
		ID:           uuid.NewString(),
		BattlepassID: bp.ID,
		Type:         "post",
		ChannelID:    ptr("announcements"),
		Quantity:     1,
		Points:       100,
	}
	generalQuest := models.Quest{
		ID:           uuid.NewString(),
		BattlepassID: bp.ID,
		Type:         "post",
		Quantity:     1,
		Points:       10,
	}
	require.NoError(t, db.Create(&channelQuest).Error)
	require.NoError(t, db.Create(&generalQuest).Error)

	// activity only in an unrelated channel
	seedActivity(t, db, "carol", "guild-1", ptr("off-topic"), time.Now().UTC().Add(-2*time.Hour), 1)

	require.NoError(t, svc.Reconcile(context.Background(), bp))
	assert.EqualValues(t, 0, completionCount(t, db, channelQuest.ID, "carol"))
	assert.EqualValues(t, 1, completionCount(t, db, generalQuest.ID, "carol"))

	// now post in the scoped channel
	seedActivity(t, db, "carol", "guild-1", ptr("announcements"), time.Now().UTC().Add(-1*time.Hour), 1)
	require.NoError(t, svc.Reconcile(context.Background(), bp))
	assert.EqualValues(t, 1, completionCount(t, db, channelQuest.ID, "carol"))
}

func TestReconcileFinalizesEndedBattlepass(t *testing.T) {
	db := newTestDB(t)
	svc := NewMatchingService(db, newTestLogger())
	start := time.Now().UTC().Add(-48 * time.Hour)

	bp := seedBattlepass(t, db, start)
	seedParticipant(t, db, bp, "dave")

	quest := models.Quest{
		ID:           uuid.NewString(),
		BattlepassID: bp.ID,
		Type:         "post",
		Quantity:     1,
		Points:       10,
	}
	require.NoError(t, db.Create(&quest).Error)
	seedActivity(t, db, "dave", "guild-1", nil, time.Now().UTC().Add(-2*time.Hour), 1)

	// season ended, not yet reconciled
	ended := time.Now().UTC()
	require.NoError(t, db.Model(bp).Updates(map[string]interface{}{
		"active":   false,
		"end_date": ended,
	}).Error)
	bp.Active = false

	svc.RunPass(context.Background())

	var reloaded models.Battlepass
	require.NoError(t, db.First(&reloaded, "id = ?", bp.ID).Error)
	assert.True(t, reloaded.Finalized)
	assert.EqualValues(t, 1, completionCount(t, db, quest.ID, "dave"))

	// finalized passes leave the active set: new activity is ignored
	seedActivity(t, db, "dave", "guild-1", nil, time.Now().UTC(), 5)
	svc.RunPass(context.Background())
	assert.EqualValues(t, 1, completionCount(t, db, quest.ID, "dave"))
}

// Activity from identities outside the participant set never matches
func TestReconcileIgnoresNonParticipants(t *testing.T) {
	db := newTestDB(t)
	svc := NewMatchingService(db, newTestLogger())
	start := time.Now().UTC().Add(-48 * time.Hour)

	bp := seedBattlepass(t, db, start)
	seedParticipant(t, db, bp, "erin")

	quest := models.Quest{
		ID:           uuid.NewString(),
		BattlepassID: bp.ID,
		Type:         "post",
		Quantity:     1,
		Points:       10,
	}
	require.NoError(t, db.Create(&quest).Error)

	seedActivity(t, db, "stranger", "guild-1", nil, time.Now().UTC().Add(-1*time.Hour), 3)

	require.NoError(t, svc.Reconcile(context.Background(), bp))
	var total int64
	require.NoError(t, db.Model(&models.CompletedQuest{}).Count(&total).Error)
	assert.EqualValues(t, 0, total)
}

func TestReconcileIgnoresActivityBeforeStart(t *testing.T) {
	db := newTestDB(t)
	svc := NewMatchingService(db, newTestLogger())
	start := time.Now().UTC().Add(-24 * time.Hour)

	bp := seedBattlepass(t, db, start)
	seedParticipant(t, db, bp, "frank")

	quest := models.Quest{
		ID:           uuid.NewString(),
		BattlepassID: bp.ID,
		Type:         "post",
		Quantity:     1,
		Points:       10,
	}
	require.NoError(t, db.Create(&quest).Error)

	seedActivity(t, db, "frank", "guild-1", nil, start.Add(-2*time.Hour), 4)

	require.NoError(t, svc.Reconcile(context.Background(), bp))
	assert.EqualValues(t, 0, completionCount(t, db, quest.ID, "frank"))
}
