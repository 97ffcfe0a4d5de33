package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"battlepass-backend/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MatchingService reconciles raw activity against quest definitions
// and appends the implied completion rows. It is the exclusive writer
// of CompletedQuest and the only component allowed to finalize a
// battlepass. Reconcile is idempotent but not reentrant: it must run
// from a single loop, never two passes for one battlepass at once.
type MatchingService struct {
	DB  *gorm.DB
	Log *logrus.Logger
}

func NewMatchingService(db *gorm.DB, log *logrus.Logger) *MatchingService {
	return &MatchingService{DB: db, Log: log}
}

// RunPass reconciles every battlepass that has not been finalized yet.
// Failures are isolated per battlepass: one season failing must not
// abort the pass for the others.
func (s *MatchingService) RunPass(ctx context.Context) {
	var passes []models.Battlepass
	if err := s.DB.WithContext(ctx).Where("finalized = ?", false).Find(&passes).Error; err != nil {
		s.Log.Errorf("❌ [MATCH] failed to load active battlepasses: %v", err)
		return
	}

	for i := range passes {
		if err := s.Reconcile(ctx, &passes[i]); err != nil {
			s.Log.Errorf("❌ [MATCH] battlepass %s reconciliation failed: %v", passes[i].ChainID, err)
		}
	}
}

// Reconcile runs one matching pass for a single battlepass over the
// window [StartDate, now]. Any error aborts the tick with no partial
// write and, for an ended season, no finalization.
func (s *MatchingService) Reconcile(ctx context.Context, bp *models.Battlepass) error {
	now := time.Now().UTC()

	var quests []models.Quest
	if err := s.DB.WithContext(ctx).Where("battlepass_id = ?", bp.ID).Find(&quests).Error; err != nil {
		return fmt.Errorf("failed to load quest catalog: %w", err)
	}

	var identities []string
	if err := s.DB.WithContext(ctx).Model(&models.Participant{}).
		Where("battlepass_id = ?", bp.ID).
		Distinct().Pluck("identity_id", &identities).Error; err != nil {
		return fmt.Errorf("failed to load participant set: %w", err)
	}

	newRows, err := s.matchQuests(ctx, bp, quests, identities, now)
	if err != nil {
		return err
	}

	if len(newRows) > 0 {
		if err := s.DB.WithContext(ctx).Create(&newRows).Error; err != nil {
			return fmt.Errorf("bulk insert of %d completions failed: %w", len(newRows), err)
		}
		s.Log.Infof("🏅 [MATCH] battlepass %s: recorded %d new completion(s)", bp.ChainID, len(newRows))
	}

	// Season ended and this terminal pass completed without error:
	// freeze the ledger for this battlepass.
	if !bp.Active {
		bp.Finalized = true
		if err := s.DB.WithContext(ctx).Model(&models.Battlepass{}).
			Where("id = ?", bp.ID).Update("finalized", true).Error; err != nil {
			return fmt.Errorf("failed to finalize battlepass: %w", err)
		}
		s.Log.Infof("🏁 [MATCH] battlepass %s finalized", bp.ChainID)
	}

	return nil
}

type activityGroup struct {
	guildID    string
	identityID string
	channelID  string // empty for channel-less activity
	day        string
	count      int64
}

func (s *MatchingService) matchQuests(ctx context.Context, bp *models.Battlepass, quests []models.Quest, identities []string, now time.Time) ([]models.CompletedQuest, error) {
	if len(quests) == 0 || len(identities) == 0 {
		return nil, nil
	}

	channelQuests := map[string][]*models.Quest{}
	var generalQuests []*models.Quest
	questIDs := make([]string, 0, len(quests))
	for i := range quests {
		q := &quests[i]
		questIDs = append(questIDs, q.ID)
		if q.ChannelID != nil {
			channelQuests[*q.ChannelID] = append(channelQuests[*q.ChannelID], q)
		} else {
			generalQuests = append(generalQuests, q)
		}
	}

	var events []models.ActivityEvent
	if err := s.DB.WithContext(ctx).
		Where("identity_id IN ?", identities).
		Where("created_at >= ? AND created_at <= ?", bp.StartDate, now).
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to load activity window: %w", err)
	}

	// Group raw activity by (guild, identity, channel, day) and,
	// independently, total it per (guild, identity, day) across all
	// channels for the general quests. Keys are normalized strings so
	// structurally equal groups always land in the same bucket.
	groups := map[string]*activityGroup{}
	totals := map[string]*activityGroup{}
	for _, ev := range events {
		channel := ""
		if ev.ChannelID != nil {
			channel = *ev.ChannelID
		}
		day := dayKey(ev.CreatedAt)

		gk := compositeKey(ev.GuildID, ev.IdentityID, channel, day)
		g := groups[gk]
		if g == nil {
			g = &activityGroup{guildID: ev.GuildID, identityID: ev.IdentityID, channelID: channel, day: day}
			groups[gk] = g
		}
		g.count++

		tk := compositeKey(ev.GuildID, ev.IdentityID, day)
		t := totals[tk]
		if t == nil {
			t = &activityGroup{guildID: ev.GuildID, identityID: ev.IdentityID, day: day}
			totals[tk] = t
		}
		t.count++
	}

	// Prior completions make re-runs idempotent. One-shot quests are
	// bounded per (quest, identity) ever; repeating quests per
	// (quest, identity, day).
	var done []models.CompletedQuest
	if err := s.DB.WithContext(ctx).Where("quest_id IN ?", questIDs).Find(&done).Error; err != nil {
		return nil, fmt.Errorf("failed to load prior completions: %w", err)
	}
	completedEver := map[string]int64{}
	completedDay := map[string]int64{}
	for _, c := range done {
		completedEver[compositeKey(c.QuestID, c.IdentityID)]++
		completedDay[compositeKey(c.QuestID, c.IdentityID, dayKey(c.CreatedAt))]++
	}

	var rows []models.CompletedQuest
	emit := func(q *models.Quest, g *activityGroup) {
		var units int64
		if q.Repeat {
			earned := dailyEarnedUnits(g.count, q.Quantity, q.MaxDaily)
			dk := compositeKey(q.ID, g.identityID, g.day)
			if delta := earned - completedDay[dk]; delta > 0 {
				units = delta
				completedDay[dk] += delta
			}
		} else {
			ek := compositeKey(q.ID, g.identityID)
			if completedEver[ek] == 0 {
				units = 1
				completedEver[ek] = 1
			}
		}
		// Completions are stamped with the calendar day they were
		// earned, not the run time, so a later re-run groups them
		// under the same (quest, identity, day) bucket.
		earnedAt, _ := time.Parse("2006-01-02", g.day)
		for i := int64(0); i < units; i++ {
			rows = append(rows, models.CompletedQuest{
				ID:         uuid.NewString(),
				QuestID:    q.ID,
				IdentityID: g.identityID,
				GuildID:    g.guildID,
				CreatedAt:  earnedAt,
			})
		}
	}

	// Channel-scoped quests see only their own channel's groups. A
	// group whose channel has no quest contributes nothing here but
	// already counted toward the general totals above.
	for _, g := range groups {
		for _, q := range channelQuests[g.channelID] {
			emit(q, g)
		}
	}
	for _, t := range totals {
		for _, q := range generalQuests {
			emit(q, t)
		}
	}

	return rows, nil
}

// dayKey normalizes a timestamp to its UTC calendar date
func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func compositeKey(parts ...string) string {
	return strings.Join(parts, "|")
}
