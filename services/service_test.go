package services

import (
	"io"
	"testing"

	"battlepass-backend/models"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Battlepass{},
		&models.Quest{},
		&models.ActivityEvent{},
		&models.CompletedQuest{},
		&models.Participant{},
		&models.BattlepassLevel{},
		&models.BattlepassReward{},
		&models.RewardClaim{},
	))
	return db
}

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func ptr[T any](v T) *T {
	return &v
}
