package jobs

import "fmt"

// Type names the chain mutation a job performs
type Type string

const (
	TypeClaimBattlepass Type = "claimBattlepass"
	TypeSyncPoints      Type = "points"
	TypeClaimReward     Type = "claimReward"
	TypeCreateReward    Type = "createReward"
	TypeCreateLevels    Type = "createLevels"
)

// Job is one deduplicated unit of chain work. The idempotency key is
// built deterministically from business entity ids and is the only
// duplicate-suppression mechanism in the pipeline.
type Job struct {
	Type           Type
	IdempotencyKey string
	Payload        map[string]string
}

func ClaimBattlepassJob(participantID string) Job {
	return Job{
		Type:           TypeClaimBattlepass,
		IdempotencyKey: fmt.Sprintf("%s-%s", TypeClaimBattlepass, participantID),
		Payload:        map[string]string{"participant_id": participantID},
	}
}

func SyncPointsJob(battlepassChainID, battlepassID, identityID string) Job {
	return Job{
		Type:           TypeSyncPoints,
		IdempotencyKey: fmt.Sprintf("%s-%s-%s", TypeSyncPoints, battlepassChainID, identityID),
		Payload: map[string]string{
			"battlepass_id": battlepassID,
			"identity_id":   identityID,
		},
	}
}

func ClaimRewardJob(claimID string) Job {
	return Job{
		Type:           TypeClaimReward,
		IdempotencyKey: fmt.Sprintf("%s-%s", TypeClaimReward, claimID),
		Payload:        map[string]string{"claim_id": claimID},
	}
}

func CreateRewardJob(rewardID string) Job {
	return Job{
		Type:           TypeCreateReward,
		IdempotencyKey: fmt.Sprintf("%s-%s", TypeCreateReward, rewardID),
		Payload:        map[string]string{"reward_id": rewardID},
	}
}

func CreateLevelsJob(battlepassID string) Job {
	return Job{
		Type:           TypeCreateLevels,
		IdempotencyKey: fmt.Sprintf("%s-%s", TypeCreateLevels, battlepassID),
		Payload:        map[string]string{"battlepass_id": battlepassID},
	}
}
