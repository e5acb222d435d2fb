package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareOp_Eval(t *testing.T) {
	cases := []struct {
		op       CompareOp
		actual   int64
		expected int64
		want     bool
	}{
		{OpGT, 2, 1, true},
		{OpGT, 1, 1, false},
		{OpLT, 1, 2, true},
		{OpEQ, 5, 5, true},
		{OpNE, 5, 5, false},
		{OpGE, 5, 5, true},
		{OpGE, 4, 5, false},
		{OpLE, 5, 5, true},
	}
	for _, c := range cases {
		got, err := c.op.Eval(c.actual, c.expected)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "%d %s %d", c.actual, c.op, c.expected)
	}
}

func TestCompareOp_Unknown(t *testing.T) {
	_, err := CompareOp("~=").Eval(1, 1)
	assert.Error(t, err)
}

func TestRepeatability_Period(t *testing.T) {
	assert.Equal(t, time.Duration(0), RepeatOnce.Period())
	assert.Equal(t, time.Duration(0), RepeatUnlimited.Period())
	assert.Equal(t, 24*time.Hour, RepeatDaily.Period())
	assert.Equal(t, 7*24*time.Hour, RepeatWeekly.Period())
}

func TestEventType_Topic(t *testing.T) {
	assert.Equal(t, "chainquest.player.leveled_up", EventPlayerLeveledUp.Topic())
	assert.Equal(t, "chainquest.reward.granted", EventRewardGranted.Topic())
	assert.Equal(t, "chainquest.quest.completed", EventQuestCompleted.Topic())
}

func TestEventRecord_Validate(t *testing.T) {
	valid := EventRecord{
		UniqueID:  "0xabc:0",
		PlayerID:  uuid.New(),
		Signature: "Staked",
		Timestamp: time.Now(),
	}
	assert.NoError(t, valid.Validate())

	missing := valid
	missing.UniqueID = ""
	assert.Error(t, missing.Validate())

	missing = valid
	missing.PlayerID = uuid.Nil
	assert.Error(t, missing.Validate())

	missing = valid
	missing.Signature = ""
	assert.Error(t, missing.Validate())

	missing = valid
	missing.Timestamp = time.Time{}
	assert.Error(t, missing.Validate())
}

func TestQuestState_InCooldown(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	done := now.Add(-30 * time.Minute)
	qs := &QuestState{QuestID: "bounty", LastCompletedAt: &done}

	repeatable := &Quest{ID: "bounty", Repeatable: true, Cooldown: time.Hour}
	assert.True(t, qs.InCooldown(repeatable, now))
	assert.False(t, qs.InCooldown(repeatable, now.Add(time.Hour)))

	// Non-repeatable quests and quests without a cooldown never report one.
	assert.False(t, qs.InCooldown(&Quest{ID: "bounty", Cooldown: time.Hour}, now))
	assert.False(t, qs.InCooldown(&Quest{ID: "bounty", Repeatable: true}, now))

	fresh := NewQuestState("bounty")
	assert.False(t, fresh.InCooldown(repeatable, now))
}

func TestPlayerState_CompletedQuests(t *testing.T) {
	st := NewPlayerState(uuid.New())
	st.QuestState("a").Status = QuestCompleted
	// A reopened repeatable counts as completed through its count.
	b := st.QuestState("b")
	b.Status = QuestActive
	b.CompletionCount = 2
	st.QuestState("c")

	done := st.CompletedQuests()
	assert.True(t, done["a"])
	assert.True(t, done["b"])
	assert.False(t, done["c"])
}

func TestLevelCurve_Threshold(t *testing.T) {
	curve := LevelCurve{
		{MinLevel: 1, MaxLevel: 10, Slope: 100},
		{MinLevel: 11, MaxLevel: 0, Base: 500, Slope: 150},
	}
	assert.Equal(t, int64(100), curve.Threshold(1))
	assert.Equal(t, int64(1000), curve.Threshold(10))
	assert.Equal(t, int64(2150), curve.Threshold(11))
	assert.Equal(t, int64(0), LevelCurve{}.Threshold(5))
}

func TestReward_Validate(t *testing.T) {
	assert.NoError(t, Reward{ID: "xp", Type: RewardExperience, Amount: 100}.Validate())
	assert.Error(t, Reward{ID: "xp", Type: RewardExperience}.Validate())
	assert.Error(t, Reward{ID: "nft", Type: RewardNFT}.Validate())
	assert.Error(t, Reward{ID: "c", Type: RewardCosmetic}.Validate())
	assert.Error(t, Reward{ID: "x", Type: RewardType("gold")}.Validate())

	badTable := Reward{ID: "nft", Type: RewardNFT, TargetID: "relics",
		RarityRoll: &RarityRollConfig{WordCount: 1, Table: []RarityBucket{{Tier: "common", Chance: 0.5}}}}
	assert.Error(t, badTable.Validate())

	goodTable := Reward{ID: "nft", Type: RewardNFT, TargetID: "relics",
		RarityRoll: &RarityRollConfig{WordCount: 1, Table: []RarityBucket{
			{Tier: "common", Chance: 0.7}, {Tier: "rare", Chance: 0.3}}}}
	assert.NoError(t, goodTable.Validate())
}

func TestPrerequisite_Validate(t *testing.T) {
	assert.NoError(t, Prerequisite{Type: PrereqLevel, Level: 5}.Validate())
	assert.Error(t, Prerequisite{Type: PrereqLevel}.Validate())
	assert.Error(t, Prerequisite{Type: PrereqQuest}.Validate())
	assert.Error(t, Prerequisite{Type: PrereqAchievement}.Validate())
	assert.Error(t, Prerequisite{Type: PrereqRelationship}.Validate())
	assert.Error(t, Prerequisite{Type: PrerequisiteType("mystery")}.Validate())
}

func TestSkillSet_ResetAndBonusTotal(t *testing.T) {
	set := NewSkillSet()
	require.Len(t, set, len(SkillBranches))

	set[BranchLuck].Level = 2
	set[BranchLuck].Bonuses = []SkillBonus{
		{Kind: "drop_rate", Magnitude: 0.05},
		{Kind: "drop_rate", Magnitude: 0.10},
	}
	assert.InDelta(t, 0.15, set[BranchLuck].BonusTotal(), 1e-9)

	set.Reset()
	assert.Zero(t, set[BranchLuck].Level)
	assert.Empty(t, set[BranchLuck].Bonuses)
}
