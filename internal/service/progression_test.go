package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainquest/platform/internal/catalog"
	"github.com/chainquest/platform/internal/domain"
	"github.com/chainquest/platform/internal/engine"
	"github.com/chainquest/platform/internal/guard"
	"github.com/chainquest/platform/internal/projection"
	"github.com/chainquest/platform/internal/repository"
)

// fakeTx satisfies pgx.Tx for code paths that only commit or roll back;
// any other method panics on the nil embed, which no fake repository hits.
type fakeTx struct{ pgx.Tx }

func (fakeTx) Commit(context.Context) error   { return nil }
func (fakeTx) Rollback(context.Context) error { return nil }

type fakeDB struct{}

func (fakeDB) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (fakeDB) Query(context.Context, string, ...interface{}) (pgx.Rows, error) { return nil, nil }
func (fakeDB) QueryRow(context.Context, string, ...interface{}) pgx.Row        { return nil }
func (fakeDB) Begin(context.Context) (pgx.Tx, error)                           { return fakeTx{}, nil }

// fakeStateRepo serves scripted states in order, repeating the last one.
type fakeStateRepo struct {
	states []*domain.PlayerState
	loads  int
	saved  int
}

func (r *fakeStateRepo) Load(context.Context, repository.DBTX, uuid.UUID) (*domain.PlayerState, error) {
	i := r.loads
	if i >= len(r.states) {
		i = len(r.states) - 1
	}
	r.loads++
	return r.states[i], nil
}

func (r *fakeStateRepo) Create(context.Context, repository.DBTX, *domain.PlayerState) error { return nil }

func (r *fakeStateRepo) Save(context.Context, pgx.Tx, *domain.PlayerState) error {
	r.saved++
	return nil
}

type fakeGrantRepo struct {
	stored     []domain.GrantedReward
	inserted   []domain.GrantedReward
	listCycles []int
}

func (r *fakeGrantRepo) Insert(_ context.Context, _ repository.DBTX, g domain.GrantedReward) error {
	r.inserted = append(r.inserted, g)
	return nil
}

func (r *fakeGrantRepo) ListByQuest(_ context.Context, _ repository.DBTX, _ uuid.UUID, _ string, cycle int) ([]domain.GrantedReward, error) {
	r.listCycles = append(r.listCycles, cycle)
	return r.stored, nil
}

type fakeOutboxRepo struct {
	drafts []domain.OutboxDraft
}

func (r *fakeOutboxRepo) Insert(_ context.Context, _ repository.DBTX, d domain.OutboxDraft) error {
	r.drafts = append(r.drafts, d)
	return nil
}

func (r *fakeOutboxRepo) FetchUnpublishedRows(context.Context, repository.DBTX, int) ([]repository.OutboxRow, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) MarkPublished(context.Context, repository.DBTX, []int64) error { return nil }

type silentOracle struct{ calls int }

func (o *silentOracle) RandomWords(context.Context, int) ([]uint64, error) {
	o.calls++
	return nil, nil
}

func claimCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Quests: map[string]*domain.Quest{
			"forge-pact": {
				ID:         "forge-pact",
				Title:      "Forge Pact",
				Objectives: []domain.Objective{{ID: "do", Type: domain.ObjectiveInteract, Target: 1}},
				Rewards:    []domain.Reward{{ID: "sigil", Type: domain.RewardCosmetic, TargetID: "ember-sigil"}},
				Repeatable: true,
			},
		},
		Characters:           map[string]*domain.Character{},
		Achievements:         map[string]string{},
		SkillTiers:           map[domain.SkillBranchID][]domain.SkillTier{},
		LevelCurve:           domain.LevelCurve{{MinLevel: 1, Slope: 100}},
		LevelGrants:          map[int]domain.LevelGrant{},
		PrestigeMinLevel:     5,
		PrestigeMasteryBonus: 10,
	}
}

func completedState(playerID uuid.UUID, dispensed bool, cycle int) *domain.PlayerState {
	st := domain.NewPlayerState(playerID)
	done := time.Now().Add(-time.Minute)
	st.Quests["forge-pact"] = &domain.QuestState{
		QuestID:         "forge-pact",
		Status:          domain.QuestCompleted,
		Progress:        map[string]int64{"do": 1},
		LastCompletedAt: &done,
		CompletionCount: cycle,
		Dispensed:       dispensed,
	}
	return st
}

func claimService(t *testing.T, states *fakeStateRepo, grants *fakeGrantRepo, outbox *fakeOutboxRepo, oracle *silentOracle) *ProgressionService {
	t.Helper()
	avail, err := projection.NewAvailabilityCache(8)
	require.NoError(t, err)
	eng := engine.New(claimCatalog(), oracle)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewProgressionService(fakeDB{}, eng, states, grants, outbox, guard.NewPlayerLocks(), avail, nil, logger)
}

func TestClaimQuestRacedClaimServesStoredGrants(t *testing.T) {
	playerID := uuid.New()
	stored := []domain.GrantedReward{{
		ID:       uuid.New(),
		PlayerID: playerID,
		QuestID:  "forge-pact",
		RewardID: "sigil",
		Type:     domain.RewardCosmetic,
		TargetID: "ember-sigil",
		Cycle:    1,
	}}

	// The pre-lock check sees an undispensed completion; by the time the
	// transaction loads the state a concurrent claim has dispensed it.
	states := &fakeStateRepo{states: []*domain.PlayerState{
		completedState(playerID, false, 1),
		completedState(playerID, true, 1),
	}}
	grants := &fakeGrantRepo{stored: stored}
	outbox := &fakeOutboxRepo{}
	oracle := &silentOracle{}
	svc := claimService(t, states, grants, outbox, oracle)

	res, err := svc.ClaimQuest(context.Background(), playerID, "forge-pact")
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.True(t, res.Replayed)
	require.Len(t, res.Grants, 1)
	assert.Equal(t, stored[0].ID, res.Grants[0].ID)

	assert.Empty(t, grants.inserted, "replay must not re-insert grants")
	assert.Empty(t, outbox.drafts, "replay must not re-emit reward events")
	assert.Equal(t, []int{1}, grants.listCycles)
	assert.Equal(t, 0, oracle.calls)
}

func TestClaimQuestReplayScopedToCurrentCycle(t *testing.T) {
	playerID := uuid.New()
	stored := []domain.GrantedReward{{
		ID:       uuid.New(),
		PlayerID: playerID,
		QuestID:  "forge-pact",
		RewardID: "sigil",
		Type:     domain.RewardCosmetic,
		TargetID: "ember-sigil",
		Cycle:    3,
	}}

	states := &fakeStateRepo{states: []*domain.PlayerState{
		completedState(playerID, true, 3),
	}}
	grants := &fakeGrantRepo{stored: stored}
	outbox := &fakeOutboxRepo{}
	svc := claimService(t, states, grants, outbox, &silentOracle{})

	res, err := svc.ClaimQuest(context.Background(), playerID, "forge-pact")
	require.NoError(t, err)

	assert.True(t, res.Replayed)
	assert.Equal(t, []int{3}, grants.listCycles, "replay must query only the cycle being replayed")
	assert.Empty(t, grants.inserted)
	assert.Empty(t, outbox.drafts)
}

func TestClaimQuestFirstDispensePersistsGrants(t *testing.T) {
	playerID := uuid.New()
	states := &fakeStateRepo{states: []*domain.PlayerState{
		completedState(playerID, false, 1),
	}}
	grants := &fakeGrantRepo{}
	outbox := &fakeOutboxRepo{}
	svc := claimService(t, states, grants, outbox, &silentOracle{})

	res, err := svc.ClaimQuest(context.Background(), playerID, "forge-pact")
	require.NoError(t, err)

	assert.False(t, res.Replayed)
	require.Len(t, grants.inserted, 1)
	assert.Equal(t, "sigil", grants.inserted[0].RewardID)
	assert.Equal(t, 1, grants.inserted[0].Cycle)
	require.Len(t, outbox.drafts, 1)
	assert.Equal(t, domain.EventRewardGranted, outbox.drafts[0].EventType)
	assert.Equal(t, 1, states.saved)
}
