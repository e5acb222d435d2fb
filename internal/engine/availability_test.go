package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainquest/platform/internal/domain"
)

func TestIsAvailable_LevelGate(t *testing.T) {
	cat := baseCatalog()
	q := interactQuest("trial")
	q.LevelRequirement = 3
	cat.Quests["trial"] = q
	e := testEngine(cat, nil)
	st := newPlayer()

	ok, err := e.IsAvailable(st, "trial")
	require.NoError(t, err)
	assert.False(t, ok)

	st.Progression.Level = 3
	ok, err = e.IsAvailable(st, "trial")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsAvailable_DiamondQuestChain(t *testing.T) {
	cat := baseCatalog()
	cat.Quests["intro"] = interactQuest("intro")
	for _, id := range []string{"left", "right"} {
		q := interactQuest(id)
		q.Prerequisites = []domain.Prerequisite{{Type: domain.PrereqQuest, QuestID: "intro"}}
		cat.Quests[id] = q
	}
	final := interactQuest("final")
	final.Prerequisites = []domain.Prerequisite{
		{Type: domain.PrereqQuest, QuestID: "left"},
		{Type: domain.PrereqQuest, QuestID: "right"},
	}
	cat.Quests["final"] = final
	e := testEngine(cat, nil)
	st := newPlayer()

	ok, err := e.IsAvailable(st, "final")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, completeQuest(e, st, "intro"))
	require.NoError(t, completeQuest(e, st, "left"))

	// One branch done is not enough: prerequisites are AND.
	ok, err = e.IsAvailable(st, "final")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, completeQuest(e, st, "right"))
	ok, err = e.IsAvailable(st, "final")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsAvailable_RelationshipAndAchievementGates(t *testing.T) {
	cat := baseCatalog()
	cat.Characters["smith"] = &domain.Character{ID: "smith", Name: "Smith"}
	cat.Achievements["first_blood"] = "First Blood"
	q := interactQuest("favor")
	q.Prerequisites = []domain.Prerequisite{
		{Type: domain.PrereqRelationship, CharacterID: "smith", MinScore: 20},
		{Type: domain.PrereqAchievement, AchievementID: "first_blood"},
	}
	cat.Quests["favor"] = q
	e := testEngine(cat, nil)
	st := newPlayer()

	st.Relationships["smith"] = 19
	st.Achievements["first_blood"] = true
	ok, err := e.IsAvailable(st, "favor")
	require.NoError(t, err)
	assert.False(t, ok)

	st.Relationships["smith"] = 20
	ok, err = e.IsAvailable(st, "favor")
	require.NoError(t, err)
	assert.True(t, ok)

	delete(st.Achievements, "first_blood")
	ok, err = e.IsAvailable(st, "favor")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsAvailable_CharacterGateRecursesThroughAvailability(t *testing.T) {
	cat := baseCatalog()
	cat.Quests["intro"] = interactQuest("intro")
	cat.Characters["smith"] = &domain.Character{
		ID:   "smith",
		Name: "Smith",
		Prerequisites: []domain.Prerequisite{
			{Type: domain.PrereqQuest, QuestID: "intro"},
		},
	}
	q := interactQuest("forge")
	q.Prerequisites = []domain.Prerequisite{{Type: domain.PrereqCharacter, CharacterID: "smith"}}
	cat.Quests["forge"] = q
	e := testEngine(cat, nil)
	st := newPlayer()

	ok, err := e.IsAvailable(st, "forge")
	require.NoError(t, err)
	assert.False(t, ok)

	// An available-but-not-yet-unlocked character satisfies the gate.
	require.NoError(t, completeQuest(e, st, "intro"))
	ok, err = e.IsAvailable(st, "forge")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsAvailable_UnlockedCharacterSkipsItsPrerequisites(t *testing.T) {
	cat := baseCatalog()
	cat.Characters["broker"] = &domain.Character{
		ID:   "broker",
		Name: "Broker",
		Prerequisites: []domain.Prerequisite{
			{Type: domain.PrereqLevel, Level: 50},
		},
	}
	q := interactQuest("deal")
	q.Prerequisites = []domain.Prerequisite{{Type: domain.PrereqCharacter, CharacterID: "broker"}}
	cat.Quests["deal"] = q
	e := testEngine(cat, nil)
	st := newPlayer()

	ok, err := e.IsAvailable(st, "deal")
	require.NoError(t, err)
	assert.False(t, ok)

	st.Characters["broker"] = true
	ok, err = e.IsAvailable(st, "deal")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsAvailable_UnknownID(t *testing.T) {
	e := testEngine(baseCatalog(), nil)
	_, err := e.IsAvailable(newPlayer(), "nope")

	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestListAvailable_ExcludesCompletedNonRepeatable(t *testing.T) {
	cat := baseCatalog()
	cat.Quests["intro"] = interactQuest("intro")
	cat.Quests["side"] = interactQuest("side")
	e := testEngine(cat, nil)
	st := newPlayer()

	avail, err := e.ListAvailable(st)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"intro", "side"}, avail.Quests)

	require.NoError(t, completeQuest(e, st, "intro"))
	avail, err = e.ListAvailable(st)
	require.NoError(t, err)
	assert.Equal(t, []string{"side"}, avail.Quests)
}

func TestListAvailable_RepeatableCooldownWindow(t *testing.T) {
	cat := baseCatalog()
	q := interactQuest("bounty")
	q.Repeatable = true
	q.Cooldown = time.Hour
	cat.Quests["bounty"] = q
	e := testEngine(cat, nil)
	st := newPlayer()

	require.NoError(t, completeQuest(e, st, "bounty"))

	avail, err := e.ListAvailable(st)
	require.NoError(t, err)
	assert.Empty(t, avail.Quests)

	// Step the clock past the cooldown.
	e.now = func() time.Time { return testNow.Add(time.Hour + time.Second) }
	avail, err = e.ListAvailable(st)
	require.NoError(t, err)
	assert.Equal(t, []string{"bounty"}, avail.Quests)
}

func TestListAvailable_CharactersGateOnUnlockState(t *testing.T) {
	cat := baseCatalog()
	cat.Quests["intro"] = interactQuest("intro")
	cat.Characters["smith"] = &domain.Character{
		ID:   "smith",
		Name: "Smith",
		Prerequisites: []domain.Prerequisite{
			{Type: domain.PrereqQuest, QuestID: "intro"},
		},
	}
	e := testEngine(cat, nil)
	st := newPlayer()

	avail, err := e.ListAvailable(st)
	require.NoError(t, err)
	assert.Empty(t, avail.Characters)

	require.NoError(t, completeQuest(e, st, "intro"))
	avail, err = e.ListAvailable(st)
	require.NoError(t, err)
	assert.Equal(t, []string{"smith"}, avail.Characters)
}
