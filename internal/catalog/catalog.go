// Package catalog loads and validates the read-only content definitions:
// quests, characters, achievements, skill tier tables, and the level curve.
// A catalog that fails validation is never partially loaded.
package catalog

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chainquest/platform/internal/domain"
)

// Catalog is the validated, immutable content set the engine runs against.
type Catalog struct {
	Quests       map[string]*domain.Quest
	Characters   map[string]*domain.Character
	Achievements map[string]string
	SkillTiers   map[domain.SkillBranchID][]domain.SkillTier
	LevelCurve   domain.LevelCurve
	LevelGrants  map[int]domain.LevelGrant

	PrestigeMinLevel     int
	PrestigeMasteryBonus int

	// Warnings holds non-fatal content lints (e.g. redundant relationship
	// gates). They are logged at load, never surfaced to players.
	Warnings []string
}

// --- raw YAML schema ---

type rawFile struct {
	Quests       []rawQuest       `yaml:"quests"`
	Characters   []rawCharacter   `yaml:"characters"`
	Achievements []rawAchievement `yaml:"achievements"`
	Skills       map[string][]rawSkillTier `yaml:"skills"`
	Progression  rawProgression   `yaml:"progression"`
}

type rawQuest struct {
	ID                      string            `yaml:"id"`
	Title                   string            `yaml:"title"`
	Description             string            `yaml:"description"`
	LevelRequirement        int               `yaml:"level_requirement"`
	RelationshipRequirement *rawRelReq        `yaml:"relationship_requirement"`
	Prerequisites           []rawPrerequisite `yaml:"prerequisites"`
	Objectives              []rawObjective    `yaml:"objectives"`
	Rewards                 []rawReward       `yaml:"rewards"`
	RelationshipChanges     map[string]int    `yaml:"relationship_changes"`
	Repeatable              bool              `yaml:"repeatable"`
	CooldownSeconds         int64             `yaml:"cooldown_seconds"`
	Criteria                *rawCriteria      `yaml:"criteria"`
}

type rawRelReq struct {
	CharacterID string `yaml:"character_id"`
	MinScore    int    `yaml:"min_score"`
}

type rawPrerequisite struct {
	Type          string `yaml:"type"`
	Level         int    `yaml:"level"`
	AchievementID string `yaml:"achievement_id"`
	QuestID       string `yaml:"quest_id"`
	CharacterID   string `yaml:"character_id"`
	MinScore      int    `yaml:"min_score"`
}

type rawObjective struct {
	ID          string `yaml:"id"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
	Target      int64  `yaml:"target"`
	Optional    bool   `yaml:"optional"`
}

type rawReward struct {
	ID         string         `yaml:"id"`
	Type       string         `yaml:"type"`
	Amount     int64          `yaml:"amount"`
	TargetID   string         `yaml:"target_id"`
	RarityRoll *rawRarityRoll `yaml:"rarity_roll"`
}

type rawRarityRoll struct {
	WordCount int `yaml:"word_count"`
	Table     []struct {
		Tier   string  `yaml:"tier"`
		Chance float64 `yaml:"chance"`
	} `yaml:"table"`
}

type rawCriteria struct {
	Signature         string `yaml:"signature"`
	Checks            []struct {
		Param string `yaml:"param"`
		Op    string `yaml:"op"`
		Value int64  `yaml:"value"`
	} `yaml:"checks"`
	TimeWindowSeconds int64  `yaml:"time_window_seconds"`
	Repeatability     string `yaml:"repeatability"`
	ObjectiveID       string `yaml:"objective_id"`
	DeltaParam        string `yaml:"delta_param"`
}

type rawCharacter struct {
	ID            string            `yaml:"id"`
	Name          string            `yaml:"name"`
	Prerequisites []rawPrerequisite `yaml:"prerequisites"`
}

type rawAchievement struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
}

type rawSkillTier struct {
	RequiredLevel int `yaml:"required_level"`
	Cost          int `yaml:"cost"`
	Bonus         struct {
		Kind      string  `yaml:"kind"`
		Magnitude float64 `yaml:"magnitude"`
	} `yaml:"bonus"`
}

type rawProgression struct {
	Curve []struct {
		MinLevel int   `yaml:"min_level"`
		MaxLevel int   `yaml:"max_level"`
		Base     int64 `yaml:"base"`
		Slope    int64 `yaml:"slope"`
	} `yaml:"curve"`
	LevelGrants []struct {
		Level         int         `yaml:"level"`
		MasteryPoints int         `yaml:"mastery_points"`
		Rewards       []rawReward `yaml:"rewards"`
	} `yaml:"level_grants"`
	Prestige struct {
		MinLevel     int `yaml:"min_level"`
		MasteryBonus int `yaml:"mastery_bonus"`
	} `yaml:"prestige"`
}

// Load reads and validates a catalog file. Any defect aborts the load with
// a CONTENT_ERROR; the returned catalog is complete or nil.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.ErrContent(fmt.Sprintf("read catalog %s", path), err)
	}
	return Parse(data)
}

// Parse builds a catalog from raw YAML bytes.
func Parse(data []byte) (*Catalog, error) {
	var raw rawFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, domain.ErrContent("parse catalog yaml", err)
	}

	cat := &Catalog{
		Quests:       make(map[string]*domain.Quest),
		Characters:   make(map[string]*domain.Character),
		Achievements: make(map[string]string),
		SkillTiers:   make(map[domain.SkillBranchID][]domain.SkillTier),
		LevelGrants:  make(map[int]domain.LevelGrant),
	}

	for _, a := range raw.Achievements {
		if a.ID == "" {
			return nil, contentErr("achievement with empty id")
		}
		if _, dup := cat.Achievements[a.ID]; dup {
			return nil, contentErr("duplicate achievement id %q", a.ID)
		}
		cat.Achievements[a.ID] = a.Title
	}

	for _, rc := range raw.Characters {
		c, err := convertCharacter(rc)
		if err != nil {
			return nil, err
		}
		if _, dup := cat.Characters[c.ID]; dup {
			return nil, contentErr("duplicate character id %q", c.ID)
		}
		cat.Characters[c.ID] = c
	}

	for _, rq := range raw.Quests {
		q, warnings, err := convertQuest(rq)
		if err != nil {
			return nil, err
		}
		if _, dup := cat.Quests[q.ID]; dup {
			return nil, contentErr("duplicate quest id %q", q.ID)
		}
		cat.Quests[q.ID] = q
		cat.Warnings = append(cat.Warnings, warnings...)
	}

	if err := cat.loadSkills(raw.Skills); err != nil {
		return nil, err
	}
	if err := cat.loadProgression(raw.Progression); err != nil {
		return nil, err
	}
	if err := cat.validateReferences(); err != nil {
		return nil, err
	}
	if err := cat.validateDAG(); err != nil {
		return nil, err
	}
	return cat, nil
}

func contentErr(format string, args ...any) *domain.AppError {
	return domain.ErrContent(fmt.Sprintf(format, args...), nil)
}

func convertPrerequisite(rp rawPrerequisite) (domain.Prerequisite, error) {
	p := domain.Prerequisite{
		Type:          domain.PrerequisiteType(rp.Type),
		Level:         rp.Level,
		AchievementID: rp.AchievementID,
		QuestID:       rp.QuestID,
		CharacterID:   rp.CharacterID,
		MinScore:      rp.MinScore,
	}
	if err := p.Validate(); err != nil {
		return domain.Prerequisite{}, contentErr("prerequisite: %v", err)
	}
	return p, nil
}

func convertReward(rr rawReward) (domain.Reward, error) {
	r := domain.Reward{
		ID:       rr.ID,
		Type:     domain.RewardType(rr.Type),
		Amount:   rr.Amount,
		TargetID: rr.TargetID,
	}
	if rr.RarityRoll != nil {
		cfg := &domain.RarityRollConfig{WordCount: rr.RarityRoll.WordCount}
		for _, b := range rr.RarityRoll.Table {
			cfg.Table = append(cfg.Table, domain.RarityBucket{Tier: b.Tier, Chance: b.Chance})
		}
		r.RarityRoll = cfg
	}
	if r.ID == "" {
		return domain.Reward{}, contentErr("reward with empty id")
	}
	if err := r.Validate(); err != nil {
		return domain.Reward{}, contentErr("%v", err)
	}
	return r, nil
}

func convertCharacter(rc rawCharacter) (*domain.Character, error) {
	if rc.ID == "" {
		return nil, contentErr("character with empty id")
	}
	c := &domain.Character{ID: rc.ID, Name: rc.Name}
	for _, rp := range rc.Prerequisites {
		p, err := convertPrerequisite(rp)
		if err != nil {
			return nil, fmt.Errorf("character %q: %w", rc.ID, err)
		}
		c.Prerequisites = append(c.Prerequisites, p)
	}
	return c, nil
}

func convertQuest(rq rawQuest) (*domain.Quest, []string, error) {
	if rq.ID == "" {
		return nil, nil, contentErr("quest with empty id")
	}
	q := &domain.Quest{
		ID:                  rq.ID,
		Title:               rq.Title,
		Description:         rq.Description,
		LevelRequirement:    rq.LevelRequirement,
		RelationshipChanges: rq.RelationshipChanges,
		Repeatable:          rq.Repeatable,
		Cooldown:            time.Duration(rq.CooldownSeconds) * time.Second,
	}

	for _, rp := range rq.Prerequisites {
		p, err := convertPrerequisite(rp)
		if err != nil {
			return nil, nil, fmt.Errorf("quest %q: %w", rq.ID, err)
		}
		q.Prerequisites = append(q.Prerequisites, p)
	}

	// The top-level relationship requirement and a relationship-typed
	// prerequisite are one mechanism. Canonicalize into the prerequisite
	// list, keeping the stricter threshold and flagging the duplication.
	var warnings []string
	if rr := rq.RelationshipRequirement; rr != nil {
		if rr.CharacterID == "" {
			return nil, nil, contentErr("quest %q: relationship_requirement missing character_id", rq.ID)
		}
		merged := false
		for i, p := range q.Prerequisites {
			if p.Type == domain.PrereqRelationship && p.CharacterID == rr.CharacterID {
				warnings = append(warnings, fmt.Sprintf(
					"quest %q: redundant relationship gate on character %q, keeping stricter threshold", rq.ID, rr.CharacterID))
				if rr.MinScore > p.MinScore {
					q.Prerequisites[i].MinScore = rr.MinScore
				}
				merged = true
				break
			}
		}
		if !merged {
			q.Prerequisites = append(q.Prerequisites, domain.Prerequisite{
				Type:        domain.PrereqRelationship,
				CharacterID: rr.CharacterID,
				MinScore:    rr.MinScore,
			})
		}
	}

	if len(rq.Objectives) == 0 {
		return nil, nil, contentErr("quest %q has no objectives", rq.ID)
	}
	seen := make(map[string]bool)
	required := 0
	for _, ro := range rq.Objectives {
		obj := domain.Objective{
			ID:          ro.ID,
			Type:        domain.ObjectiveType(ro.Type),
			Description: ro.Description,
			Target:      ro.Target,
			Optional:    ro.Optional,
		}
		if obj.ID == "" {
			return nil, nil, contentErr("quest %q: objective with empty id", rq.ID)
		}
		if seen[obj.ID] {
			return nil, nil, contentErr("quest %q: duplicate objective id %q", rq.ID, obj.ID)
		}
		seen[obj.ID] = true
		if !obj.Type.Valid() {
			return nil, nil, contentErr("quest %q: objective %q has unknown type %q", rq.ID, obj.ID, ro.Type)
		}
		if obj.Target == 0 {
			// Omitted target means a single discrete occurrence.
			obj.Target = 1
		}
		if obj.Target < 1 {
			return nil, nil, contentErr("quest %q: objective %q target must be >= 1", rq.ID, obj.ID)
		}
		if !obj.Optional {
			required++
		}
		q.Objectives = append(q.Objectives, obj)
	}
	if required == 0 {
		return nil, nil, contentErr("quest %q has only optional objectives", rq.ID)
	}

	for _, rr := range rq.Rewards {
		r, err := convertReward(rr)
		if err != nil {
			return nil, nil, fmt.Errorf("quest %q: %w", rq.ID, err)
		}
		q.Rewards = append(q.Rewards, r)
	}

	if rc := rq.Criteria; rc != nil {
		crit := &domain.EventCriteria{
			Signature:     rc.Signature,
			TimeWindow:    time.Duration(rc.TimeWindowSeconds) * time.Second,
			Repeatability: domain.Repeatability(rc.Repeatability),
			ObjectiveID:   rc.ObjectiveID,
			DeltaParam:    rc.DeltaParam,
		}
		if crit.Signature == "" {
			return nil, nil, contentErr("quest %q: criteria missing event signature", rq.ID)
		}
		switch crit.Repeatability {
		case domain.RepeatOnce, domain.RepeatDaily, domain.RepeatWeekly, domain.RepeatUnlimited:
		default:
			return nil, nil, contentErr("quest %q: unknown repeatability %q", rq.ID, rc.Repeatability)
		}
		if crit.ObjectiveID == "" || !seen[crit.ObjectiveID] {
			return nil, nil, contentErr("quest %q: criteria references unknown objective %q", rq.ID, rc.ObjectiveID)
		}
		for _, c := range rc.Checks {
			op := domain.CompareOp(c.Op)
			if _, err := op.Eval(0, 0); err != nil {
				return nil, nil, contentErr("quest %q: %v", rq.ID, err)
			}
			if c.Param == "" {
				return nil, nil, contentErr("quest %q: parameter check missing param name", rq.ID)
			}
			crit.Checks = append(crit.Checks, domain.ParameterCheck{Param: c.Param, Op: op, Value: c.Value})
		}
		q.Criteria = crit
	}

	return q, warnings, nil
}

func (c *Catalog) loadSkills(raw map[string][]rawSkillTier) error {
	for name, tiers := range raw {
		branch := domain.SkillBranchID(name)
		if !domain.ValidBranch(branch) {
			return contentErr("unknown skill branch %q", name)
		}
		for i, rt := range tiers {
			if rt.RequiredLevel != i {
				return contentErr("skill branch %q: tier %d has required_level %d, want %d (tiers must be strictly ordered)",
					name, i, rt.RequiredLevel, i)
			}
			if rt.Cost < 1 {
				return contentErr("skill branch %q: tier %d cost must be >= 1", name, i)
			}
			if rt.Bonus.Kind == "" {
				return contentErr("skill branch %q: tier %d bonus missing kind", name, i)
			}
			c.SkillTiers[branch] = append(c.SkillTiers[branch], domain.SkillTier{
				RequiredLevel: rt.RequiredLevel,
				Cost:          rt.Cost,
				Bonus:         domain.SkillBonus{Kind: rt.Bonus.Kind, Magnitude: rt.Bonus.Magnitude},
			})
		}
	}
	return nil
}

func (c *Catalog) loadProgression(raw rawProgression) error {
	if len(raw.Curve) == 0 {
		c.LevelCurve = domain.DefaultLevelCurve()
	} else {
		prevMax := 0
		for i, rt := range raw.Curve {
			if rt.MinLevel != prevMax+1 {
				return contentErr("level curve tier %d starts at level %d, want %d (tiers must be contiguous)", i, rt.MinLevel, prevMax+1)
			}
			if rt.MaxLevel == 0 && i != len(raw.Curve)-1 {
				return contentErr("level curve tier %d is unbounded but not last", i)
			}
			if rt.MaxLevel != 0 && rt.MaxLevel < rt.MinLevel {
				return contentErr("level curve tier %d has max_level < min_level", i)
			}
			if rt.Slope <= 0 && rt.Base <= 0 {
				return contentErr("level curve tier %d has no positive cost", i)
			}
			c.LevelCurve = append(c.LevelCurve, domain.LevelCurveTier{
				MinLevel: rt.MinLevel, MaxLevel: rt.MaxLevel, Base: rt.Base, Slope: rt.Slope,
			})
			prevMax = rt.MaxLevel
		}
	}

	for _, lg := range raw.LevelGrants {
		if lg.Level < 2 {
			return contentErr("level grant bound to level %d, minimum is 2", lg.Level)
		}
		if _, dup := c.LevelGrants[lg.Level]; dup {
			return contentErr("duplicate level grant for level %d", lg.Level)
		}
		grant := domain.LevelGrant{Level: lg.Level, MasteryPoints: lg.MasteryPoints}
		for _, rr := range lg.Rewards {
			r, err := convertReward(rr)
			if err != nil {
				return fmt.Errorf("level %d grant: %w", lg.Level, err)
			}
			// Experience inside a level grant would feed back into the
			// level loop.
			if r.Type == domain.RewardExperience {
				return contentErr("level %d grant: experience rewards are not allowed in level grants", lg.Level)
			}
			grant.Rewards = append(grant.Rewards, r)
		}
		c.LevelGrants[lg.Level] = grant
	}

	c.PrestigeMinLevel = raw.Prestige.MinLevel
	if c.PrestigeMinLevel == 0 {
		c.PrestigeMinLevel = 50
	}
	c.PrestigeMasteryBonus = raw.Prestige.MasteryBonus
	if c.PrestigeMasteryBonus == 0 {
		c.PrestigeMasteryBonus = 10
	}
	return nil
}

// validateReferences checks that every id referenced by a prerequisite,
// reward, or relationship change exists in the catalog.
func (c *Catalog) validateReferences() error {
	checkPrereqs := func(owner string, prereqs []domain.Prerequisite) error {
		for _, p := range prereqs {
			switch p.Type {
			case domain.PrereqQuest:
				if _, ok := c.Quests[p.QuestID]; !ok {
					return contentErr("%s references unknown quest %q", owner, p.QuestID)
				}
			case domain.PrereqCharacter, domain.PrereqRelationship:
				if _, ok := c.Characters[p.CharacterID]; !ok {
					return contentErr("%s references unknown character %q", owner, p.CharacterID)
				}
			case domain.PrereqAchievement:
				if _, ok := c.Achievements[p.AchievementID]; !ok {
					return contentErr("%s references unknown achievement %q", owner, p.AchievementID)
				}
			}
		}
		return nil
	}

	for id, q := range c.Quests {
		if err := checkPrereqs(fmt.Sprintf("quest %q", id), q.Prerequisites); err != nil {
			return err
		}
		for charID := range q.RelationshipChanges {
			if _, ok := c.Characters[charID]; !ok {
				return contentErr("quest %q relationship change references unknown character %q", id, charID)
			}
		}
		for _, r := range q.Rewards {
			if r.Type == domain.RewardCharacterUnlock {
				if _, ok := c.Characters[r.TargetID]; !ok {
					return contentErr("quest %q reward %q unlocks unknown character %q", id, r.ID, r.TargetID)
				}
			}
		}
	}
	for id, ch := range c.Characters {
		if err := checkPrereqs(fmt.Sprintf("character %q", id), ch.Prerequisites); err != nil {
			return err
		}
	}
	return nil
}

// validateDAG runs a topological sort over the prerequisite graph (quests
// and characters as nodes) and rejects any cycle at load time, converting
// a potential infinite-recursion bug class into a ContentError.
func (c *Catalog) validateDAG() error {
	type node struct {
		id    string
		edges []string
	}
	nodes := make(map[string]*node)

	add := func(id string, prereqs []domain.Prerequisite) {
		n := &node{id: id}
		for _, p := range prereqs {
			switch p.Type {
			case domain.PrereqQuest:
				n.edges = append(n.edges, "quest:"+p.QuestID)
			case domain.PrereqCharacter:
				n.edges = append(n.edges, "character:"+p.CharacterID)
			}
		}
		nodes[id] = n
	}
	for id, q := range c.Quests {
		add("quest:"+id, q.Prerequisites)
	}
	for id, ch := range c.Characters {
		add("character:"+id, ch.Prerequisites)
	}

	// Kahn's algorithm; anything left with in-degree > 0 is on a cycle.
	indegree := make(map[string]int, len(nodes))
	for id := range nodes {
		indegree[id] = 0
	}
	for _, n := range nodes {
		for _, dep := range n.edges {
			if _, ok := nodes[dep]; ok {
				indegree[n.id]++
			}
		}
	}
	dependents := make(map[string][]string)
	for _, n := range nodes {
		for _, dep := range n.edges {
			dependents[dep] = append(dependents[dep], n.id)
		}
	}

	var queue []string
	for id, d := range indegree {
		if d == 0 {
			queue = append(queue, id)
		}
	}
	processed := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		processed++
		for _, dep := range dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}
	if processed != len(nodes) {
		var cyclic []string
		for id, d := range indegree {
			if d > 0 {
				cyclic = append(cyclic, id)
			}
		}
		sort.Strings(cyclic)
		return contentErr("prerequisite graph contains a cycle involving %v", cyclic)
	}
	return nil
}
