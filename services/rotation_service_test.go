// file: services/rotation_service_test.go
package services

import (
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/phyesix/team-meal/models"
	"gorm.io/gorm"
)

// newTestDB 建一个内存 sqlite，只迁移轮换相关的表
// 连接数限制为 1，避免内存库在连接池下出现多个独立实例
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.Team{},
		&models.TeamMember{},
		&models.Cycle{},
		&models.DiceRoll{},
		&models.MealTurn{},
		&models.VehicleAssignment{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createTestTeam(t *testing.T, db *gorm.DB, memberIDs []uint32, carOwners map[uint32]bool, capacity int) *models.Team {
	t.Helper()
	team := models.Team{
		TeamName:        "lunch-crew",
		MaxMembers:      8,
		VehicleCapacity: capacity,
		InvitationCode:  "TESTCODE1234",
		CreatedBy:       1,
	}
	if err := db.Create(&team).Error; err != nil {
		t.Fatalf("create team: %v", err)
	}
	for _, id := range memberIDs {
		member := models.TeamMember{
			TeamID:   team.ID,
			UserID:   id,
			HasCar:   carOwners[id],
			JoinedAt: time.Now(),
		}
		if err := db.Create(&member).Error; err != nil {
			t.Fatalf("create member %d: %v", id, err)
		}
	}
	return &team
}

func TestRankRollsOrdersByTotalDescending(t *testing.T) {
	now := time.Now()
	rolls := []models.DiceRoll{
		{UserID: 1, Die1: 3, Die2: 4, Total: 7, RolledAt: now},
		{UserID: 2, Die1: 9, Die2: 9, Total: 18, RolledAt: now},
		{UserID: 3, Die1: 5, Die2: 6, Total: 11, RolledAt: now},
	}

	ranked := RankRolls(rolls)

	want := []uint32{2, 3, 1}
	for i, userID := range want {
		if ranked[i].UserID != userID {
			t.Fatalf("rank %d: expected user %d, got %d", i+1, userID, ranked[i].UserID)
		}
	}
	// 入参顺序不被修改
	if rolls[0].UserID != 1 {
		t.Fatalf("RankRolls must not mutate its input")
	}
}

func TestRankRollsTieBreaksByDie1ThenRolledAt(t *testing.T) {
	base := time.Now()
	// A 和 B total 与 die1 都相同，B 先掷；C 总分更低
	rolls := []models.DiceRoll{
		{UserID: 100, Die1: 8, Die2: 7, Total: 15, RolledAt: base.Add(time.Minute)}, // A
		{UserID: 200, Die1: 8, Die2: 7, Total: 15, RolledAt: base},                  // B
		{UserID: 300, Die1: 6, Die2: 6, Total: 12, RolledAt: base.Add(time.Second)}, // C
	}

	ranked := RankRolls(rolls)

	want := []uint32{200, 100, 300}
	for i, userID := range want {
		if ranked[i].UserID != userID {
			t.Fatalf("rank %d: expected user %d, got %d", i+1, userID, ranked[i].UserID)
		}
	}
}

func TestRankRollsTieBreaksByDie1BeforeTime(t *testing.T) {
	base := time.Now()
	// 总分相同但 die1 不同时，die1 大者在前，不看时间
	rolls := []models.DiceRoll{
		{UserID: 1, Die1: 6, Die2: 9, Total: 15, RolledAt: base},
		{UserID: 2, Die1: 9, Die2: 6, Total: 15, RolledAt: base.Add(time.Hour)},
	}

	ranked := RankRolls(rolls)
	if ranked[0].UserID != 2 || ranked[1].UserID != 1 {
		t.Fatalf("expected die1 tie-break order [2 1], got [%d %d]", ranked[0].UserID, ranked[1].UserID)
	}
}

func TestGetOrCreateActiveCycleNumbering(t *testing.T) {
	db := newTestDB(t)
	team := createTestTeam(t, db, []uint32{1, 2}, nil, 1)

	first, err := GetOrCreateActiveCycle(db, team.ID)
	if err != nil {
		t.Fatalf("GetOrCreateActiveCycle: %v", err)
	}
	if first.CycleNumber != 1 || !first.IsActive {
		t.Fatalf("expected active cycle 1, got number=%d active=%v", first.CycleNumber, first.IsActive)
	}

	// 已有活跃周期时直接返回，不重复创建
	again, err := GetOrCreateActiveCycle(db, team.ID)
	if err != nil {
		t.Fatalf("GetOrCreateActiveCycle: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("expected existing cycle %d, got %d", first.ID, again.ID)
	}

	var count int64
	db.Model(&models.Cycle{}).Where("team_id = ?", team.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 cycle, got %d", count)
	}
}

func TestCompleteCycleOpensNextCycle(t *testing.T) {
	db := newTestDB(t)
	team := createTestTeam(t, db, []uint32{1, 2}, nil, 1)

	cycle, err := GetOrCreateActiveCycle(db, team.ID)
	if err != nil {
		t.Fatalf("GetOrCreateActiveCycle: %v", err)
	}

	next, err := CompleteCycle(db, cycle)
	if err != nil {
		t.Fatalf("CompleteCycle: %v", err)
	}
	if next.CycleNumber != cycle.CycleNumber+1 || !next.IsActive {
		t.Fatalf("expected active cycle %d, got number=%d active=%v", cycle.CycleNumber+1, next.CycleNumber, next.IsActive)
	}

	var old models.Cycle
	if err := db.First(&old, cycle.ID).Error; err != nil {
		t.Fatalf("reload old cycle: %v", err)
	}
	if old.IsActive || old.CompletedAt == nil {
		t.Fatalf("old cycle should be inactive with completed_at set")
	}

	// 新周期没有任何掷骰
	var rollCount int64
	db.Model(&models.DiceRoll{}).Where("cycle_id = ?", next.ID).Count(&rollCount)
	if rollCount != 0 {
		t.Fatalf("new cycle should start with zero rolls, got %d", rollCount)
	}

	// 每个队伍始终只有一个活跃周期
	var activeCount int64
	db.Model(&models.Cycle{}).Where("team_id = ? AND is_active = ?", team.ID, true).Count(&activeCount)
	if activeCount != 1 {
		t.Fatalf("expected exactly 1 active cycle, got %d", activeCount)
	}
}

func TestRecordRollValidatesDice(t *testing.T) {
	db := newTestDB(t)
	team := createTestTeam(t, db, []uint32{1}, nil, 1)
	cycle, _ := GetOrCreateActiveCycle(db, team.ID)

	for _, dice := range [][2]int{{0, 5}, {11, 5}, {5, 0}, {5, 11}} {
		_, err := RecordRoll(db, cycle, 1, dice[0], dice[1], 1)
		if !errors.Is(err, ErrInvalidDice) {
			t.Fatalf("dice %v: expected ErrInvalidDice, got %v", dice, err)
		}
	}

	var count int64
	db.Model(&models.DiceRoll{}).Count(&count)
	if count != 0 {
		t.Fatalf("invalid rolls must not be persisted, found %d", count)
	}
}

func TestRecordRollRejectsDuplicate(t *testing.T) {
	db := newTestDB(t)
	team := createTestTeam(t, db, []uint32{1, 2}, nil, 1)
	cycle, _ := GetOrCreateActiveCycle(db, team.ID)

	if _, err := RecordRoll(db, cycle, 1, 4, 5, 2); err != nil {
		t.Fatalf("first roll: %v", err)
	}
	_, err := RecordRoll(db, cycle, 1, 6, 6, 2)
	if !errors.Is(err, ErrDuplicateRoll) {
		t.Fatalf("expected ErrDuplicateRoll, got %v", err)
	}

	var count int64
	db.Model(&models.DiceRoll{}).Where("cycle_id = ? AND user_id = ?", cycle.ID, 1).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 roll for user, got %d", count)
	}
}

func TestRecordRollCreatesTurnsWhenAllRolled(t *testing.T) {
	db := newTestDB(t)
	members := []uint32{1, 2, 3}
	team := createTestTeam(t, db, members, nil, 1)
	cycle, _ := GetOrCreateActiveCycle(db, team.ID)

	// 分值互不相同，排名唯一确定：user2 > user3 > user1
	allRolled, err := RecordRoll(db, cycle, 1, 2, 3, len(members))
	if err != nil || allRolled {
		t.Fatalf("roll 1: allRolled=%v err=%v", allRolled, err)
	}
	allRolled, err = RecordRoll(db, cycle, 2, 10, 9, len(members))
	if err != nil || allRolled {
		t.Fatalf("roll 2: allRolled=%v err=%v", allRolled, err)
	}

	// 中途不应该生成任何聚餐顺序
	var midCount int64
	db.Model(&models.MealTurn{}).Where("cycle_id = ?", cycle.ID).Count(&midCount)
	if midCount != 0 {
		t.Fatalf("turns must not exist before all members rolled, found %d", midCount)
	}

	allRolled, err = RecordRoll(db, cycle, 3, 5, 6, len(members))
	if err != nil || !allRolled {
		t.Fatalf("last roll: allRolled=%v err=%v", allRolled, err)
	}

	var turns []models.MealTurn
	if err := db.Where("cycle_id = ?", cycle.ID).Order("turn_order asc").Find(&turns).Error; err != nil {
		t.Fatalf("load turns: %v", err)
	}
	if len(turns) != len(members) {
		t.Fatalf("expected %d turns, got %d", len(members), len(turns))
	}

	wantOrder := []uint32{2, 3, 1}
	for i, turn := range turns {
		if turn.TurnOrder != i+1 {
			t.Fatalf("turn_order must be a permutation of 1..N, index %d has %d", i, turn.TurnOrder)
		}
		if turn.WeekNumber != turn.TurnOrder {
			t.Fatalf("week_number must mirror turn_order, got %d vs %d", turn.WeekNumber, turn.TurnOrder)
		}
		if turn.UserID != wantOrder[i] {
			t.Fatalf("rank %d: expected user %d, got %d", i+1, wantOrder[i], turn.UserID)
		}
		if turn.IsCompleted {
			t.Fatalf("new turns must start incomplete")
		}
	}
}

func TestCurrentTurnPicksLowestIncomplete(t *testing.T) {
	turns := []models.MealTurn{
		{ID: 1, TurnOrder: 1, IsCompleted: true},
		{ID: 2, TurnOrder: 2, IsCompleted: false},
		{ID: 3, TurnOrder: 3, IsCompleted: false},
	}
	current := CurrentTurn(turns)
	if current == nil || current.ID != 2 {
		t.Fatalf("expected turn 2 to be current, got %+v", current)
	}

	turns[1].IsCompleted = true
	turns[2].IsCompleted = true
	if CurrentTurn(turns) != nil {
		t.Fatalf("all turns completed: current turn must be nil")
	}
}
