// file: services/rotation_service.go
package services

import (
	"errors"
	"sort"
	"time"

	"github.com/phyesix/team-meal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidDice   = errors.New("骰子点数必须在 1 到 10 之间")
	ErrDuplicateRoll = errors.New("本周期已经掷过骰子")
)

// forUpdate 在支持的方言上给查询加行锁
// sqlite（测试环境）是单写者，不支持也不需要 FOR UPDATE
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// FindActiveCycle 查询队伍当前的活跃周期
// 不存在时返回 (nil, nil)，避免调用方到处判断 gorm.ErrRecordNotFound
func FindActiveCycle(tx *gorm.DB, teamID uint32) (*models.Cycle, error) {
	var cycle models.Cycle
	err := tx.Where("team_id = ? AND is_active = ?", teamID, true).First(&cycle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cycle, nil
}

// GetOrCreateActiveCycle 返回活跃周期，不存在时创建下一个周期
// 必须在事务中调用，且调用前需持有队伍行锁，否则并发掷骰可能创建出两个活跃周期
func GetOrCreateActiveCycle(tx *gorm.DB, teamID uint32) (*models.Cycle, error) {
	cycle, err := FindActiveCycle(tx, teamID)
	if err != nil {
		return nil, err
	}
	if cycle != nil {
		return cycle, nil
	}
	return createNextCycle(tx, teamID)
}

// createNextCycle 按 max(cycle_number)+1 的规则创建新的活跃周期
func createNextCycle(tx *gorm.DB, teamID uint32) (*models.Cycle, error) {
	var maxNumber int
	err := tx.Model(&models.Cycle{}).
		Where("team_id = ?", teamID).
		Select("COALESCE(MAX(cycle_number), 0)").
		Scan(&maxNumber).Error
	if err != nil {
		return nil, err
	}

	cycle := models.Cycle{
		TeamID:      teamID,
		CycleNumber: maxNumber + 1,
		StartedAt:   time.Now(),
		IsActive:    true,
	}
	if err := tx.Create(&cycle).Error; err != nil {
		return nil, err
	}
	return &cycle, nil
}

// CompleteCycle 结束一个周期并立刻开启下一个周期
// 两步在同一事务内完成，队伍在第一次掷骰之后永远不会处于没有周期的状态
func CompleteCycle(tx *gorm.DB, cycle *models.Cycle) (*models.Cycle, error) {
	now := time.Now()
	err := tx.Model(cycle).Updates(map[string]interface{}{
		"is_active":    false,
		"completed_at": now,
	}).Error
	if err != nil {
		return nil, err
	}
	return createNextCycle(tx, cycle.TeamID)
}

// RankRolls 对一个周期的全部掷骰结果排序，返回新切片，不修改入参
// 排序规则：total 降序 → die1 降序 → rolled_at 升序（先掷者赢下剩余平局）
// 给定同一组结果，排序完全确定，随机性只存在于骰子点数本身
func RankRolls(rolls []models.DiceRoll) []models.DiceRoll {
	ranked := make([]models.DiceRoll, len(rolls))
	copy(ranked, rolls)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Total != ranked[j].Total {
			return ranked[i].Total > ranked[j].Total
		}
		if ranked[i].Die1 != ranked[j].Die1 {
			return ranked[i].Die1 > ranked[j].Die1
		}
		return ranked[i].RolledAt.Before(ranked[j].RolledAt)
	})
	return ranked
}

// RecordRoll 记录一次掷骰，若这是最后一名成员的掷骰则在同一事务内生成全部聚餐顺序
// 返回 allRolled 表示掷骰集合是否已完整
// 必须在事务中调用且调用前持有队伍行锁，(cycle_id, user_id) 唯一索引兜底防重
func RecordRoll(tx *gorm.DB, cycle *models.Cycle, userID uint32, die1, die2, memberCount int) (bool, error) {
	if die1 < 1 || die1 > 10 || die2 < 1 || die2 > 10 {
		return false, ErrInvalidDice
	}

	var existing models.DiceRoll
	err := tx.Where("cycle_id = ? AND user_id = ?", cycle.ID, userID).First(&existing).Error
	if err == nil {
		return false, ErrDuplicateRoll
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	roll := models.DiceRoll{
		CycleID:  cycle.ID,
		UserID:   userID,
		Die1:     die1,
		Die2:     die2,
		Total:    die1 + die2,
		RolledAt: time.Now(),
	}
	if err := tx.Create(&roll).Error; err != nil {
		return false, err
	}

	var rollCount int64
	if err := tx.Model(&models.DiceRoll{}).Where("cycle_id = ?", cycle.ID).Count(&rollCount).Error; err != nil {
		return false, err
	}

	// 精确等于而不是 >=，被移出队伍的成员留下的孤儿掷骰不应该触发排序
	allRolled := rollCount == int64(memberCount)
	if allRolled {
		if err := createMealTurns(tx, cycle.ID); err != nil {
			return false, err
		}
	}
	return allRolled, nil
}

// createMealTurns 按掷骰排名批量生成本周期的聚餐顺序，每个周期只会执行一次
func createMealTurns(tx *gorm.DB, cycleID uint32) error {
	var rolls []models.DiceRoll
	if err := tx.Where("cycle_id = ?", cycleID).Find(&rolls).Error; err != nil {
		return err
	}

	ranked := RankRolls(rolls)
	turns := make([]models.MealTurn, 0, len(ranked))
	for i, roll := range ranked {
		turns = append(turns, models.MealTurn{
			CycleID:    cycleID,
			UserID:     roll.UserID,
			TurnOrder:  i + 1,
			WeekNumber: i + 1,
		})
	}
	return tx.Create(&turns).Error
}

// CurrentTurn 返回 turn_order 最小的未完成聚餐，全部完成时返回 nil
// 入参需已按 turn_order 升序排列
func CurrentTurn(turns []models.MealTurn) *models.MealTurn {
	for i := range turns {
		if !turns[i].IsCompleted {
			return &turns[i]
		}
	}
	return nil
}
