// file: services/turn_service.go
package services

import (
	"errors"
	"time"

	"github.com/phyesix/team-meal/models"
	"gorm.io/gorm"
)

var (
	ErrTurnNotFound  = errors.New("聚餐安排不存在")
	ErrNotYourTurn   = errors.New("还没轮到你选餐厅")
	ErrTurnCompleted = errors.New("本次聚餐已经完成")
)

// CompleteTurn 完成一次聚餐：写入餐厅和日期、指派司机，
// 若这是周期内最后一次聚餐则结束周期并开启下一个周期
// 所有写入在同一事务内，司机指派失败时餐厅信息也不会落库
// 返回本次调用是否顺带完成了整个周期，以及被指派的司机
func CompleteTurn(tx *gorm.DB, team *models.Team, turnID, userID uint32, restaurantName string, mealDate *time.Time, requestedDrivers []uint32) (bool, []uint32, error) {
	var turn models.MealTurn
	err := forUpdate(tx).First(&turn, turnID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil, ErrTurnNotFound
	}
	if err != nil {
		return false, nil, err
	}

	// 周期行锁串行化完成检查，避免最后两次聚餐并发完成时都看不到对方
	var cycle models.Cycle
	if err := forUpdate(tx).First(&cycle, turn.CycleID).Error; err != nil {
		return false, nil, err
	}
	if cycle.TeamID != team.ID {
		return false, nil, ErrTurnNotFound
	}

	if turn.UserID != userID {
		return false, nil, ErrNotYourTurn
	}
	if turn.IsCompleted {
		return false, nil, ErrTurnCompleted
	}

	now := time.Now()
	result := tx.Model(&models.MealTurn{}).
		Where("id = ? AND is_completed = ?", turnID, false).
		Updates(map[string]interface{}{
			"restaurant_name": restaurantName,
			"meal_date":       mealDate,
			"is_completed":    true,
			"completed_at":    now,
		})
	if result.Error != nil {
		return false, nil, result.Error
	}
	// 条件更新兜底，关闭读检查和写入之间的竞态窗口
	if result.RowsAffected == 0 {
		return false, nil, ErrTurnCompleted
	}

	drivers, err := AllocateDrivers(tx, team, turn.ID, requestedDrivers)
	if err != nil {
		return false, nil, err
	}

	var remaining int64
	err = tx.Model(&models.MealTurn{}).
		Where("cycle_id = ? AND is_completed = ?", turn.CycleID, false).
		Count(&remaining).Error
	if err != nil {
		return false, nil, err
	}

	cycleCompleted := remaining == 0
	if cycleCompleted {
		if _, err := CompleteCycle(tx, &cycle); err != nil {
			return false, nil, err
		}
	}
	return cycleCompleted, drivers, nil
}
