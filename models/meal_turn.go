// file: models/meal_turn.go
package models

import (
	"time"
)

// MealTurn 对应 teammeal_meal_turn 表
// 同一周期内 turn_order 是 1..N 的排列，在最后一名成员掷骰后一次性批量创建
type MealTurn struct {
	ID             uint32     `gorm:"primarykey" json:"id"`
	CycleID        uint32     `gorm:"uniqueIndex:unique_cycle_order;not null" json:"cycle_id"`
	UserID         uint32     `gorm:"not null" json:"user_id"`
	TurnOrder      int        `gorm:"uniqueIndex:unique_cycle_order;not null" json:"turn_order"`
	WeekNumber     int        `gorm:"not null" json:"week_number"`
	RestaurantName *string    `gorm:"size:100" json:"restaurant_name"`
	MealDate       *time.Time `json:"meal_date"`
	IsCompleted    bool       `gorm:"not null;default:0" json:"is_completed"`
	CompletedAt    *time.Time `json:"completed_at"`

	VehicleAssignments []VehicleAssignment `gorm:"foreignKey:MealTurnID;constraint:OnDelete:CASCADE" json:"-"`
}

func (MealTurn) TableName() string {
	return "teammeal_meal_turn"
}
