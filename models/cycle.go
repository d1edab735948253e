// file: models/cycle.go
package models

import (
	"time"
)

// Cycle 对应 teammeal_cycle 表
// 每个队伍同一时刻最多只有一个 is_active=true 的周期，
// 创建时必须持有队伍行锁来串行化（MySQL 不支持部分唯一索引）
type Cycle struct {
	ID          uint32     `gorm:"primarykey" json:"id"`
	TeamID      uint32     `gorm:"uniqueIndex:unique_team_cycle;not null" json:"team_id"`
	CycleNumber int        `gorm:"uniqueIndex:unique_team_cycle;not null" json:"cycle_number"`
	StartedAt   time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	IsActive    bool       `gorm:"not null;default:1" json:"is_active"`
	DiceRolls   []DiceRoll `gorm:"foreignKey:CycleID;constraint:OnDelete:CASCADE" json:"-"`
	MealTurns   []MealTurn `gorm:"foreignKey:CycleID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Cycle) TableName() string {
	return "teammeal_cycle"
}
