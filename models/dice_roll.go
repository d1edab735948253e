// file: models/dice_roll.go
package models

import (
	"time"
)

// DiceRoll 对应 teammeal_dice_roll 表，每人每周期只能掷一次，写入后不可修改
type DiceRoll struct {
	ID       uint64    `gorm:"primarykey" json:"id"`
	CycleID  uint32    `gorm:"uniqueIndex:unique_cycle_user;not null" json:"cycle_id"`
	UserID   uint32    `gorm:"uniqueIndex:unique_cycle_user;not null" json:"user_id"`
	Die1     int       `gorm:"not null" json:"die1"`
	Die2     int       `gorm:"not null" json:"die2"`
	Total    int       `gorm:"not null" json:"total"`
	RolledAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"rolled_at"`
}

func (DiceRoll) TableName() string {
	return "teammeal_dice_roll"
}
