// file: models/vehicle_assignment.go
package models

import (
	"time"
)

// VehicleAssignment 对应 teammeal_vehicle_assignment 表，
// 一条记录表示某次聚餐指派了一名司机，每次聚餐最多 vehicle_capacity 条
type VehicleAssignment struct {
	ID         uint64    `gorm:"primarykey" json:"id"`
	MealTurnID uint32    `gorm:"index;not null" json:"meal_turn_id"`
	DriverID   uint32    `gorm:"index;not null" json:"driver_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func (VehicleAssignment) TableName() string {
	return "teammeal_vehicle_assignment"
}
