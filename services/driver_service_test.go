// file: services/driver_service_test.go
package services

import (
	"errors"
	"testing"

	"github.com/phyesix/team-meal/models"
)

func TestSelectDriversPicksLeastLoaded(t *testing.T) {
	// X=10 出车 3 次，Y=20 和 Z=30 各 1 次，容量 2 → 选 Y 和 Z
	carOwners := []uint32{10, 20, 30}
	counts := map[uint32]int64{10: 3, 20: 1, 30: 1}

	selected, err := SelectDrivers(carOwners, counts, 2)
	if err != nil {
		t.Fatalf("SelectDrivers: %v", err)
	}
	if len(selected) != 2 {
		t.Fatalf("expected 2 drivers, got %d", len(selected))
	}
	if selected[0] != 20 || selected[1] != 30 {
		t.Fatalf("expected [20 30], got %v", selected)
	}
}

func TestSelectDriversTieBreaksByUserID(t *testing.T) {
	carOwners := []uint32{30, 10, 20}
	counts := map[uint32]int64{10: 2, 20: 2, 30: 2}

	selected, err := SelectDrivers(carOwners, counts, 2)
	if err != nil {
		t.Fatalf("SelectDrivers: %v", err)
	}
	// 次数全部相同时按 user_id 升序，与入参顺序无关
	if selected[0] != 10 || selected[1] != 20 {
		t.Fatalf("expected [10 20], got %v", selected)
	}
}

func TestSelectDriversNoCarOwners(t *testing.T) {
	_, err := SelectDrivers(nil, nil, 2)
	if !errors.Is(err, ErrNoDrivers) {
		t.Fatalf("expected ErrNoDrivers, got %v", err)
	}
}

func TestSelectDriversCapacityExceedsOwners(t *testing.T) {
	selected, err := SelectDrivers([]uint32{7}, map[uint32]int64{7: 0}, 3)
	if err != nil {
		t.Fatalf("SelectDrivers: %v", err)
	}
	if len(selected) != 1 || selected[0] != 7 {
		t.Fatalf("expected [7], got %v", selected)
	}
}

func TestAllocateDriversAutoSelectsFairly(t *testing.T) {
	db := newTestDB(t)
	// user 1、2 有车，user 3 没车
	team := createTestTeam(t, db, []uint32{1, 2, 3}, map[uint32]bool{1: true, 2: true}, 1)

	turn := models.MealTurn{CycleID: 1, UserID: 3, TurnOrder: 1, WeekNumber: 1}
	if err := db.Create(&turn).Error; err != nil {
		t.Fatalf("create turn: %v", err)
	}

	// user 1 历史上出过一次车，这次应该轮到 user 2
	prior := models.VehicleAssignment{MealTurnID: 999, DriverID: 1}
	if err := db.Create(&prior).Error; err != nil {
		t.Fatalf("create prior assignment: %v", err)
	}

	selected, err := AllocateDrivers(db, team, turn.ID, nil)
	if err != nil {
		t.Fatalf("AllocateDrivers: %v", err)
	}
	if len(selected) != 1 || selected[0] != 2 {
		t.Fatalf("expected [2], got %v", selected)
	}

	var assignments []models.VehicleAssignment
	db.Where("meal_turn_id = ?", turn.ID).Find(&assignments)
	if len(assignments) != 1 || assignments[0].DriverID != 2 {
		t.Fatalf("expected one persisted assignment for driver 2, got %+v", assignments)
	}
}

func TestAllocateDriversNeverPicksMemberWithoutCar(t *testing.T) {
	db := newTestDB(t)
	// 容量大于有车人数：所有有车成员都被选上，没车的 user 3 永远不会入选
	team := createTestTeam(t, db, []uint32{1, 2, 3}, map[uint32]bool{1: true, 2: true}, 5)

	turn := models.MealTurn{CycleID: 1, UserID: 3, TurnOrder: 1, WeekNumber: 1}
	if err := db.Create(&turn).Error; err != nil {
		t.Fatalf("create turn: %v", err)
	}

	selected, err := AllocateDrivers(db, team, turn.ID, nil)
	if err != nil {
		t.Fatalf("AllocateDrivers: %v", err)
	}
	for _, id := range selected {
		if id == 3 {
			t.Fatalf("member without car must never be selected, got %v", selected)
		}
	}
	if len(selected) != 2 {
		t.Fatalf("expected both car owners, got %v", selected)
	}
}

func TestAllocateDriversNoCarOwners(t *testing.T) {
	db := newTestDB(t)
	team := createTestTeam(t, db, []uint32{1, 2}, nil, 1)

	_, err := AllocateDrivers(db, team, 1, nil)
	if !errors.Is(err, ErrNoDrivers) {
		t.Fatalf("expected ErrNoDrivers, got %v", err)
	}
}

func TestAllocateDriversRejectsInvalidRequestedList(t *testing.T) {
	db := newTestDB(t)
	team := createTestTeam(t, db, []uint32{1, 2, 3}, map[uint32]bool{1: true}, 2)

	// 显式给出空列表
	_, err := AllocateDrivers(db, team, 1, []uint32{})
	if !errors.Is(err, ErrInvalidDrivers) {
		t.Fatalf("empty list: expected ErrInvalidDrivers, got %v", err)
	}

	// 指定了没车的成员
	_, err = AllocateDrivers(db, team, 1, []uint32{2})
	if !errors.Is(err, ErrInvalidDrivers) {
		t.Fatalf("non car-owner: expected ErrInvalidDrivers, got %v", err)
	}

	// 重复指定同一司机
	_, err = AllocateDrivers(db, team, 1, []uint32{1, 1})
	if !errors.Is(err, ErrInvalidDrivers) {
		t.Fatalf("duplicate driver: expected ErrInvalidDrivers, got %v", err)
	}

	// 合法列表直接采纳，不做公平性调整
	selected, err := AllocateDrivers(db, team, 1, []uint32{1})
	if err != nil {
		t.Fatalf("valid list: %v", err)
	}
	if len(selected) != 1 || selected[0] != 1 {
		t.Fatalf("expected [1], got %v", selected)
	}
}
