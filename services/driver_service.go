// file: services/driver_service.go
package services

import (
	"errors"
	"sort"

	"github.com/phyesix/team-meal/models"
	"gorm.io/gorm"
)

var (
	ErrNoDrivers      = errors.New("队伍中没有有车的成员")
	ErrInvalidDrivers = errors.New("指定的司机必须是本队有车的成员")
)

// SelectDrivers 从有车成员中选出本次聚餐的司机
// 按历史出车次数升序贪心选择，次数相同时按 user_id 升序保证确定性
// 不做长期全局均衡，只保证每次指派时累计差距最小
func SelectDrivers(carOwners []uint32, driveCounts map[uint32]int64, capacity int) ([]uint32, error) {
	if len(carOwners) == 0 {
		return nil, ErrNoDrivers
	}

	sorted := make([]uint32, len(carOwners))
	copy(sorted, carOwners)
	sort.SliceStable(sorted, func(i, j int) bool {
		if driveCounts[sorted[i]] != driveCounts[sorted[j]] {
			return driveCounts[sorted[i]] < driveCounts[sorted[j]]
		}
		return sorted[i] < sorted[j]
	})

	n := capacity
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n], nil
}

// CountDrives 统计全部历史出车次数（跨所有周期），从未出车的成员计为 0
func CountDrives(tx *gorm.DB, carOwners []uint32) (map[uint32]int64, error) {
	counts := make(map[uint32]int64, len(carOwners))
	for _, id := range carOwners {
		counts[id] = 0
	}

	type row struct {
		DriverID uint32
		Cnt      int64
	}
	var rows []row
	err := tx.Model(&models.VehicleAssignment{}).
		Select("driver_id, COUNT(*) as cnt").
		Group("driver_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if _, ok := counts[r.DriverID]; ok {
			counts[r.DriverID] = r.Cnt
		}
	}
	return counts, nil
}

// AllocateDrivers 为一次聚餐指派司机并写入指派记录
// requested 为 nil 时自动按最少出车次数选择（默认策略，保证公平性）；
// 调用方显式给出司机列表时只校验其为本队有车成员，不做公平性检查
func AllocateDrivers(tx *gorm.DB, team *models.Team, turnID uint32, requested []uint32) ([]uint32, error) {
	var members []models.TeamMember
	err := tx.Where("team_id = ? AND has_car = ?", team.ID, true).
		Order("user_id asc").
		Find(&members).Error
	if err != nil {
		return nil, err
	}

	carOwners := make([]uint32, 0, len(members))
	ownerSet := make(map[uint32]bool, len(members))
	for _, m := range members {
		carOwners = append(carOwners, m.UserID)
		ownerSet[m.UserID] = true
	}
	if len(carOwners) == 0 {
		return nil, ErrNoDrivers
	}

	var selected []uint32
	if requested != nil {
		if len(requested) == 0 {
			return nil, ErrInvalidDrivers
		}
		seen := make(map[uint32]bool, len(requested))
		for _, id := range requested {
			if !ownerSet[id] || seen[id] {
				return nil, ErrInvalidDrivers
			}
			seen[id] = true
		}
		selected = requested
	} else {
		counts, err := CountDrives(tx, carOwners)
		if err != nil {
			return nil, err
		}
		selected, err = SelectDrivers(carOwners, counts, team.VehicleCapacity)
		if err != nil {
			return nil, err
		}
	}

	assignments := make([]models.VehicleAssignment, 0, len(selected))
	for _, driverID := range selected {
		assignments = append(assignments, models.VehicleAssignment{
			MealTurnID: turnID,
			DriverID:   driverID,
		})
	}
	if err := tx.Create(&assignments).Error; err != nil {
		return nil, err
	}
	return selected, nil
}
