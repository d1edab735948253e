// file: services/summary_service.go
package services

import (
	"errors"
	"sort"

	"github.com/phyesix/team-meal/dto"
	"github.com/phyesix/team-meal/models"
	"gorm.io/gorm"
)

var ErrCycleNotFound = errors.New("周期不存在")

// FindLatestCompletedCycle 返回队伍最近结束的一个周期，不存在时返回 (nil, nil)
func FindLatestCompletedCycle(tx *gorm.DB, teamID uint32) (*models.Cycle, error) {
	var cycle models.Cycle
	err := tx.Where("team_id = ? AND is_active = ?", teamID, false).
		Order("completed_at desc").
		First(&cycle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cycle, nil
}

// BuildCycleSummary 汇总一个周期：去过的餐厅、司机出车统计、总量
// 展示用的姓名查不到时退化为空串，不影响汇总本身
func BuildCycleSummary(tx *gorm.DB, cycleID uint32) (*dto.CycleSummaryResp, error) {
	var cycle models.Cycle
	err := tx.First(&cycle, cycleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCycleNotFound
	}
	if err != nil {
		return nil, err
	}

	var team models.Team
	if err := tx.First(&team, cycle.TeamID).Error; err != nil {
		return nil, err
	}

	var turns []models.MealTurn
	err = tx.Where("cycle_id = ?", cycleID).Order("turn_order asc").Find(&turns).Error
	if err != nil {
		return nil, err
	}

	turnIDs := make([]uint32, 0, len(turns))
	for _, t := range turns {
		turnIDs = append(turnIDs, t.ID)
	}

	var assignments []models.VehicleAssignment
	if len(turnIDs) > 0 {
		err = tx.Where("meal_turn_id IN ?", turnIDs).Find(&assignments).Error
		if err != nil {
			return nil, err
		}
	}

	names := lookupDisplayNames(tx, turns, assignments)

	restaurants := make([]dto.RestaurantVisit, 0, len(turns))
	for _, t := range turns {
		if t.RestaurantName == nil {
			continue
		}
		var date *string
		if t.MealDate != nil {
			d := t.MealDate.Format("2006-01-02")
			date = &d
		}
		restaurants = append(restaurants, dto.RestaurantVisit{
			Name: *t.RestaurantName,
			Date: date,
			Host: names[t.UserID],
		})
	}

	statMap := make(map[uint32]int64)
	for _, a := range assignments {
		statMap[a.DriverID]++
	}
	driverStats := make([]dto.DriverStat, 0, len(statMap))
	for driverID, count := range statMap {
		driverStats = append(driverStats, dto.DriverStat{Name: names[driverID], Count: count})
	}
	sort.SliceStable(driverStats, func(i, j int) bool {
		if driverStats[i].Count != driverStats[j].Count {
			return driverStats[i].Count > driverStats[j].Count
		}
		return driverStats[i].Name < driverStats[j].Name
	})

	summary := &dto.CycleSummaryResp{
		CycleID:     cycle.ID,
		CycleNumber: cycle.CycleNumber,
		TeamName:    team.TeamName,
		StartedAt:   cycle.StartedAt.Format("2006-01-02 15:04:05"),
		Restaurants: restaurants,
		DriverStats: driverStats,
		TotalMeals:  len(turns),
		TotalDrives: len(assignments),
	}
	if cycle.CompletedAt != nil {
		completed := cycle.CompletedAt.Format("2006-01-02 15:04:05")
		summary.CompletedAt = &completed
	}
	return summary, nil
}

// lookupDisplayNames 批量查出涉及用户的展示名，查询失败只影响展示
func lookupDisplayNames(tx *gorm.DB, turns []models.MealTurn, assignments []models.VehicleAssignment) map[uint32]string {
	idSet := make(map[uint32]bool)
	for _, t := range turns {
		idSet[t.UserID] = true
	}
	for _, a := range assignments {
		idSet[a.DriverID] = true
	}
	ids := make([]uint32, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	names := make(map[uint32]string, len(ids))
	if len(ids) == 0 {
		return names
	}
	var users []models.User
	if err := tx.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return names
	}
	for _, u := range users {
		names[u.ID] = u.DisplayName()
	}
	return names
}
