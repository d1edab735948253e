// file: controllers/cycle_controller.go
package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phyesix/team-meal/database"
	"github.com/phyesix/team-meal/dto"
	"github.com/phyesix/team-meal/models"
	"github.com/phyesix/team-meal/services"
	"github.com/phyesix/team-meal/utils"
)

// GetCycleHistory 查询队伍的全部周期历史及每个周期的完成进度
func GetCycleHistory(c *gin.Context) {
	userID := c.MustGet("user_id").(uint32)
	teamID, err := strconv.Atoi(c.Query("team_id"))
	if err != nil || teamID <= 0 {
		utils.Error(c, 1002, "无效的队伍ID")
		return
	}

	var member models.TeamMember
	if err := database.DB.Where("team_id = ? AND user_id = ?", teamID, userID).First(&member).Error; err != nil {
		utils.Error(c, 4003, "你不是该队伍的成员")
		return
	}

	var cycles []models.Cycle
	err = database.DB.Where("team_id = ?", teamID).Order("cycle_number desc").Find(&cycles).Error
	if err != nil {
		utils.Error(c, 5000, "数据库错误")
		return
	}
	if len(cycles) == 0 {
		utils.Success(c, "success", gin.H{"cycles": []dto.CycleStatsResp{}})
		return
	}

	cycleIDs := make([]uint32, 0, len(cycles))
	for _, cy := range cycles {
		cycleIDs = append(cycleIDs, cy.ID)
	}
	var turns []models.MealTurn
	err = database.DB.Where("cycle_id IN ?", cycleIDs).Order("turn_order asc").Find(&turns).Error
	if err != nil {
		utils.Error(c, 5000, "数据库错误")
		return
	}

	stats := make([]dto.CycleStatsResp, 0, len(cycles))
	for _, cy := range cycles {
		item := dto.CycleStatsResp{
			ID:          cy.ID,
			CycleNumber: cy.CycleNumber,
			IsActive:    cy.IsActive,
			StartedAt:   cy.StartedAt.Format("2006-01-02 15:04:05"),
			Restaurants: []string{},
		}
		if cy.CompletedAt != nil {
			completed := cy.CompletedAt.Format("2006-01-02 15:04:05")
			item.CompletedAt = &completed
		}
		for _, t := range turns {
			if t.CycleID != cy.ID {
				continue
			}
			item.TotalTurns++
			if t.IsCompleted {
				item.CompletedTurns++
			}
			if t.RestaurantName != nil {
				item.TotalRestaurants++
				if len(item.Restaurants) < 3 {
					item.Restaurants = append(item.Restaurants, *t.RestaurantName)
				}
			}
		}
		stats = append(stats, item)
	}

	utils.Success(c, "success", gin.H{"cycles": stats})
}

// GetCycleSummary 查询周期汇总（餐厅、司机出车统计）
// 优先读 Redis 缓存，未命中时从数据库聚合并回填，周期结束时缓存会被整体清掉
func GetCycleSummary(c *gin.Context) {
	cycleIDStr := c.Query("cycle_id")
	teamIDStr := c.Query("team_id")

	var cycleID uint32
	if cycleIDStr != "" {
		id, err := strconv.Atoi(cycleIDStr)
		if err != nil || id <= 0 {
			utils.Error(c, 1002, "无效的周期ID")
			return
		}
		cycleID = uint32(id)
	} else if teamIDStr != "" {
		teamID, err := strconv.Atoi(teamIDStr)
		if err != nil || teamID <= 0 {
			utils.Error(c, 1002, "无效的队伍ID")
			return
		}
		// 缺省取该队伍最近结束的周期
		cycle, err := services.FindLatestCompletedCycle(database.DB, uint32(teamID))
		if err != nil {
			utils.Error(c, 5000, "数据库错误")
			return
		}
		if cycle == nil {
			utils.Error(c, 4004, "该队伍还没有已结束的周期")
			return
		}
		cycleID = cycle.ID
	} else {
		utils.Error(c, 1001, "cycle_id 或 team_id 必须提供一个")
		return
	}

	cacheKey := fmt.Sprintf("cycle_summary:%d", cycleID)
	val, err := database.RDB.Get(database.Ctx, cacheKey).Result()
	if err == nil {
		var cached dto.CycleSummaryResp
		if json.Unmarshal([]byte(val), &cached) == nil {
			utils.Success(c, "success (from cache)", cached)
			return
		}
	}

	summary, err := services.BuildCycleSummary(database.DB, cycleID)
	if err != nil {
		if errors.Is(err, services.ErrCycleNotFound) {
			utils.Error(c, 4004, err.Error())
			return
		}
		utils.Error(c, 5000, "数据库错误")
		return
	}

	if jsonData, err := json.Marshal(summary); err == nil {
		database.RDB.Set(database.Ctx, cacheKey, jsonData, 60*time.Second)
	}

	utils.Success(c, "success", summary)
}
