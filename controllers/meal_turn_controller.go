// file: controllers/meal_turn_controller.go
package controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phyesix/team-meal/database"
	"github.com/phyesix/team-meal/dto"
	"github.com/phyesix/team-meal/models"
	"github.com/phyesix/team-meal/services"
	"github.com/phyesix/team-meal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetRotation 查询队伍当前的轮换状态：全部聚餐顺序和当前轮到谁
func GetRotation(c *gin.Context) {
	userID := c.MustGet("user_id").(uint32)
	teamID, err := strconv.Atoi(c.Query("team_id"))
	if err != nil || teamID <= 0 {
		utils.Error(c, 1002, "无效的队伍ID")
		return
	}

	var team models.Team
	if err := database.DB.First(&team, teamID).Error; err != nil {
		utils.Error(c, 4004, "队伍不存在")
		return
	}

	cycle, err := services.FindActiveCycle(database.DB, team.ID)
	if err != nil {
		utils.Error(c, 5000, "数据库错误")
		return
	}
	if cycle == nil {
		utils.Success(c, "success", gin.H{
			"team":         team,
			"meal_turns":   []dto.TurnItemResp{},
			"current_turn": nil,
		})
		return
	}

	var turns []models.MealTurn
	err = database.DB.Where("cycle_id = ?", cycle.ID).Order("turn_order asc").Find(&turns).Error
	if err != nil {
		utils.Error(c, 5000, "数据库错误")
		return
	}

	// 展示名查询失败只影响显示，不作为错误返回
	names := make(map[uint32]string, len(turns))
	userIDs := make([]uint32, 0, len(turns))
	for _, t := range turns {
		userIDs = append(userIDs, t.UserID)
	}
	var users []models.User
	if len(userIDs) > 0 {
		if err := database.DB.Where("id IN ?", userIDs).Find(&users).Error; err == nil {
			for _, u := range users {
				names[u.ID] = u.DisplayName()
			}
		}
	}

	items := make([]dto.TurnItemResp, 0, len(turns))
	for _, t := range turns {
		var mealDate *string
		if t.MealDate != nil {
			d := t.MealDate.Format("2006-01-02")
			mealDate = &d
		}
		items = append(items, dto.TurnItemResp{
			ID:             t.ID,
			UserID:         t.UserID,
			UserName:       names[t.UserID],
			TurnOrder:      t.TurnOrder,
			WeekNumber:     t.WeekNumber,
			RestaurantName: t.RestaurantName,
			MealDate:       mealDate,
			IsCompleted:    t.IsCompleted,
		})
	}

	current := services.CurrentTurn(turns)
	var currentItem *dto.TurnItemResp
	isCurrentUser := false
	if current != nil {
		for i := range items {
			if items[i].ID == current.ID {
				currentItem = &items[i]
				break
			}
		}
		isCurrentUser = current.UserID == userID
	}

	utils.Success(c, "success", gin.H{
		"team":            team,
		"cycle":           cycle,
		"meal_turns":      items,
		"current_turn":    currentItem,
		"is_current_user": isCurrentUser,
	})
}

// CompleteTurn 完成本人的聚餐安排：提交餐厅和日期，同一事务内指派司机，
// 若周期内全部聚餐完成则顺带结束周期并开启下一个周期
func CompleteTurn(c *gin.Context) {
	userID := c.MustGet("user_id").(uint32)

	var req dto.CompleteTurnReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 1001, "参数无效: "+err.Error())
		return
	}

	var mealDate *time.Time
	if req.MealDate != "" {
		d, err := time.Parse("2006-01-02", req.MealDate)
		if err != nil {
			utils.Error(c, 1001, "聚餐日期格式应为 2006-01-02")
			return
		}
		mealDate = &d
	}

	var cycleCompleted bool
	var drivers []uint32
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var team models.Team
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&team, req.TeamID).Error; err != nil {
			return errTeamNotFound
		}

		var err error
		cycleCompleted, drivers, err = services.CompleteTurn(tx, &team, req.TurnID, userID,
			req.RestaurantName, mealDate, req.Drivers)
		return err
	})

	if err != nil {
		switch {
		case errors.Is(err, errTeamNotFound), errors.Is(err, services.ErrTurnNotFound):
			utils.Error(c, 4004, err.Error())
		case errors.Is(err, services.ErrNotYourTurn):
			utils.Error(c, 4003, err.Error())
		case errors.Is(err, services.ErrTurnCompleted):
			utils.Error(c, 4005, err.Error())
		case errors.Is(err, services.ErrNoDrivers):
			utils.Error(c, 4006, err.Error())
		case errors.Is(err, services.ErrInvalidDrivers):
			utils.Error(c, 4007, err.Error())
		default:
			utils.Error(c, 5000, "数据库错误: "+err.Error())
		}
		return
	}

	if cycleCompleted {
		invalidateSummaryCache()
		utils.Logger.Infow("cycle completed, next cycle opened",
			"team_id", req.TeamID, "turn_id", req.TurnID)
	}

	utils.Success(c, "聚餐已完成", gin.H{
		"cycle_completed": cycleCompleted,
		"drivers":         drivers,
	})
}

// invalidateSummaryCache 清空周期汇总缓存，保证结束周期后立即能查到最新汇总
func invalidateSummaryCache() {
	keys, err := database.RDB.Keys(database.Ctx, "cycle_summary:*").Result()
	if err == nil && len(keys) > 0 {
		database.RDB.Del(database.Ctx, keys...)
	}
}
