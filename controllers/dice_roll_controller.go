// file: controllers/dice_roll_controller.go
package controllers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/phyesix/team-meal/database"
	"github.com/phyesix/team-meal/dto"
	"github.com/phyesix/team-meal/models"
	"github.com/phyesix/team-meal/services"
	"github.com/phyesix/team-meal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errTeamNotFound  = errors.New("队伍不存在")
	errNotTeamMember = errors.New("你不是该队伍的成员")
)

// GetRollStatus 查询当前周期以及本人是否已掷骰
func GetRollStatus(c *gin.Context) {
	userID := c.MustGet("user_id").(uint32)
	teamID, err := strconv.Atoi(c.Query("team_id"))
	if err != nil || teamID <= 0 {
		utils.Error(c, 1002, "无效的队伍ID")
		return
	}

	cycle, err := services.FindActiveCycle(database.DB, uint32(teamID))
	if err != nil {
		utils.Error(c, 5000, "数据库错误")
		return
	}
	if cycle == nil {
		utils.Success(c, "success", gin.H{
			"active_cycle": nil,
			"user_roll":    nil,
		})
		return
	}

	var userRoll *models.DiceRoll
	var roll models.DiceRoll
	if err := database.DB.Where("cycle_id = ? AND user_id = ?", cycle.ID, userID).First(&roll).Error; err == nil {
		userRoll = &roll
	}

	var memberCount, rollCount int64
	database.DB.Model(&models.TeamMember{}).Where("team_id = ?", teamID).Count(&memberCount)
	database.DB.Model(&models.DiceRoll{}).Where("cycle_id = ?", cycle.ID).Count(&rollCount)

	utils.Success(c, "success", gin.H{
		"active_cycle": cycle,
		"user_roll":    userRoll,
		"member_count": memberCount,
		"roll_count":   rollCount,
	})
}

// SubmitRoll 提交一次掷骰
// 整个流程在一个事务内完成：锁队伍行 → 取或建活跃周期 → 写入掷骰 → 满员则生成聚餐顺序
// 队伍行锁把同队的并发掷骰串行化，保证活跃周期唯一、排序只触发一次
func SubmitRoll(c *gin.Context) {
	userID := c.MustGet("user_id").(uint32)

	var req dto.SubmitRollReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 1001, "参数无效: "+err.Error())
		return
	}

	var allRolled bool
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var team models.Team
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&team, req.TeamID).Error; err != nil {
			return errTeamNotFound
		}

		var member models.TeamMember
		if err := tx.Where("team_id = ? AND user_id = ?", team.ID, userID).First(&member).Error; err != nil {
			return errNotTeamMember
		}

		var memberCount int64
		if err := tx.Model(&models.TeamMember{}).Where("team_id = ?", team.ID).Count(&memberCount).Error; err != nil {
			return err
		}

		cycle, err := services.GetOrCreateActiveCycle(tx, team.ID)
		if err != nil {
			return err
		}

		allRolled, err = services.RecordRoll(tx, cycle, userID, req.Die1, req.Die2, int(memberCount))
		return err
	})

	if err != nil {
		switch {
		case errors.Is(err, errTeamNotFound):
			utils.Error(c, 4004, err.Error())
		case errors.Is(err, errNotTeamMember):
			utils.Error(c, 4003, err.Error())
		case errors.Is(err, services.ErrInvalidDice):
			utils.Error(c, 1001, err.Error())
		case errors.Is(err, services.ErrDuplicateRoll):
			utils.Error(c, 3001, err.Error())
		default:
			utils.Error(c, 5000, "数据库错误: "+err.Error())
		}
		return
	}

	if allRolled {
		utils.Logger.Infow("all members rolled, meal turns created",
			"team_id", req.TeamID, "user_id", userID)
	}

	utils.Success(c, "掷骰成功", gin.H{
		"all_rolled": allRolled,
	})
}
