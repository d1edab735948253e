// file: controllers/admin_team_controller.go
package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/phyesix/team-meal/database"
	"github.com/phyesix/team-meal/models"
	"github.com/phyesix/team-meal/utils"
	"gorm.io/gorm"
)

// AdminGetTeams 管理员分页查询队伍
func AdminGetTeams(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	search := c.Query("search")

	var teams []models.Team
	var total int64

	db := database.DB.Model(&models.Team{})
	if search != "" {
		db = db.Where("team_name LIKE ?", "%"+search+"%")
	}
	db.Count(&total)
	db.Order("id desc").Offset((page - 1) * limit).Limit(limit).Find(&teams)

	type TeamInfo struct {
		ID              uint32 `json:"id"`
		TeamName        string `json:"team_name"`
		MaxMembers      int    `json:"max_members"`
		VehicleCapacity int    `json:"vehicle_capacity"`
		InvitationCode  string `json:"invitation_code"`
		MemberCount     int64  `json:"member_count"`
	}

	var resultTeams []TeamInfo
	for _, team := range teams {
		var memberCount int64
		database.DB.Model(&models.TeamMember{}).Where("team_id = ?", team.ID).Count(&memberCount)
		resultTeams = append(resultTeams, TeamInfo{
			ID:              team.ID,
			TeamName:        team.TeamName,
			MaxMembers:      team.MaxMembers,
			VehicleCapacity: team.VehicleCapacity,
			InvitationCode:  team.InvitationCode,
			MemberCount:     memberCount,
		})
	}

	utils.Success(c, "success", gin.H{
		"total": total,
		"teams": resultTeams,
	})
}

// AdminCreateTeam 管理员创建队伍，邀请码自动生成
func AdminCreateTeam(c *gin.Context) {
	userID := c.MustGet("user_id").(uint32)

	var req struct {
		TeamName        string `json:"team_name" binding:"required"`
		MaxMembers      int    `json:"max_members" binding:"required,min=2"`
		VehicleCapacity int    `json:"vehicle_capacity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 1001, "参数无效: "+err.Error())
		return
	}
	if req.VehicleCapacity <= 0 {
		req.VehicleCapacity = 1
	}

	var existingTeam models.Team
	if err := database.DB.Where("team_name = ?", req.TeamName).First(&existingTeam).Error; err == nil {
		utils.Error(c, 3001, "Team name already exists")
		return
	}

	newTeam := models.Team{
		TeamName:        req.TeamName,
		MaxMembers:      req.MaxMembers,
		VehicleCapacity: req.VehicleCapacity,
		InvitationCode:  utils.GenerateInvitationCode(12),
		CreatedBy:       userID,
	}
	if err := database.DB.Create(&newTeam).Error; err != nil {
		utils.Error(c, 5000, "创建队伍失败: "+err.Error())
		return
	}

	utils.Success(c, "Team created successfully", gin.H{
		"id":               newTeam.ID,
		"team_name":        newTeam.TeamName,
		"max_members":      newTeam.MaxMembers,
		"vehicle_capacity": newTeam.VehicleCapacity,
		"invitation_code":  newTeam.InvitationCode,
	})
}

// AdminUpdateTeam 管理员修改队伍容量配置
func AdminUpdateTeam(c *gin.Context) {
	teamID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 1002, "无效的队伍ID")
		return
	}

	var req struct {
		TeamName        string `json:"team_name"`
		MaxMembers      int    `json:"max_members"`
		VehicleCapacity int    `json:"vehicle_capacity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 1001, "参数无效")
		return
	}

	var team models.Team
	if err := database.DB.First(&team, teamID).Error; err != nil {
		utils.Error(c, 4004, "队伍不存在")
		return
	}

	updates := map[string]interface{}{}
	if req.TeamName != "" {
		updates["team_name"] = req.TeamName
	}
	if req.MaxMembers > 0 {
		// 不允许把上限改到低于现有成员数
		var memberCount int64
		database.DB.Model(&models.TeamMember{}).Where("team_id = ?", team.ID).Count(&memberCount)
		if int64(req.MaxMembers) < memberCount {
			utils.Error(c, 1001, "max_members 不能小于当前成员数")
			return
		}
		updates["max_members"] = req.MaxMembers
	}
	if req.VehicleCapacity > 0 {
		updates["vehicle_capacity"] = req.VehicleCapacity
	}
	if len(updates) == 0 {
		utils.Error(c, 1001, "没有需要更新的字段")
		return
	}

	if err := database.DB.Model(&team).Updates(updates).Error; err != nil {
		utils.Error(c, 5000, "更新队伍信息失败")
		return
	}

	utils.Success(c, "Team updated successfully", nil)
}

// AdminDeleteTeam 管理员删除队伍，连带删除成员、周期、掷骰和聚餐记录
func AdminDeleteTeam(c *gin.Context) {
	teamID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 1002, "无效的队伍ID")
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var cycles []models.Cycle
		if err := tx.Where("team_id = ?", teamID).Find(&cycles).Error; err != nil {
			return err
		}
		for _, cy := range cycles {
			var turnIDs []uint32
			tx.Model(&models.MealTurn{}).Where("cycle_id = ?", cy.ID).Pluck("id", &turnIDs)
			if len(turnIDs) > 0 {
				if err := tx.Where("meal_turn_id IN ?", turnIDs).Delete(&models.VehicleAssignment{}).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("cycle_id = ?", cy.ID).Delete(&models.MealTurn{}).Error; err != nil {
				return err
			}
			if err := tx.Where("cycle_id = ?", cy.ID).Delete(&models.DiceRoll{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("team_id = ?", teamID).Delete(&models.Cycle{}).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", teamID).Delete(&models.TeamMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Team{}, teamID).Error
	})
	if err != nil {
		utils.Error(c, 5000, "删除队伍失败: "+err.Error())
		return
	}

	utils.Success(c, "Team deleted successfully by admin", nil)
}

// AdminRemoveMember 管理员将成员移出队伍
func AdminRemoveMember(c *gin.Context) {
	teamID, _ := strconv.Atoi(c.Param("id"))
	memberUserID, _ := strconv.Atoi(c.Param("user_id"))

	result := database.DB.Where("team_id = ? AND user_id = ?", teamID, memberUserID).Delete(&models.TeamMember{})
	if result.Error != nil {
		utils.Error(c, 5000, "移除队员失败")
		return
	}
	if result.RowsAffected == 0 {
		utils.Error(c, 3007, "Member not found in this team")
		return
	}

	utils.Success(c, "Member removed successfully", nil)
}
