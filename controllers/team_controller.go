// file: controllers/team_controller.go
package controllers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phyesix/team-meal/database"
	"github.com/phyesix/team-meal/models"
	"github.com/phyesix/team-meal/utils"
)

// GetTeamList 查询全部队伍和成员数
func GetTeamList(c *gin.Context) {
	var teams []models.Team
	if err := database.DB.Order("created_at desc").Find(&teams).Error; err != nil {
		utils.Error(c, 5000, "数据库错误")
		return
	}

	type TeamInfo struct {
		ID              uint32 `json:"id"`
		TeamName        string `json:"team_name"`
		MaxMembers      int    `json:"max_members"`
		VehicleCapacity int    `json:"vehicle_capacity"`
		MemberCount     int64  `json:"member_count"`
	}

	result := make([]TeamInfo, 0, len(teams))
	for _, team := range teams {
		var memberCount int64
		database.DB.Model(&models.TeamMember{}).Where("team_id = ?", team.ID).Count(&memberCount)
		result = append(result, TeamInfo{
			ID:              team.ID,
			TeamName:        team.TeamName,
			MaxMembers:      team.MaxMembers,
			VehicleCapacity: team.VehicleCapacity,
			MemberCount:     memberCount,
		})
	}

	utils.Success(c, "success", gin.H{"teams": result})
}

// GetTeamMembers 查询队伍成员列表（含是否有车）
func GetTeamMembers(c *gin.Context) {
	teamID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 1002, "无效的队伍ID")
		return
	}

	var members []models.TeamMember
	err = database.DB.Preload("User").Where("team_id = ?", teamID).
		Order("joined_at asc").Find(&members).Error
	if err != nil {
		utils.Error(c, 5000, "数据库错误")
		return
	}

	type MemberInfo struct {
		ID       uint32    `json:"id"`
		UserID   uint32    `json:"user_id"`
		UserName string    `json:"user_name"`
		HasCar   bool      `json:"has_car"`
		JoinedAt time.Time `json:"joined_at"`
	}
	result := make([]MemberInfo, 0, len(members))
	for _, m := range members {
		result = append(result, MemberInfo{
			ID:       m.ID,
			UserID:   m.UserID,
			UserName: m.User.DisplayName(),
			HasCar:   m.HasCar,
			JoinedAt: m.JoinedAt,
		})
	}

	utils.Success(c, "success", gin.H{"members": result})
}

// JoinTeam 通过邀请码加入队伍
func JoinTeam(c *gin.Context) {
	userID := c.MustGet("user_id").(uint32)

	var req struct {
		InvitationCode string `json:"invitation_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 1001, "参数无效")
		return
	}

	var targetTeam models.Team
	if err := database.DB.Where("invitation_code = ?", req.InvitationCode).First(&targetTeam).Error; err != nil {
		utils.Error(c, 3004, "Invalid invitation code")
		return
	}

	var existing models.TeamMember
	if err := database.DB.Where("team_id = ? AND user_id = ?", targetTeam.ID, userID).First(&existing).Error; err == nil {
		utils.Error(c, 3001, "你已经是该队伍的成员")
		return
	}

	var memberCount int64
	database.DB.Model(&models.TeamMember{}).Where("team_id = ?", targetTeam.ID).Count(&memberCount)
	if memberCount >= int64(targetTeam.MaxMembers) {
		utils.Error(c, 3009, "队伍已满")
		return
	}

	newMember := models.TeamMember{
		TeamID:   targetTeam.ID,
		UserID:   userID,
		JoinedAt: time.Now(),
	}
	if err := database.DB.Create(&newMember).Error; err != nil {
		utils.Error(c, 5000, "加入队伍失败")
		return
	}

	utils.Success(c, "Joined team successfully", gin.H{
		"team_id":   targetTeam.ID,
		"team_name": targetTeam.TeamName,
	})
}

// UpdateMemberHasCar 更新成员是否有车，本人或管理员可操作
// 司机指派只会从 has_car=true 的成员中选择
func UpdateMemberHasCar(c *gin.Context) {
	memberID, err := strconv.Atoi(c.Param("member_id"))
	if err != nil {
		utils.Error(c, 1002, "无效的成员ID")
		return
	}
	userID := c.MustGet("user_id").(uint32)
	role := c.MustGet("user_role").(models.UserRole)

	var req struct {
		HasCar *bool `json:"has_car" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 1001, "has_car 必须为布尔值")
		return
	}

	var member models.TeamMember
	if err := database.DB.First(&member, memberID).Error; err != nil {
		utils.Error(c, 4004, "成员不存在")
		return
	}

	isAdmin := role == models.RoleAdmin || role == models.RoleRootAdmin
	if member.UserID != userID && !isAdmin {
		utils.Error(c, 4003, "权限不足")
		return
	}

	if err := database.DB.Model(&member).Update("has_car", *req.HasCar).Error; err != nil {
		utils.Error(c, 5000, "更新失败")
		return
	}

	utils.Success(c, "Member updated successfully", gin.H{
		"member_id": member.ID,
		"has_car":   *req.HasCar,
	})
}
