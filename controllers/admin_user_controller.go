// file: controllers/admin_user_controller.go
package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/phyesix/team-meal/database"
	"github.com/phyesix/team-meal/models"
	"github.com/phyesix/team-meal/utils"
)

// AdminGetUsers 管理员分页查询用户
func AdminGetUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var users []models.User
	var total int64

	db := database.DB.Model(&models.User{})
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		db = db.Where("username LIKE ? OR email LIKE ? OR full_name LIKE ?", like, like, like)
	}
	db.Count(&total)
	db.Order("id asc").Offset((page - 1) * limit).Limit(limit).Find(&users)

	utils.Success(c, "success", gin.H{
		"total": total,
		"users": users,
	})
}

// AdminUpdateUserRole 修改用户角色，仅 root_admin 可操作
func AdminUpdateUserRole(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 1002, "无效的用户ID")
		return
	}

	var req struct {
		Role models.UserRole `json:"role" binding:"required,oneof=user admin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 1001, "无效的角色值")
		return
	}

	result := database.DB.Model(&models.User{}).Where("id = ?", userID).Update("role", req.Role)
	if result.Error != nil {
		utils.Error(c, 5000, "更新用户角色失败")
		return
	}
	if result.RowsAffected == 0 {
		utils.Error(c, 4004, "用户不存在")
		return
	}

	utils.Success(c, "User role updated successfully", gin.H{
		"user_id": userID,
		"role":    req.Role,
	})
}

// AdminUpdateUserStatus 封禁或解封用户
func AdminUpdateUserStatus(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 1002, "无效的用户ID")
		return
	}

	var req struct {
		Status models.UserStatus `json:"status" binding:"required,oneof=active banned"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 1001, "无效的状态值")
		return
	}

	result := database.DB.Model(&models.User{}).Where("id = ?", userID).Update("status", req.Status)
	if result.Error != nil {
		utils.Error(c, 5000, "更新用户状态失败")
		return
	}
	if result.RowsAffected == 0 {
		utils.Error(c, 4004, "用户不存在")
		return
	}

	utils.Success(c, "User status updated successfully", gin.H{
		"user_id": userID,
		"status":  req.Status,
	})
}
