// file: routes/router.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/phyesix/team-meal/controllers"
	"github.com/phyesix/team-meal/middlewares"
	"github.com/phyesix/team-meal/models"
)

func SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middlewares.RequestIDMiddleware())

	apiV1 := r.Group("/api/v1")
	{
		usersPublic := apiV1.Group("/users")
		{
			usersPublic.POST("/register", controllers.Register)
			usersPublic.POST("/login", controllers.Login)
		}
		usersAuth := apiV1.Group("/users")
		usersAuth.Use(middlewares.JWTAuthMiddleware())
		{
			usersAuth.GET("/me", controllers.GetProfile)
		}

		teamRoutes := apiV1.Group("/teams")
		teamRoutes.Use(middlewares.JWTAuthMiddleware())
		{
			teamRoutes.GET("", controllers.GetTeamList)
			teamRoutes.GET("/:id/members", controllers.GetTeamMembers)
			teamRoutes.POST("/join", controllers.JoinTeam)
		}

		memberRoutes := apiV1.Group("/team-members")
		memberRoutes.Use(middlewares.JWTAuthMiddleware())
		{
			memberRoutes.PUT("/:member_id", controllers.UpdateMemberHasCar)
		}

		// --- 轮换核心路由 ---
		rotationRoutes := apiV1.Group("")
		rotationRoutes.Use(middlewares.JWTAuthMiddleware())
		{
			rotationRoutes.GET("/dice-rolls", controllers.GetRollStatus)
			rotationRoutes.POST("/dice-rolls", controllers.SubmitRoll)
			rotationRoutes.GET("/meal-turns", controllers.GetRotation)
			rotationRoutes.POST("/meal-turns/complete", controllers.CompleteTurn)
			rotationRoutes.GET("/cycles", controllers.GetCycleHistory)
			rotationRoutes.GET("/cycle-summary", controllers.GetCycleSummary)
		}

		adminTeamRoutes := apiV1.Group("/admin/teams")
		adminTeamRoutes.Use(middlewares.JWTAuthMiddleware(), middlewares.RoleAuthMiddleware(models.RoleAdmin))
		{
			adminTeamRoutes.GET("", controllers.AdminGetTeams)
			adminTeamRoutes.POST("", controllers.AdminCreateTeam)
			adminTeamRoutes.PUT("/:id", controllers.AdminUpdateTeam)
			adminTeamRoutes.DELETE("/:id", controllers.AdminDeleteTeam)
			adminTeamRoutes.DELETE("/:id/members/:user_id", controllers.AdminRemoveMember)
		}

		adminUserRoutes := apiV1.Group("/admin/users")
		adminUserRoutes.Use(middlewares.JWTAuthMiddleware(), middlewares.RoleAuthMiddleware(models.RoleAdmin))
		{
			adminUserRoutes.GET("", controllers.AdminGetUsers)
			adminUserRoutes.PUT("/:id/status", controllers.AdminUpdateUserStatus)
			adminUserRoutes.PUT("/:id/role", middlewares.RoleAuthMiddleware(models.RoleRootAdmin), controllers.AdminUpdateUserRole)
		}
	}

	return r
}
