// file: dto/rotation.go
package dto

// ========== 请求 DTO ==========

type SubmitRollReq struct {
	TeamID uint32 `json:"team_id" binding:"required"`
	Die1   int    `json:"die1" binding:"required"`
	Die2   int    `json:"die2" binding:"required"`
}

type CompleteTurnReq struct {
	TeamID         uint32   `json:"team_id" binding:"required"`
	TurnID         uint32   `json:"turn_id" binding:"required"`
	RestaurantName string   `json:"restaurant_name" binding:"required"`
	MealDate       string   `json:"meal_date"` // 2006-01-02
	Drivers        []uint32 `json:"drivers"`   // 缺省时按最少出车次数自动指派
}

// ========== 响应 DTO ==========

type TurnItemResp struct {
	ID             uint32  `json:"id"`
	UserID         uint32  `json:"user_id"`
	UserName       string  `json:"user_name"`
	TurnOrder      int     `json:"turn_order"`
	WeekNumber     int     `json:"week_number"`
	RestaurantName *string `json:"restaurant_name"`
	MealDate       *string `json:"meal_date"`
	IsCompleted    bool    `json:"is_completed"`
}

type CycleStatsResp struct {
	ID               uint32   `json:"id"`
	CycleNumber      int      `json:"cycle_number"`
	IsActive         bool     `json:"is_active"`
	StartedAt        string   `json:"started_at"`
	CompletedAt      *string  `json:"completed_at"`
	TotalTurns       int      `json:"total_turns"`
	CompletedTurns   int      `json:"completed_turns"`
	Restaurants      []string `json:"restaurants"` // 最多展示前 3 家
	TotalRestaurants int      `json:"total_restaurants"`
}

type RestaurantVisit struct {
	Name string  `json:"name"`
	Date *string `json:"date"`
	Host string  `json:"host"`
}

type DriverStat struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type CycleSummaryResp struct {
	CycleID     uint32            `json:"cycle_id"`
	CycleNumber int               `json:"cycle_number"`
	TeamName    string            `json:"team_name"`
	StartedAt   string            `json:"started_at"`
	CompletedAt *string           `json:"completed_at"`
	Restaurants []RestaurantVisit `json:"restaurants"`
	DriverStats []DriverStat      `json:"driver_stats"`
	TotalMeals  int               `json:"total_meals"`
	TotalDrives int               `json:"total_drives"`
}
