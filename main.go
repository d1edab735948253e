// file: main.go
package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/phyesix/team-meal/database"
	"github.com/phyesix/team-meal/routes"
	"github.com/phyesix/team-meal/utils"
)

func main() {
	// .env 不存在时直接用环境变量
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	utils.InitLogger()
	defer utils.Logger.Sync()

	database.Connect()
	database.InitRedis()

	if os.Getenv("AUTO_MIGRATE") == "1" {
		database.MigrateTables()
	}

	r := routes.SetupRouter()

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	log.Println("Starting server on " + addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
