package main

import (
	"context"

	"github.com/stufor/stufor/config"
	"github.com/stufor/stufor/forum"
	"github.com/stufor/stufor/models"
	"github.com/stufor/stufor/routes"
	"github.com/stufor/stufor/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.Thread{},
		&models.Post{},
		&models.Category{},
		&models.DeletionLog{},
		&models.VerificationToken{},
	)

	ctx := context.Background()
	if err := forum.SeedCategories(ctx, db); err != nil {
		utils.Sugar.Fatalf("category seeding failed: %v", err)
	}
	if err := forum.GrantAdmins(ctx, db, cfg.AdminUsernames); err != nil {
		utils.Sugar.Fatalf("admin grant failed: %v", err)
	}

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
