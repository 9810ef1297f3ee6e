package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"

	"github.com/dmitrijs2005/tokenvault/internal/flagx"
	"github.com/dmitrijs2005/tokenvault/internal/server/config"
	"github.com/dmitrijs2005/tokenvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tokenvault/internal/server/services"
	"github.com/dmitrijs2005/tokenvault/internal/userctl"
)

func main() {

	args := flagx.FilterArgs(os.Args[1:], []string{"-l"})
	fs := flag.NewFlagSet("userctl", flag.ExitOnError)
	username := fs.String("l", "", "login of the user to register")
	if err := fs.Parse(args); err != nil {
		log.Fatalf("%v", err)
	}

	ctx := context.Background()
	cfg := config.LoadConfig()

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close()

	manager := repomanager.NewPostgresRepositoryManager()
	if err := manager.RunMigrations(ctx, db); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	app := userctl.NewApp(services.NewUserService(db, manager, cfg), os.Stdout)
	if err := app.Run(ctx, *username); err != nil {
		log.Fatalf("%v", err)
	}

}
