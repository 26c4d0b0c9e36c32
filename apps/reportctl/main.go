package main

import (
	"log"
	"os"

	"github.com/trezcool/escolar/core"
	"github.com/trezcool/escolar/core/report"
	"github.com/trezcool/escolar/services/logger"
	"github.com/trezcool/escolar/services/pdf"
	"github.com/trezcool/escolar/storage/database"
	"github.com/trezcool/escolar/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "REPORTCTL : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig(core.Getwd())
	errAndDie(err)

	var appLogger core.Logger
	if conf.RollbarToken != "" {
		appLogger = logsvc.NewRollbarLogger(logger, conf)
	} else {
		appLogger = logsvc.NewConsoleLogger(logger)
	}

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()

	entityRepo := sqlxrepos.NewEntityRepository(db, report.DefaultAliases())
	templateRepo := sqlxrepos.NewTemplateRepository(db)
	renderer := pdfsvc.NewService(conf)

	// start CLI
	cli := commandLine{
		svc:     report.NewService(conf, entityRepo, templateRepo, renderer, appLogger),
		tplRepo: templateRepo,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
