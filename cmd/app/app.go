package main

import (
	"os"

	"github.com/DRSN-tech/sales-backend/internal/app"
	config "github.com/DRSN-tech/sales-backend/internal/cfg"
	"github.com/DRSN-tech/sales-backend/pkg/logger"
)

//	@title			Sales backend API
//	@version		1.0
//	@description	Каталог, корзина и оформление продаж магазина.
//	@BasePath		/api/v1

//	@securityDefinitions.apikey	IdentityID
//	@in							header
//	@name						X-Identity-Id

func main() {
	log := logger.NewSlogLogger()

	cfg, err := config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize sales backend")
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		log.Errorf(err, "sales backend stopped with error")
		os.Exit(1)
	}
}
