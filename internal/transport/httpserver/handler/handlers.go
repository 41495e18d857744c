package handler

import (
	analyticsdomain "carbon-tracker-go/internal/domain/analytics"
	catalogdomain "carbon-tracker-go/internal/domain/catalog"
	companydomain "carbon-tracker-go/internal/domain/company"
	consumptiondomain "carbon-tracker-go/internal/domain/consumption"
	"carbon-tracker-go/pkg/logger"
)

type Handlers struct {
	Consumption *consumptiondomain.Service
	Catalog     *catalogdomain.Service
	Analytics   *analyticsdomain.Service
	Companies   *companydomain.Service
	log         logger.Logger
}

func New(consumption *consumptiondomain.Service, catalog *catalogdomain.Service, analytics *analyticsdomain.Service, companies *companydomain.Service, log logger.Logger) *Handlers {
	return &Handlers{
		Consumption: consumption,
		Catalog:     catalog,
		Analytics:   analytics,
		Companies:   companies,
		log:         log,
	}
}
