package city

import (
	"github.com/smallbiznis/shipdesk/internal/city/repository"
	"github.com/smallbiznis/shipdesk/internal/city/service"
	"go.uber.org/fx"
)

var Module = fx.Module("city.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
