package appsettings

import (
	"github.com/smallbiznis/shipdesk/internal/appsettings/repository"
	"github.com/smallbiznis/shipdesk/internal/appsettings/service"
	"go.uber.org/fx"
)

var Module = fx.Module("appsettings.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
