package client

import (
	"github.com/smallbiznis/shipdesk/internal/client/repository"
	"github.com/smallbiznis/shipdesk/internal/client/service"
	"go.uber.org/fx"
)

var Module = fx.Module("client.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
