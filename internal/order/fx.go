package order

import (
	"github.com/smallbiznis/shipdesk/internal/order/repository"
	"github.com/smallbiznis/shipdesk/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(repository.NewReferenceCounter),
	fx.Provide(service.New),
)
