package shippingcompany

import (
	"github.com/smallbiznis/shipdesk/internal/shippingcompany/repository"
	"github.com/smallbiznis/shipdesk/internal/shippingcompany/service"
	"go.uber.org/fx"
)

var Module = fx.Module("shippingcompany.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
