// Package seed bootstraps the records a fresh installation needs: the first
// admin account and the default currency.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appsettingsdomain "github.com/smallbiznis/shipdesk/internal/appsettings/domain"
	authdomain "github.com/smallbiznis/shipdesk/internal/auth/domain"
	"github.com/smallbiznis/shipdesk/internal/config"
	currencydomain "github.com/smallbiznis/shipdesk/internal/currency/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var currencyNames = map[string][2]string{
	"MAD": {"Moroccan Dirham", "DH"},
	"EUR": {"Euro", "€"},
	"USD": {"US Dollar", "$"},
}

type Params struct {
	fx.In

	Config     config.Config
	Log        *zap.Logger
	Users      authdomain.Service
	Currencies currencydomain.Service
	Settings   appsettingsdomain.Service
}

type Seeder struct {
	cfg        config.Config
	log        *zap.Logger
	users      authdomain.Service
	currencies currencydomain.Service
	settings   appsettingsdomain.Service
}

func New(p Params) *Seeder {
	return &Seeder{
		cfg:        p.Config,
		log:        p.Log.Named("seed"),
		users:      p.Users,
		currencies: p.Currencies,
		settings:   p.Settings,
	}
}

func (s *Seeder) Run(ctx context.Context) error {
	if err := s.EnsureAdmin(ctx); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if err := s.EnsureDefaultCurrency(ctx); err != nil {
		return fmt.Errorf("seed currency: %w", err)
	}
	return nil
}

// EnsureAdmin creates the bootstrap admin when no user exists. Without a
// configured password a random one is generated and logged once.
func (s *Seeder) EnsureAdmin(ctx context.Context) error {
	pass := s.cfg.BootstrapAdminPassword
	generated := pass == ""
	if generated {
		pass = strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	}

	created, err := s.users.EnsureAdmin(ctx, s.cfg.BootstrapAdminUser, pass)
	if err != nil || !created {
		return err
	}
	if generated {
		s.log.Warn("created bootstrap admin with a generated password",
			zap.String("username", s.cfg.BootstrapAdminUser),
			zap.String("password", pass),
		)
		return nil
	}
	s.log.Info("created bootstrap admin", zap.String("username", s.cfg.BootstrapAdminUser))
	return nil
}

// EnsureDefaultCurrency creates the settings' default currency when the
// currency table is empty.
func (s *Seeder) EnsureDefaultCurrency(ctx context.Context) error {
	_, err := s.currencies.Default(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, currencydomain.ErrNotFound) {
		return err
	}

	existing, err := s.currencies.List(ctx, false)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return err
	}
	code := strings.ToUpper(settings.DefaultCurrency)
	name, symbol := code, code
	if known, ok := currencyNames[code]; ok {
		name, symbol = known[0], known[1]
	}
	_, err = s.currencies.Create(ctx, currencydomain.CreateCurrencyRequest{
		Code:         code,
		Name:         name,
		Symbol:       symbol,
		ExchangeRate: decimal.NewFromInt(1),
		IsDefault:    true,
	})
	if err != nil {
		return err
	}
	s.log.Info("created default currency", zap.String("code", code))
	return nil
}
