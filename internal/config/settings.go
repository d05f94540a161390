package config

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// SettingsDefaults seeds the application settings document before an admin saves one.
type SettingsDefaults struct {
	DefaultCurrency   string                       `mapstructure:"defaultCurrency" yaml:"defaultCurrency"`
	DefaultLanguage   string                       `mapstructure:"defaultLanguage" yaml:"defaultLanguage"`
	OrderNumberPrefix string                       `mapstructure:"orderNumberPrefix" yaml:"orderNumberPrefix"`
	AutoConfirm       bool                         `mapstructure:"autoConfirm" yaml:"autoConfirm"`
	ShippingZones     []ZoneDefault                `mapstructure:"shippingZones" yaml:"shippingZones"`
	WhatsAppTemplates map[string]map[string]string `mapstructure:"whatsappTemplates" yaml:"whatsappTemplates"`
}

type ZoneDefault struct {
	Name          string   `mapstructure:"name" yaml:"name"`
	Cities        []string `mapstructure:"cities" yaml:"cities"`
	Fee           string   `mapstructure:"fee" yaml:"fee"`
	EstimatedDays int      `mapstructure:"estimatedDays" yaml:"estimatedDays"`
}

func DefaultSettings() SettingsDefaults {
	return SettingsDefaults{
		DefaultCurrency:   "USD",
		DefaultLanguage:   "en",
		OrderNumberPrefix: "ORD-",
		ShippingZones: []ZoneDefault{
			{Name: "Local", Cities: []string{}, Fee: "0", EstimatedDays: 1},
		},
		WhatsAppTemplates: map[string]map[string]string{
			"en": {
				"new":              "Hello {clientName}, we received your order {orderNumber}. Total: {total}. Thank you for shopping with {companyName}!",
				"confirmed":        "Hello {clientName}, your order {orderNumber} is confirmed.",
				"shipped":          "Hello {clientName}, your order {orderNumber} has shipped. Tracking number: {trackingNumber}.",
				"out_for_delivery": "Hello {clientName}, your order {orderNumber} is out for delivery today.",
				"delivered":        "Hello {clientName}, your order {orderNumber} was delivered. Thank you for choosing {companyName}!",
				"cancelled":        "Hello {clientName}, your order {orderNumber} was cancelled.",
			},
			"fr": {
				"new":       "Bonjour {clientName}, nous avons bien reçu votre commande {orderNumber}. Total : {total}. Merci, {companyName} !",
				"confirmed": "Bonjour {clientName}, votre commande {orderNumber} est confirmée.",
				"shipped":   "Bonjour {clientName}, votre commande {orderNumber} a été expédiée. Suivi : {trackingNumber}.",
				"delivered": "Bonjour {clientName}, votre commande {orderNumber} a été livrée. Merci de votre confiance, {companyName} !",
			},
		},
	}
}

// SettingsHolder keeps the latest valid defaults loaded from settings.yml.
type SettingsHolder struct {
	current atomic.Value // holds SettingsDefaults

	mu        sync.Mutex
	listeners []func(SettingsDefaults)
	file      string
}

func NewSettingsHolder(cfg Config, log *zap.Logger) (*SettingsHolder, error) {
	v := viper.New()

	if cfg.SettingsPath != "" {
		v.SetConfigFile(cfg.SettingsPath)
	} else {
		v.SetConfigName("settings")
		v.SetConfigType("yml")
		v.AddConfigPath(cfg.DataDir)
		v.AddConfigPath("/etc/shipdesk")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SHIPDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultSettings()
	v.SetDefault("settings.defaultCurrency", defaults.DefaultCurrency)
	v.SetDefault("settings.defaultLanguage", defaults.DefaultLanguage)
	v.SetDefault("settings.orderNumberPrefix", defaults.OrderNumberPrefix)
	v.SetDefault("settings.autoConfirm", defaults.AutoConfirm)
	v.SetDefault("settings.shippingZones", defaults.ShippingZones)
	v.SetDefault("settings.whatsappTemplates", defaults.WhatsAppTemplates)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileFound = false
	}

	cfgDefaults, err := decodeSettings(v)
	if err != nil {
		return nil, err
	}

	holder := &SettingsHolder{}
	holder.current.Store(cfgDefaults)

	if !fileFound {
		return holder, nil
	}
	holder.file = v.ConfigFileUsed()

	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeSettings(v)
		if err != nil {
			log.Warn("settings reload failed", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.Set(updated)
		log.Info("settings reloaded", zap.String("file", e.Name))
	})
	v.WatchConfig()

	return holder, nil
}

// NewStaticSettingsHolder returns a holder that never reloads.
func NewStaticSettingsHolder(defaults SettingsDefaults) *SettingsHolder {
	holder := &SettingsHolder{}
	holder.current.Store(defaults)
	return holder
}

func (h *SettingsHolder) Get() SettingsDefaults {
	return h.current.Load().(SettingsDefaults)
}

// File reports the watched settings file, empty when running on built-in defaults.
func (h *SettingsHolder) File() string {
	return h.file
}

func (h *SettingsHolder) Set(defaults SettingsDefaults) {
	h.current.Store(defaults)

	h.mu.Lock()
	listeners := append([]func(SettingsDefaults){}, h.listeners...)
	h.mu.Unlock()
	for _, fn := range listeners {
		fn(defaults)
	}
}

// OnChange registers fn to run after every successful reload.
func (h *SettingsHolder) OnChange(fn func(SettingsDefaults)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

func decodeSettings(v *viper.Viper) (SettingsDefaults, error) {
	var cfg SettingsDefaults
	if err := v.UnmarshalKey("settings", &cfg); err != nil {
		return SettingsDefaults{}, err
	}
	if err := validateSettings(cfg); err != nil {
		return SettingsDefaults{}, err
	}
	return cfg, nil
}

func validateSettings(cfg SettingsDefaults) error {
	if len(strings.TrimSpace(cfg.DefaultCurrency)) != 3 {
		return errors.New("settings.defaultCurrency must be a 3 letter code")
	}
	if strings.TrimSpace(cfg.DefaultLanguage) == "" {
		return errors.New("settings.defaultLanguage cannot be empty")
	}
	for _, zone := range cfg.ShippingZones {
		if strings.TrimSpace(zone.Name) == "" {
			return errors.New("settings.shippingZones entries need a name")
		}
	}
	return nil
}
