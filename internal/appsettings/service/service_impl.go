package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/shipdesk/internal/appsettings/domain"
	auditdomain "github.com/smallbiznis/shipdesk/internal/audit/domain"
	"github.com/smallbiznis/shipdesk/internal/cache"
	citydomain "github.com/smallbiznis/shipdesk/internal/city/domain"
	"github.com/smallbiznis/shipdesk/internal/clock"
	companydomain "github.com/smallbiznis/shipdesk/internal/company/domain"
	"github.com/smallbiznis/shipdesk/internal/config"
	"github.com/smallbiznis/shipdesk/internal/fieldmap"
	"github.com/smallbiznis/shipdesk/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/shipdesk/internal/order/domain"
	"github.com/smallbiznis/shipdesk/pkg/db/option"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Defaults *config.SettingsHolder
	Cities   citydomain.Service
	Company  companydomain.Service
	Audit    auditdomain.Service
	Cache    *cache.SettingsCache `optional:"true"`
	Metrics  *metrics.Metrics     `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	defaults *config.SettingsHolder
	cities   citydomain.Service
	company  companydomain.Service
	audit    auditdomain.Service
	cache    *cache.SettingsCache
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	s := &Service{
		log:      p.Log.Named("appsettings.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		defaults: p.Defaults,
		cities:   p.Cities,
		company:  p.Company,
		audit:    p.Audit,
		cache:    p.Cache,
		metrics:  p.Metrics,
	}
	if p.Defaults != nil {
		p.Defaults.OnChange(func(config.SettingsDefaults) {
			s.cache.Invalidate(context.Background(), cache.KeyAppSettings)
		})
	}
	return s
}

func (s *Service) Get(ctx context.Context) (domain.AppSettings, error) {
	var cached domain.AppSettings
	if s.cache.Load(ctx, cache.KeyAppSettings, &cached) {
		return cached, nil
	}

	row, err := s.load(ctx)
	if err != nil {
		return domain.AppSettings{}, err
	}
	settings := s.fromDefaults()
	if row != nil {
		settings = *row
	}
	s.cache.Store(ctx, cache.KeyAppSettings, settings)
	return settings, nil
}

func (s *Service) Save(ctx context.Context, req domain.SaveAppSettingsRequest) (domain.AppSettings, error) {
	current, base, err := s.current(ctx)
	if err != nil {
		return domain.AppSettings{}, err
	}

	next := base
	next.DefaultCurrency = req.DefaultCurrency
	next.DefaultLanguage = req.DefaultLanguage
	next.OrderNumberPrefix = req.OrderNumberPrefix
	next.AutoConfirm = req.AutoConfirm
	next.ShippingZones = datatypes.JSONSlice[domain.ShippingZone](req.ShippingZones)
	next.WhatsAppTemplates = datatypes.NewJSONType(req.WhatsAppTemplates)
	next, err = normalize(next)
	if err != nil {
		return domain.AppSettings{}, err
	}

	return s.persist(ctx, current, next, next.Columns(), "app_settings.updated")
}

func (s *Service) Patch(ctx context.Context, fields map[string]any) (domain.AppSettings, error) {
	if _, err := fieldmap.PatchColumns(fieldmap.AppSettings, fields); err != nil {
		return domain.AppSettings{}, err
	}
	current, base, err := s.current(ctx)
	if err != nil {
		return domain.AppSettings{}, err
	}

	next, err := fieldmap.Apply(fieldmap.AppSettings, base, fields)
	if err != nil {
		return domain.AppSettings{}, err
	}
	next, err = normalize(next)
	if err != nil {
		return domain.AppSettings{}, err
	}

	columns, err := fieldmap.Select(fieldmap.AppSettings, next.Columns(), fields)
	if err != nil {
		return domain.AppSettings{}, err
	}
	return s.persist(ctx, current, next, columns, "app_settings.patched")
}

func (s *Service) Zones(ctx context.Context) ([]domain.ShippingZone, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	return append([]domain.ShippingZone{}, settings.ShippingZones...), nil
}

func (s *Service) AddZone(ctx context.Context, zone domain.ShippingZone) (domain.ShippingZone, error) {
	zone, err := normalizeZone(zone)
	if err != nil {
		return domain.ShippingZone{}, err
	}
	current, base, err := s.current(ctx)
	if err != nil {
		return domain.ShippingZone{}, err
	}
	if base.Zone(zone.Name) >= 0 {
		return domain.ShippingZone{}, domain.ErrDuplicateZone
	}

	next := base
	next.ShippingZones = append(append(datatypes.JSONSlice[domain.ShippingZone]{}, base.ShippingZones...), zone)
	if _, err := s.persist(ctx, current, next, map[string]any{"shipping_zones": next.ShippingZones}, "app_settings.zone_added"); err != nil {
		return domain.ShippingZone{}, err
	}
	return zone, nil
}

func (s *Service) UpdateZone(ctx context.Context, name string, zone domain.ShippingZone) (domain.ShippingZone, error) {
	zone, err := normalizeZone(zone)
	if err != nil {
		return domain.ShippingZone{}, err
	}
	current, base, err := s.current(ctx)
	if err != nil {
		return domain.ShippingZone{}, err
	}
	idx := base.Zone(name)
	if idx < 0 {
		return domain.ShippingZone{}, domain.ErrZoneNotFound
	}
	if other := base.Zone(zone.Name); other >= 0 && other != idx {
		return domain.ShippingZone{}, domain.ErrDuplicateZone
	}

	next := base
	next.ShippingZones = append(datatypes.JSONSlice[domain.ShippingZone]{}, base.ShippingZones...)
	next.ShippingZones[idx] = zone
	if _, err := s.persist(ctx, current, next, map[string]any{"shipping_zones": next.ShippingZones}, "app_settings.zone_updated"); err != nil {
		return domain.ShippingZone{}, err
	}
	return zone, nil
}

func (s *Service) DeleteZone(ctx context.Context, name string) error {
	current, base, err := s.current(ctx)
	if err != nil {
		return err
	}
	idx := base.Zone(name)
	if idx < 0 {
		return domain.ErrZoneNotFound
	}

	next := base
	zones := make(datatypes.JSONSlice[domain.ShippingZone], 0, len(base.ShippingZones)-1)
	zones = append(zones, base.ShippingZones[:idx]...)
	zones = append(zones, base.ShippingZones[idx+1:]...)
	next.ShippingZones = zones
	_, err = s.persist(ctx, current, next, map[string]any{"shipping_zones": next.ShippingZones}, "app_settings.zone_deleted")
	return err
}

func (s *Service) QuoteShipping(ctx context.Context, city string) (domain.ShippingQuote, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return domain.ShippingQuote{}, domain.ErrNoShippingRate
	}
	settings, err := s.Get(ctx)
	if err != nil {
		return domain.ShippingQuote{}, err
	}
	for _, zone := range settings.ShippingZones {
		if zone.Covers(city) {
			return domain.ShippingQuote{
				City:          city,
				Fee:           zone.Fee,
				EstimatedDays: zone.EstimatedDays,
				Zone:          zone.Name,
				Source:        domain.QuoteSourceZone,
			}, nil
		}
	}

	if s.cities == nil {
		return domain.ShippingQuote{}, domain.ErrNoShippingRate
	}
	match, err := s.cities.FindByName(ctx, city)
	if err != nil {
		if errors.Is(err, citydomain.ErrNotFound) || errors.Is(err, citydomain.ErrInvalidName) {
			return domain.ShippingQuote{}, domain.ErrNoShippingRate
		}
		return domain.ShippingQuote{}, err
	}
	return domain.ShippingQuote{City: match.Name, Fee: match.DeliveryFee, Source: domain.QuoteSourceCity}, nil
}

func (s *Service) Templates(ctx context.Context, lang string) (map[string]string, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	lang = normalizeLang(lang, settings.DefaultLanguage)
	templates, ok := settings.WhatsAppTemplates.Data()[lang]
	if !ok {
		return nil, domain.ErrTemplateNotFound
	}
	out := make(map[string]string, len(templates))
	for k, v := range templates {
		out[k] = v
	}
	return out, nil
}

// SetTemplates replaces the templates of one language. Empty texts are dropped.
func (s *Service) SetTemplates(ctx context.Context, lang string, templates map[string]string) (map[string]string, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return nil, domain.ErrInvalidLanguage
	}
	cleaned := make(map[string]string, len(templates))
	for status, text := range templates {
		if _, ok := orderdomain.ParseStatus(status); !ok {
			return nil, domain.ErrInvalidStatus
		}
		if text = strings.TrimSpace(text); text != "" {
			cleaned[status] = text
		}
	}

	current, base, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	all := domain.Templates{}
	for k, v := range base.WhatsAppTemplates.Data() {
		all[k] = v
	}
	if len(cleaned) == 0 {
		delete(all, lang)
	} else {
		all[lang] = cleaned
	}

	next := base
	next.WhatsAppTemplates = datatypes.NewJSONType(all)
	if _, err := s.persist(ctx, current, next, map[string]any{"whatsapp_templates": next.WhatsAppTemplates}, "app_settings.templates_updated"); err != nil {
		return nil, err
	}
	return cleaned, nil
}

// RenderWhatsApp fills the order's status template. It falls back to the
// default language when lang has no template for that status.
func (s *Service) RenderWhatsApp(ctx context.Context, order orderdomain.Order, lang string) (string, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return "", err
	}
	all := settings.WhatsAppTemplates.Data()
	status := string(order.Status)

	text, ok := all[normalizeLang(lang, settings.DefaultLanguage)][status]
	if !ok {
		text, ok = all[strings.ToLower(settings.DefaultLanguage)][status]
	}
	if !ok {
		return "", domain.ErrTemplateNotFound
	}

	var companyName string
	if s.company != nil {
		info, err := s.company.Get(ctx)
		if err != nil {
			return "", err
		}
		companyName = info.Name
	}
	return Render(text, order, companyName), nil
}

// Render substitutes the supported placeholders in text.
func Render(text string, order orderdomain.Order, companyName string) string {
	total := order.Total.StringFixed(2)
	if order.CurrencyCode != "" {
		total += " " + order.CurrencyCode
	}
	return strings.NewReplacer(
		"{clientName}", order.ClientName,
		"{orderNumber}", order.OrderNumber,
		"{status}", strings.ReplaceAll(string(order.Status), "_", " "),
		"{total}", total,
		"{trackingNumber}", order.TrackingNumber,
		"{companyName}", companyName,
	).Replace(text)
}

func (s *Service) load(ctx context.Context) (*domain.AppSettings, error) {
	return s.repo.FindOne(ctx, nil, option.OrderBy("created_at asc"))
}

// current returns the stored row (nil before first save) and the document
// edits should start from.
func (s *Service) current(ctx context.Context) (*domain.AppSettings, domain.AppSettings, error) {
	row, err := s.load(ctx)
	if err != nil {
		return nil, domain.AppSettings{}, err
	}
	if row == nil {
		return nil, s.fromDefaults(), nil
	}
	return row, *row, nil
}

func (s *Service) persist(ctx context.Context, current *domain.AppSettings, next domain.AppSettings, columns map[string]any, action string) (domain.AppSettings, error) {
	now := s.clock.Now()
	next.UpdatedAt = now
	if current == nil {
		next.ID = s.genID.Generate()
		next.CreatedAt = now
		if err := s.repo.Create(ctx, &next); err != nil {
			return domain.AppSettings{}, err
		}
	} else {
		columns["updated_at"] = now
		if err := s.repo.Update(ctx, next.ID, columns); err != nil {
			return domain.AppSettings{}, err
		}
	}

	s.cache.Invalidate(ctx, cache.KeyAppSettings)
	s.metrics.RecordSettingsChange(ctx, "app_settings", action)
	if err := s.audit.Record(ctx, action, "app_settings", next.ID.String(), fieldmap.ToAppLenient(fieldmap.AppSettings, columns)); err != nil {
		s.log.Warn("failed to record activity", zap.String("action", action), zap.Error(err))
	}
	return next, nil
}

func (s *Service) fromDefaults() domain.AppSettings {
	d := config.DefaultSettings()
	if s.defaults != nil {
		d = s.defaults.Get()
	}

	zones := make(datatypes.JSONSlice[domain.ShippingZone], 0, len(d.ShippingZones))
	for _, z := range d.ShippingZones {
		fee, err := decimal.NewFromString(strings.TrimSpace(z.Fee))
		if err != nil {
			s.log.Warn("ignoring invalid zone fee in settings defaults", zap.String("zone", z.Name), zap.String("fee", z.Fee))
			fee = decimal.Zero
		}
		zones = append(zones, domain.ShippingZone{
			Name:          z.Name,
			Cities:        append([]string{}, z.Cities...),
			Fee:           fee,
			EstimatedDays: z.EstimatedDays,
		})
	}
	templates := domain.Templates{}
	for lang, byStatus := range d.WhatsAppTemplates {
		copied := make(map[string]string, len(byStatus))
		for k, v := range byStatus {
			copied[k] = v
		}
		templates[strings.ToLower(lang)] = copied
	}

	return domain.AppSettings{
		DefaultCurrency:   strings.ToUpper(d.DefaultCurrency),
		DefaultLanguage:   strings.ToLower(d.DefaultLanguage),
		OrderNumberPrefix: d.OrderNumberPrefix,
		AutoConfirm:       d.AutoConfirm,
		ShippingZones:     zones,
		WhatsAppTemplates: datatypes.NewJSONType(templates),
	}
}

func normalize(s domain.AppSettings) (domain.AppSettings, error) {
	s.DefaultCurrency = strings.ToUpper(strings.TrimSpace(s.DefaultCurrency))
	if len(s.DefaultCurrency) != 3 {
		return s, domain.ErrInvalidCurrency
	}
	s.DefaultLanguage = strings.ToLower(strings.TrimSpace(s.DefaultLanguage))
	if s.DefaultLanguage == "" {
		return s, domain.ErrInvalidLanguage
	}
	s.OrderNumberPrefix = strings.TrimSpace(s.OrderNumberPrefix)

	seen := map[string]bool{}
	zones := make(datatypes.JSONSlice[domain.ShippingZone], 0, len(s.ShippingZones))
	for _, z := range s.ShippingZones {
		zone, err := normalizeZone(z)
		if err != nil {
			return s, err
		}
		key := strings.ToLower(zone.Name)
		if seen[key] {
			return s, domain.ErrDuplicateZone
		}
		seen[key] = true
		zones = append(zones, zone)
	}
	s.ShippingZones = zones

	templates, err := normalizeTemplates(s.WhatsAppTemplates.Data())
	if err != nil {
		return s, err
	}
	s.WhatsAppTemplates = datatypes.NewJSONType(templates)
	return s, nil
}

// normalizeTemplates lower-cases language keys the same way lookups do and
// drops blank texts. Keys that are empty or collide once normalized are
// rejected.
func normalizeTemplates(in domain.Templates) (domain.Templates, error) {
	out := make(domain.Templates, len(in))
	for lang, byStatus := range in {
		key := strings.ToLower(strings.TrimSpace(lang))
		if key == "" {
			return nil, domain.ErrInvalidLanguage
		}
		if _, dup := out[key]; dup {
			return nil, domain.ErrInvalidLanguage
		}
		cleaned := make(map[string]string, len(byStatus))
		for status, text := range byStatus {
			if _, ok := orderdomain.ParseStatus(status); !ok {
				return nil, domain.ErrInvalidStatus
			}
			if text = strings.TrimSpace(text); text != "" {
				cleaned[status] = text
			}
		}
		out[key] = cleaned
	}
	for lang, byStatus := range out {
		if len(byStatus) == 0 {
			delete(out, lang)
		}
	}
	return out, nil
}

func normalizeZone(z domain.ShippingZone) (domain.ShippingZone, error) {
	z.Name = strings.TrimSpace(z.Name)
	if z.Name == "" || z.Fee.IsNegative() || z.EstimatedDays < 0 {
		return z, domain.ErrInvalidZone
	}
	cities := make([]string, 0, len(z.Cities))
	for _, c := range z.Cities {
		if c = strings.TrimSpace(c); c != "" {
			cities = append(cities, c)
		}
	}
	z.Cities = cities
	return z, nil
}

func normalizeLang(lang, fallback string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return strings.ToLower(strings.TrimSpace(fallback))
	}
	return lang
}
