package spreadsheet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/shipdesk/internal/audit/domain"
	clientdomain "github.com/smallbiznis/shipdesk/internal/client/domain"
	"github.com/smallbiznis/shipdesk/internal/clock"
	companydomain "github.com/smallbiznis/shipdesk/internal/company/domain"
	"github.com/smallbiznis/shipdesk/internal/fieldmap"
	"github.com/smallbiznis/shipdesk/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/shipdesk/internal/order/domain"
	"github.com/smallbiznis/shipdesk/internal/ratelimit"
	"github.com/smallbiznis/shipdesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	EntityClients = "clients"
	EntityOrders  = "orders"

	importLockTTL = 10 * time.Minute
)

var (
	ErrUnknownEntity     = errors.New("unknown_entity")
	ErrMissingColumn     = errors.New("missing_required_column")
	ErrImportInProgress  = errors.New("import_in_progress")
	ErrPDFOrdersOnly     = errors.New("pdf_export_orders_only")
	errMissingValue      = errors.New("missing value")
	errInvalidAmountCell = errors.New("invalid amount")
)

// Aliases accepted for order sheets on top of the declared field names.
var orderHeaderAliases = map[string]string{
	"city":   "cityName",
	"phone":  "clientPhone",
	"client": "clientName",
	"amount": "itemsTotal",
}

type ExportRequest struct {
	Entity   string
	Format   Format
	Status   string
	From     *time.Time
	To       *time.Time
	DemoOnly bool
}

type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type ImportRequest struct {
	Entity   string
	Filename string
	Data     []byte
}

type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

type ImportResult struct {
	BatchID        string     `json:"batchId"`
	Added          int        `json:"added"`
	Updated        int        `json:"updated"`
	Skipped        int        `json:"skipped"`
	IgnoredHeaders []string   `json:"ignoredHeaders,omitempty"`
	Errors         []RowError `json:"errors,omitempty"`
}

type Params struct {
	fx.In

	Log     *zap.Logger
	Clock   clock.Clock
	Clients clientdomain.Service
	Orders  orderdomain.Service
	Company companydomain.Service
	Audit   auditdomain.Service
	Guard   *ratelimit.Guard `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	clock   clock.Clock
	clients clientdomain.Service
	orders  orderdomain.Service
	company companydomain.Service
	audit   auditdomain.Service
	guard   *ratelimit.Guard
	metrics *metrics.Metrics
}

func New(p Params) *Service {
	return &Service{
		log:     p.Log.Named("spreadsheet.service"),
		clock:   p.Clock,
		clients: p.Clients,
		orders:  p.Orders,
		company: p.Company,
		audit:   p.Audit,
		guard:   p.Guard,
		metrics: p.Metrics,
	}
}

func entityFor(name string) (fieldmap.Entity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case EntityClients:
		return fieldmap.Client, nil
	case EntityOrders:
		return fieldmap.Order, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownEntity, name)
	}
}

func (s *Service) Export(ctx context.Context, req ExportRequest) (File, error) {
	entity, err := entityFor(req.Entity)
	if err != nil {
		return File{}, err
	}
	if req.Format == FormatXLS {
		return File{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, req.Format)
	}
	if req.Format == FormatPDF && entity != fieldmap.Order {
		return File{}, ErrPDFOrdersOnly
	}

	now := s.clock.Now()
	name := fmt.Sprintf("%s-%s.%s", entity, now.UTC().Format("20060102-150405"), req.Format)
	headers := fieldmap.Headers(entity)

	var (
		table Table
		count int
		buf   bytes.Buffer
	)
	switch entity {
	case fieldmap.Client:
		clients, err := s.allClients(ctx)
		if err != nil {
			return File{}, err
		}
		rows, err := rowsFor(headers, clients)
		if err != nil {
			return File{}, err
		}
		table, count = Table{Headers: headers, Rows: rows}, len(clients)
	case fieldmap.Order:
		orders, err := s.allOrders(ctx, req)
		if err != nil {
			return File{}, err
		}
		count = len(orders)
		if req.Format == FormatPDF {
			company, err := s.company.Get(ctx)
			if err != nil {
				return File{}, err
			}
			data, err := OrdersReport(company, orders, now)
			if err != nil {
				return File{}, err
			}
			buf.Write(data)
			break
		}
		rows, err := rowsFor(headers, orders)
		if err != nil {
			return File{}, err
		}
		table = Table{Headers: headers, Rows: rows}
	}

	switch req.Format {
	case FormatCSV:
		err = WriteCSV(&buf, table)
	case FormatXLSX:
		err = WriteXLSX(&buf, table)
	}
	if err != nil {
		return File{}, err
	}

	s.metrics.RecordExport(ctx, string(entity), string(req.Format))
	s.record(ctx, "export.created", string(entity), map[string]any{"format": string(req.Format), "rows": count})
	return File{Name: name, ContentType: req.Format.ContentType(), Data: buf.Bytes()}, nil
}

func (s *Service) allClients(ctx context.Context) ([]clientdomain.Client, error) {
	var (
		out   []clientdomain.Client
		token string
	)
	for {
		page, err := s.clients.List(ctx, clientdomain.ListClientRequest{
			Pagination: pagination.Pagination{PageToken: token, PageSize: pagination.MaxPageSize},
		})
		if err != nil {
			return nil, err
		}
		out = append(out, page.Clients...)
		if !page.HasMore || page.NextPageToken == "" {
			return out, nil
		}
		token = page.NextPageToken
	}
}

func (s *Service) allOrders(ctx context.Context, req ExportRequest) ([]orderdomain.Order, error) {
	var (
		out   []orderdomain.Order
		token string
	)
	for {
		page, err := s.orders.List(ctx, orderdomain.ListOrderRequest{
			Pagination: pagination.Pagination{PageToken: token, PageSize: pagination.MaxPageSize},
			Status:     req.Status,
			From:       req.From,
			To:         req.To,
			DemoOnly:   req.DemoOnly,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, page.Orders...)
		if !page.HasMore || page.NextPageToken == "" {
			return out, nil
		}
		token = page.NextPageToken
	}
}

// Import reads the sheet and applies each row on its own. A bad row is
// skipped and reported without affecting the others.
func (s *Service) Import(ctx context.Context, req ImportRequest) (ImportResult, error) {
	entity, err := entityFor(req.Entity)
	if err != nil {
		return ImportResult{}, err
	}
	format, err := FormatFromFilename(req.Filename)
	if err != nil {
		return ImportResult{}, err
	}
	rows, err := ReadRows(req.Data, format)
	if err != nil {
		return ImportResult{}, err
	}

	job := "import:" + string(entity)
	token, ok, err := s.guard.TryLockJob(ctx, job, importLockTTL)
	if err != nil {
		return ImportResult{}, err
	}
	if !ok {
		return ImportResult{}, ErrImportInProgress
	}
	defer func() {
		if err := s.guard.ReleaseJob(context.WithoutCancel(ctx), job, token); err != nil {
			s.log.Warn("failed to release import lock", zap.Error(err))
		}
	}()

	columns, ignored := resolveHeaders(entity, rows[0])
	result := ImportResult{
		BatchID:        ulid.MustNew(ulid.Timestamp(s.clock.Now()), ulid.DefaultEntropy()).String(),
		IgnoredHeaders: ignored,
	}

	switch entity {
	case fieldmap.Client:
		if err := requireColumns(columns, "name", "phone"); err != nil {
			return ImportResult{}, err
		}
		for i, row := range rows[1:] {
			s.importClient(ctx, &result, i+2, rowValues(columns, row))
		}
	case fieldmap.Order:
		if err := requireColumns(columns, "clientName", "clientPhone", "itemsTotal"); err != nil {
			return ImportResult{}, err
		}
		for i, row := range rows[1:] {
			s.importOrder(ctx, &result, i+2, rowValues(columns, row))
		}
	}

	s.metrics.RecordImportRows(ctx, string(entity), "added", result.Added)
	s.metrics.RecordImportRows(ctx, string(entity), "updated", result.Updated)
	s.metrics.RecordImportRows(ctx, string(entity), "skipped", result.Skipped)
	s.record(ctx, "import.completed", string(entity), map[string]any{
		"batchId":  result.BatchID,
		"filename": req.Filename,
		"added":    result.Added,
		"updated":  result.Updated,
		"skipped":  result.Skipped,
	})
	return result, nil
}

func (s *Service) importClient(ctx context.Context, result *ImportResult, line int, values map[string]string) {
	_, created, err := s.clients.UpsertByPhone(ctx, clientdomain.ClientInput{
		Name:    values["name"],
		Phone:   values["phone"],
		Email:   values["email"],
		City:    values["city"],
		Address: values["address"],
		Notes:   values["notes"],
	})
	switch {
	case err != nil:
		result.skip(line, err)
	case created:
		result.Added++
	default:
		result.Updated++
	}
}

func (s *Service) importOrder(ctx context.Context, result *ImportResult, line int, values map[string]string) {
	items, err := parseAmount(values["itemsTotal"])
	if err != nil {
		result.skip(line, fmt.Errorf("itemsTotal: %w", err))
		return
	}
	req := orderdomain.CreateOrderRequest{
		ClientName:        values["clientName"],
		ClientPhone:       values["clientPhone"],
		CityName:          values["cityName"],
		Address:           values["address"],
		StoreID:           values["storeId"],
		ShippingCompanyID: values["shippingCompanyId"],
		PaymentMethodID:   values["paymentMethodId"],
		CurrencyCode:      values["currencyCode"],
		ItemsTotal:        items,
		TrackingNumber:    values["trackingNumber"],
		Notes:             values["notes"],
		ImportBatchID:     result.BatchID,
	}
	if raw := values["shippingFee"]; raw != "" {
		fee, err := parseAmount(raw)
		if err != nil {
			result.skip(line, fmt.Errorf("shippingFee: %w", err))
			return
		}
		req.ShippingFee = &fee
	}

	if _, err := s.orders.Create(ctx, req); err != nil {
		result.skip(line, err)
		return
	}
	result.Added++
}

func (r *ImportResult) skip(line int, err error) {
	r.Skipped++
	r.Errors = append(r.Errors, RowError{Row: line, Error: err.Error()})
}

// resolveHeaders maps column positions to app field names. Read-only fields
// and unrecognised headers are ignored.
func resolveHeaders(entity fieldmap.Entity, header []string) (map[int]string, []string) {
	columns := make(map[int]string, len(header))
	var ignored []string
	for i, h := range header {
		name, ok := fieldmap.ResolveHeader(entity, h)
		if !ok && entity == fieldmap.Order {
			name, ok = orderHeaderAliases[strings.ToLower(strings.TrimSpace(h))]
		}
		if !ok || !writable(entity, name) {
			if strings.TrimSpace(h) != "" {
				ignored = append(ignored, h)
			}
			continue
		}
		columns[i] = name
	}
	return columns, ignored
}

func writable(entity fieldmap.Entity, app string) bool {
	_, err := fieldmap.PatchColumns(entity, map[string]any{app: nil})
	return err == nil
}

func requireColumns(columns map[int]string, names ...string) error {
	present := make(map[string]bool, len(columns))
	for _, name := range columns {
		present[name] = true
	}
	for _, name := range names {
		if !present[name] {
			return fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return nil
}

func rowValues(columns map[int]string, row []string) map[string]string {
	values := make(map[string]string, len(columns))
	for i, name := range columns {
		if i < len(row) {
			values[name] = strings.TrimSpace(row[i])
		}
	}
	return values
}

// parseAmount accepts "1250.50", "1 250,50" and "1,250.50".
func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if raw == "" {
		return decimal.Zero, errMissingValue
	}
	if strings.Contains(raw, ",") {
		if strings.Contains(raw, ".") {
			raw = strings.ReplaceAll(raw, ",", "")
		} else {
			raw = strings.ReplaceAll(raw, ",", ".")
		}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errInvalidAmountCell
	}
	return d, nil
}

func (s *Service) record(ctx context.Context, action, target string, metadata map[string]any) {
	if err := s.audit.Record(ctx, action, target, "", metadata); err != nil {
		s.log.Warn("failed to record activity", zap.String("action", action), zap.Error(err))
	}
}
