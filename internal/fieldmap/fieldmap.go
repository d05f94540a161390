// Package fieldmap translates record field names between the camelCase names
// used by API clients and spreadsheets and the snake_case column names used by
// the database.
package fieldmap

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

var (
	ErrUnknownEntity = errors.New("unknown_entity")
	ErrUnknownField  = errors.New("unknown_field")
	ErrReadOnlyField = errors.New("read_only_field")
	ErrInvalidValue  = errors.New("invalid_value")
)

type Entity string

const (
	CompanyInfo     Entity = "company_info"
	AppSettings     Entity = "app_settings"
	PaymentMethod   Entity = "payment_methods"
	Currency        Entity = "currencies"
	Store           Entity = "stores"
	City            Entity = "cities"
	ShippingCompany Entity = "shipping_companies"
	User            Entity = "users"
	ActivityLog     Entity = "activity_logs"
	Client          Entity = "clients"
	Order           Entity = "orders"
)

// Field pairs an application-side name with its storage column.
type Field struct {
	App      string
	Column   string
	ReadOnly bool
}

// Mapping is the field table for one entity. Field order is the export order.
type Mapping struct {
	entity    Entity
	fields    []Field
	toColumn  map[string]string
	toApp     map[string]string
	readOnly  map[string]struct{}
	byLowered map[string]string
}

func newMapping(entity Entity, fields ...Field) *Mapping {
	m := &Mapping{
		entity:    entity,
		fields:    fields,
		toColumn:  make(map[string]string, len(fields)),
		toApp:     make(map[string]string, len(fields)),
		readOnly:  map[string]struct{}{},
		byLowered: make(map[string]string, len(fields)*2),
	}
	for _, f := range fields {
		if _, dup := m.toColumn[f.App]; dup {
			panic(fmt.Sprintf("fieldmap: duplicate app field %s.%s", entity, f.App))
		}
		if _, dup := m.toApp[f.Column]; dup {
			panic(fmt.Sprintf("fieldmap: duplicate column %s.%s", entity, f.Column))
		}
		m.toColumn[f.App] = f.Column
		m.toApp[f.Column] = f.App
		if f.ReadOnly {
			m.readOnly[f.App] = struct{}{}
		}
		m.byLowered[normalizeHeader(f.App)] = f.App
		m.byLowered[normalizeHeader(f.Column)] = f.App
	}
	return m
}

func (m *Mapping) Entity() Entity { return m.entity }

func (m *Mapping) Fields() []Field {
	out := make([]Field, len(m.fields))
	copy(out, m.fields)
	return out
}

// Lookup returns the mapping table for entity.
func Lookup(entity Entity) (*Mapping, error) {
	m, ok := registry[entity]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	return m, nil
}

// Entities lists every registered entity in a stable order.
func Entities() []Entity {
	out := make([]Entity, 0, len(registry))
	for e := range registry {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ToStorage renames app-named keys to columns, rejecting keys outside the table.
func ToStorage(entity Entity, in map[string]any) (map[string]any, error) {
	m, err := Lookup(entity)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		column, ok := m.toColumn[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, entity, key)
		}
		out[column] = value
	}
	return out, nil
}

// ToStorageLenient renames known keys through the table and the rest with CamelToSnake.
func ToStorageLenient(entity Entity, in map[string]any) map[string]any {
	m, _ := Lookup(entity)
	out := make(map[string]any, len(in))
	for key, value := range in {
		if m != nil {
			if column, ok := m.toColumn[key]; ok {
				out[column] = value
				continue
			}
		}
		out[CamelToSnake(key)] = value
	}
	return out
}

// ToApp renames column keys to app names, rejecting columns outside the table.
func ToApp(entity Entity, in map[string]any) (map[string]any, error) {
	m, err := Lookup(entity)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(in))
	for column, value := range in {
		name, ok := m.toApp[column]
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, entity, column)
		}
		out[name] = value
	}
	return out, nil
}

// ToAppLenient renames known columns through the table and the rest with SnakeToCamel.
func ToAppLenient(entity Entity, in map[string]any) map[string]any {
	m, _ := Lookup(entity)
	out := make(map[string]any, len(in))
	for column, value := range in {
		if m != nil {
			if name, ok := m.toApp[column]; ok {
				out[name] = value
				continue
			}
		}
		out[SnakeToCamel(column)] = value
	}
	return out
}

// PatchColumns converts a partial update to columns, refusing read-only fields.
func PatchColumns(entity Entity, in map[string]any) (map[string]any, error) {
	m, err := Lookup(entity)
	if err != nil {
		return nil, err
	}
	for key := range in {
		if _, ro := m.readOnly[key]; ro {
			return nil, fmt.Errorf("%w: %s.%s", ErrReadOnlyField, entity, key)
		}
	}
	return ToStorage(entity, in)
}

func StorageColumn(entity Entity, appName string) (string, error) {
	m, err := Lookup(entity)
	if err != nil {
		return "", err
	}
	column, ok := m.toColumn[appName]
	if !ok {
		return "", fmt.Errorf("%w: %s.%s", ErrUnknownField, entity, appName)
	}
	return column, nil
}

func AppField(entity Entity, column string) (string, error) {
	m, err := Lookup(entity)
	if err != nil {
		return "", err
	}
	name, ok := m.toApp[column]
	if !ok {
		return "", fmt.Errorf("%w: %s.%s", ErrUnknownField, entity, column)
	}
	return name, nil
}

// Headers returns the app-side names in export order.
func Headers(entity Entity) []string {
	m, err := Lookup(entity)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(m.fields))
	for _, f := range m.fields {
		out = append(out, f.App)
	}
	return out
}

// ResolveHeader maps a spreadsheet header to an app field name. Matching is
// case-insensitive and accepts either naming, ignoring spaces, dashes and underscores.
func ResolveHeader(entity Entity, header string) (string, bool) {
	m, err := Lookup(entity)
	if err != nil {
		return "", false
	}
	name, ok := m.byLowered[normalizeHeader(header)]
	return name, ok
}

func normalizeHeader(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch r {
		case ' ', '_', '-', '.':
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// CamelToSnake converts "shippingCompanyId" to "shipping_company_id".
// Acronym runs stay together: "trackingURL" becomes "tracking_url".
func CamelToSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SnakeToCamel converts "shipping_company_id" to "shippingCompanyId".
func SnakeToCamel(s string) string {
	parts := strings.Split(s, "_")
	var b strings.Builder
	first := true
	for _, p := range parts {
		if p == "" {
			continue
		}
		if first {
			b.WriteString(p)
			first = false
			continue
		}
		runes := []rune(p)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	return b.String()
}
