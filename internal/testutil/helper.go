// Package testutil holds fixtures shared by service tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/shipdesk/internal/audit/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB returns a private in-memory sqlite database with models migrated.
func OpenDB(t *testing.T, models ...any) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	if len(models) > 0 {
		require.NoError(t, db.AutoMigrate(models...))
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func Node(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

type Entry struct {
	Action     string
	TargetType string
	TargetID   string
	Metadata   map[string]any
}

// Audit records activity in memory.
type Audit struct {
	mu      sync.Mutex
	entries []Entry
}

func (a *Audit) Record(_ context.Context, action, targetType, targetID string, metadata map[string]any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, Entry{Action: action, TargetType: targetType, TargetID: targetID, Metadata: metadata})
	return nil
}

func (a *Audit) List(context.Context, auditdomain.ListActivityLogRequest) (auditdomain.ListActivityLogResponse, error) {
	return auditdomain.ListActivityLogResponse{}, nil
}

func (a *Audit) Clear(context.Context) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := int64(len(a.entries))
	a.entries = nil
	return n, nil
}

func (a *Audit) Entries() []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Entry(nil), a.entries...)
}

func (a *Audit) Actions() []string {
	entries := a.Entries()
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Action)
	}
	return out
}

var _ auditdomain.Service = (*Audit)(nil)

// Refs answers reference counts from a fixed map keyed by column.
type Refs map[string]int64

func (r Refs) CountReferences(_ context.Context, column string, _ any) (int64, error) {
	return r[column], nil
}
