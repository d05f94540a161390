package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/smallbiznis/shipdesk/internal/cache"
	"github.com/smallbiznis/shipdesk/internal/clock"
	"github.com/smallbiznis/shipdesk/internal/company/domain"
	"github.com/smallbiznis/shipdesk/internal/company/repository"
	"github.com/smallbiznis/shipdesk/internal/imaging"
	"github.com/smallbiznis/shipdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupCompanyService(t *testing.T) (*Service, *testutil.Audit) {
	t.Helper()

	db := testutil.OpenDB(t, &domain.CompanyInfo{})
	log := zaptest.NewLogger(t)
	audit := &testutil.Audit{}
	svc := New(Params{
		Log:   log,
		GenID: testutil.Node(t),
		Clock: clock.NewFakeClock(time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(db),
		Audit: audit,
		Cache: cache.NewLocalSettingsCache(time.Minute, log),
	}).(*Service)
	return svc, audit
}

func wideLogo(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 800, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 800; x++ {
			img.Set(x, y, color.RGBA{B: 180, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestGetReturnsEmptyProfile(t *testing.T) {
	svc, _ := setupCompanyService(t)

	info, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Zero(t, info.ID)
	assert.Empty(t, info.Name)
}

func TestSaveUpsertsSingleton(t *testing.T) {
	svc, audit := setupCompanyService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, domain.SaveCompanyRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Save(ctx, domain.SaveCompanyRequest{Name: "Atlas", Email: "broken"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	first, err := svc.Save(ctx, domain.SaveCompanyRequest{Name: "Atlas Shop", City: "Rabat"})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Atlas Shop", got.Name)

	second, err := svc.Save(ctx, domain.SaveCompanyRequest{Name: "Atlas Store", City: "Rabat"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	got, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Atlas Store", got.Name)

	patched, err := svc.Patch(ctx, map[string]any{"footerNote": "Merci !"})
	require.NoError(t, err)
	assert.Equal(t, "Atlas Store", patched.Name)
	assert.Equal(t, "Merci !", patched.FooterNote)

	assert.Equal(t, []string{"company.updated", "company.updated", "company.patched"}, audit.Actions())
}

func TestUploadAndRemoveLogo(t *testing.T) {
	svc, _ := setupCompanyService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, domain.SaveCompanyRequest{Name: "Atlas"})
	require.NoError(t, err)

	_, err = svc.UploadLogo(ctx, []byte("nope"))
	assert.ErrorIs(t, err, domain.ErrInvalidLogo)

	info, err := svc.UploadLogo(ctx, wideLogo(t))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(info.Logo, "data:image/jpeg;base64,"))

	_, data, err := imaging.DecodeDataURI(info.Logo)
	require.NoError(t, err)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Width)
	assert.Equal(t, 125, cfg.Height)

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, info.Logo, got.Logo)

	removed, err := svc.RemoveLogo(ctx)
	require.NoError(t, err)
	assert.Empty(t, removed.Logo)
	assert.Equal(t, "Atlas", removed.Name)
}

func TestPatchLogoFromDataURI(t *testing.T) {
	svc, _ := setupCompanyService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, domain.SaveCompanyRequest{Name: "Atlas"})
	require.NoError(t, err)

	info, err := svc.Patch(ctx, map[string]any{"logo": imaging.EncodeDataURI(imaging.MimePNG, wideLogo(t))})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(info.Logo, "data:image/jpeg;base64,"))

	_, err = svc.Patch(ctx, map[string]any{"logo": "https://example.com/logo.png"})
	assert.ErrorIs(t, err, domain.ErrInvalidLogo)
}
