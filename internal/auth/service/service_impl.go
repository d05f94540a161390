package service

import (
	"context"
	"errors"
	"net/mail"
	"regexp"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/shipdesk/internal/audit/domain"
	"github.com/smallbiznis/shipdesk/internal/auth/domain"
	"github.com/smallbiznis/shipdesk/internal/auth/password"
	"github.com/smallbiznis/shipdesk/internal/auth/token"
	"github.com/smallbiznis/shipdesk/internal/authorization"
	"github.com/smallbiznis/shipdesk/internal/clock"
	"github.com/smallbiznis/shipdesk/internal/observability/metrics"
	pkgdb "github.com/smallbiznis/shipdesk/pkg/db"
	"github.com/smallbiznis/shipdesk/pkg/db/option"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const minPasswordLength = 8

var usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{2,63}$`)

type Params struct {
	fx.In

	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Tokens  *token.Issuer
	Audit   auditdomain.Service
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	tokens  *token.Issuer
	audit   auditdomain.Service
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		log:     p.Log.Named("auth.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		tokens:  p.Tokens,
		audit:   p.Audit,
		metrics: p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateUserRequest) (domain.User, error) {
	now := s.clock.Now()
	user := domain.User{
		ID:        s.genID.Generate(),
		Username:  normalizeUsername(req.Username),
		FullName:  strings.TrimSpace(req.FullName),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		Role:      strings.ToLower(strings.TrimSpace(req.Role)),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if user.Role == "" {
		user.Role = authorization.RoleEmployee
	}
	if err := validate(&user); err != nil {
		return domain.User{}, err
	}
	if len(req.Password) < minPasswordLength {
		return domain.User{}, domain.ErrWeakPassword
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return domain.User{}, err
	}
	user.PasswordHash = hashed

	if err := s.repo.Create(ctx, &user); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return domain.User{}, domain.ErrUserExists
		}
		return domain.User{}, err
	}

	s.record(ctx, "user.created", user.ID.String(), map[string]any{"username": user.Username, "role": user.Role})
	return user, nil
}

func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	items, err := s.repo.Find(ctx, nil, option.OrderBy("username asc"))
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(items))
	for _, item := range items {
		if item != nil {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.User, error) {
	userID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || userID == 0 {
		return domain.User{}, domain.ErrInvalidID
	}
	item, err := s.repo.FindOne(ctx, &domain.User{ID: userID})
	if err != nil {
		return domain.User{}, err
	}
	if item == nil {
		return domain.User{}, domain.ErrUserNotFound
	}
	return *item, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateUserRequest) (domain.User, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	next := current
	next.FullName = strings.TrimSpace(req.FullName)
	next.Email = strings.TrimSpace(req.Email)
	next.Phone = strings.TrimSpace(req.Phone)
	next.Role = strings.ToLower(strings.TrimSpace(req.Role))
	next.IsActive = req.IsActive
	if err := validate(&next); err != nil {
		return domain.User{}, err
	}

	if isActiveAdmin(current) && !isActiveAdmin(next) {
		if err := s.ensureOtherAdmin(ctx); err != nil {
			return domain.User{}, err
		}
	}

	next.UpdatedAt = s.clock.Now()
	columns := next.Columns()
	columns["updated_at"] = next.UpdatedAt
	if err := s.repo.Update(ctx, next.ID, columns); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, err
	}

	s.record(ctx, "user.updated", next.ID.String(), map[string]any{
		"username": next.Username,
		"role":     next.Role,
		"isActive": next.IsActive,
	})
	return next, nil
}

func (s *Service) ChangePassword(ctx context.Context, id string, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return domain.ErrWeakPassword
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	hashed, err := password.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, user.ID, map[string]any{
		"password_hash": hashed,
		"updated_at":    s.clock.Now(),
	}); err != nil {
		return err
	}

	s.record(ctx, "user.password_changed", user.ID.String(), map[string]any{"username": user.Username})
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if isActiveAdmin(user) {
		if err := s.ensureOtherAdmin(ctx); err != nil {
			return err
		}
	}

	if err := s.repo.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	s.record(ctx, "user.deleted", user.ID.String(), map[string]any{"username": user.Username})
	return nil
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResult, error) {
	username := normalizeUsername(req.Username)
	if username == "" || req.Password == "" {
		return domain.LoginResult{}, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindOne(ctx, &domain.User{Username: username})
	if err != nil {
		return domain.LoginResult{}, err
	}
	if user == nil || !password.Verify(req.Password, user.PasswordHash) {
		s.log.Info("login rejected", zap.String("username", username))
		return domain.LoginResult{}, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return domain.LoginResult{}, domain.ErrUserInactive
	}

	signed, expiresAt, err := s.tokens.Generate(user.ID.String(), user.Username, user.Role)
	if err != nil {
		return domain.LoginResult{}, err
	}

	now := s.clock.Now()
	fields := map[string]any{"last_login_at": now}
	if password.NeedsRehash(user.PasswordHash) {
		if hashed, err := password.Hash(req.Password); err == nil {
			fields["password_hash"] = hashed
		}
	}
	if err := s.repo.Update(ctx, user.ID, fields); err != nil {
		s.log.Warn("failed to stamp last login", zap.String("username", username), zap.Error(err))
	} else {
		user.LastLoginAt = &now
	}

	s.record(ctx, "user.login", user.ID.String(), map[string]any{"username": user.Username})
	return domain.LoginResult{Token: signed, ExpiresAt: expiresAt, User: *user}, nil
}

func (s *Service) EnsureAdmin(ctx context.Context, username, pass string) (bool, error) {
	count, err := s.repo.Count(ctx, nil)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if _, err := s.Create(ctx, domain.CreateUserRequest{
		Username: username,
		FullName: "Administrator",
		Role:     authorization.RoleAdmin,
		Password: pass,
	}); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) ensureOtherAdmin(ctx context.Context) error {
	count, err := s.repo.Count(ctx, &domain.User{Role: authorization.RoleAdmin}, option.Where("is_active = ?", true))
	if err != nil {
		return err
	}
	if count <= 1 {
		return domain.ErrLastAdmin
	}
	return nil
}

func (s *Service) record(ctx context.Context, action, targetID string, metadata map[string]any) {
	s.metrics.RecordSettingsChange(ctx, "user", action)
	if err := s.audit.Record(ctx, action, "user", targetID, metadata); err != nil {
		s.log.Warn("failed to record activity", zap.String("action", action), zap.Error(err))
	}
}

func isActiveAdmin(u domain.User) bool {
	return u.IsActive && u.Role == authorization.RoleAdmin
}

func normalizeUsername(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func validate(u *domain.User) error {
	if !usernamePattern.MatchString(u.Username) {
		return domain.ErrInvalidUsername
	}
	if !authorization.IsValidRole(u.Role) {
		return domain.ErrInvalidRole
	}
	if u.Email != "" {
		addr, err := mail.ParseAddress(u.Email)
		if err != nil {
			return domain.ErrInvalidEmail
		}
		u.Email = strings.ToLower(addr.Address)
	}
	return nil
}
