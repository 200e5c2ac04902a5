package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shamsacademy/academy-backend/internal/data/repos"
	types "github.com/shamsacademy/academy-backend/internal/domain"
	domainagg "github.com/shamsacademy/academy-backend/internal/domain/aggregates"
	"github.com/shamsacademy/academy-backend/internal/domain/user"
	"github.com/shamsacademy/academy-backend/internal/platform/ctxutil"
	"github.com/shamsacademy/academy-backend/internal/platform/dbctx"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
)

// userRefresh bounds how often a known subject is written back.
const userRefresh = 10 * time.Minute

type UserService interface {
	// EnsureUser mirrors the token identity into app_user.
	EnsureUser(ctx context.Context, id *ctxutil.Identity, fullName string) error
	GetMe(ctx context.Context) (*types.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo

	mu   sync.Mutex
	seen map[uuid.UUID]time.Time
	now  clock
}

func NewUserService(db *gorm.DB, baseLog *logger.Logger, userRepo repos.UserRepo) UserService {
	return &userService{
		db:       db,
		log:      baseLog.With("service", "UserService"),
		userRepo: userRepo,
		seen:     map[uuid.UUID]time.Time{},
	}
}

func (us *userService) EnsureUser(ctx context.Context, id *ctxutil.Identity, fullName string) error {
	if id == nil || id.UserID == uuid.Nil {
		return fmt.Errorf("identity required")
	}
	now := us.now.now()

	us.mu.Lock()
	last, ok := us.seen[id.UserID]
	us.mu.Unlock()
	if ok && now.Sub(last) < userRefresh {
		return nil
	}

	role := strings.ToLower(strings.TrimSpace(id.Role))
	if !user.IsValidRole(role) {
		role = user.RoleStudent
	}
	row := &types.User{
		ID:       id.UserID,
		Email:    strings.TrimSpace(id.Email),
		FullName: strings.TrimSpace(fullName),
		Role:     role,
	}
	if err := us.userRepo.Upsert(dbctx.Context{Ctx: ctx}, row); err != nil {
		us.log.Warn("EnsureUser upsert failed", "user_id", id.UserID, "error", err)
		return fmt.Errorf("upsert user: %w", err)
	}

	us.mu.Lock()
	us.seen[id.UserID] = now
	us.mu.Unlock()
	return nil
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	u, err := us.userRepo.GetByID(dbctx.Context{Ctx: ctx}, id.UserID)
	if err != nil {
		us.log.Error("GetMe failed", "error", err, "user_id", id.UserID)
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, domainagg.NotFound("User.GetMe", "user not found")
	}
	return u, nil
}
