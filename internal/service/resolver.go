package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Open-WP-Club/phone-order-woo/internal/cache"
	"github.com/Open-WP-Club/phone-order-woo/internal/model"
	"github.com/Open-WP-Club/phone-order-woo/internal/repository"
	"github.com/Open-WP-Club/phone-order-woo/pkg/logger"
)

const (
	customerCachePrefix = "phone_order:customer:"
	// resolveAttempts bounds the create/re-lookup loop when concurrent
	// submissions race on the same phone.
	resolveAttempts = 3
)

// CustomerResolver maps a phone number to a stable customer id, creating
// a guest customer when none exists.
type CustomerResolver interface {
	Resolve(ctx context.Context, phone string) (uint, error)
}

type customerResolver struct {
	repo        repository.CustomerRepository
	cache       cache.Cache
	cacheTTL    time.Duration
	emailDomain string
}

func NewCustomerResolver(repo repository.CustomerRepository, c cache.Cache, cacheTTL time.Duration, emailDomain string) CustomerResolver {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	if emailDomain == "" {
		emailDomain = "phone-order.local"
	}
	return &customerResolver{repo: repo, cache: c, cacheTTL: cacheTTL, emailDomain: emailDomain}
}

// Resolve 缓存 → 精确查库 → 创建 guest。phone 带唯一键，创建冲突说明
// 并发提交抢先建好了同号客户，重查即可。
func (r *customerResolver) Resolve(ctx context.Context, phone string) (uint, error) {
	key := customerCacheKey(phone)
	if cached, err := r.cache.Get(ctx, key); err == nil {
		if id, perr := strconv.ParseUint(cached, 10, 64); perr == nil {
			return uint(id), nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		logger.Warn("resolver: cache read failed", zap.Error(err))
	}

	existing, err := r.repo.FindByPhone(ctx, phone)
	if err != nil {
		return 0, fmt.Errorf("find customer by phone: %w", err)
	}
	if existing != nil {
		r.cacheID(ctx, key, existing.ID)
		return existing.ID, nil
	}

	var lastErr error
	for attempt := 0; attempt < resolveAttempts; attempt++ {
		customer, err := r.buildGuest(ctx, phone)
		if err != nil {
			return 0, err
		}
		err = r.repo.Create(ctx, customer)
		if err == nil {
			r.cacheID(ctx, key, customer.ID)
			return customer.ID, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, fmt.Errorf("create guest customer: %w", err)
		}
		// Either the phone raced (another submission created it) or the
		// synthesized email raced. Re-lookup settles the first case; the
		// next attempt regenerates the email for the second.
		existing, lookupErr := r.repo.FindByPhone(ctx, phone)
		if lookupErr != nil {
			return 0, fmt.Errorf("re-lookup after conflict: %w", lookupErr)
		}
		if existing != nil {
			r.cacheID(ctx, key, existing.ID)
			return existing.ID, nil
		}
		lastErr = err
	}
	return 0, fmt.Errorf("guest customer creation kept conflicting: %w", lastErr)
}

// buildGuest synthesizes a guest customer from the phone's digit string.
// The original (non-stripped) phone is what gets stored.
func (r *customerResolver) buildGuest(ctx context.Context, phone string) (*model.Customer, error) {
	digits := stripNonDigits(phone)
	email := fmt.Sprintf("guest_%s@%s", digits, r.emailDomain)
	for {
		exists, err := r.repo.EmailExists(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if !exists {
			break
		}
		// Two raw phone strings can normalize to the same digits; keep
		// the identities apart with a random suffix.
		email = fmt.Sprintf("guest_%s_%s@%s", digits, randSuffix(), r.emailDomain)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash guest password: %w", err)
	}

	// Username mirrors the email local part so the collision suffix keeps
	// it unique too.
	username, _, _ := strings.Cut(email, "@")
	return &model.Customer{
		Username:     username,
		Email:        email,
		Phone:        phone,
		Guest:        true,
		PasswordHash: string(hash),
	}, nil
}

func (r *customerResolver) cacheID(ctx context.Context, key string, id uint) {
	if err := r.cache.Set(ctx, key, strconv.FormatUint(uint64(id), 10), r.cacheTTL); err != nil {
		logger.Warn("resolver: cache write failed", zap.Error(err))
	}
}

func customerCacheKey(phone string) string {
	sum := md5.Sum([]byte(phone))
	return customerCachePrefix + hex.EncodeToString(sum[:])
}

func randSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}
