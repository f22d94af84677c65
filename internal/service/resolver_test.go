package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Open-WP-Club/phone-order-woo/internal/cache"
	"github.com/Open-WP-Club/phone-order-woo/internal/model"
	"github.com/Open-WP-Club/phone-order-woo/internal/repository"
)

func newTestEnv(t *testing.T) (*gorm.DB, cache.Cache) {
	t.Helper()
	db, err := repository.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return db, cache.NewRedis(client)
}

func TestResolveCreatesGuestOnce(t *testing.T) {
	db, c := newTestEnv(t)
	repo := repository.NewCustomerRepository(db)
	r := NewCustomerResolver(repo, c, time.Hour, "")
	ctx := context.Background()

	id1, err := r.Resolve(ctx, "555-1234")
	require.NoError(t, err)
	require.NotZero(t, id1)

	id2, err := r.Resolve(ctx, "555-1234")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	var count int64
	require.NoError(t, db.Model(&model.Customer{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	customer, err := repo.GetByID(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, "555-1234", customer.Phone, "original phone stored, not the digit string")
	assert.True(t, customer.Guest)
	assert.Contains(t, customer.Email, "guest_5551234@")
}

func TestResolveCollidingDigitsGetDistinctEmails(t *testing.T) {
	db, c := newTestEnv(t)
	repo := repository.NewCustomerRepository(db)
	r := NewCustomerResolver(repo, c, time.Hour, "phone-order.local")
	ctx := context.Background()

	// both normalize to 5551234
	id1, err := r.Resolve(ctx, "555-1234")
	require.NoError(t, err)
	id2, err := r.Resolve(ctx, "555 1234")
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)

	c1, err := repo.GetByID(ctx, id1)
	require.NoError(t, err)
	c2, err := repo.GetByID(ctx, id2)
	require.NoError(t, err)
	assert.NotEqual(t, c1.Email, c2.Email)
	assert.Equal(t, "guest_5551234@phone-order.local", c1.Email)
	assert.True(t, strings.HasPrefix(c2.Email, "guest_5551234_"), "second identity gets a suffixed email, got %s", c2.Email)
	assert.True(t, strings.HasSuffix(c2.Email, "@phone-order.local"))
}

func TestResolveServesRepeatCallersFromCache(t *testing.T) {
	db, c := newTestEnv(t)
	repo := repository.NewCustomerRepository(db)
	r := NewCustomerResolver(repo, c, time.Hour, "")
	ctx := context.Background()

	id1, err := r.Resolve(ctx, "555-1234")
	require.NoError(t, err)

	// remove the row; a cached resolve must not touch the store
	require.NoError(t, db.Delete(&model.Customer{}, id1).Error)

	id2, err := r.Resolve(ctx, "555-1234")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}

// racingCustomerRepo simulates a concurrent submission winning the
// creation race: the first create collides with a customer inserted just
// before it.
type racingCustomerRepo struct {
	repository.CustomerRepository
	db      *gorm.DB
	phone   string
	tripped bool
}

func (r *racingCustomerRepo) Create(ctx context.Context, customer *model.Customer) error {
	if !r.tripped && customer.Phone == r.phone {
		r.tripped = true
		rival := &model.Customer{
			Username:     "guest_rival",
			Email:        "guest_rival@phone-order.local",
			Phone:        r.phone,
			Guest:        true,
			PasswordHash: "x",
		}
		if err := r.db.Create(rival).Error; err != nil {
			return err
		}
	}
	return r.CustomerRepository.Create(ctx, customer)
}

func TestResolveRetriesOnPhoneConflict(t *testing.T) {
	db, c := newTestEnv(t)
	inner := repository.NewCustomerRepository(db)
	racing := &racingCustomerRepo{CustomerRepository: inner, db: db, phone: "555-9999"}
	r := NewCustomerResolver(racing, c, time.Hour, "")
	ctx := context.Background()

	id, err := r.Resolve(ctx, "555-9999")
	require.NoError(t, err)

	rival, err := inner.FindByPhone(ctx, "555-9999")
	require.NoError(t, err)
	require.NotNil(t, rival)
	assert.Equal(t, rival.ID, id, "conflict resolves to the customer that won the race")

	var count int64
	require.NoError(t, db.Model(&model.Customer{}).Where("phone = ?", "555-9999").Count(&count).Error)
	assert.EqualValues(t, 1, count, "no duplicate customer for the same phone")
}
