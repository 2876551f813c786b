// Package redis keeps the two hot, contended tables in Redis: the per-day
// availability counters and the per-car renter slots. INCRBY and SETNX give
// the same single-operation semantics the SQL upserts provide.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"fleet-rental-backend/internal/domain"
	"fleet-rental-backend/internal/logger"
)

type Options struct {
	Addr         string
	Password     string
	DB           int
	KeyPrefix    string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewClient connects and pings. Unlike a cache, the engine cannot degrade
// without these keys, so a failed ping is an error.
func NewClient(ctx context.Context, opts Options) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	logger.Info("Connected to redis", "addr", opts.Addr, "db", opts.DB)
	return client, nil
}

func availabilityKey(prefix string, day time.Time, class domain.CarClass) string {
	return prefix + "available_cars:" + domain.FormatDay(day) + ":" + class.String()
}

func assignmentKey(prefix string, carID int32) string {
	return prefix + "car_rentals:" + strconv.FormatInt(int64(carID), 10)
}

type AvailabilityRepository struct {
	client goredis.Cmdable
	prefix string
}

func NewAvailabilityRepository(client goredis.Cmdable, keyPrefix string) *AvailabilityRepository {
	return &AvailabilityRepository{client: client, prefix: keyPrefix}
}

func (r *AvailabilityRepository) Get(ctx context.Context, day time.Time, class domain.CarClass) (int64, error) {
	key := availabilityKey(r.prefix, day, class)
	logger.StoreCall("GET", key)
	count, err := r.client.Get(ctx, key).Int64()
	if errors.Is(err, goredis.Nil) {
		logger.StoreResult("GET", key, nil, "found", false)
		return 0, fmt.Errorf("%w: %s class %s", domain.ErrNotInitialized, domain.FormatDay(day), class)
	}
	if err != nil {
		logger.StoreResult("GET", key, err)
		return 0, domain.StoreError("get availability", err)
	}
	logger.StoreResult("GET", key, nil, "count", count)
	return count, nil
}

func (r *AvailabilityRepository) Adjust(ctx context.Context, day time.Time, class domain.CarClass, delta int64) error {
	key := availabilityKey(r.prefix, day, class)
	logger.StoreCall("INCRBY", key, "delta", delta)
	count, err := r.client.IncrBy(ctx, key, delta).Result()
	logger.StoreResult("INCRBY", key, err, "count", count)
	if err != nil {
		return domain.StoreError("adjust availability", err)
	}
	return nil
}

func (r *AvailabilityRepository) Set(ctx context.Context, day time.Time, class domain.CarClass, count int64) error {
	key := availabilityKey(r.prefix, day, class)
	logger.StoreCall("SET", key, "count", count)
	err := r.client.Set(ctx, key, count, 0).Err()
	logger.StoreResult("SET", key, err)
	if err != nil {
		return domain.StoreError("set availability", err)
	}
	return nil
}

type AssignmentRepository struct {
	client goredis.Cmdable
	prefix string
}

func NewAssignmentRepository(client goredis.Cmdable, keyPrefix string) *AssignmentRepository {
	return &AssignmentRepository{client: client, prefix: keyPrefix}
}

func (r *AssignmentRepository) Claim(ctx context.Context, carID int32, renterID uuid.UUID) (bool, error) {
	key := assignmentKey(r.prefix, carID)
	logger.StoreCall("SETNX", key, "renter_id", renterID)
	ok, err := r.client.SetNX(ctx, key, renterID.String(), 0).Result()
	logger.StoreResult("SETNX", key, err, "applied", ok)
	if err != nil {
		return false, domain.StoreError("claim car", err)
	}
	return ok, nil
}

func (r *AssignmentRepository) Release(ctx context.Context, carID int32) error {
	key := assignmentKey(r.prefix, carID)
	logger.StoreCall("DEL", key)
	err := r.client.Del(ctx, key).Err()
	logger.StoreResult("DEL", key, err)
	if err != nil {
		return domain.StoreError("release car", err)
	}
	return nil
}

func (r *AssignmentRepository) CurrentRenter(ctx context.Context, carID int32) (*uuid.UUID, error) {
	key := assignmentKey(r.prefix, carID)
	raw, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.StoreError("current renter", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("car %d has malformed renter id %q: %w", carID, raw, err)
	}
	return &id, nil
}
