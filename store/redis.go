package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/divijshrivastava/hisrage/models"
	"github.com/divijshrivastava/hisrage/pkg/apperrors"
)

// RedisCartStore keeps carts in a redis hash per owner, one field per
// product. Carts expire on their own instead of being garbage-collected.
// Because redis cannot join the checkout transaction, checkout clears
// these carts after commit.
type RedisCartStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCartStore(rdb *redis.Client) *RedisCartStore {
	return &RedisCartStore{rdb: rdb, ttl: 24 * time.Hour}
}

type redisCartLine struct {
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	AddedAt  time.Time       `json:"added_at"`
}

func cartKey(owner Owner) string {
	if owner.UserID != nil {
		return fmt.Sprintf("cart:user:%d", *owner.UserID)
	}
	return "cart:session:" + owner.SessionID
}

func ownedCart(owner Owner) *models.Cart {
	cart := &models.Cart{}
	if owner.UserID != nil {
		cart.UserID = owner.UserID
	} else {
		sid := owner.SessionID
		cart.SessionID = &sid
	}
	return cart
}

func (s *RedisCartStore) key(cart *models.Cart) string {
	if cart.UserID != nil {
		return fmt.Sprintf("cart:user:%d", *cart.UserID)
	}
	if cart.SessionID != nil {
		return "cart:session:" + *cart.SessionID
	}
	return ""
}

func (s *RedisCartStore) GetOrCreate(ctx context.Context, owner Owner) (*models.Cart, error) {
	if owner.UserID == nil && owner.SessionID == "" {
		return nil, apperrors.ErrCartNotFound
	}
	return ownedCart(owner), nil
}

func (s *RedisCartStore) Get(ctx context.Context, owner Owner) (*models.Cart, error) {
	if owner.UserID == nil && owner.SessionID == "" {
		return nil, apperrors.ErrCartNotFound
	}
	n, err := s.rdb.Exists(ctx, cartKey(owner)).Result()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperrors.ErrCartNotFound
	}
	return ownedCart(owner), nil
}

func (s *RedisCartStore) Items(ctx context.Context, cart *models.Cart) ([]models.CartItem, error) {
	fields, err := s.rdb.HGetAll(ctx, s.key(cart)).Result()
	if err != nil {
		return nil, err
	}

	items := make([]models.CartItem, 0, len(fields))
	for field, raw := range fields {
		productID, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			continue
		}
		var line redisCartLine
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			continue
		}
		items = append(items, models.CartItem{
			ProductID: uint(productID),
			Quantity:  line.Quantity,
			Price:     line.Price,
			AddedAt:   line.AddedAt,
		})
	}
	return items, nil
}

func (s *RedisCartStore) AddItem(ctx context.Context, cart *models.Cart, product *models.Product, quantity int) (*models.CartItem, error) {
	key := s.key(cart)
	field := strconv.FormatUint(uint64(product.ID), 10)

	line := redisCartLine{Quantity: quantity, Price: product.Price, AddedAt: time.Now()}
	raw, err := s.rdb.HGet(ctx, key, field).Result()
	if err == nil {
		var existing redisCartLine
		if err := json.Unmarshal([]byte(raw), &existing); err == nil {
			line.Quantity += existing.Quantity
			line.Price = existing.Price
			line.AddedAt = existing.AddedAt
		}
	} else if err != redis.Nil {
		return nil, err
	}

	if product.StockQuantity < line.Quantity {
		return nil, &apperrors.InsufficientStockError{ProductName: product.Name}
	}

	buf, err := json.Marshal(line)
	if err != nil {
		return nil, err
	}
	if err := s.rdb.HSet(ctx, key, field, buf).Err(); err != nil {
		return nil, err
	}
	s.rdb.Expire(ctx, key, s.ttl)

	return &models.CartItem{
		ProductID: product.ID,
		Quantity:  line.Quantity,
		Price:     line.Price,
		AddedAt:   line.AddedAt,
	}, nil
}

func (s *RedisCartStore) UpdateQuantity(ctx context.Context, cart *models.Cart, productID uint, quantity int) error {
	key := s.key(cart)
	field := strconv.FormatUint(uint64(productID), 10)

	raw, err := s.rdb.HGet(ctx, key, field).Result()
	if err == redis.Nil {
		return apperrors.ErrProductNotFound
	}
	if err != nil {
		return err
	}

	var line redisCartLine
	if err := json.Unmarshal([]byte(raw), &line); err != nil {
		return err
	}
	line.Quantity = quantity

	buf, err := json.Marshal(line)
	if err != nil {
		return err
	}
	return s.rdb.HSet(ctx, key, field, buf).Err()
}

func (s *RedisCartStore) RemoveItem(ctx context.Context, cart *models.Cart, productID uint) error {
	n, err := s.rdb.HDel(ctx, s.key(cart), strconv.FormatUint(uint64(productID), 10)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrProductNotFound
	}
	return nil
}

func (s *RedisCartStore) Clear(ctx context.Context, cart *models.Cart) error {
	return s.rdb.Del(ctx, s.key(cart)).Err()
}
