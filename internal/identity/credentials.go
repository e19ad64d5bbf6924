package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"bitsconnect/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// MemoryCredentials keeps credentials in process memory.
type MemoryCredentials struct {
	mu    sync.RWMutex
	items map[string]models.Credential
}

// NewMemoryCredentials creates an empty in-memory credential store.
func NewMemoryCredentials() *MemoryCredentials {
	return &MemoryCredentials{items: make(map[string]models.Credential)}
}

func (m *MemoryCredentials) Get(_ context.Context, email string) (*models.Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.items[email]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *MemoryCredentials) Create(_ context.Context, cred *models.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[cred.Email]; ok {
		return ErrCredentialExists
	}
	m.items[cred.Email] = *cred
	return nil
}

func (m *MemoryCredentials) Delete(_ context.Context, email, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.items[email]; ok && c.UserID == userID {
		delete(m.items, email)
	}
	return nil
}

// GormCredentials keeps credentials in the credentials table.
type GormCredentials struct {
	db *gorm.DB
}

// NewGormCredentials creates a credential store on db.
func NewGormCredentials(db *gorm.DB) *GormCredentials {
	return &GormCredentials{db: db}
}

func (g *GormCredentials) Get(ctx context.Context, email string) (*models.Credential, error) {
	var cred models.Credential
	err := g.db.WithContext(ctx).Where("email = ?", email).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	return &cred, nil
}

func (g *GormCredentials) Create(ctx context.Context, cred *models.Credential) error {
	existing, err := g.Get(ctx, cred.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrCredentialExists
	}
	if err := g.db.WithContext(ctx).Create(cred).Error; err != nil {
		return fmt.Errorf("create credential: %w", err)
	}
	return nil
}

func (g *GormCredentials) Delete(ctx context.Context, email, userID string) error {
	err := g.db.WithContext(ctx).
		Where("email = ? AND user_id = ?", email, userID).
		Delete(&models.Credential{}).Error
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// DefaultRedisCredentialPrefix namespaces credential keys.
const DefaultRedisCredentialPrefix = "bitsconnect:credential:"

// RedisCredentials keeps one JSON record per email under a key prefix.
type RedisCredentials struct {
	client *redis.Client
	prefix string
}

// redisCredential is the stored form; Credential hides its hash from JSON.
type redisCredential struct {
	Email        string    `json:"email"`
	UserID       string    `json:"userId"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewRedisCredentials creates a credential store on client. An empty prefix
// uses DefaultRedisCredentialPrefix.
func NewRedisCredentials(client *redis.Client, prefix string) *RedisCredentials {
	if prefix == "" {
		prefix = DefaultRedisCredentialPrefix
	}
	return &RedisCredentials{client: client, prefix: prefix}
}

func (r *RedisCredentials) Get(ctx context.Context, email string) (*models.Credential, error) {
	raw, err := r.client.Get(ctx, r.prefix+email).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	var rec redisCredential
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode credential: %w", err)
	}
	return &models.Credential{
		Email:        rec.Email,
		UserID:       rec.UserID,
		PasswordHash: rec.PasswordHash,
		CreatedAt:    rec.CreatedAt,
	}, nil
}

func (r *RedisCredentials) Create(ctx context.Context, cred *models.Credential) error {
	raw, err := json.Marshal(redisCredential{
		Email:        cred.Email,
		UserID:       cred.UserID,
		PasswordHash: cred.PasswordHash,
		CreatedAt:    cred.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	ok, err := r.client.SetNX(ctx, r.prefix+cred.Email, raw, 0).Result()
	if err != nil {
		return fmt.Errorf("create credential: %w", err)
	}
	if !ok {
		return ErrCredentialExists
	}
	return nil
}

func (r *RedisCredentials) Delete(ctx context.Context, email, userID string) error {
	key := r.prefix + email
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		var rec redisCredential
		if err := json.Unmarshal(raw, &rec); err != nil {
			return err
		}
		if rec.UserID != userID {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}
