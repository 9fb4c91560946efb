package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rdesitter/gym-tracker/internal/domain"
)

const (
	KeyPreviousCourseIDs = "previous-course-ids"
	KeyUserConfigs       = "user-configs"
)

// maxUpdateAttempts bounds optimistic retries when another writer wins the race.
const maxUpdateAttempts = 5

var errConflict = errors.New("concurrent modification")

// KV is the durable key/value backend. Get returns domain.ErrNotFound for absent keys.
// Update runs fn against the current value (nil when absent) and stores the result only if the
// key was not modified in between.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error
}

type Repository struct {
	kv      KV
	timeout time.Duration
}

// NewRepository wraps kv. A nil kv models an absent store: every call fails with
// domain.ErrStoreUnavailable.
func NewRepository(kv KV, timeout time.Duration) *Repository {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Repository{kv: kv, timeout: timeout}
}

func (r *Repository) Available() bool {
	return r.kv != nil
}

func (r *Repository) PreviousCourseIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	if err := r.getJSON(ctx, KeyPreviousCourseIDs, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *Repository) SavePreviousCourseIDs(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	return r.setJSON(ctx, KeyPreviousCourseIDs, ids)
}

func (r *Repository) UserConfigs(ctx context.Context) ([]domain.UserConfig, error) {
	configs := []domain.UserConfig{}
	if err := r.getJSON(ctx, KeyUserConfigs, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

func (r *Repository) UserConfig(ctx context.Context, email string) (*domain.UserConfig, error) {
	configs, err := r.UserConfigs(ctx)
	if err != nil {
		return nil, err
	}

	idx := slices.IndexFunc(configs, func(c domain.UserConfig) bool { return c.Email == email })
	if idx < 0 {
		return nil, domain.ErrNotFound
	}
	return &configs[idx], nil
}

// UpsertUserConfig replaces the entry with the same email or appends a new one.
func (r *Repository) UpsertUserConfig(ctx context.Context, cfg *domain.UserConfig) error {
	return r.updateUserConfigs(ctx, func(configs []domain.UserConfig) []domain.UserConfig {
		idx := slices.IndexFunc(configs, func(c domain.UserConfig) bool { return c.Email == cfg.Email })
		if idx >= 0 {
			configs[idx] = *cfg
			return configs
		}
		return append(configs, *cfg)
	})
}

// DeleteUserConfig removes every entry with the given email. Removing an unknown email is not an error.
func (r *Repository) DeleteUserConfig(ctx context.Context, email string) error {
	return r.updateUserConfigs(ctx, func(configs []domain.UserConfig) []domain.UserConfig {
		return slices.DeleteFunc(configs, func(c domain.UserConfig) bool { return c.Email == email })
	})
}

func (r *Repository) updateUserConfigs(ctx context.Context, mutate func([]domain.UserConfig) []domain.UserConfig) error {
	if r.kv == nil {
		return domain.ErrStoreUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.kv.Update(ctx, KeyUserConfigs, func(current []byte) ([]byte, error) {
		configs := []domain.UserConfig{}
		if current != nil {
			if err := json.Unmarshal(current, &configs); err != nil {
				return nil, fmt.Errorf("decode %s: %w", KeyUserConfigs, err)
			}
		}
		return json.Marshal(mutate(configs))
	})
	return storeError(err)
}

func (r *Repository) getJSON(ctx context.Context, key string, v any) error {
	if r.kv == nil {
		return domain.ErrStoreUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	b, err := r.kv.Get(ctx, key)
	if err != nil {
		return storeError(err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", domain.ErrStoreUnavailable, key, err)
	}
	return nil
}

func (r *Repository) setJSON(ctx context.Context, key string, v any) error {
	if r.kv == nil {
		return domain.ErrStoreUnavailable
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return storeError(r.kv.Set(ctx, key, b))
}

// storeError keeps ErrNotFound as is and classifies everything else as an unavailable store.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrStoreUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
}
