package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rdesitter/gym-tracker/internal/domain"
	"github.com/rdesitter/gym-tracker/migrations"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisKV(t *testing.T) (*RedisKV, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisKV(rdb), mr
}

func newPostgresKV(t *testing.T) *PostgresKV {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Up(context.Background(), db))
	_, err = db.Exec(`DELETE FROM kv_entries WHERE key IN ($1, $2)`, KeyPreviousCourseIDs, KeyUserConfigs)
	require.NoError(t, err)
	return NewPostgresKV(db)
}

func backends(t *testing.T) map[string]func(t *testing.T) KV {
	return map[string]func(t *testing.T) KV{
		"memory": func(t *testing.T) KV { return NewMemoryKV() },
		"redis": func(t *testing.T) KV {
			kv, _ := newRedisKV(t)
			return kv
		},
		"postgres": func(t *testing.T) KV { return newPostgresKV(t) },
	}
}

func monday(start, end string) []domain.DayAvailability {
	return []domain.DayAvailability{{Day: 1, Slots: []domain.TimeSlot{{Start: start, End: end}}}}
}

func TestRepositoryAgainstBackends(t *testing.T) {
	for name, newKV := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := NewRepository(newKV(t), 0)
			require.True(t, repo.Available())

			_, err := repo.PreviousCourseIDs(ctx)
			assert.ErrorIs(t, err, domain.ErrNotFound)
			_, err = repo.UserConfigs(ctx)
			assert.ErrorIs(t, err, domain.ErrNotFound)

			require.NoError(t, repo.SavePreviousCourseIDs(ctx, []string{"b", "c", "d"}))
			ids, err := repo.PreviousCourseIDs(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"b", "c", "d"}, ids)

			alice := &domain.UserConfig{Email: "alice@example.com", NotifyOnNewCourse: true, Availability: monday("09:00", "12:00")}
			bob := &domain.UserConfig{Email: "bob@example.com", Availability: monday("18:00", "20:00")}
			require.NoError(t, repo.UpsertUserConfig(ctx, alice))
			require.NoError(t, repo.UpsertUserConfig(ctx, bob))

			// full replace of the matching entry
			alice2 := &domain.UserConfig{Email: "alice@example.com", NotifyOnNewCourse: false, Availability: monday("07:00", "08:00")}
			require.NoError(t, repo.UpsertUserConfig(ctx, alice2))

			configs, err := repo.UserConfigs(ctx)
			require.NoError(t, err)
			require.Len(t, configs, 2)
			assert.Equal(t, *alice2, configs[0])
			assert.Equal(t, *bob, configs[1])

			got, err := repo.UserConfig(ctx, "bob@example.com")
			require.NoError(t, err)
			assert.Equal(t, bob, got)

			// identity is case-sensitive
			_, err = repo.UserConfig(ctx, "BOB@example.com")
			assert.ErrorIs(t, err, domain.ErrNotFound)

			require.NoError(t, repo.DeleteUserConfig(ctx, "alice@example.com"))
			require.NoError(t, repo.DeleteUserConfig(ctx, "nobody@example.com"))
			configs, err = repo.UserConfigs(ctx)
			require.NoError(t, err)
			assert.Equal(t, []domain.UserConfig{*bob}, configs)
		})
	}
}

func TestConcurrentUpsertsAreNotLost(t *testing.T) {
	for name, newKV := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := NewRepository(newKV(t), 0)

			emails := []string{"a@x.io", "b@x.io", "c@x.io", "d@x.io"}
			var wg sync.WaitGroup
			for _, email := range emails {
				wg.Add(1)
				go func(email string) {
					defer wg.Done()
					assert.NoError(t, repo.UpsertUserConfig(ctx, &domain.UserConfig{Email: email}))
				}(email)
			}
			wg.Wait()

			configs, err := repo.UserConfigs(ctx)
			require.NoError(t, err)
			assert.Len(t, configs, len(emails))
		})
	}
}

func TestRedisUpdateRetriesOnConflict(t *testing.T) {
	kv, mr := newRedisKV(t)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "k", []byte("0")))

	calls := 0
	err := kv.Update(ctx, "k", func(current []byte) ([]byte, error) {
		calls++
		if calls == 1 {
			// another writer sneaks in between the read and the write
			require.NoError(t, mr.Set("k", "1"))
		}
		return append(current, '+'), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	v, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "1+", v)
}

func TestAbsentStoreIsUnavailable(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(nil, 0)
	assert.False(t, repo.Available())

	_, err := repo.PreviousCourseIDs(ctx)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.ErrorIs(t, repo.SavePreviousCourseIDs(ctx, []string{"a"}), domain.ErrStoreUnavailable)
	_, err = repo.UserConfigs(ctx)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.ErrorIs(t, repo.UpsertUserConfig(ctx, &domain.UserConfig{Email: "a@b.c"}), domain.ErrStoreUnavailable)
	assert.ErrorIs(t, repo.DeleteUserConfig(ctx, "a@b.c"), domain.ErrStoreUnavailable)
}

func TestUnreachableRedisIsUnavailable(t *testing.T) {
	kv, mr := newRedisKV(t)
	mr.Close()

	repo := NewRepository(kv, 0)
	_, err := repo.UserConfigs(context.Background())
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
}

func TestCorruptValueIsUnavailable(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(context.Background(), KeyUserConfigs, []byte("{not json")))

	repo := NewRepository(kv, 0)
	_, err := repo.UserConfigs(context.Background())
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.ErrorIs(t, repo.UpsertUserConfig(context.Background(), &domain.UserConfig{Email: "a@b.c"}), domain.ErrStoreUnavailable)
}
