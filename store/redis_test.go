package store_test

import (
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/newswire-io/restitch/store"
)

func newRedisStore(t *testing.T) (*store.Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	st, err := store.NewRedis(store.RedisConfig{
		URL:    "redis://" + mr.Addr(),
		Limits: store.Limits{MaxAge: 5 * time.Minute},
	})
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st, mr
}

func TestRedis_RequiresURL(t *testing.T) {
	if _, err := store.NewRedis(store.RedisConfig{}); err == nil {
		t.Fatal("expected error for empty URL")
	}
	if _, err := store.NewRedis(store.RedisConfig{URL: "://bad"}); err == nil {
		t.Fatal("expected error for invalid URL")
	}
}

func TestRedis_InsertAndFind(t *testing.T) {
	st, _ := newRedisStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	if err := st.Insert(t.Context(), newEnvelope("g1", now)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	env, err := st.Find(t.Context(), "g1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if env.GUID != "g1" || string(env.Accumulated) != "abc" || env.LastFragNum != 1 {
		t.Errorf("envelope did not round-trip: %+v", env)
	}
}

func TestRedis_FindMissing(t *testing.T) {
	st, _ := newRedisStore(t)
	if _, err := st.Find(t.Context(), "ghost"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRedis_DuplicateInsert(t *testing.T) {
	st, _ := newRedisStore(t)
	now := time.Now()

	if err := st.Insert(t.Context(), newEnvelope("g1", now)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := st.Insert(t.Context(), newEnvelope("g1", now)); !errors.Is(err, store.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestRedis_UpdateMissing(t *testing.T) {
	st, _ := newRedisStore(t)
	err := st.Update(t.Context(), newEnvelope("ghost", time.Now()))
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRedis_UpdateAndRemove(t *testing.T) {
	st, _ := newRedisStore(t)
	now := time.Now()

	if err := st.Insert(t.Context(), newEnvelope("g1", now)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	env, _ := st.Find(t.Context(), "g1")
	env.Accumulated = append(env.Accumulated, []byte("def")...)
	env.LastFragNum = 2
	if err := st.Update(t.Context(), env); err != nil {
		t.Fatalf("update: %v", err)
	}

	fresh, _ := st.Find(t.Context(), "g1")
	if string(fresh.Accumulated) != "abcdef" || fresh.LastFragNum != 2 {
		t.Errorf("update not applied: %+v", fresh)
	}

	if err := st.Remove(t.Context(), "g1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := st.Remove(t.Context(), "g1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("double remove must return ErrNotFound, got %v", err)
	}
}

func TestRedis_KeysCarryPrefix(t *testing.T) {
	st, mr := newRedisStore(t)

	if err := st.Insert(t.Context(), newEnvelope("g1", time.Now())); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !mr.Exists(store.DefaultKeyPrefix + "g1") {
		t.Errorf("expected key %sg1 in Redis", store.DefaultKeyPrefix)
	}
}

func TestRedis_EnvelopeExpiresViaTTL(t *testing.T) {
	st, mr := newRedisStore(t)

	if err := st.Insert(t.Context(), newEnvelope("g1", time.Now())); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Server-side aging replaces the sweep for this backend.
	mr.FastForward(6 * time.Minute)

	if _, err := st.Find(t.Context(), "g1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected envelope to expire, got %v", err)
	}

	evicted, err := st.Sweep(t.Context(), time.Now())
	if err != nil || evicted != 0 {
		t.Errorf("sweep must be a no-op, got (%d, %v)", evicted, err)
	}
}

func TestRedis_UpdateRefreshesTTL(t *testing.T) {
	st, mr := newRedisStore(t)

	if err := st.Insert(t.Context(), newEnvelope("g1", time.Now())); err != nil {
		t.Fatalf("insert: %v", err)
	}

	mr.FastForward(4 * time.Minute)

	env, err := st.Find(t.Context(), "g1")
	if err != nil {
		t.Fatalf("find before refresh: %v", err)
	}
	if err := st.Update(t.Context(), env); err != nil {
		t.Fatalf("update: %v", err)
	}

	// Past the original deadline but within the refreshed one.
	mr.FastForward(4 * time.Minute)

	if _, err := st.Find(t.Context(), "g1"); err != nil {
		t.Errorf("expected envelope to survive after TTL refresh, got %v", err)
	}
}

func TestRedis_Len(t *testing.T) {
	st, _ := newRedisStore(t)

	for _, guid := range []string{"g1", "g2", "g3"} {
		if err := st.Insert(t.Context(), newEnvelope(guid, time.Now())); err != nil {
			t.Fatalf("insert %s: %v", guid, err)
		}
	}

	n, err := st.Len(t.Context())
	if err != nil {
		t.Fatalf("len: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 envelopes, got %d", n)
	}
}
