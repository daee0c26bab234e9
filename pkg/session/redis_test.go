// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, mr
}

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// startReplication runs store.Replicate in the background and waits until
// the subscription is registered with Redis.
func startReplication(t *testing.T, ctx context.Context, mr *miniredis.Miniredis, store *Store, notifier Notifier, subscribers int) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		done <- store.Replicate(ctx, notifier)
	}()
	waitFor(t, "subscription", func() bool {
		return mr.PubSubNumSub(DefaultChannel)[DefaultChannel] >= subscribers
	})
	return done
}

func TestRedisStorage_GetMissing(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	storage := NewRedisStorage(client, RedisStorageConfig{})

	_, _, err := storage.Get(context.Background(), DefaultKey)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, expected ErrNotFound", err)
	}
}

func TestRedisStorage_SetWritesKey(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	storage := NewRedisStorage(client, RedisStorageConfig{})

	for i := int64(1); i <= 2; i++ {
		revision, err := storage.Set(ctx, DefaultKey, []byte(`{"ghostRoom":"Kitchen"}`))
		if err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if revision != i {
			t.Errorf("Set() revision = %d, expected %d", revision, i)
		}
	}

	data, revision, err := storage.Get(ctx, DefaultKey)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(data) != `{"ghostRoom":"Kitchen"}` {
		t.Errorf("Get() = %s, expected stored payload", data)
	}
	if revision != 2 {
		t.Errorf("Get() revision = %d, expected 2", revision)
	}
	if mr.TTL(DefaultKey) != 0 {
		t.Errorf("TTL = %v, expected none", mr.TTL(DefaultKey))
	}
}

func TestRedisStorage_SetWithTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	storage := NewRedisStorage(client, RedisStorageConfig{TTL: 24 * time.Hour})

	if _, err := storage.Set(context.Background(), DefaultKey, []byte(`{}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if mr.TTL(DefaultKey) != 24*time.Hour {
		t.Errorf("TTL = %v, expected %v", mr.TTL(DefaultKey), 24*time.Hour)
	}
}

func TestRedisStorage_SetFailsWhenRedisIsDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	storage := NewRedisStorage(client, RedisStorageConfig{})
	mr.Close()

	if _, err := storage.Set(context.Background(), DefaultKey, []byte(`{}`)); err == nil {
		t.Error("Set() expected error with Redis down")
	}
}

func TestNewStore_LoadsFromRedis(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	saved := DefaultState()
	saved.SelectedGhost = "Poltergeist"
	saved.Difficulty = 2
	data, _ := json.Marshal(saved)
	mr.Set(DefaultKey, string(data))

	store := NewStore(context.Background(), NewRedisStorage(client, RedisStorageConfig{}), StoreConfig{})

	state := store.Snapshot()
	if state.SelectedGhost != "Poltergeist" || state.Difficulty != 2 {
		t.Errorf("Snapshot() = %+v, expected saved state", state)
	}
}

func TestReplication_BetweenStores(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storageA := NewRedisStorage(client, RedisStorageConfig{})
	storageB := NewRedisStorage(client, RedisStorageConfig{})
	storeA := NewStore(ctx, storageA, StoreConfig{})
	storeB := NewStore(ctx, storageB, StoreConfig{})

	var (
		watchMu sync.Mutex
		watched int
	)
	storeA.Watch(func(State) {
		watchMu.Lock()
		watched++
		watchMu.Unlock()
	})

	doneA := startReplication(t, ctx, mr, storeA, storageA, 1)
	doneB := startReplication(t, ctx, mr, storeB, storageB, 2)

	room := "Kitchen"
	storeA.Update(ctx, Patch{GhostRoom: &room})
	storeA.AddLogEntry(ctx, "Ghost room set")

	waitFor(t, "replicated log entry", func() bool {
		state := storeB.Snapshot()
		return state.GhostRoom == "Kitchen" && len(state.ActivityLog) == 1
	})

	hunting := true
	storeB.Update(ctx, Patch{IsHunting: &hunting})
	waitFor(t, "replication back to A", func() bool {
		return storeA.Snapshot().IsHunting
	})

	if got := storeA.Snapshot().GhostRoom; got != "Kitchen" {
		t.Errorf("GhostRoom = %q, expected %q", got, "Kitchen")
	}

	cancel()
	for _, done := range []<-chan error{doneA, doneB} {
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Replicate() error = %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Replicate() did not return after cancel")
		}
	}

	// A saw its two local updates and one merged change; its own events were skipped.
	watchMu.Lock()
	defer watchMu.Unlock()
	if watched != 3 {
		t.Errorf("watch notifications = %d, expected 3", watched)
	}
}

func TestReplication_SkipsMalformedEvents(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storage := NewRedisStorage(client, RedisStorageConfig{})
	store := NewStore(ctx, storage, StoreConfig{})
	startReplication(t, ctx, mr, store, storage, 1)

	mr.Publish(DefaultChannel, "not an event")
	bad, _ := json.Marshal(ChangeEvent{Origin: "tab-2", Key: DefaultKey, NewValue: `{"ghostRoom":`})
	mr.Publish(DefaultChannel, string(bad))
	good, _ := json.Marshal(ChangeEvent{Origin: "tab-2", Key: DefaultKey, NewValue: `{"ghostRoom":"Attic"}`})
	mr.Publish(DefaultChannel, string(good))

	waitFor(t, "valid event after malformed ones", func() bool {
		return store.Snapshot().GhostRoom == "Attic"
	})
}

func TestRedisStorage_SetPublishesRevision(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	writer := NewRedisStorage(client, RedisStorageConfig{})
	reader := NewRedisStorage(client, RedisStorageConfig{})

	events := make(chan ChangeEvent, 4)
	go func() {
		_ = reader.Subscribe(ctx, nil, func(event ChangeEvent) { events <- event })
	}()
	waitFor(t, "subscription", func() bool {
		return mr.PubSubNumSub(DefaultChannel)[DefaultChannel] >= 1
	})

	if _, err := writer.Set(ctx, DefaultKey, []byte(`{"ghostRoom":"Kitchen"}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	select {
	case event := <-events:
		expected := ChangeEvent{Origin: writer.Origin(), Key: DefaultKey, NewValue: `{"ghostRoom":"Kitchen"}`, Revision: 1}
		if event != expected {
			t.Errorf("event = %+v, expected %+v", event, expected)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
}

func TestReplication_CatchesUpOnWritesBeforeSubscribe(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storageA := NewRedisStorage(client, RedisStorageConfig{})
	storeA := NewStore(ctx, storageA, StoreConfig{})

	// Another instance writes while A is still starting up.
	storageB := NewRedisStorage(client, RedisStorageConfig{})
	storeB := NewStore(ctx, storageB, StoreConfig{})
	room := "Attic"
	storeB.Update(ctx, Patch{GhostRoom: &room})

	startReplication(t, ctx, mr, storeA, storageA, 1)

	waitFor(t, "catch-up after subscribe", func() bool {
		return storeA.Snapshot().GhostRoom == "Attic"
	})
	if storeA.Revision() != storeB.Revision() {
		t.Errorf("Revision() = %d, expected %d", storeA.Revision(), storeB.Revision())
	}
}

func TestSubscribe_ReturnsErrorWhenRedisIsDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	storage := NewRedisStorage(client, RedisStorageConfig{})
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := storage.Subscribe(ctx, nil, func(ChangeEvent) {}); err == nil {
		t.Error("Subscribe() expected error with Redis down")
	}
}
