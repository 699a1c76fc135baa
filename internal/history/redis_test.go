package history

import (
	"context"
	"os"
	"testing"

	"cardquiz/internal/cache"
)

func TestRedisStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client, err := cache.NewRedisClient(ctx, addr, "", 15)
	if err != nil {
		t.Fatalf("NewRedisClient() error = %v", err)
	}
	defer client.Close()

	const userID = 424242
	defer client.Del(ctx, historyKey(userID))

	store := NewRedisStore(client)
	if items, err := store.Load(ctx, userID); err != nil || len(items) != 0 {
		t.Fatalf("Load() on empty = %v, %v", items, err)
	}
	if err := Append(ctx, store, userID, sampleItem(90)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	items, err := store.Load(ctx, userID)
	if err != nil || len(items) != 1 || items[0].QuizID != "quiz1-easy" {
		t.Fatalf("Load() = %+v, %v", items, err)
	}

	if err := client.Set(ctx, historyKey(userID), "][", 0).Err(); err != nil {
		t.Fatal(err)
	}
	if items, err := store.Load(ctx, userID); err != nil || len(items) != 0 {
		t.Errorf("Load() on malformed = %v, %v; want empty", items, err)
	}

	if err := client.Del(ctx, historyKey(userID)).Err(); err != nil {
		t.Fatal(err)
	}
	appendConcurrently(t, store, userID, 10)
}
