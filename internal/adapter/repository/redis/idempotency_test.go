package redis

import (
	"context"
	"testing"
	"time"
)

func TestIdempotencyStore_ReplaysRecordedResponse(t *testing.T) {
	client := newTestRedisClient(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if err := client.Set(ctx, store.prefix+"transfer-1", `{"status":"committed"}`, time.Minute).Err(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	seen, resp, err := store.CheckAndSet(ctx, "transfer-1", nil, time.Minute)
	if err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}

	if !seen || string(resp) != `{"status":"committed"}` {
		t.Fatalf("expected recorded response, got seen=%v resp=%s", seen, resp)
	}
}

func TestIdempotencyStore_ClaimsUnseenKey(t *testing.T) {
	client := newTestRedisClient(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	seen, resp, err := store.CheckAndSet(ctx, "transfer-2", nil, time.Minute)
	if err != nil || seen || resp != nil {
		t.Fatalf("unexpected result: seen=%v resp=%v err=%v", seen, resp, err)
	}

	val, err := client.Get(ctx, store.prefix+"transfer-2").Result()
	if err != nil || val != processingMarker {
		t.Fatalf("expected processing marker, got val=%q err=%v", val, err)
	}
}

func TestIdempotencyStore_DuplicateSeesInFlightMarker(t *testing.T) {
	client := newTestRedisClient(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, "transfer-3", nil, time.Minute); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}

	// Second request with the same key races the still-running first one.
	seen, resp, err := store.CheckAndSet(ctx, "transfer-3", nil, time.Minute)
	if err != nil {
		t.Fatalf("duplicate CheckAndSet failed: %v", err)
	}

	if !seen || string(resp) != processingMarker {
		t.Fatalf("expected in-flight marker, got seen=%v resp=%s", seen, resp)
	}
}

func TestIdempotencyStore_DeleteReleasesClaim(t *testing.T) {
	client := newTestRedisClient(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, "transfer-5", nil, time.Minute); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	if err := store.Delete(ctx, "transfer-5"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	// The key is free again, so a retry claims it instead of replaying.
	seen, resp, err := store.CheckAndSet(ctx, "transfer-5", nil, time.Minute)
	if err != nil || seen || resp != nil {
		t.Fatalf("expected fresh claim after delete: seen=%v resp=%v err=%v", seen, resp, err)
	}
}

func TestIdempotencyStore_UpdateReplacesMarker(t *testing.T) {
	client := newTestRedisClient(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, "transfer-4", nil, time.Minute); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	if err := store.Update(ctx, "transfer-4", []byte(`{"status":"committed"}`), time.Minute); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	seen, resp, err := store.CheckAndSet(ctx, "transfer-4", nil, time.Minute)
	if err != nil || !seen {
		t.Fatalf("expected recorded response after update: seen=%v err=%v", seen, err)
	}

	if string(resp) != `{"status":"committed"}` {
		t.Fatalf("unexpected stored response: %s", resp)
	}
}
