package redis

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	allowed, count, err := client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Fatalf("expected allowed on first request")
	}
	if count != 1 {
		t.Fatalf("expected counter 1 got %d", count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expected expire for first increment")
	}

	allowed, count, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 2 {
		t.Fatalf("unexpected second call state allowed=%v count=%d", allowed, count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expire should not be set again")
	}

	allowed, _, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("expected limit reached")
	}
}

func TestCartLifecycle(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	key := client.CartKey("sess-1")
	if err := client.Set(ctx, key, `[]`, time.Hour); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	value, err := client.Get(ctx, key)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if value != `[]` {
		t.Fatalf("expected stored cart, got %q", value)
	}

	if err := client.Publish(ctx, client.CartUpdatedChannel("sess-1"), ""); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if len(mock.published) != 1 || mock.published[0] != "simryo:cart.updated:sess-1" {
		t.Fatalf("unexpected publish calls %v", mock.published)
	}

	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, key); err != redis.Nil {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("scope", "id"); got != "simryo:idempotency:scope:id" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.RateLimitKey("scope"); got != "simryo:rate_limit:scope" {
		t.Fatalf("unexpected rate limit key %s", got)
	}
	if got := client.CounterKey("hits"); got != "simryo:counter:hits" {
		t.Fatalf("unexpected counter key %s", got)
	}
	if got := client.CartKey("sess"); got != "simryo:cart:sess" {
		t.Fatalf("unexpected cart key %s", got)
	}
	if got := client.PaymentSessionKey("ps"); got != "simryo:checkout:ps" {
		t.Fatalf("unexpected payment session key %s", got)
	}
	if got := client.CartUpdatedChannel("sess"); got != "simryo:cart.updated:sess" {
		t.Fatalf("unexpected cart channel %s", got)
	}
	if got := client.CartActivityKey(); got != "simryo:cart:activity" {
		t.Fatalf("unexpected cart activity key %s", got)
	}
	if got := client.CartMetaKey(); got != "simryo:cart:meta" {
		t.Fatalf("unexpected cart meta key %s", got)
	}
}

func TestSortedSetAndHashOps(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}
	key := client.CartActivityKey()

	if err := client.ZAdd(ctx, key, redis.Z{Score: 100, Member: "sess-old"}, redis.Z{Score: 200, Member: "sess-new"}); err != nil {
		t.Fatalf("zadd failed: %v", err)
	}
	entries, err := client.ZRangeByScoreWithScores(ctx, key, "-inf", "150", 0, 10)
	if err != nil {
		t.Fatalf("zrangebyscore failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Member != "sess-old" {
		t.Fatalf("unexpected range result %v", entries)
	}

	if err := client.ZRem(ctx, key, "sess-old"); err != nil {
		t.Fatalf("zrem failed: %v", err)
	}
	entries, err = client.ZRangeByScoreWithScores(ctx, key, "-inf", "+inf", 0, 10)
	if err != nil {
		t.Fatalf("zrangebyscore failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Member != "sess-new" {
		t.Fatalf("expected only sess-new, got %v", entries)
	}

	meta := client.CartMetaKey()
	if err := client.HSet(ctx, meta, "sess-new", 3); err != nil {
		t.Fatalf("hset failed: %v", err)
	}
	value, err := client.HGet(ctx, meta, "sess-new")
	if err != nil || value != "3" {
		t.Fatalf("hget got %q, %v", value, err)
	}
	if err := client.HDel(ctx, meta, "sess-new"); err != nil {
		t.Fatalf("hdel failed: %v", err)
	}
	if _, err := client.HGet(ctx, meta, "sess-new"); err != redis.Nil {
		t.Fatalf("expected redis.Nil after hdel, got %v", err)
	}
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	expireCalls []expireCall
	published   []string
	zsets       map[string]map[string]float64
	hashes      map[string]map[string]string
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data:   make(map[string]string),
		incr:   make(map[string]int64),
		zsets:  make(map[string]map[string]float64),
		hashes: make(map[string]map[string]string),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *mockCmdable) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	m.published = append(m.published, channel)
	return redis.NewIntResult(1, nil)
}

func (m *mockCmdable) ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd {
	set, ok := m.zsets[key]
	if !ok {
		set = make(map[string]float64)
		m.zsets[key] = set
	}
	for _, member := range members {
		set[fmt.Sprint(member.Member)] = member.Score
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func (m *mockCmdable) ZRangeByScoreWithScores(ctx context.Context, key string, opt *redis.ZRangeBy) *redis.ZSliceCmd {
	min := math.Inf(-1)
	if opt.Min != "-inf" {
		min, _ = strconv.ParseFloat(opt.Min, 64)
	}
	max := math.Inf(1)
	if opt.Max != "+inf" {
		max, _ = strconv.ParseFloat(opt.Max, 64)
	}
	var entries []redis.Z
	for member, score := range m.zsets[key] {
		if score >= min && score <= max {
			entries = append(entries, redis.Z{Score: score, Member: member})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Score < entries[j].Score })
	if opt.Count > 0 && int64(len(entries)) > opt.Count {
		entries = entries[:opt.Count]
	}
	return redis.NewZSliceCmdResult(entries, nil)
}

func (m *mockCmdable) ZRem(ctx context.Context, key string, members ...any) *redis.IntCmd {
	removed := int64(0)
	for _, member := range members {
		name := fmt.Sprint(member)
		if _, ok := m.zsets[key][name]; ok {
			delete(m.zsets[key], name)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func (m *mockCmdable) HSet(ctx context.Context, key string, values ...any) *redis.IntCmd {
	hash, ok := m.hashes[key]
	if !ok {
		hash = make(map[string]string)
		m.hashes[key] = hash
	}
	for i := 0; i+1 < len(values); i += 2 {
		hash[fmt.Sprint(values[i])] = fmt.Sprint(values[i+1])
	}
	return redis.NewIntResult(int64(len(values)/2), nil)
}

func (m *mockCmdable) HGet(ctx context.Context, key, field string) *redis.StringCmd {
	value, ok := m.hashes[key][field]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (m *mockCmdable) HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd {
	removed := int64(0)
	for _, field := range fields {
		if _, ok := m.hashes[key][field]; ok {
			delete(m.hashes[key], field)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}
