// Package redis provides a Redis-backed session.Store and client
// initialization with connection verification.
//
// Sessions are stored as JSON blobs under "<prefix>:session:<id>" with a
// "<prefix>:token:<token>" index for token lookups. Both keys carry a TTL
// derived from the session expiry, so expired sessions vanish without a
// cleanup job and DeleteExpired is a no-op.
//
// # Usage
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	store := redis.NewStore[MySessionData](client)
//	manager := session.NewManager(store, 24*time.Hour, 5*time.Minute)
//
// Connect validates the URL (redis:// or rediss://), retries the initial
// ping with linear backoff, and fails with ErrRedisNotReady when the
// retry budget is exhausted.
package redis
