// Package redis connects to Redis through github.com/redis/go-redis/v9.
//
// The bridge uses Redis only when several instances must share the nonce
// correlator and token mailbox; single-instance deployments keep that state in
// memory. Connect retries until PING succeeds and Healthcheck plugs the client
// into the readiness endpoint.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
package redis
