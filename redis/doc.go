// Package redis provides a Redis client component and SCAN-family page
// fetchers for streaming keys, set members, hash fields and sorted set
// members through a paged cursor.
//
// It wraps go-redis with pagestream logging, configuration conventions and
// component lifecycle (Start/Stop/Health).
//
// Redis cursors are opaque positions; a reply with position 0 ends the
// iteration, which the fetchers report as the last page:
//
//	client, _ := redis.New(cfg, log)
//	n, err := enumerator.Drain(ctx, client.Keys(redis.ScanOptions{Match: "user:*"}),
//	    func(key string) error {
//	        fmt.Println(key)
//	        return nil
//	    })
package redis
