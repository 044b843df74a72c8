package config

// Redis backs the shared lockout counters, the signature replay cache and the
// login rate limiter.  When it cannot be reached at startup the service falls
// back to process-local counters and disables rate limiting.

import (
    "context"    // deadlines and cancellation
    "crypto/tls" // TLS for the AMQP dial
    "os"         // environment and files
    "strconv"    // string/number conversion
    "strings"    // string manipulation utilities
    "time"       // timeouts and clocks

    "github.com/redis/go-redis/v9" // Redis client

    "github.com/iliyamo/cms-auth/internal/logging" // structured logging
)

// NewRedisClient builds a client from the environment:
//   REDIS_ADDR             host:port (default localhost:6379)
//   REDIS_HOST, REDIS_PORT override REDIS_ADDR when both are set
//   REDIS_PASSWORD         optional
//   REDIS_DB               database number (default 0)
//   REDIS_TLS              "true" or "1" enables TLS
//   REDIS_DISABLED         "true" skips Redis entirely
// It returns nil when Redis is disabled or the ping fails.
func NewRedisClient() *redis.Client {
    if envBool("REDIS_DISABLED", false) {
        return nil
    }
    addr := os.Getenv("REDIS_ADDR")
    host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")
    if host != "" && port != "" {
        addr = host + ":" + port
    }
    if addr == "" {
        addr = "localhost:6379"
    }
    dbNum := 0
    if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
        if n, err := strconv.Atoi(dbStr); err == nil {
            dbNum = n
        }
    }
    var tlsConf *tls.Config
    if v := os.Getenv("REDIS_TLS"); strings.EqualFold(v, "true") || v == "1" {
        tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      addr,
        Password:  os.Getenv("REDIS_PASSWORD"),
        DB:        dbNum,
        TLSConfig: tlsConf,
    })

    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        logging.Warn().Err(err).Str("addr", addr).Msg("redis unreachable; using in-memory counters")
        _ = client.Close()
        return nil
    }
    return client
}
