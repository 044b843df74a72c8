package config

import (
    "os"      // environment and files
    "strconv" // string/number conversion
    "time"    // timeouts and clocks
)

// RateLimitConfig configures the Redis token bucket in front of the login
// endpoint.  A bucket holds Capacity tokens and regains RefillTokens every
// RefillInterval.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string // ip or ip_route (default)
    Prefix         string
    Debug          bool
}

// LoadRateLimitConfig reads LOGIN_RATE_LIMIT_* variables.  The defaults allow
// a burst of 10 login calls per client and one more every 6 seconds.
func LoadRateLimitConfig() RateLimitConfig {
    def := RateLimitConfig{
        Enabled:        envBool("LOGIN_RATE_LIMIT_ENABLED", true),
        Capacity:       envInt("LOGIN_RATE_LIMIT_CAPACITY", 10),
        RefillTokens:   envInt("LOGIN_RATE_LIMIT_REFILL_TOKENS", 1),
        RefillInterval: envDur("LOGIN_RATE_LIMIT_REFILL_INTERVAL", 6*time.Second),
        TTL:            envDur("LOGIN_RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:    envStr("LOGIN_RATE_LIMIT_KEY_STRATEGY", "ip_route"),
        Prefix:         envStr("LOGIN_RATE_LIMIT_PREFIX", "rl"),
        Debug:          envBool("LOGIN_RATE_LIMIT_DEBUG", false),
    }
    if def.Capacity < 1 { def.Capacity = 1 }
    if def.RefillTokens < 1 { def.RefillTokens = 1 }
    if def.RefillInterval <= 0 { def.RefillInterval = time.Second }
    minTTL := 5 * def.RefillInterval
    if def.TTL < minTTL { def.TTL = minTTL }
    return def
}

func envStr(k, d string) string { if v := os.Getenv(k); v != "" { return v }; return d }
func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" { return d }
    switch v {
    case "1","true","TRUE","True","yes","YES","on","ON": return true
    case "0","false","FALSE","False","no","NO","off","OFF": return false
    }
    return d
}
func envInt(k string, d int) int {
    v := os.Getenv(k); if v == "" { return d }
    if n, err := strconv.Atoi(v); err == nil { return n }
    return d
}
func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k); if v == "" { return d }
    if dur, err := time.ParseDuration(v); err == nil { return dur }
    return d
}
