package queue

import (
    "context"       // deadlines and cancellation
    "errors"        // sentinel error matching
    "fmt"           // error wrapping and formatting
    "os"            // environment and files
    "path/filepath" // file system paths
    "time"          // timeouts and clocks

    "github.com/goccy/go-json"            // fast JSON encoding
    amqp "github.com/rabbitmq/amqp091-go" // RabbitMQ client

    "github.com/iliyamo/cms-auth/internal/logging" // structured logging
)

// StartAuditConsumer consumes AuthEventsQueue and appends one line per event
// to logPath.  It reconnects with exponential backoff and returns when ctx
// is cancelled.
func StartAuditConsumer(ctx context.Context, url, logPath string) error {
    log := logging.WithComponent("audit-consumer")
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Warn().Err(err).Dur("retry_in", backoff).Msg("dial broker failed")
            if !sleepCtx(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = consumeLoop(ctx, conn, logPath)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warn().Err(err).Msg("consume loop ended; reconnecting")
        if !sleepCtx(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, logPath string) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        logging.Warn().Err(err).Msg("audit-consumer: set QoS failed")
    }
    if _, err := ch.QueueDeclare(AuthEventsQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(AuthEventsQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := handleMessage(d.Body, logPath); err != nil {
                logging.Error().Err(err).Msg("audit-consumer: handle message failed")
                _ = d.Nack(false, false) // drop; requeueing a bad message loops forever
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// FormatLine renders ev as a single audit log line.
func FormatLine(ev AuthEvent) string {
    line := fmt.Sprintf("[%s] %s", ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type)
    if ev.Identifier != "" {
        line += fmt.Sprintf(" | identifier=%q", ev.Identifier)
    }
    if ev.UserID != "" {
        line += " | user_id=" + ev.UserID
    }
    if ev.IP != "" {
        line += " | ip=" + ev.IP
    }
    if ev.Reason != "" {
        line += " | reason=" + ev.Reason
    }
    if ev.UserAgent != "" {
        line += fmt.Sprintf(" | ua=%q", ev.UserAgent)
    }
    return line + "\n"
}

func handleMessage(body []byte, logPath string) error {
    var ev AuthEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" {
        return errors.New("event without type")
    }
    if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}
