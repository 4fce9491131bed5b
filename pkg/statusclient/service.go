package statusclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/api"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/logger"
	"github.com/gorilla/websocket"
)

var ErrGaveUp = errors.New("websocket retries exhausted")

type Options struct {
	MaxRetries     int
	BaseRetryDelay time.Duration
	MaxRetryDelay  time.Duration
	PingInterval   time.Duration
}

func DefaultOptions() Options {
	return Options{
		MaxRetries:     10,
		BaseRetryDelay: 2 * time.Second,
		MaxRetryDelay:  60 * time.Second,
		PingInterval:   30 * time.Second,
	}
}

// Listen follows the status stream of the dashboard API at host and calls fn
// for every status pushed. Lost connections are retried with exponential
// backoff. Listen returns nil once ctx is done, or ErrGaveUp.
func Listen(ctx context.Context, host string, opts Options, log *logger.Logger, fn func(api.StatusPayload)) error {
	u := url.URL{Scheme: "ws", Host: host, Path: "/ws"}
	retryCount := 0

	for {
		if retryCount > 0 {
			// Calculate retry delay with exponential backoff
			retryDelay := time.Duration(1<<min(retryCount-1, 16)) * opts.BaseRetryDelay
			if retryDelay > opts.MaxRetryDelay {
				retryDelay = opts.MaxRetryDelay
			}
			log.Info("Retrying connection",
				logger.Duration("delay", retryDelay),
				logger.Int("attempt", retryCount+1),
				logger.Int("max_retries", opts.MaxRetries),
			)
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return nil
			}
		}

		log.Info("Connecting", logger.String("url", u.String()))
		dialer := *websocket.DefaultDialer
		dialer.HandshakeTimeout = 10 * time.Second
		c, _, err := dialer.DialContext(ctx, u.String(), nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn("Connection failed", logger.Err(err))
			retryCount++
			if retryCount >= opts.MaxRetries {
				return ErrGaveUp
			}
			continue
		}

		log.Info("Connected, following status updates")
		retryCount = 0
		broken := handleConnection(ctx, c, opts, log, fn)
		c.Close()
		if !broken {
			return nil
		}
		log.Warn("Connection lost, will retry")
		retryCount = 1
	}
}

// handleConnection reads until the connection breaks (true) or ctx is done (false).
func handleConnection(ctx context.Context, c *websocket.Conn, opts Options, log *logger.Logger, fn func(api.StatusPayload)) bool {
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			messageType, message, err := c.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn("WebSocket error", logger.Err(err))
				} else {
					log.Debug("Connection closed", logger.Err(err))
				}
				return
			}
			if messageType != websocket.TextMessage {
				continue
			}
			var payload api.StatusPayload
			if err := json.Unmarshal(message, &payload); err != nil {
				log.Warn("Failed to parse status message", logger.Err(err))
				continue
			}
			fn(payload)
		}
	}()

	ticker := time.NewTicker(opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return true
		case <-ticker.C:
			if err := c.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				log.Warn("Failed to send ping", logger.Err(err))
			}
		case <-ctx.Done():
			err := c.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			if err != nil {
				log.Debug("Error sending close message", logger.Err(err))
			}
			// Wait for close confirmation or timeout
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return false
		}
	}
}
