package server

import (
	"context"

	"arena/internal/middleware"
	"arena/internal/models"
	"arena/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// LiveFeedUpgrade validates a live feed request before the WebSocket upgrade.
func (s *Server) LiveFeedUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	if s.notifier == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "live feed unavailable",
		})
	}
	if _, err := s.engine.GetDebate(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.Next()
}

// LiveFeed streams a debate's events to the client as JSON text frames
// until either side closes the connection or the server shuts down.
func (s *Server) LiveFeed() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		observability.LiveConnections.Inc()
		defer observability.LiveConnections.Dec()

		debateID := conn.Params("id")
		ctx, cancel := context.WithCancel(s.shutdownCtx)
		defer cancel()

		done, err := s.notifier.SubscribeDebate(ctx, debateID, func(payload string) {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
				cancel()
			}
		})
		if err != nil {
			middleware.Logger.Error("live feed subscribe failed", "debate_id", debateID, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"live feed unavailable"}`))
			return
		}

		// Reads only detect the client going away; incoming frames are ignored.
		readerDone := make(chan struct{})
		go func() {
			defer close(readerDone)
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
		<-ctx.Done()

		// The conn is recycled once this handler returns, so both goroutines
		// must be finished with it first.
		<-done
		_ = conn.Close()
		<-readerDone
	})
}
