package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/goodmove/logistics-api/internal/api/metrics"
	"github.com/goodmove/logistics-api/internal/core/ports"
)

const maxWebhookBody = 1 << 16

// WebhookParser verifies and decodes a processor delivery.
type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (*ports.WebhookEvent, error)
}

// EventSubmitter applies a verified event and reports its outcome.
type EventSubmitter interface {
	Submit(ctx context.Context, event ports.WebhookEvent) error
}

type WebhookHandler struct {
	parser WebhookParser
	events EventSubmitter
	log    zerolog.Logger
}

func NewWebhookHandler(parser WebhookParser, events EventSubmitter, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{parser: parser, events: events, log: log}
}

// Handle handles POST /api/webhook. The signature is checked against the raw
// body before anything in it is trusted. A non-2xx reply makes the processor
// redeliver, so apply failures are returned rather than swallowed.
//
// @Summary      Payment processor webhook
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature  header    string  true  "Processor signature"
// @Success      200               {object}  webhookAck
// @Failure      400               {object}  apiError
// @Failure      500               {object}  apiError
// @Router       /api/webhook [post]
func (h *WebhookHandler) Handle(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}

	ev, err := h.parser.ParseWebhook(payload, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("unknown", "rejected").Inc()
		h.log.Warn().Err(err).Str("remote_ip", c.RealIP()).Msg("webhook rejected")
		return err
	}

	kind := string(ev.Kind)
	switch ev.Kind {
	case ports.EventPaymentSucceeded, ports.EventSubscriptionUpdated, ports.EventSubscriptionDeleted:
	default:
		metrics.WebhookEventsTotal.WithLabelValues(kind, "ignored").Inc()
		h.log.Debug().Str("event_id", ev.ID).Str("kind", kind).Msg("webhook event ignored")
		return c.JSON(http.StatusOK, webhookAck{Received: true})
	}

	if err := h.events.Submit(c.Request().Context(), *ev); err != nil {
		metrics.WebhookEventsTotal.WithLabelValues(kind, "failed").Inc()
		return err
	}
	metrics.WebhookEventsTotal.WithLabelValues(kind, "processed").Inc()

	return c.JSON(http.StatusOK, webhookAck{Received: true})
}
