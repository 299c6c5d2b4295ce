package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/marketdash/marketdash/feed"
	"github.com/marketdash/marketdash/utils"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusDegraded  HealthStatus = "degraded"
)

// ComponentHealth represents the health of a single component
type ComponentHealth struct {
	Name      string       `json:"name"`
	Status    HealthStatus `json:"status"`
	Message   string       `json:"message,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
	Duration  string       `json:"duration,omitempty"`
}

// HealthResponse represents the overall health response
type HealthResponse struct {
	Status     HealthStatus      `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Version    string            `json:"version"`
	Components []ComponentHealth `json:"components"`
	Uptime     string            `json:"uptime"`
}

// HealthService defines the health check service interface
type HealthService interface {
	CheckHealth(ctx context.Context) HealthResponse
	CheckFeed(ctx context.Context) ComponentHealth
}

type healthService struct {
	feed      feed.FeedConsumer
	logger    *zap.Logger
	startTime time.Time
	version   string
}

// healthProbeSymbol is a liquid ticker used to verify the provider answers.
const healthProbeSymbol = "AAPL"

// NewHealthService creates a new health service
func NewHealthService(f feed.FeedConsumer, logger *zap.Logger, version string) HealthService {
	return &healthService{
		feed:      f,
		logger:    logger,
		startTime: time.Now(),
		version:   version,
	}
}

func (h *healthService) CheckHealth(ctx context.Context) HealthResponse {
	components := []ComponentHealth{
		h.CheckFeed(ctx),
		h.marketComponent(),
	}

	status := HealthStatusHealthy
	for _, c := range components {
		if c.Status == HealthStatusUnhealthy {
			status = HealthStatusDegraded
		}
	}

	return HealthResponse{
		Status:     status,
		Timestamp:  time.Now(),
		Version:    h.version,
		Components: components,
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
	}
}

func (h *healthService) CheckFeed(ctx context.Context) ComponentHealth {
	start := time.Now()
	component := ComponentHealth{
		Name:      "feed:" + h.feed.ProviderName(),
		Status:    HealthStatusHealthy,
		Timestamp: start,
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := h.feed.FetchQuote(ctx, healthProbeSymbol); err != nil {
		h.logger.Warn("feed health probe failed", zap.Error(err))
		component.Status = HealthStatusUnhealthy
		component.Message = err.Error()
	}
	component.Duration = time.Since(start).String()
	return component
}

// marketComponent reports whether regular trading hours are in session,
// purely informational for the dashboard header.
func (h *healthService) marketComponent() ComponentHealth {
	message := "market closed"
	if utils.IsMarketHours(time.Now()) {
		message = "market open"
	}
	return ComponentHealth{
		Name:      "market",
		Status:    HealthStatusHealthy,
		Message:   message,
		Timestamp: time.Now(),
	}
}
