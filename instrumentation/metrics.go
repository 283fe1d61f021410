package instrumentation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the engine's metric instruments
type Metrics struct {
	// Grant metrics
	TokensIssued    metric.Int64Counter
	GrantFailures   metric.Int64Counter
	TokensRefreshed metric.Int64Counter
	TokensRevoked   metric.Int64Counter

	// Authorization code metrics
	CodesIssued        metric.Int64Counter
	CodesRedeemed      metric.Int64Counter
	RedemptionFailures metric.Int64Counter

	// Admin metrics
	AdminLogins metric.Int64Counter

	// Storage metrics
	StorageOperations       metric.Int64Counter
	StorageOperationLatency metric.Float64Histogram
	StorageTokensCount      metric.Int64ObservableGauge
	StorageClientsCount     metric.Int64ObservableGauge
	StorageCodesCount       metric.Int64ObservableGauge
}

// newMetrics creates all metric instruments
func newMetrics(inst *Instrumentation) (*Metrics, error) {
	meter := inst.Meter("engine")
	storageMeter := inst.Meter("storage")

	m := &Metrics{}
	var err error

	m.TokensIssued, err = meter.Int64Counter(
		"oauth.tokens.issued",
		metric.WithDescription("Number of token pairs issued, by grant type"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokens issued counter: %w", err)
	}

	m.GrantFailures, err = meter.Int64Counter(
		"oauth.grants.failed",
		metric.WithDescription("Number of rejected grant requests, by grant type and error code"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create grant failures counter: %w", err)
	}

	m.TokensRefreshed, err = meter.Int64Counter(
		"oauth.tokens.refreshed",
		metric.WithDescription("Number of successful refresh token rotations"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokens refreshed counter: %w", err)
	}

	m.TokensRevoked, err = meter.Int64Counter(
		"oauth.tokens.revoked",
		metric.WithDescription("Number of tokens revoked, by reason"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokens revoked counter: %w", err)
	}

	m.CodesIssued, err = meter.Int64Counter(
		"oauth.codes.issued",
		metric.WithDescription("Number of authorization codes issued"),
		metric.WithUnit("{code}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create codes issued counter: %w", err)
	}

	m.CodesRedeemed, err = meter.Int64Counter(
		"oauth.codes.redeemed",
		metric.WithDescription("Number of authorization codes successfully redeemed"),
		metric.WithUnit("{code}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create codes redeemed counter: %w", err)
	}

	m.RedemptionFailures, err = meter.Int64Counter(
		"oauth.codes.redemption_failed",
		metric.WithDescription("Number of failed code redemptions, by reason"),
		metric.WithUnit("{code}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create redemption failures counter: %w", err)
	}

	m.AdminLogins, err = meter.Int64Counter(
		"oauth.admin.logins",
		metric.WithDescription("Number of admin login attempts, by outcome"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create admin logins counter: %w", err)
	}

	m.StorageOperations, err = storageMeter.Int64Counter(
		"storage.operations",
		metric.WithDescription("Number of storage operations, by operation and result"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage operations counter: %w", err)
	}

	m.StorageOperationLatency, err = storageMeter.Float64Histogram(
		"storage.operation.duration",
		metric.WithDescription("Storage operation duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage latency histogram: %w", err)
	}

	m.StorageTokensCount, err = storageMeter.Int64ObservableGauge(
		"storage.tokens.count",
		metric.WithDescription("Current number of stored tokens"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokens count gauge: %w", err)
	}

	m.StorageClientsCount, err = storageMeter.Int64ObservableGauge(
		"storage.clients.count",
		metric.WithDescription("Current number of registered clients"),
		metric.WithUnit("{client}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create clients count gauge: %w", err)
	}

	m.StorageCodesCount, err = storageMeter.Int64ObservableGauge(
		"storage.codes.count",
		metric.WithDescription("Current number of pending authorization codes"),
		metric.WithUnit("{code}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create codes count gauge: %w", err)
	}

	return m, nil
}

// RecordTokenIssued records a successful token issuance
func (m *Metrics) RecordTokenIssued(ctx context.Context, grantType string) {
	if m == nil {
		return
	}
	m.TokensIssued.Add(ctx, 1, metric.WithAttributes(
		attribute.String("grant_type", grantType),
	))
}

// RecordGrantFailure records a rejected grant request
func (m *Metrics) RecordGrantFailure(ctx context.Context, grantType, errorCode string) {
	if m == nil {
		return
	}
	m.GrantFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("grant_type", grantType),
		attribute.String("error_code", errorCode),
	))
}

// RecordTokenRefreshed records a successful refresh rotation
func (m *Metrics) RecordTokenRefreshed(ctx context.Context) {
	if m == nil {
		return
	}
	m.TokensRefreshed.Add(ctx, 1)
}

// RecordTokenRevoked records a token revocation
func (m *Metrics) RecordTokenRevoked(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.TokensRevoked.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
}

// RecordCodeIssued records an authorization code issuance
func (m *Metrics) RecordCodeIssued(ctx context.Context) {
	if m == nil {
		return
	}
	m.CodesIssued.Add(ctx, 1)
}

// RecordCodeRedeemed records a successful code redemption
func (m *Metrics) RecordCodeRedeemed(ctx context.Context) {
	if m == nil {
		return
	}
	m.CodesRedeemed.Add(ctx, 1)
}

// RecordRedemptionFailure records a failed code redemption
func (m *Metrics) RecordRedemptionFailure(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.RedemptionFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
}

// RecordAdminLogin records an admin login attempt
func (m *Metrics) RecordAdminLogin(ctx context.Context, success bool) {
	if m == nil {
		return
	}
	m.AdminLogins.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("success", success),
	))
}

// RecordStorageOperation records a storage operation and its duration
func (m *Metrics) RecordStorageOperation(ctx context.Context, operation, result string, durationMs float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("result", result),
	)
	m.StorageOperations.Add(ctx, 1, attrs)
	m.StorageOperationLatency.Record(ctx, durationMs, attrs)
}
