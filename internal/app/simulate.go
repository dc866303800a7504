package app

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"home-energy-dashboard/internal/fetcher"
	"home-energy-dashboard/internal/service"
	"home-energy-dashboard/internal/telemetry"
)

// SimulateAlert 构造一条异常读数并走完整的刷新与告警链路。
func (a *App) SimulateAlert(ctx context.Context, opts SimulateOptions) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting 未启用")
	}

	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("未配置任何告警通道")
	}

	now := time.Now().UTC()
	kwh := decimal.NewFromFloat(opts.ConsumptionKWH)
	message := opts.Message
	if message == "" {
		message = "Injected anomaly: Device " + opts.DeviceID + " had an unusual spike in consumption."
	}

	reading := telemetry.Reading{
		DeviceID:        opts.DeviceID,
		Timestamp:       now,
		ConsumptionKWH:  kwh,
		Status:          "ANOMALY_SPIKE",
		AnomalyDetected: true,
		AnomalyMessage:  message,
	}

	static := &staticPayloadFetcher{payload: telemetry.Payload{
		RecentReadings: []telemetry.Reading{reading},
		Anomalies: []telemetry.Anomaly{{
			Timestamp:      now,
			DeviceID:       opts.DeviceID,
			Message:        message,
			ConsumptionKWH: kwh,
		}},
	}}

	svc := service.New(a.Config, nil, static, notifier, a.Logger)
	return svc.Refresh(ctx)
}

type staticPayloadFetcher struct {
	payload telemetry.Payload
}

func (s *staticPayloadFetcher) FetchPayload(ctx context.Context) (telemetry.Payload, error) {
	return s.payload, nil
}

var _ fetcher.PayloadFetcher = (*staticPayloadFetcher)(nil)
