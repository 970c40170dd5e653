package pipeline

import (
	"context"
	"fmt"
	"time"

	"quiz-forge/internal/keyhealth"
	"quiz-forge/internal/provider"

	"go.uber.org/zap"
)

const probePrompt = `Reply with the JSON object {"status":"ok"}.`

// ProbeResult is the outcome of a connection check.
type ProbeResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	LatencyMs int64  `json:"latencyMs"`
	KeyCount  int    `json:"keyCount"`
	Provider  string `json:"provider"`
}

// ValidateConnection makes one direct call with the first credential of the
// active provider. It does not rotate; the outcome is recorded in key health.
func (p *Pipeline) ValidateConnection(ctx context.Context) ProbeResult {
	cfg := p.providerConfig(ctx)

	adapter := p.primary
	creds := p.credentials.SystemCredentials()
	if cfg.IsCompatible() {
		adapter = p.newCompatible(*cfg.Compatible)
		creds = compatiblePhases(cfg.Compatible)[0].Credentials
	}

	result := ProbeResult{KeyCount: len(creds), Provider: adapter.Name()}
	if len(creds) == 0 || creds[0].Value == "" {
		result.Message = "no API keys configured"
		return result
	}

	cred := creds[0]
	registry := p.executor.Registry()
	registry.Ensure(cred)

	start := time.Now()
	resp, err := adapter.GenerateText(ctx, cred, provider.TextRequest{Prompt: probePrompt, JSONMode: true})
	result.LatencyMs = time.Since(start).Milliseconds()

	if err != nil {
		failure := keyhealth.FailureError
		if provider.IsThrottled(err) {
			failure = keyhealth.FailureThrottled
		}
		registry.RecordFailure(cred, failure)
		p.logger.Warn("Provider connection check failed",
			zap.String("provider", adapter.Name()),
			zap.String("key", cred.Mask()),
			zap.Error(err),
		)
		result.Message = fmt.Sprintf("connection failed: %v", err)
		return result
	}
	if resp == nil || resp.Text == "" {
		registry.RecordFailure(cred, keyhealth.FailureError)
		result.Message = "provider answered with an empty response"
		return result
	}

	registry.RecordSuccess(cred)
	result.Success = true
	result.Message = fmt.Sprintf("connected to %s provider", adapter.Name())
	return result
}
