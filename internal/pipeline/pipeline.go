// Package pipeline turns a GenerationRequest into validated quiz content. It
// selects the active backend, runs every provider call through the rotation
// executor, repairs and normalizes the output, and degrades image failures to
// placeholders.
package pipeline

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"quiz-forge/internal/domain"
	"quiz-forge/internal/metrics"
	"quiz-forge/internal/provider"
	"quiz-forge/internal/rotation"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	phaseUser       = "user"
	phaseSystem     = "system"
	phaseCompatible = "compatible"

	compatibleMaxAttempts = 2
)

var (
	errEmptyResponse     = errors.New("provider returned an empty response")
	errGenerationStopped = errors.New("provider stopped generating before completion")
)

// Config holds pipeline tunables.
type Config struct {
	MinUserKeyLength int
	// ImageConcurrency bounds parallel image calls; 1 or less is sequential.
	ImageConcurrency int
	ImageCacheTTL    time.Duration
}

// DefaultConfig returns the sequential-image defaults.
func DefaultConfig() Config {
	return Config{
		MinUserKeyLength: 10,
		ImageConcurrency: 1,
		ImageCacheTTL:    24 * time.Hour,
	}
}

// CompatibleFactory builds an adapter for the configured compatible backend.
type CompatibleFactory func(settings domain.CompatibleSettings) provider.Adapter

// NewCompatibleFactory returns a factory producing CompatibleAdapters that
// share httpClient.
func NewCompatibleFactory(httpClient *http.Client) CompatibleFactory {
	return func(settings domain.CompatibleSettings) provider.Adapter {
		return provider.NewCompatibleAdapter(settings, httpClient)
	}
}

// Pipeline is the content generation entry point.
type Pipeline struct {
	executor      *rotation.Executor
	settings      domain.SettingsStore
	credentials   domain.CredentialSource
	primary       provider.Adapter
	newCompatible CompatibleFactory
	cache         domain.Cache
	cfg           Config
	logger        *zap.Logger
	inflight      singleflight.Group
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithImageCache enables caching of generated images.
func WithImageCache(c domain.Cache) Option {
	return func(p *Pipeline) {
		p.cache = c
	}
}

// New creates a Pipeline.
func New(
	executor *rotation.Executor,
	settings domain.SettingsStore,
	credentials domain.CredentialSource,
	primary provider.Adapter,
	newCompatible CompatibleFactory,
	cfg Config,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		executor:      executor,
		settings:      settings,
		credentials:   credentials,
		primary:       primary,
		newCompatible: newCompatible,
		cfg:           cfg,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// KeyHealth returns the current health snapshot of every observed credential.
func (p *Pipeline) KeyHealth() []domain.KeyHealthRecord {
	return p.executor.Registry().Snapshot()
}

func (p *Pipeline) providerConfig(ctx context.Context) domain.ProviderConfiguration {
	cfg, err := p.settings.GetProviderConfiguration(ctx)
	if err != nil {
		p.logger.Warn("Failed to load provider settings, using primary provider", zap.Error(err))
		return domain.ProviderConfiguration{Provider: domain.ProviderPrimary}
	}
	return cfg
}

func (p *Pipeline) phases(userKeys []string) []rotation.Phase {
	return []rotation.Phase{
		{Name: phaseUser, Credentials: domain.SanitizeUserCredentials(userKeys, p.cfg.MinUserKeyLength)},
		{Name: phaseSystem, Credentials: p.credentials.SystemCredentials()},
	}
}

func compatiblePhases(settings *domain.CompatibleSettings) []rotation.Phase {
	return []rotation.Phase{{
		Name:        phaseCompatible,
		Credentials: []domain.Credential{{Value: settings.APIKey, Origin: domain.KeyOriginSystem}},
	}}
}

// GenerateQuizContent generates questions and blueprint for req. Failures are
// returned as *domain.DomainError carrying a message localized for the
// request language.
func (p *Pipeline) GenerateQuizContent(ctx context.Context, req *domain.GenerationRequest) (*domain.GenerationResult, error) {
	start := time.Now()
	cfg := p.providerConfig(ctx)
	if !req.FactCheckSet {
		withDefault := *req
		withDefault.FactCheck = cfg.FactCheck
		req = &withDefault
	}
	plan := PlanDistribution(req.QuestionCount, req.Types)

	system, user, err := BuildInstructions(req, plan)
	if err != nil {
		return nil, domain.NewInternalError("failed to build instructions", err)
	}

	var (
		result       *domain.GenerationResult
		providerName string
	)
	if cfg.IsCompatible() {
		providerName = phaseCompatible
		result, err = p.generateCompatible(ctx, cfg.Compatible, req, system, user)
	} else {
		providerName = p.primary.Name()
		result, err = p.generatePrimary(ctx, req, plan, system, user)
	}
	if err != nil {
		metrics.GenerationDuration.WithLabelValues(providerName, "error").Observe(time.Since(start).Seconds())
		p.logger.Error("Quiz content generation failed",
			zap.String("provider", providerName),
			zap.String("topic", req.Topic),
			zap.Error(err),
		)
		return nil, toUserError(err, req.Language)
	}

	PostProcess(result, req, plan)
	metrics.GenerationDuration.WithLabelValues(providerName, "success").Observe(time.Since(start).Seconds())
	p.logger.Info("Quiz content generated",
		zap.String("provider", providerName),
		zap.Int("questions", len(result.Questions)),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

func (p *Pipeline) generatePrimary(ctx context.Context, req *domain.GenerationRequest, plan []TypeQuota, system, user string) (*domain.GenerationResult, error) {
	textReq := provider.TextRequest{
		SystemInstruction: system,
		Prompt:            user,
		Schema:            QuizSchema(req, plan),
		ReferenceImage:    req.ReferenceImage,
	}
	resp, err := rotation.Execute(ctx, p.executor, p.phases(req.UserCredentials),
		func(ctx context.Context, cred domain.Credential) (*provider.TextResponse, error) {
			return p.primary.GenerateText(ctx, cred, textReq)
		})
	if err != nil {
		return nil, err
	}
	if err := checkEmpty(resp); err != nil {
		return nil, err
	}
	return ParseResult(resp.Text)
}

func (p *Pipeline) generateCompatible(ctx context.Context, settings *domain.CompatibleSettings, req *domain.GenerationRequest, system, user string) (*domain.GenerationResult, error) {
	adapter := p.newCompatible(*settings)
	phases := compatiblePhases(settings)

	var lastErr error
	for attempt := 1; attempt <= compatibleMaxAttempts; attempt++ {
		prompt := user + "\n" + compatibleContract
		if attempt > 1 {
			prompt += "\n" + correctionNote
			metrics.RepairAttempts.Inc()
		}
		textReq := provider.TextRequest{
			SystemInstruction: system,
			Prompt:            prompt,
			JSONMode:          true,
			ReferenceImage:    req.ReferenceImage,
		}

		resp, err := rotation.Execute(ctx, p.executor, phases,
			func(ctx context.Context, cred domain.Credential) (*provider.TextResponse, error) {
				return adapter.GenerateText(ctx, cred, textReq)
			})
		if err != nil {
			return nil, err
		}
		if err := checkEmpty(resp); err != nil {
			return nil, err
		}

		result, err := ParseResult(resp.Text)
		if err == nil {
			return result, nil
		}
		lastErr = err
		p.logger.Warn("Compatible provider returned unparseable output",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	return nil, lastErr
}

func checkEmpty(resp *provider.TextResponse) error {
	if resp != nil && strings.TrimSpace(resp.Text) != "" {
		return nil
	}
	if resp != nil && resp.FinishReason != "" && !resp.NormalStop {
		return errGenerationStopped
	}
	return errEmptyResponse
}

func toUserError(err error, lang domain.LanguageContext) error {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return err
	}
	switch {
	case rotation.IsExhausted(err):
		return domain.NewGenerationError(domain.CodeGenerationExhausted, lang, err)
	case provider.IsRequest(err):
		return domain.NewGenerationError(domain.CodeProviderRejected, lang, err)
	case IsParseError(err):
		return domain.NewGenerationError(domain.CodeMalformedOutput, lang, err)
	case errors.Is(err, errGenerationStopped):
		return domain.NewGenerationError(domain.CodeGenerationStopped, lang, err)
	case errors.Is(err, errEmptyResponse):
		return domain.NewGenerationError(domain.CodeEmptyResponse, lang, err)
	default:
		return domain.NewInternalError("quiz generation failed", err)
	}
}

// PostProcess normalizes generated questions in place: math sanitation,
// ids, type distribution, image flags and the grouped-stimulus rule. The
// shared passage is taken from the raw provider order, the image cap is
// applied to the final question list.
func PostProcess(result *domain.GenerationResult, req *domain.GenerationRequest, plan []TypeQuota) {
	shared := firstStimulus(result.Questions)

	for i := range result.Questions {
		q := &result.Questions[i]
		q.Text = SanitizeMath(q.Text)
		q.Explanation = SanitizeMath(q.Explanation)
		for j := range q.Options {
			q.Options[j] = SanitizeMath(q.Options[j])
		}
		if q.Type.IsFreeResponse() || q.Options == nil {
			q.Options = []string{}
		}
		if strings.TrimSpace(q.ID) == "" {
			q.ID = ulid.Make().String()
		}
		q.ImageURL = ""
	}

	ApplyDistribution(result, plan)

	imagesLeft := req.ImageQuestionCount
	for i := range result.Questions {
		q := &result.Questions[i]
		if q.ImagePrompt != "" {
			if imagesLeft > 0 {
				imagesLeft--
			} else {
				q.ImagePrompt = ""
			}
		}
		q.HasImage = q.ImagePrompt != ""
	}

	if req.ReadingMode == domain.ReadingModeGrouped && shared != "" {
		for i := range result.Questions {
			result.Questions[i].Stimulus = shared
		}
	}
}

// EnforceGroupedStimulus copies the first non-empty stimulus onto every
// question so all items share a byte-identical passage.
func EnforceGroupedStimulus(questions []domain.Question) {
	shared := firstStimulus(questions)
	if shared == "" {
		return
	}
	for i := range questions {
		questions[i].Stimulus = shared
	}
}

func firstStimulus(questions []domain.Question) string {
	for _, q := range questions {
		if strings.TrimSpace(q.Stimulus) != "" {
			return q.Stimulus
		}
	}
	return ""
}
