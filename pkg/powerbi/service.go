package powerbi

import (
	"context"
	"errors"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// ErrMissingConfiguration is returned when the workspace or report id is not set
var ErrMissingConfiguration = errors.New("Power BI configuration is missing")

// TokenSource issues Azure AD access tokens for the Power BI API
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Publisher receives the audit event emitted for each issued embed token
type Publisher interface {
	PublishReportEvent(ctx context.Context, event *models.ReportEvent) error
}

// EmbedServiceConfig identifies the report to embed
type EmbedServiceConfig struct {
	WorkspaceID          string
	ReportID             string
	TokenLifetimeMinutes int
}

// EmbedService exchanges service credentials for embed configs
type EmbedService struct {
	tokens    TokenSource
	client    *Client
	publisher Publisher
	cfg       EmbedServiceConfig
	logger    ectologger.Logger
}

// NewEmbedService creates an embed service. publisher may be nil.
func NewEmbedService(tokens TokenSource, client *Client, publisher Publisher, cfg EmbedServiceConfig, logger ectologger.Logger) *EmbedService {
	return &EmbedService{
		tokens:    tokens,
		client:    client,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}
}

// Configured reports whether the workspace and report ids are set
func (s *EmbedService) Configured() bool {
	return s.cfg.WorkspaceID != "" && s.cfg.ReportID != ""
}

// EmbedConfig issues the credentials for one embed session. Failures are not retried.
func (s *EmbedService) EmbedConfig(ctx context.Context) (cfg models.EmbedConfig, err error) {
	if !s.Configured() {
		return models.EmbedConfig{}, ErrMissingConfiguration
	}

	ctx, span := tracing.StartSpan(ctx, "powerbi.EmbedConfig")
	start := time.Now()
	defer func() {
		metrics.RecordEmbedToken(err, time.Since(start).Seconds())
		tracing.EndSpan(span, err)
	}()

	accessToken, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return models.EmbedConfig{}, err
	}

	details, err := s.client.GetReport(ctx, accessToken, s.cfg.WorkspaceID, s.cfg.ReportID)
	if err != nil {
		return models.EmbedConfig{}, err
	}

	token, err := s.client.GenerateToken(ctx, accessToken, GenerateTokenRequest{
		WorkspaceID:       s.cfg.WorkspaceID,
		ReportID:          s.cfg.ReportID,
		DatasetID:         details.DatasetID,
		LifetimeInMinutes: s.cfg.TokenLifetimeMinutes,
	})
	if err != nil {
		return models.EmbedConfig{}, err
	}

	s.logger.WithContext(ctx).Debugf("Issued embed token for report %s (expires %s)", details.ID, token.Expiration)
	s.publish(ctx, details)

	return models.EmbedConfig{
		EmbedToken: token.Token,
		EmbedURL:   details.EmbedURL,
		ReportID:   details.ID,
		ReportName: details.Name,
		DatasetID:  details.DatasetID,
	}, nil
}

func (s *EmbedService) publish(ctx context.Context, details *ReportDetails) {
	if s.publisher == nil {
		return
	}
	event := &models.ReportEvent{
		Type:     models.EventEmbedTokenIssued,
		ReportID: details.ID,
		Detail:   map[string]string{"workspace_id": s.cfg.WorkspaceID, "dataset_id": details.DatasetID},
	}
	if err := s.publisher.PublishReportEvent(ctx, event); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to publish embed token event")
	}
}
