package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/pkg/auth"
	"github.com/Ramsey-B/fern/pkg/controller"
	"github.com/Ramsey-B/fern/pkg/forms"
	"github.com/Ramsey-B/fern/pkg/health"
	"github.com/Ramsey-B/fern/pkg/httpclient"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/powerbi"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/startup"
)

// app owns the service dependencies shared by the commands
type app struct {
	cfg     *config.Config
	logger  ectologger.Logger
	startup *startup.Startup

	redis    *redis.Client
	producer *kafka.Producer
}

func newApp(cfg *config.Config, logger ectologger.Logger) *app {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		startup: startup.New(logger, cfg.StartupMaxAttempts),
	}

	if cfg.RedisEnabled {
		a.startup.Add(startup.Func{
			DependencyName: "redis",
			StartFunc:      a.startRedis,
			StopFunc: func(context.Context) error {
				return a.redis.Close()
			},
		})
	}

	if cfg.KafkaEnabled {
		a.startup.Add(startup.Func{
			DependencyName: "kafka",
			StartFunc:      a.startKafka,
			StopFunc: func(context.Context) error {
				return a.producer.Close()
			},
		})
	}

	return a
}

func (a *app) startRedis(_ context.Context) error {
	client, err := redis.NewClient(redis.Config{
		Host:     a.cfg.RedisHost,
		Port:     a.cfg.RedisPort,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	}, a.logger)
	if err != nil {
		return err
	}
	a.redis = client
	return nil
}

func (a *app) startKafka(ctx context.Context) error {
	brokers := a.cfg.KafkaBrokerList()
	if err := kafka.Ping(ctx, brokers); err != nil {
		return err
	}
	a.producer = kafka.NewProducer(kafka.Config{Brokers: brokers, Topic: a.cfg.KafkaAuditTopic}, a.logger)
	a.logger.Infof("Publishing report events to Kafka topic %s", a.cfg.KafkaAuditTopic)
	return nil
}

func (a *app) start(ctx context.Context) error {
	return a.startup.Start(ctx)
}

func (a *app) stop(ctx context.Context) {
	if err := a.startup.Stop(ctx); err != nil {
		a.logger.WithContext(ctx).WithError(err).Warn("Failed to stop dependencies")
	}
}

// publisher returns the audit publisher, or nil when Kafka is disabled
func (a *app) publisher() controller.EventPublisher {
	if a.producer == nil {
		return nil
	}
	return a.producer
}

// unavailableTokens fails every token request with the credential error
type unavailableTokens struct {
	err error
}

func (u unavailableTokens) AccessToken(context.Context) (string, error) {
	return "", u.err
}

func (a *app) tokenSource() powerbi.TokenSource {
	authCfg := auth.Config{
		TenantID:     a.cfg.PowerBITenantID,
		ClientID:     a.cfg.PowerBIClientID,
		ClientSecret: a.cfg.PowerBIClientSecret,
		AuthorityURL: a.cfg.PowerBIAuthorityURL,
		Scope:        a.cfg.PowerBIScope,
	}

	credential, err := auth.NewCredential(authCfg)
	if err != nil {
		a.logger.WithError(err).Warn("Power BI service principal is unavailable")
		return unavailableTokens{err: err}
	}
	return auth.NewManager(credential, a.redis, authCfg, a.logger)
}

func (a *app) embedService() *powerbi.EmbedService {
	client := powerbi.NewClient(httpclient.NewClient(httpclient.DefaultConfig(), a.logger), a.cfg.PowerBIAPIURL)

	var publisher powerbi.Publisher
	if a.producer != nil {
		publisher = a.producer
	}

	return powerbi.NewEmbedService(a.tokenSource(), client, publisher, powerbi.EmbedServiceConfig{
		WorkspaceID:          a.cfg.PowerBIWorkspaceID,
		ReportID:             a.cfg.PowerBIReportID,
		TokenLifetimeMinutes: a.cfg.PowerBITokenLifetimeMinutes,
	}, a.logger)
}

func (a *app) healthChecker(registry *controller.Registry) *health.Checker {
	checker := health.NewChecker(Version)
	checker.SetSessionCounter(registry.Len)

	// a nil *redis.Client must not reach the interface
	var pinger health.Pinger
	if a.redis != nil {
		pinger = a.redis
	}
	checker.AddCheck("redis", health.RedisCheck(pinger))
	checker.AddCheck("powerbi", health.ConfigCheck(a.cfg.PowerBIConfigured, "Power BI workspace or report is not configured"))
	return checker
}

// loadForms reads the schemas and the field catalog from the forms directory
func loadForms(dir string) (map[string]*forms.Schema, *forms.Catalog, error) {
	schemas, err := forms.LoadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	catalog, err := forms.LoadCatalog(filepath.Join(dir, forms.CatalogFile))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return schemas, catalog, nil
}

// demoSource serves a placeholder embed config to simulated sessions
type demoSource struct{}

func (demoSource) EmbedConfig(context.Context) (models.EmbedConfig, error) {
	return models.EmbedConfig{
		EmbedToken: "demo-token",
		EmbedURL:   "https://app.powerbi.com/reportEmbed?reportId=demo",
		ReportID:   "demo",
		ReportName: "Demo Report",
	}, nil
}
