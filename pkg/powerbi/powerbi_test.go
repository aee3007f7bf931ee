package powerbi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/httpclient"
	"github.com/Ramsey-B/fern/pkg/models"
)

var noopLogger = ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

type staticToken struct {
	token string
	err   error
}

func (s staticToken) AccessToken(context.Context) (string, error) {
	return s.token, s.err
}

type capturePublisher struct {
	mu     sync.Mutex
	events []*models.ReportEvent
	err    error
}

func (p *capturePublisher) PublishReportEvent(_ context.Context, event *models.ReportEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type fakeAPI struct {
	reportStatus int
	reportBody   string
	tokenStatus  int
	tokenBody    string
	generated    map[string]any
}

func (f *fakeAPI) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /groups/WS1/reports/R1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer aad-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.reportStatus)
		_, _ = w.Write([]byte(f.reportBody))
	})
	mux.HandleFunc("POST /GenerateToken", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer aad-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&f.generated))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.tokenStatus)
		_, _ = w.Write([]byte(f.tokenBody))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func healthyAPI() *fakeAPI {
	return &fakeAPI{
		reportStatus: http.StatusOK,
		reportBody:   `{"id":"R1","name":"Sales","embedUrl":"https://app.powerbi.com/reportEmbed?reportId=R1","datasetId":"D1"}`,
		tokenStatus:  http.StatusOK,
		tokenBody:    `{"token":"embed-token","tokenId":"T1","expiration":"2026-10-18T12:00:00Z"}`,
	}
}

func newService(t *testing.T, api *fakeAPI, tokens TokenSource, publisher Publisher) *EmbedService {
	t.Helper()
	server := api.server(t)
	client := NewClient(httpclient.NewClient(httpclient.DefaultConfig(), noopLogger), server.URL+"/")
	return NewEmbedService(tokens, client, publisher, EmbedServiceConfig{WorkspaceID: "WS1", ReportID: "R1"}, noopLogger)
}

func TestEmbedConfig(t *testing.T) {
	api := healthyAPI()
	publisher := &capturePublisher{}
	svc := newService(t, api, staticToken{token: "aad-token"}, publisher)

	cfg, err := svc.EmbedConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.EmbedConfig{
		EmbedToken: "embed-token",
		EmbedURL:   "https://app.powerbi.com/reportEmbed?reportId=R1",
		ReportID:   "R1",
		ReportName: "Sales",
		DatasetID:  "D1",
	}, cfg)

	assert.Equal(t, []any{map[string]any{"id": "D1"}}, api.generated["datasets"])
	assert.Equal(t, []any{map[string]any{"id": "R1", "allowEdit": true, "allowCreate": true}}, api.generated["reports"])
	assert.Equal(t, []any{map[string]any{"id": "WS1"}}, api.generated["targetWorkspaces"])
	assert.Equal(t, float64(60), api.generated["lifetimeInMinutes"])

	require.Len(t, publisher.events, 1)
	assert.Equal(t, models.EventEmbedTokenIssued, publisher.events[0].Type)
	assert.Equal(t, "R1", publisher.events[0].ReportID)
}

func TestEmbedConfig_NoDataset(t *testing.T) {
	api := healthyAPI()
	api.reportBody = `{"id":"R1","name":"Sales","embedUrl":"https://embed"}`
	svc := newService(t, api, staticToken{token: "aad-token"}, nil)

	cfg, err := svc.EmbedConfig(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cfg.DatasetID)
	assert.Equal(t, []any{}, api.generated["datasets"])
}

func TestEmbedConfig_Failures(t *testing.T) {
	tests := []struct {
		name    string
		api     func() *fakeAPI
		tokens  TokenSource
		wantErr string
		is      error
	}{
		{
			name:    "access token",
			api:     healthyAPI,
			tokens:  staticToken{err: errors.New("Failed to acquire access token")},
			wantErr: "Failed to acquire access token",
		},
		{
			name: "report details",
			api: func() *fakeAPI {
				api := healthyAPI()
				api.reportStatus = http.StatusNotFound
				api.reportBody = "report not found"
				return api
			},
			tokens:  staticToken{token: "aad-token"},
			wantErr: "Failed to get report details: report not found",
			is:      ErrReportDetails,
		},
		{
			name: "generate token",
			api: func() *fakeAPI {
				api := healthyAPI()
				api.tokenStatus = http.StatusInternalServerError
				api.tokenBody = "boom"
				return api
			},
			tokens:  staticToken{token: "aad-token"},
			wantErr: "Failed to get embed token: boom",
			is:      ErrEmbedToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher := &capturePublisher{}
			svc := newService(t, tt.api(), tt.tokens, publisher)

			cfg, err := svc.EmbedConfig(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
			assert.Empty(t, cfg.EmbedToken)
			assert.Empty(t, publisher.events)
		})
	}
}

func TestEmbedConfig_MissingConfiguration(t *testing.T) {
	tests := []EmbedServiceConfig{
		{},
		{WorkspaceID: "WS1"},
		{ReportID: "R1"},
	}

	for _, cfg := range tests {
		svc := NewEmbedService(staticToken{token: "aad-token"}, nil, nil, cfg, noopLogger)
		assert.False(t, svc.Configured())

		_, err := svc.EmbedConfig(context.Background())
		assert.ErrorIs(t, err, ErrMissingConfiguration)
		assert.Equal(t, "Power BI configuration is missing", err.Error())
	}
}

func TestEmbedConfig_PublishFailureIgnored(t *testing.T) {
	publisher := &capturePublisher{err: errors.New("kafka down")}
	svc := newService(t, healthyAPI(), staticToken{token: "aad-token"}, publisher)

	cfg, err := svc.EmbedConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "embed-token", cfg.EmbedToken)
}

func TestGenerateTokenRequest_Lifetime(t *testing.T) {
	body := GenerateTokenRequest{WorkspaceID: "WS1", ReportID: "R1", LifetimeInMinutes: 15}.body()
	assert.Equal(t, 15, body.LifetimeInMinutes)
	assert.Empty(t, body.Datasets)
	assert.NotNil(t, body.Datasets)
}
