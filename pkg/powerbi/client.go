// Package powerbi talks to the Power BI REST API to issue embed credentials.
package powerbi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Ramsey-B/fern/pkg/expressions"
	"github.com/Ramsey-B/fern/pkg/httpclient"
)

// DefaultAPIURL is the Power BI REST API base for the caller's organization
const DefaultAPIURL = "https://api.powerbi.com/v1.0/myorg"

// DefaultTokenLifetimeMinutes is the lifetime requested for embed tokens
const DefaultTokenLifetimeMinutes = 60

var (
	ErrReportDetails = errors.New("Failed to get report details")
	ErrEmbedToken    = errors.New("Failed to get embed token")
)

// Response field expressions
var (
	reportFields = map[string]string{
		"id":        "id",
		"name":      "name",
		"embedUrl":  "embedUrl",
		"datasetId": "datasetId",
	}
	tokenFields = map[string]string{
		"token":      "token",
		"tokenId":    "tokenId",
		"expiration": "expiration",
	}
)

// ReportDetails is the subset of report metadata needed to embed it
type ReportDetails struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	EmbedURL  string `json:"embedUrl"`
	DatasetID string `json:"datasetId,omitempty"`
}

// EmbedToken is a token issued by GenerateToken
type EmbedToken struct {
	Token      string `json:"token"`
	TokenID    string `json:"tokenId,omitempty"`
	Expiration string `json:"expiration,omitempty"`
}

// GenerateTokenRequest describes the artifacts an embed token grants access to
type GenerateTokenRequest struct {
	WorkspaceID       string
	ReportID          string
	DatasetID         string
	LifetimeInMinutes int
}

type idRef struct {
	ID string `json:"id"`
}

type reportRef struct {
	ID          string `json:"id"`
	AllowEdit   bool   `json:"allowEdit"`
	AllowCreate bool   `json:"allowCreate"`
}

type generateTokenBody struct {
	Datasets          []idRef     `json:"datasets"`
	Reports           []reportRef `json:"reports"`
	TargetWorkspaces  []idRef     `json:"targetWorkspaces"`
	LifetimeInMinutes int         `json:"lifetimeInMinutes"`
}

func (r GenerateTokenRequest) body() generateTokenBody {
	lifetime := r.LifetimeInMinutes
	if lifetime <= 0 {
		lifetime = DefaultTokenLifetimeMinutes
	}

	datasets := []idRef{}
	if r.DatasetID != "" {
		datasets = append(datasets, idRef{ID: r.DatasetID})
	}

	return generateTokenBody{
		Datasets:          datasets,
		Reports:           []reportRef{{ID: r.ReportID, AllowEdit: true, AllowCreate: true}},
		TargetWorkspaces:  []idRef{{ID: r.WorkspaceID}},
		LifetimeInMinutes: lifetime,
	}
}

// Client calls the Power BI REST API
type Client struct {
	http      *httpclient.Client
	evaluator *expressions.Evaluator
	apiURL    string
}

// NewClient creates a Power BI API client. An empty apiURL uses DefaultAPIURL.
func NewClient(http *httpclient.Client, apiURL string) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		http:      http,
		evaluator: expressions.NewEvaluator(),
		apiURL:    strings.TrimRight(apiURL, "/"),
	}
}

// GetReport fetches the metadata of a report in a workspace
func (c *Client) GetReport(ctx context.Context, accessToken, workspaceID, reportID string) (*ReportDetails, error) {
	endpoint := fmt.Sprintf("%s/groups/%s/reports/%s", c.apiURL, url.PathEscape(workspaceID), url.PathEscape(reportID))

	resp, err := c.http.Get(ctx, endpoint, httpclient.BearerHeaders(accessToken))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReportDetails, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: %s", ErrReportDetails, resp.Text())
	}

	fields, err := c.extract(resp, reportFields)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReportDetails, err)
	}

	return &ReportDetails{
		ID:        fields["id"],
		Name:      fields["name"],
		EmbedURL:  fields["embedUrl"],
		DatasetID: fields["datasetId"],
	}, nil
}

// GenerateToken requests an embed token with edit and create rights on the report
func (c *Client) GenerateToken(ctx context.Context, accessToken string, req GenerateTokenRequest) (*EmbedToken, error) {
	resp, err := c.http.PostJSON(ctx, c.apiURL+"/GenerateToken", httpclient.BearerHeaders(accessToken), req.body())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedToken, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: %s", ErrEmbedToken, resp.Text())
	}

	fields, err := c.extract(resp, tokenFields)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedToken, err)
	}

	return &EmbedToken{
		Token:      fields["token"],
		TokenID:    fields["tokenId"],
		Expiration: fields["expiration"],
	}, nil
}

func (c *Client) extract(resp *httpclient.Response, fields map[string]string) (map[string]string, error) {
	body, err := resp.JSON()
	if err != nil {
		return nil, err
	}
	return c.evaluator.EvaluateStrings(fields, body)
}
