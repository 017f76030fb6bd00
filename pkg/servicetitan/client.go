package servicetitan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"attachments-api/config"
)

// Attachment is the metadata the forms API returns for one job attachment.
type Attachment struct {
	ID          int64  `json:"id"`
	FileName    string `json:"fileName"`
	CreatedOn   string `json:"createdOn"`
	CreatedByID int64  `json:"createdById"`
}

type attachmentPage struct {
	Data    []Attachment `json:"data"`
	HasMore bool         `json:"hasMore"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// Client talks to the ServiceTitan forms API for a single tenant.
// Tokens are fetched via client credentials and cached until shortly
// before expiry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	authURL    string
	appKey     string
	clientID   string
	secret     string
	pageSize   int

	// Tenant is the configured tenant name; tenantID is the upstream id
	Tenant   string
	tenantID string

	tokenMu     sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(cfg *config.Config, tenant string) (*Client, error) {
	tenantID, ok := cfg.Upstream.TenantIDs[strings.ToLower(tenant)]
	if !ok {
		return nil, fmt.Errorf("no upstream tenant id configured for tenant %q", tenant)
	}

	return &Client{
		httpClient: &http.Client{Timeout: time.Duration(cfg.Upstream.Timeout) * time.Second},
		baseURL:    strings.TrimRight(cfg.Upstream.BaseURL, "/"),
		authURL:    cfg.Upstream.AuthURL,
		appKey:     cfg.Upstream.AppKey,
		clientID:   cfg.Upstream.ClientID,
		secret:     cfg.Upstream.ClientSecret,
		pageSize:   cfg.Upstream.PageSize,
		Tenant:     tenant,
		tenantID:   tenantID,
	}, nil
}

func (c *Client) getToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.secret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request returned %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	c.token = tok.AccessToken
	// Refresh a minute early so in-flight requests never carry a dead token
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn-60) * time.Second)

	return c.token, nil
}

func (c *Client) do(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return nil, err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("ST-App-Key", c.appKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("upstream returned %d for %s", resp.StatusCode, path)
	}

	return resp, nil
}

// ListJobAttachments pages through the attachment listing for a job until
// the API reports no more pages.
func (c *Client) ListJobAttachments(ctx context.Context, jobID int64) ([]Attachment, error) {
	path := fmt.Sprintf("/forms/v2/tenant/%s/jobs/%d/attachments", c.tenantID, jobID)

	var all []Attachment
	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("page", fmt.Sprintf("%d", page))
		query.Set("pageSize", fmt.Sprintf("%d", c.pageSize))

		resp, err := c.do(ctx, path, query)
		if err != nil {
			return nil, fmt.Errorf("failed to list attachments for job %d: %w", jobID, err)
		}

		var pageData attachmentPage
		err = json.NewDecoder(resp.Body).Decode(&pageData)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode attachment page for job %d: %w", jobID, err)
		}

		all = append(all, pageData.Data...)
		if !pageData.HasMore {
			break
		}
	}

	return all, nil
}

// GetAttachment downloads the raw bytes of one attachment.
func (c *Client) GetAttachment(ctx context.Context, attachmentID int64) ([]byte, error) {
	path := fmt.Sprintf("/forms/v2/tenant/%s/jobs/attachment/%d", c.tenantID, attachmentID)

	resp, err := c.do(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attachment %d: %w", attachmentID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment %d: %w", attachmentID, err)
	}

	return data, nil
}
