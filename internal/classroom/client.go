package classroom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultAPIBase = "https://classroom.googleapis.com"

// Announcement is one record from the Classroom announcements API.
// Announcements carry no title there, only text.
type Announcement struct {
	ID             string          `json:"id"`
	Text           string          `json:"text"`
	Materials      json.RawMessage `json:"materials"`
	State          string          `json:"state"`
	AlternateLink  string          `json:"alternateLink"`
	CreationTime   string          `json:"creationTime"`
	UpdateTime     string          `json:"updateTime"`
	CreatorUserID  string          `json:"creatorUserId"`
	CreatorProfile *struct {
		ID   string `json:"id"`
		Name struct {
			FullName string `json:"fullName"`
		} `json:"name"`
	} `json:"creatorProfile"`
}

// Client mints short-lived OAuth tokens from a service-account assertion
// and reads course announcements. apiBase is overridable for tests.
type Client struct {
	creds      *Credentials
	scope      string
	apiBase    string
	httpClient *http.Client
}

func NewClient(creds *Credentials, scope string, timeout time.Duration) *Client {
	return &Client{
		creds:      creds,
		scope:      scope,
		apiBase:    DefaultAPIBase,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithAPIBase redirects announcement reads to an alternate base URL.
func (c *Client) WithAPIBase(base string) *Client {
	c.apiBase = strings.TrimRight(base, "/")
	return c
}

// Token exchanges a freshly signed assertion for a bearer token using
// the jwt-bearer grant.
func (c *Client) Token(ctx context.Context) (string, error) {
	assertion, err := SignAssertion(c.creds, c.scope, time.Now())
	if err != nil {
		return "", err
	}

	form := url.Values{
		"grant_type": {"urn:ietf:params:oauth:grant-type:jwt-bearer"},
		"assertion":  {assertion},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.creds.TokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned no access token")
	}
	return tokenResp.AccessToken, nil
}

// ListAnnouncements fetches all announcements for a course.
func (c *Client) ListAnnouncements(ctx context.Context, token, courseID string) ([]Announcement, error) {
	endpoint := fmt.Sprintf("%s/v1/courses/%s/announcements", c.apiBase, url.PathEscape(courseID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build announcements request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("announcements request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read announcements response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var listResp struct {
		Announcements []Announcement `json:"announcements"`
	}
	if err := json.Unmarshal(body, &listResp); err != nil {
		return nil, fmt.Errorf("failed to decode announcements response: %w", err)
	}
	return listResp.Announcements, nil
}

// APIError preserves the upstream status so the handler can reflect it.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("classroom API returned status %d", e.StatusCode)
}
