package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/newssync/models"
)

const defaultTimeout = 10 * time.Second

// TokenProvider supplies the bearer token for authenticated endpoints.
// An empty token means guest mode, which is a valid state, not an error.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// HTTPGateway is the production Gateway over net/http.
type HTTPGateway struct {
	baseURL string
	http    *http.Client
	tokens  TokenProvider
}

// NewHTTPGateway constructs a gateway for the given base URL. tokens may be
// nil for a purely anonymous client.
func NewHTTPGateway(baseURL string, tokens TokenProvider, httpClient *http.Client) *HTTPGateway {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &HTTPGateway{baseURL: baseURL, http: httpClient, tokens: tokens}
}

// newsResponse is the backend envelope for feed endpoints.
type newsResponse struct {
	Success  bool                    `json:"success"`
	Articles []models.ArticlePayload `json:"articles"`
	Message  string                  `json:"message"`
}

func (g *HTTPGateway) FetchNews(ctx context.Context, page, limit int) ([]models.ArticlePayload, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	return g.fetch(ctx, "fetch news", "/news", q)
}

func (g *HTTPGateway) FetchPersonalized(ctx context.Context, limit int) ([]models.ArticlePayload, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	return g.fetch(ctx, "fetch personalized news", "/news/personalized", q)
}

func (g *HTTPGateway) fetch(ctx context.Context, op, path string, q url.Values) ([]models.ArticlePayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := g.authorize(ctx, req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, newTransportError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newTransportError(op, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, newServerError(op, resp.StatusCode, errorMessage(body))
	}

	var nr newsResponse
	if err := json.Unmarshal(body, &nr); err != nil {
		return nil, fmt.Errorf("%s: decoding response: %w", op, err)
	}
	if !nr.Success {
		return nil, newServerError(op, resp.StatusCode, nr.Message)
	}
	return nr.Articles, nil
}

// Ping issues a HEAD request against the base URL. Any response at all
// counts as reachable.
func (g *HTTPGateway) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, g.baseURL, nil)
	if err != nil {
		return err
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return newTransportError("ping", err)
	}
	_ = resp.Body.Close()
	return nil
}

func (g *HTTPGateway) authorize(ctx context.Context, req *http.Request) error {
	if g.tokens == nil {
		return nil
	}
	token, err := g.tokens.Token(ctx)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

// errorMessage extracts the backend's {message} from an error body, falling
// back to the raw body.
func errorMessage(body []byte) string {
	var m struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &m); err == nil && m.Message != "" {
		return m.Message
	}
	return string(body)
}
