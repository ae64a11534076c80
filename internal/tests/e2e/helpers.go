package e2e

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/interfaces/rest"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/interfaces/rest/handlers"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

// TestClient wraps HTTP calls to a running gateway
type TestClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewTestClient(baseURL string) *TestClient {
	return &TestClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *TestClient) Initiate(t *testing.T, req handlers.InitiateRequest) (*handlers.InitiateResponse, error) {
	body, err := json.Marshal(req)
	require.NoError(t, err)

	httpReq, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/payments/initiate", bytes.NewReader(body))
	require.NoError(t, err)
	httpReq.Header.Set("Content-Type", "application/json")

	bodyBytes, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var resp handlers.InitiateResponse
	require.NoError(t, json.Unmarshal(bodyBytes, &resp))
	return &resp, nil
}

// Notify posts a form-encoded notification the way the vendor does.
func (c *TestClient) Notify(t *testing.T, fields map[string]string) {
	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}

	httpReq, err := http.NewRequest(http.MethodPost, c.baseURL+handlers.WebhookPath, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	bodyBytes, err := c.do(httpReq)
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"OK"}`, string(bodyBytes))
}

func (c *TestClient) Status(t *testing.T, orderID string) (*rest.PaymentView, error) {
	httpReq, err := http.NewRequest(http.MethodGet, c.baseURL+"/api/payments/"+orderID+"/status", nil)
	require.NoError(t, err)

	bodyBytes, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var view rest.PaymentView
	require.NoError(t, json.Unmarshal(bodyBytes, &view))
	return &view, nil
}

func (c *TestClient) Healthy() bool {
	resp, err := c.httpClient.Get(c.baseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *TestClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp rest.ErrorResponse
		_ = json.Unmarshal(bodyBytes, &errResp)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, errResp.Error.Message)
	}
	return bodyBytes, nil
}
