package client

// http_client.go = talks to the admin HTTP API on behalf of the CLI.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"schooladmin/internal/microservices/http-api/dto"
	"schooladmin/internal/notification"
	"schooladmin/internal/table"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

func NewHTTPClient(apiURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: apiURL,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

// do sends one request and decodes a JSON body into out when out is non-nil.
func (c *HTTPClient) do(method, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequest(method, u, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(raw, &body)
		return &APIError{StatusCode: resp.StatusCode, Message: body.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) ListNotifications() (*dto.NotificationListResponse, error) {
	var result dto.NotificationListResponse
	if err := c.do(http.MethodGet, "/api/notifications", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) MarkNotificationRead(id string) error {
	return c.do(http.MethodPut, "/api/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

func (c *HTTPClient) MarkAllNotificationsRead() error {
	return c.do(http.MethodPut, "/api/notifications/read-all", nil, nil)
}

func (c *HTTPClient) ClearNotifications() error {
	return c.do(http.MethodDelete, "/api/notifications", nil, nil)
}

func (c *HTTPClient) ConsultationDetail(notificationID string) (*notification.ConsultationDetail, error) {
	var result notification.ConsultationDetail
	if err := c.do(http.MethodGet, "/api/notifications/"+url.PathEscape(notificationID)+"/consultation", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) ListConsultations(q table.ListQuery) (*dto.ConsultationListResponse, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("page_size", strconv.Itoa(q.PageSize))
	if q.Sorted() {
		params.Set("sort_by", q.SortBy)
		params.Set("sort_order", string(q.SortOrder))
	}
	if q.Search != "" {
		params.Set("q", q.Search)
	}

	var result dto.ConsultationListResponse
	if err := c.do(http.MethodGet, "/api/consultations", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) RefreshConsultations() (*dto.RefreshResponse, error) {
	var result dto.RefreshResponse
	if err := c.do(http.MethodPost, "/api/consultations/refresh", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
