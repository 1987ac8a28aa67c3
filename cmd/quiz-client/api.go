package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"meal-quiz/pkg/questions"
)

// APIClient reads questions from the quiz server's JSON API.
type APIClient struct {
	serverURL  string
	httpClient *http.Client
}

// NewAPIClient returns a client for the server at serverURL.
func NewAPIClient(serverURL string) *APIClient {
	return &APIClient{
		serverURL:  strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// GetByID fetches one question. A 404 is reported as ok=false.
func (c *APIClient) GetByID(ctx context.Context, id int) (questions.Question, bool, error) {
	var question questions.Question
	status, err := c.getJSON(ctx, "/api/questions/"+strconv.Itoa(id), &question)
	if status == http.StatusNotFound {
		return questions.Question{}, false, nil
	}
	if err != nil {
		return questions.Question{}, false, err
	}
	return question, true, nil
}

func (c *APIClient) GetTotalCount(ctx context.Context) (int, error) {
	var response struct {
		Count int `json:"count"`
	}
	if _, err := c.getJSON(ctx, "/api/questions/count", &response); err != nil {
		return 0, err
	}
	return response.Count, nil
}

// getJSON decodes a 200 response into out. Any other status is an error
// carrying the server's message.
func (c *APIClient) getJSON(ctx context.Context, path string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+path, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		body, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return resp.StatusCode, fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return resp.StatusCode, fmt.Errorf("server returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}
