// Package trivia imports question batches from the Open Trivia Database.
package trivia

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"live-quiz-service/internal/domain"
)

const DefaultBaseURL = "https://opentdb.com/api.php"

type apiResponse struct {
	ResponseCode int         `json:"response_code"`
	Results      []apiResult `json:"results"`
}

type apiResult struct {
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// Client fetches multiple choice questions over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchQuestions returns req.Amount questions with entities decoded and default timing and points.
func (c *Client) FetchQuestions(ctx context.Context, req domain.ImportRequest) ([]domain.Question, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("amount", strconv.Itoa(req.Amount))
	q.Set("type", "multiple")
	if req.Category > 0 {
		q.Set("category", strconv.Itoa(req.Category))
	}
	if req.Difficulty != "" {
		q.Set("difficulty", req.Difficulty)
	}
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("opentdb: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	var body apiResponse
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if body.ResponseCode != 0 {
		return nil, fmt.Errorf("opentdb: response code %d", body.ResponseCode)
	}

	out := make([]domain.Question, 0, len(body.Results))
	for _, r := range body.Results {
		if r.Type != "" && r.Type != "multiple" {
			continue
		}
		incorrect := make([]string, len(r.IncorrectAnswers))
		for i, a := range r.IncorrectAnswers {
			incorrect[i] = html.UnescapeString(a)
		}
		out = append(out, domain.Question{
			Prompt:           html.UnescapeString(r.Question),
			CorrectAnswer:    html.UnescapeString(r.CorrectAnswer),
			IncorrectAnswers: incorrect,
			Category:         html.UnescapeString(r.Category),
			Difficulty:       r.Difficulty,
			TimeLimit:        domain.DefaultTimeLimit,
			Points:           domain.DefaultPoints,
			Source:           domain.SourceImported,
		})
	}
	return out, nil
}
