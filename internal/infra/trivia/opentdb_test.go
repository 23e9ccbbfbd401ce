package trivia

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"live-quiz-service/internal/domain"
)

func TestFetchQuestionsDecodesEntities(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response_code":0,"results":[{"category":"Science &amp; Nature","type":"multiple","difficulty":"easy",
			"question":"Which planet is called the &quot;Red Planet&quot;?","correct_answer":"Mars",
			"incorrect_answers":["Venus","Jupiter","Saturn"]}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	qs, err := c.FetchQuestions(context.Background(), domain.ImportRequest{Amount: 1, Category: 17, Difficulty: "easy"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if query != "amount=1&category=17&difficulty=easy&type=multiple" {
		t.Fatalf("unexpected query %q", query)
	}
	if len(qs) != 1 {
		t.Fatalf("expected one question, got %d", len(qs))
	}
	q := qs[0]
	if q.Prompt != `Which planet is called the "Red Planet"?` || q.Category != "Science & Nature" {
		t.Fatalf("entities not decoded: %+v", q)
	}
	if q.Source != domain.SourceImported || q.TimeLimit != 20 || q.Points != 1000 {
		t.Fatalf("unexpected defaults: %+v", q)
	}
	if err := q.Normalize().Validate(); err != nil {
		t.Fatalf("imported question invalid: %v", err)
	}
}

func TestFetchQuestionsResponseCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response_code":1,"results":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).FetchQuestions(context.Background(), domain.ImportRequest{Amount: 50})
	if err == nil {
		t.Fatalf("expected error for non-zero response code")
	}
}

func TestFetchQuestionsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, time.Second).FetchQuestions(context.Background(), domain.ImportRequest{Amount: 5}); err == nil {
		t.Fatalf("expected error for 429")
	}
}
