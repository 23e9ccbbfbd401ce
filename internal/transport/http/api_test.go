package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"live-quiz-service/internal/auth"
)

type apiClient struct {
	t      *testing.T
	base   string
	header http.Header
}

func (c *apiClient) do(method, path string, body any, out any) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	if err != nil {
		c.t.Fatalf("request: %v", err)
	}
	for k, v := range c.header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestRESTRoomLifecycle(t *testing.T) {
	service, rec := newTestService(t)
	server := httptest.NewServer(NewRouter(service, auth.NewAuthenticator(""), rec))
	defer server.Close()

	host := &apiClient{t: t, base: server.URL, header: http.Header{"X-Host-Id": {"host-1"}}}
	anon := &apiClient{t: t, base: server.URL}

	var room struct {
		Code   string `json:"code"`
		HostID string `json:"host_id"`
	}
	if status := host.do(http.MethodPost, "/rooms", map[string]any{"title": "Friday trivia"}, &room); status != http.StatusCreated {
		t.Fatalf("create room status %d", status)
	}
	if len(room.Code) != 6 || room.HostID != "host-1" {
		t.Fatalf("unexpected room %+v", room)
	}

	question := map[string]any{
		"content":           "What is the capital of France?",
		"correct_answer":    "Paris",
		"incorrect_answers": []string{"Lyon", "Nice", "Lille"},
	}
	var added struct {
		Questions []struct {
			ID        string `json:"id"`
			TimeLimit int    `json:"time_limit"`
			Points    int    `json:"points"`
		} `json:"questions"`
	}
	status := host.do(http.MethodPost, "/rooms/"+room.Code+"/questions", map[string]any{"questions": []any{question}}, &added)
	if status != http.StatusCreated || len(added.Questions) != 1 || added.Questions[0].ID == "" {
		t.Fatalf("add questions status %d body %+v", status, added)
	}
	if added.Questions[0].TimeLimit != 20 || added.Questions[0].Points != 1000 {
		t.Fatalf("defaults not applied: %+v", added.Questions[0])
	}
	if status := anon.do(http.MethodPost, "/rooms/"+room.Code+"/questions", map[string]any{"questions": []any{question}}, nil); status != http.StatusForbidden {
		t.Fatalf("expected 403 for non-host add, got %d", status)
	}
	bad := map[string]any{"content": "Hm?", "correct_answer": "x", "incorrect_answers": []string{"a"}}
	if status := host.do(http.MethodPost, "/rooms/"+room.Code+"/questions", map[string]any{"questions": []any{bad}}, nil); status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for invalid question, got %d", status)
	}

	var public struct {
		HostID        string `json:"host_id"`
		QuestionCount int    `json:"question_count"`
		State         string `json:"state"`
	}
	if status := anon.do(http.MethodGet, "/rooms/"+room.Code, nil, &public); status != http.StatusOK {
		t.Fatalf("get room status %d", status)
	}
	if public.HostID != "" || public.QuestionCount != 1 || public.State != "lobby" {
		t.Fatalf("unexpected public room %+v", public)
	}

	var player struct {
		PlayerID string `json:"player_id"`
	}
	if status := anon.do(http.MethodPost, "/rooms/"+room.Code+"/players", map[string]any{"nickname": "Alex"}, &player); status != http.StatusCreated || player.PlayerID == "" {
		t.Fatalf("register status %d body %+v", status, player)
	}
	if status := anon.do(http.MethodPost, "/rooms/"+room.Code+"/players", map[string]any{"nickname": "alex"}, nil); status != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate nickname, got %d", status)
	}

	var lb struct {
		Leaderboard []struct {
			Nickname  string `json:"nickname"`
			RankLabel string `json:"rank_label"`
		} `json:"leaderboard"`
	}
	if status := anon.do(http.MethodGet, "/rooms/"+room.Code+"/leaderboard", nil, &lb); status != http.StatusOK {
		t.Fatalf("leaderboard status %d", status)
	}
	if len(lb.Leaderboard) != 1 || lb.Leaderboard[0].RankLabel != "1st" {
		t.Fatalf("unexpected leaderboard %+v", lb)
	}

	if status := anon.do(http.MethodGet, "/rooms/"+room.Code+"/stats", nil, nil); status != http.StatusForbidden {
		t.Fatalf("expected 403 for stats, got %d", status)
	}
	if status := host.do(http.MethodGet, "/rooms/"+room.Code+"/stats", nil, nil); status != http.StatusOK {
		t.Fatalf("stats status %d", status)
	}

	if status := host.do(http.MethodDelete, "/rooms/"+room.Code+"/questions/"+added.Questions[0].ID, nil, nil); status != http.StatusNoContent {
		t.Fatalf("delete status %d", status)
	}
	if status := host.do(http.MethodDelete, "/rooms/"+room.Code+"/questions/missing", nil, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 deleting missing question, got %d", status)
	}

	if status := host.do(http.MethodPost, "/rooms/"+room.Code+"/end", nil, nil); status != http.StatusOK {
		t.Fatalf("end status %d", status)
	}
	if status := host.do(http.MethodPost, "/rooms/"+room.Code+"/end", nil, nil); status != http.StatusConflict {
		t.Fatalf("expected 409 ending twice, got %d", status)
	}

	var games []struct {
		Code string `json:"code"`
	}
	if status := host.do(http.MethodGet, "/games", nil, &games); status != http.StatusOK || len(games) != 1 || games[0].Code != room.Code {
		t.Fatalf("games status %d body %+v", status, games)
	}
}

func TestRESTErrors(t *testing.T) {
	service, _ := newTestService(t)
	server := httptest.NewServer(NewRouter(service, auth.NewAuthenticator(""), nil))
	defer server.Close()
	anon := &apiClient{t: t, base: server.URL}

	if status := anon.do(http.MethodGet, "/rooms/000000", nil, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if status := anon.do(http.MethodGet, "/rooms/000000/qr", nil, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 for qr, got %d", status)
	}
	resp, err := http.Post(server.URL+"/rooms", "application/json", bytes.NewBufferString("{"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", resp.StatusCode)
	}
	if status := anon.do(http.MethodPost, "/rooms", map[string]any{"title": ""}, nil); status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for empty title, got %d", status)
	}
}

func TestRESTQRCode(t *testing.T) {
	service, _ := newTestService(t)
	code := seedRoom(t, service, "host-1")
	server := httptest.NewServer(NewRouter(service, auth.NewAuthenticator(""), nil))
	defer server.Close()

	resp, err := http.Get(server.URL + "/rooms/" + code + "/qr")
	if err != nil {
		t.Fatalf("get qr: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("unexpected qr response %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
}

func TestRESTRequiresTokenWhenAuthEnabled(t *testing.T) {
	service, _ := newTestService(t)
	authn := auth.NewAuthenticator("test-secret")
	server := httptest.NewServer(NewRouter(service, authn, nil))
	defer server.Close()

	anon := &apiClient{t: t, base: server.URL, header: http.Header{"X-Host-Id": {"host-1"}}}
	if status := anon.do(http.MethodPost, "/rooms", map[string]any{"title": "Quiz"}, nil); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}

	token, _ := authn.Sign("host-1", time.Hour)
	host := &apiClient{t: t, base: server.URL, header: http.Header{"Authorization": {"Bearer " + token}}}
	var room struct {
		HostID string `json:"host_id"`
	}
	if status := host.do(http.MethodPost, "/rooms", map[string]any{"title": "Quiz"}, &room); status != http.StatusCreated || room.HostID != "host-1" {
		t.Fatalf("create with token status %d body %+v", status, room)
	}
}
