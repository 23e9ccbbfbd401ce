package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/auth"
	"live-quiz-service/internal/domain"
)

const (
	maxBodySize = 1 << 20
	qrSize      = 320
	hostHeader  = "X-Host-ID"
)

var (
	errMissingToken = errors.New("missing bearer token")
	errBadRequest   = errors.New("malformed request body")
)

// GameHistory lists finished games for a host.
type GameHistory interface {
	RecentGames(ctx context.Context, hostID string, limit int) ([]domain.GameSummary, error)
}

type API struct {
	service *app.QuizService
	auth    *auth.Authenticator
	history GameHistory
}

// NewRouter wires the REST surface and the websocket endpoint. history may be nil.
func NewRouter(service *app.QuizService, authn *auth.Authenticator, history GameHistory) http.Handler {
	api := &API{service: service, auth: authn, history: history}
	ws := NewWSHandler(service, authn)

	mux := httprouter.New()
	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		log.Error().Interface("panic", v).Str("path", r.URL.Path).Msg("handler panicked")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: app.PublicMessage(nil)})
	}

	mux.GET("/healthz", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.GET("/ws", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		ws.ServeWS(w, r)
	})

	mux.POST("/rooms", api.createRoom)
	mux.GET("/rooms/:code", api.room)
	mux.GET("/rooms/:code/questions", api.listQuestions)
	mux.POST("/rooms/:code/questions", api.addQuestions)
	mux.POST("/rooms/:code/questions/import", api.importQuestions)
	mux.DELETE("/rooms/:code/questions/:id", api.deleteQuestion)
	mux.POST("/rooms/:code/players", api.registerPlayer)
	mux.GET("/rooms/:code/leaderboard", api.leaderboard)
	mux.GET("/rooms/:code/stats", api.stats)
	mux.POST("/rooms/:code/end", api.endGame)
	mux.GET("/rooms/:code/qr", api.qr)
	mux.GET("/games", api.games)

	return withLogging(mux)
}

type errorBody struct {
	Error string `json:"error"`
}

type createRoomRequest struct {
	Title string `json:"title"`
}

type questionsBody struct {
	Questions []domain.Question `json:"questions"`
}

type registerRequest struct {
	Nickname string `json:"nickname"`
}

type registerResponse struct {
	PlayerID string `json:"player_id"`
	Nickname string `json:"nickname"`
	Pin      string `json:"pin"`
}

type leaderboardResponse struct {
	Code        string                    `json:"code"`
	State       domain.RoomState          `json:"state"`
	Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
}

func (a *API) createRoom(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	hostID, err := a.hostID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if hostID == "" {
		hostID = uuid.NewString()
	}
	var req createRoomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	summary, err := a.service.CreateRoom(r.Context(), req.Title, hostID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, summary)
}

func (a *API) room(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	summary, err := a.service.Room(ps.ByName("code"))
	if err != nil {
		writeError(w, err)
		return
	}
	// The host id doubles as the host credential in dev mode.
	if hostID, _ := a.hostID(r); hostID != summary.HostID {
		summary.HostID = ""
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) listQuestions(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	hostID, err := a.hostID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	qs, err := a.service.ListQuestions(r.Context(), ps.ByName("code"), hostID)
	if err != nil {
		writeError(w, err)
		return
	}
	if qs == nil {
		qs = []domain.Question{}
	}
	writeJSON(w, http.StatusOK, questionsBody{Questions: qs})
}

func (a *API) addQuestions(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	hostID, err := a.hostID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var body questionsBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	added, err := a.service.AddQuestions(r.Context(), ps.ByName("code"), hostID, body.Questions...)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, questionsBody{Questions: added})
}

func (a *API) importQuestions(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	hostID, err := a.hostID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req domain.ImportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	added, err := a.service.ImportQuestions(r.Context(), ps.ByName("code"), hostID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, questionsBody{Questions: added})
}

func (a *API) deleteQuestion(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	hostID, err := a.hostID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := a.service.DeleteQuestion(r.Context(), ps.ByName("code"), hostID, ps.ByName("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) registerPlayer(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	code := ps.ByName("code")
	p, err := a.service.RegisterPlayer(code, req.Nickname)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{PlayerID: p.ID, Nickname: p.Nickname, Pin: code})
}

func (a *API) leaderboard(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	code := ps.ByName("code")
	summary, err := a.service.Room(code)
	if err != nil {
		writeError(w, err)
		return
	}
	lb, err := a.service.Leaderboard(code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Code: code, State: summary.State, Leaderboard: lb})
}

func (a *API) stats(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	hostID, err := a.hostID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	stats, err := a.service.Stats(ps.ByName("code"), hostID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) endGame(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	hostID, err := a.hostID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	code := ps.ByName("code")
	if err := a.service.EndGame(r.Context(), code, hostID); err != nil {
		writeError(w, err)
		return
	}
	lb, _ := a.service.Leaderboard(code)
	writeJSON(w, http.StatusOK, leaderboardResponse{Code: code, State: domain.StateEnded, Leaderboard: lb})
}

// qr renders a PNG QR code pointing players at the room's join page.
func (a *API) qr(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	code := ps.ByName("code")
	if _, err := a.service.Room(code); err != nil {
		writeError(w, err)
		return
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	png, err := qrcode.Encode(scheme+"://"+r.Host+"/play/"+code, qrcode.Medium, qrSize)
	if err != nil {
		log.Error().Err(err).Str("room", code).Msg("qr generation failed")
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func (a *API) games(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	hostID, err := a.hostID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if hostID == "" {
		writeError(w, domain.ErrNotHost)
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			writeError(w, domain.Validation("limit must be between 1 and 100"))
			return
		}
		limit = n
	}
	games := []domain.GameSummary{}
	if a.history != nil {
		found, err := a.history.RecentGames(r.Context(), hostID, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		games = append(games, found...)
	}
	writeJSON(w, http.StatusOK, games)
}

// hostID resolves the caller's host identity: a verified bearer token when auth is enabled,
// otherwise the X-Host-ID header.
func (a *API) hostID(r *http.Request) (string, error) {
	if !a.auth.Enabled() {
		return r.Header.Get(hostHeader), nil
	}
	token := bearerToken(r)
	if token == "" {
		return "", errMissingToken
	}
	return a.auth.Verify(token)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(v); err != nil {
		return errBadRequest
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := app.PublicMessage(err)
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, errMissingToken):
		msg = err.Error()
	case status == http.StatusInternalServerError:
		log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, errMissingToken), errors.Is(err, domain.ErrInvalidHostToken):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrDuplicateAnswer), errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request completed")
	})
}
