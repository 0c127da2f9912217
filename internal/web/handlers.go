package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/justestif/go-emotion-color/internal/classifier"
	"github.com/justestif/go-emotion-color/internal/clustering"
	"github.com/justestif/go-emotion-color/internal/db"
	"github.com/justestif/go-emotion-color/internal/emotion"
	"github.com/justestif/go-emotion-color/internal/history"
)

const (
	maxBodyBytes  = 1 << 20
	maxBatchTexts = 100
	sampleTexts   = 3
)

// HandlerConfig holds listing parameters for the handlers.
type HandlerConfig struct {
	HistoryLimit int
	Moods        clustering.MoodConfig
}

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	service   *history.Service
	visitors  *VisitorStore
	templates *Templates
	cfg       HandlerConfig
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *history.Service, visitors *VisitorStore, templates *Templates, cfg HandlerConfig) *Handlers {
	return &Handlers{
		service:   service,
		visitors:  visitors,
		templates: templates,
		cfg:       cfg,
	}
}

// Home handles the home page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	data := HomePageData{
		PageData: h.pageData(r, "Emotion Color"),
		Palette:  paletteShares(h.palette()),
	}

	if v := h.visitors.FromRequest(r); v != nil {
		data.Recent = toResultData(v.Recent, h.palette())
	}

	h.render(w, "home", data)
}

// Derive classifies the submitted text and renders the result partial (POST /derive).
func (h *Handlers) Derive(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.renderPartial(w, http.StatusBadRequest, "result", ResultData{Error: "Could not read the form"})
		return
	}

	text := strings.TrimSpace(r.PostForm.Get("text"))
	result, err := h.service.Derive(r.Context(), text)
	if err != nil {
		status, msg := errorStatus(err)
		h.renderPartial(w, status, "result", ResultData{Text: text, Error: msg})
		return
	}

	if v, err := h.visitors.Ensure(w, r); err != nil {
		slog.Warn("creating visitor", "error", err)
	} else {
		h.visitors.Remember(v.ID, *result)
	}

	h.renderPartial(w, http.StatusOK, "result", toResult(*result, h.palette()))
}

// History lists recent stored derivations (GET /history).
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.Recent(r.Context(), h.cfg.HistoryLimit)
	if err != nil {
		slog.Error("listing history", "error", err)
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}

	h.render(w, "history", HistoryPageData{
		PageData: h.storePageData(r, "History"),
		Results:  toResultData(results, h.palette()),
	})
}

// Moods shows stored derivations grouped by mood (GET /moods).
func (h *Handlers) Moods(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.MoodGroups(r.Context(), h.cfg.Moods)
	if err != nil {
		slog.Error("grouping moods", "error", err)
		http.Error(w, "Failed to load mood groups", http.StatusInternalServerError)
		return
	}

	groups := make([]GroupData, len(result.Groups))
	for i, g := range result.Groups {
		groups[i] = toGroupData(g, h.palette())
	}

	h.render(w, "moods", MoodsPageData{
		PageData:      h.storePageData(r, "Moods"),
		Groups:        groups,
		OutlierCount:  len(result.Outliers),
		TotalReadings: result.TotalReadings,
	})
}

// Healthz reports liveness and database reachability (GET /healthz).
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		slog.Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type deriveRequest struct {
	Text string `json:"text"`
}

type batchRequest struct {
	Texts []string `json:"texts"`
}

type blendRequest struct {
	Distribution map[string]float64 `json:"distribution"`
}

type deriveResponse struct {
	ID           string             `json:"id,omitempty"`
	Text         string             `json:"text"`
	Color        string             `json:"color,omitempty"`
	Distribution map[string]float64 `json:"distribution,omitempty"`
	CreatedAt    string             `json:"created_at,omitempty"`
	Error        string             `json:"error,omitempty"`
	Kind         string             `json:"kind,omitempty"`
}

type blendResponse struct {
	Color string   `json:"color"`
	RGB   [3]uint8 `json:"rgb"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// APIDerive classifies text and returns its color (POST /api/derive).
func (h *Handlers) APIDerive(w http.ResponseWriter, r *http.Request) {
	var req deriveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Derive(r.Context(), strings.TrimSpace(req.Text))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(*result))
}

// APIDeriveBatch derives colors for several texts (POST /api/derive/batch).
// Per-item failures are reported inline; the response is 200 unless the
// request itself is malformed.
func (h *Handlers) APIDeriveBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Texts) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "texts must not be empty"})
		return
	}
	if len(req.Texts) > maxBatchTexts {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "too many texts"})
		return
	}

	texts := make([]string, len(req.Texts))
	for i, t := range req.Texts {
		texts[i] = strings.TrimSpace(t)
	}

	results, err := h.service.DeriveBatch(r.Context(), texts)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]deriveResponse, len(results))
	for i, res := range results {
		if res.Error != nil {
			_, msg := errorStatus(res.Error)
			out[i] = deriveResponse{Text: res.Text, Error: msg, Kind: errorKind(res.Error)}
			continue
		}
		out[i] = toResponse(res)
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": out})
}

// APIBlend blends a caller-supplied distribution (POST /api/blend).
func (h *Handlers) APIBlend(w http.ResponseWriter, r *http.Request) {
	var req blendRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.service.Deriver().DeriveRaw(req.Distribution)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, blendResponse{
		Color: c.Hex(),
		RGB:   [3]uint8{c.R, c.G, c.B},
	})
}

// APIGetDerivation returns a stored derivation (GET /api/derivations/{id}).
func (h *Handlers) APIGetDerivation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid derivation ID"})
		return
	}

	result, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(*result))
}

func (h *Handlers) palette() emotion.Palette {
	return h.service.Deriver().Palette()
}

func (h *Handlers) pageData(r *http.Request, title string) PageData {
	return PageData{
		Title:       title,
		CurrentPath: r.URL.Path,
		HasHistory:  h.service.HasStore(),
	}
}

// storePageData is pageData for pages that read stored derivations. Without
// a store it carries a flash explaining why the page is empty.
func (h *Handlers) storePageData(r *http.Request, title string) PageData {
	data := h.pageData(r, title)
	if !data.HasHistory {
		data.Flash = &FlashMessage{
			Type:    "info",
			Message: "History is off. Set EMOCOLOR_DATABASE_URL to keep derivations.",
		}
	}
	return data
}

func (h *Handlers) render(w http.ResponseWriter, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, page, data); err != nil {
		slog.Error("rendering template", "page", page, "error", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

func (h *Handlers) renderPartial(w http.ResponseWriter, status int, partial string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.RenderPartial(w, partial, data); err != nil {
		slog.Error("rendering partial", "partial", partial, "error", err)
	}
}

// errorStatus maps service errors to an HTTP status and a user-facing message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, classifier.ErrEmptyText):
		return http.StatusBadRequest, "Please enter some text"
	case emotion.ErrorKind(err) != "":
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound, "Derivation not found"
	default:
		slog.Error("request failed", "error", err)
		return http.StatusInternalServerError, "Something went wrong"
	}
}

// errorKind labels an error for JSON clients.
func errorKind(err error) string {
	if kind := emotion.ErrorKind(err); kind != "" {
		return kind
	}
	if errors.Is(err, classifier.ErrEmptyText) {
		return "empty_text"
	}
	return ""
}

func writeError(w http.ResponseWriter, err error) {
	status, msg := errorStatus(err)
	writeJSON(w, status, errorResponse{Error: msg, Kind: errorKind(err)})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encoding response", "error", err)
	}
}

func toResponse(r history.Result) deriveResponse {
	resp := deriveResponse{
		Text:         r.Text,
		Color:        r.Color.Hex(),
		Distribution: r.Distribution.Raw(),
	}
	if r.ID != uuid.Nil {
		resp.ID = r.ID.String()
	}
	if !r.CreatedAt.IsZero() {
		resp.CreatedAt = r.CreatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func toResult(r history.Result, palette emotion.Palette) ResultData {
	data := ResultData{
		Text:      r.Text,
		Color:     r.Color,
		Shares:    shares(r.Distribution, palette),
		CreatedAt: r.CreatedAt,
	}
	if r.ID != uuid.Nil {
		data.ID = r.ID.String()
	}
	return data
}

func toResultData(results []history.Result, palette emotion.Palette) []ResultData {
	out := make([]ResultData, len(results))
	for i, r := range results {
		out[i] = toResult(r, palette)
	}
	return out
}

func toGroupData(g clustering.MoodGroup, palette emotion.Palette) GroupData {
	samples := make([]string, 0, sampleTexts)
	for i := 0; i < len(g.Readings) && i < sampleTexts; i++ {
		samples = append(samples, g.Readings[i].Text)
	}
	return GroupData{
		Name:         g.Name,
		Mood:         g.Mood,
		Description:  clustering.GetMoodCategory(g.Centroid).Description,
		Color:        g.Color,
		Shares:       shares(g.Centroid, palette),
		StartDate:    g.StartDate,
		EndDate:      g.EndDate,
		ReadingCount: len(g.Readings),
		Samples:      samples,
	}
}

// shares lists a distribution's categories by descending weight.
func shares(d emotion.Distribution, palette emotion.Palette) []ShareData {
	out := make([]ShareData, 0, len(d))
	for _, c := range d.Dominant() {
		pc, _ := palette.ColorOf(c)
		out = append(out, ShareData{Name: c.Title(), Value: d[c], Color: pc})
	}
	return out
}

// paletteShares lists the palette in canonical order.
func paletteShares(p emotion.Palette) []ShareData {
	out := make([]ShareData, 0, emotion.NumCategories)
	for _, c := range emotion.Categories() {
		pc, _ := p.ColorOf(c)
		out = append(out, ShareData{Name: c.Title(), Color: pc})
	}
	return out
}
