package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"railmap/internal/railmap"
	"railmap/internal/store"
)

const (
	mapMaxRegions = 256
	mapMaxNodes   = 5000
	mapMaxEdges   = 10000
)

var errInvalidSize = errors.New("width and height must be between 1 and 4096")

type mapView struct {
	Viewport    railmap.Viewport   `json:"viewport"`
	MinScale    float64            `json:"min_scale"`
	MaxScale    float64            `json:"max_scale"`
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	Gesture     string             `json:"gesture"`
	DataVersion string             `json:"data_version"`
	RouteID     *string            `json:"route_id,omitempty"`
	RouteActive bool               `json:"route_active"`
	LastFrame   railmap.FrameStats `json:"last_frame"`
}

type mapProjection struct {
	View       mapView       `json:"view"`
	Regions    []mapRegion   `json:"regions"`
	Nodes      []mapNode     `json:"nodes"`
	Edges      []mapEdge     `json:"edges"`
	Truncation mapTruncation `json:"truncation"`
}

type mapTruncation struct {
	Regions mapTruncationMetric `json:"regions"`
	Nodes   mapTruncationMetric `json:"nodes"`
	Edges   mapTruncationMetric `json:"edges"`
}

type mapTruncationMetric struct {
	Returned  int  `json:"returned"`
	Limit     int  `json:"limit"`
	Truncated bool `json:"truncated"`
	Total     int  `json:"total"`
}

// mapRegion is a station group.
type mapRegion struct {
	ID      string `json:"id"`
	GroupID int64  `json:"group_id"`
	Label   string `json:"label"`
	Color   string `json:"color"`
	Visible bool   `json:"visible"`
	Lines   int    `json:"lines"`
}

// mapNode is a station. Nodes are listed in draw order.
type mapNode struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	RegionIDs []string `json:"region_ids"`
	WorldX    float64  `json:"world_x"`
	WorldY    float64  `json:"world_y"`
	ScreenX   float64  `json:"screen_x"`
	ScreenY   float64  `json:"screen_y"`
	Visible   bool     `json:"visible"`
	OnRoute   bool     `json:"on_route"`
}

// mapEdge is a directed connection.
type mapEdge struct {
	ID       string `json:"id"`
	From     string `json:"from"`
	To       string `json:"to"`
	RegionID string `json:"region_id"`
	LineID   *int64 `json:"line_id,omitempty"`
	TwoWay   bool   `json:"two_way"`
	Visible  bool   `json:"visible"`
	OnRoute  bool   `json:"on_route"`
}

type dataRequest struct {
	Stations    []railmap.StationRecord    `json:"stations"`
	Connections []railmap.ConnectionRecord `json:"connections"`
}

type dataResponse struct {
	Stats       railmap.IngestStats `json:"stats"`
	Diagnostics []diagnostic        `json:"diagnostics"`
	View        mapView             `json:"view"`
}

type routeRequest struct {
	Steps []railmap.RouteStep `json:"steps"`
}

type routeResponse struct {
	RouteID     *string      `json:"route_id,omitempty"`
	Active      bool         `json:"active"`
	Connections int          `json:"connections"`
	Stations    int          `json:"stations"`
	Diagnostics []diagnostic `json:"diagnostics"`
}

type inputEvent struct {
	Kind    string          `json:"kind"`
	X       float64         `json:"x"`
	Y       float64         `json:"y"`
	Touches []railmap.Point `json:"touches,omitempty"`
	DeltaY  float64         `json:"delta_y"`
	Width   int             `json:"width,omitempty"`
	Height  int             `json:"height,omitempty"`
}

type inputRequest struct {
	Events []inputEvent `json:"events"`
}

type inputResponse struct {
	Clicks []clickEvent `json:"clicks"`
	View   mapView      `json:"view"`
}

type visibilityRequest struct {
	Visible *bool `json:"visible"`
}

// view snapshots the session. Callers hold s.mu.
func (s *Session) view() mapView {
	r := s.renderer
	w, hgt := s.surface.Size()
	minScale, maxScale := r.Viewport().Bounds()
	v := mapView{
		Viewport:    *r.Viewport(),
		MinScale:    minScale,
		MaxScale:    maxScale,
		Width:       int(w),
		Height:      int(hgt),
		Gesture:     r.InputState().Gesture.String(),
		DataVersion: s.version,
		RouteActive: r.Route().Active(),
		LastFrame:   r.LastFrame(),
	}
	if s.routeID != "" {
		id := s.routeID
		v.RouteID = &id
	}
	return v
}

// projection lists groups, stations and connections as currently drawn.
// Callers hold s.mu.
func (s *Session) projection(limit int) mapProjection {
	r := s.renderer
	g := r.Graph()
	route := r.Route()
	w, hgt := s.surface.Size()

	resp := mapProjection{
		View:    s.view(),
		Regions: []mapRegion{},
		Nodes:   []mapNode{},
		Edges:   []mapEdge{},
	}

	groups := g.Groups()
	for i, grp := range groups {
		if i >= min(mapMaxRegions, limit) {
			break
		}
		resp.Regions = append(resp.Regions, mapRegion{
			ID:      groupRegionID(grp.ID),
			GroupID: grp.ID,
			Label:   grp.Name,
			Color:   grp.Color,
			Visible: grp.Show,
			Lines:   len(grp.Lines),
		})
	}

	order := r.RenderOrder()
	for i, st := range order {
		if i >= min(mapMaxNodes, limit) {
			break
		}
		sx, sy := r.Viewport().ToScreen(st.X, st.Y, w, hgt)
		regions := make([]string, 0, len(st.Groups))
		for _, grp := range st.Groups {
			regions = append(regions, groupRegionID(grp.ID))
		}
		resp.Nodes = append(resp.Nodes, mapNode{
			ID:        st.Label,
			Label:     st.Name,
			RegionIDs: regions,
			WorldX:    st.X,
			WorldY:    st.Y,
			ScreenX:   sx,
			ScreenY:   sy,
			Visible:   st.Show,
			OnRoute:   route.HasStation(st),
		})
	}

	conns := g.Connections()
	for i, c := range conns {
		if i >= min(mapMaxEdges, limit) {
			break
		}
		e := mapEdge{
			ID:       fmt.Sprintf("%s->%s@%d", c.From.Label, c.To.Label, c.Group.ID),
			From:     c.From.Label,
			To:       c.To.Label,
			RegionID: groupRegionID(c.Group.ID),
			TwoWay:   c.TwoWay,
			Visible:  c.Show,
			OnRoute:  route.HasConnection(c),
		}
		if c.Line != nil {
			id := c.Line.ID
			e.LineID = &id
		}
		resp.Edges = append(resp.Edges, e)
	}

	resp.Truncation = mapTruncation{
		Regions: truncationMetric(len(resp.Regions), min(mapMaxRegions, limit), len(groups)),
		Nodes:   truncationMetric(len(resp.Nodes), min(mapMaxNodes, limit), len(order)),
		Edges:   truncationMetric(len(resp.Edges), min(mapMaxEdges, limit), len(conns)),
	}
	sortMapProjection(&resp)
	return resp
}

func truncationMetric(returned, limit, total int) mapTruncationMetric {
	return mapTruncationMetric{Returned: returned, Limit: limit, Truncated: returned < total, Total: total}
}

func groupRegionID(id int64) string { return "group:" + strconv.FormatInt(id, 10) }

// sortMapProjection orders regions and edges by id. Nodes keep draw order.
func sortMapProjection(p *mapProjection) {
	sort.SliceStable(p.Regions, func(i, j int) bool { return p.Regions[i].GroupID < p.Regions[j].GroupID })
	sort.SliceStable(p.Edges, func(i, j int) bool { return p.Edges[i].ID < p.Edges[j].ID })
}

func parseLimitParam(value string, limit, def int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return def, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.New("invalid value")
	}
	if parsed < 1 {
		return 0, errors.New("must be positive")
	}
	if parsed > limit {
		parsed = limit
	}
	return parsed, nil
}

func (h *Handler) handleGetView(w http.ResponseWriter, r *http.Request) {
	if !h.ensureSession(w) {
		return
	}
	h.session.mu.Lock()
	v := h.session.view()
	h.session.mu.Unlock()
	h.writeJSON(w, http.StatusOK, v)
}

func (h *Handler) handleGetProjection(w http.ResponseWriter, r *http.Request) {
	if !h.ensureSession(w) {
		return
	}
	limit, err := parseLimitParam(r.URL.Query().Get("limit"), mapMaxEdges, mapMaxEdges)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid limit", map[string]any{"error": err.Error()})
		return
	}
	h.session.mu.Lock()
	resp := h.session.projection(limit)
	h.session.mu.Unlock()
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	if !h.ensureSession(w) {
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.session.writePNG(w); err != nil {
		h.log.Error().Err(err).Msg("render frame failed")
		w.Header().Del("Content-Type")
		h.writeError(w, http.StatusInternalServerError, "render_failed", "failed to render frame", nil)
	}
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if !h.ensureSession(w) {
		return
	}
	h.session.mu.Lock()
	cfg := h.session.renderer.Config()
	h.session.mu.Unlock()
	h.writeJSON(w, http.StatusOK, cfg)
}

// handlePutConfig merges the body over the defaults. An invalid config is
// rejected instead of being replaced by defaults as the renderer would.
func (h *Handler) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	if !h.ensureSession(w) {
		return
	}
	cfg := railmap.DefaultConfig()
	if err := decodeJSONStrict(r, &cfg); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}
	applied, err := h.session.setConfig(cfg)
	if errors.Is(err, railmap.ErrInvalidConfig) {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid config", map[string]any{"error": err.Error()})
		return
	}
	if err != nil {
		h.log.Warn().Err(err).Msg("apply config failed")
		h.writeError(w, http.StatusInternalServerError, "config_failed", "failed to apply config", nil)
		return
	}
	h.writeJSON(w, http.StatusOK, applied)
}

func (h *Handler) handlePostData(w http.ResponseWriter, r *http.Request) {
	if !h.ensureSession(w) {
		return
	}
	var req dataRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}

	var resp dataResponse
	diags, _, _ := h.session.do(func(rr *railmap.Renderer) error {
		resp.Stats = rr.SetData(req.Stations, req.Connections)
		h.session.version = "api"
		resp.View = h.session.view()
		return nil
	})
	resp.Diagnostics = nonNilDiagnostics(diags)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	if !h.ensureSession(w) {
		return
	}
	if h.syncer == nil {
		h.writeError(w, http.StatusServiceUnavailable, "store_unavailable", "map store not configured", nil)
		return
	}
	if err := h.syncer.Reload(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("reload failed")
		h.writeError(w, http.StatusBadGateway, "reload_failed", "failed to reload map data", map[string]any{"error": err.Error()})
		return
	}
	h.handleGetView(w, r)
}

func (h *Handler) handlePostInput(w http.ResponseWriter, r *http.Request) {
	if !h.ensureSession(w) {
		return
	}
	var req inputRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}

	events := make([]railmap.InputEvent, 0, len(req.Events))
	for i, ev := range req.Events {
		kind, ok := railmap.ParseEventKind(ev.Kind)
		if !ok {
			h.writeError(w, http.StatusBadRequest, "validation_failed", "unknown event kind", map[string]any{"index": i, "kind": ev.Kind})
			return
		}
		events = append(events, railmap.InputEvent{Kind: kind, X: ev.X, Y: ev.Y, Touches: ev.Touches, DeltaY: ev.DeltaY})
	}

	var resp inputResponse
	_, clicks, err := h.session.do(func(rr *railmap.Renderer) error {
		for i, ev := range events {
			if ev.Kind == railmap.Resize && (req.Events[i].Width != 0 || req.Events[i].Height != 0) {
				if err := h.session.resize(req.Events[i].Width, req.Events[i].Height); err != nil {
					return fmt.Errorf("event %d: %w", i, err)
				}
			}
			rr.HandleInput(ev)
		}
		resp.View = h.session.view()
		return nil
	})
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid resize", map[string]any{"error": err.Error()})
		return
	}
	resp.Clicks = clicks
	if resp.Clicks == nil {
		resp.Clicks = []clickEvent{}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListRoutes(w http.ResponseWriter, r *http.Request) {
	if !h.ensureSource(w) {
		return
	}
	routes, err := h.source.Routes(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list routes failed")
		h.writeError(w, http.StatusInternalServerError, "store_error", "failed to list routes", nil)
		return
	}
	if routes == nil {
		routes = []store.RouteSummary{}
	}
	h.writeJSON(w, http.StatusOK, routes)
}

func (h *Handler) handleSetRoute(w http.ResponseWriter, r *http.Request) {
	if !h.ensureSession(w) {
		return
	}
	var req routeRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, h.applyRoute("", req.Steps))
}

func (h *Handler) handleLoadRoute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.ensureSession(w) || !h.ensureSource(w) {
		return
	}
	steps, err := h.source.Route(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrRouteNotFound):
			h.writeError(w, http.StatusNotFound, "not_found", "route not found", map[string]any{"id": id})
		default:
			h.log.Error().Err(err).Str("id", id).Msg("load route failed")
			h.writeError(w, http.StatusInternalServerError, "store_error", "failed to load route", nil)
		}
		return
	}
	h.writeJSON(w, http.StatusOK, h.applyRoute(id, steps))
}

func (h *Handler) handleClearRoute(w http.ResponseWriter, r *http.Request) {
	if !h.ensureSession(w) {
		return
	}
	h.writeJSON(w, http.StatusOK, h.applyRoute("", nil))
}

func (h *Handler) applyRoute(id string, steps []railmap.RouteStep) routeResponse {
	var resp routeResponse
	diags, _, _ := h.session.do(func(rr *railmap.Renderer) error {
		rr.SetRoute(steps)
		h.session.routeID = id
		route := rr.Route()
		resp.Active = route.Active()
		resp.Connections = len(route.Connections())
		resp.Stations = route.StationCount()
		return nil
	})
	if id != "" {
		resp.RouteID = &id
	}
	resp.Diagnostics = nonNilDiagnostics(diags)
	return resp
}

func (h *Handler) handleGroupVisibility(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_id", "group id must be an integer", map[string]any{"id": raw})
		return
	}
	h.setVisibility(w, r, func(rr *railmap.Renderer, visible bool) error {
		return rr.SetGroupVisible(id, visible)
	})
}

func (h *Handler) handleStationVisibility(w http.ResponseWriter, r *http.Request) {
	label := chi.URLParam(r, "label")
	h.setVisibility(w, r, func(rr *railmap.Renderer, visible bool) error {
		return rr.SetStationVisible(label, visible)
	})
}

func (h *Handler) setVisibility(w http.ResponseWriter, r *http.Request, apply func(*railmap.Renderer, bool) error) {
	if !h.ensureSession(w) {
		return
	}
	var req visibilityRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}
	if req.Visible == nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "visible is required", nil)
		return
	}

	var v mapView
	_, _, err := h.session.do(func(rr *railmap.Renderer) error {
		if err := apply(rr, *req.Visible); err != nil {
			return err
		}
		v = h.session.view()
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, railmap.ErrUnknownGroup), errors.Is(err, railmap.ErrUnknownStation):
			h.writeError(w, http.StatusNotFound, "not_found", err.Error(), nil)
		default:
			h.log.Error().Err(err).Msg("set visibility failed")
			h.writeError(w, http.StatusInternalServerError, "render_failed", "failed to update visibility", nil)
		}
		return
	}
	h.writeJSON(w, http.StatusOK, v)
}

func nonNilDiagnostics(d []diagnostic) []diagnostic {
	if d == nil {
		return []diagnostic{}
	}
	return d
}
