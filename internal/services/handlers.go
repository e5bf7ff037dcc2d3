package services

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dpup/prefab/errors"
	"github.com/dpup/prefab/logging"
	"github.com/gorilla/mux"
	"google.golang.org/grpc/codes"

	"github.com/dpup/saferoute/server/internal/lib/geo"
	"github.com/dpup/saferoute/server/internal/lib/incident"
	"github.com/dpup/saferoute/server/internal/lib/zones"
)

// APIPrefix is the path every endpoint is mounted under
const APIPrefix = "/api/v1"

// maxBodyBytes caps request bodies; the largest is a zone definition
const maxBodyBytes = 64 << 10

// NewRouter exposes the navigation service over JSON/HTTP
func NewRouter(svc *NavigationService, stream *PositionStream) *mux.Router {
	h := &handlers{svc: svc}

	r := mux.NewRouter()
	r.Use(ensureLogger)

	// Routes are registered on the root router with the full path so a method
	// mismatch is answered with 405 instead of falling through to 404
	api := &prefixed{router: r, prefix: APIPrefix}

	api.HandleFunc("/routes", h.planRoutes).Methods(http.MethodPost)

	api.HandleFunc("/zones", h.listZones).Methods(http.MethodGet)
	api.HandleFunc("/zones", h.addZone).Methods(http.MethodPost)
	api.HandleFunc("/zones.kml", h.exportZones).Methods(http.MethodGet)

	api.HandleFunc("/incidents", h.listIncidents).Methods(http.MethodGet)
	api.HandleFunc("/incidents", h.reportIncident).Methods(http.MethodPost)
	api.HandleFunc("/incidents/types", h.incidentTypes).Methods(http.MethodGet)
	api.HandleFunc("/incidents/{id}/upvote", h.upvoteIncident).Methods(http.MethodPost)

	api.HandleFunc("/sessions", h.startNavigation).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", h.getSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", h.stopNavigation).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/position", h.updatePosition).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/dismiss", h.dismissAlert).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/voice", h.setVoice).Methods(http.MethodPut)
	if stream != nil {
		api.HandleFunc("/sessions/{id}/stream", stream.ServeHTTP).Methods(http.MethodGet)
	}

	api.HandleFunc("/places", h.searchPlaces).Methods(http.MethodGet)
	api.HandleFunc("/places/reverse", h.reverseGeocode).Methods(http.MethodGet)

	api.HandleFunc("/status", h.status).Methods(http.MethodGet)

	return r
}

type prefixed struct {
	router *mux.Router
	prefix string
}

func (p *prefixed) HandleFunc(path string, f func(http.ResponseWriter, *http.Request)) *mux.Route {
	return p.router.HandleFunc(p.prefix+path, f)
}

// ensureLogger attaches a development logger when the request did not come
// through prefab's logging middleware
func ensureLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(logging.EnsureLogger(r.Context())))
	})
}

type handlers struct {
	svc *NavigationService
}

type routesRequest struct {
	Origin      geo.Point `json:"origin"`
	Destination geo.Point `json:"destination"`
}

func (h *handlers) planRoutes(w http.ResponseWriter, r *http.Request) {
	var req routesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	routes, err := h.svc.PlanRoutes(r.Context(), req.Origin, req.Destination)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]interface{}{"routes": routes})
}

func (h *handlers) listZones(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]interface{}{"zones": h.svc.ListZones()})
}

func (h *handlers) addZone(w http.ResponseWriter, r *http.Request) {
	var zone zones.RiskZone
	if !decodeBody(w, r, &zone) {
		return
	}
	added, err := h.svc.AddZone(r.Context(), zone)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusCreated, added)
}

func (h *handlers) exportZones(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.ExportZonesKML()
	if err != nil {
		writeError(r.Context(), w, errors.NewC("failed to export zones: "+err.Error(), codes.Internal))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.google-earth.kml+xml")
	w.Header().Set("Content-Disposition", `attachment; filename="risk-zones.kml"`)
	_, _ = w.Write(doc)
}

func (h *handlers) listIncidents(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]interface{}{"incidents": h.svc.ListIncidents()})
}

type incidentTypeView struct {
	Type  incident.Type `json:"type"`
	Label string        `json:"label"`
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, h.svc.Status())
}

func (h *handlers) incidentTypes(w http.ResponseWriter, r *http.Request) {
	types := make([]incidentTypeView, 0, len(incident.Types))
	for _, t := range incident.Types {
		types = append(types, incidentTypeView{Type: t, Label: t.Label()})
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]interface{}{"types": types})
}

func (h *handlers) reportIncident(w http.ResponseWriter, r *http.Request) {
	var sub incident.Submission
	if !decodeBody(w, r, &sub) {
		return
	}
	report, created, err := h.svc.ReportIncident(r.Context(), sub)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	writeJSON(r.Context(), w, status, map[string]interface{}{"incident": report, "duplicate": !created})
}

func (h *handlers) upvoteIncident(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.UpvoteIncident(mux.Vars(r)["id"])
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, report)
}

func (h *handlers) startNavigation(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if !decodeBody(w, r, &req) {
		return
	}
	view, err := h.svc.StartNavigation(r.Context(), req)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusCreated, view)
}

func (h *handlers) getSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.GetSession(mux.Vars(r)["id"])
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, view)
}

func (h *handlers) stopNavigation(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.StopNavigation(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) updatePosition(w http.ResponseWriter, r *http.Request) {
	var pos geo.Point
	if !decodeBody(w, r, &pos) {
		return
	}
	update, err := h.svc.UpdatePosition(r.Context(), mux.Vars(r)["id"], pos)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, update)
}

func (h *handlers) dismissAlert(w http.ResponseWriter, r *http.Request) {
	zoneID, err := h.svc.DismissAlert(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"dismissed": zoneID})
}

type voiceRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *handlers) setVoice(w http.ResponseWriter, r *http.Request) {
	var req voiceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	view, err := h.svc.SetVoice(mux.Vars(r)["id"], req.Enabled)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, view)
}

func (h *handlers) searchPlaces(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var near *geo.Point
	if q.Get("lat") != "" || q.Get("lng") != "" {
		p, err := parsePoint(q.Get("lat"), q.Get("lng"))
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		near = &p
	}

	results, err := h.svc.SearchPlaces(r.Context(), q.Get("q"), near)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]interface{}{"results": results})
}

func (h *handlers) reverseGeocode(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := parsePoint(q.Get("lat"), q.Get("lng"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	name, err := h.svc.ReverseGeocode(r.Context(), p)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"name": name})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(r.Context(), w, errors.NewC("invalid request body: "+err.Error(), codes.InvalidArgument))
		return false
	}
	return true
}

func parsePoint(lat, lng string) (geo.Point, error) {
	latitude, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return geo.Point{}, errors.NewC("invalid lat: "+lat, codes.InvalidArgument)
	}
	longitude, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return geo.Point{}, errors.NewC("invalid lng: "+lng, codes.InvalidArgument)
	}
	return geo.Point{Latitude: latitude, Longitude: longitude}, nil
}
