// Package httpx maps HTTP requests onto the versioning and deployment
// services. Callers are authenticated by bearer token only; authorization
// happens upstream.
package httpx

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harshal-b-98/NextGenWeb-sub006/internal/domain"
	"github.com/harshal-b-98/NextGenWeb-sub006/internal/repository"
	"github.com/harshal-b-98/NextGenWeb-sub006/internal/service/deploy"
	"github.com/harshal-b-98/NextGenWeb-sub006/internal/service/export"
	"github.com/harshal-b-98/NextGenWeb-sub006/internal/service/version"
	"github.com/harshal-b-98/NextGenWeb-sub006/internal/ws"
)

const (
	rateWindowDefault  = time.Minute
	rateWindowRealtime = 30 * time.Second
	rateLimitRead      = 120
	rateLimitWrite     = 60
	rateLimitDeploy    = 20
	rateLimitWebsocket = 30
	healthCheckTimeout = 2 * time.Second
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	websites  repository.WebsiteRepository
	pages     repository.PageRepository
	versions  version.Service
	exporter  export.Transformer
	deploys   *deploy.Orchestrator
	hub       *ws.Hub
	upgrader  websocket.Upgrader
	limiter   RateLimiter
	jwtSecret string
	dbHealth  func(context.Context) error

	defaultProvider string
	defaultTarget   string

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
}

// Deps bundles the router's collaborators.
type Deps struct {
	Logger          *slog.Logger
	Websites        repository.WebsiteRepository
	Pages           repository.PageRepository
	Versions        version.Service
	Exporter        export.Transformer
	Deploys         *deploy.Orchestrator
	Hub             *ws.Hub
	Limiter         RateLimiter
	JWTSecret       string
	DBHealth        func(context.Context) error
	DefaultProvider string
	DefaultTarget   string
}

// NewRouter assembles routes with dependencies.
func NewRouter(deps Deps) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		logger:   deps.Logger,
		websites: deps.Websites,
		pages:    deps.Pages,
		versions: deps.Versions,
		exporter: deps.Exporter,
		deploys:  deps.Deploys,
		hub:      deps.Hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		limiter:         deps.Limiter,
		jwtSecret:       deps.JWTSecret,
		dbHealth:        deps.DBHealth,
		defaultProvider: deps.DefaultProvider,
		defaultTarget:   deps.DefaultTarget,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("GET /healthz", r.audit("healthz", r.handleHealthz))
	r.mux.Handle("GET /metrics", promhttp.Handler())

	r.mux.HandleFunc("GET /websites/{websiteID}/versions", r.audit("versions_list", r.handlerAuthRate("versions_list", rateLimitRead, rateWindowDefault, r.handleListVersions)))
	r.mux.HandleFunc("POST /websites/{websiteID}/versions", r.audit("versions_create", r.handlerAuthRate("versions_create", rateLimitWrite, rateWindowDefault, r.handleCreateVersion)))
	r.mux.HandleFunc("POST /websites/{websiteID}/versions/{versionID}/switch", r.audit("versions_switch", r.handlerAuthRate("versions_switch", rateLimitWrite, rateWindowDefault, r.handleSwitchVersion)))
	r.mux.HandleFunc("POST /websites/{websiteID}/versions/archive", r.audit("versions_archive", r.handlerAuthRate("versions_archive", rateLimitWrite, rateWindowDefault, r.handleArchiveVersions)))
	r.mux.HandleFunc("GET /versions/compare", r.audit("versions_compare", r.handlerAuthRate("versions_compare", rateLimitRead, rateWindowDefault, r.handleCompareVersions)))
	r.mux.HandleFunc("GET /versions/{versionID}", r.audit("versions_get", r.handlerAuthRate("versions_get", rateLimitRead, rateWindowDefault, r.handleGetVersion)))
	r.mux.HandleFunc("POST /versions/{versionID}/publish", r.audit("versions_publish", r.handlerAuthRate("versions_publish", rateLimitWrite, rateWindowDefault, r.handlePublishVersion)))

	r.mux.HandleFunc("POST /websites/{websiteID}/finalize", r.audit("finalize", r.handlerAuthRate("finalize", rateLimitWrite, rateWindowDefault, r.handleFinalize)))
	r.mux.HandleFunc("POST /websites/{websiteID}/deploy", r.audit("deploy", r.handlerAuthRate("deploy", rateLimitDeploy, rateWindowDefault, r.handleDeploy)))
	r.mux.HandleFunc("GET /websites/{websiteID}/deployments", r.audit("deployments_list", r.handlerAuthRate("deployments_list", rateLimitRead, rateWindowDefault, r.handleListDeployments)))
	r.mux.HandleFunc("GET /deployments/{deploymentID}", r.audit("deployments_get", r.handlerAuthRate("deployments_get", rateLimitRead, rateWindowDefault, r.handleGetDeployment)))
	r.mux.HandleFunc("POST /deployments/{deploymentID}/cancel", r.audit("deployments_cancel", r.handlerAuthRate("deployments_cancel", rateLimitWrite, rateWindowDefault, r.handleCancelDeployment)))

	r.mux.HandleFunc("GET /ws/deployments", r.audit("deployments_ws", r.handlerAuthRate("deployments_ws", rateLimitWebsocket, rateWindowRealtime, r.handleDeploymentsWS)))
}

func (r *Router) handleListVersions(w http.ResponseWriter, req *http.Request) {
	websiteID := req.PathValue("websiteID")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(req.URL.Query().Get("offset"))
	versions, err := r.versions.List(req.Context(), websiteID, version.ListInput{
		Status: domain.VersionStatus(req.URL.Query().Get("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"versions": versions})
}

func (r *Router) handleCreateVersion(w http.ResponseWriter, req *http.Request) {
	websiteID := req.PathValue("websiteID")
	var payload struct {
		VersionName string `json:"version_name"`
		Description string `json:"description"`
		TriggerType string `json:"trigger_type"`
	}
	decodeBody(req, &payload)
	input := version.CreateInput{
		VersionName: payload.VersionName,
		Description: payload.Description,
		TriggerType: domain.TriggerType(payload.TriggerType),
		CreatedBy:   actorID(req.Context()),
	}
	created, err := r.versions.Create(req.Context(), websiteID, input)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (r *Router) handleGetVersion(w http.ResponseWriter, req *http.Request) {
	detail, err := r.versions.Get(req.Context(), req.PathValue("versionID"))
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (r *Router) handleSwitchVersion(w http.ResponseWriter, req *http.Request) {
	switched, err := r.versions.Switch(req.Context(), req.PathValue("websiteID"), req.PathValue("versionID"))
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, switched)
}

func (r *Router) handlePublishVersion(w http.ResponseWriter, req *http.Request) {
	published, err := r.versions.Publish(req.Context(), req.PathValue("versionID"))
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, published)
}

func (r *Router) handleCompareVersions(w http.ResponseWriter, req *http.Request) {
	oldID := req.URL.Query().Get("old")
	newID := req.URL.Query().Get("new")
	if oldID == "" || newID == "" {
		writeError(w, http.StatusBadRequest, "old and new query parameters required")
		return
	}
	diff, err := r.versions.Compare(req.Context(), oldID, newID)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, diff)
}

func (r *Router) handleArchiveVersions(w http.ResponseWriter, req *http.Request) {
	var payload struct {
		OlderThanDays int `json:"older_than_days"`
	}
	decodeBody(req, &payload)
	archived, err := r.versions.ArchiveOld(req.Context(), req.PathValue("websiteID"), payload.OlderThanDays)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"archived": archived})
}

func (r *Router) handleFinalize(w http.ResponseWriter, req *http.Request) {
	websiteID := req.PathValue("websiteID")
	var payload struct {
		VersionName string `json:"version_name"`
		Description string `json:"description"`
	}
	decodeBody(req, &payload)
	finalized, err := r.versions.Finalize(req.Context(), websiteID, version.CreateInput{
		VersionName: payload.VersionName,
		Description: payload.Description,
		CreatedBy:   actorID(req.Context()),
	})
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, finalized)
}

// handleDeploy exports the production version's pages and hands the file
// tree to the orchestrator. The response returns before any provider call.
func (r *Router) handleDeploy(w http.ResponseWriter, req *http.Request) {
	websiteID := req.PathValue("websiteID")
	var payload struct {
		Provider string `json:"provider"`
		Target   string `json:"target"`
	}
	decodeBody(req, &payload)

	website, err := r.websites.GetWebsiteByID(req.Context(), websiteID)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	if website.ProductionVersionID == nil {
		writeError(w, http.StatusConflict, "website has no production version to deploy")
		return
	}
	detail, err := r.versions.Get(req.Context(), *website.ProductionVersionID)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	ids := make([]string, 0, len(detail.Version.PageRevisions))
	for pageID := range detail.Version.PageRevisions {
		ids = append(ids, pageID)
	}
	pages, err := r.pages.ListPagesByIDs(req.Context(), ids)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	result, err := r.exporter.Transform(website, pages)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	providerName := payload.Provider
	if providerName == "" {
		providerName = r.defaultProvider
	}
	target := payload.Target
	if target == "" {
		target = r.defaultTarget
	}
	deployment, err := r.deploys.Create(req.Context(), website, result.Files, providerName, target)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, deployment)
}

func (r *Router) handleListDeployments(w http.ResponseWriter, req *http.Request) {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	deployments, err := r.deploys.ListByWebsite(req.Context(), req.PathValue("websiteID"), limit)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deployments": deployments})
}

func (r *Router) handleGetDeployment(w http.ResponseWriter, req *http.Request) {
	deployment, err := r.deploys.Get(req.Context(), req.PathValue("deploymentID"))
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deployment)
}

func (r *Router) handleCancelDeployment(w http.ResponseWriter, req *http.Request) {
	canceled, err := r.deploys.Cancel(req.Context(), req.PathValue("deploymentID"))
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, canceled)
}

func (r *Router) handleDeploymentsWS(w http.ResponseWriter, req *http.Request) {
	websiteID := req.URL.Query().Get("website_id")
	if websiteID == "" {
		writeError(w, http.StatusBadRequest, "website_id query parameter required")
		return
	}
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	client := ws.NewClient(conn, r.logger)
	r.hub.Register(websiteID, client)
	go func() {
		defer func() {
			r.hub.Unregister(websiteID, client)
			client.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// audit wraps a handler with structured request logging and metrics.
func (r *Router) audit(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		fields := []any{
			"method", req.Method,
			"route", route,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
		r.recordRequestMetrics(req.Method, route, status, duration)
	}
}
