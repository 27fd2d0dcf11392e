package screenerapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jiaming2012/options-screener/src/eventmodels"
	"github.com/jiaming2012/options-screener/src/metrics"
)

type Screener interface {
	Screen(ctx context.Context, req eventmodels.ScreeningRequest) (*eventmodels.ScreeningResult, error)
}

type LatestResults interface {
	Latest() (*eventmodels.ScreeningResult, bool)
}

type News interface {
	FetchNews(ctx context.Context, req eventmodels.NewsRequest) ([]eventmodels.NewsArticle, error)
}

type Options struct {
	Screener       Screener
	Latest         LatestResults
	News           News
	Defaults       eventmodels.ScreeningRequest
	AllowedOrigins []string
	Clock          func() time.Time
}

type handler struct {
	screener Screener
	latest   LatestResults
	news     News
	defaults eventmodels.ScreeningRequest
	clock    func() time.Time
}

func NewRouter(opts Options) http.Handler {
	h := &handler{
		screener: opts.Screener,
		latest:   opts.Latest,
		news:     opts.News,
		defaults: opts.Defaults,
		clock:    opts.Clock,
	}

	if h.clock == nil {
		h.clock = time.Now
	}

	router := mux.NewRouter()
	router.Use(requestDurationMiddleware)
	router.NotFoundHandler = http.HandlerFunc(h.notFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(h.methodNotAllowed)

	router.HandleFunc("/health", h.health).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	route := func(path string, fn http.HandlerFunc, methods ...string) {
		router.Handle(path, otelhttp.WithRouteTag(path, fn)).Methods(methods...)
	}

	route("/api/v1/screen", h.screen, http.MethodGet, http.MethodPost)
	route("/api/v1/screen/latest", h.latestResult, http.MethodGet)
	route("/api/v1/news/{symbol}", h.tickerNews, http.MethodGet)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	})

	return otelhttp.NewHandler(corsHandler(router), "/")
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	if err := setResponse(&status, w); err != nil {
		log.Errorf("health: failed to set response: %v", err)
	}
}

func (h *handler) screen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var dto eventmodels.ScreeningRequestDTO
	if err := parseApiRequest(&dto, r); err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.screener.Screen(ctx, dto.ToModel(h.defaults))
	if err != nil {
		log.WithContext(ctx).Warnf("screen: failed: %v", err)
		h.writeError(w, err)
		return
	}

	if err := setResponse(result, w); err != nil {
		log.WithContext(ctx).Errorf("screen: failed to set response: %v", err)
	}
}

func (h *handler) latestResult(w http.ResponseWriter, r *http.Request) {
	if h.latest == nil {
		h.writeError(w, eventmodels.NewWebError(http.StatusNotFound, "not_found", "no screening results", nil))
		return
	}

	result, found := h.latest.Latest()
	if !found {
		h.writeError(w, eventmodels.NewWebError(http.StatusNotFound, "not_found", "no screening results", nil))
		return
	}

	if err := setResponse(result, w); err != nil {
		log.WithContext(r.Context()).Errorf("latestResult: failed to set response: %v", err)
	}
}

func (h *handler) tickerNews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.news == nil {
		h.writeError(w, eventmodels.NewWebError(http.StatusServiceUnavailable, "unavailable", "no news provider configured", nil))
		return
	}

	var dto eventmodels.NewsRequestDTO
	if err := parseApiRequest(&dto, r); err != nil {
		h.writeError(w, err)
		return
	}

	req := dto.ToModel(mux.Vars(r)["symbol"], h.clock())
	if err := req.Validate(); err != nil {
		h.writeError(w, err)
		return
	}

	articles, err := h.news.FetchNews(ctx, req)
	if err != nil {
		log.WithContext(ctx).Warnf("tickerNews: failed: %v", err)
		h.writeError(w, eventmodels.NewWebError(http.StatusBadGateway, "provider", "failed to fetch news", err))
		return
	}

	resp := eventmodels.NewsResponse{Symbol: req.Symbol, News: articles}
	if err := setResponse(&resp, w); err != nil {
		log.WithContext(ctx).Errorf("tickerNews: failed to set response: %v", err)
	}
}

func (h *handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, eventmodels.NewWebError(http.StatusNotFound, "not_found", fmt.Sprintf("no route for %s", r.URL.Path), nil))
}

func (h *handler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, eventmodels.NewWebError(http.StatusMethodNotAllowed, "method_not_allowed", fmt.Sprintf("%s not allowed on %s", r.Method, r.URL.Path), nil))
}

func parseApiRequest(req eventmodels.ApiRequest, r *http.Request) error {
	if err := req.ParseHTTPRequest(r); err != nil {
		return eventmodels.NewWebError(http.StatusBadRequest, "parser", "invalid request", err)
	}

	return req.Validate(r)
}

func (h *handler) writeError(w http.ResponseWriter, err error) {
	if respErr := setErrorResponse(err, w); respErr != nil {
		log.Errorf("failed to set error response: %v", respErr)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestDurationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tmpl
			}
		}

		metrics.APIRequestDuration.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
		log.WithContext(r.Context()).Debugf("%s %s %d %s", r.Method, endpoint, rec.status, time.Since(start))
	})
}
