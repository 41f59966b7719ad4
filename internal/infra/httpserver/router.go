package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appanalysis "github.com/deepfraud/deepfraud/internal/application/analysis"
	apprecords "github.com/deepfraud/deepfraud/internal/application/records"
	appsession "github.com/deepfraud/deepfraud/internal/application/session"
	appstats "github.com/deepfraud/deepfraud/internal/application/stats"
	domain "github.com/deepfraud/deepfraud/internal/domain/analysis"
	sessiondomain "github.com/deepfraud/deepfraud/internal/domain/session"
	"github.com/deepfraud/deepfraud/internal/middleware"
)

type Router struct {
	analysisSvc *appanalysis.Service
	records     *apprecords.Facade
	sessions    *appsession.Service
	poller      *appstats.Poller
	log         *zap.Logger
}

// RateLimit settings for the inference-bound analyze route.
const (
	analyzeRateCapacity = 10
	analyzeRateRefill   = 1
)

func NewRouter(analysisSvc *appanalysis.Service, records *apprecords.Facade, sessions *appsession.Service, poller *appstats.Poller, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Router{analysisSvc: analysisSvc, records: records, sessions: sessions, poller: poller, log: log}
	mux := chi.NewRouter()

	mux.Route("/v1", func(rt chi.Router) {
		rt.Route("/auth", func(rt chi.Router) {
			rt.Post("/login", r.wrap(r.handleLogin))
			rt.Post("/register", r.wrap(r.handleRegister))
			rt.Post("/federated", r.wrap(r.handleFederated))
			rt.Post("/logout", r.wrap(r.handleLogout))
			rt.Get("/session", r.wrap(r.handleRecoverSession))
		})

		rt.Group(func(rt chi.Router) {
			rt.Use(middleware.SessionAuth(r.sessions))

			rt.With(middleware.RateLimit(analyzeRateCapacity, analyzeRateRefill)).
				Post("/analyze", r.wrap(r.handleAnalyze))

			rt.Get("/records", r.wrap(r.handleListRecords))
			rt.Delete("/records", r.wrap(r.handleClearRecords))

			rt.Get("/stats/summary", r.wrap(r.handleSummary))
			rt.Get("/stats/series", r.wrap(r.handleSeries))
			rt.Get("/stats/stream", r.handleStream)
		})
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps the domain error taxonomy onto HTTP statuses. Authentication
// errors surface as user-visible messages; everything else collapses to 500.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		switch {
		case errors.Is(err, sessiondomain.ErrInvalidCredentials):
			jsonError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
		case errors.Is(err, sessiondomain.ErrAlreadyRegistered):
			jsonError(w, http.StatusConflict, "already_registered", "An account with this email already exists")
		case errors.Is(err, sessiondomain.ErrConfirmationRequired):
			// Not a failure: the operator must confirm their email and
			// come back to the login form.
			jsonError(w, http.StatusForbidden, "confirmation_required",
				"Registration accepted. Confirm your email, then sign in.")
		case errors.Is(err, sessiondomain.ErrDomainNotAuthorized):
			jsonError(w, http.StatusForbidden, "domain_not_authorized",
				err.Error()+". Add this deployment's domain to the identity provider's authorized list.")
		case errors.Is(err, sessiondomain.ErrProviderUnavailable):
			jsonError(w, http.StatusServiceUnavailable, "provider_unavailable", "Identity provider unavailable")
		default:
			r.log.Error("handler error", zap.String("path", req.URL.Path), zap.Error(err))
			jsonError(w, http.StatusInternalServerError, "internal", err.Error())
		}
	}
}

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code})
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

// POST /v1/auth/login
func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}
	sess, err := r.sessions.Login(req.Context(), body.Username, body.Password)
	if err != nil {
		return err
	}
	return writeJSON(w, sess)
}

// POST /v1/auth/register
func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}
	sess, err := r.sessions.Register(req.Context(), body.Email, body.Password)
	if err != nil {
		return err
	}
	w.WriteHeader(http.StatusCreated)
	return json.NewEncoder(w).Encode(sess)
}

// POST /v1/auth/federated
func (r *Router) handleFederated(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		ProviderToken string `json:"provider_token"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}
	sess, err := r.sessions.LoginFederated(req.Context(), body.ProviderToken)
	if err != nil {
		return err
	}
	return writeJSON(w, sess)
}

// POST /v1/auth/logout
func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) error {
	if err := r.sessions.Logout(req.Context()); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /v1/auth/session
// Session recovery at startup: 200 with the reconciled session, 204 when
// there is none.
func (r *Router) handleRecoverSession(w http.ResponseWriter, req *http.Request) error {
	sess, err := r.sessions.RecoverSession(req.Context())
	if err != nil {
		return err
	}
	if sess == nil {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
	return writeJSON(w, sess)
}

// POST /v1/analyze
// Multipart: file + media_type fields. JSON: {"text": "..."} for pasted text.
// Always answers 200 with a well-formed result; gateway failures arrive as
// the UNKNOWN-verdict sentinel, never as an error status.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	in, err := parseAnalyzeRequest(req)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "bad_request", err.Error())
		return nil
	}

	res := r.analysisSvc.Analyze(req.Context(), in)
	middleware.IncrementAnalyses()
	if res.Verdict == domain.VerdictUnknown {
		middleware.IncrementGatewayFailures()
	}

	// Persist through the fallback chain; storage trouble is not the
	// operator's problem as long as any backend accepted the record.
	if err := r.records.Create(req.Context(), res); err != nil {
		r.log.Error("persisting analysis record failed everywhere", zap.Error(err))
	}

	return writeJSON(w, res)
}

func parseAnalyzeRequest(req *http.Request) (domain.Input, error) {
	ct := req.Header.Get("Content-Type")

	if len(ct) >= 19 && ct[:19] == "multipart/form-data" {
		if err := req.ParseMultipartForm(middleware.MaxUploadBytes); err != nil {
			return domain.Input{}, fmt.Errorf("parsing upload: %w", err)
		}
		mediaType, err := middleware.ValidateMediaType(req.FormValue("media_type"))
		if err != nil {
			return domain.Input{}, err
		}
		file, header, err := req.FormFile("file")
		if err != nil {
			return domain.Input{}, fmt.Errorf("missing file field: %w", err)
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, middleware.MaxUploadBytes+1))
		if err != nil {
			return domain.Input{}, fmt.Errorf("reading upload: %w", err)
		}
		mime := header.Header.Get("Content-Type")
		if err := middleware.ValidateUpload(mediaType, data, mime); err != nil {
			return domain.Input{}, err
		}
		return domain.Input{
			MediaType: mediaType,
			MIME:      mime,
			Data:      data,
			FileName:  header.Filename,
		}, nil
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return domain.Input{}, fmt.Errorf("decoding request: %w", err)
	}
	if err := middleware.ValidateText(body.Text); err != nil {
		return domain.Input{}, err
	}
	return domain.Input{MediaType: domain.MediaText, Text: body.Text}, nil
}

// GET /v1/records
func (r *Router) handleListRecords(w http.ResponseWriter, req *http.Request) error {
	list, err := r.records.List(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}

// DELETE /v1/records
func (r *Router) handleClearRecords(w http.ResponseWriter, req *http.Request) error {
	if err := r.records.Clear(req.Context()); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /v1/stats/summary
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	list, err := r.records.List(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, appstats.Summarize(list))
}

// GET /v1/stats/series?max_points=20
func (r *Router) handleSeries(w http.ResponseWriter, req *http.Request) error {
	maxPoints, _ := strconv.Atoi(req.URL.Query().Get("max_points"))
	list, err := r.records.List(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, appstats.ChartSeries(list, maxPoints))
}

// GET /v1/stats/stream
// Server-sent events: one stats snapshot every poll interval for the
// lifetime of the connection. The subscription is torn down with the
// request context, so no timer outlives the consumer.
func (r *Router) handleStream(w http.ResponseWriter, req *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := r.poller.Subscribe(req.Context())
	defer sub.Stop()

	for snap := range sub.C {
		payload, err := json.Marshal(snap)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "event: stats\ndata: %s\n\n", payload)
		flusher.Flush()
	}
}
