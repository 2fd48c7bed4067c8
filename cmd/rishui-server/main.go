// Command rishui-server exposes the licensing engine over HTTP: profile
// assessment, the active rule set, rule reloads and assessment history.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/civika/rishui/internal/report"
	"github.com/civika/rishui/pkg/rishui"
	"github.com/civika/rishui/pkg/rishui/condition"
	"github.com/civika/rishui/pkg/rishui/config"
	"github.com/civika/rishui/pkg/rishui/match"
	"github.com/civika/rishui/pkg/rishui/store"
	"github.com/civika/rishui/pkg/rishui/store/sqlite"
)

func main() {
	var (
		addr      = flag.String("addr", ":8000", "HTTP listen address")
		rulesPath = flag.String("rules", "configs/baseline_rules.json", "Path to the rules JSON file")
		lexicon   = flag.String("lexicon", "", "Optional extraction lexicon YAML")
		dbPath    = flag.String("db", "", "Optional SQLite assessment log")
		llmBase   = flag.String("llm-base", "", "Optional: OpenAI-compatible endpoint for reports")
		llmModel  = flag.String("llm-model", "", "Optional: model name for reports")
		llmAPIKey = flag.String("llm-api-key", os.Getenv("OPENAI_API_KEY"), "Optional: API key for the report endpoint")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	loader := config.Loader{LexiconPath: *lexicon, RulesPath: *rulesPath, Logger: logger}
	components, err := loader.Load()
	if err != nil {
		log.Fatalf("load configs: %v", err)
	}
	if components.Rules == nil {
		log.Fatal("--rules required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := rishui.Options{Rules: components.Rules, Logger: logger}
	var hist store.Store
	if *dbPath != "" {
		hist, err = sqlite.Open(ctx, *dbPath)
		if err != nil {
			log.Fatalf("open assessment log: %v", err)
		}
		opts.Store = hist
	}

	eng := rishui.New(opts)
	defer eng.Close()

	var reporter *report.Client
	if *llmBase != "" && *llmModel != "" {
		reporter = &report.Client{BaseURL: *llmBase, APIKey: *llmAPIKey, Model: *llmModel}
	}

	srv := &server{eng: eng, hist: hist, reporter: reporter, rulesPath: *rulesPath, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(allowCORS)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/api/assess", srv.handleAssess)
	r.Get("/api/rules", srv.handleRules)
	r.Post("/api/rules/reload", srv.handleReload)
	r.Get("/api/assessments", srv.handleHistory)

	httpSrv := &http.Server{
		Addr:              *addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Info("server listening", "addr", *addr, "rules", *rulesPath)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server: %v", err)
	}
}

type server struct {
	eng       *rishui.Engine
	hist      store.Store
	reporter  *report.Client
	rulesPath string
	logger    *slog.Logger
}

type assessRequest struct {
	Area      *float64 `json:"area"`
	Seats     *int     `json:"seats"`
	Employees int      `json:"employees"`
	Features  []string `json:"features"`
}

var knownFeatures = map[string]condition.Feature{
	string(condition.FeatureGas):         condition.FeatureGas,
	string(condition.FeatureDelivery):    condition.FeatureDelivery,
	string(condition.FeatureAlcohol):     condition.FeatureAlcohol,
	string(condition.FeatureMeatAndFish): condition.FeatureMeatAndFish,
	string(condition.FeatureHood):        condition.FeatureHood,
}

func (s *server) handleAssess(w http.ResponseWriter, r *http.Request) {
	var req assessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "גוף הבקשה אינו JSON תקין"})
		return
	}
	if req.Area == nil || req.Seats == nil || req.Features == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "חסרים שדות חובה (area, seats, features)"})
		return
	}
	if *req.Area <= 0 || *req.Seats < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "ערכי שטח או תפוסה אינם תקינים"})
		return
	}

	profile := match.Profile{Area: *req.Area, Seats: *req.Seats, Employees: req.Employees}
	for _, name := range req.Features {
		f, ok := knownFeatures[name]
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "מאפיין לא מוכר: " + name})
			return
		}
		profile.Features = append(profile.Features, f)
	}

	assessment, err := s.eng.Assess(r.Context(), profile)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	result := struct {
		*rishui.Assessment
		Report *report.Report `json:"ai_report"`
	}{Assessment: assessment}

	if s.reporter != nil {
		rep, err := s.reporter.Generate(r.Context(), profile, assessment.Checklist)
		if err != nil {
			s.logger.Warn("report generation failed, using built-in report", "error", err)
			rep = report.Basic(profile, assessment.Checklist)
		}
		result.Report = rep
	} else {
		result.Report = report.Basic(profile, assessment.Checklist)
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleRules(w http.ResponseWriter, r *http.Request) {
	st, err := s.eng.Rules()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, st.Rules())
}

func (s *server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.eng.ReloadRules(s.rulesPath); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	st, _ := s.eng.Rules()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "rules": st.Len()})
}

func (s *server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.hist == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "לא הוגדר יומן הערכות"})
		return
	}
	limit := queryInt(r, "limit", 20)
	recent, err := s.hist.RecentAssessments(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, recent)
}

// allowCORS lets browser frontends on any origin call the API.
func allowCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
