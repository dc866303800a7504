package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"home-energy-dashboard/internal/aggregate"
	"home-energy-dashboard/internal/simulator"
	"home-energy-dashboard/internal/suggest"
	"home-energy-dashboard/internal/telemetry"
)

// payloadWindow is the fixed trailing window the payload covers. The
// dashboard core applies its own, narrower windows on top of it.
const payloadWindow = 24 * time.Hour

// Server assembles dashboard payloads from the simulated reading history.
type Server struct {
	history *simulator.History
	logger  zerolog.Logger
	now     func() time.Time
}

// NewServer constructs a payload server over a reading history.
func NewServer(history *simulator.History, logger zerolog.Logger) *Server {
	return &Server{
		history: history,
		logger:  logger.With().Str("component", "api").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Router builds the HTTP handler: payload, health, and metrics endpoints with
// CORS and request metrics applied.
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/data", s.handleData).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	return metricsMiddleware(cors(router))
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	recent := s.history.RecentWithin(now, payloadWindow)

	// Most recent first, matching the dashboard's default ordering.
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Timestamp.After(recent[j].Timestamp)
	})

	anomalies := make([]telemetry.Anomaly, 0)
	for _, reading := range recent {
		if reading.AnomalyDetected {
			anomalies = append(anomalies, telemetry.Anomaly{
				Timestamp:      reading.Timestamp,
				DeviceID:       reading.DeviceID,
				Message:        reading.AnomalyMessage,
				ConsumptionKWH: reading.ConsumptionKWH,
			})
		}
	}

	summaries := aggregate.DailySummaries(recent)
	payload := telemetry.Payload{
		RecentReadings:      recent,
		DailySummaries:      summaries,
		Anomalies:           anomalies,
		SmartSuggestions:    suggest.Suggestions(recent, summaries, now),
		ConsumptionByDevice: aggregate.ConsumptionByDevice(recent, now, payloadWindow),
	}

	body, err := telemetry.MarshalPayload(payload)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to marshal payload")
		s.writeError(w, http.StatusInternalServerError, "Failed to retrieve or process data for API.")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":   "ok",
		"readings": s.history.Len(),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, http.StatusNotFound, "Invalid API endpoint.")
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}
