// Package control exposes the controller over HTTP so an operator UI can
// start and stop gaits and move the sensor mast.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/bft-labs/slither/internal/domain"
	"github.com/bft-labs/slither/internal/ports"
	"github.com/bft-labs/slither/pkg/slither"
)

// DefaultPoseTimeout bounds a pose request, including its settle delay.
const DefaultPoseTimeout = 10 * time.Second

// Controller is the part of *slither.Controller the server drives.
type Controller interface {
	Start(gait slither.GaitKind) (slither.SessionInfo, error)
	Stop() error
	SetPose(ctx context.Context, name string) error
	Status() slither.Status
	Poses() []string
}

// Server routes HTTP triggers to a Controller.
type Server struct {
	ctrl        Controller
	logger      ports.Logger
	poseTimeout time.Duration

	// poseDone is signalled when an asynchronous pose finishes. Tests use it.
	poseDone func(name string, err error)
}

// NewServer creates a Server.
func NewServer(ctrl Controller, logger ports.Logger) *Server {
	return &Server{
		ctrl:        ctrl,
		logger:      logger,
		poseTimeout: DefaultPoseTimeout,
	}
}

// SessionResponse is the JSON form of a session.
type SessionResponse struct {
	ID        string    `json:"id"`
	Gait      string    `json:"gait"`
	Endpoint  string    `json:"endpoint"`
	StartedAt time.Time `json:"started_at"`
}

// StatusResponse is returned by GET /status and by the start/stop routes.
type StatusResponse struct {
	State   string           `json:"state"`
	Session *SessionResponse `json:"session,omitempty"`
	Frames  uint64           `json:"frames"`
	Message string           `json:"message,omitempty"`
}

// ServeMux returns the route table.
//
// The underscore routes mirror the legacy operator page; /start/{gait}
// and /pose/{name} are the general forms.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.showStatus)
	mux.HandleFunc("/stop", s.stop)
	mux.HandleFunc("/start/{gait}", s.start)
	mux.HandleFunc("/pose/{name}", s.pose)
	mux.HandleFunc("/poses", s.listPoses)

	mux.HandleFunc("/start_serpentine", s.startKind(slither.Serpentine))
	mux.HandleFunc("/start_sidewinding", s.startKind(slither.Sidewinding))
	mux.HandleFunc("/lower_sensor", s.poseAsync("lower_sensor"))
	mux.HandleFunc("/raise_sensor", s.poseAsync("raise_sensor"))
	return mux
}

// Handler returns the route table wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return s.loggingMiddleware(s.ServeMux())
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("control server listening", ports.String("addr", ln.Addr().String()))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("control server shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("control server listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) showStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.status(""))
}

func (s *Server) start(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	kind, err := slither.ParseGaitKind(r.PathValue("gait"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.startKind(kind)(w, r)
}

func (s *Server) listPoses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"poses": s.ctrl.Poses()})
}

func (s *Server) startKind(kind slither.GaitKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		if _, err := s.ctrl.Start(kind); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, s.status(fmt.Sprintf("%s started", kind)))
	}
}

func (s *Server) stop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	msg := "stop requested"
	if err := s.ctrl.Stop(); err != nil {
		if !errors.Is(err, slither.ErrNotRunning) {
			s.writeError(w, err)
			return
		}
		msg = "not running"
	}
	s.writeJSON(w, http.StatusOK, s.status(msg))
}

// pose sends the pose and reports the outcome.
func (s *Server) pose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	name := r.PathValue("name")

	ctx, cancel := context.WithTimeout(r.Context(), s.poseTimeout)
	defer cancel()
	if err := s.ctrl.SetPose(ctx, name); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"pose": name, "status": "sent"})
}

// poseAsync answers immediately and sends the pose in the background.
func (s *Server) poseAsync(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.poseTimeout)
			defer cancel()
			err := s.ctrl.SetPose(ctx, name)
			if err != nil {
				s.logger.Error("pose failed", ports.String("pose", name), ports.Err(err))
			}
			if s.poseDone != nil {
				s.poseDone(name, err)
			}
		}()
		s.writeJSON(w, http.StatusAccepted, map[string]string{"pose": name, "status": "accepted"})
	}
}

func (s *Server) status(msg string) StatusResponse {
	st := s.ctrl.Status()
	resp := StatusResponse{
		State:   st.State.String(),
		Frames:  st.Frames,
		Message: msg,
	}
	if st.Session != nil {
		resp.Session = &SessionResponse{
			ID:        st.Session.ID,
			Gait:      string(st.Session.Gait),
			Endpoint:  st.Session.Endpoint,
			StartedAt: st.Session.StartedAt,
		}
	}
	return resp
}

// statusFor maps controller errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrAlreadyRunning):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnknownGait), errors.Is(err, domain.ErrUnknownPose):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConnection):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSONError(w, statusFor(err), err.Error())
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response failed", ports.Err(err))
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs method, path, status, and duration.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		s.logger.Info("http request",
			ports.String("method", r.Method),
			ports.String("path", r.URL.Path),
			ports.Int("status", lrw.statusCode),
			ports.Duration("duration", time.Since(start)),
		)
	})
}
