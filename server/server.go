// Package server exposes an office over HTTP: the message log, the roster
// and a Server-Sent Events stream of round progress.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/justinas/alice"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/hupe1980/agentoffice/core"
	"github.com/hupe1980/agentoffice/office"
)

// Options configures the HTTP server.
type Options struct {
	Addr   string
	Logger zerolog.Logger
	// KeepAlive is the interval of SSE comment frames on idle streams.
	KeepAlive time.Duration
}

type postMessage struct {
	Content   string `json:"content"`
	Recipient string `json:"recipient,omitempty"`
}

func (p *postMessage) Bind(*http.Request) error {
	if strings.TrimSpace(p.Content) == "" {
		return errors.New("content must not be empty")
	}
	return nil
}

type updatePersona struct {
	Persona string `json:"persona"`
}

func (p *updatePersona) Bind(*http.Request) error {
	if strings.TrimSpace(p.Persona) == "" {
		return errors.New("persona must not be empty")
	}
	return nil
}

type agentView struct {
	Name     string   `json:"name"`
	Role     string   `json:"role"`
	Tools    []string `json:"tools"`
	Observer bool     `json:"observer"`
	Busy     bool     `json:"busy"`
	Cursor   uint64   `json:"cursor"`
}

type messagesView struct {
	Messages []core.Message `json:"messages"`
	LastID   uint64         `json:"last_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server serves one office.
type Server struct {
	chat   *office.Chat
	opts   Options
	server *http.Server
}

// New creates a server for chat.
func New(chat *office.Chat, optFns ...func(o *Options)) *Server {
	opts := Options{
		Addr:      ":8080",
		Logger:    zerolog.Nop(),
		KeepAlive: 15 * time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{chat: chat, opts: opts}

	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler returns the routed handler including access logging.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(logMiddleware(s.opts.Logger))
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})

	r.Get("/agents", s.listAgents)
	r.Put("/agents/{name}/persona", s.putPersona)
	r.Get("/messages", s.listMessages)
	r.Post("/messages", s.postMessage)
	r.Post("/rounds/abort", s.abortRound)
	r.Get("/events", s.streamEvents)

	return r
}

// Start listens until Stop is called.
func (s *Server) Start() error {
	s.opts.Logger.Info().Str("addr", s.opts.Addr).Msg("http server starting")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}

	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server: %w", err)
	}

	return nil
}

func (s *Server) listAgents(w http.ResponseWriter, r *http.Request) {
	agents := s.chat.Agents()

	out := make([]agentView, len(agents))
	for i, a := range agents {
		out[i] = agentView{
			Name:     a.Name(),
			Role:     a.Role(),
			Tools:    a.Tools(),
			Observer: a.Observer(),
			Busy:     a.Busy(),
			Cursor:   s.chat.Cursor(a.Name()),
		}
	}

	render.JSON(w, r, out)
}

func (s *Server) putPersona(w http.ResponseWriter, r *http.Request) {
	req := &updatePersona{}
	if err := render.Bind(r, req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	name := chi.URLParam(r, "name")

	if err := s.chat.UpdatePersona(name, req.Persona); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, core.ErrUnknownAgent) {
			status = http.StatusNotFound
		}
		writeError(w, r, status, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	var since uint64

	if raw := r.URL.Query().Get("since"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid since: %q", raw))
			return
		}
		since = n
	}

	render.JSON(w, r, messagesView{
		Messages: s.chat.Since(since),
		LastID:   s.chat.Log().LastID(),
	})
}

// postMessage runs a full round before responding. The round is bound to
// the request context, so a client that disconnects aborts it.
func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	req := &postMessage{}
	if err := render.Bind(r, req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	res, err := s.chat.Send(r.Context(), core.Message{
		Sender:    core.HumanSender,
		Recipient: req.Recipient,
		Content:   req.Content,
	})
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, core.ErrUnknownAgent):
			status = http.StatusNotFound
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			status = http.StatusServiceUnavailable
		}
		writeError(w, r, status, err)
		return
	}

	hlog.FromRequest(r).Debug().
		Str("round_id", res.ID).
		Int("posted", len(res.Posted)).
		Msg("round finished")

	render.JSON(w, r, res)
}

func (s *Server) abortRound(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]bool{"aborted": s.chat.Abort()})
}

// streamEvents writes office events as Server-Sent Events until the client
// goes away.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	// Subscribe before the headers go out so a client that saw them does
	// not miss events.
	ctx := r.Context()
	events := s.chat.Events(ctx)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(s.opts.KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}

			data, err := json.Marshal(ev)
			if err != nil {
				hlog.FromRequest(r).Error().Err(err).Msg("encode event")
				continue
			}

			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: err.Error()})
}

func logMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	c := alice.New()
	c = c.Append(hlog.NewHandler(logger))
	c = c.Append(hlog.RemoteAddrHandler("ip"))
	c = c.Append(hlog.UserAgentHandler("user_agent"))
	c = c.Append(hlog.RequestIDHandler("req_id", "Request-Id"))
	c = c.Append(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("size", size).
			Int("status", status).
			Int64("duration_ms", duration.Milliseconds()).
			Msg("http.request")
	}))

	return c.Then
}
