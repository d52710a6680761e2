package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"os"
	"os/user"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/radovskyb/watcher"
	"go.uber.org/zap"
)

// Server previews a generated bundle in a browser. It stands in for the
// desktop shell: it serves the bundle, answers the username request and
// pushes reload events when the bundle changes on disk.
type Server struct {
	bundleDir string
	port      int
	logger    *zap.Logger
	senders   map[int]chan interface{}
	nextID    int
	lock      sync.Mutex
}

type reloadEvent struct {
	Type   string `json:"type"`
	Target string `json:"target"`
}

type pingEvent struct {
	Type string `json:"type"`
}

func NewServer(bundleDir string, port int, logger *zap.Logger) (*Server, error) {
	if _, err := os.Stat(filepath.Join(bundleDir, indexFile)); err != nil {
		return nil, fmt.Errorf("%s is not a bundle: %w", bundleDir, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		bundleDir: bundleDir,
		port:      port,
		logger:    logger,
		senders:   map[int]chan interface{}{},
	}, nil
}

// HostUsername is the value the bundle receives from its osUsername channel.
func HostUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	for _, env := range []string{"USER", "USERNAME"} {
		if name := os.Getenv(env); name != "" {
			return name
		}
	}
	return "player"
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
			return
		}

		c := make(chan interface{}, 10)
		s.lock.Lock()
		currentID := s.nextID
		s.senders[currentID] = c
		s.nextID++
		s.lock.Unlock()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		flusher.Flush()

		encoder := json.NewEncoder(w)
		defer func() {
			s.lock.Lock()
			defer s.lock.Unlock()
			delete(s.senders, currentID)
		}()

		for {
			select {
			case <-r.Context().Done():
				return
			case e := <-c:
				if _, err := w.Write([]byte("data: ")); err != nil {
					s.logger.Debug("event stream closed", zap.Error(err))
					return
				}
				if err := encoder.Encode(e); err != nil {
					s.logger.Debug("event stream closed", zap.Error(err))
					return
				}
				if _, err := w.Write([]byte("\n")); err != nil {
					s.logger.Debug("event stream closed", zap.Error(err))
					return
				}
				flusher.Flush()
			}
		}
	})

	r.Get("/api/username", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Content-type", "text/plain; charset=utf-8")
		w.Header().Add("Cache-control", "no-store")
		if _, err := w.Write([]byte(HostUsername())); err != nil {
			s.logger.Debug("write username", zap.Error(err))
		}
	})

	r.Get("/api/project", func(w http.ResponseWriter, r *http.Request) {
		s.serveFile(w, projectFile, "application/json")
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		s.serveFile(w, indexFile, "text/html; charset=utf-8")
	})

	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		assetPath := path.Clean("/" + chi.URLParam(r, "*"))
		s.serveFile(w, assetPath, mime.TypeByExtension(path.Ext(assetPath)))
	})
	return r
}

func (s *Server) serveFile(w http.ResponseWriter, name, contentType string) {
	// #nosec G304
	f, err := os.ReadFile(filepath.Join(s.bundleDir, filepath.FromSlash(path.Clean("/"+name))))
	if err != nil {
		if os.IsNotExist(err) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		s.logger.Error("read bundle file", zap.String("name", name), zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if contentType != "" {
		w.Header().Add("Content-type", contentType)
	}
	w.Header().Add("Cache-control", "no-store")
	if _, err := w.Write(f); err != nil {
		s.logger.Debug("write bundle file", zap.String("name", name), zap.Error(err))
	}
}

// Serve blocks serving the bundle until the listener fails.
func (s *Server) Serve() error {
	go func() {
		for {
			s.broadcast(pingEvent{Type: "ping"})
			time.Sleep(10 * time.Second)
		}
	}()

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 200 * time.Millisecond,
		Addr:              fmt.Sprintf(":%d", s.port),
	}
	return srv.ListenAndServe()
}

// Reload tells every open page to reload because target changed.
func (s *Server) Reload(target string) {
	s.broadcast(&reloadEvent{
		Type:   "reload",
		Target: target,
	})
}

func (s *Server) broadcast(e interface{}) {
	s.lock.Lock()
	defer s.lock.Unlock()
	for id, sender := range s.senders {
		select {
		case sender <- e:
		default:
			s.logger.Debug("dropping event for slow client", zap.Int("client", id))
		}
	}
}

// Watch polls the bundle directory and triggers a reload on every change
// until ctx is done.
func (s *Server) Watch(ctx context.Context, interval time.Duration) error {
	w := watcher.New()
	w.SetMaxEvents(1)
	w.FilterOps(watcher.Write, watcher.Create, watcher.Remove, watcher.Rename)
	if err := w.AddRecursive(s.bundleDir); err != nil {
		return fmt.Errorf("watch bundle: %w", err)
	}

	go func() {
		<-ctx.Done()
		w.Wait()
		w.Close()
	}()
	go func() {
		for {
			select {
			case e := <-w.Event:
				rel, err := filepath.Rel(s.bundleDir, e.Path)
				if err != nil {
					rel = e.Path
				}
				s.logger.Info("bundle changed", zap.String("path", rel), zap.String("op", e.Op.String()))
				s.Reload(filepath.ToSlash(rel))
			case err := <-w.Error:
				s.logger.Warn("watcher error", zap.Error(err))
			case <-w.Closed:
				return
			}
		}
	}()
	return w.Start(interval)
}
