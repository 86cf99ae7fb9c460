package toolbar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// DefaultPrefix is the path under which profiles are served.
const DefaultPrefix = "/_profiler"

// DefaultListLimit bounds the profile index when no limit is requested.
const DefaultListLimit = 20

// Profiler runs data collectors around an application handler.
type Profiler struct {
	prefix   string
	storage  Storage
	logger   *log.Logger
	now      func() time.Time
	newToken func() string

	names     []string
	factories map[string]Factory
	decoders  map[string]Decoder
}

// Option configures a Profiler.
type Option func(*Profiler)

// WithPrefix sets the path prefix of the profiler routes.
func WithPrefix(prefix string) Option {
	return func(p *Profiler) { p.prefix = "/" + strings.Trim(prefix, "/") }
}

// WithStorage sets the profile storage. The default is a
// MemoryStorage of DefaultCapacity profiles.
func WithStorage(s Storage) Option {
	return func(p *Profiler) { p.storage = s }
}

// WithLogger sets the logger for collector and storage failures.
func WithLogger(l *log.Logger) Option {
	return func(p *Profiler) { p.logger = l }
}

// WithCollector registers a collector factory under the name its
// collectors report. decoder may be nil, in which case the panel is
// served as stored.
func WithCollector(f Factory, decoder Decoder) Option {
	return func(p *Profiler) { p.Register(f, decoder) }
}

// New returns a profiler.
func New(opts ...Option) *Profiler {
	p := &Profiler{
		prefix:    DefaultPrefix,
		now:       time.Now,
		newToken:  uuid.NewString,
		factories: make(map[string]Factory),
		decoders:  make(map[string]Decoder),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.storage == nil {
		p.storage = NewMemoryStorage(DefaultCapacity)
	}
	if p.logger == nil {
		p.logger = log.New(io.Discard)
	}
	return p
}

// Register adds a collector factory. Registering a name twice replaces
// the earlier factory and decoder.
func (p *Profiler) Register(f Factory, decoder Decoder) {
	name := f().Name()
	if _, ok := p.factories[name]; !ok {
		p.names = append(p.names, name)
	}
	p.factories[name] = f
	if decoder != nil {
		p.decoders[name] = decoder
	} else {
		delete(p.decoders, name)
	}
}

// Prefix returns the path prefix of the profiler routes.
func (p *Profiler) Prefix() string { return p.prefix }

// Storage returns the profile storage.
func (p *Profiler) Storage() Storage { return p.storage }

// Middleware profiles every request handled by next, except requests
// for the profiler routes themselves. A panic in next is recovered,
// handed to the collectors as the request error, and re-raised once
// the profile is stored.
func (p *Profiler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p.isProfilerPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token := p.newToken()
		w.Header().Set(TokenHeader, token)
		rec := &recorder{ResponseWriter: w}
		start := p.now()

		recovered := serve(next, rec, r)

		var handlerErr error
		if recovered != nil {
			handlerErr = fmt.Errorf("handler panic: %v", recovered)
		}
		resp := rec.response(p.now().Sub(start))
		if recovered != nil && rec.status == 0 {
			resp.Status = http.StatusInternalServerError
		}

		p.profile(r, resp, handlerErr, token, start)

		if recovered != nil {
			panic(recovered)
		}
	})
}

// serve runs h and returns the value it panicked with, if any.
func serve(h http.Handler, w http.ResponseWriter, r *http.Request) (recovered any) {
	defer func() {
		recovered = recover()
	}()
	h.ServeHTTP(w, r)
	return nil
}

// profile runs fresh collectors for one request and stores the result.
func (p *Profiler) profile(r *http.Request, resp *Response, handlerErr error, token string, start time.Time) {
	prof := &Profile{
		Token:    token,
		Method:   r.Method,
		URL:      r.URL.String(),
		Status:   resp.Status,
		Time:     start,
		Duration: resp.Duration,
		Panels:   make(map[string]json.RawMessage, len(p.names)),
	}

	for _, name := range p.names {
		c := p.factories[name]()
		if err := c.Collect(r, resp, handlerErr); err != nil {
			p.logger.Warn("collector failed", "collector", name, "token", token, "err", err)
			prof.addError(name, err)
			continue
		}
		data, err := json.Marshal(c)
		if err != nil {
			p.logger.Warn("collector not serializable", "collector", name, "token", token, "err", err)
			prof.addError(name, err)
			continue
		}
		prof.Panels[name] = data
	}

	if err := p.storage.Write(context.WithoutCancel(r.Context()), prof); err != nil {
		p.logger.Error("storing profile", "token", token, "err", err)
		return
	}
	p.logger.Debug("profile stored", "token", token, "panels", len(prof.Panels))
}

func (prof *Profile) addError(name string, err error) {
	if prof.Errors == nil {
		prof.Errors = make(map[string]string)
	}
	prof.Errors[name] = err.Error()
}

func (p *Profiler) isProfilerPath(path string) bool {
	return path == p.prefix || strings.HasPrefix(path, p.prefix+"/")
}

// Handler serves stored profiles:
//
//	GET {prefix}                  recent profiles, newest first (?limit=n)
//	GET {prefix}/{token}          one profile
//	GET {prefix}/{token}/{panel}  one decoded panel
func (p *Profiler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+p.prefix, p.serveIndex)
	mux.HandleFunc("GET "+p.prefix+"/{token}", p.serveProfile)
	mux.HandleFunc("GET "+p.prefix+"/{token}/{panel}", p.servePanel)
	return mux
}

// ProfileSummary is one entry of the profile index.
type ProfileSummary struct {
	Token  string    `json:"token"`
	Method string    `json:"method"`
	URL    string    `json:"url"`
	Status int       `json:"status"`
	Time   time.Time `json:"time"`
	Panels []string  `json:"panels"`
}

func summarize(prof *Profile) ProfileSummary {
	panels := make([]string, 0, len(prof.Panels))
	for name := range prof.Panels {
		panels = append(panels, name)
	}
	sort.Strings(panels)
	return ProfileSummary{
		Token:  prof.Token,
		Method: prof.Method,
		URL:    prof.URL,
		Status: prof.Status,
		Time:   prof.Time,
		Panels: panels,
	}
}

func (p *Profiler) serveIndex(w http.ResponseWriter, r *http.Request) {
	limit := DefaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", s))
			return
		}
		limit = n
	}

	profiles, err := p.storage.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]ProfileSummary, 0, len(profiles))
	for _, prof := range profiles {
		out = append(out, summarize(prof))
	}
	writeJSON(w, http.StatusOK, out)
}

func (p *Profiler) serveProfile(w http.ResponseWriter, r *http.Request) {
	prof, ok := p.read(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, prof)
}

func (p *Profiler) servePanel(w http.ResponseWriter, r *http.Request) {
	prof, ok := p.read(w, r)
	if !ok {
		return
	}

	name := r.PathValue("panel")
	raw, found := prof.Panels[name]
	if !found {
		if msg, failed := prof.Errors[name]; failed {
			writeError(w, http.StatusNotFound, fmt.Errorf("panel %q failed: %s", name, msg))
			return
		}
		writeError(w, http.StatusNotFound, fmt.Errorf("panel %q not found", name))
		return
	}

	decode, registered := p.decoders[name]
	if !registered {
		writeJSON(w, http.StatusOK, raw)
		return
	}
	view, err := decode(raw)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("decoding panel %q: %w", name, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (p *Profiler) read(w http.ResponseWriter, r *http.Request) (*Profile, bool) {
	token := r.PathValue("token")
	prof, err := p.storage.Read(r.Context(), token)
	switch {
	case errors.Is(err, ErrProfileNotFound):
		writeError(w, http.StatusNotFound, err)
		return nil, false
	case err != nil:
		p.logger.Error("reading profile", "token", token, "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return nil, false
	}
	return prof, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
