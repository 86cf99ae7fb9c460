// Package toolbar is a minimal debug profiler for net/http servers.
//
// A Profiler wraps an application handler. For every request it runs
// the registered data collectors once the handler has returned, stores
// their serialized state as a Profile under a fresh token, and exposes
// the token in the X-Debug-Token response header. Stored profiles and
// individual panels are served by Profiler.Handler.
package toolbar

import (
	"encoding/json"
	"net/http"
	"time"
)

// TokenHeader carries the profile token of a profiled response.
const TokenHeader = "X-Debug-Token"

// DataCollector gathers data about one request. Collect runs after the
// application handler; err is the handler's failure, if any. A
// collector is marshaled with encoding/json after a successful Collect.
type DataCollector interface {
	Name() string
	Collect(r *http.Request, resp *Response, err error) error
}

// Factory creates a fresh collector for one request.
type Factory func() DataCollector

// Decoder restores a panel from its serialized collector state and
// returns the value rendered for it.
type Decoder func(raw json.RawMessage) (any, error)

// Response describes the response written by the application handler.
type Response struct {
	Status   int           `json:"status"`
	Header   http.Header   `json:"header,omitempty"`
	Size     int64         `json:"size"`
	Duration time.Duration `json:"duration"`
}

// Profile is the stored record of one profiled request.
type Profile struct {
	Token    string        `json:"token"`
	Method   string        `json:"method"`
	URL      string        `json:"url"`
	Status   int           `json:"status"`
	Time     time.Time     `json:"time"`
	Duration time.Duration `json:"duration"`

	// Panels maps collector names to their serialized state.
	Panels map[string]json.RawMessage `json:"panels"`

	// Errors maps collector names to the error that kept them out of
	// Panels.
	Errors map[string]string `json:"errors,omitempty"`
}

// recorder captures status and size of a response.
type recorder struct {
	http.ResponseWriter
	status int
	size   int64
}

func (r *recorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.size += int64(n)
	return n, err
}

func (r *recorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func (r *recorder) response(d time.Duration) *Response {
	status := r.status
	if status == 0 {
		status = http.StatusOK
	}
	return &Response{
		Status:   status,
		Header:   r.Header().Clone(),
		Size:     r.size,
		Duration: d,
	}
}
