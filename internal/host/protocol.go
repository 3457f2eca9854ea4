// Package host models the launcher protocol: one request in, at most one
// response out, per process invocation.
package host

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var ErrBadRequest = errors.New("bad host request")

// Kind is the invocation kind chosen by the host.
type Kind string

const (
	KindResults Kind = "produce-results"
	KindAction  Kind = "run-action"
)

// Request is what the host sends for a single invocation.
type Request struct {
	Kind       Kind              `json:"kind"`
	SearchText string            `json:"searchText,omitempty"`
	Action     string            `json:"action,omitempty"`
	Args       []string          `json:"args,omitempty"`
	Form       FormValues        `json:"form,omitempty"`
	Settings   map[string]string `json:"settings,omitempty"`
}

// Setting looks up a host-provided extension setting.
func (r Request) Setting(key string) (string, bool) {
	v, ok := r.Settings[key]
	return v, ok
}

// Response carries the ordered result items for a produce-results request.
type Response struct {
	Results []Result `json:"results"`
}

// ReadRequest decodes a single request.
func ReadRequest(r io.Reader) (Request, error) {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	switch req.Kind {
	case KindResults, KindAction:
	default:
		return Request{}, fmt.Errorf("%w: unknown kind %q", ErrBadRequest, req.Kind)
	}
	if req.Kind == KindAction && req.Action == "" {
		return Request{}, fmt.Errorf("%w: run-action without action", ErrBadRequest)
	}
	return req, nil
}

// WriteResponse encodes results as the response. A nil slice is written as
// an empty list.
func WriteResponse(w io.Writer, results []Result) error {
	if results == nil {
		results = []Result{}
	}
	enc := json.NewEncoder(w)
	return enc.Encode(Response{Results: results})
}
