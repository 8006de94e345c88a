// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"github.com/dposlab/bbpelect/builtin/reverts"
	"github.com/dposlab/bbpelect/chain"
)

type httpError struct {
	cause  error
	status int
}

func (e *httpError) Error() string {
	return e.cause.Error()
}

func HTTPError(cause error, status int) error {
	return &httpError{
		cause:  cause,
		status: status,
	}
}

func BadRequest(cause error) error {
	return &httpError{
		cause:  cause,
		status: http.StatusBadRequest,
	}
}

func NotFound(what string) error {
	return &httpError{
		cause:  errors.New(what + " not found"),
		status: http.StatusNotFound,
	}
}

type HandlerFunc func(http.ResponseWriter, *http.Request) error

// WrapHandlerFunc maps returned errors to status codes. Consistency reverts are server faults,
// other reverts are client faults.
func WrapHandlerFunc(f HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := f(w, r)
		if err == nil {
			return
		}
		var he *httpError
		switch {
		case errors.As(err, &he):
			if he.cause != nil {
				http.Error(w, he.cause.Error(), he.status)
			} else {
				w.WriteHeader(he.status)
			}
		case reverts.IsRevertErr(err) && !reverts.IsConsistency(err):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

const (
	JSONContentType = "application/json; charset=utf-8"
)

// ParseJSON parse a JSON object using strict mode.
func ParseJSON(r io.Reader, v any) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func WriteJSON(w http.ResponseWriter, obj any) error {
	w.Header().Set("Content-Type", JSONContentType)
	return json.NewEncoder(w).Encode(obj)
}

// ParseName parses an account name path or query parameter.
func ParseName(s string) (chain.Name, error) {
	name, err := chain.ParseName(s)
	if err != nil || name.IsEmpty() {
		return 0, BadRequest(errors.Errorf("invalid account name %q", s))
	}
	return name, nil
}

// ParseInt parses an optional non-negative integer query parameter, def when absent.
func ParseInt(s string, def, max int64) (int64, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0, BadRequest(errors.Errorf("invalid number %q", s))
	}
	if max > 0 && v > max {
		return 0, BadRequest(errors.Errorf("%d exceeds limit %d", v, max))
	}
	return v, nil
}

type M map[string]any
