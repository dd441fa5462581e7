// Package normalize absorbs the variance of the backend's response envelopes.
//
// The backend places payloads at the top level, under "data", or under a
// named field ("user", "users", "experiences", ...). Callers pass candidate
// paths in priority order; the first one that is present wins. Body is the
// path that selects the whole response.
//
// List reads never fail: an unusable shape yields an empty slice. Single
// entity reads fail with ErrMalformedResponse.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/spotlight/internal/client/models"
	"github.com/tidwall/gjson"
)

// Body selects the whole response body as a candidate.
const Body = "@this"

var ErrMalformedResponse = errors.New("malformed response")

// Pick returns the first candidate present in body. Null values and empty
// strings count as absent.
func Pick(body []byte, paths ...string) (gjson.Result, bool) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, false
	}
	for _, p := range paths {
		r := gjson.GetBytes(body, p)
		if !r.Exists() || r.Type == gjson.Null {
			continue
		}
		if r.Type == gjson.String && r.Str == "" {
			continue
		}
		return r, true
	}
	return gjson.Result{}, false
}

// List decodes the first present candidate as a slice. Anything that is not
// an array yields an empty, non-nil slice; elements that fail to decode are
// skipped.
func List[T any](body []byte, paths ...string) []T {
	out, _ := Decode[T](body, paths...)
	return out
}

// Decode is List that also reports how many elements were skipped because
// they could not be decoded.
func Decode[T any](body []byte, paths ...string) ([]T, int) {
	out := make([]T, 0)
	r, ok := Pick(body, paths...)
	if !ok || !r.IsArray() {
		return out, 0
	}
	skipped := 0
	r.ForEach(func(_, v gjson.Result) bool {
		var item T
		if err := json.Unmarshal([]byte(v.Raw), &item); err != nil {
			skipped++
			return true
		}
		out = append(out, item)
		return true
	})
	return out, skipped
}

// Object decodes the first present candidate as a single record. An array
// collapses to its first element.
func Object[T any](body []byte, paths ...string) (T, error) {
	var v T

	r, ok := Pick(body, paths...)
	if !ok {
		return v, fmt.Errorf("%w: none of %v present", ErrMalformedResponse, paths)
	}
	if r.IsArray() {
		r = r.Get("0")
		if !r.Exists() {
			return v, fmt.Errorf("%w: empty array", ErrMalformedResponse)
		}
	}
	if !r.IsObject() {
		return v, fmt.Errorf("%w: expected object, got %s", ErrMalformedResponse, r.Type)
	}
	if err := json.Unmarshal([]byte(r.Raw), &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return v, nil
}

// One is Object for records that must carry a server-assigned id. A record
// without one is most likely an error or status envelope.
func One[T models.Entity](body []byte, paths ...string) (T, error) {
	v, err := Object[T](body, paths...)
	if err != nil {
		return v, err
	}
	if v.EntityID() == "" {
		var zero T
		return zero, fmt.Errorf("%w: record has no id", ErrMalformedResponse)
	}
	return v, nil
}

// Int returns the first present candidate as an integer.
func Int(body []byte, paths ...string) (int, bool) {
	r, ok := Pick(body, paths...)
	if !ok || r.Type != gjson.Number {
		return 0, false
	}
	return int(r.Int()), true
}

// Message extracts a human-readable message from a response body.
func Message(body []byte) string {
	r, ok := Pick(body, "message", "error.message", "error", "errors.0.msg", "errors.0")
	if !ok || r.Type != gjson.String {
		return ""
	}
	return r.Str
}

// Errors collects the validation messages of an error envelope. Elements
// may be plain strings or objects carrying "msg" or "message".
func Errors(body []byte) []string {
	r, ok := Pick(body, "errors", "error.errors")
	if !ok || !r.IsArray() {
		return nil
	}
	var out []string
	r.ForEach(func(_, v gjson.Result) bool {
		switch {
		case v.Type == gjson.String && v.Str != "":
			out = append(out, v.Str)
		case v.IsObject():
			if m, ok := Pick([]byte(v.Raw), "msg", "message"); ok && m.Type == gjson.String {
				out = append(out, m.Str)
			}
		}
		return true
	})
	return out
}

// Auth extracts the token and user of a login, register or OTP response.
// Missing parts are left empty; it is up to the caller to decide whether
// that is acceptable.
func Auth(body []byte) models.AuthResult {
	res := models.AuthResult{Message: Message(body)}

	if r, ok := Pick(body, "token", "data.token", "accessToken", "data.accessToken"); ok && r.Type == gjson.String {
		res.Token = r.Str
	}
	if u, err := One[models.User](body, "user", "data.user", "data"); err == nil {
		res.User = &u
	}
	return res
}
