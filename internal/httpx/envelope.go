// Package httpx shapes every response, success or failure, into the
// {data, error, meta} envelope with the service's fixed status mapping.
package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"

	"chat-service/internal/apierr"

	"github.com/gin-gonic/gin"
)

type Envelope struct {
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
	Meta  *Meta      `json:"meta,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Meta struct {
	RetryAfter int `json:"retryAfter,omitempty"` // seconds
}

// EncodeData serializes a success envelope. Mutation handlers cache these
// bytes so idempotent replays are byte-identical.
func EncodeData(data any) ([]byte, error) {
	return json.Marshal(Envelope{Data: data})
}

func statusOf(kind apierr.Kind) int {
	switch kind {
	case apierr.KindValidation:
		return http.StatusBadRequest
	case apierr.KindAuthentication:
		return http.StatusUnauthorized
	case apierr.KindNotFound:
		return http.StatusNotFound
	case apierr.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) (int, Envelope) {
	kind := apierr.KindOf(err)
	status := statusOf(kind)

	msg := publicMessage(kind)
	env := Envelope{
		Error: &ErrorBody{
			Code:    kind.String(),
			Message: msg,
		},
	}

	if kind == apierr.KindRateLimited {
		secs := int(apierr.RetryAfterOf(err).Seconds())
		if secs < 1 {
			secs = 1
		}
		env.Meta = &Meta{RetryAfter: secs}
	}

	return status, env
}

// publicMessage keeps internal detail on the server side; clients get a
// stable phrase per kind.
func publicMessage(kind apierr.Kind) string {
	switch kind {
	case apierr.KindAuthentication:
		return "unauthorized"
	case apierr.KindValidation:
		return "invalid request"
	case apierr.KindNotFound:
		return "not found"
	case apierr.KindRateLimited:
		return "too many requests"
	default:
		return "internal error"
	}
}

// WriteError shapes err for a raw net/http response writer. Middleware
// cores use this; gin handlers use Error.
func WriteError(w http.ResponseWriter, err error) {
	status, env := errorBody(err)
	if env.Meta != nil && env.Meta.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(env.Meta.RetryAfter))
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// Error shapes err through a gin context.
func Error(c *gin.Context, err error) {
	status, env := errorBody(err)
	if env.Meta != nil && env.Meta.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(env.Meta.RetryAfter))
	}
	c.JSON(status, env)
}

// OK writes a success envelope.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Data: data})
}

// OKRaw replays pre-encoded envelope bytes verbatim.
func OKRaw(c *gin.Context, body []byte) {
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}
