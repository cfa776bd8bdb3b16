package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-foreman/ordersaga/log"
	"github.com/go-foreman/ordersaga/saga"
)

// ResponseError carries the http status an error is answered with
type ResponseError struct {
	error
	status int
}

// Status returns http status code
func (e ResponseError) Status() int {
	return e.status
}

func NewResponseError(status int, err error) ResponseError {
	return ResponseError{status: status, error: err}
}

type errorBody struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

type responseWriter struct {
	body   interface{}
	status int
}

// NewResponseWriterFromError answers validation failures with 400, missing entities with 404 and the rest with 500
func NewResponseWriterFromError(err error) *responseWriter {
	status := http.StatusInternalServerError

	switch respErr, ok := err.(ResponseError); {
	case ok:
		status = respErr.Status()
	case saga.IsValidationFailure(err):
		status = http.StatusBadRequest
	case saga.IsNotFound(err):
		status = http.StatusNotFound
	}

	return &responseWriter{
		body:   errorBody{Status: status, Message: err.Error()},
		status: status,
	}
}

func NewResponseWriter(body interface{}, status int) *responseWriter {
	return &responseWriter{
		body:   body,
		status: status,
	}
}

func (rw *responseWriter) write(resp http.ResponseWriter, logger log.Logger) {
	respBody, err := json.Marshal(rw.body)
	if err != nil {
		logger.Log(log.ErrorLevel, err)
		resp.WriteHeader(http.StatusInternalServerError)
		return
	}

	resp.Header().Set("Content-Type", "application/json")

	resp.WriteHeader(rw.status)

	if _, err = resp.Write(respBody); err != nil {
		logger.Log(log.ErrorLevel, err)
	}
}
