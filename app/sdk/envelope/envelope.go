// Package envelope wraps successful responses under a data key.
package envelope

import (
	"encoding/json"
	"net/http"
)

// Response is the success body returned by every handler.
type Response[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
	status  int
}

// New constructs a 200 response.
func New[T any](data T) Response[T] {
	return Response[T]{Data: data, status: http.StatusOK}
}

// NewWithMessage constructs a 200 response carrying a human message.
func NewWithMessage[T any](data T, msg string) Response[T] {
	return Response[T]{Data: data, Message: msg, status: http.StatusOK}
}

// Created constructs a 201 response.
func Created[T any](data T) Response[T] {
	return Response[T]{Data: data, status: http.StatusCreated}
}

// Encode implements the web.Encoder interface.
func (r Response[T]) Encode() ([]byte, string, error) {
	data, err := json.Marshal(r)
	return data, "application/json", err
}

// HTTPStatus implements the web package httpStatus interface.
func (r Response[T]) HTTPStatus() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// WithMessage returns a copy of the response carrying a human message.
func (r Response[T]) WithMessage(msg string) Response[T] {
	r.Message = msg
	return r
}
