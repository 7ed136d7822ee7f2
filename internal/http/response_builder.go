// Package http serves the JSON API.
//
// Every response body is an envelope: the payload under "data" plus a list
// of notifications the client shows to the user. A write that succeeded
// with a partial failure is still a 2xx carrying a warning notification.
package http

import (
	"encoding/json"
	"net/http"
)

type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

type Notification struct {
	Type    NotificationType `json:"type"`
	Message string           `json:"message"`
}

// Envelope is the body of every API response.
type Envelope struct {
	Data          any            `json:"data,omitempty"`
	Notifications []Notification `json:"notifications"`
}

// ResponseBuilder assembles an envelope, its status and headers.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	envelope   Envelope
}

func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
		envelope:   Envelope{Notifications: []Notification{}},
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Data(v any) *ResponseBuilder {
	b.envelope.Data = v
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *ResponseBuilder) Notify(t NotificationType, message string) *ResponseBuilder {
	b.envelope.Notifications = append(b.envelope.Notifications, Notification{Type: t, Message: message})
	return b
}

func (b *ResponseBuilder) Success(message string) *ResponseBuilder {
	return b.Notify(NotificationSuccess, message)
}

// Warnings adds one warning notification per message.
func (b *ResponseBuilder) Warnings(messages ...string) *ResponseBuilder {
	for _, m := range messages {
		b.Notify(NotificationWarning, m)
	}
	return b
}

func (b *ResponseBuilder) Error(message string) *ResponseBuilder {
	return b.Notify(NotificationError, message)
}

func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if b.statusCode == http.StatusNoContent {
		return
	}
	_ = json.NewEncoder(w).Encode(b.envelope)
}

// ErrorResponse is an envelope with a single error notification.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).Error(message)
}
