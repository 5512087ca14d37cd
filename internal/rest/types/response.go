// Package types defines the uniform response envelope of the REST API.
package types

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Skipped *int   `json:"skipped,omitempty"`
	// Redirect is set on 401 responses that should send the client to the
	// login endpoint.
	Redirect string `json:"redirect,omitempty"`
}

// Ok wraps data in a success envelope.
func Ok(data any) Response {
	return Response{Success: true, Data: data}
}

// OkCount wraps data plus its count in a success envelope.
func OkCount(data any, count int) Response {
	return Response{Success: true, Data: data, Count: &count}
}

// OkBatch wraps batch data plus resolved/skipped counters.
func OkBatch(data any, count, skipped int) Response {
	return Response{Success: true, Data: data, Count: &count, Skipped: &skipped}
}

// Error wraps a failure message.
func Error(message string) Response {
	return Response{Success: false, Message: message}
}
