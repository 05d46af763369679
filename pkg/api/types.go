// Package api exposes the analytics service over HTTP.
//
// Routes are registered on a gorilla/mux router. Every response body is JSON
// and failures are reported as {"error": "..."} with a status derived from
// the error: 400 for rejected input, 404 for missing records and snapshots,
// 500 for everything else.
package api

import (
	"time"
)

// Config contains HTTP server settings.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the stock server settings.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// profileRequest is the body of PUT /v1/users/{userID}/profile.
type profileRequest struct {
	DailyGoalML int    `json:"daily_goal_ml"`
	IsPremium   bool   `json:"is_premium"`
	TimeZone    string `json:"time_zone,omitempty"`
}
