//go:build integration

package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/volleyscore/scoreboard/internal/domain"
)

// Login authenticates as the operator and returns the bearer token.
func (env *TestEnv) Login() string {
	env.t.Helper()
	resp := env.POST("/auth/login", map[string]string{"password": TestPassword}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		env.t.Fatalf("Login: expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		env.t.Fatalf("Login: decode: %v", err)
	}
	return result.Token
}

// CreateMatch creates a match with default teams and returns its bundle.
func (env *TestEnv) CreateMatch(token string, format int) domain.MatchBundle {
	env.t.Helper()
	resp := env.POST("/api/matches", map[string]int{"format": format}, token)
	if resp.StatusCode != http.StatusCreated {
		resp.Body.Close()
		env.t.Fatalf("CreateMatch: expected 201, got %d", resp.StatusCode)
	}
	var result struct {
		Bundle domain.MatchBundle `json:"bundle"`
	}
	DecodeJSON(env.t, resp, &result)
	return result.Bundle
}

// GET performs an unauthenticated GET request.
func (env *TestEnv) GET(path string) *http.Response {
	env.t.Helper()
	resp, err := http.Get(env.Server.URL + path)
	if err != nil {
		env.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// POST performs a POST request with optional auth token.
func (env *TestEnv) POST(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	return env.send(http.MethodPost, path, body, token)
}

// PATCH performs a PATCH request with optional auth token.
func (env *TestEnv) PATCH(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	return env.send(http.MethodPatch, path, body, token)
}

// AuthGET performs an authenticated GET request.
func (env *TestEnv) AuthGET(path, token string) *http.Response {
	env.t.Helper()
	return env.send(http.MethodGet, path, nil, token)
}

func (env *TestEnv) send(method, path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("%s %s: encode: %v", method, path, err)
		}
	}
	req, err := http.NewRequest(method, env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("%s %s: new request: %v", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}
