/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu      sync.Mutex
	events  [][]byte
	crashes [][]byte
}

func (r *recorder) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		r.mu.Lock()
		r.events = append(r.events, b)
		r.mu.Unlock()
	})
	mux.HandleFunc("/crash", func(w http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		r.mu.Lock()
		r.crashes = append(r.crashes, b)
		r.mu.Unlock()
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (r *recorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events), len(r.crashes)
}

func TestRecordAndUploadCrash(t *testing.T) {
	rec := &recorder{}
	srv := rec.server(t)
	c := New(Config{OptIn: true, EventsURL: srv.URL + "/events", CrashURL: srv.URL + "/crash", Timeout: 2 * time.Second})
	if !c.Enabled() {
		t.Fatalf("expected client to be enabled")
	}

	c.Record("route", map[string]any{"legs": 2, "fallbacks": 0})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.Close(ctx)

	events, _ := rec.counts()
	if events != 1 {
		t.Fatalf("events sent = %d, want 1", events)
	}
	var ev Event
	if err := json.Unmarshal(rec.events[0], &ev); err != nil {
		t.Fatalf("bad event json: %v", err)
	}
	if ev.Name != "route" || ev.Time == "" || ev.Props["legs"] != float64(2) {
		t.Fatalf("event = %+v", ev)
	}

	if err := c.UploadCrash([]byte("STACKTRACE")); err != nil {
		t.Fatalf("UploadCrash: %v", err)
	}
	if _, crashes := rec.counts(); crashes != 1 {
		t.Fatalf("crash uploads = %d, want 1", crashes)
	}
}

func TestDisabledClientSendsNothing(t *testing.T) {
	rec := &recorder{}
	srv := rec.server(t)

	c := New(Config{OptIn: false, EventsURL: srv.URL + "/events", CrashURL: srv.URL + "/crash"})
	if c.Enabled() {
		t.Fatalf("expected disabled client")
	}
	c.Record("ignored", nil)
	if err := c.UploadCrash([]byte("ignored")); err != nil {
		t.Fatalf("UploadCrash on disabled client: %v", err)
	}
	c.Close(context.Background())

	c2 := New(Config{OptIn: true, EventsURL: srv.URL + "/events"})
	c2.Record("", nil)
	c2.Close(context.Background())

	if events, crashes := rec.counts(); events != 0 || crashes != 0 {
		t.Fatalf("expected no requests, got %d events %d crashes", events, crashes)
	}
}

func TestUnreachableEndpointDoesNotPanic(t *testing.T) {
	c := New(Config{OptIn: true, EventsURL: "http://127.0.0.1:1/events", CrashURL: "http://127.0.0.1:1/crash", Timeout: 50 * time.Millisecond})
	c.Record("err", map[string]any{"a": 1})
	if err := c.UploadCrash([]byte("oops")); err == nil {
		t.Fatalf("expected upload error for unreachable endpoint")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	c.Close(ctx)
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvOptIn, "yes")
	t.Setenv(EnvEventsURL, " http://127.0.0.1:0 ")
	t.Setenv(EnvCrashURL, "")
	t.Setenv(EnvTimeoutMS, "100")

	cfg := FromEnv()
	if !cfg.OptIn || cfg.EventsURL != "http://127.0.0.1:0" || cfg.Timeout != 100*time.Millisecond {
		t.Fatalf("FromEnv did not parse correctly: %+v", cfg)
	}
	c := New(cfg)
	SetDefault(c)
	t.Cleanup(func() { SetDefault(nil) })
	if !Default().Enabled() {
		t.Fatalf("default client should be enabled with env config")
	}
	c.Close(context.Background())
}
