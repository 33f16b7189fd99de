/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package telemetry sends opt-in anonymous routing statistics and crash reports.
// Nothing leaves the machine unless CONDUIT_TELEMETRY_OPT_IN is set and an endpoint is configured.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	applog "conduitroute/internal/log"
	"conduitroute/internal/version"
)

// Environment variables read by FromEnv.
const (
	EnvOptIn     = "CONDUIT_TELEMETRY_OPT_IN"
	EnvEventsURL = "CONDUIT_TELEMETRY_URL"
	EnvCrashURL  = "CONDUIT_CRASH_UPLOAD_URL"
	EnvTimeoutMS = "CONDUIT_TELEMETRY_TIMEOUT_MS"
)

const (
	DefaultTimeout = 1500 * time.Millisecond
	queueSize      = 64
)

// Config holds endpoints and the opt-in switch.
type Config struct {
	OptIn     bool
	EventsURL string
	CrashURL  string
	Timeout   time.Duration
}

func FromEnv() Config {
	cfg := Config{
		OptIn:     parseBool(os.Getenv(EnvOptIn)),
		EventsURL: strings.TrimSpace(os.Getenv(EnvEventsURL)),
		CrashURL:  strings.TrimSpace(os.Getenv(EnvCrashURL)),
		Timeout:   DefaultTimeout,
	}
	if ms := strings.TrimSpace(os.Getenv(EnvTimeoutMS)); ms != "" {
		if v, err := time.ParseDuration(ms + "ms"); err == nil && v > 0 {
			cfg.Timeout = v
		}
	}
	return cfg
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Event is one anonymous usage record. Props must not carry model coordinates or ids.
type Event struct {
	Name    string         `json:"name"`
	Time    string         `json:"ts"`
	Version string         `json:"version"`
	OS      string         `json:"os"`
	Arch    string         `json:"arch"`
	Props   map[string]any `json:"props,omitempty"`
}

// Client queues events and posts them from a single worker. Record never blocks;
// events are dropped when the queue is full or the client is disabled.
type Client struct {
	cfg  Config
	log  *slog.Logger
	hc   *http.Client
	q    chan Event
	wg   sync.WaitGroup
	once sync.Once
	done chan struct{}
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	c := &Client{
		cfg:  cfg,
		log:  applog.WithComponent("telemetry"),
		hc:   &http.Client{Timeout: cfg.Timeout},
		q:    make(chan Event, queueSize),
		done: make(chan struct{}),
	}
	c.wg.Add(1)
	go c.loop()
	return c
}

// Enabled reports whether events would be sent.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Record queues an event named name with props.
func (c *Client) Record(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	ev := Event{
		Name:    name,
		Time:    time.Now().UTC().Format(time.RFC3339Nano),
		Version: version.String(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
	if len(props) > 0 {
		ev.Props = make(map[string]any, len(props))
		for k, v := range props {
			ev.Props[k] = v
		}
	}
	select {
	case c.q <- ev:
	default:
		c.log.Debug("telemetry queue full, event dropped", slog.String("event", name))
	}
}

// Close drains queued events, bounded by ctx, and stops the worker.
func (c *Client) Close(ctx context.Context) {
	c.once.Do(func() { close(c.done) })
	waited := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-ctx.Done():
	}
}

func (c *Client) loop() {
	defer c.wg.Done()
	for {
		select {
		case ev := <-c.q:
			c.post(c.cfg.EventsURL, "application/json", mustJSON(ev))
		case <-c.done:
			for {
				select {
				case ev := <-c.q:
					c.post(c.cfg.EventsURL, "application/json", mustJSON(ev))
				default:
					return
				}
			}
		}
	}
}

func mustJSON(ev Event) []byte {
	b, _ := json.Marshal(ev)
	return b
}

func (c *Client) post(url, contentType string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.hc.Do(req)
	if err != nil {
		c.log.Debug("telemetry post failed", slog.String("url", url), slog.Any("err", err))
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("telemetry: %s returned %s", url, resp.Status)
	}
	return nil
}

// UploadCrash posts a crash report synchronously. It is a no-op unless opted in
// with a crash URL configured. The process is usually about to exit, so the
// upload is not queued.
func (c *Client) UploadCrash(report []byte) error {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return nil
	}
	return c.post(c.cfg.CrashURL, "text/plain; charset=utf-8", report)
}

var (
	defaultClient *Client
	defaultMu     sync.Mutex
)

// Default returns the process-wide client, created from the environment on first use.
func Default() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = New(FromEnv())
	}
	return defaultClient
}

// SetDefault replaces the process-wide client.
func SetDefault(c *Client) {
	defaultMu.Lock()
	defaultClient = c
	defaultMu.Unlock()
}
