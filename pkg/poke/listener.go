package poke

import (
	"bufio"
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tripsync/pkg/logger"
)

// Listener holds one long-lived SSE subscription to a poke channel and
// invokes its callback once per received event. A view that changes channel
// closes its listener and opens a new one.
type Listener struct {
	url     string
	channel string
	onPoke  func()
	httpc   *http.Client
	cancel  context.CancelFunc
	done    chan struct{}
}

// Listen opens a listener on pokeURL for the given channel. onPoke fires on
// the listener's goroutine for every event; callers typically pass a func
// that triggers a replica pull (whose own re-entrancy guard coalesces
// overlapping requests). The connection is retried with capped backoff
// until Close is called.
func Listen(pokeURL, channel string, onPoke func(), httpc *http.Client) *Listener {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	ctx, cancel := context.WithCancel(context.Background())
	l := &Listener{
		url:     pokeURL,
		channel: channel,
		onPoke:  onPoke,
		httpc:   httpc,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go l.run(ctx)
	return l
}

// Channel returns the channel this listener is subscribed to.
func (l *Listener) Channel() string { return l.channel }

// Close tears down the subscription and waits for the listener goroutine
// to exit.
func (l *Listener) Close() {
	l.cancel()
	<-l.done
}

func (l *Listener) run(ctx context.Context) {
	defer close(l.done)
	backoff := 500 * time.Millisecond
	const maxBackoff = 30 * time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		ok := l.stream(ctx)
		if ctx.Err() != nil {
			return
		}
		if ok {
			// the stream delivered events before dropping; start over fast
			backoff = 500 * time.Millisecond
		}
		logger.Debug("poke_reconnect_wait", "channel", l.channel, "backoff", backoff.String())
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}

// stream runs one SSE connection to completion. It reports whether any
// event arrived, which resets the reconnect backoff.
func (l *Listener) stream(ctx context.Context) bool {
	u := l.url
	if strings.Contains(u, "?") {
		u += "&channel=" + url.QueryEscape(l.channel)
	} else {
		u += "?channel=" + url.QueryEscape(l.channel)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		logger.Error("poke_request_failed", "channel", l.channel, "error", err)
		return false
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := l.httpc.Do(req)
	if err != nil {
		logger.Debug("poke_connect_failed", "channel", l.channel, "error", err)
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		logger.Warn("poke_unexpected_status", "channel", l.channel, "status", resp.StatusCode)
		return false
	}

	got := false
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data:") {
			got = true
			l.onPoke()
		}
	}
	return got
}
