// Command health-fasthttp is a standalone liveness responder for load
// balancers that probe a sidecar port rather than the sync server itself.
// It deliberately knows nothing about the daemon's store: Pebble holds a
// single-process lock on the data directory, so a probe that opened the
// database would steal it from the daemon it is meant to watch. Readiness
// of the store is the daemon's own /healthz; this binary only answers
// "the host is up" with its version and uptime.
package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

func main() {
	addr := flag.String("addr", ":8081", "listen address for the health probe")
	ver := flag.String("version", "dev", "version string to return")
	flag.Parse()

	started := time.Now()
	h := func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/health", "/healthz":
			ctx.Response.Header.Set("Content-Type", "application/json")
			ctx.SetStatusCode(fasthttp.StatusOK)
			// keep the handler lean: the probe measures liveness, not work
			_, _ = ctx.WriteString(fmt.Sprintf("{\"status\":\"ok\",\"version\":\"%s\",\"uptime_seconds\":%d}",
				*ver, int64(time.Since(started).Seconds())))
		default:
			ctx.SetStatusCode(fasthttp.StatusNotFound)
		}
	}

	fmt.Printf("health probe listening on %s\n", *addr)
	srv := &fasthttp.Server{
		Handler:            h,
		Name:               "tripsync-health",
		ReadTimeout:        5 * time.Second,
		WriteTimeout:       5 * time.Second,
		MaxRequestBodySize: 1 << 20,
	}
	if err := srv.ListenAndServe(*addr); err != nil {
		fmt.Printf("health server exit: %v\n", err)
	}
}
