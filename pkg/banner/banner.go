package banner

import (
	"fmt"
)

const banner = `
 _        _
| |_ _ __(_)_ __  ___ _   _ _ __   ___
| __| '__| | '_ \/ __| | | | '_ \ / __|
| |_| |  | | |_) \__ \ |_| | | | | (__
 \__|_|  |_| .__/|___/\__, |_| |_|\___|
           |_|        |___/
`

// Print writes the startup banner with the effective listen address,
// database path, config sources and build version.
func Print(addr, dbPath, sources, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", dbPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	if sources != "" {
		fmt.Printf("Config sources: %s\n", sources)
	}
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST /sync/push - Replay a client mutation batch (JSON: clientID, mutations)")
	fmt.Println("POST /sync/pull - Fetch the authoritative diff (JSON: clientID, cookie)")
	fmt.Println("GET  /sync/poke?channel=<ch> - Subscribe to invalidation signals (SSE)")
	fmt.Println("\n== Examples ===================================================")
	fmt.Printf("curl -X POST 'http://localhost%s/sync/pull' -d '{\"clientID\":\"c1\",\"cookie\":\"\"}'\n", addr)
	fmt.Printf("curl -N 'http://localhost%s/sync/poke?channel=user/u1'\n", addr)
}
