// Package baseurl resolves which backend Brandy Box should talk to: a
// LAN probe with a fallback to the public remote URL, built on the same
// req/v3 client the transport layer uses rather than a second HTTP stack.
package baseurl

import (
	"os"
	"strings"
	"time"

	"github.com/imroc/req/v3"

	"github.com/brandstaetter/brandybox/internal/config"
	"github.com/brandstaetter/brandybox/pkg/logging"
)

const (
	lanHost     = "192.168.0.150"
	backendPort = "8081"
	remoteURL   = "https://brandybox.brandstaetter.rocks"

	probeTimeout = 2 * time.Second
)

// EnvOverride is the environment variable that bypasses every other
// resolution rule.
const EnvOverride = "BRANDYBOX_BASE_URL"

// ResolveDefault calls Resolve with the real process environment.
func ResolveDefault() string {
	return Resolve(os.Getenv)
}

// Resolve returns the base URL to use, in priority order: the
// BRANDYBOX_BASE_URL environment override, config's manual-mode URL, a
// LAN probe against the well-known local host, and finally the fixed
// remote URL.
func Resolve(envLookup func(string) string) string {
	if override := strings.TrimSpace(envLookup(EnvOverride)); override != "" {
		return strings.TrimSuffix(override, "/")
	}

	cfg := config.Get()
	if cfg.BaseURLMode == config.BaseURLManual {
		return strings.TrimSuffix(cfg.BaseURL, "/")
	}

	lanURL := "http://" + lanHost + ":" + backendPort
	if probeReachable(lanURL + "/api/users/me") {
		return lanURL
	}
	return remoteURL
}

// probeReachable reports whether url answers with 200 or 401 within
// probeTimeout. A 401 still proves the server, not just some other
// service, is listening.
func probeReachable(url string) bool {
	client := req.C().SetTimeout(probeTimeout)
	resp, err := client.R().Get(url)
	if err != nil {
		logging.Logger().Debug("LAN probe failed", logging.Err(err))
		return false
	}
	status := resp.StatusCode
	return status == 200 || status == 401
}
