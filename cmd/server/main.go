package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/dpup/prefab"
	"github.com/dpup/prefab/logging"
	"github.com/joho/godotenv"

	"github.com/dpup/saferoute/server/internal/cache"
	"github.com/dpup/saferoute/server/internal/clients/nominatim"
	"github.com/dpup/saferoute/server/internal/config"
	"github.com/dpup/saferoute/server/internal/lib/incident"
	"github.com/dpup/saferoute/server/internal/lib/zones"
	"github.com/dpup/saferoute/server/internal/services"
)

func main() {
	// A missing .env is normal outside local development
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	appConfig := loadConfig()
	ctx := logging.EnsureLogger(context.Background())

	cacheInstance := cache.NewCache()
	cacheInstance.StartPeriodicCleanup(ctx, time.Minute)

	geocoder := nominatim.NewClient(appConfig.Geocoding.BaseURL, appConfig.Geocoding.UserAgent, appConfig.Geocoding.Limit).
		WithMinInterval(appConfig.Geocoding.MinInterval).
		WithCache(cache.NewGeocodeCacheAdapter(cacheInstance, appConfig.Geocoding.CacheTTL))

	registry := zones.NewRegistry()
	if appConfig.Zones.SeedDemo {
		registry.ReplaceAll(zones.SeedAround(appConfig.Zones.SeedCenter, time.Now()))
	}
	incidents := incident.NewStore(registry)

	sessions := services.NewSessionStore(appConfig.Sessions.IdleTimeout, time.Now)
	reaper := services.NewSessionReaper(sessions, appConfig.Sessions.ReapInterval)
	reaper.Start(ctx)
	defer reaper.Stop()

	navigationService := services.NewNavigationService(appConfig.Navigation, registry, incidents, cacheInstance, geocoder, sessions)
	router := services.NewRouter(navigationService, services.NewPositionStream(navigationService))

	log.Printf("SafeRoute API server starting")
	log.Printf("Risk zones loaded: %d", registry.Len())

	// Server configuration (port, etc.) is loaded from prefab.yaml/env vars
	server := prefab.New(
		prefab.WithHTTPHandlerFunc(services.APIPrefix+"/", router.ServeHTTP),
		prefab.WithHTTPHandlerFunc("/", homepageHandler),
	)

	// Start the server (blocks until shutdown)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadConfig starts from the defaults and overlays each section found in
// prefab.yaml and PF__ environment variables
func loadConfig() *config.Config {
	appConfig := config.DefaultConfig()

	sections := map[string]interface{}{
		"navigation": &appConfig.Navigation,
		"zones":      &appConfig.Zones,
		"geocoding":  &appConfig.Geocoding,
		"sessions":   &appConfig.Sessions,
	}
	for key, section := range sections {
		if err := prefab.Config.Unmarshal(key, section); err != nil {
			log.Fatalf("Failed to unmarshal %s section: %v", key, err)
		}
	}

	if err := appConfig.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return appConfig
}

// homepageHandler serves a simple HTML homepage at the server root
func homepageHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	html := `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>SafeRoute</title>
    <style>
        body {
            font-family: 'Courier New', Consolas, monospace;
            background: #000;
            color: #0f0;
            padding: 20px;
            line-height: 1.4;
        }
        a { color: #0ff; text-decoration: none; }
        a:hover { text-decoration: underline; }
        pre { margin: 0; }
        .header { color: #ff0; }
    </style>
</head>
<body>
<pre>
<span class="header">SafeRoute</span>

Safety-aware walking navigation: scored route options, turn-by-turn
guidance and risk zone warnings.

<span class="header">API Endpoints:</span>

Routes:
  POST /api/v1/routes                      - Safest, balanced and fastest routes
Zones:
  <a href="/api/v1/zones">GET  /api/v1/zones</a>                       - Known risk zones
  POST /api/v1/zones                       - Add a risk zone
  <a href="/api/v1/zones.kml">GET  /api/v1/zones.kml</a>                   - Risk zones as KML
Incidents:
  <a href="/api/v1/incidents">GET  /api/v1/incidents</a>                   - Reported incidents
  POST /api/v1/incidents                   - Report an incident
  POST /api/v1/incidents/{id}/upvote       - Confirm an incident
Navigation:
  POST   /api/v1/sessions                  - Start navigating a route
  GET    /api/v1/sessions/{id}             - Session state
  POST   /api/v1/sessions/{id}/position    - Location update
  POST   /api/v1/sessions/{id}/dismiss     - Dismiss the current warning
  PUT    /api/v1/sessions/{id}/voice       - Voice guidance on/off
  GET    /api/v1/sessions/{id}/stream      - WebSocket position stream
  DELETE /api/v1/sessions/{id}             - Stop navigating
Places:
  GET /api/v1/places?q=...&amp;lat=..&amp;lng=..    - Destination search
  GET /api/v1/places/reverse?lat=..&amp;lng=..   - Reverse geocoding
Diagnostics:
  <a href="/api/v1/status">GET /api/v1/status</a>                       - Cache, zone and session state
</pre>
</body>
</html>`

	if _, err := fmt.Fprint(w, html); err != nil {
		slog.Error("Failed to write homepage HTML", "error", err)
	}
}
