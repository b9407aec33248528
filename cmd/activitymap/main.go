package main

import (
	"context"
	"net/http"
	"os"

	// Autoloads .env file to supply environment variables
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/activitymap/activitymap/internal/cache"
	"github.com/activitymap/activitymap/internal/database"
	"github.com/activitymap/activitymap/internal/geocode"
	"github.com/activitymap/activitymap/internal/handlers/activities"
	"github.com/activitymap/activitymap/internal/handlers/activity"
	"github.com/activitymap/activitymap/internal/handlers/admin"
	"github.com/activitymap/activitymap/internal/handlers/athlete"
	"github.com/activitymap/activitymap/internal/handlers/auth"
	"github.com/activitymap/activitymap/internal/handlers/geocoding"
	"github.com/activitymap/activitymap/internal/handlers/publicity"
	"github.com/activitymap/activitymap/internal/handlers/webhook"
	"github.com/activitymap/activitymap/internal/logger"
	"github.com/activitymap/activitymap/internal/middleware"
	"github.com/activitymap/activitymap/internal/store"
	"github.com/activitymap/activitymap/internal/syncer"
)

func main() {
	log := logger.NewLogger()

	db, err := database.InitDB()
	if err != nil {
		log.WithError(err).Fatal("unable to connect to database")
	}
	s := store.New(db)

	mapbox, err := geocode.NewMapbox(nil, os.Getenv("MAPBOX_API_KEY"))
	if err != nil {
		log.WithError(err).Fatal("unable to create mapbox client")
	}
	resolver := geocode.NewResolver(s, cacheTiers(log), mapbox, log)
	sync := syncer.New(s, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/", indexHandler)
	mux.HandleFunc("/api/auth/strava", auth.LoginHandler)
	mux.HandleFunc("/api/auth/callback", auth.CallbackHandler(s))
	mux.HandleFunc("/api/auth/refresh", auth.RefreshHandler)
	mux.HandleFunc("/api/auth/check", auth.CheckHandler)
	mux.HandleFunc("/api/auth/logout", auth.LogoutHandler)
	mux.HandleFunc("/api/activities", activities.Handler(sync))
	mux.HandleFunc("/api/activity", activity.Handler(s))
	mux.HandleFunc("/api/athlete", athlete.Handler(s))
	mux.HandleFunc("/api/geocoding", geocoding.Handler(resolver))
	mux.HandleFunc("/api/publicity", publicity.Handler(s))
	mux.HandleFunc("/webhook", webhook.Handler(s, resolver))
	mux.HandleFunc("/admin/login", admin.LoginHandler)
	mux.HandleFunc("/admin/logout", admin.LogoutHandler)
	mux.Handle("/admin", middleware.RequireAdmin(admin.DashboardHandler(s)))
	mux.Handle("/admin/unsubscribe", middleware.RequireAdmin(http.HandlerFunc(admin.UnsubscribeHandler)))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.WithField("port", port).Info("starting server")
	log.Fatal(http.ListenAndServe(":"+port, mux)) //#nosec: G114
}

// cacheTiers assembles the geocode cache: always an in-process tier, plus a
// shared Redis tier when REDIS_URL is set.
func cacheTiers(log logrus.FieldLogger) cache.Cache {
	memory := cache.NewMemoryCache()

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return memory
	}

	redis, err := cache.NewRedisCache(context.Background(), redisURL)
	if err != nil {
		log.WithError(err).Warn("redis unavailable, using in-process cache only")
		return memory
	}
	return cache.NewLayered(memory, redis)
}

func indexHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := w.Write([]byte("ActivityMap")); err != nil {
		logrus.WithError(err).Warn("writing index response")
	}
}
