package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/unithq/cqhub-go/internal/auth"
	"github.com/unithq/cqhub-go/internal/clock"
	"github.com/unithq/cqhub-go/internal/config"
	"github.com/unithq/cqhub-go/internal/database"
	"github.com/unithq/cqhub-go/internal/handlers"
	"github.com/unithq/cqhub-go/internal/models"
	"github.com/unithq/cqhub-go/internal/notify"
	"github.com/unithq/cqhub-go/internal/store"
	"github.com/unithq/cqhub-go/internal/weather"
)

var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	path := *configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "config.yaml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()

	platformDB, err := database.NewPlatformDB(ctx, cfg.PlatformDatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to platform database", zap.Error(err))
	}
	defer platformDB.Close()

	companyDBs := database.NewCompanyDBManager(platformDB, cfg.CompanyDBPassword)
	defer companyDBs.Close()

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer)
	hub := store.NewHub()

	var push notify.PushClient
	if cfg.FCMCredentialsFile != "" {
		push, err = notify.NewFCMClient(ctx, cfg.FCMCredentialsFile)
		if err != nil {
			logger.Warn("push notifications disabled", zap.Error(err))
			push = nil
		}
	} else {
		logger.Info("no FCM credentials configured, push notifications disabled")
	}

	env := &handlers.Env{
		JWT:             jwtService,
		Hub:             hub,
		Logger:          logger,
		Weather:         weather.NewClient(cfg.WeatherBaseURL, cfg.WeatherAPIKey),
		Push:            push,
		DefaultTimezone: cfg.DefaultTimezone,
	}

	r := setupRouter(env, jwtService, companyDBs, platformDB, hub, cfg.BaseDomain)

	cronCtx, stopCron := context.WithCancel(ctx)
	defer stopCron()
	go runWeatherTrigger(cronCtx, platformDB, companyDBs, env, cfg.DefaultTimezone, logger)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logger.Info("server starting",
			zap.Int("port", cfg.Port),
			zap.String("base_domain", cfg.BaseDomain),
			zap.String("version", Version))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down")
	stopCron()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

// runWeatherTrigger ticks every minute and runs the scheduled uniform check
// for each active company. A tick only produces a recommendation when the
// current HH:MM in the company's timezone matches a configured slot time, so
// the loop is cheap the rest of the day.
func runWeatherTrigger(ctx context.Context, platformDB *database.PlatformDB, companyDBs *database.CompanyDBManager, env *handlers.Env, defaultTZ string, logger *zap.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			companies, err := platformDB.ListActiveCompanies(ctx)
			if err != nil {
				logger.Warn("weather trigger: failed to list companies", zap.Error(err))
				continue
			}
			for i := range companies {
				runCompanyWeatherCheck(ctx, &companies[i], companyDBs, env, defaultTZ, logger)
			}
		}
	}
}

func runCompanyWeatherCheck(ctx context.Context, company *models.Company, companyDBs *database.CompanyDBManager, env *handlers.Env, defaultTZ string, logger *zap.Logger) {
	db, err := companyDBs.GetCompanyDB(ctx, company)
	if err != nil {
		logger.Warn("weather trigger: failed to get company pool",
			zap.String("slug", company.Slug), zap.Error(err))
		return
	}

	settings := database.NewSettings(db)

	tz, err := settings.GetString(ctx, models.SettingTimezone)
	if err != nil || tz == "" {
		tz = defaultTZ
	}
	res, err := clock.NewResolver(tz)
	if err != nil {
		res, _ = clock.NewResolver(defaultTZ)
	}

	slotTimes, err := settings.GetStringMap(ctx, models.SettingWeatherSlotTimes)
	if err != nil {
		logger.Warn("weather trigger: failed to read slot times",
			zap.String("slug", company.Slug), zap.Error(err))
		return
	}

	loc := models.WeatherLocation{Units: "imperial"}
	if raw, err := settings.GetStringMap(ctx, models.SettingWeatherLocation); err == nil {
		if v, err := strconv.ParseFloat(raw["latitude"], 64); err == nil {
			loc.Latitude = v
		}
		if v, err := strconv.ParseFloat(raw["longitude"], 64); err == nil {
			loc.Longitude = v
		}
		if u := raw["units"]; u != "" {
			loc.Units = u
		}
	}

	uniform, err := settings.GetString(ctx, models.SettingDefaultUniform)
	if err != nil || uniform == "" {
		uniform = "ocp"
	}

	svc := weather.NewService(weather.NewPGStore(db), env.Weather, env.Hub, logger)
	rec, err := svc.RunScheduledCheck(ctx, res, slotTimes, loc, uniform)
	if err != nil {
		logger.Warn("weather trigger: scheduled check failed",
			zap.String("slug", company.Slug), zap.Error(err))
		return
	}
	if rec != nil {
		logger.Info("weather trigger: recommendation created",
			zap.String("slug", company.Slug),
			zap.String("date", rec.TargetDate),
			zap.String("slot", rec.TargetSlot),
			zap.String("uniform", rec.UniformID))
	}
}
