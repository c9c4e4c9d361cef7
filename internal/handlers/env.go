package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/unithq/cqhub-go/internal/apperrors"
	"github.com/unithq/cqhub-go/internal/auth"
	"github.com/unithq/cqhub-go/internal/clock"
	"github.com/unithq/cqhub-go/internal/database"
	"github.com/unithq/cqhub-go/internal/liberty"
	"github.com/unithq/cqhub-go/internal/middleware"
	"github.com/unithq/cqhub-go/internal/models"
	"github.com/unithq/cqhub-go/internal/notify"
	"github.com/unithq/cqhub-go/internal/schedule"
	"github.com/unithq/cqhub-go/internal/store"
	"github.com/unithq/cqhub-go/internal/weather"
)

// Env carries the process-wide dependencies the handlers share. Per-company
// stores are built per request from the pool the company middleware resolved.
type Env struct {
	JWT             *auth.JWTService
	Hub             *store.Hub
	Logger          *zap.Logger
	Weather         weather.Provider
	Push            notify.PushClient
	DefaultTimezone string
}

// companyDB fetches the company pool or writes the error response itself.
func (e *Env) companyDB(c *gin.Context) (*pgxpool.Pool, bool) {
	db, ok := middleware.GetCompanyDB(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database connection not found"})
		return nil, false
	}
	return db, true
}

// resolver builds a clock resolver in the company's configured timezone,
// falling back to the deployment default.
func (e *Env) resolver(c *gin.Context, db *pgxpool.Pool) *clock.Resolver {
	settings := database.NewSettings(db)
	tz, err := settings.GetString(c.Request.Context(), models.SettingTimezone)
	if err != nil || tz == "" {
		tz = e.DefaultTimezone
	}
	res, err := clock.NewResolver(tz)
	if err != nil {
		e.Logger.Warn("invalid company timezone, using default",
			zap.String("timezone", tz), zap.Error(err))
		res, _ = clock.NewResolver(e.DefaultTimezone)
	}
	return res
}

func (e *Env) scheduleService(db *pgxpool.Pool) *schedule.Service {
	return schedule.NewService(schedule.NewPGStore(db), e.Hub, e.Logger)
}

func (e *Env) libertyService(c *gin.Context, db *pgxpool.Pool) *liberty.Service {
	var notifier liberty.Notifier
	if e.Push != nil {
		notifier = notify.NewDispatcher(notify.NewPGStore(db), e.Push, e.resolver(c, db), e.Logger)
	}
	return liberty.NewService(liberty.NewPGStore(db), notifier, e.Hub, e.Logger)
}

func (e *Env) weatherService(db *pgxpool.Pool) *weather.Service {
	return weather.NewService(weather.NewPGStore(db), e.Weather, e.Hub, e.Logger)
}

// respondError maps the error taxonomy onto an HTTP response.
func respondError(c *gin.Context, err error) {
	c.JSON(apperrors.HTTPStatus(err), gin.H{"error": apperrors.UserMessage(err)})
}
