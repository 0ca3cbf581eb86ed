package pkg

import (
	"fmt"

	"apartment-finder/internal/app/config"
	"apartment-finder/internal/app/handler"
	"apartment-finder/internal/app/middleware"
	"apartment-finder/internal/app/scheduler"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Application struct {
	Config    *config.Config
	Router    *gin.Engine
	Handler   *handler.Handler
	Auth      *middleware.AuthMiddleware
	Broker    *middleware.TenantBroker
	Scheduler *scheduler.Scheduler
}

func NewApp(c *config.Config, r *gin.Engine, h *handler.Handler, auth *middleware.AuthMiddleware, broker *middleware.TenantBroker, sched *scheduler.Scheduler) *Application {
	return &Application{
		Config:    c,
		Router:    r,
		Handler:   h,
		Auth:      auth,
		Broker:    broker,
		Scheduler: sched,
	}
}

func (a *Application) RunApp() {
	logrus.Info("Server start up")

	a.Handler.RegisterRoutes(a.Router, a.Auth, a.Broker)

	if a.Scheduler != nil {
		if err := a.Scheduler.Start(); err != nil {
			logrus.WithError(err).Error("не удалось запустить планировщик курсов")
		}
	}

	serverAddress := fmt.Sprintf("%s:%d", a.Config.ServiceHost, a.Config.ServicePort)
	logrus.Infof("Starting server on %s", serverAddress)

	if err := a.Router.Run(serverAddress); err != nil {
		logrus.Fatal(err)
	}

	logrus.Info("Server down")
}
