package application

import (
	"log"
	"net/http"
	"time"

	"github.com/atosab2b/catalog-export/configs"
	authPkg "github.com/atosab2b/catalog-export/internal/auth"
	"github.com/atosab2b/catalog-export/internal/catalog"
	redisdb "github.com/atosab2b/catalog-export/internal/database/redis"
	"github.com/atosab2b/catalog-export/internal/email"
	"github.com/atosab2b/catalog-export/internal/email/mailjet"
	"github.com/atosab2b/catalog-export/internal/email/smtp"
	"github.com/atosab2b/catalog-export/internal/export"
	"github.com/atosab2b/catalog-export/internal/groups"
	"github.com/atosab2b/catalog-export/internal/scheduler"
	"github.com/atosab2b/catalog-export/pkg/auth"
	"github.com/atosab2b/catalog-export/pkg/rest"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Application struct {
	Config configs.Configs
	Logger *zap.Logger
	Repo   groups.Repository
	Redis  *redisdb.Client
}

func (app *Application) Mount() http.Handler {
	mailer := app.buildMailer()

	e := echo.New()
	e.HTTPErrorHandler = app.CustomErrorHandler
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"https://webb2b.netlify.app", "http://localhost:3000"},
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
		},
		AllowCredentials: true,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogLatency:  true,
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {

			status := v.Status
			if v.Error != nil {
				switch err := v.Error.(type) {
				case *echo.HTTPError:
					status = err.Code
				case *rest.ApiErr:
					status = err.Code
				}
			}

			if status >= 500 {
				app.Logger.Error("request",
					zap.Duration("latency", v.Latency),
					zap.Int("status", status),
					zap.String("uri", v.URI),
					zap.String("method", v.Method),
				)
				return nil
			}

			if status >= 400 {
				app.Logger.Warn("request",
					zap.Duration("latency", v.Latency),
					zap.Int("status", status),
					zap.String("uri", v.URI),
					zap.String("method", v.Method),
				)
				return nil
			}

			app.Logger.Info("request",
				zap.Duration("latency", v.Latency),
				zap.Int("status", status),
				zap.String("uri", v.URI),
				zap.String("method", v.Method),
			)
			return nil
		},
	}))

	jwtConfig := echojwt.Config{
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(auth.JWTCustomClaims)
		},
		SigningKey:  []byte(app.Config.JWTSecret),
		TokenLookup: "header:Authorization",
	}

	// Initialize services and handlers
	catalogClient := catalog.NewClient(app.Config.CatalogBaseURL, app.Config.CatalogTLSSkipVerify, app.Logger)

	groupService := groups.NewService(app.Repo, app.Logger)
	groupHandler := groups.NewHandler(groupService)

	registry := export.NewRegistry(app.Logger)
	exportService := export.NewService(registry, catalogClient, groupService, app.buildCredentials(), mailer, app.Logger)
	exportHandler := export.NewHandler(exportService)

	tokenRepo := authPkg.NewTokenRepository(app.Redis.Client)
	authService := authPkg.NewService(
		tokenRepo,
		app.Config.AdminPasswordHash,
		app.Config.JWTSecret,
		app.Config.AccessTokenExp,
		app.Config.RefreshTokenExp,
	)
	authHandler := authPkg.NewHandler(authService, app.Config.JWTSecret)

	// Start the nightly table backup
	backupScheduler := scheduler.NewScheduler(groupService, app.Logger, mailer, app.Config.AlertRecipients, app.Config.BackupDir)
	if err := backupScheduler.Start(app.Config.CronExpression); err != nil {
		app.Logger.Fatal("failed to start scheduler", zap.Error(err))
	}

	// Public routes
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "Servidor backend funcionando.")
	})
	e.GET("/api/grupos", groupHandler.ListGroups)
	e.POST("/api/genera-excel-final-async", exportHandler.CreateExport)
	e.GET("/api/progreso/:jobId", exportHandler.Progress)
	e.GET("/api/descarga-excel/:jobId", exportHandler.Download)

	e.POST("/admin/login", authHandler.Login)
	e.POST("/admin/refresh", authHandler.Refresh)
	e.GET("/admin/status", authHandler.Status)

	// Admin routes (JWT required)
	admin := e.Group("/admin")
	admin.Use(echojwt.WithConfig(jwtConfig), requireAdmin)
	admin.POST("/logout", authHandler.Logout)
	admin.POST("/upload-grupos", groupHandler.UploadGrupos)
	admin.POST("/upload-orden", groupHandler.UploadOrden)

	return e
}

func requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, apiErr := auth.GetClaims(c)
		if apiErr != nil {
			return apiErr
		}
		if claims.Role != "admin" {
			return rest.NewUnauthorizedRequestError("se requiere rol de administrador")
		}
		return next(c)
	}
}

func (app *Application) buildMailer() email.Email {
	switch app.Config.EmailProvider {
	case "mailjet":
		if app.Config.MailjetAPIKey == "" {
			return nil
		}
		return mailjet.New(app.Config.MailjetAPIKey, app.Config.MailjetAPISecret, app.Config.EmailFrom, "Catálogo B2B")
	default:
		if app.Config.SMTPHost == "" {
			return nil
		}
		return smtp.New(
			app.Config.EmailFrom,
			app.Config.SMTPHost,
			app.Config.SMTPUser,
			app.Config.SMTPPass,
			app.Config.SMTPPort,
		)
	}
}

func (app *Application) buildCredentials() export.Credentials {
	byLanguage := make(map[string]catalog.Credential)
	languageUsers := map[string][2]string{
		"Español":  {app.Config.CatalogUserES, app.Config.CatalogPassES},
		"Inglés":   {app.Config.CatalogUserEN, app.Config.CatalogPassEN},
		"Francés":  {app.Config.CatalogUserFR, app.Config.CatalogPassFR},
		"Italiano": {app.Config.CatalogUserIT, app.Config.CatalogPassIT},
	}
	for lang, pair := range languageUsers {
		if pair[0] != "" {
			byLanguage[lang] = catalog.Credential{User: pair[0], Pass: pair[1]}
		}
	}

	reference := make(map[string]catalog.Credential)
	if app.Config.CatalogUserRef != "" {
		reference["reseller"] = catalog.Credential{User: app.Config.CatalogUserRef, Pass: app.Config.CatalogPassRef}
	}

	return export.Credentials{
		ByLanguage: byLanguage,
		Reference:  reference,
	}
}

func (app *Application) Run(h http.Handler) error {
	srv := &http.Server{
		Addr:         app.Config.WebServerPort,
		Handler:      h,
		WriteTimeout: time.Second * 60,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	log.Printf("server has started at addr %s", app.Config.WebServerPort)

	return srv.ListenAndServe()
}
