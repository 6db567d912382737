package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"

	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/africanuspanga/africa-stickers-website/docs" //this is required to generate swagger docs
	"github.com/africanuspanga/africa-stickers-website/internal/mailer"
	"github.com/africanuspanga/africa-stickers-website/internal/ratelimiter"
	"github.com/africanuspanga/africa-stickers-website/internal/store"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/speps/go-hashids/v2"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type application struct {
	config      config
	store       store.Storage
	logger      *zap.SugaredLogger
	cld         *cloudinary.Cloudinary
	mailer      mailer.Client
	rateLimiter ratelimiter.Limiter
	shareCodes  *hashids.HashID
}

type config struct {
	addr        string
	db          dbConfig
	env         string
	apiURL      string
	mail        mailConfig
	frontendURL string
	auth        authConfig
	rateLimiter ratelimiter.Config
}

type authConfig struct {
	basic basicConfig
	// bcrypt hash of the admin dashboard password
	adminPasswordHash string
}

type basicConfig struct {
	user string
	pass string
}

type mailConfig struct {
	fromEmail string
	toEmail   string
	smtp      smtpConfig
}

type smtpConfig struct {
	host     string
	port     int
	username string
	password string
}

type dbConfig struct {
	addr        string
	maxConns    int
	maxIdleTime string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{app.config.frontendURL, "http://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true, // admin session cookie
		MaxAge:           300,  // Maximum value not ignored by any of major browsers
	}))

	// Set a timeout value on the request context (ctx), that will signal through
	// ctx.Done() that the request has timed out and further processing should be stopped
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		// Public catalog
		r.Route("/products", func(r chi.Router) {
			r.Get("/", app.listProductsHandler)
			r.Get("/categories", app.listCategoriesHandler)
			r.Get("/{slug}", app.getProductDetailHandler)

			r.Route("/{productID:[0-9]+}", func(r chi.Router) {
				r.With(app.RateLimiterMiddleware).Post("/like", app.likeProductHandler)
				r.Get("/share", app.shareProductHandler)
			})
		})

		r.Get("/share/{code}", app.resolveShareCodeHandler)

		r.With(app.RateLimiterMiddleware).Post("/contact", app.contactHandler)

		// Admin dashboard
		r.Route("/admin", func(r chi.Router) {
			r.Post("/session", app.adminLoginHandler)
			r.Delete("/session", app.adminLogoutHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.AdminSessionMiddleware)

				r.Route("/products", func(r chi.Router) {
					r.Get("/", app.adminListProductsHandler)
					r.Post("/", app.createProductHandler)

					r.Route("/{productID}", func(r chi.Router) {
						r.Get("/", app.adminGetProductHandler)
						r.Patch("/", app.updateProductHandler)
						r.Delete("/", app.deleteProductHandler)
						r.Post("/image", app.uploadProductImageHandler)

						r.Route("/variants", func(r chi.Router) {
							r.Get("/", app.listVariantsHandler)
							r.Post("/", app.createVariantHandler)
							r.Put("/order", app.reorderVariantsHandler)
							r.Patch("/{variantID}", app.updateVariantHandler)
							r.Delete("/{variantID}", app.deleteVariantHandler)
							r.Post("/{variantID}/image", app.uploadVariantImageHandler)
						})
					})
				})

				r.Route("/images", func(r chi.Router) {
					r.Get("/", app.listCloudinaryImagesHandler)
					// DELETE /admin/images?public_id={id}
					r.Delete("/", app.deleteCloudinaryImageHandler)
				})
			})
		})
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
