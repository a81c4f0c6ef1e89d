package main

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/k4liel/prefeitura-tibau-do-sul/internal/store"
)

type application struct {
	config config
	store  store.Storage
}

type config struct {
	addr string
	db   dbConfig
}

type dbConfig struct {
	addr         string
	maxOpenConns int
	maxIdleConns int
	maxIdleTime  string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// Set a timeout value on the request context (ctx), that will signal
	// through ctx.Done() that the request has timed out and further
	// processing should be stopped.
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)

		r.Get("/licitacoes", app.handleListLicitacoes)
		r.Get("/contratos", app.handleListContratos)
		r.Get("/fornecedores", app.handleListFornecedores)
		r.Get("/servidores", app.handleListServidores)
		r.Get("/secretarias", app.handleListSecretarias)
		r.Get("/vereadores", app.handleListVereadores)
		r.Get("/emendas", app.handleListEmendas)
		r.Get("/orcamento", app.handleListOrcamento)
		r.Get("/receitas/{ano}", app.handleGetReceita)
		r.Get("/despesas", app.handleListDespesas)

		r.Get("/alertas", app.handleListAlertas)
		r.Get("/sync-runs", app.handleListSyncRuns)
		r.Get("/fontes", app.handleListProvenance)
		r.Get("/monitoramento/jobs", app.handleJobMetrics)
	})

	return r
}

func (app *application) run(mux http.Handler) error {

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 120,
		ReadTimeout:  time.Second * 40,
		IdleTimeout:  time.Minute,
	}

	log.Printf("Server started on %s", app.config.addr)
	return srv.ListenAndServe()
}
