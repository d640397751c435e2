package handler

import (
	"expvar"
	"net/http"

	_ "github.com/emzola/biblioteca/docs"
	"github.com/julienschmidt/httprouter"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

func (h *Handler) Routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(h.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(h.methodNotAllowed)

	// Catalog routes are served both at the root and under /api.
	catalog := func(method, path string, handler http.HandlerFunc) {
		router.HandlerFunc(method, path, handler)
		router.HandlerFunc(method, "/api"+path, handler)
	}
	catalog(http.MethodGet, "/livros", h.listBooksHandler)
	catalog(http.MethodPost, "/livros", h.createBookHandler)
	catalog(http.MethodGet, "/livros/:id", h.showBookHandler)
	catalog(http.MethodPut, "/livros/:id", h.updateBookHandler)
	catalog(http.MethodDelete, "/livros/:id", h.deleteBookHandler)
	catalog(http.MethodPost, "/livros/:id/emprestar", h.loanBookHandler)
	catalog(http.MethodPost, "/livros/:id/devolver", h.returnBookHandler)
	catalog(http.MethodPut, "/livros/:id/capa", h.updateBookCoverHandler)
	catalog(http.MethodGet, "/estatisticas", h.showStatsHandler)

	router.HandlerFunc(http.MethodGet, "/health", h.healthcheckHandler)
	router.HandlerFunc(http.MethodGet, "/debug/vars", h.basicAuth(expvar.Handler().ServeHTTP))

	// Swagger routes
	router.HandlerFunc(http.MethodGet, "/spec", h.handleSwaggerFile())
	router.HandlerFunc(http.MethodGet, "/docs/*any", httpSwagger.Handler(httpSwagger.URL("/spec")))

	return h.recoverPanic(h.requestID(h.metrics(h.logRequest(h.enableCORS(h.rateLimit(router))))))
}
