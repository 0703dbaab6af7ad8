package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mbolis/quick-form/app"
	"github.com/mbolis/quick-form/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.RequestID, middlewares.RequestLogger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Get("/forms/{id}", PublicGetForm(app))
	api.Post("/forms/{id}/files/{qid}", PublicUploadFile(app))
	api.Post("/forms/{id}/submissions", PublicSubmitForm(app))

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Admin(app.TokenSecret))

		r.Post("/forms", CreateForm(app))
		r.Get("/forms", ListForms(app))
		r.Get("/forms/{id}", GetFormById(app))
		r.Put("/forms/{id}", UpdateForm(app))
		r.Delete("/forms/{id}", DeleteForm(app))

		r.Post("/forms/{id}/questions", AddQuestion(app))
		r.Put("/forms/{id}/questions/{qid}", UpdateQuestion(app))
		r.Delete("/forms/{id}/questions/{qid}", DropQuestion(app))
		r.Put("/forms/{id}/questions/{qid}/block", BlockQuestion(app))

		r.Post("/forms/{id}/send", SendForm(app))
		r.Get("/forms/{id}/submissions", GetFormSubmissions(app))
		r.Get("/forms/{id}/files/{ref}", GetFormFile(app))
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}
