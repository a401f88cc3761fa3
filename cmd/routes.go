package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders, makeResponseJSON)
	authMiddleware := standardMiddleware.Append(app.firebaseAuth)

	mux := pat.New()

	// Users. Registration and the exists probe run before the client holds a
	// verified session, so they stay on the standard chain.
	mux.Post("/user", standardMiddleware.ThenFunc(app.userHandler.Register))
	mux.Get("/user/exists", standardMiddleware.ThenFunc(app.userHandler.Exists))
	mux.Get("/user", authMiddleware.ThenFunc(app.userHandler.GetUsers))
	mux.Get("/user/:email", authMiddleware.ThenFunc(app.userHandler.GetUserByEmail))
	mux.Put("/user/role/:email", authMiddleware.ThenFunc(app.userHandler.UpdateRole))
	mux.Put("/user/:email", authMiddleware.ThenFunc(app.userHandler.UpdateProfile))

	// Books
	mux.Post("/book", authMiddleware.ThenFunc(app.bookHandler.CreateBook))
	mux.Get("/book", standardMiddleware.ThenFunc(app.bookHandler.GetBooks))
	mux.Get("/book/top", standardMiddleware.ThenFunc(app.bookHandler.GetTopBooks))
	mux.Get("/book/recent", standardMiddleware.ThenFunc(app.bookHandler.GetRecentBooks))
	mux.Get("/book/categories", standardMiddleware.ThenFunc(app.bookHandler.GetCategoryCounts))
	mux.Get("/book/category/:category", standardMiddleware.ThenFunc(app.bookHandler.GetBooksByCategory))
	mux.Get("/book/user", authMiddleware.ThenFunc(app.bookHandler.GetBooksByEmail))
	mux.Get("/book/:id", authMiddleware.ThenFunc(app.bookHandler.GetBookByID))
	mux.Put("/book/status/:id", authMiddleware.ThenFunc(app.bookHandler.UpdateReadingStatus))
	mux.Put("/book/upvote/:id", authMiddleware.ThenFunc(app.bookHandler.UpvoteBook))
	mux.Put("/book/:id", authMiddleware.ThenFunc(app.bookHandler.UpdateBook))
	mux.Del("/book/:id", authMiddleware.ThenFunc(app.bookHandler.DeleteBook))
	mux.Post("/book/cover", authMiddleware.ThenFunc(app.bookHandler.UploadCover))

	// Ratings
	mux.Post("/rating", authMiddleware.ThenFunc(app.ratingHandler.CreateRating))
	mux.Get("/rating", standardMiddleware.ThenFunc(app.ratingHandler.GetRatings))
	mux.Get("/rating/book/:book_id", standardMiddleware.ThenFunc(app.ratingHandler.GetRatingsByBookID))
	mux.Put("/rating/:id", authMiddleware.ThenFunc(app.ratingHandler.UpdateReview))
	mux.Del("/rating/:id", authMiddleware.ThenFunc(app.ratingHandler.DeleteRating))

	// Payments. The IPN endpoint stays on the standard chain: the gateway
	// posts to it server-to-server and carries no bearer token.
	mux.Post("/payment/init", authMiddleware.ThenFunc(app.paymentHandler.InitPayment))
	mux.Post("/payment/ipn", standardMiddleware.ThenFunc(app.paymentHandler.IPN))
	mux.Get("/subscription/:email", authMiddleware.ThenFunc(app.paymentHandler.GetAttempts))

	return mux
}
