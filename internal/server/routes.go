package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tripsplit/tripsplitd/internal/auth"
	"github.com/tripsplit/tripsplitd/internal/core/receipt"
	"github.com/tripsplit/tripsplitd/internal/server/handlers"
	"github.com/tripsplit/tripsplitd/internal/server/middleware"
	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

func registerRoutes(engine *gin.Engine, store relationaldb.RepositoryManager, issuer *auth.Issuer, parser *receipt.Parser, bcryptCost int) {
	authHandler := handlers.NewAuthHandler(store, issuer, bcryptCost)
	usersHandler := handlers.NewUsersHandler(store)
	tripsHandler := handlers.NewTripsHandler(store)
	expensesHandler := handlers.NewExpensesHandler(store)
	paymentsHandler := handlers.NewPaymentsHandler(store)
	invitesHandler := handlers.NewInvitesHandler(store)
	friendsHandler := handlers.NewFriendsHandler(store)
	activityHandler := handlers.NewActivityHandler(store)
	receiptHandler := handlers.NewReceiptHandler(store, parser)

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "tripsplitd"})
	})

	engine.POST("/auth/register", authHandler.Register)
	engine.POST("/auth/login", authHandler.Login)

	authed := engine.Group("/", middleware.RequireAuth(issuer, store.Users()))

	authed.GET("/users/me", usersHandler.Me)
	authed.GET("/users/search", usersHandler.Search)

	authed.POST("/trips", tripsHandler.Create)
	authed.GET("/trips", tripsHandler.List)
	authed.GET("/trips/:id", tripsHandler.Get)
	authed.PATCH("/trips/:id", tripsHandler.Update)
	authed.GET("/trips/:id/balances", tripsHandler.Balances)
	authed.POST("/trips/:id/expenses", expensesHandler.Create)
	authed.GET("/trips/:id/expenses", expensesHandler.ListByTrip)
	authed.POST("/trips/:id/payments", paymentsHandler.Create)
	authed.POST("/trips/:id/members", invitesHandler.Create)
	authed.POST("/trips/:id/receipt/ocr", receiptHandler.Parse)

	authed.GET("/payments/pending", paymentsHandler.Pending)
	authed.POST("/payments/:id/confirm", paymentsHandler.Confirm)
	authed.POST("/payments/:id/decline", paymentsHandler.Decline)
	authed.DELETE("/payments/:id", paymentsHandler.Delete)

	authed.GET("/invites", invitesHandler.List)
	authed.POST("/invites/:id/accept", invitesHandler.Accept)
	authed.POST("/invites/:id/decline", invitesHandler.Decline)

	authed.GET("/friends", friendsHandler.List)
	authed.POST("/friends", friendsHandler.Request)
	authed.DELETE("/friends/:id", friendsHandler.Delete)
	authed.GET("/friends/invites", friendsHandler.ListInvites)
	authed.POST("/friends/invites/:id/accept", friendsHandler.Accept)
	authed.POST("/friends/invites/:id/decline", friendsHandler.Decline)

	authed.GET("/activity", activityHandler.Feed)
}
