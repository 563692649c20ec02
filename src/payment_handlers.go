package main

import (
	"log"
	"net/http"

	"sbs/src/db"
	"sbs/src/models"
	"sbs/src/types"
	"sbs/src/utils"

	"github.com/gin-gonic/gin"
)

func paymentHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/pagos/checkout-session", func(ctx *gin.Context) {
			var body types.CreateCheckoutSessionRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			identity := utils.IdentityFromContext(ctx)

			var cart *utils.Cart
			var err error
			if len(body.Items) > 0 {
				cart, err = utils.AssembleCart(identity, body.Items, body.Contact, body.Billing)
			} else {
				ids := body.ReservaIDs
				if body.ReservaID != nil {
					ids = append(ids, *body.ReservaID)
				}
				cart, err = utils.CartFromReservations(identity, ids)
			}
			if err != nil {
				abortWithError(ctx, err)
				return
			}

			id, url, err := utils.CreateStripeCheckout(ctx, identity, cart)
			if err != nil {
				log.Printf("Error on checkout: %s\n", err.Error())
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"id": id, "url": url})
		}).
		POST("/pagos/confirm", func(ctx *gin.Context) {
			var body types.ConfirmPaymentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			result, err := utils.SettleCheckoutSession(ctx, body.SessionID)
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			if !result.Settled {
				// Not a fault: the processor just has not confirmed yet.
				ctx.JSON(http.StatusOK, gin.H{"status": "pending"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"status": "paid", "reservations": result.Reservations})
		}).
		POST("/pagos/checkout-cancel", func(ctx *gin.Context) {
			var body types.CancelCheckoutRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			identity := utils.IdentityFromContext(ctx)
			deleted, err := utils.AbandonCheckout(ctx, identity, body.SessionID)
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"deleted": deleted})
		}).
		GET("/pagos/history", func(ctx *gin.Context) {
			identity := utils.IdentityFromContext(ctx)
			var rows []models.PaymentHistory
			db := db.GetDb()
			if err := db.
				Model(&models.PaymentHistory{}).
				Where("user_id = ? OR lower(email) = lower(?)", identity.UserID, identity.Email).
				Order("created_at DESC").
				Limit(50).
				Find(&rows).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": rows, "count": len(rows)})
		})
	return g
}
