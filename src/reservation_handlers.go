package main

import (
	"log"
	"net/http"

	"sbs/src/types"
	"sbs/src/utils"

	"github.com/gin-gonic/gin"
)

func reservationHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/reservas/mine", func(ctx *gin.Context) {
			identity := utils.IdentityFromContext(ctx)
			upcoming, past, err := utils.ListReservationsForUser(identity)
			if err != nil {
				log.Printf("Error listing reservations for user %d: %s\n", identity.UserID, err.Error())
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"upcoming": upcoming, "past": past})
		}).
		GET("/reservas/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			identity := utils.IdentityFromContext(ctx)
			reservation, err := utils.GetReservation(params.ID)
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			if !utils.OwnedBy(reservation, identity) {
				ctx.JSON(http.StatusForbidden, gin.H{"error": types.ErrForbidden.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reservation})
		}).
		PATCH("/reservas/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.UpdateReservationRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			identity := utils.IdentityFromContext(ctx)
			reservation, err := utils.GetReservation(params.ID)
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			if !utils.OwnedBy(reservation, identity) {
				ctx.JSON(http.StatusForbidden, gin.H{"error": types.ErrForbidden.Error()})
				return
			}

			// Overload: status "paid" replays the settlement for the
			// reservation's session. Safe to call repeatedly.
			if body.Status != nil && *body.Status == string(types.RESERVATION_PAID) {
				sessionId := ""
				if body.SessionID != nil {
					sessionId = *body.SessionID
				} else if reservation.CheckoutSessionId != nil {
					sessionId = *reservation.CheckoutSessionId
				}
				if sessionId == "" {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required to confirm payment"})
					return
				}
				if _, err := utils.SettleCheckoutSession(ctx, sessionId); err != nil {
					abortWithError(ctx, err)
					return
				}
				updated, err := utils.GetReservation(params.ID)
				if err != nil {
					abortWithError(ctx, err)
					return
				}
				ctx.JSON(http.StatusOK, gin.H{"data": updated})
				return
			}

			updated, err := utils.UpdateReservationBilling(params.ID, &body.BillingFields)
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": updated})
		}).
		PATCH("/reservas/:id/cancel", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			identity := utils.IdentityFromContext(ctx)
			result, err := utils.CancelReservation(ctx, identity, params.ID)
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, result)
		}).
		DELETE("/reservas/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			identity := utils.IdentityFromContext(ctx)
			reservation, err := utils.GetReservation(params.ID)
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			if !utils.OwnedBy(reservation, identity) {
				ctx.JSON(http.StatusForbidden, gin.H{"error": types.ErrForbidden.Error()})
				return
			}
			if err := utils.DeleteReservation(params.ID); err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
