package main

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"

	"sbs/src/config"
	"sbs/src/db"
	"sbs/src/models"
	"sbs/src/types"
	"sbs/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

func stripeWebhookRoute(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.POST("/webhook/stripe", func(ctx *gin.Context) {
		payload, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			log.Printf("Error reading request body: %s\n", err.Error())
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		whsecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
		event, err := webhook.ConstructEvent(payload, ctx.GetHeader("Stripe-Signature"), whsecret)
		if err != nil {
			log.Printf("Error verifying webhook signature: %s\n", err.Error())
			ctx.Status(http.StatusBadRequest)
			return
		}
		log.Printf("[StripeEvent] %s\n", event.Type)
		switch event.Type {
		case "checkout.session.completed":
			var cs stripe.CheckoutSession
			err := json.Unmarshal(event.Data.Raw, &cs)
			if err != nil {
				log.Printf("[Stripe] Error parsing CheckoutSession: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			log.Printf("[CheckoutSession] ID: %s %s\n", cs.ID, cs.Status)
			// Run synchronously: a failure here must produce a non-2xx so
			// the processor redelivers and the settlement is retried.
			if _, err := utils.SettleCheckoutSession(ctx, cs.ID); err != nil {
				if errors.Is(err, types.ErrMetadata) {
					log.Printf("[Stripe] Unreconciled payment for session %s: %s\n", cs.ID, err.Error())
					ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
					return
				}
				log.Printf("[Stripe] Settlement for session %s failed, will retry: %s\n", cs.ID, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		case "invoice.paid":
			var inv stripe.Invoice
			if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
				log.Printf("[Stripe] Error parsing Invoice: %s\n", err.Error())
				break
			}
			// Membership invoices only pass through here for the audit log.
			currency := string(inv.Currency)
			if currency == "" {
				currency = config.DEFAULT_CURRENCY
			}
			history := models.PaymentHistory{
				Email:       inv.CustomerEmail,
				ReferenceID: inv.ID,
				Amount:      float64(inv.Total) / 100,
				Currency:    currency,
				Type:        types.PAYMENT_MEMBERSHIP_INITIAL,
				Status:      types.PAYMENT_COMPLETED,
			}
			db := db.GetDb()
			if err := db.Create(&history).Error; err != nil {
				log.Printf("[Stripe] Error recording membership payment %s: %s\n", inv.ID, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		default:
			log.Printf("[Stripe] Ignoring event type %s\n", event.Type)
		}
		ctx.JSON(http.StatusOK, gin.H{"received": true})
	})
	return apiv1
}
