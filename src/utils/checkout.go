package utils

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"

	"sbs/src/config"
	"sbs/src/db"
	"sbs/src/lib"
	"sbs/src/models"
	"sbs/src/types"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
)

// CreateStripeCheckout binds the cart to a processor-hosted checkout session
// and hands back the redirect URL. The full reservation id list rides in the
// session metadata so settlement can recover every affected row from the
// session id alone. Everything stays pending until settlement.
func CreateStripeCheckout(ctx context.Context, identity Identity, cart *Cart) (string, string, error) {
	if cart == nil || len(cart.LineItems) == 0 {
		return "", "", types.ErrEmptyCart
	}
	sc := lib.GetStripeClient()
	appHost := os.Getenv("APP_HOST")
	successUrl := fmt.Sprintf("%s/checkout/callback/success?session_id={CHECKOUT_SESSION_ID}", appHost)
	cancelUrl := fmt.Sprintf("%s/checkout/callback/cancel?session_id={CHECKOUT_SESSION_ID}", appHost)

	ids := make([]uint, 0, len(cart.Reservations))
	for _, r := range cart.Reservations {
		ids = append(ids, r.ID)
	}
	metadata := map[string]string{
		metadataReservaIdsKey: EncodeReservationIDs(ids),
		"userId":              fmt.Sprint(identity.UserID),
		"email":               identity.Email,
		"requestId":           uuid.New().String(),
	}

	lineItems := []*stripe.CheckoutSessionCreateLineItemParams{}
	for _, item := range cart.LineItems {
		lineItems = append(lineItems, &stripe.CheckoutSessionCreateLineItemParams{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency:   stripe.String(config.DEFAULT_CURRENCY),
				UnitAmount: stripe.Int64(int64(math.Round(item.Amount * 100))),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Description),
				},
			},
		})
	}
	createParams := stripe.CheckoutSessionCreateParams{
		SuccessURL: stripe.String(successUrl),
		CancelURL:  stripe.String(cancelUrl),
		UIMode:     stripe.String("hosted"),
		Mode:       stripe.String("payment"),
		LineItems:  lineItems,
		Metadata:   metadata,
	}
	if identity.Email != "" {
		createParams.CustomerEmail = stripe.String(identity.Email)
	}
	checkoutSession, err := sc.V1CheckoutSessions.Create(ctx, &createParams)
	if err != nil {
		log.Printf("CreateStripeCheckout failed: %s\n", err.Error())
		return "", "", fmt.Errorf("%w: %s", types.ErrProcessor, err.Error())
	}
	log.Printf("CheckoutSessionID: %s\n", checkoutSession.ID)

	// Stamp the session reference on the drafts; they remain pending.
	gdb := db.GetDb()
	if err := gdb.
		Model(&models.Reservation{}).
		Where("id IN ? AND status = ?", ids, types.RESERVATION_PENDING).
		Update("checkout_session_id", checkoutSession.ID).
		Error; err != nil {
		log.Printf("[Checkout] Error stamping session %s on reservations %v: %s\n", checkoutSession.ID, ids, err.Error())
	}
	CacheCartState(ctx, identity.UserID, ids)

	return checkoutSession.ID, checkoutSession.URL, nil
}

// AbandonCheckout handles the client coming back from the hosted page with a
// cancel signal: every still-pending draft referenced by the abandoned
// session is discarded, anything already settled is left untouched, and the
// server-side cart state is cleared.
func AbandonCheckout(ctx context.Context, identity Identity, sessionID string) (int, error) {
	sc := lib.GetStripeClient()
	data, err := sc.V1CheckoutSessions.Retrieve(ctx, sessionID, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", types.ErrProcessor, err.Error())
	}
	ids, err := ParseReservationIDs(data.Metadata)
	if err != nil {
		log.Printf("[Checkout] Abandoned session %s carries no reservation ids\n", sessionID)
		return 0, err
	}
	deleted := 0
	for _, id := range ids {
		r, err := GetReservation(id)
		if errors.Is(err, types.ErrNotFound) {
			continue
		}
		if err != nil {
			return deleted, err
		}
		if !OwnedBy(r, identity) {
			log.Printf("[Checkout] Skipping reservation %d from session %s: not owned by caller\n", id, sessionID)
			continue
		}
		if err := DeleteReservation(id); err != nil {
			if errors.Is(err, types.ErrInvalidState) {
				// Settled while the client was backing out. Leave it.
				log.Printf("[Checkout] Reservation %d is no longer pending, leaving it in place\n", id)
				continue
			}
			return deleted, err
		}
		deleted++
	}
	ClearCartState(ctx, identity.UserID)
	return deleted, nil
}
