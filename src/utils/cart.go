package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"sbs/src/lib"
	"sbs/src/models"
	"sbs/src/types"
)

// Cart is the transient collection of reservation drafts being checked out
// together. It lives only for the duration of the request; the drafts it
// created are the durable part.
type Cart struct {
	Reservations []models.Reservation
	LineItems    []LineItem
	Total        float64
}

// LineItem feeds the processor 1:1 from the cart's priced items.
type LineItem struct {
	ReservationID uint
	Description   string
	Amount        float64
}

// AssembleCart turns the selected slots into pending drafts plus a priced
// line-item list, preserving the caller's ordering.
func AssembleCart(identity Identity, items []types.CartItem, contact *types.ContactFields, billing *types.BillingFields) (*Cart, error) {
	if len(items) == 0 {
		return nil, types.ErrEmptyCart
	}
	cart := &Cart{}
	for _, item := range items {
		price := ResolvePrice(item.ServiceType, item.Price)
		draft := models.Reservation{
			Email:          identity.Email,
			CompanionName:  item.CompanionName,
			CompanionEmail: item.CompanionEmail,
			Date:           item.Date,
			Time:           item.Time,
			Duration:       item.Duration,
			ServiceType:    item.ServiceType,
			PricePaid:      &price,
		}
		if identity.UserID != 0 {
			userId := identity.UserID
			draft.UserID = &userId
		}
		if contact != nil {
			draft.Name = contact.Name
			draft.Surname = contact.Surname
			draft.Phone = contact.Phone
		}
		if billing != nil {
			draft.Address = billing.Address
			draft.Country = billing.Country
			draft.City = billing.City
			draft.PostalCode = billing.PostalCode
		}
		created, err := CreateReservation(&draft)
		if err != nil {
			return nil, err
		}
		cart.Reservations = append(cart.Reservations, *created)
		cart.LineItems = append(cart.LineItems, LineItem{
			ReservationID: created.ID,
			Description:   lineItemDescription(created),
			Amount:        price,
		})
		cart.Total += price
	}
	return cart, nil
}

// CartFromReservations rebuilds a cart from existing pending drafts, for the
// flow where the client created reservations first and checks out later.
func CartFromReservations(identity Identity, ids []uint) (*Cart, error) {
	if len(ids) == 0 {
		return nil, types.ErrEmptyCart
	}
	cart := &Cart{}
	for _, id := range ids {
		r, err := GetReservation(id)
		if err != nil {
			return nil, err
		}
		if !OwnedBy(r, identity) {
			return nil, fmt.Errorf("%w: reservation %d", types.ErrForbidden, id)
		}
		if r.Status != types.RESERVATION_PENDING {
			return nil, fmt.Errorf("%w: reservation %d is %s, only pending drafts can be checked out", types.ErrInvalidState, id, r.Status)
		}
		price := ResolvePrice(r.ServiceType, r.PricePaid)
		cart.Reservations = append(cart.Reservations, *r)
		cart.LineItems = append(cart.LineItems, LineItem{
			ReservationID: r.ID,
			Description:   lineItemDescription(r),
			Amount:        price,
		})
		cart.Total += price
	}
	return cart, nil
}

func lineItemDescription(r *models.Reservation) string {
	serviceType := r.ServiceType
	if serviceType == "" {
		serviceType = types.SERVICE_INDIVIDUAL
	}
	return fmt.Sprintf("Sesión %s con %s (%s %s)", serviceType, r.CompanionName, r.Date, r.Time)
}

func cartCacheKey(userId uint) string {
	return fmt.Sprintf("cart:%d", userId)
}

// CacheCartState keeps the in-flight cart ids server-side so the abandoned
// checkout path can clear them. Best-effort, the metadata on the session is
// the source of truth.
func CacheCartState(ctx context.Context, userId uint, ids []uint) {
	rd := lib.GetRedisClient()
	if rd == nil || userId == 0 {
		return
	}
	b, _ := json.Marshal(ids)
	if err := rd.SetEx(ctx, cartCacheKey(userId), string(b), 1*time.Hour).Err(); err != nil {
		log.Printf("[Cart] Error caching cart for user %d: %s\n", userId, err.Error())
	}
}

func ClearCartState(ctx context.Context, userId uint) {
	rd := lib.GetRedisClient()
	if rd == nil || userId == 0 {
		return
	}
	if err := rd.Del(ctx, cartCacheKey(userId)).Err(); err != nil {
		log.Printf("[Cart] Error clearing cart for user %d: %s\n", userId, err.Error())
	}
}
