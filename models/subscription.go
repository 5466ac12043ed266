package models

import "time"

// SubscriptionRecord is the subscription sub-object of a user document.
// Period bounds are Unix seconds as reported by the payment provider.
type SubscriptionRecord struct {
	ID                 string             `json:"id" bson:"id" firestore:"id"`
	Status             SubscriptionStatus `json:"status" bson:"status" firestore:"status"`
	CurrentPeriodStart int64              `json:"current_period_start" bson:"current_period_start" firestore:"current_period_start"`
	CurrentPeriodEnd   int64              `json:"current_period_end" bson:"current_period_end" firestore:"current_period_end"`
	Plan               string             `json:"plan" bson:"plan" firestore:"plan"`
}

// UserDocument is the users/{principal id} document. Fields other than
// Subscription may exist in the store and are left untouched on upsert.
type UserDocument struct {
	ID           string              `bson:"_id" firestore:"-"`
	Subscription *SubscriptionRecord `bson:"subscription,omitempty" firestore:"subscription,omitempty"`
}

type SubscriptionStatus string

const (
	SubscriptionStatusActive            SubscriptionStatus = "active"
	SubscriptionStatusTrialing          SubscriptionStatus = "trialing"
	SubscriptionStatusPastDue           SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled          SubscriptionStatus = "canceled"
	SubscriptionStatusIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionStatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubscriptionStatusUnpaid            SubscriptionStatus = "unpaid"
	SubscriptionStatusPaused            SubscriptionStatus = "paused"
)

// Entitled reports whether the status grants access to the paid plan.
func (s SubscriptionStatus) Entitled() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusTrialing
}

// CheckoutBinding ties a checkout session to the principal that created it.
type CheckoutBinding struct {
	SessionID   string    `bson:"_id" firestore:"-"`
	PrincipalID string    `bson:"principal_id" firestore:"principal_id"`
	CreatedAt   time.Time `bson:"created_at" firestore:"created_at"`
	ExpiresAt   time.Time `bson:"expires_at" firestore:"expires_at"`
}

func (b *CheckoutBinding) Expired(now time.Time) bool {
	return !b.ExpiresAt.IsZero() && now.After(b.ExpiresAt)
}
