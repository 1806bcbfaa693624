package paypal

import (
	"encoding/json"
	"time"
)

// REST resource shapes for the subset of the provider's billing API this
// service uses. Field names follow the provider's JSON contract.

type Money struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type Frequency struct {
	IntervalUnit  string `json:"interval_unit"`
	IntervalCount int    `json:"interval_count"`
}

const (
	TenureTypeTrial   = "TRIAL"
	TenureTypeRegular = "REGULAR"

	IntervalUnitDay   = "DAY"
	IntervalUnitMonth = "MONTH"
)

type PricingScheme struct {
	FixedPrice Money `json:"fixed_price"`
}

type BillingCycle struct {
	Frequency     Frequency     `json:"frequency"`
	TenureType    string        `json:"tenure_type"`
	Sequence      int           `json:"sequence"`
	TotalCycles   int           `json:"total_cycles"`
	PricingScheme PricingScheme `json:"pricing_scheme"`
}

type PaymentPreferences struct {
	AutoBillOutstanding     bool   `json:"auto_bill_outstanding"`
	SetupFeeFailureAction   string `json:"setup_fee_failure_action,omitempty"`
	PaymentFailureThreshold int    `json:"payment_failure_threshold,omitempty"`
}

type CreateProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"`
	Category    string `json:"category,omitempty"`
}

type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CreatePlanRequest struct {
	ProductID          string             `json:"product_id"`
	Name               string             `json:"name"`
	Description        string             `json:"description,omitempty"`
	Status             string             `json:"status,omitempty"`
	BillingCycles      []BillingCycle     `json:"billing_cycles"`
	PaymentPreferences PaymentPreferences `json:"payment_preferences"`
}

type Plan struct {
	ID            string         `json:"id"`
	ProductID     string         `json:"product_id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Status        string         `json:"status"`
	BillingCycles []BillingCycle `json:"billing_cycles"`
}

type SubscriberName struct {
	GivenName string `json:"given_name,omitempty"`
	Surname   string `json:"surname,omitempty"`
}

type Subscriber struct {
	Name         SubscriberName `json:"name,omitempty"`
	EmailAddress string         `json:"email_address,omitempty"`
}

type ApplicationContext struct {
	BrandName          string `json:"brand_name,omitempty"`
	ReturnURL          string `json:"return_url"`
	CancelURL          string `json:"cancel_url"`
	UserAction         string `json:"user_action,omitempty"`
	ShippingPreference string `json:"shipping_preference,omitempty"`
}

type CreateSubscriptionRequest struct {
	PlanID             string             `json:"plan_id"`
	Subscriber         Subscriber         `json:"subscriber,omitempty"`
	ApplicationContext ApplicationContext `json:"application_context"`
}

type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

type BillingInfo struct {
	NextBillingTime time.Time `json:"next_billing_time"`
}

type Subscription struct {
	ID          string       `json:"id"`
	PlanID      string       `json:"plan_id"`
	Status      string       `json:"status"`
	BillingInfo *BillingInfo `json:"billing_info,omitempty"`
	Links       []Link       `json:"links"`
}

// ApprovalURL returns the redirect the subscriber must visit to authorize the
// subscription, or empty when the provider did not include one.
func (s *Subscription) ApprovalURL() string {
	if s == nil {
		return ""
	}
	for _, l := range s.Links {
		if l.Rel == "approve" {
			return l.Href
		}
	}
	return ""
}

// Webhook event types this service reacts to. Anything else is logged and
// acknowledged without side effects.
const (
	EventSubscriptionActivated     = "BILLING.SUBSCRIPTION.ACTIVATED"
	EventSubscriptionCancelled     = "BILLING.SUBSCRIPTION.CANCELLED"
	EventSubscriptionPaymentFailed = "BILLING.SUBSCRIPTION.PAYMENT.FAILED"
	EventSubscriptionRenewed       = "BILLING.SUBSCRIPTION.RENEWED"
)

// Event is the webhook envelope delivered by the provider.
type Event struct {
	ID         string          `json:"id"`
	EventType  string          `json:"event_type"`
	CreateTime time.Time       `json:"create_time"`
	Resource   json.RawMessage `json:"resource"`
}

// SubscriptionResource decodes the resource of a subscription lifecycle
// event.
func (e *Event) SubscriptionResource() (*Subscription, error) {
	var sub Subscription
	if err := json.Unmarshal(e.Resource, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

type verifyWebhookSignatureRequest struct {
	AuthAlgo         string          `json:"auth_algo"`
	CertURL          string          `json:"cert_url"`
	TransmissionID   string          `json:"transmission_id"`
	TransmissionSig  string          `json:"transmission_sig"`
	TransmissionTime string          `json:"transmission_time"`
	WebhookID        string          `json:"webhook_id"`
	WebhookEvent     json.RawMessage `json:"webhook_event"`
}

type verifyWebhookSignatureResponse struct {
	VerificationStatus string `json:"verification_status"`
}

// SignatureHeaders are the transmission headers the provider attaches to
// every webhook delivery.
type SignatureHeaders struct {
	AuthAlgo         string
	CertURL          string
	TransmissionID   string
	TransmissionSig  string
	TransmissionTime string
}
