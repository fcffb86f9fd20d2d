package paytr

import (
	"encoding/json"
	"fmt"
	"strconv"

	"checkout-service/internal/models"
	"checkout-service/internal/money"
)

// Installment and currency settings are fixed for this storefront.
const (
	noInstallment  = "0"
	maxInstallment = "0"
	currency       = "TL"
)

// MerchantConfig carries the PayTR merchant credentials and checkout
// settings. It is read once at startup and injected; nothing in this package
// reads ambient state.
type MerchantConfig struct {
	ID           string
	Key          string
	Salt         string
	OKBaseURL    string
	FailBaseURL  string
	TestMode     bool
	DebugOn      bool
	TimeoutLimit int
	DefaultEmail string
}

// Validate reports ErrConfiguration when any credential is blank. Missing
// secrets are fatal to a checkout attempt; they are never defaulted.
func (c MerchantConfig) Validate() error {
	if c.ID == "" || c.Key == "" || c.Salt == "" {
		return models.ErrConfiguration
	}
	return nil
}

func (c MerchantConfig) flag(on bool) string {
	if on {
		return "1"
	}
	return "0"
}

// Buyer holds per-request buyer details included in the gateway payload.
type Buyer struct {
	IP    string
	Email string
	Name  string
	Phone string
}

// Request is the signed payload handed to the client for the gateway
// redirect. Field names follow PayTR's iframe API.
type Request struct {
	MerchantID      string `json:"merchant_id"`
	UserIP          string `json:"user_ip"`
	MerchantOID     string `json:"merchant_oid"`
	Email           string `json:"email"`
	PaymentAmount   int64  `json:"payment_amount"`
	Token           string `json:"paytr_token"`
	UserBasket      string `json:"user_basket"`
	DebugOn         string `json:"debug_on"`
	NoInstallment   string `json:"no_installment"`
	MaxInstallment  string `json:"max_installment"`
	UserName        string `json:"user_name"`
	UserPhone       string `json:"user_phone"`
	MerchantOKURL   string `json:"merchant_ok_url"`
	MerchantFailURL string `json:"merchant_fail_url"`
	TimeoutLimit    string `json:"timeout_limit"`
	Currency        string `json:"currency"`
	TestMode        string `json:"test_mode"`
}

type basketEntry struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Qty   string `json:"qty"`
}

// BuildRequest composes a signed gateway payload for a persisted pending
// order. The basket is built from the persisted order items, never from the
// live cart, so the signed amount always matches what was stored. The token
// covers merchant id, buyer IP, order id, email, minor-unit amount, the
// installment flags, currency and test-mode flag, in that order, with the
// merchant salt as the keyed suffix.
func BuildRequest(order *models.Order, items []models.OrderItem, buyer Buyer, cfg MerchantConfig) (*Request, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	amount := money.MinorUnits(order.TotalAmount)
	amountStr := strconv.FormatInt(amount, 10)

	basket := make([]basketEntry, 0, len(items))
	for _, it := range items {
		basket = append(basket, basketEntry{
			Name:  it.Name,
			Price: it.UnitPrice.StringFixed(2),
			Qty:   strconv.Itoa(it.Quantity),
		})
	}
	basketJSON, err := json.Marshal(basket)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal basket: %w", err)
	}

	testMode := cfg.flag(cfg.TestMode)
	token := Sign([]string{
		cfg.ID,
		buyer.IP,
		order.ID,
		buyer.Email,
		amountStr,
		noInstallment,
		maxInstallment,
		currency,
		testMode,
	}, cfg.Salt)

	return &Request{
		MerchantID:      cfg.ID,
		UserIP:          buyer.IP,
		MerchantOID:     order.ID,
		Email:           buyer.Email,
		PaymentAmount:   amount,
		Token:           token,
		UserBasket:      string(basketJSON),
		DebugOn:         cfg.flag(cfg.DebugOn),
		NoInstallment:   noInstallment,
		MaxInstallment:  maxInstallment,
		UserName:        buyer.Name,
		UserPhone:       buyer.Phone,
		MerchantOKURL:   fmt.Sprintf("%s/order-confirmation/%s", cfg.OKBaseURL, order.ID),
		MerchantFailURL: fmt.Sprintf("%s/order-confirmation/%s", cfg.FailBaseURL, order.ID),
		TimeoutLimit:    strconv.Itoa(cfg.TimeoutLimit),
		Currency:        currency,
		TestMode:        testMode,
	}, nil
}

// CallbackFields returns the ordered fields the gateway hashes in its
// webhook notification: merchant_oid, salt, status, total_amount, keyed with
// the merchant key.
func CallbackFields(merchantOID, salt, status, totalAmount string) []string {
	return []string{merchantOID, salt, status, totalAmount}
}
