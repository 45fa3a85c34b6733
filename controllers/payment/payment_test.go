package paymentControllers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/divijshrivastava/hisrage/models"
	"github.com/divijshrivastava/hisrage/pkg/apperrors"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("automigrate failed: %v", err)
	}
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, method string) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNumber:          fmt.Sprintf("HR%d", time.Now().UnixNano()%1e11),
		Email:                "shopper@example.com",
		Phone:                "9999999999",
		ShippingFirstName:    "Asha",
		ShippingLastName:     "Rao",
		ShippingAddressLine1: "12 MG Road",
		ShippingCity:         "Bengaluru",
		ShippingState:        "Karnataka",
		ShippingPostalCode:   "560001",
		Subtotal:             decimal.NewFromInt(500),
		ShippingCost:         decimal.NewFromInt(99),
		Tax:                  decimal.Zero,
		Total:                decimal.NewFromInt(599),
		Status:               models.OrderStatusPending,
		PaymentStatus:        models.PaymentStatusUnpaid,
		PaymentMethod:        method,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func razorpaySignature(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func postJSON(t *testing.T, handler gin.HandlerFunc, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST(path, handler)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestVerifyRazorpaySignature(t *testing.T) {
	sig := razorpaySignature("order_abc", "pay_xyz", "secret")

	if err := verifyRazorpaySignature("order_abc", "pay_xyz", sig, "secret"); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
	if err := verifyRazorpaySignature("order_abc", "pay_xyz", sig, "other-secret"); !errors.Is(err, apperrors.ErrInvalidSignature) {
		t.Fatalf("signature from another secret accepted: %v", err)
	}
	if err := verifyRazorpaySignature("order_abc", "pay_other", sig, "secret"); !errors.Is(err, apperrors.ErrInvalidSignature) {
		t.Fatalf("signature over another payload accepted: %v", err)
	}
	if err := verifyRazorpaySignature("order_abc", "pay_xyz", sig, ""); !errors.Is(err, apperrors.ErrProviderUnavailable) {
		t.Fatalf("missing secret must report an unavailable provider: %v", err)
	}
}

func TestVerifyRazorpayPaymentTransitionsOrder(t *testing.T) {
	db := setupDB(t)
	order := seedOrder(t, db, "razorpay")
	db.Model(order).Update("razorpay_order_id", "order_abc")

	p := &Providers{razorpayKeySecret: "secret"}
	sig := razorpaySignature("order_abc", "pay_xyz", "secret")
	body := fmt.Sprintf(`{"razorpay_order_id":"order_abc","razorpay_payment_id":"pay_xyz","razorpay_signature":"%s"}`, sig)

	w := postJSON(t, VerifyRazorpayPaymentHandler(db, p), "/verify", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var got models.Order
	db.First(&got, order.ID)
	if got.PaymentStatus != models.PaymentStatusPaid {
		t.Fatalf("expected paid, got %s", got.PaymentStatus)
	}
	if got.Status != models.OrderStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", got.Status)
	}
	if got.PaidAt == nil {
		t.Fatal("paid order must carry paid_at")
	}
	if got.RazorpayPaymentID != "pay_xyz" {
		t.Fatalf("payment id not persisted: %q", got.RazorpayPaymentID)
	}
}

func TestVerifyRazorpayPaymentRejectsForgedSignature(t *testing.T) {
	db := setupDB(t)
	order := seedOrder(t, db, "razorpay")
	db.Model(order).Update("razorpay_order_id", "order_abc")

	p := &Providers{razorpayKeySecret: "secret"}
	forged := razorpaySignature("order_abc", "pay_xyz", "attacker-secret")
	body := fmt.Sprintf(`{"razorpay_order_id":"order_abc","razorpay_payment_id":"pay_xyz","razorpay_signature":"%s"}`, forged)

	w := postJSON(t, VerifyRazorpayPaymentHandler(db, p), "/verify", body, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	var got models.Order
	db.First(&got, order.ID)
	if got.PaymentStatus != models.PaymentStatusUnpaid {
		t.Fatal("order must not be mutated on signature mismatch")
	}
	if got.PaidAt != nil {
		t.Fatal("paid_at must stay empty on signature mismatch")
	}
}

func TestVerifyRazorpayPaymentReplayIsNoOp(t *testing.T) {
	db := setupDB(t)
	order := seedOrder(t, db, "razorpay")
	db.Model(order).Update("razorpay_order_id", "order_abc")

	p := &Providers{razorpayKeySecret: "secret"}
	sig := razorpaySignature("order_abc", "pay_xyz", "secret")
	body := fmt.Sprintf(`{"razorpay_order_id":"order_abc","razorpay_payment_id":"pay_xyz","razorpay_signature":"%s"}`, sig)

	postJSON(t, VerifyRazorpayPaymentHandler(db, p), "/verify", body, nil)
	var first models.Order
	db.First(&first, order.ID)

	w := postJSON(t, VerifyRazorpayPaymentHandler(db, p), "/verify", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("replayed verification must succeed, got %d", w.Code)
	}

	var second models.Order
	db.First(&second, order.ID)
	if !second.PaidAt.Equal(*first.PaidAt) {
		t.Fatal("replay must not move paid_at")
	}
}

func TestVerifyRazorpayPaymentUnknownOrder(t *testing.T) {
	db := setupDB(t)

	p := &Providers{razorpayKeySecret: "secret"}
	sig := razorpaySignature("order_missing", "pay_xyz", "secret")
	body := fmt.Sprintf(`{"razorpay_order_id":"order_missing","razorpay_payment_id":"pay_xyz","razorpay_signature":"%s"}`, sig)

	w := postJSON(t, VerifyRazorpayPaymentHandler(db, p), "/verify", body, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestAlreadyPaidSurfacesDBFailure(t *testing.T) {
	db := setupDB(t)
	sqlDB, _ := db.DB()
	sqlDB.Close()

	if _, err := alreadyPaid(db, "razorpay_order_id", "order_abc"); err == nil {
		t.Fatal("a failed lookup must surface its error, not read as unpaid")
	}
}

func TestRazorpayUnconfiguredIs503(t *testing.T) {
	db := setupDB(t)
	p := &Providers{}

	w := postJSON(t, CreateRazorpayOrderHandler(db, p), "/create", `{"order_id":1}`, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	w = postJSON(t, VerifyRazorpayPaymentHandler(db, p), "/verify",
		`{"razorpay_order_id":"a","razorpay_payment_id":"b","razorpay_signature":"c"}`, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestConfirmCOD(t *testing.T) {
	db := setupDB(t)
	order := seedOrder(t, db, "cod")

	body := fmt.Sprintf(`{"order_id":%d}`, order.ID)
	w := postJSON(t, ConfirmCODOrderHandler(db), "/cod", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var got models.Order
	db.First(&got, order.ID)
	if got.Status != models.OrderStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", got.Status)
	}
	// COD stays unpaid until delivery.
	if got.PaymentStatus != models.PaymentStatusUnpaid {
		t.Fatalf("cod confirm must not mark the order paid, got %s", got.PaymentStatus)
	}
}

func TestConfirmCODRejectsCardOrder(t *testing.T) {
	db := setupDB(t)
	order := seedOrder(t, db, "razorpay")

	body := fmt.Sprintf(`{"order_id":%d}`, order.ID)
	w := postJSON(t, ConfirmCODOrderHandler(db), "/cod", body, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for method mismatch, got %d", w.Code)
	}

	var got models.Order
	db.First(&got, order.ID)
	if got.Status != models.OrderStatusPending {
		t.Fatal("card order must be untouched by the COD endpoint")
	}
}

func stripeSignatureHeader(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func stripeEvent(sessionID string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":"evt_1","object":"event","api_version":"2023-10-16","type":"checkout.session.completed","data":{"object":{"id":"%s","object":"checkout.session"}}}`,
		sessionID))
}

func TestStripeWebhookTransitionsOrder(t *testing.T) {
	db := setupDB(t)
	order := seedOrder(t, db, "stripe")
	db.Model(order).Update("stripe_payment_intent_id", "cs_test_123")

	p := &Providers{StripeEnabled: true, stripeWebhookSecret: "whsec_test"}
	payload := stripeEvent("cs_test_123")
	headers := map[string]string{
		"Stripe-Signature": stripeSignatureHeader(payload, "whsec_test", time.Now()),
	}

	w := postJSON(t, StripeWebhookHandler(db, p), "/webhook", string(payload), headers)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var got models.Order
	db.First(&got, order.ID)
	if got.PaymentStatus != models.PaymentStatusPaid || got.Status != models.OrderStatusConfirmed {
		t.Fatalf("order not transitioned: payment=%s status=%s", got.PaymentStatus, got.Status)
	}
	if got.PaidAt == nil {
		t.Fatal("paid order must carry paid_at")
	}
}

func TestStripeWebhookIsIdempotent(t *testing.T) {
	db := setupDB(t)
	order := seedOrder(t, db, "stripe")
	db.Model(order).Update("stripe_payment_intent_id", "cs_test_456")

	p := &Providers{StripeEnabled: true, stripeWebhookSecret: "whsec_test"}
	payload := stripeEvent("cs_test_456")

	deliver := func() *httptest.ResponseRecorder {
		headers := map[string]string{
			"Stripe-Signature": stripeSignatureHeader(payload, "whsec_test", time.Now()),
		}
		return postJSON(t, StripeWebhookHandler(db, p), "/webhook", string(payload), headers)
	}

	deliver()
	var first models.Order
	db.First(&first, order.ID)

	if w := deliver(); w.Code != http.StatusOK {
		t.Fatalf("replayed delivery must be accepted, got %d", w.Code)
	}
	var second models.Order
	db.First(&second, order.ID)

	if second.PaymentStatus != first.PaymentStatus || second.Status != first.Status {
		t.Fatal("replay changed the order state")
	}
	if !second.PaidAt.Equal(*first.PaidAt) {
		t.Fatal("replay must not move paid_at")
	}
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	db := setupDB(t)
	order := seedOrder(t, db, "stripe")
	db.Model(order).Update("stripe_payment_intent_id", "cs_test_789")

	p := &Providers{StripeEnabled: true, stripeWebhookSecret: "whsec_test"}
	payload := stripeEvent("cs_test_789")
	headers := map[string]string{
		"Stripe-Signature": stripeSignatureHeader(payload, "whsec_wrong", time.Now()),
	}

	w := postJSON(t, StripeWebhookHandler(db, p), "/webhook", string(payload), headers)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	var got models.Order
	db.First(&got, order.ID)
	if got.PaymentStatus != models.PaymentStatusUnpaid {
		t.Fatal("order must not be mutated on a forged webhook")
	}
}

func TestStripeWebhookWithoutSecretIs503(t *testing.T) {
	db := setupDB(t)
	order := seedOrder(t, db, "stripe")
	db.Model(order).Update("stripe_payment_intent_id", "cs_test_000")

	p := &Providers{StripeEnabled: true}
	payload := stripeEvent("cs_test_000")
	headers := map[string]string{
		"Stripe-Signature": stripeSignatureHeader(payload, "", time.Now()),
	}

	w := postJSON(t, StripeWebhookHandler(db, p), "/webhook", string(payload), headers)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}

	var got models.Order
	db.First(&got, order.ID)
	if got.PaymentStatus != models.PaymentStatusUnpaid {
		t.Fatal("an event signed with the empty secret must never mark the order paid")
	}
}
