package vnpay

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	domain "github.com/son261103/api-sell-clothes-v1--sub000/internal/entity"
	"github.com/son261103/api-sell-clothes-v1--sub000/internal/security"
	"github.com/son261103/api-sell-clothes-v1--sub000/internal/usecase"
)

const testSecret = "KBCVQOHVPQPXSXKYJWLIDOZVUQMIVEHN"

func newTestClient(t *testing.T) *Client {
	t.Helper()
	signer, err := security.NewSigner(testSecret)
	if err != nil {
		t.Fatal(err)
	}
	c := NewClient("TESTCODE", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		"https://shop.example.com/payments/return", signer)
	c.now = func() time.Time {
		return time.Date(2025, 6, 14, 10, 30, 0, 0, time.UTC)
	}
	return c
}

func TestPayURLIsSignedAndDeterministic(t *testing.T) {
	c := newTestClient(t)
	req := usecase.PayURLRequest{
		TxnRef:    "ord-001",
		Amount:    430_000,
		OrderInfo: "Thanh toan don hang ord-001",
		ClientIP:  "203.0.113.9",
		BankCode:  "NCB",
	}

	first, err := c.PayURL(req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.PayURL(req)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("same request under a pinned clock produced different URLs")
	}

	u, err := url.Parse(first)
	if err != nil {
		t.Fatal(err)
	}
	q := u.Query()
	if q.Get("vnp_Amount") != "43000000" {
		t.Errorf("vnp_Amount = %s, want amount in minor units 43000000", q.Get("vnp_Amount"))
	}
	if q.Get("vnp_TxnRef") != "ord-001" || q.Get("vnp_TmnCode") != "TESTCODE" {
		t.Errorf("identity params wrong: %v", q)
	}
	if q.Get("vnp_CreateDate") != "20250614103000" {
		t.Errorf("vnp_CreateDate = %s", q.Get("vnp_CreateDate"))
	}
	if q.Get("vnp_ExpireDate") != "20250614104500" {
		t.Errorf("vnp_ExpireDate = %s, want create date + 15m", q.Get("vnp_ExpireDate"))
	}
	if q.Get(hashParam) == "" {
		t.Fatal("URL carries no secure hash")
	}
}

// The hash is computed over percent-encoded values, not over the raw
// ones and not over encoded keys.
func TestPayURLHashCoversEncodedValues(t *testing.T) {
	c := newTestClient(t)
	raw, err := c.PayURL(usecase.PayURLRequest{
		TxnRef:    "ord-001",
		Amount:    430_000,
		OrderInfo: "Thanh toan don hang ord-001",
		ClientIP:  "203.0.113.9",
	})
	if err != nil {
		t.Fatal(err)
	}
	u, _ := url.Parse(raw)
	q := u.Query()
	supplied := q.Get(hashParam)

	params := map[string]string{}
	for k := range q {
		if k == hashParam {
			continue
		}
		params[k] = q.Get(k)
	}

	signer, _ := security.NewSigner(testSecret)
	if got := signer.Sign(hashData(params, true)); got != supplied {
		t.Errorf("hash over encoded values %s does not match URL hash %s", got, supplied)
	}
	if signer.Sign(hashData(params, false)) == supplied {
		t.Error("hash matches the raw-value form; pay URLs must sign encoded values")
	}
}

func callbackParams(signer *security.Signer) map[string]string {
	params := map[string]string{
		"vnp_TmnCode":       "TESTCODE",
		"vnp_Amount":        "43000000",
		"vnp_TxnRef":        "ord-001",
		"vnp_OrderInfo":     "Thanh toan don hang ord-001",
		"vnp_ResponseCode":  "00",
		"vnp_TransactionNo": "14422574",
		"vnp_BankCode":      "NCB",
		"vnp_PayDate":       "20250614103200",
	}
	params[hashParam] = signer.Sign(hashData(params, false))
	return params
}

func TestVerifyCallbackRoundTrip(t *testing.T) {
	c := newTestClient(t)
	signer, _ := security.NewSigner(testSecret)

	cb, err := c.VerifyCallback(callbackParams(signer))
	if err != nil {
		t.Fatal(err)
	}
	want := usecase.GatewayCallback{
		TxnRef:        "ord-001",
		TransactionNo: "14422574",
		ResponseCode:  "00",
		Amount:        430_000,
	}
	if cb != want {
		t.Errorf("callback = %+v, want %+v", cb, want)
	}
}

func TestVerifyCallbackIgnoresHashTypeField(t *testing.T) {
	c := newTestClient(t)
	signer, _ := security.NewSigner(testSecret)
	params := callbackParams(signer)
	params[hashTypeKey] = "HmacSHA512"

	if _, err := c.VerifyCallback(params); err != nil {
		t.Errorf("hash type marker broke verification: %v", err)
	}
}

func TestVerifyCallbackUppercaseHashAccepted(t *testing.T) {
	c := newTestClient(t)
	signer, _ := security.NewSigner(testSecret)
	params := callbackParams(signer)
	params[hashParam] = strings.ToUpper(params[hashParam])

	if _, err := c.VerifyCallback(params); err != nil {
		t.Errorf("uppercase hex hash rejected: %v", err)
	}
}

func TestVerifyCallbackRejectsTampering(t *testing.T) {
	c := newTestClient(t)
	signer, _ := security.NewSigner(testSecret)

	cases := []struct {
		name   string
		mutate func(map[string]string)
	}{
		{"missing hash", func(p map[string]string) { delete(p, hashParam) }},
		{"garbage hash", func(p map[string]string) { p[hashParam] = "not-hex" }},
		{"wrong hash", func(p map[string]string) { p[hashParam] = strings.Repeat("ab", 64) }},
		{"amount changed", func(p map[string]string) { p["vnp_Amount"] = "1" }},
		{"response code changed", func(p map[string]string) { p["vnp_ResponseCode"] = "24" }},
		{"field added", func(p map[string]string) { p["vnp_Extra"] = "1" }},
	}
	for _, tc := range cases {
		params := callbackParams(signer)
		tc.mutate(params)
		if _, err := c.VerifyCallback(params); !errors.Is(err, domain.ErrInvalidSignature) {
			t.Errorf("%s: got %v, want ErrInvalidSignature", tc.name, err)
		}
	}
}

func TestHashDataSortsAndEncodes(t *testing.T) {
	params := map[string]string{
		"vnp_OrderInfo": "Thanh toan don hang",
		"vnp_Amount":    "100",
	}
	if got := hashData(params, false); got != "vnp_Amount=100&vnp_OrderInfo=Thanh toan don hang" {
		t.Errorf("raw form = %q", got)
	}
	if got := hashData(params, true); got != "vnp_Amount=100&vnp_OrderInfo=Thanh+toan+don+hang" {
		t.Errorf("encoded form = %q", got)
	}
}
