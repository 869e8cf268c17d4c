package vnpay

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	domain "github.com/son261103/api-sell-clothes-v1--sub000/internal/entity"
	"github.com/son261103/api-sell-clothes-v1--sub000/internal/security"
	"github.com/son261103/api-sell-clothes-v1--sub000/internal/usecase"
)

const (
	version     = "2.1.0"
	command     = "pay"
	currCode    = "VND"
	locale      = "vn"
	payTTL      = 15 * time.Minute
	dateLayout  = "20060102150405"
	hashParam   = "vnp_SecureHash"
	hashTypeKey = "vnp_SecureHashType"
)

// Client builds signed redirect URLs and verifies callbacks for the
// VNPay gateway.
type Client struct {
	tmnCode   string
	signer    *security.Signer
	payURL    string
	returnURL string
	now       func() time.Time
}

func NewClient(tmnCode, payURL, returnURL string, signer *security.Signer) *Client {
	return &Client{
		tmnCode:   tmnCode,
		signer:    signer,
		payURL:    payURL,
		returnURL: returnURL,
		now:       time.Now,
	}
}

// PayURL assembles the gateway redirect link. The protocol dictates an
// encoding asymmetry: the hash input percent-encodes values but not
// keys, while the redirect query string percent-encodes both.
func (c *Client) PayURL(req usecase.PayURLRequest) (string, error) {
	now := c.now()
	params := map[string]string{
		"vnp_Version":    version,
		"vnp_Command":    command,
		"vnp_TmnCode":    c.tmnCode,
		"vnp_Amount":     strconv.FormatInt(req.Amount*100, 10),
		"vnp_CurrCode":   currCode,
		"vnp_TxnRef":     req.TxnRef,
		"vnp_OrderInfo":  req.OrderInfo,
		"vnp_Locale":     locale,
		"vnp_ReturnUrl":  c.returnURL,
		"vnp_IpAddr":     req.ClientIP,
		"vnp_CreateDate": now.Format(dateLayout),
		"vnp_ExpireDate": now.Add(payTTL).Format(dateLayout),
	}
	if req.BankCode != "" {
		params["vnp_BankCode"] = req.BankCode
	}

	secure := c.signer.Sign(hashData(params, true))

	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	return c.payURL + "?" + query.Encode() + "&" + hashParam + "=" + secure, nil
}

// VerifyCallback recomputes the HMAC over every callback field except
// the hash itself (values raw this time, per the protocol) and compares
// byte-for-byte. No other field is interpreted before the check passes.
func (c *Client) VerifyCallback(params map[string]string) (usecase.GatewayCallback, error) {
	supplied := params[hashParam]
	if supplied == "" {
		return usecase.GatewayCallback{}, domain.ErrInvalidSignature
	}

	fields := make(map[string]string, len(params))
	for k, v := range params {
		if k == hashParam || k == hashTypeKey {
			continue
		}
		fields[k] = v
	}
	if !c.signer.Verify(hashData(fields, false), strings.ToLower(supplied)) {
		return usecase.GatewayCallback{}, domain.ErrInvalidSignature
	}

	amount, _ := strconv.ParseInt(params["vnp_Amount"], 10, 64)
	return usecase.GatewayCallback{
		TxnRef:        params["vnp_TxnRef"],
		TransactionNo: params["vnp_TransactionNo"],
		ResponseCode:  params["vnp_ResponseCode"],
		Amount:        amount / 100,
	}, nil
}

// hashData joins the params as k=v pairs sorted by key. encodeValues
// selects between the two hash-input forms the protocol uses: encoded
// values when signing a pay URL, raw values when verifying a callback.
func hashData(params map[string]string, encodeValues bool) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		if encodeValues {
			b.WriteString(url.QueryEscape(params[k]))
		} else {
			b.WriteString(params[k])
		}
	}
	return b.String()
}

var _ usecase.PaymentGateway = (*Client)(nil)
