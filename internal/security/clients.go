package security

// In-memory client registry (replace with DB/config later)
type Client struct {
	ID      string
	Secret  string
	Perms   []string // e.g. {"orders.read","orders.write"}
	Enabled bool
}

var Clients = map[string]Client{
	"storefront":      {ID: "storefront", Secret: "storefront-secret", Perms: []string{"orders.read", "orders.write", "coupons.read", "payments.write"}, Enabled: true},
	"back-office":     {ID: "back-office", Secret: "back-office-secret", Perms: []string{"orders.read", "orders.write", "orders.admin", "coupons.read"}, Enabled: true},
	"svc-fulfillment": {ID: "svc-fulfillment", Secret: "fulfillment-secret", Perms: []string{"orders.read"}, Enabled: true},
}
