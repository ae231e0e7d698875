package common

// Headers shared by the gateway, the external API and the client.

const (
	AuthorizationHeader = "Authorization"
	UserIdHeader        = "x-user-id"
	ContentTypeHeader   = "Content-Type"
	JsonContentType     = "application/json"
)

// Identity is the signed-in user as the client knows it.
type Identity struct {
	Id    string `json:"id"`
	Email string `json:"email"`
}

type Item struct {
	Id                string  `json:"id"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	PurchasePrice     float64 `json:"purchasePrice"`
	SellingPrice      float64 `json:"sellingPrice"`
	Quantity          int     `json:"quantity"`
	LowStockThreshold int     `json:"lowStockThreshold"`
	ImageUrl          string  `json:"imageUrl,omitempty"`
	ImageHint         string  `json:"imageHint,omitempty"`
	UserId            string  `json:"userId,omitempty"`
}

func (item Item) IsLowStock() bool {
	return item.Quantity <= item.LowStockThreshold
}

type Sale struct {
	Id           string  `json:"id"`
	ItemId       string  `json:"itemId"`
	ItemName     string  `json:"itemName"`
	Quantity     int     `json:"quantity"`
	PricePerItem float64 `json:"pricePerItem"`
	TotalPrice   float64 `json:"totalPrice"`
	Date         string  `json:"date"`
}

// NewItem is the body accepted by POST /api/items.
type NewItem struct {
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	PurchasePrice     float64 `json:"purchasePrice"`
	SellingPrice      float64 `json:"sellingPrice"`
	Quantity          int     `json:"quantity"`
	LowStockThreshold int     `json:"lowStockThreshold"`
	ImageUrl          string  `json:"imageUrl,omitempty"`
	ImageHint         string  `json:"imageHint,omitempty"`
}

// NewSale is the body accepted by POST /api/sales.
type NewSale struct {
	ItemId   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// Message is the error body of every gateway response.
type Message struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}
