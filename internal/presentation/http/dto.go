package httppresentation

import (
	"time"

	domcart "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/cart"
	dominv "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/inventory"
	domorder "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/order"

	"github.com/shopspring/decimal"
)

func money(d decimal.Decimal) string { return d.StringFixed(2) }

type cartItemResponse struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	ImageURL    string `json:"image_url,omitempty"`
	UnitPrice   string `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	LineTotal   string `json:"line_total"`
}

type cartResponse struct {
	UserID    string             `json:"user_id"`
	Items     []cartItemResponse `json:"items"`
	Subtotal  string             `json:"subtotal"`
	Tax       string             `json:"tax"`
	Shipping  string             `json:"shipping"`
	Discount  string             `json:"discount"`
	Total     string             `json:"total"`
	UpdatedAt time.Time          `json:"updated_at"`
	Modified  *bool              `json:"modified,omitempty"`
}

func newCartResponse(c *domcart.Cart) cartResponse {
	resp := cartResponse{
		UserID:    c.UserID,
		Items:     make([]cartItemResponse, 0, len(c.Items)),
		Subtotal:  money(c.Subtotal),
		Tax:       money(c.Tax),
		Shipping:  money(c.Shipping),
		Discount:  money(c.Discount),
		Total:     money(c.Total),
		UpdatedAt: c.UpdatedAt,
	}
	for _, it := range c.Items {
		resp.Items = append(resp.Items, cartItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			ImageURL:    it.ImageURL,
			UnitPrice:   money(it.UnitPrice),
			Quantity:    it.Quantity,
			LineTotal:   money(it.LineTotal()),
		})
	}
	return resp
}

type addressPayload struct {
	FullName   string `json:"full_name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

func (a addressPayload) toDomain() domorder.ShippingAddress {
	return domorder.ShippingAddress{
		FullName:   a.FullName,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
	}
}

type orderItemResponse struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	ImageURL    string `json:"image_url,omitempty"`
	UnitPrice   string `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	LineTotal   string `json:"line_total"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	Number          string              `json:"number"`
	UserID          string              `json:"user_id"`
	Items           []orderItemResponse `json:"items"`
	TotalAmount     string              `json:"total_amount"`
	ShippingAddress addressPayload      `json:"shipping_address"`
	PaymentMethod   string              `json:"payment_method"`
	Status          string              `json:"status"`
	PaymentStatus   string              `json:"payment_status"`
	TrackingNumber  string              `json:"tracking_number,omitempty"`
	Carrier         string              `json:"carrier,omitempty"`
	CancelReason    string              `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func newOrderResponse(o *domorder.Order) orderResponse {
	a := o.ShippingAddress
	resp := orderResponse{
		ID:          o.ID,
		Number:      o.Number,
		UserID:      o.UserID,
		Items:       make([]orderItemResponse, 0, len(o.Items)),
		TotalAmount: money(o.TotalAmount),
		ShippingAddress: addressPayload{
			FullName:   a.FullName,
			Line1:      a.Line1,
			Line2:      a.Line2,
			City:       a.City,
			State:      a.State,
			PostalCode: a.PostalCode,
			Country:    a.Country,
			Phone:      a.Phone,
		},
		PaymentMethod:  string(o.PaymentMethod),
		Status:         string(o.Status),
		PaymentStatus:  string(o.PaymentStatus),
		TrackingNumber: o.TrackingNumber,
		Carrier:        o.Carrier,
		CancelReason:   o.CancelReason,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			ImageURL:    it.ImageURL,
			UnitPrice:   money(it.UnitPrice),
			Quantity:    it.Quantity,
			LineTotal:   money(it.LineTotal),
		})
	}
	return resp
}

type productResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	ImageURL       string    `json:"image_url,omitempty"`
	Price          string    `json:"price"`
	DiscountPrice  *string   `json:"discount_price,omitempty"`
	EffectivePrice string    `json:"effective_price"`
	Stock          int       `json:"stock"`
	Active         bool      `json:"active"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func newProductResponse(p *dominv.Product) productResponse {
	resp := productResponse{
		ID:             p.ID,
		Name:           p.Name,
		ImageURL:       p.ImageURL,
		Price:          money(p.Price),
		EffectivePrice: money(p.EffectivePrice()),
		Stock:          p.Stock,
		Active:         p.Active,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.DiscountPrice != nil {
		d := money(*p.DiscountPrice)
		resp.DiscountPrice = &d
	}
	return resp
}
