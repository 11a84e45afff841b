package domain

import "time"

// TimeLayout is fixed width so that lexical order of stored timestamps
// matches chronological order on every driver.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func FormatTime(t time.Time) string { return t.UTC().Format(TimeLayout) }

// ProductID is the typed reference a Bid holds to its Product.
type ProductID string

type ProductStatus string

const (
	ProductPending ProductStatus = "pending"
	ProductSold    ProductStatus = "sold"
)

func (s ProductStatus) Valid() bool { return s == ProductPending || s == ProductSold }

type BidStatus string

const (
	BidPending   BidStatus = "pending"
	BidConfirmed BidStatus = "confirmed"
	BidRejected  BidStatus = "rejected"
)

// ProductFields are the descriptive, owner-mutable attributes of a listing.
type ProductFields struct {
	Title         string  `db:"title" json:"title"`
	Category      string  `db:"category" json:"category"`
	Image         string  `db:"image" json:"image"`
	PriceMin      float64 `db:"price_min" json:"price_min"`
	PriceMax      float64 `db:"price_max" json:"price_max"`
	Condition     string  `db:"condition" json:"condition"` // fresh | used
	Usage         string  `db:"usage" json:"usage"`
	Description   string  `db:"description" json:"description"`
	Location      string  `db:"location" json:"location"`
	SellerName    string  `db:"seller_name" json:"seller_name"`
	SellerImage   string  `db:"seller_image" json:"seller_image"`
	SellerContact string  `db:"seller_contact" json:"seller_contact"`
}

type Product struct {
	ID           ProductID     `db:"id" json:"id"`
	Email        string        `db:"email" json:"email"`
	Status       ProductStatus `db:"status" json:"status"`
	ConfirmedBid string        `db:"confirmed_bid" json:"-"` // winning bid, kept off public reads
	CreatedAt    string        `db:"created_at" json:"created_at"`
	ProductFields
}

type Bid struct {
	ID           string    `db:"id" json:"id"`
	Product      ProductID `db:"product" json:"product"`
	BuyerEmail   string    `db:"buyer_email" json:"buyer_email"`
	BuyerName    string    `db:"buyer_name" json:"buyer_name"`
	BuyerImage   string    `db:"buyer_image" json:"buyer_image"`
	BuyerContact string    `db:"buyer_contact" json:"buyer_contact"`
	BidPrice     float64   `db:"bid_price" json:"bid_price"`
	Status       BidStatus `db:"status" json:"status"`
	CreatedAt    string    `db:"created_at" json:"created_at"`
}
