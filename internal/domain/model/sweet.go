package model

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices and totals go over the wire as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

type Category string

const (
	CategoryChocolate Category = "chocolate"
	CategoryCandy     Category = "candy"
	CategoryGummy     Category = "gummy"
	CategoryHardCandy Category = "hard candy"
	CategoryToffee    Category = "toffee"
	CategoryLollipop  Category = "lollipop"
	CategoryOther     Category = "other"
)

var Categories = []Category{
	CategoryChocolate,
	CategoryCandy,
	CategoryGummy,
	CategoryHardCandy,
	CategoryToffee,
	CategoryLollipop,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// DefaultImageURL is served when a sweet is created without an image.
const DefaultImageURL = "https://images.pexels.com/photos/1684718/pexels-photo-1684718.jpeg"

// MinPrice is the smallest sellable unit price.
var MinPrice = decimal.NewFromFloat(0.01)

// Sweet is the sole inventory entity. Quantity is the stock counter and is
// only ever changed through a version-checked conditional update; Version is
// bumped on every write and never leaves the process.
type Sweet struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(100);not null" json:"name"`
	Category    Category        `gorm:"type:varchar(20);not null;index" json:"category"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Quantity    int64           `gorm:"not null;default:0" json:"quantity"`
	Description string          `gorm:"type:varchar(500)" json:"description,omitempty"`
	ImageURL    string          `gorm:"not null" json:"imageUrl"`
	Version     int64           `gorm:"not null;default:0" json:"-"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime;index" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}
