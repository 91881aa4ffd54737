package domain

import "github.com/shopspring/decimal"

const (
	CustomerPartition = "Customer"
	ProductPartition  = "Product"
)

// CustomerRecord is the denormalized customer copy kept in the Customers table.
type CustomerRecord struct {
	PartitionKey   string `json:"PartitionKey"`
	RowKey         string `json:"RowKey"`
	Email          string `json:"Email"`
	DisplayName    string `json:"DisplayName"`
	IdentityUserID string `json:"IdentityUserId"`
}

func (r CustomerRecord) Keys() (string, string) { return r.PartitionKey, r.RowKey }

func NewCustomerRecord(identityUserID, email, displayName string) CustomerRecord {
	return CustomerRecord{
		PartitionKey:   CustomerPartition,
		RowKey:         identityUserID,
		Email:          email,
		DisplayName:    displayName,
		IdentityUserID: identityUserID,
	}
}

// ProductRecord is the denormalized product copy kept in the Products table.
type ProductRecord struct {
	PartitionKey string          `json:"PartitionKey"`
	RowKey       string          `json:"RowKey"`
	Name         string          `json:"Name"`
	Price        decimal.Decimal `json:"Price"`
	BlobName     string          `json:"BlobName"`
	ImageURL     string          `json:"ImageUrl"`
}

func (r ProductRecord) Keys() (string, string) { return r.PartitionKey, r.RowKey }

func NewProductRecord(p *Product) ProductRecord {
	return ProductRecord{
		PartitionKey: ProductPartition,
		RowKey:       p.ID,
		Name:         p.Name,
		Price:        p.Price,
		BlobName:     p.BlobName,
		ImageURL:     p.ImageURL,
	}
}
