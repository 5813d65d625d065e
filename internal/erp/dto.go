package erp

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is an ERP identifier. Depending on the endpoint the ERP sends ids as
// JSON numbers or strings; both decode to the same canonical string, and
// null decodes to "".
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = ""
		return nil
	}

	var raw string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		raw = n.String()
	}

	*id = ID(CanonicalID(raw))
	return nil
}

func (id ID) String() string {
	return string(id)
}

// CanonicalID strips surrounding space and leading zeros from integral ids
// so "0500" and 500 compare equal.
func CanonicalID(s string) string {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return s
}

// Number is an ERP numeric field. Quantities and prices arrive as JSON
// numbers or numeric strings; null and "" decode to 0.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	raw := string(b)
	if raw == "null" {
		*n = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*n = 0
			return nil
		}
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("erp: invalid number %s: %w", b, err)
	}
	*n = Number(f)
	return nil
}

func (n Number) Float64() float64 {
	return float64(n)
}

type ProductFilter struct {
	CategoryName string `json:"categoryName"`
	ProductName  string `json:"productName"`
	ModelName    string `json:"modelName"`
	BrandName    string `json:"brandName"`
	CreateDate   string `json:"createDate"`
}

type StockFilter struct {
	Barcode   string `json:"barcode"`
	ModelName string `json:"modelName"`
	ShopID    string `json:"shopID"`
}

// withDefaults fills unset fields with the ERP wildcard.
func (f StockFilter) withDefaults() StockFilter {
	if f.Barcode == "" {
		f.Barcode = "ALL"
	}
	if f.ModelName == "" {
		f.ModelName = "ALL"
	}
	if f.ShopID == "" {
		f.ShopID = "ALL"
	}
	return f
}

// RawProduct is one ERP model with its per-barcode detail records.
type RawProduct struct {
	ModelID      ID                 `json:"modelId"`
	ModelName    string             `json:"modelName"`
	CategoryName string             `json:"categoryName"`
	BrandName    string             `json:"brandName"`
	Details      []RawProductDetail `json:"productDetailResponses"`
}

type RawProductDetail struct {
	ModelID        ID     `json:"modelId"`
	ModelName      string `json:"modelName"`
	CategoryName   string `json:"categoryName"`
	BrandName      string `json:"brandName"`
	ItemID         ID     `json:"itemId"`
	GadgetModelID  ID     `json:"gadgetModelID"`
	PBarCode       string `json:"pBarCode"`
	SBarCode       string `json:"sBarCode"`
	ModelNo        string `json:"modelNo"`
	ColorName      string `json:"colorName"`
	MemoryCapacity string `json:"memoryCapacity"`
	SalePrice      Number `json:"salePrice"`
	CostPrice      Number `json:"costPrice"`
	PointEarn      Number `json:"pointEarn"`
	VatPercent     Number `json:"vatPercent"`
}

type RawStockEntry struct {
	StockList []RawStockItem `json:"stockList"`
}

type RawStockItem struct {
	PBarcode string `json:"pBarcode"`
	ShopID   ID     `json:"shopID"`
	BalQty   Number `json:"balQty"`
}

type envelope[T any] struct {
	Data T `json:"data"`
}

type authRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type authResponse struct {
	AccessToken string `json:"access_token"`
}
