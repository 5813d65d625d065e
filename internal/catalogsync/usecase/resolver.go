package usecase

import (
	"github.com/fekuna/omnipos-catalog-sync/internal/erp"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
)

// liveDemo is the ERP category of showroom units that are never listed.
const liveDemo = "Live Demo"

// Record is one ERP detail row together with the model it was listed under.
// Detail-level names win; model-level names fill the gaps.
type Record struct {
	Model  *erp.RawProduct
	Detail erp.RawProductDetail
}

func (r Record) Barcode() string { return r.Detail.PBarCode }

func (r Record) ModelID() string {
	return firstNonEmpty(r.Detail.ModelID.String(), r.Model.ModelID.String())
}

func (r Record) ModelName() string {
	return firstNonEmpty(r.Detail.ModelName, r.Model.ModelName)
}

func (r Record) CategoryName() string {
	return firstNonEmpty(r.Detail.CategoryName, r.Model.CategoryName)
}

func (r Record) BrandName() string {
	return firstNonEmpty(r.Detail.BrandName, r.Model.BrandName)
}

// IsLiveDemo reports whether either the model or the detail is filed under
// the showroom category.
func (r Record) IsLiveDemo() bool {
	return r.Model.CategoryName == liveDemo || r.Detail.CategoryName == liveDemo
}

// MatchedRecord is an ERP record whose barcode is already a local variant.
type MatchedRecord struct {
	Record
	Variant model.Variant
}

// Resolution partitions a feed by local variant identity.
type Resolution struct {
	Records   []Record
	Matched   []MatchedRecord
	Unmatched []Record
	// Keys maps every barcode in the feed to the external key of the
	// product that owns it.
	Keys map[string]model.ExternalKey
}

// Resolve matches every ERP record against the local variants by barcode.
// Records without a barcode are dropped, and a barcode seen twice in one
// feed keeps its first record.
func Resolve(products []erp.RawProduct, variants map[string]model.Variant) *Resolution {
	res := &Resolution{Keys: make(map[string]model.ExternalKey)}
	seen := make(map[string]struct{})

	for i := range products {
		p := &products[i]
		keys := productKeys(p)

		for _, d := range p.Details {
			if d.PBarCode == "" {
				continue
			}
			if _, dup := seen[d.PBarCode]; dup {
				continue
			}
			seen[d.PBarCode] = struct{}{}

			rec := Record{Model: p, Detail: d}
			res.Records = append(res.Records, rec)
			res.Keys[d.PBarCode] = keys[d.GadgetModelID.String()]

			if v, ok := variants[d.PBarCode]; ok {
				res.Matched = append(res.Matched, MatchedRecord{Record: rec, Variant: v})
			} else {
				res.Unmatched = append(res.Unmatched, rec)
			}
		}
	}
	return res
}

// productKeys decides, per gadget model id of p, which product its details
// belong to. A model whose details span more than one gadget model is split
// into one product per gadget model; otherwise every detail shares the
// model's single product.
func productKeys(p *erp.RawProduct) map[string]model.ExternalKey {
	gadgets := make(map[string]string)
	for _, d := range p.Details {
		gadgets[d.GadgetModelID.String()] = firstNonEmpty(d.ModelID.String(), p.ModelID.String())
	}

	keys := make(map[string]model.ExternalKey, len(gadgets))
	for gadget, modelID := range gadgets {
		if len(gadgets) > 1 {
			keys[gadget] = model.ExternalKey{ModelID: modelID, GadgetModelID: gadget}
			continue
		}
		keys[gadget] = model.ExternalKey{ModelID: firstNonEmpty(p.ModelID.String(), modelID)}
	}
	return keys
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
