package square

import (
	"context"
	"strconv"
	"strings"

	sq "github.com/square/square-go-sdk"

	pkgerrors "github.com/shelfwatch/shelfwatch-backend/pkg/errors"
)

// CatalogItem is the normalized projection of a Square catalog ITEM object.
// VariationID points at the first variation; stock for multi-variation items
// is read from that variation only.
type CatalogItem struct {
	ObjectID    string
	Name        string
	SKU         string
	Category    string
	VariationID string
	PriceCents  *int64
	Archived    bool
}

// CatalogPage is one page of the catalog listing plus the follow-up cursor.
type CatalogPage struct {
	Items  []CatalogItem
	Cursor string
}

// ListCatalogItems fetches one page of ITEM objects with their category names.
func (c *Client) ListCatalogItems(ctx context.Context, cursor string, limit int) (*CatalogPage, error) {
	req := &sq.SearchCatalogObjectsRequest{
		ObjectTypes:           []sq.CatalogObjectType{sq.CatalogObjectTypeItem},
		IncludeRelatedObjects: boolPtr(true),
	}
	if trimmed := strings.TrimSpace(cursor); trimmed != "" {
		req.Cursor = &trimmed
	}
	if limit > 0 {
		capped := limit
		req.Limit = &capped
	}

	c.log(ctx, "request", "search_catalog", map[string]any{"cursor": cursor})
	resp, err := c.sdk.Catalog.Search(ctx, req)
	if err != nil {
		c.log(ctx, "error", "search_catalog", map[string]any{"error": err.Error()})
		return nil, c.mapSquareError(err, "search catalog")
	}

	categories := categoryNames(resp.GetRelatedObjects())
	page := &CatalogPage{Cursor: stringValue(resp.GetCursor())}
	for _, obj := range resp.GetObjects() {
		item, ok := normalizeCatalogObject(obj, categories)
		if !ok {
			continue
		}
		page.Items = append(page.Items, item)
	}

	c.log(ctx, "response", "search_catalog", map[string]any{
		"items":       len(page.Items),
		"next_cursor": page.Cursor != "",
	})
	return page, nil
}

// GetCatalogItem fetches one catalog object by id. Webhook payloads may carry
// a variation id rather than the parent item id; in that case the parent is
// resolved and returned.
func (c *Client) GetCatalogItem(ctx context.Context, objectID string) (*CatalogItem, error) {
	return c.getCatalogItem(ctx, objectID, true)
}

func (c *Client) getCatalogItem(ctx context.Context, objectID string, followParent bool) (*CatalogItem, error) {
	req := &sq.BatchGetCatalogObjectsRequest{
		ObjectIDs:             []string{objectID},
		IncludeRelatedObjects: boolPtr(true),
	}

	c.log(ctx, "request", "get_catalog_object", map[string]any{"object_id": objectID})
	resp, err := c.sdk.Catalog.BatchGet(ctx, req)
	if err != nil {
		c.log(ctx, "error", "get_catalog_object", map[string]any{"error": err.Error()})
		return nil, c.mapSquareError(err, "get catalog object")
	}

	objects := resp.GetObjects()
	if len(objects) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog object not found")
	}
	obj := objects[0]

	if variation := obj.GetItemVariation(); variation != nil {
		if !followParent {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog object is not an item")
		}
		parentID := stringValue(variation.GetItemVariationData().GetItemID())
		if parentID == "" {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variation has no parent item")
		}
		return c.getCatalogItem(ctx, parentID, false)
	}

	categories := categoryNames(resp.GetRelatedObjects())
	item, ok := normalizeCatalogObject(obj, categories)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog object is not an item")
	}
	return &item, nil
}

// InventoryCounts returns the IN_STOCK quantity per catalog variation id.
func (c *Client) InventoryCounts(ctx context.Context, variationIDs []string) (map[string]float64, error) {
	counts := map[string]float64{}
	if len(variationIDs) == 0 {
		return counts, nil
	}

	req := &sq.BatchGetInventoryCountsRequest{
		CatalogObjectIDs: variationIDs,
		States:           []sq.InventoryState{sq.InventoryStateInStock},
	}

	c.log(ctx, "request", "inventory_counts", map[string]any{"objects": len(variationIDs)})
	resp, err := c.sdk.Inventory.BatchGetCounts(ctx, req)
	if err != nil {
		c.log(ctx, "error", "inventory_counts", map[string]any{"error": err.Error()})
		return nil, c.mapSquareError(err, "batch inventory counts")
	}

	for _, count := range resp.GetCounts() {
		if count == nil {
			continue
		}
		objectID := stringValue(count.GetCatalogObjectID())
		if objectID == "" {
			continue
		}
		qty, err := strconv.ParseFloat(stringValue(count.GetQuantity()), 64)
		if err != nil {
			continue
		}
		counts[objectID] = qty
	}
	return counts, nil
}

func normalizeCatalogObject(obj *sq.CatalogObject, categories map[string]string) (CatalogItem, bool) {
	if obj == nil {
		return CatalogItem{}, false
	}
	wrapper := obj.GetItem()
	if wrapper == nil {
		return CatalogItem{}, false
	}
	data := wrapper.GetItemData()
	if data == nil {
		return CatalogItem{}, false
	}

	item := CatalogItem{
		ObjectID: wrapper.GetID(),
		Name:     stringValue(data.GetName()),
		Category: categories[stringValue(data.GetCategoryID())],
		Archived: boolValue(data.GetIsArchived()),
	}

	variations := data.GetVariations()
	if len(variations) > 0 && variations[0] != nil {
		if variation := variations[0].GetItemVariation(); variation != nil {
			item.VariationID = variation.GetID()
			if variationData := variation.GetItemVariationData(); variationData != nil {
				item.SKU = stringValue(variationData.GetSku())
				if money := variationData.GetPriceMoney(); money != nil && money.GetAmount() != nil {
					amount := *money.GetAmount()
					item.PriceCents = &amount
				}
			}
		}
	}
	return item, true
}

func categoryNames(related []*sq.CatalogObject) map[string]string {
	names := map[string]string{}
	for _, obj := range related {
		if obj == nil {
			continue
		}
		category := obj.GetCategory()
		if category == nil {
			continue
		}
		data := category.GetCategoryData()
		if data == nil {
			continue
		}
		names[stringValue(category.GetID())] = stringValue(data.GetName())
	}
	return names
}

func boolPtr(value bool) *bool {
	return &value
}

func boolValue(ptr *bool) bool {
	return ptr != nil && *ptr
}
