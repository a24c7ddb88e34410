package fulfillment

import (
	"context"
	"fmt"
	"net/url"
)

// BrandCount is one row of the brand breakdown tables.
type BrandCount struct {
	Brand       string `json:"brand"`
	TotalOrders int    `json:"totalOrders"`
}

type brandsResponse struct {
	Success bool         `json:"success"`
	Brands  []BrandCount `json:"brands"`
	Error   string       `json:"error"`
}

// SatBrands returns the per-brand order counts of a picklist's same-day batch.
func (c *Client) SatBrands(ctx context.Context, picklist string) ([]BrandCount, error) {
	return c.brands(ctx, "get_sat_brands", "fullfilment/get_sat_brands/", picklist)
}

// BrandData returns the per-brand order counts of a picklist.
func (c *Client) BrandData(ctx context.Context, picklist string) ([]BrandCount, error) {
	return c.brands(ctx, "get_brand_data", "fullfilment/get_brand_data/", picklist)
}

func (c *Client) brands(ctx context.Context, endpoint, path, picklist string) ([]BrandCount, error) {
	var out brandsResponse
	if err := c.getJSON(ctx, endpoint, path+"?nama_batch="+url.QueryEscape(picklist), &out); err != nil {
		return nil, err
	}
	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = "request failed"
		}
		return nil, fmt.Errorf("%s: %s", endpoint, msg)
	}
	return out.Brands, nil
}
