package pollbase

import (
	"context"
	"net/url"
)

// GeographicService reads the geographic hierarchy used for election
// scoping and collation: regions contain districts contain wards.
type GeographicService struct {
	c *Client
}

// Regions returns all top-level regions.
func (s *GeographicService) Regions(ctx context.Context) ([]Region, error) {
	var rs []Region
	if err := s.c.get(ctx, "/v1/geographic/regions", nil, &rs); err != nil {
		return nil, err
	}
	return rs, nil
}

// Districts returns the districts within a region.
func (s *GeographicService) Districts(ctx context.Context, regionID string) ([]District, error) {
	var ds []District
	if err := s.c.get(ctx, "/v1/geographic/regions/"+url.PathEscape(regionID)+"/districts", nil, &ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// Wards returns the wards within a district.
func (s *GeographicService) Wards(ctx context.Context, districtID string) ([]Ward, error) {
	var ws []Ward
	if err := s.c.get(ctx, "/v1/geographic/districts/"+url.PathEscape(districtID)+"/wards", nil, &ws); err != nil {
		return nil, err
	}
	return ws, nil
}
