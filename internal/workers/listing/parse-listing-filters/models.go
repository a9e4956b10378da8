// internal/workers/listing/parse-listing-filters/models.go
package parselistingfilters

import "github.com/hazlijohar95/creatorschapter-sub000/internal/engine/listing"

type Input struct {
	RawFilters map[string]interface{} `json:"rawFilters"`
}

type Output struct {
	ListingQuery listing.Query `json:"listingQuery"`
}
