package item

import (
	"strconv"
	"time"

	domitem "github.com/mylost-cloud/mylost/internal/domain/item"
)

// Hash field names for the lost-item document. The location field holds
// "lng,lat" for the GEO index; latitude/longitude are duplicated as numerics
// so rectangular region filters stay plain numeric ranges.
const (
	fieldID             = "id"
	fieldCategory       = "category"
	fieldDescription    = "description"
	fieldFoundAtAddress = "found_at_address"
	fieldNotes          = "notes"
	fieldImageURL       = "image_url"
	fieldFinderName     = "finder_name"
	fieldFinderEmail    = "finder_email"
	fieldFinderPhone    = "finder_phone"
	fieldLatitude       = "latitude"
	fieldLongitude      = "longitude"
	fieldLocation       = "location"
	fieldCreatedAt      = "created_at"
)

// buildHashFields converts a domain LostItem into a flat map[string]string for HSET.
func buildHashFields(it *domitem.LostItem) map[string]string {
	m := map[string]string{
		fieldID:             it.ID,
		fieldCategory:       it.Category,
		fieldDescription:    it.Description,
		fieldFoundAtAddress: it.FoundAtAddress,
		fieldLatitude:       formatFloat(it.Latitude),
		fieldLongitude:      formatFloat(it.Longitude),
		fieldLocation:       formatFloat(it.Longitude) + "," + formatFloat(it.Latitude),
		fieldCreatedAt:      strconv.FormatInt(it.CreatedAt.UnixMilli(), 10),
		fieldFinderName:     it.Finder.Name,
	}
	if it.Notes != "" {
		m[fieldNotes] = it.Notes
	}
	if it.ImageURL != "" {
		m[fieldImageURL] = it.ImageURL
	}
	if it.Finder.Email != "" {
		m[fieldFinderEmail] = it.Finder.Email
	}
	if it.Finder.Phone != "" {
		m[fieldFinderPhone] = it.Finder.Phone
	}
	return m
}

// parseHashFields converts a flat hash map back into a domain LostItem.
func parseHashFields(id string, m map[string]string) domitem.LostItem {
	it := domitem.LostItem{
		ID:             id,
		Category:       m[fieldCategory],
		Description:    m[fieldDescription],
		FoundAtAddress: m[fieldFoundAtAddress],
		Notes:          m[fieldNotes],
		ImageURL:       m[fieldImageURL],
		Finder: domitem.FinderInfo{
			Name:  m[fieldFinderName],
			Email: m[fieldFinderEmail],
			Phone: m[fieldFinderPhone],
		},
	}

	if v, err := strconv.ParseFloat(m[fieldLatitude], 64); err == nil {
		it.Latitude = v
	}
	if v, err := strconv.ParseFloat(m[fieldLongitude], 64); err == nil {
		it.Longitude = v
	}
	if ms, err := strconv.ParseInt(m[fieldCreatedAt], 10, 64); err == nil {
		it.CreatedAt = time.UnixMilli(ms).UTC()
	}

	return it
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
