package models

// LatLng is a geographic point picked on the map.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ImageRecord is the persisted metadata for one generated image. The binary
// content lives in blob storage; this record only carries its public URL.
type ImageRecord struct {
	ID        string   `json:"id"`
	URL       string   `json:"url"`
	Prompt    string   `json:"prompt"`
	Lat       *float64 `json:"lat,omitempty"`
	Lng       *float64 `json:"lng,omitempty"`
	CreatedAt string   `json:"createdAt"`
	Likes     int      `json:"likes"`
}

// GalleryPage is one page of the public gallery listing.
type GalleryPage struct {
	Images     []ImageRecord `json:"images"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"totalPages"`
}

// Result types for GenerationResult.
const (
	ResultTypeText  = "text"
	ResultTypeImage = "image"
)

// GenerationResult is the outcome of one generation call. Type discriminates
// between an inline image (MimeType + base64 Data, no data: URI prefix) and a
// plain text reply (Content). TempID, Prompt and LatLng are echoed back on
// image results so the client can request persistence later without
// regenerating. SavedURL/SavedID are set only when auto-save persisted the
// image in the same call.
type GenerationResult struct {
	Type     string  `json:"type"`
	Content  string  `json:"content"`
	MimeType string  `json:"mimeType"`
	Data     string  `json:"data"`
	TempID   string  `json:"tempId,omitempty"`
	Prompt   string  `json:"prompt,omitempty"`
	LatLng   *LatLng `json:"latLng,omitempty"`
	SavedURL string  `json:"savedUrl,omitempty"`
	SavedID  string  `json:"savedId,omitempty"`
}
