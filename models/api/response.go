package api

import "time"

type RenderRequest struct {
	URL       string  `json:"url" binding:"required"`
	Text      string  `json:"text" binding:"required"`
	Format    string  `json:"format,omitempty"`
	MaxSizeMB float64 `json:"maxSizeMB,omitempty"`
}

type RenderResponse struct {
	ID          string        `json:"id"`
	File        string        `json:"file"`
	ContentType string        `json:"contentType"`
	Frames      int           `json:"frames"`
	Bytes       int           `json:"bytes"`
	Applied     int           `json:"applied"`
	Notice      *string       `json:"notice,omitempty"`
	Elapsed     time.Duration `json:"elapsedNs"`
}

type TemplatesResponse struct {
	Templates []string `json:"templates"`
	Filters   []string `json:"filters"`
}

type ErrorResponse struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}
