package domain

import "time"

// Category groups products. Image is the stored file reference.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Image     string    `json:"image"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CategoryPatch carries a partial category update.
type CategoryPatch struct {
	Name  string
	Image *string
}
