package models

import "time"

// DocumentRef points at an uploaded document saved on local disk.
type DocumentRef struct {
	FileName string    `json:"file_name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	SavedAt  time.Time `json:"saved_at"`
}
