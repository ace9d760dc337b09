// Package api defines the JSON documents exchanged between a label station
// and its clients, and validates incoming requests.
package api

import (
	"time"

	"github.com/muurk/labelgen/internal/catalog"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

// VersionResponse reports the station build.
type VersionResponse struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Workbook string `json:"workbook"`
	Products int    `json:"products"`
	Clients  int    `json:"clients"`
}

// Category is a category with its product count.
type Category struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Products int    `json:"products"`
}

// CreateCategoryRequest adds a category. A nil ID is assigned by the
// station.
type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	ID   *int   `json:"id,omitempty" validate:"omitempty,gte=0,lte=999"`
}

// UpdateCategoryRequest renames a category and/or changes its ID.
type UpdateCategoryRequest struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	ID   *int    `json:"id,omitempty" validate:"omitempty,gte=0,lte=999"`
}

// Product is a product as served by the station.
type Product struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Price        string `json:"price"`
	DisplayPrice string `json:"display_price"`
	CategoryID   int    `json:"category_id"`
	CategoryName string `json:"category_name"`
	Code         string `json:"code"`
}

// FromProduct converts a catalog product.
func FromProduct(p catalog.Product) Product {
	return Product{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price,
		DisplayPrice: p.DisplayPrice(),
		CategoryID:   p.CategoryID,
		CategoryName: p.CategoryName,
		Code:         p.Code(),
	}
}

// CreateProductRequest adds a product. Category is a name or numeric ID;
// ID 0 lets the station assign the next free ID.
type CreateProductRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Price    string `json:"price" validate:"required"`
	Category string `json:"category" validate:"required"`
	ID       int    `json:"id,omitempty" validate:"gte=0,lte=999999"`
}

// UpdateProductRequest changes selected product fields.
type UpdateProductRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Price    *string `json:"price,omitempty" validate:"omitempty,min=1"`
	Category *string `json:"category,omitempty" validate:"omitempty,min=1"`
	ID       *int    `json:"id,omitempty" validate:"omitempty,gte=1,lte=999999"`
}

// LabelRequest asks the station to generate label documents.
type LabelRequest struct {
	Items      []LabelItem `json:"items" validate:"required,min=1,max=500,dive"`
	Merge      *bool       `json:"merge,omitempty"`
	FillPage   bool        `json:"fill_page,omitempty"`
	Template   string      `json:"template,omitempty" validate:"omitempty,max=200,filename"`
	OutputName string      `json:"output_name,omitempty" validate:"omitempty,max=100,filename"`
}

// LabelItem selects one product. Quantity 0 means the station default.
type LabelItem struct {
	Category string `json:"category" validate:"required"`
	ID       int    `json:"id" validate:"gte=1,lte=999999"`
	Quantity int    `json:"quantity,omitempty" validate:"omitempty,gte=1,lte=999"`
}

// JobStatus is the lifecycle state of a generation job.
type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Finished reports whether the job reached a terminal state.
func (s JobStatus) Finished() bool {
	return s == JobDone || s == JobFailed
}

// Job is a snapshot of a label generation job.
type Job struct {
	ID            string    `json:"id"`
	Status        JobStatus `json:"status"`
	Stage         string    `json:"stage,omitempty"`
	Percent       float64   `json:"percent"`
	Message       string    `json:"message,omitempty"`
	Files         []string  `json:"files,omitempty"` // Base names, download via /api/jobs/{id}/files/{name}
	Pages         int       `json:"pages"`
	Labels        int       `json:"labels"`
	MissingImages []string  `json:"missing_images,omitempty"`
	Error         string    `json:"error,omitempty"`
	Created       time.Time `json:"created"`
	Finished      time.Time `json:"finished,omitempty"`
}

// Event types sent over the WebSocket feed.
const (
	EventJob     = "job"
	EventCatalog = "catalog"
)

// Event is one message on the WebSocket feed.
type Event struct {
	Type    string    `json:"type"`
	Job     *Job      `json:"job,omitempty"`
	Message string    `json:"message,omitempty"`
	Time    time.Time `json:"time"`
}

// LogEntry is one journal line served by /api/logs.
type LogEntry struct {
	Time    time.Time         `json:"time"`
	Level   string            `json:"level"`
	Module  string            `json:"module"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Template describes a label template available on the station.
type Template struct {
	Name         string  `json:"name"`
	Rows         int     `json:"rows"`
	Cols         int     `json:"cols"`
	Capacity     int     `json:"capacity"`
	CellWidthMM  float64 `json:"cell_width_mm"`
	CellHeightMM float64 `json:"cell_height_mm"`
	Default      bool    `json:"default,omitempty"`
	Error        string  `json:"error,omitempty"` // Set when the file is not a usable template
}

// UndoResponse reports the change that was reverted.
type UndoResponse struct {
	Undone string    `json:"undone"`
	Time   time.Time `json:"time"`
}
