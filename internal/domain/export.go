package domain

import "time"

// ExportConfig is the delivery configuration stored next to the data
// (config/autoexport in the document store).
type ExportConfig struct {
	Email string `json:"email" db:"email"`
}

// DTOs for requests and responses

type ExportRequest struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

type ExportResponse struct {
	RunID     string    `json:"run_id"`
	Filename  string    `json:"filename"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Sheets    int       `json:"sheets"`
	Rows      int       `json:"rows"`
	Recipient string    `json:"recipient,omitempty"`
}

// Export is one generated and rendered workbook
type Export struct {
	RunID    string
	Start    time.Time
	End      time.Time
	Filename string
	Content  []byte
	Sheets   int
	Rows     int
}

// Response returns the JSON summary of the export
func (e *Export) Response(recipient string) *ExportResponse {
	return &ExportResponse{
		RunID:     e.RunID,
		Filename:  e.Filename,
		StartDate: e.Start,
		EndDate:   e.End,
		Sheets:    e.Sheets,
		Rows:      e.Rows,
		Recipient: recipient,
	}
}
