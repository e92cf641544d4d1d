package models

// Requests for analytics HTTP endpoints. Defined in domain for consistency and reuse.

type OwnerRequest struct {
	OwnerID string `query:"owner_id" json:"owner_id" validate:"required"`
}

type TrendRequest struct {
	OwnerID   string `query:"owner_id" json:"owner_id" validate:"required"`
	SubjectID string `query:"subject_id" json:"subject_id" validate:"required"`
}

type ForecastRequest struct {
	OwnerID   string `query:"owner_id" json:"owner_id" validate:"required"`
	SubjectID string `query:"subject_id" json:"subject_id" validate:"required"`
	DaysAhead int    `query:"days_ahead" json:"days_ahead" default:"7" validate:"gte=1"`
}

type RevenueRequest struct {
	OwnerID   string  `query:"owner_id" json:"owner_id" validate:"required"`
	UnitPrice float64 `query:"unit_price" json:"unit_price" validate:"gte=0"`
}

// YieldRequest records one production day. Date uses DateLayout.
type YieldRequest struct {
	OwnerID   string  `json:"owner_id" validate:"required"`
	SubjectID string  `json:"subject_id" validate:"required"`
	Date      string  `json:"date" validate:"required,datetime=2006-01-02"`
	Morning   float64 `json:"morning" validate:"gte=0"`
	Afternoon float64 `json:"afternoon" validate:"gte=0"`
}

// SubjectRequest names a subject. The label shows up in recommendations.
type SubjectRequest struct {
	OwnerID   string `json:"owner_id" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
	Label     string `json:"label" validate:"max=120"`
}
