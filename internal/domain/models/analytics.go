package models

import "time"

// TrendClass is the direction of a fitted production line.
type TrendClass string

const (
	TrendRising  TrendClass = "rising"
	TrendFalling TrendClass = "falling"
	TrendStable  TrendClass = "stable"
)

// Tier buckets a subject by mean daily yield.
type Tier string

const (
	TierExcellent Tier = "excellent"
	TierGood      Tier = "good"
	TierRegular   Tier = "regular"
	TierLow       Tier = "low"
)

// Direction tells on which side of the mean an anomaly lies.
type Direction string

const (
	DirectionAbove Direction = "above"
	DirectionBelow Direction = "below"
)

// Priority of a recommendation.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// RecommendationCategory groups recommendations by the rule that produced them.
type RecommendationCategory string

const (
	CategoryAlert     RecommendationCategory = "alert"
	CategoryAttention RecommendationCategory = "attention"
	CategoryHerd      RecommendationCategory = "herd"
)

type TrendResult struct {
	SubjectID      string     `json:"subject_id"`
	Slope          float64    `json:"slope"`
	Classification TrendClass `json:"classification"`
}

type ForecastPoint struct {
	Date           time.Time `json:"date"`
	PredictedYield float64   `json:"predicted_yield"`
}

// ForecastSet is an ordered run of predictions. Slope and Intercept describe the
// fitted line and stay zero for strategies that do not fit one.
type ForecastSet struct {
	SubjectID  string          `json:"subject_id"`
	Method     string          `json:"method"`
	Points     []ForecastPoint `json:"points"`
	Confidence float64         `json:"confidence"`
	Slope      float64         `json:"slope"`
	Intercept  float64         `json:"intercept"`
}

type AnomalyRecord struct {
	Date           time.Time `json:"date"`
	SubjectID      string    `json:"subject_id"`
	ObservedYield  float64   `json:"observed_yield"`
	DeviationScore float64   `json:"deviation_score"`
	Direction      Direction `json:"direction"`
}

// AnomalyReport carries the truncated anomaly list; TotalAnomalies counts every
// flagged record, including the ones cut from Anomalies.
type AnomalyReport struct {
	TotalAnomalies int             `json:"total_anomalies"`
	Mean           float64         `json:"mean"`
	StdDev         float64         `json:"std_dev"`
	Anomalies      []AnomalyRecord `json:"anomalies"`
}

type PerformanceEntry struct {
	SubjectID  string     `json:"subject_id"`
	Label      string     `json:"label"`
	MeanYield  float64    `json:"mean_yield"`
	TotalYield float64    `json:"total_yield"`
	Trend      TrendClass `json:"trend"`
	Tier       Tier       `json:"tier"`
	SampleSize int        `json:"sample_size"`
}

type PerformanceReport struct {
	TotalSubjects int                `json:"total_subjects"`
	HerdMean      float64            `json:"herd_mean"`
	Entries       []PerformanceEntry `json:"entries"`
}

type Recommendation struct {
	Category     RecommendationCategory `json:"category"`
	SubjectLabel string                 `json:"subject_label,omitempty"`
	Message      string                 `json:"message"`
	Priority     Priority               `json:"priority"`
}

type RecommendationReport struct {
	Total int              `json:"total"`
	Items []Recommendation `json:"items"`
}

// Horizon names used as keys of RevenueProjection.Horizons.
const (
	HorizonWeekly  = "weekly"
	HorizonMonthly = "monthly"
	HorizonYearly  = "yearly"
)

type HorizonTotal struct {
	Yield   float64 `json:"yield"`
	Revenue float64 `json:"revenue"`
}

type RevenueProjection struct {
	DailyYieldMean   float64                 `json:"daily_yield_mean"`
	DailyRevenueMean float64                 `json:"daily_revenue_mean"`
	UnitPrice        float64                 `json:"unit_price"`
	Horizons         map[string]HorizonTotal `json:"horizons"`
}

// SectionError describes why a section of the insights view was omitted.
type SectionError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Insights is the composite dashboard view. Sections that failed are nil and
// explained in Errors.
type Insights struct {
	OwnerID         string                  `json:"owner_id"`
	GeneratedAt     time.Time               `json:"generated_at"`
	Performance     *PerformanceReport      `json:"performance,omitempty"`
	Recommendations *RecommendationReport   `json:"recommendations,omitempty"`
	Revenue         *RevenueProjection      `json:"revenue,omitempty"`
	Anomalies       *AnomalyReport          `json:"anomalies,omitempty"`
	Errors          map[string]SectionError `json:"errors,omitempty"`
}
