package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"mindhaven/internal/observability"
)

type Predictor interface {
	Predict(ctx context.Context, features any) (json.RawMessage, error)
}

// PredictionFeatures is the feature vector of the hosted model. The JSON names
// are the model's column names and must not change.
type PredictionFeatures struct {
	Gender                       *float64 `json:"Gender"`
	Age                          *float64 `json:"Age"`
	AcademicPressure             *float64 `json:"Academic Pressure"`
	StudySatisfaction            *float64 `json:"Study Satisfaction"`
	SleepDuration                *float64 `json:"Sleep Duration"`
	DietaryHabits                *float64 `json:"Dietary Habits"`
	SuicidalThoughts             *float64 `json:"Have you ever had suicidal thoughts ?"`
	StudyHours                   *float64 `json:"Study Hours"`
	FinancialStress              *float64 `json:"Financial Stress"`
	FamilyHistoryOfMentalIllness *float64 `json:"Family History of Mental Illness"`
}

type featureRange struct {
	name     string
	value    *float64
	min, max float64
}

func (f PredictionFeatures) ranges() []featureRange {
	return []featureRange{
		{"Gender", f.Gender, 0, 1},
		{"Age", f.Age, 10, 100},
		{"Academic Pressure", f.AcademicPressure, 1, 10},
		{"Study Satisfaction", f.StudySatisfaction, 1, 10},
		{"Sleep Duration", f.SleepDuration, 0, 3},
		{"Dietary Habits", f.DietaryHabits, 0, 2},
		{"Have you ever had suicidal thoughts ?", f.SuicidalThoughts, 0, 1},
		{"Study Hours", f.StudyHours, 0, 18},
		{"Financial Stress", f.FinancialStress, 1, 10},
		{"Family History of Mental Illness", f.FamilyHistoryOfMentalIllness, 0, 1},
	}
}

// Validate requires every feature and checks it against the model's domain.
func (f PredictionFeatures) Validate() error {
	for _, r := range f.ranges() {
		if r.value == nil {
			return validationError("%s is required", r.name)
		}
		if *r.value < r.min || *r.value > r.max {
			return validationError("%s must be between %g and %g", r.name, r.min, r.max)
		}
	}
	return nil
}

type PredictionService struct {
	predictor Predictor
	log       *slog.Logger
}

func NewPredictionService(predictor Predictor, log *slog.Logger) *PredictionService {
	return &PredictionService{predictor: predictor, log: log}
}

// Predict returns the upstream response body verbatim.
func (s *PredictionService) Predict(ctx context.Context, features PredictionFeatures) (json.RawMessage, error) {
	if err := features.Validate(); err != nil {
		return nil, err
	}

	result, err := s.predictor.Predict(ctx, features)
	if err != nil {
		observability.RecordUpstreamFailure(observability.UpstreamPredictor)
		s.log.Error("prediction call failed", "err", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return result, nil
}
