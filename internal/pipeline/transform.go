package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/flight-disruption-verifier/internal/domain"
)

// ClaimAssessor assesses one parsed claim.
type ClaimAssessor interface {
	Process(ctx context.Context, data domain.ParsedFlightData) domain.ClaimAssessment
}

// ClaimTransformer decodes parsed-claim messages and runs them through the
// claim processor.
type ClaimTransformer struct {
	assessor ClaimAssessor
	logger   *slog.Logger
}

// NewTransformer creates a ClaimTransformer.
func NewTransformer(assessor ClaimAssessor, logger *slog.Logger) *ClaimTransformer {
	return &ClaimTransformer{assessor: assessor, logger: logger}
}

// Transform fails only for messages that are not a valid claim. Upstream
// lookups that fail degrade inside the assessment instead.
func (t *ClaimTransformer) Transform(ctx context.Context, raw domain.RawMessage) (domain.ClaimAssessment, error) {
	data, err := DecodeClaim(raw)
	if err != nil {
		return domain.ClaimAssessment{}, err
	}
	return t.assessor.Process(ctx, data), nil
}

// DecodeClaim parses and validates a parsed-claim message. A claim without an
// ID takes the message key.
func DecodeClaim(raw domain.RawMessage) (domain.ParsedFlightData, error) {
	var data domain.ParsedFlightData
	if err := json.Unmarshal(raw.Value, &data); err != nil {
		return domain.ParsedFlightData{}, fmt.Errorf("decode claim: %w", err)
	}
	if data.ClaimID == "" && len(raw.Key) > 0 {
		data.ClaimID = string(raw.Key)
	}
	if err := data.Validate(); err != nil {
		return domain.ParsedFlightData{}, err
	}
	return data, nil
}
