// Package normalizer validates raw user records and converts them to canonical form.
package normalizer

import "areagroup/internal/models"

// Processor runs validation and transformation for one record.
type Processor struct {
	validator   *Validator
	transformer *Transformer
}

// NewProcessor creates a new processor instance.
func NewProcessor() *Processor {
	return &Processor{
		validator:   NewValidator(),
		transformer: NewTransformer(),
	}
}

// Process normalizes raw and returns the warnings found on the way.
// Validation runs against the raw labels before any stripping; warnings
// never prevent the record from being produced.
func (p *Processor) Process(raw models.RawRecord) (models.NormalizedRecord, []models.Warning) {
	// 1. Validate the raw fields
	warnings := p.validator.Validate(raw)

	// 2. Transform the keys and values
	return p.transformer.Transform(raw), warnings
}
