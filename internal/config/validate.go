package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateRules(); err != nil {
		return err
	}
	if err := c.validateDedupe(); err != nil {
		return err
	}
	if err := c.validateReference(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.BatchSize < 1 || c.Pipeline.BatchSize > maxBatchSize {
		return fmt.Errorf("pipeline.batch_size must be between 1 and %d", maxBatchSize)
	}
	if c.Pipeline.MaxAttempts < 1 {
		return errors.New("pipeline.max_attempts must be positive")
	}
	if err := ensurePercent(map[string]int{
		"pipeline.final_validation_min_confidence": c.Pipeline.FinalValidationMinConfidence,
		"pipeline.oracle_category_min_confidence":  c.Pipeline.OracleCategoryMinConfidence,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRules() error {
	if c.Rules.CalorieTolerance <= 0 || c.Rules.CalorieTolerance >= 1 {
		return errors.New("rules.calorie_tolerance must be between 0 and 1")
	}
	if c.Rules.AlcoholCalorieTolerance < c.Rules.CalorieTolerance || c.Rules.AlcoholCalorieTolerance >= 1 {
		return errors.New("rules.alcohol_calorie_tolerance must be at least rules.calorie_tolerance and below 1")
	}
	if c.Rules.ExemptCalorieCeiling < 0 {
		return errors.New("rules.exempt_calorie_ceiling must be >= 0")
	}
	if c.Rules.DensityBuffer < 0 || c.Rules.DensityBuffer > 0.5 {
		return errors.New("rules.density_buffer must be between 0 and 0.5")
	}
	return nil
}

func (c *Config) validateDedupe() error {
	if c.Dedupe.Threshold <= 0 || c.Dedupe.Threshold > 1 {
		return errors.New("dedupe.threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateReference() error {
	if c.Reference.PageSize > 200 {
		return errors.New("reference.page_size must be <= 200")
	}
	return nil
}

func ensurePercent(values map[string]int) error {
	for key, value := range values {
		if value < 0 || value > 100 {
			return fmt.Errorf("%s must be between 0 and 100", key)
		}
	}
	return nil
}
