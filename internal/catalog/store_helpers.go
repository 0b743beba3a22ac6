package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

const recordColumns = "id, name, brand, category, serving_quantity, serving_unit, serving_description, calories, protein_g, carbs_g, fat_g, fiber_g, sugar_g, micronutrients_json, source_name, source_external_id, state, quality_score, verification_attempts, deferrals, last_verified_at, audit_json, review_flags_json, created_at, updated_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id               int64
		name             string
		brand            sql.NullString
		category         sql.NullString
		servingQty       float64
		servingUnit      sql.NullString
		servingDesc      sql.NullString
		calories         float64
		protein          float64
		carbs            float64
		fat              float64
		fiber            sql.NullFloat64
		sugar            sql.NullFloat64
		microsRaw        sql.NullString
		sourceName       sql.NullString
		sourceExternalID sql.NullString
		stateStr         string
		qualityScore     int
		attempts         int
		deferrals        int
		lastVerifiedRaw  sql.NullString
		audit            sql.NullString
		flagsRaw         sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&name,
		&brand,
		&category,
		&servingQty,
		&servingUnit,
		&servingDesc,
		&calories,
		&protein,
		&carbs,
		&fat,
		&fiber,
		&sugar,
		&microsRaw,
		&sourceName,
		&sourceExternalID,
		&stateStr,
		&qualityScore,
		&attempts,
		&deferrals,
		&lastVerifiedRaw,
		&audit,
		&flagsRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	rec := &Record{
		ID:       id,
		Name:     name,
		Brand:    brand.String,
		Category: category.String,
		Serving: Serving{
			Quantity:    servingQty,
			Unit:        servingUnit.String,
			Description: servingDesc.String,
		},
		Macros: Macros{
			Calories: calories,
			ProteinG: protein,
			CarbsG:   carbs,
			FatG:     fat,
		},
		Source: Source{
			Name:       sourceName.String,
			ExternalID: sourceExternalID.String,
		},
		State:                State(stateStr),
		QualityScore:         qualityScore,
		VerificationAttempts: attempts,
		Deferrals:            deferrals,
		Audit:                audit.String,
	}
	if fiber.Valid {
		rec.Macros.FiberG = Float(fiber.Float64)
	}
	if sugar.Valid {
		rec.Macros.SugarG = Float(sugar.Float64)
	}
	if microsRaw.Valid && microsRaw.String != "" {
		micros := make(map[string]float64)
		if err := json.Unmarshal([]byte(microsRaw.String), &micros); err == nil {
			rec.Micronutrients = micros
		}
	}
	if flagsRaw.Valid && flagsRaw.String != "" {
		var flags []string
		if err := json.Unmarshal([]byte(flagsRaw.String), &flags); err == nil {
			rec.ReviewFlags = flags
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		rec.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		rec.UpdatedAt = updated
	}
	if lastVerifiedRaw.Valid {
		if verified, err := parseTimeString(lastVerifiedRaw.String); err == nil {
			rec.LastVerifiedAt = &verified
		}
	}
	return rec, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return timestamp(*value)
}

func nullableJSON(value any, empty bool) (any, error) {
	if empty {
		return nil, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

// timeLayout keeps a fixed fraction width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func timestamp(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
