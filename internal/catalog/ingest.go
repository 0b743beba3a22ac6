package catalog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ImportRow is one catalog entry as accepted by DecodeImport. Both the
// catalog field names and the seed-file names (food_name, serving_size,
// protein, fats) are understood.
type ImportRow struct {
	Name               string             `json:"name"`
	FoodName           string             `json:"food_name"`
	Brand              string             `json:"brand"`
	Category           string             `json:"category"`
	ServingQuantity    float64            `json:"serving_quantity" validate:"gte=0"`
	ServingSize        float64            `json:"serving_size" validate:"gte=0"`
	ServingUnit        string             `json:"serving_unit" validate:"max=32"`
	ServingDescription string             `json:"serving_description" validate:"max=128"`
	Calories           *float64           `json:"calories" validate:"required"`
	ProteinG           *float64           `json:"protein_g"`
	Protein            *float64           `json:"protein"`
	CarbsG             *float64           `json:"carbs_g"`
	Carbs              *float64           `json:"carbs"`
	FatG               *float64           `json:"fat_g"`
	Fat                *float64           `json:"fat"`
	Fats               *float64           `json:"fats"`
	FiberG             *float64           `json:"fiber_g"`
	Fiber              *float64           `json:"fiber"`
	SugarG             *float64           `json:"sugar_g"`
	Sugar              *float64           `json:"sugar"`
	Micronutrients     map[string]float64 `json:"micronutrients"`
	Source             string             `json:"source"`
	ExternalID         string             `json:"external_id"`
}

var importValidator = validator.New()

// DecodeImport reads a JSON array or JSON lines of ImportRow and converts
// them into unverified records. Errors name the offending row.
func DecodeImport(r io.Reader) ([]Record, error) {
	reader := bufio.NewReader(r)
	first, err := peekNonSpace(reader)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rows []ImportRow
	if first == '[' {
		if err := json.NewDecoder(reader).Decode(&rows); err != nil {
			return nil, fmt.Errorf("decode import array: %w", err)
		}
	} else {
		dec := json.NewDecoder(reader)
		for line := 1; ; line++ {
			var row ImportRow
			if err := dec.Decode(&row); errors.Is(err, io.EOF) {
				break
			} else if err != nil {
				return nil, fmt.Errorf("decode import row %d: %w", line, err)
			}
			rows = append(rows, row)
		}
	}

	out := make([]Record, 0, len(rows))
	for i, row := range rows {
		rec, err := row.Record()
		if err != nil {
			return nil, fmt.Errorf("import row %d: %w", i+1, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Record validates the row and converts it.
func (row ImportRow) Record() (Record, error) {
	if err := importValidator.Struct(row); err != nil {
		return Record{}, err
	}
	name := strings.TrimSpace(firstString(row.Name, row.FoodName))
	if name == "" {
		return Record{}, errors.New("name is required")
	}
	serving, err := row.serving()
	if err != nil {
		return Record{}, err
	}
	macros := Macros{
		Calories: *row.Calories,
		ProteinG: firstFloat(row.ProteinG, row.Protein),
		CarbsG:   firstFloat(row.CarbsG, row.Carbs),
		FatG:     firstFloat(row.FatG, row.Fat, row.Fats),
		FiberG:   firstPtr(row.FiberG, row.Fiber),
		SugarG:   firstPtr(row.SugarG, row.Sugar),
	}
	return Record{
		Name:           name,
		Brand:          strings.TrimSpace(row.Brand),
		Category:       strings.TrimSpace(row.Category),
		Serving:        serving,
		Macros:         macros,
		Micronutrients: row.Micronutrients,
		Source:         Source{Name: strings.TrimSpace(row.Source), ExternalID: strings.TrimSpace(row.ExternalID)},
		State:          StateUnverified,
	}, nil
}

func (row ImportRow) serving() (Serving, error) {
	qty := row.ServingQuantity
	if qty == 0 {
		qty = row.ServingSize
	}
	if qty > 0 {
		return Serving{Quantity: qty, Unit: NormalizeUnit(row.ServingUnit), Description: strings.TrimSpace(row.ServingDescription)}, nil
	}
	if strings.TrimSpace(row.ServingDescription) != "" {
		return ParseServing(row.ServingDescription)
	}
	return Serving{}, errors.New("serving is required (serving_quantity or serving_description)")
}

func peekNonSpace(r *bufio.Reader) (byte, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, r.UnreadByte()
	}
}

func firstString(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstPtr(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return Float(*v)
		}
	}
	return nil
}

func firstFloat(values ...*float64) float64 {
	if v := firstPtr(values...); v != nil {
		return *v
	}
	return 0
}
