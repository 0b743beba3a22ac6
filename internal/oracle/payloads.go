package oracle

// Wire shapes as returned by the model. Validated before conversion.

type correctionPayload struct {
	NeedsCorrection *bool          `json:"needs_correction" validate:"required"`
	Corrections     *fieldsPayload `json:"corrections"`
	Rationale       string         `json:"rationale" validate:"max=2000"`
	Confidence      *float64       `json:"confidence" validate:"required,gte=0,lte=100"`
}

type fieldsPayload struct {
	Calories           *float64 `json:"calories" validate:"omitempty,gte=0,lte=1000000"`
	ProteinG           *float64 `json:"protein_g" validate:"omitempty,gte=0,lte=100000"`
	CarbsG             *float64 `json:"carbs_g" validate:"omitempty,gte=0,lte=100000"`
	FatG               *float64 `json:"fat_g" validate:"omitempty,gte=0,lte=100000"`
	FiberG             *float64 `json:"fiber_g" validate:"omitempty,gte=0,lte=100000"`
	SugarG             *float64 `json:"sugar_g" validate:"omitempty,gte=0,lte=100000"`
	ServingQuantity    *float64 `json:"serving_quantity" validate:"omitempty,gt=0"`
	ServingUnit        *string  `json:"serving_unit" validate:"omitempty,min=1,max=32"`
	ServingDescription *string  `json:"serving_description" validate:"omitempty,max=128"`
	Category           *string  `json:"category" validate:"omitempty,min=1,max=64"`
}

type validationPayload struct {
	Accurate   *bool    `json:"accurate" validate:"required"`
	Confidence *float64 `json:"confidence" validate:"required,gte=0,lte=100"`
	Issues     []string `json:"issues" validate:"omitempty,dive,max=500"`
	Rationale  string   `json:"rationale" validate:"max=2000"`
}

type classificationPayload struct {
	Category   string   `json:"category" validate:"required,max=64"`
	Confidence *float64 `json:"confidence" validate:"required,gte=0,lte=100"`
	Rationale  string   `json:"rationale" validate:"max=2000"`
}

func (p *fieldsPayload) toFields() Fields {
	if p == nil {
		return Fields{}
	}
	return Fields{
		Calories:           p.Calories,
		ProteinG:           p.ProteinG,
		CarbsG:             p.CarbsG,
		FatG:               p.FatG,
		FiberG:             p.FiberG,
		SugarG:             p.SugarG,
		ServingQuantity:    p.ServingQuantity,
		ServingUnit:        p.ServingUnit,
		ServingDescription: p.ServingDescription,
		Category:           p.Category,
	}
}
