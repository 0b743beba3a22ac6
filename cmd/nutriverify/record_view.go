package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"nutriverify/internal/catalog"
	"nutriverify/internal/verification"
)

// recordView is the JSON and text presentation of a catalog record.
type recordView struct {
	ID                   int64               `json:"id"`
	Name                 string              `json:"name"`
	Brand                string              `json:"brand,omitempty"`
	Category             string              `json:"category"`
	Serving              catalog.Serving     `json:"serving"`
	Macros               catalog.Macros      `json:"macros"`
	Micronutrients       map[string]float64  `json:"micronutrients,omitempty"`
	Source               catalog.Source      `json:"source"`
	State                catalog.State       `json:"state"`
	QualityScore         int                 `json:"quality_score"`
	VerificationAttempts int                 `json:"verification_attempts"`
	Deferrals            int                 `json:"deferrals"`
	LastVerifiedAt       *time.Time          `json:"last_verified_at,omitempty"`
	ReviewFlags          []string            `json:"review_flags,omitempty"`
	Audit                *verification.Audit `json:"audit,omitempty"`
	AuditError           string              `json:"audit_error,omitempty"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

func newRecordView(rec *catalog.Record) recordView {
	view := recordView{
		ID:                   rec.ID,
		Name:                 rec.Name,
		Brand:                rec.Brand,
		Category:             rec.Category,
		Serving:              rec.Serving,
		Macros:               rec.Macros,
		Micronutrients:       rec.Micronutrients,
		Source:               rec.Source,
		State:                rec.State,
		QualityScore:         rec.QualityScore,
		VerificationAttempts: rec.VerificationAttempts,
		Deferrals:            rec.Deferrals,
		LastVerifiedAt:       rec.LastVerifiedAt,
		ReviewFlags:          rec.ReviewFlags,
		UpdatedAt:            rec.UpdatedAt,
	}
	if strings.TrimSpace(rec.Audit) != "" {
		audit, err := verification.DecodeAudit(rec.Audit)
		if err != nil {
			view.AuditError = err.Error()
		} else {
			view.Audit = &audit
		}
	}
	return view
}

func printRecord(cmd *cobra.Command, view recordView) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	title := view.Name
	if view.Brand != "" {
		title = view.Brand + " " + view.Name
	}
	for _, line := range renderSectionHeader(fmt.Sprintf("#%d %s", view.ID, title), colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderField("State", colorState(view.State, colorize)))
	fmt.Fprintln(out, renderField("Category", view.Category))
	fmt.Fprintln(out, renderField("Serving", view.Serving.String()))
	fmt.Fprintln(out, renderField("Macros", formatMacros(view.Macros)))
	fmt.Fprintln(out, renderField("Source", view.Source.Name))
	fmt.Fprintln(out, renderField("Quality score", strconv.Itoa(view.QualityScore)))
	fmt.Fprintln(out, renderField("Attempts", strconv.Itoa(view.VerificationAttempts)))
	if view.Deferrals > 0 {
		fmt.Fprintln(out, renderField("Deferred", fmt.Sprintf("%d batches (oracle unreachable)", view.Deferrals)))
	}
	if len(view.ReviewFlags) > 0 {
		fmt.Fprintln(out, renderField("Review flags", strings.Join(view.ReviewFlags, ", ")))
	}
	if view.LastVerifiedAt != nil {
		fmt.Fprintln(out, renderField("Last verified", view.LastVerifiedAt.Local().Format(time.DateTime)))
	}
	if view.AuditError != "" {
		fmt.Fprintln(out, renderField("Audit", "unreadable: "+view.AuditError))
	}
	if view.Audit == nil {
		return
	}

	audit := view.Audit
	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Audit", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderField("Outcome", string(audit.Outcome)))
	if audit.Kind != "" {
		fmt.Fprintln(out, renderField("Kind", audit.Kind))
	}
	if audit.Message != "" {
		fmt.Fprintln(out, renderField("Message", audit.Message))
	}
	fmt.Fprintln(out, renderField("Original", formatMacros(audit.Original)))
	fmt.Fprintln(out, renderField("Final", formatMacros(audit.Final)))
	fmt.Fprintln(out, renderField("Oracle calls", strconv.Itoa(audit.OracleCalls)))
	if audit.Reference != nil {
		fmt.Fprintln(out, renderField("Reference", fmt.Sprintf("%s (%s, fdc %d)", audit.Reference.Description, audit.Reference.Strategy, audit.Reference.FDCID)))
	}
	if len(audit.Findings) > 0 {
		rows := make([][]string, 0, len(audit.Findings))
		for _, f := range audit.Findings {
			rows = append(rows, []string{f.Rule, string(f.Severity), f.Details})
		}
		fmt.Fprintln(out, renderTable([]string{"Rule", "Severity", "Details"}, rows, nil))
	}
	if len(audit.Attempts) > 0 {
		rows := make([][]string, 0, len(audit.Attempts))
		for _, a := range audit.Attempts {
			rows = append(rows, []string{
				strconv.Itoa(a.Number),
				formatMacros(a.Before),
				formatMacros(a.After),
				strings.Join(a.Fields, ","),
				formatFloat(a.Confidence),
			})
		}
		fmt.Fprintln(out, renderTable([]string{"#", "Before", "After", "Fields", "Confidence"}, rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight}))
	}
}

func formatMacros(m catalog.Macros) string {
	parts := []string{
		formatFloat(m.Calories) + " kcal",
		"P " + formatFloat(m.ProteinG),
		"C " + formatFloat(m.CarbsG),
		"F " + formatFloat(m.FatG),
	}
	if fiber, ok := m.Fiber(); ok {
		parts = append(parts, "fiber "+formatFloat(fiber))
	}
	if sugar, ok := m.Sugar(); ok {
		parts = append(parts, "sugar "+formatFloat(sugar))
	}
	return strings.Join(parts, " / ")
}
