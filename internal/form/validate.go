package form

import (
	"fmt"
	"strings"
)

// ValidationError is the user-facing rejection of a submit attempt. Field
// identifies the first offending input so the surface can highlight it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// requiredField pairs a field name with an accessor, in form order.
type requiredField struct {
	name string
	get  func(*State) string
}

// requiredFields lists every input marked required on the form. Grouped
// single-select fields are covered by their selected value being empty.
var requiredFields = []requiredField{
	{"title", func(s *State) string { return s.Title }},
	{"surname", func(s *State) string { return s.Surname }},
	{"other_names", func(s *State) string { return s.OtherNames }},
	{"address", func(s *State) string { return s.Address }},
	{"dob", func(s *State) string { return s.DateOfBirth }},
	{"gender", func(s *State) string { return s.Gender }},
	{"marital_status", func(s *State) string { return s.MaritalStatus }},
	{"nationality", func(s *State) string { return s.Nationality }},
	{"country_of_residence", func(s *State) string { return s.CountryOfResidence }},
	{"email", func(s *State) string { return s.Email }},
	{"mobile_number", func(s *State) string { return s.MobileNumber }},
	{"pep", func(s *State) string { return s.PEP }},
	{"nok_name", func(s *State) string { return s.NOKName }},
	{"nok_phone", func(s *State) string { return s.NOKPhone }},
	{"nok_address", func(s *State) string { return s.NOKAddress }},
	{"affirmation_name", func(s *State) string { return s.AffirmationName }},
	{"plot_type", func(s *State) string { return s.PlotType }},
	{"number_of_plots", func(s *State) string { return s.NumberOfPlots }},
	{"plot_size", func(s *State) string { return s.PlotSize }},
	{"payment_plan", func(s *State) string { return s.PaymentPlan }},
	{"signature", func(s *State) string { return s.Signature }},
}

// Validate checks the form ahead of a submit attempt. Every checked
// identification slot must hold completed upload data, and every required
// field must be non-empty. The first failure aborts validation.
func (c *Controller) Validate() error {
	for _, kind := range AllIDKinds {
		if !c.checked[kind] {
			continue
		}
		doc := c.slots[kind]
		if doc == nil || len(doc.Data) == 0 {
			return &ValidationError{
				Field:   kind.Key(),
				Message: fmt.Sprintf("Please upload your %s", kind.Label()),
			}
		}
	}

	for _, f := range requiredFields {
		if strings.TrimSpace(f.get(&c.state)) == "" {
			return &ValidationError{
				Field:   f.name,
				Message: "Please fill all required fields",
			}
		}
	}

	if !c.state.AgreeToTerms {
		return &ValidationError{
			Field:   "agree_to_terms",
			Message: "Please fill all required fields",
		}
	}

	return nil
}
