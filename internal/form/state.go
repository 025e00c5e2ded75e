package form

import (
	"fmt"
	"regexp"
	"strings"
)

const maxPhoneDigits = 11

var (
	nonDigitPattern   = regexp.MustCompile(`\D`)
	whitespacePattern = regexp.MustCompile(`\s`)
)

// NormalizePhone strips every non-digit character and truncates to eleven
// digits, matching the behavior applied on each keystroke in the form.
func NormalizePhone(v string) string {
	v = nonDigitPattern.ReplaceAllString(v, "")
	if len(v) > maxPhoneDigits {
		v = v[:maxPhoneDigits]
	}
	return v
}

// NormalizeEmail strips all whitespace.
func NormalizeEmail(v string) string {
	return whitespacePattern.ReplaceAllString(v, "")
}

// orNA trims the value and substitutes the N/A sentinel when nothing
// remains. Trimming happens before the default is applied.
func orNA(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return NotApplicable
	}
	return v
}

// ChoiceField names one of the four mutually exclusive selection groups.
type ChoiceField string

const (
	ChoiceTitle       ChoiceField = "title"
	ChoicePlotType    ChoiceField = "plotType"
	ChoicePlotSize    ChoiceField = "plotSize"
	ChoicePaymentPlan ChoiceField = "paymentPlan"
)

// State holds the live form values owned by the Controller. Checkbox
// groups that behave as single-select (title, plot type, plot size,
// payment plan) are stored as a single selected value, so checking one
// option structurally unchecks its siblings.
type State struct {
	Title              string `json:"title"`
	Surname            string `json:"surname"`
	OtherNames         string `json:"other_names"`
	SpouseSurname      string `json:"spouse_surname"`
	SpouseOtherNames   string `json:"spouse_other_names"`
	Address            string `json:"address"`
	DateOfBirth        string `json:"dob"`
	Gender             string `json:"gender"`
	MaritalStatus      string `json:"marital_status"`
	Nationality        string `json:"nationality"`
	Occupation         string `json:"occupation"`
	EmployerName       string `json:"employer_name"`
	BusinessNature     string `json:"business_nature"`
	YearsOfEmployment  string `json:"years_of_employment"`
	CountryOfResidence string `json:"country_of_residence"`
	LanguageSpoken     string `json:"language_spoken"`
	Email              string `json:"email"`
	OtherIncome        string `json:"other_income"`
	MobileNumber       string `json:"mobile_number"`
	PEP                string `json:"pep"`
	PEPCategory        string `json:"pep_category"`

	NOKName    string `json:"nok_name"`
	NOKPhone   string `json:"nok_phone"`
	NOKEmail   string `json:"nok_email"`
	NOKAddress string `json:"nok_address"`

	AffirmationName string `json:"affirmation_name"`
	AgreeToTerms    bool   `json:"agree_to_terms"`
	PlotType        string `json:"plot_type"`
	NumberOfPlots   string `json:"number_of_plots"`
	PlotSize        string `json:"plot_size"`
	CornerPiece     string `json:"corner_piece"`
	PaymentPlan     string `json:"payment_plan"`
	Signature       string `json:"signature"`
	DeclarationDate string `json:"declaration_date"`

	ReferralName  string `json:"referral_name"`
	ReferralPhone string `json:"referral_phone"`
	ReferralEmail string `json:"referral_email"`
	ReferralDate  string `json:"referral_date"`
}

// phoneFields and emailFields name the inputs that receive keystroke
// normalization.
var (
	phoneFields = map[string]bool{
		"mobile_number":  true,
		"nok_phone":      true,
		"referral_phone": true,
	}
	emailFields = map[string]bool{
		"email":          true,
		"nok_email":      true,
		"referral_email": true,
	}
)

// ApplyField writes a single named field value, applying the input
// normalization rules for phone and email fields. It is the one entry
// point both the HTTP intake and the render-mode intake file go through.
func (s *State) ApplyField(name, value string) error {
	if phoneFields[name] {
		value = NormalizePhone(value)
	}
	if emailFields[name] {
		value = NormalizeEmail(value)
	}

	switch name {
	case "title":
		s.Title = value
	case "surname":
		s.Surname = value
	case "other_names":
		s.OtherNames = value
	case "spouse_surname":
		s.SpouseSurname = value
	case "spouse_other_names":
		s.SpouseOtherNames = value
	case "address":
		s.Address = value
	case "dob":
		s.DateOfBirth = value
	case "gender":
		s.Gender = value
	case "marital_status":
		s.MaritalStatus = value
	case "nationality":
		s.Nationality = value
	case "occupation":
		s.Occupation = value
	case "employer_name":
		s.EmployerName = value
	case "business_nature":
		s.BusinessNature = value
	case "years_of_employment":
		s.YearsOfEmployment = value
	case "country_of_residence":
		s.CountryOfResidence = value
	case "language_spoken":
		s.LanguageSpoken = value
	case "email":
		s.Email = value
	case "other_income":
		s.OtherIncome = value
	case "mobile_number":
		s.MobileNumber = value
	case "pep":
		s.PEP = value
	case "pep_category":
		s.PEPCategory = value
	case "nok_name":
		s.NOKName = value
	case "nok_phone":
		s.NOKPhone = value
	case "nok_email":
		s.NOKEmail = value
	case "nok_address":
		s.NOKAddress = value
	case "affirmation_name":
		s.AffirmationName = value
	case "agree_to_terms":
		s.AgreeToTerms = value == "true" || value == "on" || value == "1"
	case "plot_type":
		s.PlotType = value
	case "number_of_plots":
		s.NumberOfPlots = value
	case "plot_size":
		s.PlotSize = value
	case "corner_piece":
		s.CornerPiece = value
	case "payment_plan":
		s.PaymentPlan = value
	case "signature":
		s.Signature = value
	case "declaration_date":
		s.DeclarationDate = value
	case "referral_name":
		s.ReferralName = value
	case "referral_phone":
		s.ReferralPhone = value
	case "referral_email":
		s.ReferralEmail = value
	case "referral_date":
		s.ReferralDate = value
	default:
		return fmt.Errorf("unknown form field: %s", name)
	}
	return nil
}

// CheckChoice selects an option in a single-select group. Any previously
// selected sibling is replaced.
func (s *State) CheckChoice(field ChoiceField, value string) {
	switch field {
	case ChoiceTitle:
		s.Title = value
	case ChoicePlotType:
		s.PlotType = value
	case ChoicePlotSize:
		s.PlotSize = value
	case ChoicePaymentPlan:
		s.PaymentPlan = value
	}
}

// UncheckChoice clears a group selection if the named option is the one
// currently selected.
func (s *State) UncheckChoice(field ChoiceField, value string) {
	switch field {
	case ChoiceTitle:
		if s.Title == value {
			s.Title = ""
		}
	case ChoicePlotType:
		if s.PlotType == value {
			s.PlotType = ""
		}
	case ChoicePlotSize:
		if s.PlotSize == value {
			s.PlotSize = ""
		}
	case ChoicePaymentPlan:
		if s.PaymentPlan == value {
			s.PaymentPlan = ""
		}
	}
}
