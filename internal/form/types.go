package form

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NotApplicable is the sentinel written into optional fields left blank.
const NotApplicable = "N/A"

// IDKind is one of the four identification categories a subscriber may
// supply proof of identity through.
type IDKind int

const (
	NationalID IDKind = iota
	DriversLicence
	InternationalPassport
	NIN

	// NumIDKinds bounds the slot array.
	NumIDKinds
)

// AllIDKinds lists the kinds in their canonical render order.
var AllIDKinds = [NumIDKinds]IDKind{NationalID, DriversLicence, InternationalPassport, NIN}

// Key returns the canonical underscore-joined constant used to key upload
// slots and to serialize the subscriber's selection. The same key is used
// at ingestion and render time.
func (k IDKind) Key() string {
	switch k {
	case NationalID:
		return "NATIONAL_ID"
	case DriversLicence:
		return "DRIVERS_LICENCE"
	case InternationalPassport:
		return "INTERNATIONAL_PASSPORT"
	case NIN:
		return "NIN"
	default:
		return "UNKNOWN"
	}
}

// Label returns the human-facing name, used in validation messages and in
// the rendered document.
func (k IDKind) Label() string {
	return strings.ReplaceAll(k.Key(), "_", " ")
}

// ParseIDKind resolves a canonical key back to its kind.
func ParseIDKind(key string) (IDKind, bool) {
	for _, k := range AllIDKinds {
		if k.Key() == strings.TrimSpace(key) {
			return k, true
		}
	}
	return 0, false
}

// UploadedDocument holds one completed identification upload. A slot's
// document exists if and only if its checkbox is checked and a read
// completed for it.
type UploadedDocument struct {
	FileName string `json:"file_name"`
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// IsImage reports whether the stored type declares an embeddable image.
func (d *UploadedDocument) IsImage() bool {
	return d != nil && strings.HasPrefix(d.MIMEType, "image/")
}

// PassportPhoto is the single optional header photo, independent of the
// identification slots.
type PassportPhoto struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// Subscriber carries the personal, demographic and employment fields.
type Subscriber struct {
	Title              string `json:"title"`
	Surname            string `json:"surname"`
	OtherNames         string `json:"other_names"`
	FullName           string `json:"full_name"`
	SpouseName         string `json:"spouse_name"`
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
	IDType             string `json:"id_type"` // comma-joined canonical keys, or N/A
	PEP                string `json:"pep"`
	PEPCategory        string `json:"pep_category"`
}

// SelectedIDKinds decodes the comma-joined IDType selection back into
// kinds, preserving order and dropping anything unparseable.
func (s *Subscriber) SelectedIDKinds() []IDKind {
	if s.IDType == "" || s.IDType == NotApplicable {
		return nil
	}
	var kinds []IDKind
	for _, key := range strings.Split(s.IDType, ",") {
		if k, ok := ParseIDKind(key); ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// NextOfKin carries the next-of-kin contact block.
type NextOfKin struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// Declaration carries the affirmation and plot-selection block.
type Declaration struct {
	AffirmationName string `json:"affirmation_name"`
	AgreeToTerms    bool   `json:"agree_to_terms"`
	PlotType        string `json:"plot_type"`
	NumberOfPlots   string `json:"number_of_plots"`
	PlotSize        string `json:"plot_size"`
	CornerPiece     string `json:"corner_piece"`
	PaymentPlan     string `json:"payment_plan"`
	Signature       string `json:"signature"`
	Date            string `json:"date"`
}

// Referral is optional; all fields default to N/A.
type Referral struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Date  string `json:"date"`
}

// SubmissionRecord is the fully normalized snapshot of form state handed
// to rendering. Immutable once built; a fresh record is produced per
// submit attempt.
type SubmissionRecord struct {
	SubmissionID   uuid.UUID   `json:"submission_id"`
	Subscriber     Subscriber  `json:"subscriber"`
	NextOfKin      NextOfKin   `json:"next_of_kin"`
	Declaration    Declaration `json:"declaration"`
	Referral       Referral    `json:"referral"`
	SubmissionDate time.Time   `json:"submission_date"`
}
