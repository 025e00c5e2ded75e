package form

import (
	"strings"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// Collect reads the live form values into a fresh, fully normalized
// SubmissionRecord. Optional fields are trimmed first, then blank ones
// become N/A; the identification selection is serialized as a
// comma-joined string of canonical keys. The record is never mutated
// after this point.
func (c *Controller) Collect() *SubmissionRecord {
	s := &c.state
	now := c.clock()

	spouseName := NotApplicable
	if strings.TrimSpace(s.SpouseSurname) != "" && strings.TrimSpace(s.SpouseOtherNames) != "" {
		spouseName = strings.TrimSpace(s.SpouseSurname) + " " + strings.TrimSpace(s.SpouseOtherNames)
	}

	var selected []string
	for _, kind := range AllIDKinds {
		if c.checked[kind] {
			selected = append(selected, kind.Key())
		}
	}
	idType := strings.Join(selected, ",")
	if idType == "" {
		idType = NotApplicable
	}

	cornerPiece := strings.TrimSpace(s.CornerPiece)
	if cornerPiece == "" {
		cornerPiece = "No"
	}

	declarationDate := strings.TrimSpace(s.DeclarationDate)
	if declarationDate == "" {
		declarationDate = now.Format(dateLayout)
	}

	fullName := strings.TrimSpace(s.Title + " " + s.Surname + " " + s.OtherNames)

	return &SubmissionRecord{
		SubmissionID: uuid.New(),
		Subscriber: Subscriber{
			Title:              s.Title,
			Surname:            s.Surname,
			OtherNames:         s.OtherNames,
			FullName:           fullName,
			SpouseName:         spouseName,
			Address:            s.Address,
			DateOfBirth:        s.DateOfBirth,
			Gender:             s.Gender,
			MaritalStatus:      s.MaritalStatus,
			Nationality:        s.Nationality,
			Occupation:         orNA(s.Occupation),
			EmployerName:       orNA(s.EmployerName),
			BusinessNature:     orNA(s.BusinessNature),
			YearsOfEmployment:  orNA(s.YearsOfEmployment),
			CountryOfResidence: s.CountryOfResidence,
			LanguageSpoken:     orNA(s.LanguageSpoken),
			Email:              s.Email,
			OtherIncome:        orNA(s.OtherIncome),
			MobileNumber:       s.MobileNumber,
			IDType:             idType,
			PEP:                s.PEP,
			PEPCategory:        orNA(s.PEPCategory),
		},
		NextOfKin: NextOfKin{
			Name:    s.NOKName,
			Phone:   s.NOKPhone,
			Email:   orNA(s.NOKEmail),
			Address: s.NOKAddress,
		},
		Declaration: Declaration{
			AffirmationName: s.AffirmationName,
			AgreeToTerms:    s.AgreeToTerms,
			PlotType:        s.PlotType,
			NumberOfPlots:   s.NumberOfPlots,
			PlotSize:        s.PlotSize,
			CornerPiece:     cornerPiece,
			PaymentPlan:     s.PaymentPlan,
			Signature:       s.Signature,
			Date:            declarationDate,
		},
		Referral: Referral{
			Name:  orNA(s.ReferralName),
			Phone: orNA(s.ReferralPhone),
			Email: orNA(s.ReferralEmail),
			Date:  orNA(s.ReferralDate),
		},
		SubmissionDate: now,
	}
}
