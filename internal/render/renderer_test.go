package render

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxcoop/subscription-form/internal/form"
	"github.com/maxcoop/subscription-form/internal/inspect"
)

var fixedClock = func() time.Time {
	return time.Date(2026, time.August, 1, 10, 30, 0, 0, time.UTC)
}

func testRenderer() *Renderer {
	return New(Options{Clock: fixedClock, NoCompression: true})
}

func sampleRecord() *form.SubmissionRecord {
	return &form.SubmissionRecord{
		Subscriber: form.Subscriber{
			Title:              "Mrs",
			Surname:            "Okafor",
			OtherNames:         "Adaeze",
			FullName:           "Mrs Okafor Adaeze",
			SpouseName:         "Okafor Chidi",
			Address:            "15 Cooperative Close, Awka, Anambra State",
			DateOfBirth:        "1990-04-12",
			Gender:             "Female",
			MaritalStatus:      "Married",
			Nationality:        "Nigerian",
			Occupation:         "Trader",
			EmployerName:       form.NotApplicable,
			BusinessNature:     "Retail",
			YearsOfEmployment:  "8",
			CountryOfResidence: "Nigeria",
			LanguageSpoken:     "Igbo",
			Email:              "adaeze@example.com",
			OtherIncome:        form.NotApplicable,
			MobileNumber:       "08012345678",
			IDType:             form.NotApplicable,
			PEP:                "No",
			PEPCategory:        form.NotApplicable,
		},
		NextOfKin: form.NextOfKin{
			Name:    "Chidi Okafor",
			Phone:   "08087654321",
			Email:   "chidi@example.com",
			Address: "15 Cooperative Close, Awka",
		},
		Declaration: form.Declaration{
			AffirmationName: "Adaeze Okafor",
			AgreeToTerms:    true,
			PlotType:        "Residential",
			NumberOfPlots:   "2",
			PlotSize:        "500 SQM",
			CornerPiece:     "Yes",
			PaymentPlan:     "Outright",
			Signature:       "Adaeze Okafor",
			Date:            "2026-08-01",
		},
		Referral: form.Referral{
			Name:  form.NotApplicable,
			Phone: form.NotApplicable,
			Email: form.NotApplicable,
			Date:  form.NotApplicable,
		},
		SubmissionDate: fixedClock(),
	}
}

func pngFixture(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 15), G: uint8(y * 15), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func jpegFixture(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x * 15), B: uint8(y * 15), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}))
	return buf.Bytes()
}

func TestRenderNilRecord(t *testing.T) {
	_, err := testRenderer().Render(nil, nil, &form.DocumentSet{})
	require.Error(t, err)
}

func TestRenderIsValidPDF(t *testing.T) {
	out, err := testRenderer().Render(sampleRecord(), nil, &form.DocumentSet{})
	require.NoError(t, err)

	require.NoError(t, inspect.Quick(out))
	require.NoError(t, inspect.Validate(out))
}

func TestRenderIsDeterministic(t *testing.T) {
	r := testRenderer()
	rec := sampleRecord()
	docs := &form.DocumentSet{}

	first, err := r.Render(rec, nil, docs)
	require.NoError(t, err)
	second, err := r.Render(rec, nil, docs)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(first, second), "same record and clock must produce identical bytes")
}

func TestRenderContainsSubmittedValues(t *testing.T) {
	out, err := testRenderer().Render(sampleRecord(), nil, &form.DocumentSet{})
	require.NoError(t, err)

	for _, want := range []string{
		"MAXCOOP",
		"COOP CITY, ANAMBRA",
		"SUBSCRIPTION FORM",
		"SECTION 1: SUBSCRIBER DETAILS",
		"SECTION 2: NEXT OF KIN",
		"SECTION 3: DECLARATION",
		"Mrs Okafor Adaeze",
		"adaeze@example.com",
		"08012345678",
		"Chidi Okafor",
		"500 SQM",
		"Outright",
		"Submitted on: 01 Aug 2026 10:30:00",
		"MAXCOOP | 5402057281",
	} {
		assert.True(t, bytes.Contains(out, []byte(want)), "output should contain %q", want)
	}
}

func TestRenderPaginates(t *testing.T) {
	out, err := testRenderer().Render(sampleRecord(), nil, &form.DocumentSet{})
	require.NoError(t, err)

	pages, err := inspect.PageCount(out)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pages, 2, "the full field set does not fit one page")

	// Fields past the break still land on the document.
	assert.True(t, bytes.Contains(out, []byte("Adaeze Okafor")))
	assert.True(t, bytes.Contains(out, []byte("2026-08-01")))
}

func TestRenderOmitsDocumentSectionWithoutSelection(t *testing.T) {
	out, err := testRenderer().Render(sampleRecord(), nil, &form.DocumentSet{})
	require.NoError(t, err)
	assert.False(t, bytes.Contains(out, []byte("IDENTIFICATION DOCUMENTS")))
}

func TestRenderEmbedsImageDocuments(t *testing.T) {
	rec := sampleRecord()
	rec.Subscriber.IDType = "NATIONAL_ID,DRIVERS_LICENCE"

	docs := &form.DocumentSet{}
	docs[form.NationalID] = &form.UploadedDocument{
		FileName: "id.png",
		MIMEType: "image/png",
		Data:     pngFixture(t),
	}
	docs[form.DriversLicence] = &form.UploadedDocument{
		FileName: "licence.jpg",
		MIMEType: "image/jpeg",
		Data:     jpegFixture(t),
	}

	out, err := testRenderer().Render(rec, nil, docs)
	require.NoError(t, err)
	require.NoError(t, inspect.Validate(out))

	assert.True(t, bytes.Contains(out, []byte("IDENTIFICATION DOCUMENTS")))
	assert.True(t, bytes.Contains(out, []byte("NATIONAL ID")))
	assert.True(t, bytes.Contains(out, []byte("DRIVERS LICENCE")))
	assert.True(t, bytes.Contains(out, []byte("/Image")), "image XObjects should be present")
}

func TestRenderNonImageDocumentGetsNotice(t *testing.T) {
	rec := sampleRecord()
	rec.Subscriber.IDType = "NIN"

	docs := &form.DocumentSet{}
	docs[form.NIN] = &form.UploadedDocument{
		FileName: "nin-slip.pdf",
		MIMEType: "application/pdf",
		Data:     []byte("%PDF-1.4 fake slip"),
	}

	out, err := testRenderer().Render(rec, nil, docs)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(out, []byte("Document attached: nin-slip.pdf")))
}

func TestRenderSkipsEmptySlot(t *testing.T) {
	rec := sampleRecord()
	rec.Subscriber.IDType = "NATIONAL_ID"

	// Selected but never uploaded: the section renders, the slot is skipped.
	out, err := testRenderer().Render(rec, nil, &form.DocumentSet{})
	require.NoError(t, err)
	require.NoError(t, inspect.Validate(out))
	assert.True(t, bytes.Contains(out, []byte("IDENTIFICATION DOCUMENTS")))
}

func TestRenderPassportPhoto(t *testing.T) {
	photo := &form.PassportPhoto{MIMEType: "image/png", Data: pngFixture(t)}

	out, err := testRenderer().Render(sampleRecord(), photo, &form.DocumentSet{})
	require.NoError(t, err)
	require.NoError(t, inspect.Validate(out))
	assert.True(t, bytes.Contains(out, []byte("/Image")))
}

func TestRenderSurvivesCorruptImage(t *testing.T) {
	photo := &form.PassportPhoto{MIMEType: "image/png", Data: []byte("definitely not a png")}

	// A broken upload must not poison the rest of the document.
	out, err := testRenderer().Render(sampleRecord(), photo, &form.DocumentSet{})
	require.NoError(t, err)
	require.NoError(t, inspect.Quick(out))
	assert.True(t, bytes.Contains(out, []byte("Mrs Okafor Adaeze")))
}

func TestRenderReferralSectionOnlyWithName(t *testing.T) {
	rec := sampleRecord()
	out, err := testRenderer().Render(rec, nil, &form.DocumentSet{})
	require.NoError(t, err)
	assert.False(t, bytes.Contains(out, []byte("SECTION 4: REFERRAL")))

	rec.Referral = form.Referral{
		Name:  "Ngozi Eze",
		Phone: "07011112222",
		Email: "ngozi@example.com",
		Date:  "2026-07-20",
	}
	out, err = testRenderer().Render(rec, nil, &form.DocumentSet{})
	require.NoError(t, err)
	assert.True(t, bytes.Contains(out, []byte("SECTION 4: REFERRAL")))
	assert.True(t, bytes.Contains(out, []byte("Ngozi Eze")))
}

func TestSniffImageFormat(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
		data     []byte
		want     string
	}{
		{"png magic wins", "application/octet-stream", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D}, "PNG"},
		{"jpeg magic wins", "image/png", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "JPEG"},
		{"declared png", "image/png", []byte("no magic"), "PNG"},
		{"declared image defaults to jpeg", "image/webp", []byte("no magic"), "JPEG"},
		{"non-image", "text/plain", []byte("hello"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sniffImageFormat(tt.mimeType, tt.data))
		})
	}
}
