// Package render turns a normalized submission record and its upload
// buffers into the branded, paginated subscription PDF. Rendering is a
// pure pass over its inputs: no I/O, no mutation, and deterministic
// output under a fixed clock.
package render

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/maxcoop/subscription-form/internal/form"
)

// Page geometry and layout metrics, in millimetres on A4 portrait.
const (
	pageWidth  = 210.0
	topMargin  = 20.0
	fieldRowY  = 265.0 // page-break threshold before a field row
	imageRowY  = 200.0 // lower threshold applied before embedded images
	footerY    = 280.0
	labelX     = 15.0
	valueX     = 80.0
	wrapWidth  = 170.0
	rowHeight  = 7.0
	lineHeight = 5.0
)

type rgb struct{ r, g, b int }

var (
	primaryBlue = rgb{30, 58, 138}
	lightBlue   = rgb{59, 130, 246}
	accentGold  = rgb{251, 191, 36}
	primaryRed  = rgb{220, 38, 38}
	darkGray    = rgb{51, 51, 51}
	white       = rgb{255, 255, 255}
)

// Options configures a Renderer. The zero value plus defaults renders the
// production document.
type Options struct {
	Clock       func() time.Time
	OrgName     string
	OrgCity     string
	Subtitle    string
	ContactLine string
	// NoCompression emits uncompressed content streams. Used by tests to
	// assert on the raw output.
	NoCompression bool
}

// Renderer implements form.Renderer.
type Renderer struct {
	opts Options
}

// New creates a renderer, filling in organization defaults.
func New(opts Options) *Renderer {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.OrgName == "" {
		opts.OrgName = "MAXCOOP"
	}
	if opts.OrgCity == "" {
		opts.OrgCity = "COOP CITY, ANAMBRA"
	}
	if opts.Subtitle == "" {
		opts.Subtitle = "SUBSCRIPTION FORM"
	}
	if opts.ContactLine == "" {
		opts.ContactLine = "MAXCOOP | 5402057281"
	}
	return &Renderer{opts: opts}
}

// pass carries the document and the vertical cursor through one render.
type pass struct {
	doc *gofpdf.Fpdf
	y   float64
}

// Render lays out the full document in a single page-aware pass: header
// band, the field sections, embedded identification documents, and the
// footer. It returns the finished PDF bytes.
func (r *Renderer) Render(rec *form.SubmissionRecord, photo *form.PassportPhoto, docs *form.DocumentSet) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("nil submission record")
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetCreationDate(r.opts.Clock())
	doc.SetCatalogSort(true)
	if r.opts.NoCompression {
		doc.SetCompression(false)
	}
	doc.SetTitle(r.opts.OrgName+" Subscription Form", false)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()

	p := &pass{doc: doc}
	r.header(p, photo)

	r.subscriberSection(p, &rec.Subscriber)
	r.documentsSection(p, &rec.Subscriber, docs)
	r.nextOfKinSection(p, &rec.NextOfKin)
	r.declarationSection(p, &rec.Declaration)
	r.referralSection(p, &rec.Referral)
	r.footer(p, rec.SubmissionDate)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// header paints the gradient band, the gold border, the organization
// titles, and the optional passport thumbnail in the top-right corner.
func (r *Renderer) header(p *pass, photo *form.PassportPhoto) {
	doc := p.doc

	// Vertical gradient, one 1mm strip at a time.
	for i := 0; i < 40; i++ {
		ratio := float64(i) / 40.0
		doc.SetFillColor(
			lerp(primaryBlue.r, lightBlue.r, ratio),
			lerp(primaryBlue.g, lightBlue.g, ratio),
			lerp(primaryBlue.b, lightBlue.b, ratio),
		)
		doc.Rect(0, float64(i), pageWidth, 1, "F")
	}

	doc.SetDrawColor(accentGold.r, accentGold.g, accentGold.b)
	doc.SetLineWidth(2)
	doc.Rect(5, 5, 200, 35, "D")

	setText(doc, white)
	doc.SetFont("Helvetica", "B", 26)
	centerText(doc, 18, r.opts.OrgName)
	doc.SetFont("Helvetica", "B", 20)
	centerText(doc, 28, r.opts.OrgCity)
	setText(doc, accentGold)
	doc.SetFont("Helvetica", "B", 14)
	centerText(doc, 36, r.opts.Subtitle)

	if photo != nil && len(photo.Data) > 0 {
		if r.embedImage(doc, "passport_photo", photo.MIMEType, photo.Data, 175, 8, 25, 30) {
			doc.SetLineWidth(0.2)
			doc.SetDrawColor(darkGray.r, darkGray.g, darkGray.b)
			doc.Rect(175, 8, 25, 30, "D")
		}
	}

	p.y = 50
}

func (r *Renderer) subscriberSection(p *pass, s *form.Subscriber) {
	r.sectionHeader(p, "SECTION 1: SUBSCRIBER DETAILS")
	r.field(p, "Full Name", s.FullName)
	r.field(p, "Spouse Name", s.SpouseName)
	r.fieldWide(p, "Address", s.Address)
	r.field(p, "Date of Birth", s.DateOfBirth)
	r.field(p, "Gender", s.Gender)
	r.field(p, "Marital Status", s.MaritalStatus)
	r.field(p, "Nationality", s.Nationality)
	r.field(p, "Occupation", s.Occupation)
	r.field(p, "Employer", s.EmployerName)
	r.field(p, "Nature of Business", s.BusinessNature)
	r.field(p, "Years of Employment", s.YearsOfEmployment)
	r.field(p, "Country of Residence", s.CountryOfResidence)
	r.field(p, "Language Spoken", s.LanguageSpoken)
	r.field(p, "Email", s.Email)
	r.field(p, "Phone", s.MobileNumber)
	r.field(p, "Other Income", s.OtherIncome)
	r.field(p, "ID Type", idTypeDisplay(s))
	r.field(p, "Politically Exposed Person", s.PEP)
	r.field(p, "PEP Category", s.PEPCategory)
}

// documentsSection embeds the uploaded identification documents, in enum
// order, for each kind the subscriber selected. Slots without completed
// data are skipped with a log line only. The section is omitted entirely
// when no identification type was selected.
func (r *Renderer) documentsSection(p *pass, s *form.Subscriber, docs *form.DocumentSet) {
	kinds := s.SelectedIDKinds()
	if len(kinds) == 0 {
		return
	}
	doc := p.doc

	r.sectionHeader(p, "IDENTIFICATION DOCUMENTS")
	for _, kind := range kinds {
		uploaded := docs.Get(kind)
		if uploaded == nil || len(uploaded.Data) == 0 {
			log.Printf("Skipping %s: no completed upload", kind.Key())
			continue
		}

		p.y += 5
		if p.y > imageRowY {
			r.newPage(p)
		}

		doc.SetFont("Helvetica", "B", 10)
		setText(doc, darkGray)
		doc.Text(labelX, p.y, kind.Label())
		p.y += 5

		name := fmt.Sprintf("id_%s", kind.Key())
		if uploaded.IsImage() && r.embedImage(doc, name, uploaded.MIMEType, uploaded.Data, labelX, p.y, 180, 100) {
			doc.SetLineWidth(0.2)
			doc.SetDrawColor(darkGray.r, darkGray.g, darkGray.b)
			doc.Rect(labelX, p.y, 180, 100, "D")
			p.y += 105
		} else {
			doc.SetFont("Helvetica", "", 10)
			doc.Text(labelX, p.y, "Document attached: "+uploaded.FileName)
			p.y += 10
		}
	}
}

func (r *Renderer) nextOfKinSection(p *pass, n *form.NextOfKin) {
	r.sectionHeader(p, "SECTION 2: NEXT OF KIN")
	r.field(p, "Name", n.Name)
	r.field(p, "Phone", n.Phone)
	r.field(p, "Email", n.Email)
	r.fieldWide(p, "Address", n.Address)
}

func (r *Renderer) declarationSection(p *pass, d *form.Declaration) {
	r.sectionHeader(p, "SECTION 3: DECLARATION")
	r.field(p, "Affirmation Name", d.AffirmationName)
	r.field(p, "Agreed to Terms", yesNo(d.AgreeToTerms))
	r.field(p, "Plot Type", d.PlotType)
	r.field(p, "Number of Plots", d.NumberOfPlots)
	r.field(p, "Plot Size", d.PlotSize)
	r.field(p, "Corner Piece", d.CornerPiece)
	r.field(p, "Payment Plan", d.PaymentPlan)
	r.field(p, "Signature", d.Signature)
	r.field(p, "Date", d.Date)
}

// referralSection is emitted only when a referral name was actually
// supplied.
func (r *Renderer) referralSection(p *pass, ref *form.Referral) {
	if ref.Name == "" || ref.Name == form.NotApplicable {
		return
	}
	r.sectionHeader(p, "SECTION 4: REFERRAL")
	r.field(p, "Name", ref.Name)
	r.field(p, "Phone", ref.Phone)
	r.field(p, "Email", ref.Email)
	r.field(p, "Date", ref.Date)
}

func (r *Renderer) footer(p *pass, submitted time.Time) {
	doc := p.doc

	doc.SetFillColor(primaryBlue.r, primaryBlue.g, primaryBlue.b)
	doc.Rect(0, footerY, pageWidth, 17, "F")

	setText(doc, white)
	doc.SetFont("Helvetica", "", 8)
	centerText(doc, footerY+6, "Submitted on: "+submitted.Format("02 Jan 2006 15:04:05"))

	setText(doc, accentGold)
	doc.SetFont("Helvetica", "B", 8)
	centerText(doc, footerY+12, r.opts.ContactLine)
}

// sectionHeader paints the red band with its gold accent bar.
func (r *Renderer) sectionHeader(p *pass, title string) {
	doc := p.doc
	p.y += 3
	if p.y > fieldRowY {
		r.newPage(p)
	}

	doc.SetFillColor(primaryRed.r, primaryRed.g, primaryRed.b)
	doc.Rect(10, p.y, 190, 12, "F")
	doc.SetFillColor(accentGold.r, accentGold.g, accentGold.b)
	doc.Rect(10, p.y, 3, 12, "F")

	doc.SetFont("Helvetica", "B", 11)
	setText(doc, white)
	doc.Text(18, p.y+8, title)

	p.y += 17
	setText(doc, darkGray)
}

// field renders one single-line label/value row, breaking the page first
// if the cursor has passed the near-bottom threshold.
func (r *Renderer) field(p *pass, label, value string) {
	doc := p.doc
	if p.y > fieldRowY {
		r.newPage(p)
	}

	doc.SetFont("Helvetica", "B", 9)
	setText(doc, primaryBlue)
	doc.Text(labelX, p.y, label+":")

	doc.SetFont("Helvetica", "", 9)
	setText(doc, darkGray)
	doc.Text(valueX, p.y, fallback(value))
	p.y += rowHeight
}

// fieldWide renders a full-width field whose value wraps; it consumes
// vertical space proportional to its wrapped line count.
func (r *Renderer) fieldWide(p *pass, label, value string) {
	doc := p.doc
	if p.y > fieldRowY {
		r.newPage(p)
	}

	doc.SetFont("Helvetica", "B", 9)
	setText(doc, primaryBlue)
	doc.Text(labelX, p.y, label+":")

	doc.SetFont("Helvetica", "", 9)
	setText(doc, darkGray)
	lines := doc.SplitText(fallback(value), wrapWidth)
	for i, line := range lines {
		doc.Text(labelX, p.y+lineHeight+float64(i)*lineHeight, line)
	}
	p.y += lineHeight + float64(len(lines))*lineHeight
}

func (r *Renderer) newPage(p *pass) {
	p.doc.AddPage()
	p.y = topMargin
}

// embedImage registers and places one image, choosing PNG or JPEG from
// the buffer itself before trusting the declared type. Failures are
// contained: the document keeps rendering and the image is simply not
// placed.
func (r *Renderer) embedImage(doc *gofpdf.Fpdf, name, mimeType string, data []byte, x, y, w, h float64) bool {
	format := sniffImageFormat(mimeType, data)
	if format == "" {
		log.Printf("Unsupported image format for %s (%s)", name, mimeType)
		return false
	}

	opts := gofpdf.ImageOptions{ImageType: format}
	doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if doc.Err() {
		log.Printf("Image error for %s: %v", name, doc.Error())
		doc.ClearError()
		return false
	}

	doc.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	if doc.Err() {
		log.Printf("Image error for %s: %v", name, doc.Error())
		doc.ClearError()
		return false
	}
	return true
}

var (
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47}
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
)

// sniffImageFormat picks the encoder format gofpdf should use. The magic
// bytes win; the declared type string is the tie-breaker, defaulting to
// JPEG the way the original picked formats.
func sniffImageFormat(mimeType string, data []byte) string {
	switch {
	case bytes.HasPrefix(data, pngMagic):
		return "PNG"
	case bytes.HasPrefix(data, jpegMagic):
		return "JPEG"
	case strings.Contains(mimeType, "png"):
		return "PNG"
	case strings.HasPrefix(mimeType, "image/"):
		return "JPEG"
	default:
		return ""
	}
}

func idTypeDisplay(s *form.Subscriber) string {
	kinds := s.SelectedIDKinds()
	if len(kinds) == 0 {
		return form.NotApplicable
	}
	labels := make([]string, len(kinds))
	for i, k := range kinds {
		labels[i] = k.Label()
	}
	return strings.Join(labels, ", ")
}

func fallback(v string) string {
	if v == "" {
		return form.NotApplicable
	}
	return v
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func lerp(from, to int, ratio float64) int {
	return from + int(float64(to-from)*ratio)
}

func setText(doc *gofpdf.Fpdf, c rgb) {
	doc.SetTextColor(c.r, c.g, c.b)
}

func centerText(doc *gofpdf.Fpdf, y float64, s string) {
	x := (pageWidth - doc.GetStringWidth(s)) / 2
	doc.Text(x, y, s)
}
