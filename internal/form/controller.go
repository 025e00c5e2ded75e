package form

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxUploadSize caps a single decoded upload at 10MB.
const DefaultMaxUploadSize = 10 * 1024 * 1024

// DocumentSet is the fixed-size mapping from identification kind to its
// optional uploaded document. A nil entry means the slot holds nothing.
type DocumentSet [NumIDKinds]*UploadedDocument

// Get returns the document in the given slot, or nil.
func (d *DocumentSet) Get(kind IDKind) *UploadedDocument {
	if kind < 0 || kind >= NumIDKinds {
		return nil
	}
	return d[kind]
}

// Renderer turns a normalized record plus the upload buffers into the
// final PDF bytes. Implemented by internal/render.
type Renderer interface {
	Render(rec *SubmissionRecord, photo *PassportPhoto, docs *DocumentSet) ([]byte, error)
}

// Preview is the view model handed to whatever surface displays an upload:
// a label, an optional thumbnail, and (implicitly) the remove action
// keyed by Kind.
type Preview struct {
	Kind      IDKind
	FileName  string
	Thumbnail []byte // nil when the upload is not an image
}

// Controller owns all mutable form state: the live field values, the
// identification slots, and the passport photo. Nothing here is global;
// every operation works on the instance.
type Controller struct {
	state   State
	checked [NumIDKinds]bool
	slots   DocumentSet
	photo   *PassportPhoto

	renderer      Renderer
	delivery      Delivery
	clock         func() time.Time
	maxUploadSize int64
	onBusy        func(bool)
	busy          bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithMaxUploadSize caps the size of a single ingested file.
func WithMaxUploadSize(n int64) Option {
	return func(c *Controller) { c.maxUploadSize = n }
}

// WithBusyIndicator registers the callback toggled around Submit.
func WithBusyIndicator(fn func(bool)) Option {
	return func(c *Controller) { c.onBusy = fn }
}

// WithDelivery sets the share/download/compose collaborators used by
// Submit's delivery tail.
func WithDelivery(d Delivery) Option {
	return func(c *Controller) { c.delivery = d }
}

// NewController creates a controller bound to a renderer.
func NewController(renderer Renderer, opts ...Option) *Controller {
	c := &Controller{
		renderer:      renderer,
		clock:         time.Now,
		maxUploadSize: DefaultMaxUploadSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State exposes the live field values for direct manipulation.
func (c *Controller) State() *State {
	return &c.state
}

// decode performs the bounded read that stands in for the asynchronous
// file decode: it either returns the full buffer or a descriptive error.
func (c *Controller) decode(r io.Reader, fileName string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, c.maxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", fileName, err)
	}
	if int64(len(data)) > c.maxUploadSize {
		return nil, fmt.Errorf("decoding %s: file exceeds %d bytes", fileName, c.maxUploadSize)
	}
	return data, nil
}

// IngestPassportPhoto reads the passport picker selection. Non-image
// selections are silently ignored: no photo is attached and no error is
// surfaced. A successful ingest overwrites any previous photo.
func (c *Controller) IngestPassportPhoto(fileName string, r io.Reader) error {
	data, err := c.decode(r, fileName)
	if err != nil {
		return err
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		log.Printf("Ignoring non-image passport selection: %s (%s)", fileName, mtype.String())
		return nil
	}

	c.photo = &PassportPhoto{MIMEType: mtype.String(), Data: data}
	return nil
}

// PassportPhoto returns the currently attached photo, or nil.
func (c *Controller) PassportPhoto() *PassportPhoto {
	return c.photo
}

// ToggleIDSlot checks or unchecks an identification-type checkbox.
// Unchecking is destructive: the slot's upload is discarded with no undo.
func (c *Controller) ToggleIDSlot(kind IDKind, isChecked bool) {
	if kind < 0 || kind >= NumIDKinds {
		return
	}
	c.checked[kind] = isChecked
	if !isChecked {
		c.slots[kind] = nil
	}
}

// SlotChecked reports whether the slot's checkbox is currently checked.
func (c *Controller) SlotChecked(kind IDKind) bool {
	return kind >= 0 && kind < NumIDKinds && c.checked[kind]
}

// IngestIDDocument reads an identification upload into its slot. Any file
// type is accepted. Re-uploading into the same slot replaces the previous
// content. The returned preview carries a thumbnail only for images.
func (c *Controller) IngestIDDocument(kind IDKind, fileName string, r io.Reader) (*Preview, error) {
	if kind < 0 || kind >= NumIDKinds {
		return nil, fmt.Errorf("unknown identification slot: %d", kind)
	}
	// The upload control only exists while its checkbox is checked, so a
	// slot can never hold data without being selected.
	if !c.checked[kind] {
		return nil, fmt.Errorf("identification slot %s is not selected", kind.Key())
	}

	data, err := c.decode(r, fileName)
	if err != nil {
		return nil, err
	}

	doc := &UploadedDocument{
		FileName: fileName,
		MIMEType: mimetype.Detect(data).String(),
		Data:     data,
	}
	c.slots[kind] = doc
	log.Printf("ID uploaded: %s %s", kind.Key(), fileName)

	preview := &Preview{Kind: kind, FileName: fileName}
	if doc.IsImage() {
		preview.Thumbnail = data
	}
	return preview, nil
}

// RemoveIDDocument clears the slot's upload and preview.
func (c *Controller) RemoveIDDocument(kind IDKind) {
	if kind < 0 || kind >= NumIDKinds {
		return
	}
	c.slots[kind] = nil
}

// Documents returns the slot contents consumed by the renderer.
func (c *Controller) Documents() *DocumentSet {
	return &c.slots
}
