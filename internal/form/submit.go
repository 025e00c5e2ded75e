package form

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/maxcoop/subscription-form/internal/inspect"
)

// ErrSubmissionInFlight rejects a submit attempt that overlaps a running
// one. The original form never guarded this; the guard is deliberate.
var ErrSubmissionInFlight = errors.New("a submission is already in progress")

// ErrShareUnsupported is returned by sharers on platforms without a
// native share action, triggering the download fallback.
var ErrShareUnsupported = errors.New("native share is not supported")

// Sharer is the native file-share boundary.
type Sharer interface {
	Share(ctx context.Context, fileName string, data []byte, title, text string) error
}

// Downloader persists the rendered blob and returns where it landed.
type Downloader interface {
	Download(fileName string, data []byte) (string, error)
}

// Delivery groups the collaborators Submit hands the rendered document to.
type Delivery struct {
	Recipient     string
	Sharer        Sharer
	Downloader    Downloader
	ComposeURL    func(subscriberName string) string
	Instructions  func(fileName string) string
	FollowupDelay time.Duration
}

// Artifact is the output of a successful render: the blob plus the
// filename derived from the subscriber's surname and the submit instant.
type Artifact struct {
	FileName string
	PDF      []byte
	Record   *SubmissionRecord
}

// SubmitResult reports how a successful submission was delivered.
type SubmitResult struct {
	Artifact     *Artifact
	Shared       bool
	DownloadPath string
	ComposeURL   string
	Instructions string
}

// Generate validates the form, collects the record, and renders the
// document. Validation failure aborts before any render call; a render
// failure is surfaced with its reason and nothing is delivered.
func (c *Controller) Generate(ctx context.Context) (*Artifact, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec := c.Collect()
	pdf, err := c.renderer.Render(rec, c.photo, &c.slots)
	if err != nil {
		return nil, fmt.Errorf("error generating PDF: %w", err)
	}

	// Post-render sanity check. Failures are logged, not fatal: the
	// document already rendered and the user can still send it.
	if err := inspect.Quick(pdf); err != nil {
		log.Printf("Rendered document failed inspection: %v", err)
	}

	fileName := fmt.Sprintf("MAXCOOP_%s_%d.pdf", rec.Subscriber.Surname, c.clock().UnixMilli())
	return &Artifact{FileName: fileName, PDF: pdf, Record: rec}, nil
}

// Submit runs the full submission flow: validate, render, then deliver via
// the platform share action when available, falling back to a direct
// download followed, after a short fixed delay, by the pre-filled
// email-compose link and step-by-step instructions.
func (c *Controller) Submit(ctx context.Context) (*SubmitResult, error) {
	if c.busy {
		return nil, ErrSubmissionInFlight
	}
	c.busy = true
	defer func() { c.busy = false }()

	c.setBusyIndicator(true)
	defer c.setBusyIndicator(false)

	artifact, err := c.Generate(ctx)
	if err != nil {
		return nil, err
	}

	result := &SubmitResult{Artifact: artifact}
	d := c.delivery

	if d.Sharer != nil {
		shareText := "Please send to " + d.Recipient
		if err := d.Sharer.Share(ctx, artifact.FileName, artifact.PDF, "MAXCOOP Subscription Form", shareText); err == nil {
			result.Shared = true
			result.Instructions = fmt.Sprintf("PDF Generated!\n\nSelect your mail app and send to:\n%s", d.Recipient)
			return result, nil
		} else if !errors.Is(err, ErrShareUnsupported) {
			log.Printf("Share failed, downloading instead: %v", err)
		}
	}

	if d.Downloader == nil {
		return nil, errors.New("no delivery path available for the rendered document")
	}
	path, err := d.Downloader.Download(artifact.FileName, artifact.PDF)
	if err != nil {
		return nil, fmt.Errorf("error saving PDF: %w", err)
	}
	result.DownloadPath = path

	// Sequencing heuristic, not a completion guarantee: give the download
	// a head start before opening the compose window.
	if d.FollowupDelay > 0 {
		select {
		case <-time.After(d.FollowupDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if d.ComposeURL != nil {
		result.ComposeURL = d.ComposeURL(artifact.Record.Subscriber.FullName)
	}
	if d.Instructions != nil {
		result.Instructions = d.Instructions(artifact.FileName)
	}
	return result, nil
}

func (c *Controller) setBusyIndicator(on bool) {
	if c.onBusy != nil {
		c.onBusy(on)
	}
}
