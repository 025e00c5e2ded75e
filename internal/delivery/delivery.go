// Package delivery hands the rendered document to the outside world: a
// native share action when the platform has one, a direct file download
// otherwise, and the pre-filled email-compose deep link that follows it.
package delivery

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/maxcoop/subscription-form/internal/form"
)

// DefaultRecipient is the fixed administrative address submissions are
// sent to.
const DefaultRecipient = "maxcoopforms@gmail.com"

const gmailComposeBase = "https://mail.google.com/mail/"

// UnsupportedSharer is the default share boundary on platforms without a
// native share action. Share always reports ErrShareUnsupported so the
// caller falls back to download.
type UnsupportedSharer struct{}

// Share implements form.Sharer.
func (UnsupportedSharer) Share(context.Context, string, []byte, string, string) error {
	return form.ErrShareUnsupported
}

// FileDownloader writes rendered documents into a guarded output
// directory. It implements form.Downloader.
type FileDownloader struct {
	guard *OutputGuard
}

// NewFileDownloader creates a downloader confined to outputDirectory.
func NewFileDownloader(outputDirectory string) (*FileDownloader, error) {
	guard, err := NewOutputGuard(outputDirectory)
	if err != nil {
		return nil, err
	}
	return &FileDownloader{guard: guard}, nil
}

// Download writes the blob and returns the absolute path it landed at.
func (d *FileDownloader) Download(fileName string, data []byte) (string, error) {
	target, err := d.guard.ResolveTarget(fileName)
	if err != nil {
		return "", err
	}
	if err := d.guard.EnsureDirectory(); err != nil {
		return "", err
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", target, err)
	}
	return target, nil
}

// ComposeURL builds the web mail-compose deep link: fixed recipient, a
// subject templated with the subscriber's full name, and the fixed
// instructional body.
func ComposeURL(recipient, subscriberName string) string {
	body := fmt.Sprintf(
		"Dear MAXCOOP Admin,\n\nPlease find attached my subscription form.\n\nName: %s\n\nThank you!",
		subscriberName,
	)

	params := url.Values{}
	params.Set("view", "cm")
	params.Set("fs", "1")
	params.Set("to", recipient)
	params.Set("su", "MAXCOOP Subscription - "+subscriberName)
	params.Set("body", body)

	return gmailComposeBase + "?" + params.Encode()
}

// Instructions is the step-by-step text shown after the download
// fallback.
func Instructions(fileName, recipient string) string {
	return fmt.Sprintf(
		"NEXT STEPS:\n\n"+
			"1. PDF downloaded: %s\n\n"+
			"2. Your mail client is opening in a new tab\n\n"+
			"3. In the compose window:\n"+
			"   - TO: %s\n"+
			"   - Attach the PDF\n"+
			"   - Send!\n\n"+
			"Thank you for choosing MAXCOOP!",
		fileName, recipient,
	)
}

// Wire assembles the form.Delivery collaborators for the standard
// download-plus-compose flow.
func Wire(outputDirectory, recipient string, followupDelay time.Duration) (form.Delivery, error) {
	downloader, err := NewFileDownloader(outputDirectory)
	if err != nil {
		return form.Delivery{}, err
	}
	return form.Delivery{
		Recipient:  recipient,
		Sharer:     UnsupportedSharer{},
		Downloader: downloader,
		ComposeURL: func(subscriberName string) string {
			return ComposeURL(recipient, subscriberName)
		},
		Instructions: func(fileName string) string {
			return Instructions(fileName, recipient)
		},
		FollowupDelay: followupDelay,
	}, nil
}
