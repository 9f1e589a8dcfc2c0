// Package render derives PDF documents from itinerary HTML with headless
// Chrome.
package render

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// PDFRenderer converts an HTML document to PDF bytes.
type PDFRenderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// ChromePDF renders through a headless Chrome instance. Each render gets its
// own browser context; rendering is rare enough that startup cost beats
// keeping a browser alive.
type ChromePDF struct {
	Timeout time.Duration
}

func NewChromePDF(timeout time.Duration) *ChromePDF {
	return &ChromePDF{Timeout: timeout}
}

func (c *ChromePDF) Render(ctx context.Context, html string) ([]byte, error) {
	if html == "" {
		return nil, errors.New("empty document")
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(html))

	var pdf []byte
	err := chromedp.Run(bctx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdf, nil
}
