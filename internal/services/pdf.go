package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"DF-PROPOSAL/internal/render"
	"DF-PROPOSAL/internal/view"

	"github.com/rs/zerolog/log"
	"github.com/starwalkn/gotenberg-go-client/v8"
	"github.com/starwalkn/gotenberg-go-client/v8/document"
)

const conversionAttempts = 3

// PDFService prints the HTML rendering of a document through Gotenberg's
// Chromium route.
type PDFService struct {
	client  *gotenberg.Client
	timeout time.Duration
	html    *render.HTMLRenderer
	backoff time.Duration
}

func NewPDFService(gotenbergURL string, timeoutStr string, html *render.HTMLRenderer) (*PDFService, error) {
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		timeout = 30 * time.Second
		log.Warn().Err(err).Str("timeout", timeoutStr).Msg("Invalid Gotenberg timeout, using 30s")
	}

	httpClient := &http.Client{
		Timeout: timeout,
	}

	client, err := gotenberg.NewClient(gotenbergURL, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gotenberg client: %w", err)
	}

	return &PDFService{
		client:  client,
		timeout: timeout,
		html:    html,
		backoff: time.Second,
	}, nil
}

func (s *PDFService) RenderPDF(ctx context.Context, doc *view.Document) ([]byte, error) {
	page, err := s.html.RenderHTML(doc)
	if err != nil {
		return nil, err
	}
	return s.convertWithRetry(ctx, page, conversionAttempts)
}

func (s *PDFService) convertWithRetry(ctx context.Context, page []byte, maxRetries int) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		out, err := s.convert(ctx, page)
		if err == nil {
			return out, nil
		}

		lastErr = err
		log.Warn().Err(err).Int("attempt", attempt).Int("max", maxRetries).Msg("PDF conversion failed")

		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * s.backoff):
			}
		}
	}

	return nil, fmt.Errorf("failed to convert document after %d attempts: %w", maxRetries, lastErr)
}

func (s *PDFService) convert(ctx context.Context, page []byte) ([]byte, error) {
	convertCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	index, err := document.FromReader("index.html", bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to create document from reader: %w", err)
	}

	resp, err := s.client.Send(convertCtx, gotenberg.NewHTMLRequest(index))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gotenberg returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
