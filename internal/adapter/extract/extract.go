// Package extract turns CV files and job posting pages into plain text.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gabriel-vasile/mimetype"

	"github.com/hiretrack/hiretrack/internal/domain"
	"github.com/hiretrack/hiretrack/pkg/textx"
)

// minUsableText is the floor below which stripped page text is considered
// insufficient for downstream model calls.
const minUsableText = 100

type Extractor struct {
	tikaURL  string
	client   *http.Client
	maxBytes int64
}

// New builds an Extractor backed by an Apache Tika server for PDFs and a
// bounded HTTP fetcher for job posting pages.
func New(tikaURL string, client *http.Client, maxFetchBytes int64) *Extractor {
	if client == nil {
		client = http.DefaultClient
	}
	return &Extractor{
		tikaURL:  strings.TrimRight(tikaURL, "/"),
		client:   client,
		maxBytes: maxFetchBytes,
	}
}

// ExtractPDF reads the stored file at path and returns its sanitized text.
func (e *Extractor) ExtractPDF(ctx domain.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("op=extract.read_pdf: %w: %v", domain.ErrPdfInvalid, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("op=extract.read_pdf: %w: file is empty", domain.ErrPdfInvalid)
	}
	if mt := mimetype.Detect(data); !mt.Is("application/pdf") {
		return "", fmt.Errorf("op=extract.read_pdf: %w: detected %s", domain.ErrPdfInvalid, mt.String())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, e.tikaURL+"/tika", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("op=extract.tika_request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("Accept", "text/plain")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("op=extract.tika_call: %w: %v", domain.ErrPdfInvalid, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusUnprocessableEntity {
		return "", fmt.Errorf("op=extract.tika_call: %w: unparseable document", domain.ErrPdfInvalid)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("op=extract.tika_call: %w: status %d", domain.ErrPdfInvalid, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("op=extract.tika_read: %w", err)
	}

	// A scanned PDF without OCR comes back as whitespace only.
	text := textx.SanitizeText(string(body))
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("op=extract.pdf_text: %w: no extractable text", domain.ErrPdfInvalid)
	}
	return text, nil
}

// FetchAndExtractHTML downloads url and returns the visible text of the page
// with script, style and template nodes removed.
func (e *Extractor) FetchAndExtractHTML(ctx domain.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("op=extract.fetch: %w: %v", domain.ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("User-Agent", "hiretrack/1.0")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("op=extract.fetch: %w: %v", domain.ErrFetchFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("op=extract.fetch: %w: status %d", domain.ErrFetchFailed, resp.StatusCode)
	}

	// Read one byte past the cap so an oversized page is detected rather
	// than silently truncated.
	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("op=extract.fetch: %w: %v", domain.ErrFetchFailed, err)
	}
	if int64(len(body)) > e.maxBytes {
		return "", fmt.Errorf("op=extract.fetch: %w: page exceeds %d bytes", domain.ErrFetchFailed, e.maxBytes)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("op=extract.parse_html: %w: %v", domain.ErrFetchFailed, err)
	}
	doc.Find("script, style, noscript, template, iframe").Remove()

	text := textx.CollapseWhitespace(textx.SanitizeText(doc.Text()))
	if len(text) < minUsableText {
		return "", fmt.Errorf("op=extract.html_text: %w: %d usable characters", domain.ErrInsufficientContent, len(text))
	}
	return text, nil
}
