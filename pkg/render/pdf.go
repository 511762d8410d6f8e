package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/zarchive/ticket-gateway/internal/models"
)

// Page geometry and type scale. Line height tracks font size at 1.4x;
// sizes are points, positions millimetres.
const (
	pageMargin   = 15.0
	bottomMargin = 20.0

	bodyFontSize    = 10.0
	headingFontSize = 12.0
	headerFontSize  = 9.0
	titleFontSize   = 16.0

	ptToMM = 0.3528
)

func lineHeight(fontSize float64) float64 {
	return fontSize * ptToMM * 1.4
}

// RenderPDF lays out a ticket and its parsed comment blocks into a paginated
// PDF. blocks must be index-aligned with comments; userNames maps helpdesk
// author ids to display names, missing ids fall back to a generic label.
// Internal comments are skipped unless the tenant opted in.
func RenderPDF(ticket *models.Ticket, comments []models.Comment, blocks [][]Block, userNames map[int64]string, settings models.RenderSettings, now time.Time) ([]byte, error) {
	if ticket == nil {
		return nil, fmt.Errorf("render: ticket required")
	}
	if len(blocks) != len(comments) {
		return nil, fmt.Errorf("render: %d comments but %d block sets", len(comments), len(blocks))
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, bottomMargin)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageWidth, _ := pdf.GetPageSize()
	usableWidth := pageWidth - 2*pageMargin

	// Header: company and date right-aligned, centered title, ticket facts.
	pdf.SetFont("Arial", "", headerFontSize)
	pdf.CellFormat(0, lineHeight(headerFontSize), tr(settings.CompanyName), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, lineHeight(headerFontSize), formatDate(now, settings.Locale), "", 1, "R", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", titleFontSize)
	pdf.CellFormat(0, lineHeight(titleFontSize), fmt.Sprintf("Ticket #%d", ticket.ID), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", bodyFontSize)
	facts := []string{
		"Subject: " + ticket.Subject,
		"Status: " + ticket.Status,
		"Created: " + formatDate(ticket.CreatedAt, settings.Locale),
		"Updated: " + formatDate(ticket.UpdatedAt, settings.Locale),
	}
	for _, line := range facts {
		pdf.CellFormat(0, lineHeight(bodyFontSize), tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", headingFontSize)
	pdf.CellFormat(0, lineHeight(headingFontSize), "Conversation", "", 1, "L", false, 0, "")
	y := pdf.GetY()
	pdf.SetDrawColor(60, 60, 60)
	pdf.Line(pageMargin, y, pageMargin+usableWidth, y)
	pdf.Ln(3)

	for i, comment := range comments {
		if !comment.Public && !settings.IncludeInternalNotes {
			continue
		}

		renderCommentHeader(pdf, tr, comment, userNames, settings.Locale, usableWidth)
		renderBlocks(pdf, tr, blocks[i], usableWidth)

		pdf.Ln(2)
		y = pdf.GetY()
		pdf.SetDrawColor(200, 200, 200)
		pdf.Line(pageMargin, y, pageMargin+usableWidth, y)
		pdf.Ln(3)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func renderCommentHeader(pdf *gofpdf.Fpdf, tr func(string) string, comment models.Comment, userNames map[int64]string, locale string, usableWidth float64) {
	author, ok := userNames[comment.AuthorID]
	if !ok || author == "" {
		author = fmt.Sprintf("User %d", comment.AuthorID)
	}
	header := formatTimestamp(comment.CreatedAt, locale) + " — " + author
	if !comment.Public {
		header += " (internal)"
	}

	pdf.SetFont("Arial", "B", bodyFontSize)
	if !comment.Public {
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(usableWidth, lineHeight(bodyFontSize)+1, tr(header), "", 1, "L", true, 0, "")
	} else {
		pdf.CellFormat(usableWidth, lineHeight(bodyFontSize)+1, tr(header), "", 1, "L", false, 0, "")
	}
	pdf.Ln(1)
}

func renderBlocks(pdf *gofpdf.Fpdf, tr func(string) string, blocks []Block, usableWidth float64) {
	for _, block := range blocks {
		fontSize := bodyFontSize
		if block.Type == BlockHeading {
			fontSize = headingFontSize
		}
		lh := lineHeight(fontSize)

		indent := float64(block.Indent) * ptToMM
		pdf.SetLeftMargin(pageMargin + indent)
		pdf.SetX(pageMargin + indent)

		for _, run := range block.Runs {
			style := ""
			if run.Bold {
				style += "B"
			}
			if run.Italic {
				style += "I"
			}
			pdf.SetFont("Arial", style, fontSize)
			writeWrapped(pdf, tr(run.Text), lh, pageMargin+indent, pageMargin+usableWidth)
		}

		pdf.SetLeftMargin(pageMargin)
		pdf.Ln(lh)
		if block.Type == BlockHeading {
			pdf.Ln(2)
		}
	}
}

// writeWrapped emits text word by word, breaking lines at the right edge.
// gofpdf's auto page break takes over whenever the cursor would cross the
// bottom margin.
func writeWrapped(pdf *gofpdf.Fpdf, text string, lh, left, right float64) {
	words := splitKeepingSpaces(text)
	for _, word := range words {
		width := pdf.GetStringWidth(word)
		if pdf.GetX()+width > right && pdf.GetX() > left {
			pdf.Ln(lh)
			pdf.SetX(left)
		}
		pdf.CellFormat(width, lh, word, "", 0, "L", false, 0, "")
	}
}

// splitKeepingSpaces cuts text into words, each keeping its trailing space.
func splitKeepingSpaces(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			parts = append(parts, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		parts = append(parts, s[start:])
	}
	return parts
}

func formatDate(t time.Time, locale string) string {
	if t.IsZero() {
		return ""
	}
	if len(locale) >= 2 && locale[:2] == "en" {
		return t.Format("Jan 2, 2006")
	}
	return t.Format("2006-01-02")
}

func formatTimestamp(t time.Time, locale string) string {
	if len(locale) >= 2 && locale[:2] == "en" {
		return t.Format("Jan 2, 2006 15:04")
	}
	return t.Format("2006-01-02 15:04")
}
