package ocr

import (
	"regexp"
	"strings"
)

var (
	reDate     = regexp.MustCompile(`\b(20\d{2}[-/.]\d{1,2}[-/.]\d{1,2}|\d{1,2}[-/.]\d{1,2}[-/.]20\d{2})\b`)
	reCurrency = regexp.MustCompile(`\b(sar|usd|eur|gbp|aed)\b|[$£€]`)
	reAmount   = regexp.MustCompile(`\b\d{1,3}(,\d{3})*(\.\d{2})\b|\b\d+[.,]\d{2}\b`)
	reKeywords = regexp.MustCompile(`\b(invoice|purchase order|p\.?o\.?|qty|quantity|total)\b`)
)

// heuristicConfidence scores OCR output by how much of a commercial document it resembles.
func heuristicConfidence(txt string) float32 {
	l := strings.ToLower(txt)
	score := float32(0.2)
	if reDate.MatchString(l) {
		score += 0.15
	}
	if reCurrency.MatchString(l) {
		score += 0.15
	}
	if reAmount.MatchString(l) {
		score += 0.2
	}
	if reKeywords.MatchString(l) {
		score += 0.2
	}
	if len(txt) > 120 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
