package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/invoice-matcher/constants"
	"github.com/joseph-ayodele/invoice-matcher/internal/common"
)

func (e *Extractor) extractImage(ctx context.Context, path string) (ExtractionResult, error) {
	txt, warns, err := e.tesseractOCR(ctx, path)
	txt = Normalize(txt)
	if err != nil || txt == "" {
		return ExtractionResult{SourceType: constants.IMAGE, Warnings: warns}, &common.ExtractionError{
			Path:     path,
			Warnings: warns,
			Cause:    err,
		}
	}
	return ExtractionResult{
		Text:       txt,
		Pages:      1,
		SourceType: constants.IMAGE,
		Method:     MethodImageOCR,
		Language:   e.cfg.TesseractLang,
		Warnings:   warns,
		Confidence: heuristicConfidence(txt),
	}, nil
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, []string, error) {
	// tesseract <file> stdout -l <lang>
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, e.logger, args...)
	if err != nil {
		var warns []string
		if s := strings.TrimSpace(string(errb)); s != "" {
			warns = append(warns, s)
		}
		return "", warns, fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil, nil
}
