package upload

import "fmt"

// Validate checks the media type and size of a candidate file.
func Validate(f File, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if f.MediaType != MediaTypePDF {
		return &ValidationError{Err: ErrNotPDF, reason: "Please upload a PDF file"}
	}
	if f.Size > maxBytes {
		return &ValidationError{
			Err:    ErrTooLarge,
			reason: fmt.Sprintf("File size must be less than %dMB", maxBytes/(1024*1024)),
		}
	}
	return nil
}
