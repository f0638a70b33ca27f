package hcl

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/hashicorp/hcl/v2/hclparse"
)

const (
	// ContentTypeHCL is the custom MIME type for HCL request bodies
	ContentTypeHCL = "application/vnd.hcl"

	// ContentTypeJSON is the standard MIME type for JSON
	ContentTypeJSON = "application/json"
)

// DetectContentType determines whether a request body is JSON or HCL, first
// from the Content-Type header and then by inspecting the content. The body
// is reset so it can be read again by the handler.
func DetectContentType(r *http.Request) (string, error) {
	contentType := r.Header.Get("Content-Type")
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			if mediaType == ContentTypeHCL {
				return ContentTypeHCL, nil
			}
			if mediaType == ContentTypeJSON {
				return ContentTypeJSON, nil
			}
		}
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read request body: %w", err)
	}
	r.Body = io.NopCloser(bytes.NewBuffer(body))

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 {
		first := trimmed[0]
		if first == '{' || first == '[' {
			return ContentTypeJSON, nil
		}
		if IsHCL(trimmed) {
			return ContentTypeHCL, nil
		}
	}

	return ContentTypeJSON, nil
}

// IsHCL reports whether the content parses as native HCL syntax
func IsHCL(content []byte) bool {
	parser := hclparse.NewParser()
	_, diags := parser.ParseHCL(content, "probe.hcl")
	return !diags.HasErrors()
}

// IsHCLBasedOnExtension checks if the filename has an HCL extension
func IsHCLBasedOnExtension(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}
