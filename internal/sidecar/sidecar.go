// Package sidecar classifies and extracts documents from pre-extracted JSON.
//
// A source document "w2.pdf" is described by "w2.pdf.json" next to it:
//
//	{
//	  "doc_type": "W-2",
//	  "pages": {
//	    "1": {"data": {"WagesTipsOtherComp": "50,000.00"}},
//	    "2": {"error": "page unreadable"}
//	  }
//	}
//
// Dir serves sidecars from the file system; Static serves documents held in
// memory, such as those posted to the HTTP API. Both satisfy the pipeline's
// Source, Classifier and Extractor interfaces.
package sidecar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"formflow/internal/taxdoc"
)

// Suffix is appended to a document path to find its sidecar.
const Suffix = ".json"

// ErrOutsideRoot is returned for refs that resolve outside Dir.Root.
var ErrOutsideRoot = errors.New("document is outside the document root")

// Document is the pre-extracted content of one source document.
type Document struct {
	DocType string              `json:"doc_type"`
	Pages   map[int]taxdoc.Page `json:"pages"`
}

// Decode parses a sidecar. Numbers are kept as json.Number so amounts are
// not rounded through float64.
func Decode(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	doc := &Document{}
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("decode sidecar: %w", err)
	}

	for n := range doc.Pages {
		if n < 1 {
			return nil, fmt.Errorf("decode sidecar: page numbers start at 1, got %d", n)
		}
	}

	return doc, nil
}

// Dir reads sidecars from the file system. Relative refs resolve against
// Root; when Root is set, refs must stay inside it.
type Dir struct {
	Root string
}

// Path resolves ref to a document path.
func (d Dir) Path(ref taxdoc.DocumentRef) (string, error) {
	p := filepath.Clean(string(ref))
	if d.Root == "" {
		return p, nil
	}

	if filepath.IsAbs(p) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, ref)
	}

	full := filepath.Join(d.Root, p)

	rel, err := filepath.Rel(d.Root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, ref)
	}

	return full, nil
}

// Check reports whether the document itself exists and is a regular file.
// A missing sidecar is not an input error; it surfaces at extraction.
func (d Dir) Check(ref taxdoc.DocumentRef) error {
	p, err := d.Path(ref)
	if err != nil {
		return err
	}

	info, err := os.Stat(p)
	if err != nil {
		return fmt.Errorf("source document: %w", err)
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("source document %s is not a regular file", p)
	}

	return nil
}

func (d Dir) read(ref taxdoc.DocumentRef) (*Document, error) {
	p, err := d.Path(ref)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p + Suffix)
	if err != nil {
		return nil, fmt.Errorf("read sidecar: %w", err)
	}

	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p+Suffix, err)
	}

	return doc, nil
}

// Classify returns the sidecar's doc_type.
func (d Dir) Classify(_ context.Context, ref taxdoc.DocumentRef) (taxdoc.DocType, error) {
	doc, err := d.read(ref)
	if err != nil {
		return "", err
	}

	return classify(doc)
}

// Extract returns the sidecar's pages.
func (d Dir) Extract(_ context.Context, ref taxdoc.DocumentRef, _ taxdoc.DocType) (map[int]taxdoc.Page, error) {
	doc, err := d.read(ref)
	if err != nil {
		return nil, err
	}

	return doc.Pages, nil
}

// Static serves documents from memory.
type Static map[taxdoc.DocumentRef]*Document

// Check implements pipeline.Source.
func (s Static) Check(ref taxdoc.DocumentRef) error {
	if _, ok := s[ref]; !ok {
		return fmt.Errorf("unknown document %s", ref)
	}

	return nil
}

// Classify implements pipeline.Classifier.
func (s Static) Classify(_ context.Context, ref taxdoc.DocumentRef) (taxdoc.DocType, error) {
	doc, ok := s[ref]
	if !ok {
		return "", fmt.Errorf("unknown document %s", ref)
	}

	return classify(doc)
}

// Extract implements pipeline.Extractor.
func (s Static) Extract(_ context.Context, ref taxdoc.DocumentRef, _ taxdoc.DocType) (map[int]taxdoc.Page, error) {
	doc, ok := s[ref]
	if !ok {
		return nil, fmt.Errorf("unknown document %s", ref)
	}

	return doc.Pages, nil
}

func classify(doc *Document) (taxdoc.DocType, error) {
	label := strings.TrimSpace(doc.DocType)
	if label == "" {
		return "", errors.New("sidecar has no doc_type")
	}

	return taxdoc.ParseDocType(label), nil
}
