package source

import (
	"bytes"

	"github.com/gabriel-vasile/mimetype"

	apperrors "kbpulse/internal/errors"
)

var (
	// xlsx workbooks are zip containers
	zipMagic = []byte("PK\x03\x04")
	// legacy xls workbooks are OLE compound documents
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
)

// Sniff rejects payloads that cannot be a spreadsheet workbook
func Sniff(data []byte) error {
	if len(data) == 0 {
		return apperrors.NewContentMismatchError("empty payload")
	}

	if looksLikeHTML(data) {
		return apperrors.NewContentMismatchError("upstream returned an HTML page instead of a workbook")
	}

	if bytes.HasPrefix(data, zipMagic) || bytes.HasPrefix(data, oleMagic) {
		return nil
	}

	mtype := mimetype.Detect(data)
	return apperrors.NewContentMismatchError("payload is not a spreadsheet container").
		WithContext("mime", mtype.String())
}

func looksLikeHTML(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	head = bytes.TrimPrefix(head, utf8BOM)
	head = bytes.ToLower(bytes.TrimSpace(head))
	if bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html")) {
		return true
	}
	return mimetype.Detect(data).Is("text/html")
}
