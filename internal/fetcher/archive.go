package fetcher

import (
	"archive/zip"
	"bytes"

	"github.com/rotisserie/eris"

	"github.com/sells-group/report-cli/internal/model"
)

// BundleZIP packages the fetched documents into a single deflate-compressed
// archive, one entry per document, preserving filenames and byte content.
func BundleZIP(docs []model.Document) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	for _, doc := range docs {
		entry, err := w.Create(doc.Filename)
		if err != nil {
			return nil, eris.Wrapf(err, "zip: create entry %q", doc.Filename)
		}
		if _, err := entry.Write(doc.Data); err != nil {
			return nil, eris.Wrapf(err, "zip: write entry %q", doc.Filename)
		}
	}

	if err := w.Close(); err != nil {
		return nil, eris.Wrap(err, "zip: close archive")
	}
	return buf.Bytes(), nil
}
