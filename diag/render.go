package diag

import (
	"io"

	"github.com/hashicorp/hcl/v2"
)

// WriteText renders diags in hcl's human-oriented text format. Sources whose
// bytes are present in files get a snippet under each diagnostic.
func WriteText(w io.Writer, diags hcl.Diagnostics, files map[string][]byte, width uint) error {
	hclFiles := make(map[string]*hcl.File, len(files))
	for name, src := range files {
		hclFiles[name] = &hcl.File{Bytes: src}
	}
	return hcl.NewDiagnosticTextWriter(w, hclFiles, width, false).WriteDiagnostics(diags)
}
