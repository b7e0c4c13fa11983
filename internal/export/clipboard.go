package export

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
)

// CopyToClipboard puts content on the system clipboard. Without a usable
// clipboard tool (ssh sessions, bare terminals) it falls back to an OSC52
// escape written to w, which defaults to stdout when nil.
func CopyToClipboard(content string, w io.Writer) error {
	if !clipboard.Unsupported {
		if err := clipboard.WriteAll(content); err == nil {
			return nil
		}
	}
	return WriteOSC52(content, w)
}

// WriteOSC52 asks the terminal to set its clipboard to content.
func WriteOSC52(content string, w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(content))
	_, err := fmt.Fprintf(w, "\u001b]52;c;%s\u0007", encoded)
	return err
}
