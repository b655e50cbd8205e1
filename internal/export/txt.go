package export

import (
	"bufio"
	"fmt"
	"io"
)

// WriteIdentifiers writes one identifier per line.
func WriteIdentifiers(w io.Writer, ids []string) error {
	bw := bufio.NewWriter(w)
	for _, id := range ids {
		if _, err := fmt.Fprintln(bw, id); err != nil {
			return fmt.Errorf("failed to write identifier list: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush identifier list: %w", err)
	}

	return nil
}
