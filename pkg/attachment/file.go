package attachment

import (
	"fmt"
	"strconv"
)

// MiB is the number of bytes in a mebibyte.
const MiB = 1024 * 1024

// File is a single attached file. Path is set when the file comes from local
// disk (terminal hosts) and is empty for browser or multipart sources.
type File struct {
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	MediaType string `json:"mediaType"`
	Path      string `json:"path,omitempty"`
}

// Entry is one row of the rendered attachment list. Index addresses the
// removal control and is always the entry's current position.
type Entry struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	SizeLabel string `json:"sizeLabel"`
}

// List is what the View receives on every render.
type List struct {
	Entries []Entry
	HTML    string
}

// FormatMebibytes renders a byte count as MiB with two decimals ("1.50").
func FormatMebibytes(size int64) string {
	return fmt.Sprintf("%.2f", float64(size)/MiB)
}

// Entries builds list entries for files, indexed 0..n-1 in order.
func Entries(files []File) []Entry {
	if len(files) == 0 {
		return nil
	}
	entries := make([]Entry, len(files))
	for i, file := range files {
		entries[i] = Entry{
			Index:     i,
			Name:      file.Name,
			Size:      file.Size,
			SizeLabel: FormatMebibytes(file.Size) + "mb",
		}
	}
	return entries
}

func formatLimit(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
