package service

import (
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// WriteManifest renders the current photo list as a printable, numbered table
func (e *SyncEngine) WriteManifest(w io.Writer) error {
	photos := e.Snapshot().Photos
	return RenderManifest(w, e.printer.Sprintf(msgManifestTitle), e.printer.Sprintf(msgManifestName), photos)
}

// RenderManifest writes a title line followed by a numbered table of photos.
// The title stays outside the table so it never wraps to the column widths.
func RenderManifest(w io.Writer, title, nameHeader string, photos []string) error {
	if _, err := io.WriteString(w, title+"\n"); err != nil {
		return err
	}

	tw := table.NewWriter()
	style := table.StyleRounded
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)
	tw.AppendHeader(table.Row{"#", nameHeader})

	for i, name := range photos {
		tw.AppendRow(table.Row{strconv.Itoa(i + 1), name})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignRight},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
	})

	_, err := io.WriteString(w, tw.Render()+"\n")
	return err
}
