package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{" _                         _       ", "#818cf8"},
	{"| | __ _ _   _  ___  _   _| |_ ___ ", "#a78bfa"},
	{"| |/ _` | | | |/ _ \\| | | | __/ __|", "#c084fc"},
	{"| | (_| | |_| | (_) | |_| | |_\\__ \\", "#e879f9"},
	{"|_|\\__,_|\\__, |\\___/ \\__,_|\\__|___/", "#f472b6"},
	{"         |___/                      ", "#fb7185"},
}

// PrintBanner writes the ASCII art banner to w.
func PrintBanner(w io.Writer) {
	o := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, o.String(l.text).Foreground(o.Color(l.color)))
	}
	fmt.Fprintln(w)
}
