package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Lobster banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text, color string
	}{
		{`  _         _         _`, "#fb7185"},
		{` | |   ___ | |__  ___| |_ ___ _ __`, "#f87171"},
		{` | |  / _ \| '_ \/ __| __/ _ \ '__|`, "#f97316"},
		{` | |_| (_) | |_) \__ \ ||  __/ |`, "#fb923c"},
		{` |____\___/|_.__/|___/\__\___|_|`, "#fdba74"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
