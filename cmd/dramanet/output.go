package main

import (
	"fmt"
	"io"

	"github.com/ersonp/dramanet/internal/format"
)

// render writes v as JSON in JSON mode, and the text rendering otherwise.
func render(w io.Writer, v any, text func(format.Mode) string) error {
	mode, err := format.ParseMode(globalFormat)
	if err != nil {
		return err
	}
	if mode == format.JSON {
		return format.WriteJSON(w, v)
	}
	_, err = fmt.Fprint(w, ensureNewline(text(mode)))
	return err
}

func ensureNewline(s string) string {
	if s == "" || s[len(s)-1] == '\n' {
		return s
	}
	return s + "\n"
}
