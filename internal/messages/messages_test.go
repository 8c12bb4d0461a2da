package messages

import (
	"testing"

	"golang.org/x/text/language"
)

func TestTextFormatsArguments(t *testing.T) {
	c := Default()
	got := c.Text(PageSizeOverMax, 20, 10)
	if got != "page size 20 exceeds max rows 10" {
		t.Errorf("got %q", got)
	}
}

func TestLocalizedOverride(t *testing.T) {
	c := New(language.German)
	if err := c.Set(language.German, ReadOnly, "Zeilenmenge ist schreibgeschützt"); err != nil {
		t.Fatal(err)
	}
	if got := c.Text(ReadOnly); got != "Zeilenmenge ist schreibgeschützt" {
		t.Errorf("got %q", got)
	}
	if got := c.Text(ForwardOnly); got != "row set is forward only" {
		t.Errorf("fallback got %q", got)
	}
}
