// Package messages resolves row set message keys to localized text.
package messages

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	InvalidCursor      = "rowset.invalid-cursor"
	AbsoluteZero       = "rowset.absolute-zero"
	ForwardOnly        = "rowset.forward-only"
	ReadOnly           = "rowset.read-only"
	OnInsertRow        = "rowset.on-insert-row"
	NotInserted        = "rowset.not-inserted"
	NoMetadata         = "rowset.no-metadata"
	UnknownColumn      = "rowset.unknown-column"
	MaxRowsExceeded    = "rowset.max-rows-exceeded"
	NotPopulated       = "rowset.not-populated"
	NegativePageSize   = "rowset.negative-page-size"
	PageSizeOverMax    = "rowset.page-size-over-max"
	NegativeMaxRows    = "rowset.negative-max-rows"
	MaxRowsUnderPage   = "rowset.max-rows-under-page"
	BadStartPosition   = "rowset.bad-start-position"
	NoProvider         = "rowset.no-provider"
	SyncConflict       = "rowset.sync-conflict"
	SyncFailed         = "rowset.sync-failed"
	MatchColumnSet     = "rowset.match-column-set"
	MatchColumnMixed   = "rowset.match-column-mixed"
	MatchColumnUnset   = "rowset.match-column-unset"
	MatchColumnInvalid = "rowset.match-column-invalid"
	NoMatchColumns     = "rowset.no-match-columns"
)

var english = map[string]string{
	InvalidCursor:      "cursor is not on a valid row",
	AbsoluteZero:       "absolute(0) is not a valid position",
	ForwardOnly:        "row set is forward only",
	ReadOnly:           "row set is read only",
	OnInsertRow:        "operation not allowed on the insert row",
	NotInserted:        "current row was not inserted",
	NoMetadata:         "row set has no column metadata",
	UnknownColumn:      "no column named %q",
	MaxRowsExceeded:    "populating stopped at the max rows limit of %d",
	NotPopulated:       "row set has not been populated",
	NegativePageSize:   "page size cannot be negative",
	PageSizeOverMax:    "page size %d exceeds max rows %d",
	NegativeMaxRows:    "max rows cannot be negative",
	MaxRowsUnderPage:   "max rows %d is less than page size %d",
	BadStartPosition:   "start position %d must be at least 1",
	NoProvider:         "no synchronization provider configured",
	SyncConflict:       "source changed since the rows were read",
	SyncFailed:         "writing changes back failed",
	MatchColumnSet:     "match column slot %d is already set",
	MatchColumnMixed:   "match column slot %d holds a column of the other kind",
	MatchColumnUnset:   "match columns being unset differ from those set",
	MatchColumnInvalid: "match column %v is not valid",
	NoMatchColumns:     "set match columns before reading them",
}

// Catalog is a message lookup backed by an x/text catalog.
type Catalog struct {
	builder *catalog.Builder
	printer *message.Printer
}

// New returns a catalog that renders messages for tag. Keys without a
// translation for tag render in English.
func New(tag language.Tag) *Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, msg := range english {
		// SetString only fails on malformed messages.
		_ = b.SetString(language.English, key, msg)
		if tag != language.English {
			_ = b.SetString(tag, key, msg)
		}
	}
	return &Catalog{
		builder: b,
		printer: message.NewPrinter(tag, message.Catalog(b)),
	}
}

// Default returns the English catalog.
func Default() *Catalog {
	return New(language.English)
}

// Set adds or replaces the text of a key for a language.
func (c *Catalog) Set(tag language.Tag, key, msg string) error {
	return c.builder.SetString(tag, key, msg)
}

// Text renders the message for key.
func (c *Catalog) Text(key string, args ...interface{}) string {
	return c.printer.Sprintf(key, args...)
}
