package usecase

import (
	"io"
	"unicode/utf8"

	"warble/services/post/internal/entity"
)

const (
	MaxTextLength = 180
	MaxMediaBytes = 1 << 20 // 1 MiB
)

// MediaFile is one attachment handed in by the transport layer. The size is
// the declared byte length of the content behind Reader.
type MediaFile struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

// ValidateText checks the 1..180 character bound. Counted in runes, not
// bytes, so multibyte text gets the same budget the UI shows.
func ValidateText(text string) error {
	n := utf8.RuneCountInString(text)
	if n < 1 || n > MaxTextLength {
		return entity.ErrTextLength
	}
	return nil
}

// ValidateMedia accepts at most one file strictly under 1 MiB. A multi-file
// selection is rejected outright rather than silently taking the first.
// Returns nil when no file was supplied.
func ValidateMedia(files []*MediaFile) (*MediaFile, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > 1 {
		return nil, entity.ErrTooManyFiles
	}
	if files[0].Size >= MaxMediaBytes {
		return nil, entity.ErrMediaTooLarge
	}
	return files[0], nil
}
