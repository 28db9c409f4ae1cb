package extract

import (
	"fmt"
	"io"

	id3v2 "github.com/bogem/id3v2/v2"
)

// writeStreamTags emits an ID3v2 header carrying title and artist at the
// head of an MP3 stream. Players skip or display it; the audio bitstream
// follows untouched.
func writeStreamTags(w io.Writer, meta *Metadata) error {
	tag := id3v2.NewEmptyTag()
	if meta.Title != "" {
		tag.SetTitle(meta.Title)
	}
	if meta.Channel != "" {
		tag.SetArtist(meta.Channel)
	}
	if _, err := tag.WriteTo(w); err != nil {
		return fmt.Errorf("write stream tags: %w", err)
	}
	return nil
}
