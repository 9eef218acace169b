// ABOUTME: Note encode and decode pipeline
// ABOUTME: Source buffer -> canonical PCM -> base64, and base64 -> playable buffer
package codec

import (
	"errors"
	"fmt"

	"github.com/Sonicmapper/sonicmapper-go/pkg/audio"
	"github.com/Sonicmapper/sonicmapper-go/pkg/audio/decode"
	"github.com/Sonicmapper/sonicmapper-go/pkg/audio/encode"
	"github.com/Sonicmapper/sonicmapper-go/pkg/audio/resample"
)

var (
	// ErrSourceDecode means an uploaded or generated clip could not be interpreted
	ErrSourceDecode = errors.New("source audio decode failed")
	// ErrTextCodec means the stored text is not valid base64
	ErrTextCodec = errors.New("malformed base64 audio")
	// ErrTruncatedStream means the stored PCM ends in half a sample
	ErrTruncatedStream = decode.ErrTruncated
)

// Codec encodes source audio into stored notes
type Codec struct {
	renderer *Renderer
	encoder  *encode.PCMEncoder
}

// New creates a codec rendering with the given resampler (nil for linear)
func New(resampler resample.Resampler) *Codec {
	encoder, err := encode.NewPCM(audio.Canonical)
	if err != nil {
		// canonical format is always supported
		panic(err)
	}
	return &Codec{
		renderer: NewRenderer(resampler),
		encoder:  encoder,
	}
}

// Encode converts a source buffer of any rate and channel count into a
// stored note. An empty buffer encodes to the empty string.
func (c *Codec) Encode(src *audio.Buffer) (string, error) {
	if src.Frames() == 0 {
		return "", nil
	}

	rendered, err := c.renderer.Render(src)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSourceDecode, err)
	}

	pcm, err := c.encoder.Encode(rendered)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSourceDecode, err)
	}

	return EncodeText(pcm), nil
}

// EncodeFile decodes an uploaded file and encodes it as a stored note. A
// file that decodes to no audio is an ErrSourceDecode.
func (c *Codec) EncodeFile(data []byte, name string) (string, error) {
	decoder, err := decode.ForFile(data, name)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSourceDecode, err)
	}

	src, err := decoder.Decode(data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSourceDecode, err)
	}
	if src.Frames() == 0 {
		return "", fmt.Errorf("%w: %s contains no audio", ErrSourceDecode, name)
	}

	return c.Encode(src)
}

// Decode converts a stored note into a canonical mono buffer. The format is
// always audio.Canonical; nothing in the input describes it.
func Decode(encoded string) (*audio.Buffer, error) {
	raw, err := DecodeText(encoded)
	if err != nil {
		return nil, err
	}

	decoder, err := decode.NewPCM(audio.Canonical)
	if err != nil {
		return nil, err
	}

	return decoder.Decode(raw)
}

// Validate reports whether encoded is a well-formed stored note
func Validate(encoded string) error {
	_, err := Decode(encoded)
	return err
}
