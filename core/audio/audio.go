// Package audio owns OS audio routing for the voice session. The coordinator
// is the only component allowed to touch audio session state; everything else
// goes through it.
package audio

const (
	DefaultSampleRate = 24000
	DefaultFormat     = "linear16"
)

// EncodingInfo describes raw PCM clip data handed to the clip player.
type EncodingInfo struct {
	SampleRate int
	Format     encodingFormat
}

func DefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultSampleRate, Format: EncodingLinear16}
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format.Name() == ""
}

type encodingFormat string

const EncodingLinear16 encodingFormat = "linear16"

func (e encodingFormat) Name() string {
	return string(e)
}

func (e encodingFormat) ByteSize() int {
	if e == EncodingLinear16 {
		return 2
	}
	return -1
}
