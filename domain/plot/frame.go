package plot

import (
	"time"

	"physlab/domain/core"
)

// Frame is one rendered live-refresh image
type Frame struct {
	Seq        int
	Data       []byte
	Format     Format
	Hash       core.Hash
	RenderedAt time.Time
}

// NewFrame stamps rendered bytes with their content hash
func NewFrame(seq int, data []byte, format Format, at time.Time) Frame {
	return Frame{
		Seq:        seq,
		Data:       data,
		Format:     format,
		Hash:       core.NewHash(data),
		RenderedAt: at,
	}
}

// ContentType returns the MIME type of the frame encoding
func (f Frame) ContentType() string {
	if f.Format == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}
