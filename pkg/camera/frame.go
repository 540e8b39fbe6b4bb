package camera

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Buffer is the pixel storage of one frame. Release returns the storage to
// its producer and must be called exactly once by whoever holds the buffer
// last; further calls are ignored.
type Buffer interface {
	Width() int
	Height() int
	Release()
	ToI420() (I420Buffer, error)
}

// I420Buffer exposes the luma plane of a planar YUV buffer.
type I420Buffer interface {
	Buffer
	DataY() []byte
	StrideY() int
}

// TransformedBuffer is a buffer whose texture coordinates carry a transform.
type TransformedBuffer interface {
	Buffer
	Transform() mgl32.Mat4
	// WithTransform returns a view over the same storage with m as its
	// transform. Releasing either the view or the original releases the
	// storage once.
	WithTransform(m mgl32.Mat4) Buffer
}

// Frame is what the session delivers to its consumer.
type Frame struct {
	Buffer Buffer
	// Rotation in degrees clockwise the consumer must apply for upright display.
	Rotation    int
	TimestampNs int64
}

// Release releases the frame's buffer.
func (f Frame) Release() {
	if f.Buffer != nil {
		f.Buffer.Release()
	}
}

// releaseOnce guards a release callback shared between a buffer and its views.
type releaseOnce struct {
	once sync.Once
	fn   func()
}

func newReleaseOnce(fn func()) *releaseOnce {
	return &releaseOnce{fn: fn}
}

func (r *releaseOnce) release() {
	r.once.Do(func() {
		if r.fn != nil {
			r.fn()
		}
	})
}

// TextureBuffer is a GPU texture frame produced by the request generation.
type TextureBuffer struct {
	width     int
	height    int
	textureID int
	transform mgl32.Mat4
	rel       *releaseOnce
	toI420    func(*TextureBuffer) (I420Buffer, error)
}

// NewTextureBuffer wraps a texture. release hands the texture back to the
// frame source; toI420 reads it back into memory.
func NewTextureBuffer(
	width, height, textureID int,
	transform mgl32.Mat4,
	release func(),
	toI420 func(*TextureBuffer) (I420Buffer, error),
) *TextureBuffer {
	return &TextureBuffer{
		width:     width,
		height:    height,
		textureID: textureID,
		transform: transform,
		rel:       newReleaseOnce(release),
		toI420:    toI420,
	}
}

// Width in pixels.
func (b *TextureBuffer) Width() int { return b.width }

// Height in pixels.
func (b *TextureBuffer) Height() int { return b.height }

// TextureID of the underlying texture.
func (b *TextureBuffer) TextureID() int { return b.textureID }

// Transform applied to texture coordinates.
func (b *TextureBuffer) Transform() mgl32.Mat4 { return b.transform }

// Release returns the texture to the frame source.
func (b *TextureBuffer) Release() { b.rel.release() }

// ToI420 converts the texture into a memory buffer.
func (b *TextureBuffer) ToI420() (I420Buffer, error) {
	if b.toI420 == nil {
		return nil, newError(ErrCodeDeviceError, "texture buffer has no converter", nil)
	}
	return b.toI420(b)
}

// WithTransform returns a view with a new transform.
func (b *TextureBuffer) WithTransform(m mgl32.Mat4) Buffer {
	view := *b
	view.transform = m
	return &view
}

// NV21Buffer is a raw semi-planar frame produced by the legacy generation.
type NV21Buffer struct {
	data      []byte
	width     int
	height    int
	transform mgl32.Mat4
	rel       *releaseOnce
}

// NewNV21Buffer wraps data; release recycles it to the device.
func NewNV21Buffer(data []byte, width, height int, release func()) *NV21Buffer {
	return &NV21Buffer{
		data:      data,
		width:     width,
		height:    height,
		transform: mgl32.Ident4(),
		rel:       newReleaseOnce(release),
	}
}

// Width in pixels.
func (b *NV21Buffer) Width() int { return b.width }

// Height in pixels.
func (b *NV21Buffer) Height() int { return b.height }

// Data is the raw NV21 payload.
func (b *NV21Buffer) Data() []byte { return b.data }

// Transform applied to texture coordinates when rendered.
func (b *NV21Buffer) Transform() mgl32.Mat4 { return b.transform }

// Release recycles the buffer.
func (b *NV21Buffer) Release() { b.rel.release() }

// WithTransform returns a view with a new transform.
func (b *NV21Buffer) WithTransform(m mgl32.Mat4) Buffer {
	view := *b
	view.transform = m
	return &view
}

// ToI420 exposes the luma plane without copying. NV21 and I420 share the Y
// layout; chroma is not converted. The view does not own the storage.
func (b *NV21Buffer) ToI420() (I420Buffer, error) {
	lumaSize := b.width * b.height
	if len(b.data) < lumaSize {
		return nil, newError(ErrCodeDeviceError, "NV21 buffer shorter than its luma plane", nil)
	}
	return NewI420Buffer(b.width, b.height, b.data[:lumaSize], b.width, nil), nil
}

// I420 is a memory buffer holding at least the luma plane.
type I420 struct {
	width   int
	height  int
	dataY   []byte
	strideY int
	rel     *releaseOnce
}

// NewI420Buffer wraps a luma plane. release may be nil.
func NewI420Buffer(width, height int, dataY []byte, strideY int, release func()) *I420 {
	return &I420{
		width:   width,
		height:  height,
		dataY:   dataY,
		strideY: strideY,
		rel:     newReleaseOnce(release),
	}
}

// Width in pixels.
func (b *I420) Width() int { return b.width }

// Height in pixels.
func (b *I420) Height() int { return b.height }

// DataY is the luma plane.
func (b *I420) DataY() []byte { return b.dataY }

// StrideY is the luma row stride in bytes.
func (b *I420) StrideY() int { return b.strideY }

// Release frees the buffer.
func (b *I420) Release() { b.rel.release() }

// ToI420 returns the buffer itself.
func (b *I420) ToI420() (I420Buffer, error) { return b, nil }
