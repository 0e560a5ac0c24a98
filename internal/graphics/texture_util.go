package graphics

import (
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Texture is a 2D RGBA texture whose contents are replaced frame by frame
type Texture struct {
	ID            uint32
	Width, Height int
}

// NewTexture allocates a texture sized to img and uploads it
func NewTexture(img *image.RGBA) *Texture {
	t := &Texture{}
	gl.GenTextures(1, &t.ID)
	gl.BindTexture(gl.TEXTURE_2D, t.ID)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)

	t.allocate(img)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return t
}

func (t *Texture) allocate(img *image.RGBA) {
	size := img.Rect.Size()
	t.Width, t.Height = size.X, size.Y
	gl.TexImage2D(
		gl.TEXTURE_2D,
		0,
		gl.RGBA,
		int32(size.X),
		int32(size.Y),
		0,
		gl.RGBA,
		gl.UNSIGNED_BYTE,
		gl.Ptr(img.Pix),
	)
}

// Upload replaces the texture contents, reallocating when the size changed
func (t *Texture) Upload(img *image.RGBA) {
	gl.BindTexture(gl.TEXTURE_2D, t.ID)
	size := img.Rect.Size()
	if size.X != t.Width || size.Y != t.Height {
		t.allocate(img)
	} else {
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(size.X), int32(size.Y), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

// Bind binds the texture to the given texture unit
func (t *Texture) Bind(unit uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, t.ID)
}

// Delete releases the texture
func (t *Texture) Delete() {
	gl.DeleteTextures(1, &t.ID)
}
