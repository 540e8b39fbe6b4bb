package camera

import "github.com/go-gl/mathgl/mgl32"

// Texture transforms are 4x4 column-major matrices applied to texture
// coordinates in [0,1].

// horizontalFlip maps x to 1-x.
var horizontalFlip = mgl32.Mat4{
	-1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	1, 0, 0, 1,
}

// HorizontalFlip returns the matrix that mirrors texture coordinates.
func HorizontalFlip() mgl32.Mat4 {
	return horizontalFlip
}

// rotationAboutCenter rotates texture coordinates by degrees
// counter-clockwise around (0.5, 0.5).
func rotationAboutCenter(degrees int) mgl32.Mat4 {
	rot := mgl32.HomogRotate3DZ(mgl32.DegToRad(float32(degrees)))
	return mgl32.Translate3D(0.5, 0.5, 0).Mul4(rot).Mul4(mgl32.Translate3D(-0.5, -0.5, 0))
}

// MirrorTransform applies a horizontal mirror to m.
func MirrorTransform(m mgl32.Mat4) mgl32.Mat4 {
	return m.Mul4(horizontalFlip)
}

// RotateTransform rotates m by degrees around the texture centre.
func RotateTransform(m mgl32.Mat4, degrees int) mgl32.Mat4 {
	if degrees%360 == 0 {
		return m
	}
	return m.Mul4(rotationAboutCenter(degrees))
}
