// Package av1decoder provides an AV1 video decoder using libaom.
package av1decoder

/*
#cgo pkg-config: aom
#include <aom/aom_decoder.h>
#include <aom/aomdx.h>
#include <stdlib.h>
#include <string.h>

static aom_codec_iface_t* get_av1_decoder_interface() {
    return aom_codec_av1_dx();
}

// Wrapper for aom_codec_dec_init
static aom_codec_err_t init_decoder(aom_codec_ctx_t *ctx, aom_codec_iface_t *iface) {
    return aom_codec_dec_init(ctx, iface, NULL, 0);
}

// Get image plane data
static unsigned char* get_plane(aom_image_t *img, int plane) {
    return img->planes[plane];
}

static int get_stride(aom_image_t *img, int plane) {
    return img->stride[plane];
}

static unsigned int get_width(aom_image_t *img) {
    return img->d_w;
}

static unsigned int get_height(aom_image_t *img) {
    return img->d_h;
}
*/
import "C"

import (
	"errors"
	"fmt"
	"image"
	"unsafe"

	"github.com/user/framescrub/pkg/ports"
)

var (
	// ErrNotInitialized is returned when the decoder has been closed.
	ErrNotInitialized = errors.New("av1decoder: decoder not initialized")
	// ErrDecodeFailed is returned when libaom rejects a packet.
	ErrDecodeFailed = errors.New("av1decoder: decode failed")
)

// Decoder implements ports.Decoder using libaom.
//
// AV1 packets are temporal units that carry their shown frame, so output
// follows input one to one and the decoder never holds pictures back.
type Decoder struct {
	codec    *C.aom_codec_ctx_t
	needsKey bool
}

// New creates and initializes an AV1 decoder.
func New() (*Decoder, error) {
	d := &Decoder{needsKey: true}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Decoder) init() error {
	d.codec = (*C.aom_codec_ctx_t)(C.malloc(C.sizeof_aom_codec_ctx_t))
	if d.codec == nil {
		return fmt.Errorf("failed to allocate decoder context")
	}
	C.memset(unsafe.Pointer(d.codec), 0, C.sizeof_aom_codec_ctx_t)

	iface := C.get_av1_decoder_interface()
	if res := C.init_decoder(d.codec, iface); res != C.AOM_CODEC_OK {
		C.free(unsafe.Pointer(d.codec))
		d.codec = nil
		return fmt.Errorf("failed to initialize decoder: %d", res)
	}

	return nil
}

// Decode decodes one temporal unit. Packets before the first keyframe
// after creation or Flush are skipped.
func (d *Decoder) Decode(pkt ports.Packet) (*ports.Picture, error) {
	if d.codec == nil {
		return nil, ErrNotInitialized
	}
	if d.needsKey {
		if !pkt.Keyframe {
			return nil, nil
		}
		d.needsKey = false
	}
	if len(pkt.Data) == 0 {
		return nil, fmt.Errorf("%w: empty frame data", ErrDecodeFailed)
	}

	res := C.aom_codec_decode(
		d.codec,
		(*C.uint8_t)(unsafe.Pointer(&pkt.Data[0])),
		C.size_t(len(pkt.Data)),
		nil,
	)
	if res != C.AOM_CODEC_OK {
		return nil, fmt.Errorf("%w: %d", ErrDecodeFailed, res)
	}

	var iter C.aom_codec_iter_t
	img := C.aom_codec_get_frame(d.codec, &iter)
	if img == nil {
		// Temporal unit without a shown frame.
		return nil, nil
	}

	return &ports.Picture{Image: yuvToRGBA(img), PTS: pkt.PTS}, nil
}

// Drain returns nil: nothing is ever held back.
func (d *Decoder) Drain() (*ports.Picture, error) {
	return nil, nil
}

// Flush drops reference state by re-creating the libaom context.
func (d *Decoder) Flush() {
	d.destroy()
	d.needsKey = true
	if err := d.init(); err != nil {
		d.codec = nil
	}
}

// HasDelay reports false.
func (d *Decoder) HasDelay() bool {
	return false
}

// Close releases decoder resources.
func (d *Decoder) Close() {
	d.destroy()
}

func (d *Decoder) destroy() {
	if d.codec != nil {
		C.aom_codec_destroy(d.codec)
		C.free(unsafe.Pointer(d.codec))
		d.codec = nil
	}
}

var _ ports.Decoder = (*Decoder)(nil)

// yuvToRGBA converts YUV420 image to RGBA.
func yuvToRGBA(img *C.aom_image_t) *image.RGBA {
	width := int(C.get_width(img))
	height := int(C.get_height(img))

	yPlane := C.get_plane(img, 0)
	uPlane := C.get_plane(img, 1)
	vPlane := C.get_plane(img, 2)

	yStride := int(C.get_stride(img, 0))
	uStride := int(C.get_stride(img, 1))
	vStride := int(C.get_stride(img, 2))

	rgba := image.NewRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			yIdx := y*yStride + x
			uIdx := (y/2)*uStride + (x / 2)
			vIdx := (y/2)*vStride + (x / 2)

			yVal := int(*(*C.uchar)(unsafe.Pointer(uintptr(unsafe.Pointer(yPlane)) + uintptr(yIdx))))
			uVal := int(*(*C.uchar)(unsafe.Pointer(uintptr(unsafe.Pointer(uPlane)) + uintptr(uIdx))))
			vVal := int(*(*C.uchar)(unsafe.Pointer(uintptr(unsafe.Pointer(vPlane)) + uintptr(vIdx))))

			r, g, b := yuvToRGB(yVal, uVal, vVal)

			idx := y*rgba.Stride + x*4
			rgba.Pix[idx] = uint8(r)
			rgba.Pix[idx+1] = uint8(g)
			rgba.Pix[idx+2] = uint8(b)
			rgba.Pix[idx+3] = 255
		}
	}

	return rgba
}

// yuvToRGB applies the BT.601 limited-range conversion.
func yuvToRGB(yVal, uVal, vVal int) (r, g, b int) {
	c := yVal - 16
	d := uVal - 128
	e := vVal - 128

	r = clamp((298*c + 409*e + 128) >> 8)
	g = clamp((298*c - 100*d - 208*e + 128) >> 8)
	b = clamp((298*c + 516*d + 128) >> 8)
	return r, g, b
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
