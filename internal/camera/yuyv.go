package camera

import (
	"fmt"
	"image"
)

// decodeYUYV converte um quadro YUYV 4:2:2 empacotado em image.YCbCr sem
// conversão de cor; o plano Y serve direto ao detector de movimento.
func decodeYUYV(frame []byte, width, height int) (*image.YCbCr, error) {
	if width <= 0 || height <= 0 || width%2 != 0 {
		return nil, fmt.Errorf("decode yuyv: bad size %dx%d", width, height)
	}
	if len(frame) < width*height*2 {
		return nil, fmt.Errorf("decode yuyv: short frame %d bytes for %dx%d", len(frame), width, height)
	}

	img := image.NewYCbCr(image.Rect(0, 0, width, height), image.YCbCrSubsampleRatio422)
	for y := 0; y < height; y++ {
		row := frame[y*width*2 : (y+1)*width*2]
		yOff := y * img.YStride
		cOff := y * img.CStride
		for x := 0; x < width; x += 2 {
			i := x * 2
			img.Y[yOff+x] = row[i]
			img.Cb[cOff+x/2] = row[i+1]
			img.Y[yOff+x+1] = row[i+2]
			img.Cr[cOff+x/2] = row[i+3]
		}
	}
	return img, nil
}
