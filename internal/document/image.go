package document

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// maxImagePixels 嵌入 PDF 前的最大边长
const maxImagePixels = 1600

var errBadImageSource = errors.New("图片数据格式无效")

// DecodeImageSource 解析 data URL 或裸 base64，返回原始字节
func DecodeImageSource(src string) ([]byte, error) {
	src = strings.TrimSpace(src)
	if strings.HasPrefix(src, "data:") {
		comma := strings.IndexByte(src, ',')
		if comma < 0 || !strings.Contains(src[:comma], ";base64") {
			return nil, errBadImageSource
		}
		src = src[comma+1:]
	}
	data, err := base64.StdEncoding.DecodeString(src)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(src); err != nil {
			return nil, errBadImageSource
		}
	}
	return data, nil
}

// DataURL HTML 输出用：裸 base64 补全为 data URL
func DataURL(src string) string {
	src = strings.TrimSpace(src)
	if strings.HasPrefix(src, "data:image/") {
		return src
	}
	return "data:image/png;base64," + src
}

// prepareImage 解码任意支持格式（jpeg/png/gif/webp），缩放并铺白底后编码为 JPEG。
// 返回 JPEG 字节与宽高比（高/宽）。
func prepareImage(src string) ([]byte, float64, error) {
	raw, err := DecodeImageSource(src)
	if err != nil {
		return nil, 0, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, 0, err
	}

	fitted := imaging.Fit(img, maxImagePixels, maxImagePixels, imaging.Lanczos)
	b := fitted.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, 0, errBadImageSource
	}
	flat := imaging.Overlay(imaging.New(b.Dx(), b.Dy(), color.White), fitted, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), float64(b.Dy()) / float64(b.Dx()), nil
}
