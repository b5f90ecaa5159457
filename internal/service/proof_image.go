package service

import (
	"fmt"
	"image"
	"io"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// proofExtensions 允许的凭证类型及其存储扩展名
var proofExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// decodeImageDimensions 仅解析图片头部得到宽高，实际格式必须与嗅探出的类型一致
func decodeImageDimensions(src io.ReadSeeker, contentType string) (int, int, error) {
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return 0, 0, err
	}
	cfg, format, err := image.DecodeConfig(src)
	if err != nil {
		return 0, 0, fmt.Errorf("decode image header: %w", err)
	}
	if "image/"+format != contentType {
		return 0, 0, fmt.Errorf("image format %s does not match content type %s", format, contentType)
	}
	return cfg.Width, cfg.Height, nil
}
