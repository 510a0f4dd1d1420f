package wordpress

import (
	"fmt"
	"sort"
	"strconv"
)

// AttachmentMetadata - нужная импорту часть _wp_attachment_metadata.
type AttachmentMetadata struct {
	Width  int
	Height int
	File   string
	Sizes  []ImageSize
	// ImageMeta - EXIF-данные; нулевые числовые значения отброшены.
	ImageMeta map[string]any
}

type ImageSize struct {
	Name   string
	File   string
	Width  int
	Height int
}

// ParseAttachmentMetadata разбирает сериализованное значение postmeta.
func ParseAttachmentMetadata(serialized string) (*AttachmentMetadata, error) {
	v, err := UnserializePHP(serialized)
	if err != nil {
		return nil, err
	}
	root, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: ожидался массив", ErrPHPSerialized)
	}

	meta := &AttachmentMetadata{}
	meta.Width, _ = phpInt(root["width"])
	meta.Height, _ = phpInt(root["height"])
	meta.File, _ = root["file"].(string)

	if im, ok := root["image_meta"].(map[string]any); ok {
		meta.ImageMeta = imageMeta(im)
	}

	sizes, _ := root["sizes"].(map[string]any)
	for name, v := range sizes {
		s, ok := v.(map[string]any)
		if !ok {
			continue
		}
		size := ImageSize{Name: name}
		size.File, _ = s["file"].(string)
		if size.File == "" {
			continue
		}
		size.Width, _ = phpInt(s["width"])
		size.Height, _ = phpInt(s["height"])
		meta.Sizes = append(meta.Sizes, size)
	}
	sortSizes(meta.Sizes)
	return meta, nil
}

// В PHP порядок ключей массива сохраняется, в map - нет. Сортируем по имени
// размера для воспроизводимого результата.
func sortSizes(sizes []ImageSize) {
	sort.Slice(sizes, func(i, j int) bool { return sizes[i].Name < sizes[j].Name })
}

func imageMeta(im map[string]any) map[string]any {
	out := make(map[string]any)
	for _, key := range []string{"credit", "camera", "caption", "copyright", "title"} {
		if s, ok := im[key].(string); ok && s != "" {
			out[key] = s
		}
	}
	for _, key := range []string{"aperture", "created_timestamp", "focal_length", "iso", "shutter_speed"} {
		if f, ok := phpFloat(im[key]); ok && f != 0 {
			out[key] = f
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// В метаданных числа бывают и целыми, и строками.
func phpInt(v any) (int, bool) {
	switch n := v.(type) {
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	}
	return 0, false
}

func phpFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
