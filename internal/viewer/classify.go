package viewer

import (
	"net/url"
	"path"
	"strings"
)

// Category is the render category a content URL classifies into.
type Category string

const (
	CategoryImage    Category = "image"
	CategoryPDF      Category = "pdf"
	CategoryVideo    Category = "video"
	CategoryAudio    Category = "audio"
	CategoryOffice   Category = "office"
	CategoryText     Category = "text"
	CategoryDownload Category = "download"
)

var extCategories = map[string]Category{
	".png":  CategoryImage,
	".jpg":  CategoryImage,
	".jpeg": CategoryImage,
	".gif":  CategoryImage,
	".webp": CategoryImage,
	".svg":  CategoryImage,
	".bmp":  CategoryImage,

	".pdf": CategoryPDF,

	".mp4":  CategoryVideo,
	".webm": CategoryVideo,
	".mkv":  CategoryVideo,
	".mov":  CategoryVideo,
	".avi":  CategoryVideo,

	".mp3":  CategoryAudio,
	".wav":  CategoryAudio,
	".ogg":  CategoryAudio,
	".m4a":  CategoryAudio,
	".flac": CategoryAudio,

	".doc":  CategoryOffice,
	".docx": CategoryOffice,
	".xls":  CategoryOffice,
	".xlsx": CategoryOffice,
	".ppt":  CategoryOffice,
	".pptx": CategoryOffice,

	".txt": CategoryText,
	".md":  CategoryText,
	".csv": CategoryText,
}

// Classify maps a content URL to its render category by file extension.
// Unknown extensions fall back to a plain download.
func Classify(rawURL string) Category {
	ext := strings.ToLower(path.Ext(urlPath(rawURL)))
	if cat, ok := extCategories[ext]; ok {
		return cat
	}
	return CategoryDownload
}

// Ext returns the lowered file extension of a content URL, query and
// fragment stripped.
func Ext(rawURL string) string {
	return strings.ToLower(path.Ext(urlPath(rawURL)))
}

func urlPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if u.Path != "" {
		return u.Path
	}
	return rawURL
}
