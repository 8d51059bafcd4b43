// Package catalog flattens a lesson's heterogeneous content groups into
// the ordered playlist the player steps through. Building is pure: same
// lesson in, same playlist out, no I/O.
package catalog

import "strings"

// Kind identifies which content group an item came from.
type Kind string

const (
	KindVideo     Kind = "video"
	KindMaterial  Kind = "material"
	KindNotes     Kind = "notes"
	KindTask      Kind = "task"
	KindCaseStudy Kind = "case_study"
)

// FileRef is a named reference to a lesson file as the backend sent it.
type FileRef struct {
	Name string
	Path string
}

// LessonContent is the normalized shape of one lesson's content groups.
// The API layer maps the backend's assorted key spellings into this.
type LessonContent struct {
	VideoURL   string
	VideoName  string
	Materials  []FileRef
	NotesFiles []FileRef
	TaskFiles  []FileRef
	CaseStudy  *FileRef
}

// Item is one entry of the flattened playlist.
type Item struct {
	Kind        Kind
	SourceRef   string
	URL         string
	DisplayName string
	// GroupIndex is the item's position within its source group, kept so
	// an item can be found again after the playlist is rebuilt.
	GroupIndex int
	// Position is the item's index in the playlist. Fixed at build time.
	Position int
}

// Build produces the playlist for a lesson. Group order is fixed: video,
// then materials, then notes files, then task files, then the case-study
// file. Groups whose references resolve to nothing contribute no items.
// The result is never re-sorted; a new lesson gets a new playlist.
func Build(content LessonContent, filesBase string) []Item {
	var items []Item

	add := func(kind Kind, ref, name string, groupIndex int) {
		url := ResolveURL(ref, filesBase)
		if url == "" {
			return
		}
		if name == "" {
			name = fallbackName(ref)
		}
		items = append(items, Item{
			Kind:        kind,
			SourceRef:   ref,
			URL:         url,
			DisplayName: name,
			GroupIndex:  groupIndex,
			Position:    len(items),
		})
	}

	add(KindVideo, content.VideoURL, content.VideoName, 0)
	for i, f := range content.Materials {
		add(KindMaterial, f.Path, f.Name, i)
	}
	for i, f := range content.NotesFiles {
		add(KindNotes, f.Path, f.Name, i)
	}
	for i, f := range content.TaskFiles {
		add(KindTask, f.Path, f.Name, i)
	}
	if content.CaseStudy != nil {
		add(KindCaseStudy, content.CaseStudy.Path, content.CaseStudy.Name, 0)
	}

	return items
}

// ResolveURL turns a content reference into an absolute URL. Absolute
// http(s) references pass through. Relative ones are joined to the file
// root: "/uploads/..." paths as-is, bare filenames under the lessons
// upload directory, anything else under the root with a leading slash.
// An empty reference resolves to nothing.
func ResolveURL(ref, filesBase string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}

	base := strings.TrimRight(filesBase, "/")
	switch {
	case strings.HasPrefix(ref, "/uploads/"):
		return base + ref
	case !strings.Contains(ref, "/"):
		return base + "/uploads/lessons/" + ref
	case strings.HasPrefix(ref, "/"):
		return base + ref
	default:
		return base + "/" + ref
	}
}

// fallbackName derives a display label from the reference's last path
// segment when the backend sent no name.
func fallbackName(ref string) string {
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		ref = ref[i+1:]
	}
	if ref == "" {
		return "file"
	}
	return ref
}
