// Package browse implements the directory-discovery plugin contract
// (spec §6.1 BrowseDirectory/BrowseDirectories, supplemented from the
// original's plugins/files_discovery/src/lib.rs): a Service interface the
// App binds to BrowseDirectoryRequest/BrowseDirectoriesRequest, backed by
// github.com/karrick/godirwalk for the actual filesystem walk.
package browse

import (
	"sort"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"

	"novywave/protocol"
)

// Service lists directory contents for the file-open dialog.
type Service interface {
	Directory(path string) (protocol.DirectoryContentsEvent, error)
	Directories(paths []string) protocol.BatchDirectoryContentsEvent
}

// godirwalkService is the concrete Service backed by a single, non-
// recursive directory scan per call (the UI drives recursion itself by
// issuing one BrowseDirectory per expanded tree node).
type godirwalkService struct {
	// recognizedExts restricts IsDir==false entries to waveform files
	// plus anything the UI still wants listed as a plain file; an empty
	// set means "show everything".
	recognizedExts map[string]bool
}

// NewService builds a browse.Service. recognizedExts, if non-empty,
// filters regular files to those extensions (directories are always
// listed, so the user can navigate into them regardless).
func NewService(recognizedExts ...string) Service {
	exts := make(map[string]bool, len(recognizedExts))
	for _, e := range recognizedExts {
		exts[e] = true
	}
	return &godirwalkService{recognizedExts: exts}
}

func (s *godirwalkService) Directory(path string) (protocol.DirectoryContentsEvent, error) {
	entries, err := godirwalk.ReadDirents(path, nil)
	if err != nil {
		return protocol.DirectoryContentsEvent{}, errors.Wrapf(err, "browse: read %s", path)
	}
	sort.Sort(entries)

	items := make([]protocol.DirectoryItem, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			items = append(items, protocol.DirectoryItem{Name: e.Name(), Path: joinPath(path, e.Name()), IsDir: true})
			continue
		}
		if len(s.recognizedExts) > 0 && !s.recognizedExts[extOf(e.Name())] {
			continue
		}
		items = append(items, protocol.DirectoryItem{Name: e.Name(), Path: joinPath(path, e.Name()), IsDir: false})
	}
	return protocol.DirectoryContentsEvent{Path: path, Items: items}, nil
}

func (s *godirwalkService) Directories(paths []string) protocol.BatchDirectoryContentsEvent {
	results := make([]protocol.DirectoryContentsEvent, 0, len(paths))
	for _, p := range paths {
		contents, err := s.Directory(p)
		if err != nil {
			// Per-path failures don't abort the batch: the failed path
			// contributes an empty entry carrying only its Path, and the
			// error itself is not reported.
			contents = protocol.DirectoryContentsEvent{Path: p}
		}
		results = append(results, contents)
	}
	return protocol.BatchDirectoryContentsEvent{Results: results}
}

func joinPath(dir, name string) string {
	if dir == "" || dir[len(dir)-1] == '/' {
		return dir + name
	}
	return dir + "/" + name
}

func extOf(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
		if name[i] == '/' {
			break
		}
	}
	return ""
}
