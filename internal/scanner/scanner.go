package scanner

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/marco/multiclass/internal/logging"
)

// FileInfo represents a scanned video file with extracted information
type FileInfo struct {
	Path      string
	SourceDir string
	FileName  string
	Title     string
	Year      int
	Size      int64
}

// Scanner handles file system scanning for video files
type Scanner struct {
	extensions  []string
	excludeDirs []string
	logger      *slog.Logger
}

// New creates a new Scanner instance
func New(extensions []string, excludeDirs []string, logger *slog.Logger) *Scanner {
	return &Scanner{
		extensions:  extensions,
		excludeDirs: excludeDirs,
		logger:      logging.Component(logger, "scanner"),
	}
}

// IsExcludedDir checks if a directory should be excluded based on exclusion patterns
func (s *Scanner) IsExcludedDir(dirPath string) bool {
	dirName := strings.ToLower(filepath.Base(dirPath))

	for _, pattern := range s.excludeDirs {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		if pattern == "" {
			continue
		}
		// Check for exact match or if pattern is contained in directory name
		if dirName == pattern || strings.Contains(dirName, pattern) {
			return true
		}
	}
	return false
}

// ScanDirectory recursively scans a directory for video files
func (s *Scanner) ScanDirectory(root string) ([]FileInfo, error) {
	var files []FileInfo

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Skip directories we can't read
			if os.IsPermission(err) {
				s.logger.Warn("skipping unreadable path", "path", p, "error", err)
				return nil
			}
			return err
		}

		if d.IsDir() {
			if p != root && (isHiddenName(d.Name()) || s.IsExcludedDir(p)) {
				s.logger.Debug("skipping excluded directory", "path", p)
				return filepath.SkipDir
			}
			return nil
		}

		if isHiddenName(d.Name()) || !s.IsMediaFile(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			s.logger.Warn("failed to stat file", "path", p, "error", err)
			return nil
		}
		files = append(files, newFileInfo(root, p, info.Size()))
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scan directory %s: %w", root, err)
	}

	return files, nil
}

// IsMediaFile checks if a filename has a supported video extension
func (s *Scanner) IsMediaFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, validExt := range s.extensions {
		if ext == strings.ToLower(validExt) {
			return true
		}
	}
	return false
}

// ScanAll scans all directories and returns combined results
func (s *Scanner) ScanAll(directories []string) ([]FileInfo, error) {
	var allFiles []FileInfo

	for _, dir := range directories {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			s.logger.Warn("source directory does not exist", "path", dir)
			continue
		}

		files, err := s.ScanDirectory(dir)
		if err != nil {
			return nil, err
		}

		allFiles = append(allFiles, files...)
	}

	return allFiles, nil
}

// Describe builds a FileInfo for a single path below sourceDir.
func Describe(sourceDir, path string) (FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	if info.IsDir() {
		return FileInfo{}, fmt.Errorf("%s is a directory", path)
	}
	return newFileInfo(sourceDir, path, info.Size()), nil
}

func newFileInfo(sourceDir, path string, size int64) FileInfo {
	name := filepath.Base(path)
	title, year := ExtractTitleAndYear(name)
	return FileInfo{
		Path:      path,
		SourceDir: sourceDir,
		FileName:  name,
		Title:     CleanTitle(title),
		Year:      year,
		Size:      size,
	}
}

func isHiddenName(name string) bool {
	return len(name) > 0 && name[0] == '.' && name != "." && name != ".."
}
