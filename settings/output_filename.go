package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
)

func TrimExt(filename string) (baseFilename, ext string) {
	ext = filepath.Ext(filename)
	baseFilename = strings.TrimSuffix(filename, ext)
	return
}

func ReplaceIncrementedFilename(filename string, counter int) string {
	baseFilename, _, ext := parseIncrementFilename(filename)
	return fmt.Sprintf("%v-%v%v", baseFilename, counter, ext)
}

// NextLatestIncrementedFilename returns a name one above the highest
// numbered sibling of filename that shares its extension.
func NextLatestIncrementedFilename(filename string) (string, int, error) {
	baseFilename, _, ext := parseIncrementFilename(filename)
	files, err := filepath.Glob(baseFilename + "*")
	if err != nil {
		return "", 0, fmt.Errorf("list %v: %w", baseFilename, err)
	}

	maxNum := 0
	for _, file := range files {
		base, num, ext2 := parseIncrementFilename(file)
		if num > maxNum && ext == ext2 && base == baseFilename {
			maxNum = num
		}
	}

	maxNum++

	return fmt.Sprintf("%v-%v%v", baseFilename, maxNum, ext), maxNum, nil
}

func parseIncrementFilename(filename string) (base string, num int, ext string) {
	fileExt := filepath.Ext(filename)
	filename = strings.TrimSuffix(filename, fileExt)

	if filename == "" && fileExt != "" {
		filename, fileExt = fileExt, ""
	}

	i := len(filename) - 1
	if i < 0 {
		return "", 0, ""
	}

	for ; i >= 0; i-- {
		if !unicode.IsDigit(rune(filename[i])) {
			break
		}
	}

	digits := filename[i+1:]
	filename = filename[0 : i+1]

	if filename != "" && filename[len(filename)-1] == '-' {
		filename = filename[0 : len(filename)-1]
	}

	if n, err := strconv.Atoi(digits); err == nil {
		num = n
	}

	return filename, num, fileExt
}

func IncrementFilename(filename string) string {
	filename, num, ext := parseIncrementFilename(filename)
	if filename == "" && ext == "" {
		return ""
	}
	num++
	return fmt.Sprintf("%v-%v%v", filename, num, ext)
}

// NextOutputFilename picks the file the next recording goes to. With
// OutputMethodNewFile an existing file is never reused.
func (s *Settings) NextOutputFilename() (string, error) {
	filename := s.OutputFilename
	if s.OutputMethod != OutputMethodNewFile {
		return filename, nil
	}
	if _, err := os.Stat(filename); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return filename, nil
		}
		return "", err
	}

	next, _, err := NextLatestIncrementedFilename(filename)
	return next, err
}
