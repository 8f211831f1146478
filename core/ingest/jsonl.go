package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/siherrmann/finrag/model"
)

// ResolvePath resolves a relative file name against the JSON_DIR environment variable.
func ResolvePath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	if dir := os.Getenv("JSON_DIR"); dir != "" {
		return filepath.Join(dir, name)
	}
	return name
}

// AppendJSONL appends one JSON object per article to path, creating the file and its directory.
func AppendJSONL(path string, articles []*model.Article) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	f, err := os.OpenFile(filepath.Clean(path), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, a := range articles {
		if err := enc.Encode(a); err != nil {
			return fmt.Errorf("encoding article %s: %w", a.URL, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// LoadJSONL reads all articles from path. Blank lines are skipped.
func LoadJSONL(path string) ([]*model.Article, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	articles := []*model.Article{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		article := &model.Article{}
		if err := json.Unmarshal([]byte(text), article); err != nil {
			return nil, fmt.Errorf("decoding %s line %d: %w", path, line, err)
		}
		articles = append(articles, article)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return articles, nil
}
