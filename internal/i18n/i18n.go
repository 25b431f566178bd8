// Package i18n resolves dotted text keys against embedded YAML string tables.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultLanguage is the fallback table for unresolved keys.
const DefaultLanguage = "en"

//go:embed locales/*.yaml
var localeFS embed.FS

type table struct {
	text  map[string]string
	lines map[string][]string
}

// Bundle holds every loaded locale and the active language.
type Bundle struct {
	tables   map[string]table
	lang     string
	fallback string
}

// New loads the embedded locales.
func New() (*Bundle, error) { return Load(localeFS, "locales") }

// Load reads every <lang>.yaml under dir.
func Load(fsys fs.FS, dir string) (*Bundle, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, errors.Wrap(err, "read locales")
	}
	b := &Bundle{tables: make(map[string]table), lang: DefaultLanguage, fallback: DefaultLanguage}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		lang := strings.TrimSuffix(e.Name(), ".yaml")
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, "read locale %s", lang)
		}
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, errors.Wrapf(err, "parse locale %s", lang)
		}
		t := table{text: map[string]string{}, lines: map[string][]string{}}
		flatten("", raw, t)
		b.tables[lang] = t
	}
	if _, ok := b.tables[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("default locale %q missing", DefaultLanguage)
	}
	return b, nil
}

func flatten(prefix string, node map[string]any, t table) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, t)
		case []any:
			lines := make([]string, 0, len(val))
			for _, item := range val {
				lines = append(lines, fmt.Sprint(item))
			}
			t.lines[key] = lines
		case string:
			t.text[key] = val
		case nil:
		default:
			t.text[key] = fmt.Sprint(val)
		}
	}
}

// Text resolves key in the active language, then the default language, then returns key itself.
func (b *Bundle) Text(key string) string {
	if v, ok := b.tables[b.lang].text[key]; ok {
		return v
	}
	if v, ok := b.tables[b.fallback].text[key]; ok {
		return v
	}
	return key
}

// Lines resolves a list key with the same fallback chain. Missing lists are empty.
func (b *Bundle) Lines(key string) []string {
	if v, ok := b.tables[b.lang].lines[key]; ok {
		return append([]string(nil), v...)
	}
	if v, ok := b.tables[b.fallback].lines[key]; ok {
		return append([]string(nil), v...)
	}
	return nil
}

func (b *Bundle) Language() string { return b.lang }

// SetLanguage switches the active table; unknown languages are ignored.
func (b *Bundle) SetLanguage(lang string) bool {
	if _, ok := b.tables[lang]; !ok {
		return false
	}
	b.lang = lang
	return true
}

// Name returns the self-name of lang, or lang itself when the table has none.
func (b *Bundle) Name(lang string) string {
	if v, ok := b.tables[lang].text["language.name"]; ok {
		return v
	}
	return lang
}

// Languages lists the loaded locales, default first.
func (b *Bundle) Languages() []string {
	out := make([]string, 0, len(b.tables))
	for lang := range b.tables {
		if lang != DefaultLanguage {
			out = append(out, lang)
		}
	}
	sort.Strings(out)
	return append([]string{DefaultLanguage}, out...)
}
