package sitemap

import (
	"bytes"
	_ "embed"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bastiangx/communeindex/internal/logger"
	"github.com/bastiangx/communeindex/internal/utils"
	"github.com/bastiangx/communeindex/pkg/locality"
	"github.com/charmbracelet/log"
)

// Marker is replaced by the index entries in the sitemap template.
const Marker = "<!-- DYNAMIC CONTENT -->"

// IndexFile is the sitemap index written at the output root.
const IndexFile = "sitemap.xml"

// ErrNoMarker is returned when the template lacks Marker.
var ErrNoMarker = errors.New("sitemap template has no " + Marker + " marker")

//go:embed template.xml
var defaultTemplate string

const urlsetHeader = `<?xml version="1.0" encoding="UTF-8"?>
<urlset
    xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"
    xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
    xsi:schemaLocation="http://www.sitemaps.org/schemas/sitemap/0.9 http://www.sitemaps.org/schemas/sitemap/0.9/sitemap.xsd">
`

// Emitter writes Root/Dir/sitemap-<dept>.xml for every department and
// Root/sitemap.xml from Template.
type Emitter struct {
	BaseURL     string
	Root        string
	Dir         string
	Template    string // file path, empty for the embedded template
	SearchTypes []string
	SortOrder   string

	logger *log.Logger
}

// NewEmitter creates an emitter writing under root.
func NewEmitter(baseURL, root, dir, template string, searchTypes []string, sortOrder string) *Emitter {
	return &Emitter{
		BaseURL:     strings.TrimSuffix(baseURL, "/"),
		Root:        root,
		Dir:         dir,
		Template:    template,
		SearchTypes: searchTypes,
		SortOrder:   sortOrder,
		logger:      logger.New("sitemap"),
	}
}

// Emit writes one urlset per department then the index. The template is
// checked before anything is written.
func (e *Emitter) Emit(departements []locality.Departement, localities []locality.Locality) error {
	tmpl, err := e.template()
	if err != nil {
		return err
	}

	byDept := make(map[string][]locality.Locality)
	for _, l := range localities {
		byDept[l.DepartmentCode] = append(byDept[l.DepartmentCode], l)
	}

	urls := 0
	for _, d := range departements {
		data, n := e.departmentSitemap(d, byDept[d.CodeDepartement])
		path := filepath.Join(e.Root, e.Dir, "sitemap-"+d.CodeDepartement+".xml")
		if err := utils.WriteFileAtomic(path, data); err != nil {
			return fmt.Errorf("writing sitemap for %s: %w", d.CodeDepartement, err)
		}
		urls += n
	}

	index := strings.Replace(tmpl, Marker, e.indexEntries(departements), 1)
	if err := utils.WriteFileAtomic(filepath.Join(e.Root, IndexFile), []byte(index)); err != nil {
		return fmt.Errorf("writing sitemap index: %w", err)
	}
	e.log().Info("sitemaps written", "departements", len(departements), "urls", urls)
	return nil
}

func (e *Emitter) template() (string, error) {
	tmpl := defaultTemplate
	if e.Template != "" {
		data, err := os.ReadFile(e.Template)
		if err != nil {
			return "", fmt.Errorf("reading sitemap template: %w", err)
		}
		tmpl = string(data)
	}
	if !strings.Contains(tmpl, Marker) {
		return "", ErrNoMarker
	}
	return tmpl, nil
}

// departmentSitemap renders the department pages followed by one page per
// locality, each for every search type.
func (e *Emitter) departmentSitemap(d locality.Departement, ls []locality.Locality) ([]byte, int) {
	var buf bytes.Buffer
	buf.WriteString(urlsetHeader)
	n := 0

	for _, st := range e.SearchTypes {
		e.writeURL(&buf, DepartmentURL(URLParams{
			DepartmentCode: d.CodeDepartement,
			DepartmentName: d.NomDepartement,
			SearchType:     st,
		}))
		n++
	}
	for _, l := range ls {
		for _, st := range e.SearchTypes {
			e.writeURL(&buf, CommuneURL(URLParams{
				DepartmentCode: d.CodeDepartement,
				DepartmentName: d.NomDepartement,
				CommuneCode:    l.Code,
				PostalCode:     l.PostalCode,
				CommuneName:    l.Name,
				SearchType:     st,
				SortOrder:      e.SortOrder,
			}))
			n++
		}
	}
	buf.WriteString("</urlset>\n")
	return buf.Bytes(), n
}

func (e *Emitter) writeURL(buf *bytes.Buffer, path string) {
	buf.WriteString("    <url><loc>")
	xml.EscapeText(buf, []byte(e.BaseURL+path))
	buf.WriteString("</loc><changefreq>always</changefreq><priority>0.1</priority></url>\n")
}

func (e *Emitter) indexEntries(departements []locality.Departement) string {
	var buf bytes.Buffer
	for i, d := range departements {
		if i > 0 {
			buf.WriteString("\n  ")
		}
		buf.WriteString("<sitemap><loc>")
		xml.EscapeText(&buf, []byte(e.BaseURL+"/"+e.Dir+"/sitemap-"+d.CodeDepartement+".xml"))
		buf.WriteString("</loc></sitemap>")
	}
	return buf.String()
}

func (e *Emitter) log() *log.Logger {
	if e.logger == nil {
		return log.Default()
	}
	return e.logger
}
