// Package testutil provides a fake font catalog server for tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	CatalogPath = "/webfonts/v1/webfonts"
	filesPrefix = "/files/"
)

// GoFont returns real font bytes for a variant code, using the Go fonts.
func GoFont(code string) []byte {
	switch code {
	case "700":
		return gobold.TTF
	case "italic":
		return goitalic.TTF
	case "700italic":
		return gobolditalic.TTF
	default:
		return goregular.TTF
	}
}

type family struct {
	category string
	files    map[string]string
}

// CatalogServer serves a catalog document and the files it references over TLS.
// Use Client() for requests so the test certificate is trusted.
type CatalogServer struct {
	*httptest.Server

	mu           sync.Mutex
	families     map[string]*family
	files        map[string][]byte
	catalogCode  int
	catalogType  string
	catalogBody  []byte
	fileHold     chan struct{}
	fileStarted  chan string
	lastKey      string
	catalogCount atomic.Int64
	fileCount    atomic.Int64
}

// NewCatalogServer starts a server that is closed when the test ends.
func NewCatalogServer(t *testing.T) *CatalogServer {
	t.Helper()
	s := &CatalogServer{
		families:    map[string]*family{},
		files:       map[string][]byte{},
		catalogCode: http.StatusOK,
		catalogType: "application/json; charset=UTF-8",
	}
	mux := http.NewServeMux()
	mux.HandleFunc(CatalogPath, s.serveCatalog)
	mux.HandleFunc(filesPrefix, s.serveFile)
	s.Server = httptest.NewTLSServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Endpoint is the catalog URL to configure clients with.
func (s *CatalogServer) Endpoint() string {
	return s.URL + CatalogPath
}

// AddFont lists family/code in the catalog and serves data for it.
func (s *CatalogServer) AddFont(familyName, code string, data []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.families[familyName]
	if !ok {
		f = &family{category: "sans-serif", files: map[string]string{}}
		s.families[familyName] = f
	}
	p := filesPrefix + familyName + "-" + code + ".ttf"
	escaped := (&url.URL{Path: p}).EscapedPath()
	// The catalog lists plain http URLs, clients are expected to upgrade them.
	f.files[code] = strings.Replace(s.URL, "https://", "http://", 1) + escaped
	s.files[p] = data
	return s.URL + escaped
}

// ServeFile serves data at path without listing it in the catalog.
func (s *CatalogServer) ServeFile(path string, data []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := filesPrefix + strings.TrimPrefix(path, "/")
	s.files[p] = data
	return s.URL + p
}

// FailCatalog makes the catalog endpoint answer with status and content type.
func (s *CatalogServer) FailCatalog(status int, contentType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalogCode = status
	s.catalogType = contentType
}

// SetCatalogBody overrides the generated catalog document.
func (s *CatalogServer) SetCatalogBody(body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalogBody = body
}

// Restore undoes FailCatalog and SetCatalogBody.
func (s *CatalogServer) Restore() {
	s.FailCatalog(http.StatusOK, "application/json; charset=UTF-8")
	s.SetCatalogBody(nil)
}

// HoldFiles blocks file responses until release is called or the request is
// cancelled. The returned channel receives the path of every held request.
func (s *CatalogServer) HoldFiles() (started <-chan string, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hold := make(chan struct{})
	ch := make(chan string, 16)
	s.fileHold = hold
	s.fileStarted = ch
	var once sync.Once
	return ch, func() { once.Do(func() { close(hold) }) }
}

func (s *CatalogServer) CatalogRequests() int { return int(s.catalogCount.Load()) }
func (s *CatalogServer) FileRequests() int    { return int(s.fileCount.Load()) }

// LastAPIKey returns the key query parameter of the latest catalog request.
func (s *CatalogServer) LastAPIKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastKey
}

func (s *CatalogServer) serveCatalog(w http.ResponseWriter, r *http.Request) {
	s.catalogCount.Add(1)

	s.mu.Lock()
	s.lastKey = r.URL.Query().Get("key")
	code, ctype, body := s.catalogCode, s.catalogType, s.catalogBody
	if body == nil {
		body = s.document()
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", ctype)
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

func (s *CatalogServer) document() []byte {
	names := make([]string, 0, len(s.families))
	for name := range s.families {
		names = append(names, name)
	}
	sort.Strings(names)

	items := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		f := s.families[name]
		items = append(items, map[string]interface{}{
			"kind":         "webfonts#webfont",
			"family":       name,
			"category":     f.category,
			"version":      "v1",
			"lastModified": "2024-01-01",
			"files":        f.files,
		})
	}
	data, _ := json.Marshal(map[string]interface{}{
		"kind":  "webfonts#webfontList",
		"items": items,
	})
	return data
}

func (s *CatalogServer) serveFile(w http.ResponseWriter, r *http.Request) {
	s.fileCount.Add(1)

	s.mu.Lock()
	data, ok := s.files[r.URL.Path]
	hold, started := s.fileHold, s.fileStarted
	s.mu.Unlock()

	if hold != nil {
		started <- r.URL.Path
		select {
		case <-hold:
		case <-r.Context().Done():
			return
		}
	}

	if !ok {
		http.NotFound(w, r)
		return
	}
	contentType := "font/ttf"
	if strings.HasSuffix(r.URL.Path, ".zip") {
		contentType = "application/zip"
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(data)
}
