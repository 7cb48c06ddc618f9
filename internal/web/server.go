package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"

	"qstrgen/internal/model"
)

//go:embed static/*
var staticFS embed.FS

//go:embed help.md
var helpMD string

// Payload is everything the web view serves. It is computed once before
// the server starts and never modified.
type Payload struct {
	Result        model.AnalysisResult
	Output        string // the generated table
	Report        string
	VerboseReport string
}

type server struct {
	p Payload
}

// Handler returns the HTTP handler for the symbol table view.
func Handler(p Payload) http.Handler {
	s := &server{p: p}
	mux := http.NewServeMux()

	// Serve static files
	subFS, _ := fs.Sub(staticFS, "static")
	mux.Handle("/", http.FileServer(http.FS(subFS)))

	// API Endpoints
	mux.HandleFunc("/api/table", s.handleTable)
	mux.HandleFunc("/api/output", s.handleOutput)
	mux.HandleFunc("/api/report", s.handleReport)
	mux.HandleFunc("/api/file", s.handleFile)
	mux.HandleFunc("/api/line-context", s.handleLineContext)
	mux.HandleFunc("/api/help", handleHelp)
	return mux
}

// StartServer serves p on the given port until the listener fails.
func StartServer(port int, p Payload) error {
	addr := fmt.Sprintf(":%d", port)
	fmt.Printf("Starting qstrgen web server at http://localhost:%d\n", port)
	fmt.Printf("Go to http://localhost:%d in your browser.\n", port)
	return http.ListenAndServe(addr, Handler(p))
}

func (s *server) handleTable(w http.ResponseWriter, r *http.Request) {
	response := struct {
		model.AnalysisResult
		Report        string `json:"report"`
		VerboseReport string `json:"verboseReport"`
		Version       string `json:"version"`
	}{
		AnalysisResult: s.p.Result,
		Report:         s.p.Report,
		VerboseReport:  s.p.VerboseReport,
		Version:        model.Version,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (s *server) handleOutput(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(s.p.Output))
}

func (s *server) handleReport(w http.ResponseWriter, r *http.Request) {
	report := s.p.Report
	if r.URL.Query().Get("verbose") != "" {
		report = s.p.VerboseReport
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(report))
}

// scanned reports whether path was one of the inputs. Only those are served.
func (s *server) scanned(path string) bool {
	return slices.Contains(s.p.Result.Files, path)
}

func (s *server) handleFile(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}
	if !s.scanned(path) {
		http.Error(w, "not an input file", http.StatusForbidden)
		return
	}

	content, err := os.ReadFile(path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(content)
}

func (s *server) handleLineContext(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	lineNumStr := r.URL.Query().Get("line")
	if path == "" || lineNumStr == "" {
		http.Error(w, "path and line are required", http.StatusBadRequest)
		return
	}
	if !s.scanned(path) {
		http.Error(w, "not an input file", http.StatusForbidden)
		return
	}

	lineNum, err := strconv.Atoi(lineNumStr)
	if err != nil {
		http.Error(w, "invalid line number", http.StatusBadRequest)
		return
	}
	radius := 3
	if v := r.URL.Query().Get("radius"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 50 {
			radius = n
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(model.GetLineContext(path, lineNum, radius))
}

func handleHelp(w http.ResponseWriter, r *http.Request) {
	text := strings.ReplaceAll(helpMD, "{{VERSION}}", model.Version)

	w.Header().Set("Content-Type", "text/markdown")
	w.Write([]byte(text))
}
