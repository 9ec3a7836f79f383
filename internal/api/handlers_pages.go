package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/notioncms/internal/doctree"
	"github.com/dgallion1/notioncms/internal/render"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

func (s *Server) pageDocument(w http.ResponseWriter, r *http.Request) (doctree.Document, bool) {
	doc, err := s.content.PageDocument(r.Context(), chi.URLParam(r, "pageID"))
	if err != nil {
		s.upstreamError(w, r, "fetch page", err)
		return doctree.Document{}, false
	}
	return doc, true
}

func (s *Server) handlePageDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.pageDocument(w, r)
	if !ok {
		return
	}
	writeJSON(w, doc)
}

func (s *Server) handlePageHTML(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.pageDocument(w, r)
	if !ok {
		return
	}
	writeDocument(w, doc, "html", chi.URLParam(r, "pageID"))
}

func (s *Server) handlePageDOCX(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.pageDocument(w, r)
	if !ok {
		return
	}
	writeDocument(w, doc, "docx", chi.URLParam(r, "pageID"))
}

// writeDocument renders doc in the requested format. Rendering goes to a
// buffer first so a failure can still produce a JSON error.
func writeDocument(w http.ResponseWriter, doc doctree.Document, format, name string) {
	var buf bytes.Buffer
	switch format {
	case "json", "":
		writeJSON(w, doc)
		return
	case "html":
		if err := render.HTMLPage(&buf, doc); err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	case "docx":
		if err := render.DOCX(doc, &buf); err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", docxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".docx"))
	default:
		jsonError(w, fmt.Sprintf("unsupported format: %s", format), http.StatusBadRequest)
		return
	}
	w.Write(buf.Bytes())
}
