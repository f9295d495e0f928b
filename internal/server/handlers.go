package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"plagcheck/internal/extract"
	"plagcheck/internal/orchestrator"
	"plagcheck/internal/report"
)

const (
	msgTextRequired = "El texto a analizar es requerido"
	msgFileRequired = "Se requiere un archivo PDF, DOCX o de texto"
	msgBodyTooLarge = "El cuerpo de la solicitud es demasiado grande"
	noteUnexpected  = "Ha ocurrido un error inesperado al procesar la solicitud."
	noteRequest     = "Ha ocurrido un error al procesar la solicitud. Es posible que Google esté bloqueando las solicitudes automatizadas."

	docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

type errorReply struct {
	Error   string `json:"error"`
	Note    string `json:"note,omitempty"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorReply{Error: msg})
}

func writeInternal(w http.ResponseWriter, err error, note string) {
	writeJSON(w, http.StatusInternalServerError, errorReply{Error: err.Error(), Note: note})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.Request
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		s.logger.Warn("bad request body", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
		writeInternal(w, err, noteRequest)
		return
	}
	s.analyze(w, r, req)
}

func (s *Server) handleCheckFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := r.ParseMultipartForm(s.maxBody); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, msgFileRequired)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, msgFileRequired)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeInternal(w, err, noteUnexpected)
		return
	}

	text, err := extract.Text(data, header.Header.Get("Content-Type"), header.Filename)
	if err != nil {
		s.logger.Warn("extraction failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("filename", header.Filename),
			zap.Error(err),
		)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.analyze(w, r, orchestrator.Request{Text: &text})
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request, req orchestrator.Request) {
	rep, err := s.analyzer.Run(r.Context(), req)
	if err != nil {
		var ve *orchestrator.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, msgTextRequired)
			return
		}
		s.logger.Error("analysis failed", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
		writeInternal(w, err, noteRequest)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleReportDOCX(w http.ResponseWriter, r *http.Request) {
	var rep orchestrator.Report
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := json.NewDecoder(body).Decode(&rep); err != nil {
		writeInternal(w, err, noteUnexpected)
		return
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, &rep, r.URL.Query().Get("title")); err != nil {
		writeInternal(w, err, noteUnexpected)
		return
	}

	w.Header().Set("Content-Type", docxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="plagiarism-report.docx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
