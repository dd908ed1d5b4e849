package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/melsec-monitor/internal/format"
	"github.com/nerrad567/melsec-monitor/internal/monitor"
	"github.com/nerrad567/melsec-monitor/internal/register"
)

// RowResponse is the JSON form of monitor.RowView.
type RowResponse struct {
	Ref         string `json:"ref"`
	Key         string `json:"key"`
	Address     uint32 `json:"address"`
	Format      string `json:"format"`
	Known       bool   `json:"known"`
	Bits        string `json:"bits"` // 16 chars, most significant first
	Formatted   string `json:"formatted"`
	Raw         string `json:"raw"`
	PairedEmpty bool   `json:"paired_empty"`
}

func toRowResponse(row monitor.RowView) RowResponse {
	var bits strings.Builder
	for _, b := range row.Bits {
		if b {
			bits.WriteByte('1')
		} else {
			bits.WriteByte('0')
		}
	}
	return RowResponse{
		Ref:         row.Ref.String(),
		Key:         string(row.Ref.Key),
		Address:     uint32(row.Ref.Addr),
		Format:      row.Format.String(),
		Known:       row.Known,
		Bits:        bits.String(),
		Formatted:   row.Formatted,
		Raw:         row.Raw,
		PairedEmpty: row.PairedEmpty,
	}
}

// handleHealth reports liveness plus the engine state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.State(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	body := map[string]any{
		"status":         "ok",
		"version":        s.version,
		"target":         st.Target.String(),
		"format":         st.Format.String(),
		"mode":           st.Mode.String(),
		"server_running": st.Server.Running,
		"server_status":  st.Server.StatusText,
		"auto_start":     st.AutoStart,
		"known_words":    st.Known,
	}
	if st.Session != nil {
		body["editing"] = st.Session.Target.String()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleListRows(w http.ResponseWriter, r *http.Request) {
	rows, err := s.engine.Rows(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	out := make([]RowResponse, len(rows))
	for i, row := range rows {
		out[i] = toRowResponse(row)
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": out, "count": len(out)})
}

func (s *Server) handleGetWord(w http.ResponseWriter, r *http.Request) {
	ref, err := register.ParseTarget(chi.URLParam(r, "ref"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	row, err := s.engine.Row(r.Context(), ref)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if !row.Known {
		writeNotFound(w, "no value observed for "+ref.String())
		return
	}
	writeJSON(w, http.StatusOK, toRowResponse(row))
}

type setFormatRequest struct {
	Format string `json:"format"`
}

func (s *Server) handleSetFormat(w http.ResponseWriter, r *http.Request) {
	var req setFormatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	f, err := format.Parse(req.Format)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if err := s.engine.SetFormat(r.Context(), f); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"format": f.String()})
}

type writeRequest struct {
	Target string `json:"target"`
	// Format selects typed encoding. Empty means Text is a comma-separated
	// list of raw words.
	Format string `json:"format,omitempty"`
	Text   string `json:"text"`
}

type writeResponse struct {
	Start string   `json:"start"`
	Words []uint16 `json:"words"`
}

func (s *Server) handleWriteWords(w http.ResponseWriter, r *http.Request) {
	var req writeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	ref, err := register.ParseTarget(req.Target)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if strings.TrimSpace(req.Format) == "" {
		words, err := s.engine.WriteWords(r.Context(), ref, req.Text)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, writeResponse{Start: ref.String(), Words: words})
		return
	}

	f, err := format.Parse(req.Format)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	planned, err := s.engine.Write(r.Context(), ref, f, req.Text)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, writeResponse{Start: planned.Start.String(), Words: planned.Words})
}
