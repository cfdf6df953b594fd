package api

import (
	"net/http"

	"github.com/dgallion1/copyedit/internal/editor"
	"github.com/dgallion1/copyedit/internal/session"
)

// selectThen applies an optional selection before op. Both failures are
// written as error responses.
func selectThen(w http.ResponseWriter, sess *session.Session, sel *Selection, op func() error) bool {
	if sel != nil {
		if err := sess.Engine.SetSelection(sel.Position()); err != nil {
			writeError(w, err)
			return false
		}
	}
	if err := op(); err != nil {
		writeError(w, err)
		return false
	}
	return true
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req inputRequest
	if !decode(w, r, &req) {
		return
	}
	if selectThen(w, sess, req.Selection, func() error { return sess.Engine.Input(req.InputEvent) }) {
		writeJSON(w, http.StatusOK, newSessionResponse(sess))
	}
}

func (s *Server) handleReplaceContent(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req replaceContentRequest
	if !decode(w, r, &req) {
		return
	}
	if err := sess.Engine.ReplaceContent(req.Markup, req.Selection.Position()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

func (s *Server) handleSetSelection(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req selectionRequest
	if !decode(w, r, &req) {
		return
	}
	if err := sess.Engine.SetSelection(req.Selection.Position()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"selection": sess.Engine.Selection()})
}

func (s *Server) handlePaste(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req pasteRequest
	if !decode(w, r, &req) {
		return
	}
	if selectThen(w, sess, req.Selection, func() error { return sess.Engine.Paste(req.Plain, req.Markup) }) {
		writeJSON(w, http.StatusOK, newSessionResponse(sess))
	}
}

func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req copyRequest
	if !decode(w, r, &req) {
		return
	}
	clip, err := sess.Engine.Copy(req.Selection.Position())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clip)
}

func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req formatRequest
	if !decode(w, r, &req) {
		return
	}
	cmd, err := editor.ParseCommand(req.Command)
	if err != nil {
		writeError(w, err)
		return
	}
	if selectThen(w, sess, req.Selection, func() error { return sess.Engine.Format(cmd) }) {
		writeJSON(w, http.StatusOK, newSessionResponse(sess))
	}
}

func (s *Server) handleFindReplace(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req findReplaceRequest
	if !decode(w, r, &req) {
		return
	}
	mode := sess.Engine.Mode()
	if req.Mode != "" {
		mode = editor.Mode(req.Mode)
	}
	res, err := sess.Engine.FindReplace(req.Find, req.Replace, mode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"result": res,
		"state":  sess.Engine.State(),
	})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, func(e *editor.Engine) bool { return e.Undo() })
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, func(e *editor.Engine) bool { return e.Redo() })
}

func (s *Server) step(w http.ResponseWriter, r *http.Request, move func(*editor.Engine) bool) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	applied := move(sess.Engine)
	writeJSON(w, http.StatusOK, map[string]any{
		"applied": applied,
		"state":   sess.Engine.State(),
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Engine.Reset()
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req modeRequest
	if !decode(w, r, &req) {
		return
	}
	applied, err := sess.Engine.SwitchMode(editor.Mode(req.Mode))
	if err != nil {
		writeError(w, err)
		return
	}
	code := http.StatusOK
	if !applied {
		code = http.StatusAccepted
	}
	writeJSON(w, code, map[string]any{
		"applied": applied,
		"state":   sess.Engine.State(),
	})
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req navigateRequest
	if !decode(w, r, &req) {
		return
	}
	dir := editor.Next
	if req.Direction != "" {
		dir = editor.Direction(req.Direction)
	}
	loc, found := sess.Engine.Navigate(req.Key, dir)
	if !found {
		jsonError(w, "no occurrence of "+req.Key, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"location":  loc,
		"selection": sess.Engine.Selection(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Engine.Stats())
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Engine.Report())
}

// handleFlush runs a pending validation pass now.
func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Engine.Flush()
	writeJSON(w, http.StatusOK, sess.Engine.Report())
}
