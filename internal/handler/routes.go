package handler

import "net/http"

// PreviewPrefix is where pending files are streamed. Previews are loaded by
// <video> tags, which cannot send an Authorization header.
const PreviewPrefix = "/previews/"

// RegisterRoutes mounts the editor gateway on mux (Go 1.22+ patterns)
func RegisterRoutes(mux *http.ServeMux, h *EditorHandler) {
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET "+PreviewPrefix+"{token}", h.ServePreview)
	mux.HandleFunc("GET /api/video-formats", h.ListFormats)

	// Sessions
	mux.HandleFunc("POST /api/courses/{course}/sessions", h.OpenSession)
	mux.HandleFunc("GET /api/courses/{course}/progress", h.GetProgress)
	mux.HandleFunc("GET /api/sessions/{session}", h.GetSession)
	mux.HandleFunc("DELETE /api/sessions/{session}", h.CloseSession)
	mux.HandleFunc("POST /api/sessions/{session}/persist", h.PersistAll)
	mux.HandleFunc("GET /api/sessions/{session}/outline", h.GetOutline)

	// Chapters
	mux.HandleFunc("POST /api/sessions/{session}/chapters", h.CreateChapter)
	mux.HandleFunc("PATCH /api/sessions/{session}/chapters/{chapter}", h.UpdateChapter)
	mux.HandleFunc("DELETE /api/sessions/{session}/chapters/{chapter}", h.DeleteChapter)
	mux.HandleFunc("POST /api/sessions/{session}/chapters/{chapter}/move", h.MoveChapter)
	mux.HandleFunc("POST /api/sessions/{session}/chapters/{chapter}/persist", h.PersistChapter)

	// Lessons
	lesson := "/api/sessions/{session}/chapters/{chapter}/lessons/{lesson}"
	mux.HandleFunc("POST /api/sessions/{session}/chapters/{chapter}/lessons", h.CreateLesson)
	mux.HandleFunc("PATCH "+lesson, h.UpdateLesson)
	mux.HandleFunc("DELETE "+lesson, h.DeleteLesson)
	mux.HandleFunc("POST "+lesson+"/move", h.MoveLesson)
	mux.HandleFunc("POST "+lesson+"/persist", h.PersistLesson)
	mux.HandleFunc("PUT "+lesson+"/video", h.SetVideoSource)
	mux.HandleFunc("PUT "+lesson+"/video/file", h.AttachVideo)
	mux.HandleFunc("POST "+lesson+"/video/upload", h.UploadVideo)
	mux.HandleFunc("POST "+lesson+"/timestamps", h.AddTimestamp)
	mux.HandleFunc("DELETE "+lesson+"/timestamps/{index}", h.RemoveTimestamp)

	// Notes
	mux.HandleFunc("POST /api/sessions/{session}/notes", h.CreateNote)
	mux.HandleFunc("PATCH /api/sessions/{session}/notes/{note}", h.UpdateNote)
	mux.HandleFunc("PUT /api/sessions/{session}/notes/{note}/file", h.ReplaceNoteFile)
	mux.HandleFunc("POST /api/sessions/{session}/notes/{note}/persist", h.PersistNote)
	mux.HandleFunc("DELETE /api/sessions/{session}/notes/{note}", h.DeleteNote)
}
