package web

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/mmynk/compartilha/internal/allocation"
	"github.com/mmynk/compartilha/internal/models"
	"github.com/mmynk/compartilha/internal/scan"
	"github.com/mmynk/compartilha/internal/service"
	"github.com/mmynk/compartilha/internal/share"
	"github.com/mmynk/compartilha/internal/validation"
)

// maxUploadBody bounds the whole upload request, form fields included.
const maxUploadBody = 2 * scan.MaxUploadSize

func (s *Server) pageFor(w http.ResponseWriter, r *http.Request, e *entry) page {
	p := page{Lang: language(w, r), User: e.keeper.User()}
	if a := e.session.PopAlert(); a != nil {
		p.Alert = a.Message(p.Lang)
	}
	return p
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request, e *entry) {
	p := s.pageFor(w, r, e)
	// Popping the alert may have reset the session; read the state afterwards.
	st := e.session.State()
	p.State = st
	p.Screen = st.Screen().String()
	s.views.render(w, http.StatusOK, "app", p)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, e *entry) {
	q := r.URL.Query()
	months, _ := strconv.Atoi(q.Get("months"))
	filter := service.HistoryFilter{
		Months: months,
		Status: models.Status(q.Get("status")),
		Search: q.Get("q"),
	}

	result, err := e.session.History(r.Context(), filter)
	p := s.pageFor(w, r, e)
	p.Filter = filter
	if p.Filter.Months <= 0 {
		p.Filter.Months = service.DefaultHistoryMonths
	}
	if err == nil {
		p.History = &result
	}
	s.views.render(w, http.StatusOK, "history", p)
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request, e *entry) {
	text, err := e.session.ShareText(share.Format(r.URL.Query().Get("format")))
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, text)
}

func (s *Server) handleWhatsApp(w http.ResponseWriter, r *http.Request, e *entry) {
	link, err := e.session.WhatsAppURL(share.Format(r.URL.Query().Get("format")))
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, link, http.StatusFound)
}

func (s *Server) handleScan(r *http.Request, sess *service.Session) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(scan.MaxUploadSize); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return sess.Scan(r.Context(), "", "", make([]byte, scan.MaxUploadSize+1))
		}
		return sess.Scan(r.Context(), "", "", nil)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return sess.Scan(r.Context(), "", "", nil)
	}
	defer file.Close()

	// One byte past the limit is enough to reject the file.
	data, err := io.ReadAll(io.LimitReader(file, scan.MaxUploadSize+1))
	if err != nil {
		return err
	}
	return sess.Scan(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
}

func handleManual(_ *http.Request, sess *service.Session) error {
	return sess.StartManual()
}

func handlePeople(r *http.Request, sess *service.Session) error {
	names := r.PostForm["person"]
	name := r.PostFormValue("division_name")

	if i, err := strconv.Atoi(r.PostFormValue("remove")); err == nil {
		if err := sess.EditPeople(names, name); err != nil {
			return err
		}
		return sess.RemovePersonSlot(i)
	}
	switch r.PostFormValue("action") {
	case "add":
		if err := sess.EditPeople(names, name); err != nil {
			return err
		}
		return sess.AddPersonSlot()
	default:
		return sess.DefinePeople(r.Context(), names, name)
	}
}

func handleBack(r *http.Request, sess *service.Session) error {
	sess.GoBack(r.Context())
	return nil
}

func handleReset(_ *http.Request, sess *service.Session) error {
	sess.NewDivision()
	return nil
}

func handleEditorOpen(r *http.Request, sess *service.Session) error {
	return sess.OpenEditor(r.PostFormValue("item"))
}

func handleEditorAdjust(r *http.Request, sess *service.Session) error {
	delta, err := strconv.ParseFloat(r.PostFormValue("delta"), 64)
	if err != nil {
		return err
	}
	sess.AdjustEditor(r.PostFormValue("person"), delta)
	return nil
}

func handleEditorToggle(r *http.Request, sess *service.Session) error {
	sess.ToggleEditor(r.PostFormValue("person"))
	return nil
}

func handleEditorMode(r *http.Request, sess *service.Session) error {
	sess.SetEditorMode(allocation.Mode(r.PostFormValue("mode")))
	return nil
}

func handleEditorConfirm(r *http.Request, sess *service.Session) error {
	return sess.ConfirmEditor(r.Context())
}

func handleEditorClose(_ *http.Request, sess *service.Session) error {
	sess.CloseEditor()
	return nil
}

func handleItemForm(r *http.Request, sess *service.Session) error {
	return sess.OpenItemForm(r.PostFormValue("item"))
}

func handleItemSave(r *http.Request, sess *service.Session) error {
	return sess.SaveItem(r.Context(), r.PostFormValue("item"), validation.ItemForm{
		Name:      r.PostFormValue("name"),
		Quantity:  r.PostFormValue("quantity"),
		UnitPrice: r.PostFormValue("unit_price"),
	})
}

func handleItemClose(_ *http.Request, sess *service.Session) error {
	sess.CloseItemForm()
	return nil
}

func handleItemDelete(r *http.Request, sess *service.Session) error {
	return sess.DeleteItem(r.Context(), r.PathValue("id"))
}

func handlePersonAdd(r *http.Request, sess *service.Session) error {
	return sess.AddPerson(r.Context(), r.PostFormValue("name"))
}

func handlePersonDelete(r *http.Request, sess *service.Session) error {
	return sess.DeletePerson(r.Context(), r.PathValue("id"))
}

func handleRenameStart(_ *http.Request, sess *service.Session) error {
	return sess.StartRename()
}

func handleRename(r *http.Request, sess *service.Session) error {
	return sess.Rename(r.Context(), r.PostFormValue("name"))
}

func handleRenameCancel(_ *http.Request, sess *service.Session) error {
	sess.CancelRename()
	return nil
}

func handleConfig(r *http.Request, sess *service.Session) error {
	return sess.SetConfig(validation.ConfigForm{
		FeePercent: r.PostFormValue("fee"),
		Discount:   r.PostFormValue("discount"),
	})
}

func handleFinalize(r *http.Request, sess *service.Session) error {
	return sess.Finalize(r.Context())
}

func handleContinue(r *http.Request, sess *service.Session) error {
	return sess.Continue(r.Context(), r.PathValue("id"))
}

func handleDuplicate(r *http.Request, sess *service.Session) error {
	return sess.Duplicate(r.Context(), r.PathValue("id"))
}

func handleDeleteDivision(r *http.Request, sess *service.Session) error {
	return sess.DeleteDivision(r.Context(), r.PathValue("id"))
}
