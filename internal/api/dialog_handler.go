package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"hairsby-console/internal/dialog"
	"hairsby-console/internal/domain"
	"hairsby-console/internal/form"
	"hairsby-console/internal/imaging"
)

// Handlers are generic over the entity and form types, so they are built by
// functions rather than methods on HTTPHandler.

// mountCollection registers listing and status transitions for one kind.
func mountCollection[E domain.Entity](r chi.Router, h *HTTPHandler, c *dialog.Collection[E]) {
	title := label(c.Kind())

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		refetch, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
		items, err := c.Items(r.Context(), refetch)
		if err != nil {
			h.respondWithErr(w, err, fmt.Sprintf("Could not load %s", c.Kind()))
			return
		}
		respondWithJSON(w, http.StatusOK, items)
	})

	r.Post("/{id}/transitions/{action}", func(w http.ResponseWriter, r *http.Request) {
		id, action := chi.URLParam(r, "id"), domain.Action(chi.URLParam(r, "action"))
		updated, err := c.Transition(r.Context(), id, action)
		if err != nil {
			h.respondWithErr(w, err, "Could not update "+title)
			return
		}
		h.notifier.Success(title+" updated", fmt.Sprintf("%s is now %s", title, updated.CurrentStatus()))
		respondWithJSON(w, http.StatusOK, updated)
	})
}

type draftResponse[E domain.Entity, F any] struct {
	View   dialog.View[E, F] `json:"view"`
	Errors form.FieldErrors  `json:"errors,omitempty"`
}

type imagesResponse struct {
	Added  []imaging.Preview `json:"added"`
	Failed []string          `json:"failed,omitempty"`
}

type submitResponse[E domain.Entity, F any] struct {
	Entity E                 `json:"entity"`
	View   dialog.View[E, F] `json:"view"`
}

// mountDialog registers the collection routes plus the dialog state machine
// of an editable kind under /{kind}.
func mountDialog[E domain.Entity, F any](r chi.Router, h *HTTPHandler, c *dialog.Controller[E, F]) {
	title := label(c.Kind())

	r.Route("/"+string(c.Kind()), func(r chi.Router) {
		mountCollection(r, h, c.Collection)

		r.Route("/dialog", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				respondWithJSON(w, http.StatusOK, c.View())
			})

			r.Post("/select/{id}", func(w http.ResponseWriter, r *http.Request) {
				shell, err := dialog.ParseShell(r.URL.Query().Get("shell"))
				if err != nil {
					h.respondWithErr(w, badRequest("%v", err), "")
					return
				}
				view, err := c.Select(r.Context(), chi.URLParam(r, "id"), shell)
				if err != nil {
					h.respondWithErr(w, err, "Could not open "+title)
					return
				}
				respondWithJSON(w, http.StatusOK, view)
			})

			r.Post("/edit", func(w http.ResponseWriter, r *http.Request) {
				view, err := c.Edit()
				if err != nil {
					h.respondWithErr(w, err, "Could not edit "+title)
					return
				}
				respondWithJSON(w, http.StatusOK, view)
			})

			r.Post("/edit/{id}", func(w http.ResponseWriter, r *http.Request) {
				shell, err := dialog.ParseShell(r.URL.Query().Get("shell"))
				if err != nil {
					h.respondWithErr(w, badRequest("%v", err), "")
					return
				}
				view, err := c.EditID(r.Context(), chi.URLParam(r, "id"), shell)
				if err != nil {
					h.respondWithErr(w, err, "Could not edit "+title)
					return
				}
				respondWithJSON(w, http.StatusOK, view)
			})

			r.Post("/create", func(w http.ResponseWriter, r *http.Request) {
				shell, err := dialog.ParseShell(r.URL.Query().Get("shell"))
				if err != nil {
					h.respondWithErr(w, badRequest("%v", err), "")
					return
				}
				view, err := c.Create(shell)
				if err != nil {
					h.respondWithErr(w, err, "Could not create "+title)
					return
				}
				respondWithJSON(w, http.StatusOK, view)
			})

			r.Post("/cancel", func(w http.ResponseWriter, r *http.Request) {
				respondWithJSON(w, http.StatusOK, c.Cancel())
			})

			r.Patch("/draft", func(w http.ResponseWriter, r *http.Request) {
				raw, err := readRaw(r)
				if err != nil {
					h.respondWithErr(w, err, "")
					return
				}
				errs, err := c.Patch(raw)
				if err != nil {
					h.respondWithErr(w, err, "Could not update "+title)
					return
				}
				respondWithJSON(w, http.StatusOK, draftResponse[E, F]{View: c.View(), Errors: errs})
			})

			r.Post("/draft/images", func(w http.ResponseWriter, r *http.Request) {
				files, err := readUploads(w, r, h.maxUpload)
				if err != nil {
					h.respondWithErr(w, err, "")
					return
				}
				added, err := c.AddImages(r.Context(), r.URL.Query().Get("slot"), files)
				var procErr *imaging.ProcessingError
				switch {
				case errors.As(err, &procErr):
					h.notifier.Warning("Some images were skipped", procErr.Error())
					respondWithJSON(w, http.StatusOK, imagesResponse{Added: added, Failed: procErr.Names()})
				case err != nil:
					h.respondWithErr(w, err, "Could not add images")
				default:
					respondWithJSON(w, http.StatusOK, imagesResponse{Added: added})
				}
			})

			r.Delete("/draft/images", func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				if err := c.RemoveImage(q.Get("slot"), q.Get("ref")); err != nil {
					h.respondWithErr(w, err, "Could not remove image")
					return
				}
				respondWithJSON(w, http.StatusOK, c.View())
			})

			r.Post("/draft/images/restore", func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				if err := c.RestoreImage(q.Get("slot"), q.Get("url")); err != nil {
					h.respondWithErr(w, err, "Could not restore image")
					return
				}
				respondWithJSON(w, http.StatusOK, c.View())
			})

			r.Post("/submit", func(w http.ResponseWriter, r *http.Request) {
				saved, err := c.Submit(r.Context())
				if err != nil {
					h.respondWithErr(w, err, "Could not save "+title)
					return
				}
				h.notifier.Success(title+" saved", "")
				respondWithJSON(w, http.StatusOK, submitResponse[E, F]{Entity: saved, View: c.View()})
			})
		})
	})
}

// readUploads reads every part of the multipart "files" field into memory.
func readUploads(w http.ResponseWriter, r *http.Request, limit int64) ([]imaging.RawFile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		return nil, badRequest("invalid upload: %v", err)
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		return nil, badRequest("no files in field %q", "files")
	}
	files := make([]imaging.RawFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read upload %s: %w", fh.Filename, err)
		}
		files = append(files, imaging.RawFile{Name: fh.Filename, Data: data})
	}
	return files, nil
}
