package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/emzola/biblioteca/data"
	"github.com/emzola/biblioteca/data/dto"
	"github.com/emzola/biblioteca/internal/validator"
	"github.com/emzola/biblioteca/service"
)

// ListBooks godoc
// @Summary List books
// @Description Lists books ordered by title. search matches title or author, case-insensitively.
// @Tags books
// @Produce json
// @Param search query string false "Substring of title or author"
// @Param genre query string false "Exact genre"
// @Param publisher query string false "Exact publisher"
// @Param year query int false "Publication year"
// @Param status query string false "available or loaned"
// @Param page query int false "Page number, from 1"
// @Param per_page query int false "Page size, 1 to 100"
// @Success 200 {object} handler.bookListResponse
// @Failure 422
// @Failure 500
// @Router /livros [get]
func (h *Handler) listBooksHandler(w http.ResponseWriter, r *http.Request) {
	var filters data.BookFilters
	v := validator.New()
	qs := r.URL.Query()
	filters.Search = h.readString(qs, "search", "")
	filters.Genre = h.readString(qs, "genre", "")
	filters.Publisher = h.readString(qs, "publisher", "")
	filters.Year = h.readInt(qs, "year", 0, v)
	filters.Status = h.readString(qs, "status", "")
	filters.Filters.Page = h.readInt(qs, "page", data.DefaultPage, v)
	filters.Filters.PageSize = h.readInt(qs, "per_page", data.DefaultPageSize, v)
	if !v.Valid() {
		h.failedValidationResponse(w, r, &service.ValidationError{Errors: v.Errors})
		return
	}
	books, metadata, err := h.service.ListBooks(r.Context(), filters)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFailedValidation):
			h.failedValidationResponse(w, r, err)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	env := envelope{
		"items":     books,
		"total":     metadata.Total,
		"page":      metadata.Page,
		"per_page":  metadata.PerPage,
		"last_page": metadata.LastPage,
	}
	if err := h.encodeJSON(w, http.StatusOK, env, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// CreateBook godoc
// @Summary Create a new book
// @Description Creates an available book. Title and isbn must be unique.
// @Tags books
// @Accept json
// @Produce json
// @Param body body dto.CreateBookRequestBody true "JSON payload required to create a book"
// @Success 201 {object} data.Book
// @Failure 400
// @Failure 422
// @Failure 500
// @Router /livros [post]
func (h *Handler) createBookHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody dto.CreateBookRequestBody
	if err := h.decodeJSON(w, r, &requestBody); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	book, err := h.service.CreateBook(r.Context(), requestBody)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFailedValidation):
			h.failedValidationResponse(w, r, err)
		case errors.Is(err, service.ErrConflict):
			h.conflictResponse(w, r, err)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/livros/%d", book.ID))
	if err := h.encodeJSON(w, http.StatusCreated, envelope{"book": book}, headers); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// ShowBook godoc
// @Summary Show details of a book
// @Tags books
// @Produce json
// @Param id path int true "ID of book"
// @Success 200 {object} data.Book
// @Failure 404
// @Failure 500
// @Router /livros/{id} [get]
func (h *Handler) showBookHandler(w http.ResponseWriter, r *http.Request) {
	bookID, err := h.readIDParam(r, "id")
	if err != nil {
		h.notFoundResponse(w, r)
		return
	}
	book, err := h.service.GetBook(r.Context(), bookID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecordNotFound):
			h.notFoundResponse(w, r)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	if err := h.encodeJSON(w, http.StatusOK, envelope{"book": book}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// UpdateBook godoc
// @Summary Update details of a book
// @Description Applies only the supplied fields. null clears an optional field.
// @Tags books
// @Accept json
// @Produce json
// @Param id path int true "ID of book"
// @Param body body dto.UpdateBookRequestBody true "JSON payload with the fields to change"
// @Success 200 {object} data.Book
// @Failure 400
// @Failure 404
// @Failure 409
// @Failure 422
// @Failure 500
// @Router /livros/{id} [put]
func (h *Handler) updateBookHandler(w http.ResponseWriter, r *http.Request) {
	bookID, err := h.readIDParam(r, "id")
	if err != nil {
		h.notFoundResponse(w, r)
		return
	}
	var requestBody dto.UpdateBookRequestBody
	if err := h.decodeJSON(w, r, &requestBody); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	book, err := h.service.UpdateBook(r.Context(), bookID, requestBody)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecordNotFound):
			h.notFoundResponse(w, r)
		case errors.Is(err, service.ErrFailedValidation):
			h.failedValidationResponse(w, r, err)
		case errors.Is(err, service.ErrConflict):
			h.conflictResponse(w, r, err)
		case errors.Is(err, service.ErrEditConflict):
			h.editConflictResponse(w, r)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	if err := h.encodeJSON(w, http.StatusOK, envelope{"book": book}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// DeleteBook godoc
// @Summary Delete a book
// @Description Books that are currently loaned cannot be deleted.
// @Tags books
// @Produce json
// @Param id path int true "ID of book"
// @Success 200
// @Failure 400
// @Failure 404
// @Failure 500
// @Router /livros/{id} [delete]
func (h *Handler) deleteBookHandler(w http.ResponseWriter, r *http.Request) {
	bookID, err := h.readIDParam(r, "id")
	if err != nil {
		h.notFoundResponse(w, r)
		return
	}
	err = h.service.DeleteBook(r.Context(), bookID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecordNotFound):
			h.notFoundResponse(w, r)
		case errors.Is(err, service.ErrConflict):
			h.conflictResponse(w, r, err)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	if err := h.encodeJSON(w, http.StatusOK, envelope{"message": "book successfully deleted"}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// LoanBook godoc
// @Summary Loan a book
// @Tags books
// @Produce json
// @Param id path int true "ID of book"
// @Success 200 {object} data.Book
// @Failure 400
// @Failure 404
// @Failure 409
// @Failure 500
// @Router /livros/{id}/emprestar [post]
func (h *Handler) loanBookHandler(w http.ResponseWriter, r *http.Request) {
	h.transitionBook(w, r, h.service.LoanBook)
}

// ReturnBook godoc
// @Summary Return a loaned book
// @Tags books
// @Produce json
// @Param id path int true "ID of book"
// @Success 200 {object} data.Book
// @Failure 400
// @Failure 404
// @Failure 409
// @Failure 500
// @Router /livros/{id}/devolver [post]
func (h *Handler) returnBookHandler(w http.ResponseWriter, r *http.Request) {
	h.transitionBook(w, r, h.service.ReturnBook)
}

func (h *Handler) transitionBook(w http.ResponseWriter, r *http.Request, transition func(ctx context.Context, bookID int64) (*data.Book, error)) {
	bookID, err := h.readIDParam(r, "id")
	if err != nil {
		h.notFoundResponse(w, r)
		return
	}
	book, err := transition(r.Context(), bookID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecordNotFound):
			h.notFoundResponse(w, r)
		case errors.Is(err, service.ErrConflict):
			h.conflictResponse(w, r, err)
		case errors.Is(err, service.ErrEditConflict):
			h.editConflictResponse(w, r)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	if err := h.encodeJSON(w, http.StatusOK, envelope{"book": book}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// UpdateBookCover godoc
// @Summary Upload a book cover
// @Description Accepts a JPEG or PNG image of at most 2 MiB in the multipart field "cover".
// @Tags books
// @Accept mpfd
// @Produce json
// @Param id path int true "ID of book"
// @Param cover formData file true "Cover image"
// @Success 200 {object} data.Book
// @Failure 400
// @Failure 404
// @Failure 413
// @Failure 415
// @Failure 503
// @Router /livros/{id}/capa [put]
func (h *Handler) updateBookCoverHandler(w http.ResponseWriter, r *http.Request) {
	// Leave room for the multipart envelope around the image itself
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxCoverSize+65_536)
	bookID, err := h.readIDParam(r, "id")
	if err != nil {
		h.notFoundResponse(w, r)
		return
	}
	if err := r.ParseMultipartForm(service.MaxCoverSize); err != nil {
		var maxBytesError *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesError):
			h.contentTooLargeResponse(w, r)
		default:
			h.badRequestResponse(w, r, errors.New("body must be a multipart form"))
		}
		return
	}
	defer r.MultipartForm.RemoveAll()
	file, _, err := r.FormFile("cover")
	if err != nil {
		h.badRequestResponse(w, r, errors.New(`form field "cover" must contain a file`))
		return
	}
	defer file.Close()
	book, err := h.service.UpdateBookCover(r.Context(), bookID, file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecordNotFound):
			h.notFoundResponse(w, r)
		case errors.Is(err, service.ErrContentTooLarge):
			h.contentTooLargeResponse(w, r)
		case errors.Is(err, service.ErrBadRequest):
			h.badRequestResponse(w, r, errors.New("cover file must not be empty"))
		case errors.Is(err, service.ErrUnsupportedMediaType):
			h.unsupportedMediaTypeResponse(w, r)
		case errors.Is(err, service.ErrCoverStorageDisabled):
			h.coverStorageDisabledResponse(w, r)
		case errors.Is(err, service.ErrFailedValidation):
			h.failedValidationResponse(w, r, err)
		case errors.Is(err, service.ErrEditConflict):
			h.editConflictResponse(w, r)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	if err := h.encodeJSON(w, http.StatusOK, envelope{"book": book}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// bookListResponse documents the list payload.
type bookListResponse struct {
	Items    []data.Book `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PerPage  int         `json:"per_page"`
	LastPage int         `json:"last_page"`
}
