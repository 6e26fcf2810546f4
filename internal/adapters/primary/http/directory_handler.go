package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/lorrc/user-directory/internal/adapters/primary/validation"
	"github.com/lorrc/user-directory/internal/core/domain"
	"github.com/lorrc/user-directory/internal/core/ports"
)

// MaxFilterLength bounds the country filter text.
const MaxFilterLength = 100

// Deletion states reported by DELETE /users/{userID}.
const (
	DeletionPending    = "pending"
	DeletionCommitted  = "committed"
	DeletionRolledBack = "rolled_back"
)

// UserResponse is one row of the derived view.
type UserResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Country   string `json:"country"`
	Thumbnail string `json:"thumbnail"`
}

// ViewResponse is the presentation state of the table.
type ViewResponse struct {
	ColorEnabled bool   `json:"colorEnabled"`
	Filter       string `json:"filter"`
	SortEnabled  bool   `json:"sortEnabled"`
	SortKey      string `json:"sortKey"`
	SortField    string `json:"sortField"`
}

// UsersResponse is the derived view together with the collection state.
type UsersResponse struct {
	Data        []UserResponse `json:"data"`
	Count       int            `json:"count"`
	Total       int            `json:"total"`
	Status      domain.Status  `json:"status"`
	HasNextPage bool           `json:"hasNextPage"`
	Fetching    bool           `json:"fetching"`
	Error       string         `json:"error,omitempty"`
	Version     uint64         `json:"version"`
	View        ViewResponse   `json:"view"`
}

// ResultsResponse is the number of loaded users, ignoring the filter.
type ResultsResponse struct {
	Results int `json:"results"`
}

// DeletionResponse reports an optimistic delete.
type DeletionResponse struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// SetFilterRequest is the body of PUT /view/filter.
type SetFilterRequest struct {
	Filter string `json:"filter"`
}

// Validate implements validation.Validatable.
func (r *SetFilterRequest) Validate() error {
	v := validation.NewValidator().MaxLength("filter", r.Filter, MaxFilterLength)
	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// DirectoryHandler serves the user table. It owns the single ViewState of the
// process; the collection itself belongs to the store.
type DirectoryHandler struct {
	store        ports.UserStore
	deleter      ports.UserDeleter
	views        ports.ViewComputer
	broadcaster  ports.EventBroadcaster
	errorHandler *ErrorHandler
	logger       *slog.Logger

	mu          sync.Mutex
	view        domain.ViewState
	viewVersion uint64
}

// NewDirectoryHandler creates a new DirectoryHandler. broadcaster may be nil.
func NewDirectoryHandler(
	store ports.UserStore,
	deleter ports.UserDeleter,
	views ports.ViewComputer,
	broadcaster ports.EventBroadcaster,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *DirectoryHandler {
	return &DirectoryHandler{
		store:        store,
		deleter:      deleter,
		views:        views,
		broadcaster:  broadcaster,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "directory"),
		view:         domain.NewViewState(),
	}
}

// RegisterRoutes registers the directory routes.
func (h *DirectoryHandler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.HandleListUsers)
		r.Post("/next-page", h.HandleNextPage)
		r.Post("/refetch", h.HandleRefetch)
		r.Post("/reset", h.HandleReset)
		r.Delete("/{userID}", h.HandleDeleteUser)
	})
	r.Get("/results", h.HandleResults)
	r.Route("/view", func(r chi.Router) {
		r.Get("/", h.HandleGetView)
		r.Post("/color", h.HandleToggleColor)
		r.Put("/filter", h.HandleSetFilter)
		r.Delete("/filter", h.HandleClearFilter)
		r.Post("/sort", h.HandleToggleSort)
		r.Post("/sort/{field}", h.HandleActivateSort)
	})
}

// HandleListUsers handles GET /users.
func (h *DirectoryHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.usersResponse())
}

// HandleNextPage handles POST /users/next-page.
func (h *DirectoryHandler) HandleNextPage(w http.ResponseWriter, r *http.Request) {
	if HandleError(w, r, h.store.FetchNextPage(r.Context()), h.errorHandler) {
		return
	}
	WriteJSON(w, http.StatusOK, h.usersResponse())
}

// HandleRefetch handles POST /users/refetch.
func (h *DirectoryHandler) HandleRefetch(w http.ResponseWriter, r *http.Request) {
	if HandleError(w, r, h.store.Refetch(r.Context()), h.errorHandler) {
		return
	}
	WriteJSON(w, http.StatusOK, h.usersResponse())
}

// HandleReset handles POST /users/reset. The filter and the sort machine are
// reset with the collection; the color toggle is kept.
func (h *DirectoryHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.updateView(func(v *domain.ViewState) { v.Reset() })

	if HandleError(w, r, h.store.Reset(r.Context()), h.errorHandler) {
		return
	}
	WriteJSON(w, http.StatusOK, h.usersResponse())
}

// HandleDeleteUser handles DELETE /users/{userID}. The user disappears from
// the view before the response is written. With ?wait=true the response is
// delayed until the deletion intent settles.
func (h *DirectoryHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	deletion, err := h.deleter.DeleteUser(r.Context(), userID)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	if !validation.ParseBoolQueryParam(r, "wait", false) {
		WriteJSON(w, http.StatusAccepted, DeletionResponse{UserID: userID, Status: DeletionPending})
		return
	}

	select {
	case <-deletion.Done():
	case <-r.Context().Done():
		WriteJSON(w, http.StatusAccepted, DeletionResponse{UserID: userID, Status: DeletionPending})
		return
	}

	response := DeletionResponse{UserID: userID, Status: DeletionCommitted}
	if err := deletion.Err(); err != nil {
		response.Status = DeletionRolledBack
		response.Error = err.Error()
	}
	WriteJSON(w, http.StatusOK, response)
}

// HandleResults handles GET /results.
func (h *DirectoryHandler) HandleResults(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, ResultsResponse{Results: h.store.Snapshot().Len()})
}

// HandleGetView handles GET /view.
func (h *DirectoryHandler) HandleGetView(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	view := h.view
	h.mu.Unlock()

	WriteJSON(w, http.StatusOK, toViewResponse(view))
}

// HandleToggleColor handles POST /view/color.
func (h *DirectoryHandler) HandleToggleColor(w http.ResponseWriter, r *http.Request) {
	view := h.updateView(func(v *domain.ViewState) { v.ToggleColor() })
	WriteJSON(w, http.StatusOK, toViewResponse(view))
}

// HandleSetFilter handles PUT /view/filter.
func (h *DirectoryHandler) HandleSetFilter(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[SetFilterRequest](r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	h.updateView(func(v *domain.ViewState) { v.SetFilter(req.Filter) })
	WriteJSON(w, http.StatusOK, h.usersResponse())
}

// HandleClearFilter handles DELETE /view/filter.
func (h *DirectoryHandler) HandleClearFilter(w http.ResponseWriter, r *http.Request) {
	h.updateView(func(v *domain.ViewState) { v.ClearFilter() })
	WriteJSON(w, http.StatusOK, h.usersResponse())
}

// HandleToggleSort handles POST /view/sort.
func (h *DirectoryHandler) HandleToggleSort(w http.ResponseWriter, r *http.Request) {
	h.updateView(func(v *domain.ViewState) { v.Sort.Toggle() })
	WriteJSON(w, http.StatusOK, h.usersResponse())
}

// HandleActivateSort handles POST /view/sort/{field}.
func (h *DirectoryHandler) HandleActivateSort(w http.ResponseWriter, r *http.Request) {
	field, err := domain.ParseSortField(chi.URLParam(r, "field"))
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	h.updateView(func(v *domain.ViewState) { v.Sort.Activate(field) })
	WriteJSON(w, http.StatusOK, h.usersResponse())
}

// updateView applies fn to the view state, announces the change and returns
// the new state.
func (h *DirectoryHandler) updateView(fn func(v *domain.ViewState)) domain.ViewState {
	h.mu.Lock()
	fn(&h.view)
	h.viewVersion++
	view, version := h.view, h.viewVersion
	h.mu.Unlock()

	h.logger.Debug("view changed",
		"filter", view.Filter,
		"sort", view.Sort.Key().String(),
		"color", view.ColorEnabled,
	)
	if h.broadcaster != nil {
		if err := h.broadcaster.Broadcast(domain.Event{Type: domain.EventViewChanged, Version: version}); err != nil {
			h.logger.Warn("failed to broadcast view change", "error", err)
		}
	}
	return view
}

func (h *DirectoryHandler) usersResponse() UsersResponse {
	h.mu.Lock()
	view := h.view
	h.mu.Unlock()

	snapshot := h.store.Snapshot()
	users := h.views.Compute(snapshot, view.Filter, view.Sort.Key())

	data := make([]UserResponse, len(users))
	for i, u := range users {
		data[i] = toUserResponse(u)
	}

	response := UsersResponse{
		Data:        data,
		Count:       len(data),
		Total:       snapshot.Len(),
		Status:      snapshot.Status,
		HasNextPage: snapshot.HasNextPage(),
		Fetching:    snapshot.Fetching,
		Version:     snapshot.Version,
		View:        toViewResponse(view),
	}
	if snapshot.Err != nil {
		response.Error = userFacingFetchError(snapshot.Err)
	}
	return response
}

func userFacingFetchError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "The user source timed out"
	}
	return "Failed to load users"
}

func toUserResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Country:   u.Country,
		Thumbnail: u.Thumbnail,
	}
}

func toViewResponse(v domain.ViewState) ViewResponse {
	return ViewResponse{
		ColorEnabled: v.ColorEnabled,
		Filter:       v.Filter,
		SortEnabled:  v.Sort.Enabled(),
		SortKey:      v.Sort.Key().String(),
		SortField:    v.Sort.Remembered().String(),
	}
}
