package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/quietspotter/quietspotter/internal/domain"
	"github.com/quietspotter/quietspotter/internal/store"
)

// sessionHandler is an API handler bound to the caller's Domain Store.
type sessionHandler func(w http.ResponseWriter, r *http.Request, st *store.Store)

// withSession resolves the X-Session-Token header to the caller's store.
func (s *Server) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(sessionHeader)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing "+sessionHeader+" header")
			return
		}
		st := s.sessions.Get(token)
		if st == nil {
			writeError(w, http.StatusUnauthorized, "unknown or expired session")
			return
		}
		next(w, r, st)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps store errors to HTTP statuses. Unknown-location
// errors are 404 on reads and 400 on writes, where the id arrived in a
// request body rather than the path.
func writeDomainError(w http.ResponseWriter, err error, notFoundStatus int) {
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrUnknownLocation):
		writeError(w, notFoundStatus, err.Error())
	case domain.IsValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrBackendUnavailable):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// --- sessions ---

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	token, err := s.sessions.Create(r.Context())
	if err != nil {
		writeDomainError(w, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"token": token})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(sessionHeader)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing "+sessionHeader+" header")
		return
	}
	s.sessions.Delete(token)
	w.WriteHeader(http.StatusNoContent)
}

// --- auth ---

type loginRequest struct {
	Username string `json:"username"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request, st *store.Store) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := st.Login(r.Context(), req.Username)
	if err != nil {
		writeDomainError(w, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request, st *store.Store) {
	st.Logout()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, _ *http.Request, st *store.Store) {
	user := st.CurrentUser()
	if user == nil {
		writeError(w, http.StatusUnauthorized, domain.ErrNotAuthenticated.Error())
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// --- locations ---

func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request, st *store.Store) {
	locations := st.Locations()

	q := r.URL.Query()
	if raw := q.Get("maxNoise"); raw != "" {
		max, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "maxNoise must be an integer")
			return
		}
		locations = domain.FilterByMaxNoise(locations, &max)
	}
	if q.Get("sort") == "quietest" {
		locations = domain.SortByQuietest(locations)
	}

	writeJSON(w, http.StatusOK, locations)
}

func (s *Server) handleAddLocation(w http.ResponseWriter, r *http.Request, st *store.Store) {
	var in domain.NewLocationInput
	if !decodeBody(w, r, &in) {
		return
	}
	loc, err := st.AddLocation(r.Context(), in)
	if err != nil {
		writeDomainError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, loc)
}

func (s *Server) handleGetLocation(w http.ResponseWriter, r *http.Request, st *store.Store) {
	loc, err := st.Location(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (s *Server) handleLocationReports(w http.ResponseWriter, r *http.Request, st *store.Store) {
	id := r.PathValue("id")
	if _, err := st.Location(id); err != nil {
		writeDomainError(w, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, st.LocationReports(id))
}

// --- reports ---

type submitReportRequest struct {
	LocationID string `json:"locationId"`
	NoiseLevel int    `json:"noiseLevel"`
	Comment    string `json:"comment"`
}

func (s *Server) handleSubmitReport(w http.ResponseWriter, r *http.Request, st *store.Store) {
	var req submitReportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	report, err := st.SubmitReport(r.Context(), req.LocationID, req.NoiseLevel, req.Comment)
	if err != nil {
		writeDomainError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

// --- session view state ---

type sessionState struct {
	CurrentUser      *domain.User     `json:"currentUser"`
	SelectedLocation *domain.Location `json:"selectedLocation"`
	NoiseFilter      *int             `json:"noiseFilter"`
	View             domain.ViewMode  `json:"view"`
}

func (s *Server) handleSessionState(w http.ResponseWriter, _ *http.Request, st *store.Store) {
	writeJSON(w, http.StatusOK, sessionState{
		CurrentUser:      st.CurrentUser(),
		SelectedLocation: st.SelectedLocation(),
		NoiseFilter:      st.NoiseFilter(),
		View:             st.View(),
	})
}

type setViewRequest struct {
	View domain.ViewMode `json:"view"`
}

func (s *Server) handleSetView(w http.ResponseWriter, r *http.Request, st *store.Store) {
	var req setViewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := st.SetView(req.View); err != nil {
		writeDomainError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.ViewMode{"view": st.View()})
}

type setFilterRequest struct {
	MaxNoise *int `json:"maxNoise"`
}

func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request, st *store.Store) {
	var req setFilterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	st.SetNoiseFilter(req.MaxNoise)
	writeJSON(w, http.StatusOK, st.FilteredLocations())
}

type setSelectionRequest struct {
	LocationID *string `json:"locationId"`
}

func (s *Server) handleSetSelection(w http.ResponseWriter, r *http.Request, st *store.Store) {
	var req setSelectionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	id := ""
	if req.LocationID != nil {
		id = *req.LocationID
	}
	if err := st.SelectLocation(id); err != nil {
		writeDomainError(w, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sessionState{
		CurrentUser:      st.CurrentUser(),
		SelectedLocation: st.SelectedLocation(),
		NoiseFilter:      st.NoiseFilter(),
		View:             st.View(),
	})
}
