package handler

import (
    "context"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-ticketing/internal/apperr"
    "github.com/iliyamo/cinema-ticketing/internal/model"
    "github.com/iliyamo/cinema-ticketing/internal/service"
)

// CachePurger drops cached catalog responses after a write.
type CachePurger interface {
    Purge(ctx context.Context)
}

// MovieHandler serves the catalog and session management endpoints.
type MovieHandler struct {
    Catalog *service.CatalogService
    Booking *service.BookingService
    Cache   CachePurger
}

func NewMovieHandler(catalog *service.CatalogService, booking *service.BookingService, cache CachePurger) *MovieHandler {
    return &MovieHandler{Catalog: catalog, Booking: booking, Cache: cache}
}

// ----- DTOs -----

type sessionReq struct {
    Date       string `json:"date" validate:"required,datetime=2006-01-02"`
    TimeSlot   string `json:"timeSlot" validate:"required"`
    RoomNumber int    `json:"roomNumber" validate:"required,gte=1"`
}

func (r sessionReq) toService() service.NewSession {
    return service.NewSession{Date: r.Date, TimeSlot: model.TimeSlot(r.TimeSlot), RoomNumber: r.RoomNumber}
}

type createMovieReq struct {
    Name           string       `json:"name" validate:"required,max=255"`
    AgeRestriction *int         `json:"ageRestriction" validate:"required,gte=0"`
    Sessions       []sessionReq `json:"sessions" validate:"omitempty,dive"`
}

func (r createMovieReq) toService() service.NewMovie {
    out := service.NewMovie{Name: r.Name, AgeRestriction: *r.AgeRestriction}
    for _, s := range r.Sessions {
        out.Sessions = append(out.Sessions, s.toService())
    }
    return out
}

type sessionUpdateReq struct {
    ID         string  `json:"id" validate:"required"`
    Date       *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
    TimeSlot   *string `json:"timeSlot"`
    RoomNumber *int    `json:"roomNumber" validate:"omitempty,gte=1"`
}

type updateMovieReq struct {
    Name           *string            `json:"name" validate:"omitempty,min=1,max=255"`
    AgeRestriction *int               `json:"ageRestriction" validate:"omitempty,gte=0"`
    Sessions       []sessionUpdateReq `json:"sessions" validate:"omitempty,dive"`
}

func (r updateMovieReq) toService() service.MovieUpdate {
    out := service.MovieUpdate{Name: r.Name, AgeRestriction: r.AgeRestriction}
    for _, s := range r.Sessions {
        change := service.SessionChange{Date: s.Date, RoomNumber: s.RoomNumber}
        if s.TimeSlot != nil {
            slot := model.TimeSlot(*s.TimeSlot)
            change.TimeSlot = &slot
        }
        out.Sessions = append(out.Sessions, service.SessionUpdate{ID: s.ID, SessionChange: change})
    }
    return out
}

type bulkCreateReq struct {
    Movies []createMovieReq `json:"movies" validate:"required,min=1,dive"`
}

type bulkDeleteReq struct {
    MovieIDs []string `json:"movieIds" validate:"required,min=1,dive,uuid4"`
}

// List returns the active movies.  Query: sortBy, sortOrder, name,
// ageRestriction, ageRestrictionCondition.
func (h *MovieHandler) List(c echo.Context) error {
    f := service.MovieFilter{
        SortBy:       c.QueryParam("sortBy"),
        SortOrder:    c.QueryParam("sortOrder"),
        AgeCondition: c.QueryParam("ageRestrictionCondition"),
    }
    if name := c.QueryParam("name"); name != "" {
        f.Name = &name
    }
    if raw := c.QueryParam("ageRestriction"); raw != "" {
        age, err := strconv.Atoi(raw)
        if err != nil || age < 0 {
            return apperr.Validation("ageRestriction must be a non-negative integer")
        }
        f.AgeRestriction = &age
    }
    movies, err := h.Catalog.ListActiveMovies(c.Request().Context(), f)
    if err != nil {
        return err
    }
    return respond(c, http.StatusOK, movies)
}

// Get returns one movie with its sessions.
func (h *MovieHandler) Get(c echo.Context) error {
    m, err := h.Catalog.GetMovie(c.Request().Context(), c.Param("id"))
    if err != nil {
        return err
    }
    return respond(c, http.StatusOK, m)
}

func (h *MovieHandler) Create(c echo.Context) error {
    var req createMovieReq
    if err := bind(c, &req); err != nil {
        return err
    }
    m, err := h.Catalog.CreateMovie(c.Request().Context(), req.toService())
    if err != nil {
        return err
    }
    h.purge(c)
    return respond(c, http.StatusCreated, m)
}

func (h *MovieHandler) Update(c echo.Context) error {
    var req updateMovieReq
    if err := bind(c, &req); err != nil {
        return err
    }
    m, err := h.Catalog.UpdateMovie(c.Request().Context(), c.Param("id"), req.toService())
    if err != nil {
        return err
    }
    h.purge(c)
    return respond(c, http.StatusOK, m)
}

// Delete soft-deletes a movie.
func (h *MovieHandler) Delete(c echo.Context) error {
    m, err := h.Catalog.DeleteMovie(c.Request().Context(), c.Param("id"))
    if err != nil {
        return err
    }
    h.purge(c)
    return respond(c, http.StatusOK, m)
}

func (h *MovieHandler) BulkCreate(c echo.Context) error {
    var req bulkCreateReq
    if err := bind(c, &req); err != nil {
        return err
    }
    in := make([]service.NewMovie, 0, len(req.Movies))
    for _, m := range req.Movies {
        in = append(in, m.toService())
    }
    out, err := h.Catalog.BulkCreateMovies(c.Request().Context(), in)
    if err != nil {
        return err
    }
    h.purge(c)
    return respond(c, http.StatusCreated, out)
}

// BulkDelete deactivates the listed movies.  Movies processed before a
// failure stay deactivated.
func (h *MovieHandler) BulkDelete(c echo.Context) error {
    var req bulkDeleteReq
    if err := bind(c, &req); err != nil {
        return err
    }
    out, err := h.Catalog.BulkDeleteMovies(c.Request().Context(), req.MovieIDs)
    if len(out) > 0 {
        h.purge(c)
    }
    if err != nil {
        return err
    }
    return respond(c, http.StatusOK, out)
}

// AddSession schedules a session for the movie in the path.
func (h *MovieHandler) AddSession(c echo.Context) error {
    var req sessionReq
    if err := bind(c, &req); err != nil {
        return err
    }
    sess, err := h.Booking.AddSession(c.Request().Context(), c.Param("id"), req.toService())
    if err != nil {
        return err
    }
    h.purge(c)
    return respond(c, http.StatusCreated, sess)
}

// DeleteSessions hard-deletes every session of the movie in the path.
func (h *MovieHandler) DeleteSessions(c echo.Context) error {
    res, err := h.Catalog.DeleteMovieSessions(c.Request().Context(), c.Param("id"))
    if err != nil {
        return err
    }
    h.purge(c)
    return respond(c, http.StatusOK, res)
}

// DeleteSession hard-deletes one session.
func (h *MovieHandler) DeleteSession(c echo.Context) error {
    res, err := h.Booking.DeleteSession(c.Request().Context(), c.Param("id"))
    if err != nil {
        return err
    }
    h.purge(c)
    return respond(c, http.StatusOK, res)
}

func (h *MovieHandler) purge(c echo.Context) {
    if h.Cache != nil {
        h.Cache.Purge(context.WithoutCancel(c.Request().Context()))
    }
}
