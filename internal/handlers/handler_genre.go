package handlers

import (
	"net/http"

	portssvc "github.com/bookswapp/bookswap_backend/internal/core/ports/services"
	"github.com/gin-gonic/gin"
)

// genreHandler handles HTTP requests for the genre catalog.
type genreHandler struct {
	genreService portssvc.GenreSvcFacade
}

// registerGenreRoutes wires the genre endpoints into the router group.
func registerGenreRoutes(rg *gin.RouterGroup, genreService portssvc.GenreSvcFacade) {
	h := &genreHandler{genreService: genreService}
	rg.GET("/genres", h.listGenres)
}

// listGenres godoc
// @Summary List genres
// @Description Retrieves the full genre catalog ordered by name
// @Tags genres
// @Produce  json
// @Success 200 {array} domain.Genre
// @Router /genres [get]
func (h *genreHandler) listGenres(c *gin.Context) {
	genres, err := h.genreService.ListGenres(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list genres")
		return
	}
	c.JSON(http.StatusOK, genres)
}
