package handlers

import (
	"net/http"

	portssvc "github.com/bookswapp/bookswap_backend/internal/core/ports/services"
	"github.com/bookswapp/bookswap_backend/internal/dto"
	"github.com/gin-gonic/gin"
)

// bookHandler handles HTTP requests related to book listings.
type bookHandler struct {
	bookService portssvc.BookSvcFacade
}

// newBookHandler creates a new bookHandler.
func newBookHandler(bookService portssvc.BookSvcFacade) *bookHandler {
	return &bookHandler{bookService: bookService}
}

// registerBookRoutes wires the book endpoints into the router group.
func registerBookRoutes(rg *gin.RouterGroup, bookService portssvc.BookSvcFacade) {
	h := newBookHandler(bookService)

	books := rg.Group("/books")
	{
		books.POST("", h.createBook)
		books.GET("", h.listAvailableBooks)
		books.GET("/mine", h.listMyBooks)
		books.GET("/:bookID", h.getBook)
		books.PATCH("/:bookID", h.updateBook)
	}
}

// createBook godoc
// @Summary List a new book
// @Description Creates a book listing owned by the caller
// @Tags books
// @Accept  json
// @Produce  json
// @Param   book body dto.CreateBookRequest true "Book"
// @Success 201 {object} dto.BookResponse
// @Failure 400 {object} map[string]string "Invalid request format"
// @Router /books [post]
func (h *bookHandler) createBook(c *gin.Context) {
	var req dto.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	book, err := h.bookService.CreateBook(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err, "Failed to create book")
		return
	}
	c.JSON(http.StatusCreated, dto.ToBookResponse(book))
}

// listAvailableBooks godoc
// @Summary Browse available books
// @Description Lists available books, optionally filtered by proximity to the caller
// @Tags books
// @Produce  json
// @Param   lat query number false "Caller latitude"
// @Param   lng query number false "Caller longitude"
// @Param   radiusKm query number false "Search radius in kilometres" default(10)
// @Param   limit query int false "Page size" default(20)
// @Param   offset query int false "Offset" default(0)
// @Success 200 {array} dto.BookResponse
// @Router /books [get]
func (h *bookHandler) listAvailableBooks(c *gin.Context) {
	var params dto.ListBooksParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	books, err := h.bookService.ListAvailableBooks(c.Request.Context(), params)
	if err != nil {
		respondError(c, err, "Failed to list books")
		return
	}
	c.JSON(http.StatusOK, dto.ToBookResponses(books))
}

// listMyBooks godoc
// @Summary List the caller's books
// @Description Lists all books the caller has listed, including unavailable ones
// @Tags books
// @Produce  json
// @Param   limit query int false "Page size" default(20)
// @Param   offset query int false "Offset" default(0)
// @Success 200 {array} dto.BookResponse
// @Router /books/mine [get]
func (h *bookHandler) listMyBooks(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}
	limit, offset := paginationParams(c)

	books, err := h.bookService.ListBooksByOwner(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, err, "Failed to list books")
		return
	}
	c.JSON(http.StatusOK, dto.ToBookResponses(books))
}

// getBook godoc
// @Summary Get a book
// @Description Retrieves a book listing by ID
// @Tags books
// @Produce  json
// @Param   bookID path string true "Book ID"
// @Success 200 {object} dto.BookResponse
// @Failure 404 {object} map[string]string "Book not found"
// @Router /books/{bookID} [get]
func (h *bookHandler) getBook(c *gin.Context) {
	book, err := h.bookService.GetBookByID(c.Request.Context(), c.Param("bookID"))
	if err != nil {
		respondError(c, err, "Failed to retrieve book")
		return
	}
	c.JSON(http.StatusOK, dto.ToBookResponse(book))
}

// updateBook godoc
// @Summary Update a book
// @Description Updates a book's mutable fields; only the owner may update
// @Tags books
// @Accept  json
// @Produce  json
// @Param   bookID path string true "Book ID"
// @Param   book body dto.UpdateBookRequest true "Fields to update"
// @Success 200 {object} dto.BookResponse
// @Failure 400 {object} map[string]string "Invalid request or book already exchanged"
// @Failure 403 {object} map[string]string "Not the owner"
// @Failure 404 {object} map[string]string "Book not found"
// @Router /books/{bookID} [patch]
func (h *bookHandler) updateBook(c *gin.Context) {
	var req dto.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	book, err := h.bookService.UpdateBook(c.Request.Context(), c.Param("bookID"), req, userID)
	if err != nil {
		respondError(c, err, "Failed to update book")
		return
	}
	c.JSON(http.StatusOK, dto.ToBookResponse(book))
}
