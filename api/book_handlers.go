package api

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/paperbridge/bookstore-go/models"
	"github.com/paperbridge/bookstore-go/personalization"
)

const booksCollection = "book"

// GetBooksHandler lists the catalog with genre annotation
func GetBooksHandler(c *gin.Context) {
	app, err := getApp(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	books, err := app.Catalog.GetBooks(c.Request.Context(), booksCollection)
	if err != nil {
		log.Printf("ERROR: GetBooksHandler - catalog fetch failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "catalog unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"books": books})
}

// GetBookHandler returns a single catalog entry with its detected genre and
// the attribute bundle that a view of it would push
func GetBookHandler(c *gin.Context) {
	app, err := getApp(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	book, err := app.Catalog.GetBook(c.Request.Context(), booksCollection, c.Param("id"))
	if err != nil {
		log.Printf("DEBUG: GetBookHandler - catalog fetch failed: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
		return
	}

	genre := personalization.DetectGenre(book.Title, book.Author)
	c.JSON(http.StatusOK, gin.H{
		"book":       book,
		"genre":      genre,
		"attributes": personalization.BuildAttributeBundle(genre, book.ID),
	})
}

// UploadCoverHandler accepts a cover image and generates the responsive
// webp thumbnail set for it
func UploadCoverHandler(c *gin.Context) {
	app, err := getApp(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	file, err := c.FormFile("cover")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing cover file"})
		return
	}

	tmp, err := os.CreateTemp("", "cover-upload-*")
	if err != nil {
		log.Printf("ERROR: UploadCoverHandler - failed to create temp file: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	tmp.Close()
	defer os.Remove(tmp.Name())

	if err := c.SaveUploadedFile(file, tmp.Name()); err != nil {
		log.Printf("ERROR: UploadCoverHandler - failed to save upload: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}

	result, err := app.Covers.GenerateCoverThumbnails(tmp.Name(), c.Param("id"))
	if err != nil {
		log.Printf("ERROR: UploadCoverHandler - thumbnail generation failed: %v", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not process image"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"src":    result.MainPath,
		"srcSet": result.SrcSet,
	})
}

// NotifyRequest is the signup notification payload
type NotifyRequest struct {
	Email     string `json:"email" binding:"required"`
	Name      string `json:"name"`
	BookTitle string `json:"bookTitle"`
}

// NotifyHandler delivers a signup notification. The response is always a
// success; a degraded status marks that no delivery channel confirmed.
func NotifyHandler(c *gin.Context) {
	app, err := getApp(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var req NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	status := app.Email.SendSignupNotification(c.Request.Context(), req.Email, req.Name, req.BookTitle)
	response := gin.H{"success": true, "status": status}
	if status == models.DeliveryDegraded {
		response["message"] = "saved but not confirmed"
	}
	c.JSON(http.StatusOK, response)
}
