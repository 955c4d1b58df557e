package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khoido2003/natour-api/internal/models"
	appErrors "github.com/khoido2003/natour-api/pkg/errors"
)

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// Envelope represents the common response contract.
type Envelope struct {
	Status     string                 `json:"status"`
	Message    string                 `json:"message,omitempty"`
	Token      string                 `json:"token,omitempty"`
	Results    *int                   `json:"results,omitempty"`
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// JSON sends a success response with optional metadata.
func JSON(c *gin.Context, status int, data interface{}, meta ...map[string]interface{}) {
	c.Header("Cache-Control", "no-store")
	envelope := Envelope{Status: StatusSuccess, Data: data}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// List sends a page of results with the count of the page and the pagination block.
func List(c *gin.Context, key string, items interface{}, results int, pagination *models.Pagination, meta map[string]interface{}) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, Envelope{
		Status:     StatusSuccess,
		Results:    &results,
		Data:       gin.H{key: items},
		Pagination: pagination,
		Meta:       meta,
	})
}

// Session sends an issued token together with the user it belongs to.
func Session(c *gin.Context, status int, token string, user interface{}) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, Envelope{Status: StatusSuccess, Token: token, Data: gin.H{"user": user}})
}

// Message sends a success response carrying only a message.
func Message(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{Status: StatusSuccess, Message: message})
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// Error sends an error response converting the error to the common structure.
// Client errors are reported as "fail", server errors as "error".
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	status := StatusError
	if appErr.Fail() {
		status = StatusFail
	}
	_ = c.Error(err)
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, Envelope{Status: status, Message: appErr.Message, Error: appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
