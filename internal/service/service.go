package service

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gitlab.com/dirk.krummacker/contacts-api/internal/config"
	"gitlab.com/dirk.krummacker/contacts-api/internal/model"
	"gitlab.com/dirk.krummacker/contacts-api/internal/store"
	"go.uber.org/zap"
)

// contactsService holds the dependencies shared by all request handlers. It keeps no state
// between requests.
type contactsService struct {
	store  store.Store
	logger *zap.Logger
}

// SetupHttpRouter initializes the REST API router and registers all endpoints. The store argument
// can be a real database for production use or a fake within unit tests.
func SetupHttpRouter(st store.Store, logger *zap.Logger, cfg config.HTTP) *gin.Engine {
	s := &contactsService{store: st, logger: logger}

	router := gin.New()
	if cfg.AccessLog {
		router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	} else {
		logger.Info("Turning off HTTP request logging.")
	}
	// Metrics wrap the recovery so that requests ending in a panic are counted as 500.
	router.Use(metricsMiddleware())
	router.Use(ginzap.RecoveryWithZap(logger, true))
	if len(cfg.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.CORSOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}

	router.GET("/health", s.health)
	router.GET("/contacts", s.findContacts)
	router.POST("/contacts", s.createContact)
	router.GET("/contacts/:id", s.findContactByID)
	router.PATCH("/contacts/:id", s.updateContactByID)
	if cfg.Metrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	return router
}

// health responds with a fixed body as long as the process is able to serve requests. It does not
// reach out to the database.
//
// Example REST API call:
//
//	> curl http://localhost:3001/health
func (s *contactsService) health(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, gin.H{"ok": true, "service": "api"})
}

// findContacts responds with the list of all contacts as JSON, newest first.
//
// Example REST API call:
//
//	> curl http://localhost:3001/contacts
func (s *contactsService) findContacts(c *gin.Context) {
	contacts, err := s.store.List(c.Request.Context())
	if err != nil {
		s.respondStoreError(c, err, "Failed to fetch contacts")
		return
	}
	c.IndentedJSON(http.StatusOK, contacts)
}

// findContactByID locates the contact whose ID value matches the id parameter of the request URL,
// then returns that contact as a response.
//
// Example REST API call:
//
//	> curl http://localhost:3001/contacts/56
func (s *contactsService) findContactByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	contact, err := s.store.FindByID(c.Request.Context(), id)
	if err != nil {
		s.respondStoreError(c, err, "Failed to fetch contact")
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// createContact inserts the contact specified in the request's JSON into the database. It responds
// with the full contact data including the newly assigned id and creation time. Name and email are
// mandatory, the phone number is optional.
//
// Example REST API call:
//
//	> curl http://localhost:3001/contacts --request "POST" --include --header "Content-Type: application/json" --data '{"name": "Hans Wurst", "email": "hans@example.com", "phone": "0815"}'
func (s *contactsService) createContact(c *gin.Context) {
	var input model.NewContact
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err, "Name and email are required")
		return
	}
	contact := input.Contact()
	if err := s.store.Create(c.Request.Context(), &contact); err != nil {
		s.respondStoreError(c, err, "Failed to create contact")
		return
	}
	c.IndentedJSON(http.StatusCreated, contact)
}

// updateContactByID updates the contact whose ID value matches the id parameter of the request
// URL with the values specified in the JSON (and only those), and finally responds with the new
// version of the contact. The contact is read first, so an unknown id never reaches the update.
//
// Example REST API calls:
//
//	> curl http://localhost:3001/contacts/56 --request "PATCH" --include --header "Content-Type: application/json" --data '{"phone": "81970"}'
//	> curl http://localhost:3001/contacts/56 --request "PATCH" --include --header "Content-Type: application/json" --data '{"email": "new@example.com"}'
func (s *contactsService) updateContactByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var patch model.ContactPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err, "Name and email must not be empty")
		return
	}

	ctx := c.Request.Context()
	contact, err := s.store.FindByID(ctx, id)
	if err != nil {
		s.respondStoreError(c, err, "Failed to update contact")
		return
	}
	patch.ApplyTo(contact)
	if err := s.store.Update(ctx, contact); err != nil {
		s.respondStoreError(c, err, "Failed to update contact")
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// parseID reads the id parameter of the request URL. It aborts the request with BAD REQUEST if
// the id is not an integer.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid contact ID"})
		return 0, false
	}
	return id, true
}

// respondBindError aborts the request with BAD REQUEST. Validation failures get the specified
// message, anything else was not valid JSON in the first place.
func respondBindError(c *gin.Context, err error, validationMessage string) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validationMessage})
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
}

// respondStoreError translates a store error into the HTTP response. Unexpected errors are logged
// and answered with the generic message, their details stay on the server.
func (s *contactsService) respondStoreError(c *gin.Context, err error, message string) {
	switch store.KindOf(err) {
	case store.NotFound:
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Contact not found"})
	case store.Conflict:
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Email already exists"})
	default:
		s.logger.Error(message,
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}
