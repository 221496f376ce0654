package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rockspotter/middlewares"
	"rockspotter/models"
	"rockspotter/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// lookupStore serves the lookups the award service makes before any mutation.
// Anything else panics through the nil embedded interface.
type lookupStore struct {
	services.EntityStore
	users map[primitive.ObjectID]models.User
	hunts map[primitive.ObjectID]models.Hunt
}

func (s *lookupStore) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &u, nil
}

func (s *lookupStore) GetHunt(ctx context.Context, id primitive.ObjectID) (*models.Hunt, error) {
	h, ok := s.hunts[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &h, nil
}

func (s *lookupStore) GetAchievement(ctx context.Context, id primitive.ObjectID) (*models.Achievement, error) {
	return nil, mongo.ErrNoDocuments
}

// asUser mimics AuthMiddleware for handlers under test
func asUser(userID primitive.ObjectID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middlewares.ContextUserID, userID)
		c.Set(middlewares.ContextRole, role)
		c.Next()
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body %q: %v", w.Body.String(), err)
	}
	msg, _ := body["error"].(string)
	return msg
}

func TestRespondErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", &services.NotFoundError{Resource: "rock", ID: "abc"}, http.StatusNotFound},
		{"validation", &services.ValidationError{Message: "bad"}, http.StatusBadRequest},
		{"conflict", &services.ConflictError{Message: "again"}, http.StatusConflict},
		{"wrapped conflict", fmt.Errorf("outer: %w", &services.ConflictError{Message: "again"}), http.StatusConflict},
		{"unknown", fmt.Errorf("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/", func(c *gin.Context) { respondError(c, tt.err) })
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, w.Code)
			}
			msg := decodeError(t, w)
			if tt.status == http.StatusInternalServerError && msg != "Internal server error" {
				t.Errorf("Expected generic message for 500, got %q", msg)
			}
		})
	}
}

func TestPagination(t *testing.T) {
	tests := []struct {
		query       string
		page, limit int64
	}{
		{"", 1, defaultPageSize},
		{"?page=3&limit=5", 3, 5},
		{"?page=0&limit=-1", 1, defaultPageSize},
		{"?limit=1000", 1, maxPageSize},
		{"?page=abc", 1, defaultPageSize},
		{"?page=9223372036854775807&limit=100", maxPage, maxPageSize},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
		page, limit := pagination(c)
		if page != tt.page || limit != tt.limit {
			t.Errorf("%q: expected page %d limit %d, got %d %d", tt.query, tt.page, tt.limit, page, limit)
		}
	}
}

func TestHuntUpdateMissStatus(t *testing.T) {
	for rocksChanged, want := range map[bool]int{true: http.StatusConflict, false: http.StatusNotFound} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondHuntUpdateMiss(c, rocksChanged)
		if w.Code != want {
			t.Errorf("rocksChanged=%v: expected %d, got %d", rocksChanged, want, w.Code)
		}
	}
}

func TestHuntSlug(t *testing.T) {
	id, _ := primitive.ObjectIDFromHex("64b7f0c2a1b2c3d4e5f60718")
	if got := huntSlug("Quartz Quest: Beach Edition!", id); got != "quartz-quest-beach-edition-f60718" {
		t.Errorf("Unexpected slug %q", got)
	}
	if got := huntSlug("???", id); got != id.Hex() {
		t.Errorf("Expected bare ID for an empty slug, got %q", got)
	}
}

func TestHandlersRequireAuthenticatedUser(t *testing.T) {
	router := gin.New()
	router.POST("/hunts/:id/join", JoinHunt)
	router.GET("/achievements/me", MyAchievements)

	for _, path := range []string{"/hunts/" + primitive.NewObjectID().Hex() + "/join", "/achievements/me"} {
		method := http.MethodPost
		if strings.HasPrefix(path, "/achievements") {
			method = http.MethodGet
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, w.Code)
		}
	}
}

func TestMarkRockFoundStatusCodes(t *testing.T) {
	alice := primitive.NewObjectID()
	rock := primitive.NewObjectID()
	hunt := primitive.NewObjectID()
	store := &lookupStore{
		users: map[primitive.ObjectID]models.User{alice: {ID: alice, Username: "alice"}},
		hunts: map[primitive.ObjectID]models.Hunt{hunt: {
			ID:       hunt,
			IsActive: true,
			Rocks:    []models.HuntRock{{Rock: rock, Order: 1}},
		}},
	}
	services.InitAwardService(store)

	tests := []struct {
		name   string
		user   primitive.ObjectID
		path   string
		status int
	}{
		{"invalid hunt id", alice, "/hunts/nope/rocks/" + rock.Hex() + "/found", http.StatusBadRequest},
		{"invalid rock id", alice, "/hunts/" + hunt.Hex() + "/rocks/nope/found", http.StatusBadRequest},
		{"unknown user", primitive.NewObjectID(), "/hunts/" + hunt.Hex() + "/rocks/" + rock.Hex() + "/found", http.StatusNotFound},
		{"unknown hunt", alice, "/hunts/" + primitive.NewObjectID().Hex() + "/rocks/" + rock.Hex() + "/found", http.StatusNotFound},
		{"rock not in hunt", alice, "/hunts/" + hunt.Hex() + "/rocks/" + primitive.NewObjectID().Hex() + "/found", http.StatusBadRequest},
		{"not a participant", alice, "/hunts/" + hunt.Hex() + "/rocks/" + rock.Hex() + "/found", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.POST("/hunts/:id/rocks/:rockId/found", asUser(tt.user, models.RoleUser), MarkRockFound)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, tt.path, nil))
			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestAwardAchievementUnknownAchievement(t *testing.T) {
	alice := primitive.NewObjectID()
	services.InitAwardService(&lookupStore{
		users: map[primitive.ObjectID]models.User{alice: {ID: alice}},
	})

	router := gin.New()
	router.POST("/achievements/award", AwardAchievement)

	body := fmt.Sprintf(`{"userId":%q,"achievementId":%q}`, alice.Hex(), primitive.NewObjectID().Hex())
	req := httptest.NewRequest(http.MethodPost, "/achievements/award", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/achievements/award", strings.NewReader(`{"userId":"x","achievementId":"y"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed IDs, got %d", w.Code)
	}
}

func TestHealthWithoutDatabase(t *testing.T) {
	router := gin.New()
	router.GET("/api/health", Health)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["status"] != "ok" || body["database"] != "disconnected" {
		t.Errorf("Unexpected health body %v", body)
	}
}
