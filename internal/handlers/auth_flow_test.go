package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"golang.org/x/crypto/bcrypt"

	"backend/internal/middleware"
)

// These tests drive the auth handlers against a mock mongo deployment so the
// paths behind the first query are covered without a running server.

func authFlowRouter(db *mongo.Database) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	r := gin.New()
	r.POST("/api/auth/register", Register(db, cfg))
	r.POST("/api/auth/login", Login(db, cfg))
	r.GET("/api/auth/me", middleware.Authenticate(db, cfg.JWTSecret), Me())
	return r
}

func storedUserDoc(id primitive.ObjectID, email, passwordHash string) bson.D {
	now := primitive.NewDateTimeFromTime(time.Now())
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: "ada"},
		{Key: "email", Value: email},
		{Key: "password", Value: passwordHash},
		{Key: "role", Value: "user"},
		{Key: "isActive", Value: true},
		{Key: "createdAt", Value: now},
		{Key: "updatedAt", Value: now},
	}
}

func hashedPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestRegisterMinimumLengthPassword(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	mt.Run("six characters is accepted", func(mt *mtest.T) {
		r := authFlowRouter(mt.Client.Database("apptest"))
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		w := postJSON(r, "/api/auth/register", `{"email":"ada@x.com","password":"sixsix"}`)

		require.Equal(mt.T, http.StatusCreated, w.Code)
		body := decodeBody(mt.T, w)
		assert.NotEmpty(mt.T, body["token"])
		user, ok := body["user"].(map[string]interface{})
		require.True(mt.T, ok)
		assert.Equal(mt.T, "ada@x.com", user["email"])
		// Name was omitted, so it falls back to the email local part.
		assert.Equal(mt.T, "ada", user["name"])
	})
}

func TestRegisterDuplicateEmail(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	mt.Run("existing email answers conflict", func(mt *mtest.T) {
		r := authFlowRouter(mt.Client.Database("apptest"))
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: apptest.users",
		}))

		w := postJSON(r, "/api/auth/register", `{"email":"ada@x.com","password":"secret1"}`)

		require.Equal(mt.T, http.StatusConflict, w.Code)
		body := decodeBody(mt.T, w)
		assert.Equal(mt.T, "email already registered", body["error"])
		assert.Equal(mt.T, "email", body["field"])
	})
}

func TestLoginUnknownEmail(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	mt.Run("generic message with email field", func(mt *mtest.T) {
		r := authFlowRouter(mt.Client.Database("apptest"))
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "apptest.users", mtest.FirstBatch))

		w := postJSON(r, "/api/auth/login", `{"email":"ghost@x.com","password":"secret1"}`)

		require.Equal(mt.T, http.StatusUnauthorized, w.Code)
		body := decodeBody(mt.T, w)
		assert.Equal(mt.T, "invalid credentials", body["error"])
		assert.Equal(mt.T, "email", body["field"])
	})
}

func TestLoginWrongPassword(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	mt.Run("generic message with password field", func(mt *mtest.T) {
		r := authFlowRouter(mt.Client.Database("apptest"))
		doc := storedUserDoc(primitive.NewObjectID(), "ada@x.com", hashedPassword(mt.T, "secret1"))
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "apptest.users", mtest.FirstBatch, doc))

		w := postJSON(r, "/api/auth/login", `{"email":"ada@x.com","password":"not-it1"}`)

		require.Equal(mt.T, http.StatusUnauthorized, w.Code)
		body := decodeBody(mt.T, w)
		// Same message as an unknown email so the response does not reveal
		// which half of the credential failed.
		assert.Equal(mt.T, "invalid credentials", body["error"])
		assert.Equal(mt.T, "password", body["field"])
	})
}

func TestLoginDeactivatedAccount(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	mt.Run("inactive user is refused", func(mt *mtest.T) {
		r := authFlowRouter(mt.Client.Database("apptest"))
		doc := storedUserDoc(primitive.NewObjectID(), "ada@x.com", hashedPassword(mt.T, "secret1"))
		for i, field := range doc {
			if field.Key == "isActive" {
				doc[i].Value = false
			}
		}
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "apptest.users", mtest.FirstBatch, doc))

		w := postJSON(r, "/api/auth/login", `{"email":"ada@x.com","password":"secret1"}`)

		require.Equal(mt.T, http.StatusForbidden, w.Code)
		body := decodeBody(mt.T, w)
		assert.Equal(mt.T, "account is deactivated", body["error"])
	})
}

func TestRegisterLoginMeRoundTrip(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	mt.Run("login token resolves the profile", func(mt *mtest.T) {
		r := authFlowRouter(mt.Client.Database("apptest"))

		mt.AddMockResponses(mtest.CreateSuccessResponse())
		w := postJSON(r, "/api/auth/register", `{"name":"ada","email":"ada@x.com","password":"secret1"}`)
		require.Equal(mt.T, http.StatusCreated, w.Code)
		require.NotEmpty(mt.T, decodeBody(mt.T, w)["token"])

		userID := primitive.NewObjectID()
		doc := storedUserDoc(userID, "ada@x.com", hashedPassword(mt.T, "secret1"))
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, "apptest.users", mtest.FirstBatch, doc),
			mtest.CreateSuccessResponse(), // lastLogin touch
		)
		w = postJSON(r, "/api/auth/login", `{"email":"ada@x.com","password":"secret1"}`)
		require.Equal(mt.T, http.StatusOK, w.Code)
		token, _ := decodeBody(mt.T, w)["token"].(string)
		require.NotEmpty(mt.T, token)

		mt.AddMockResponses(mtest.CreateCursorResponse(1, "apptest.users", mtest.FirstBatch, doc))
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(mt.T, http.StatusOK, rec.Code)
		user, ok := decodeBody(mt.T, rec)["user"].(map[string]interface{})
		require.True(mt.T, ok)
		assert.Equal(mt.T, "ada@x.com", user["email"])
		assert.Equal(mt.T, userID.Hex(), user["id"])
	})
}
