package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/id", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	t.Run("generates an id", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/id", nil))

		id := w.Header().Get("X-Request-ID")
		if id == "" {
			t.Fatal("Expected X-Request-ID header to be set")
		}
		if w.Body.String() != id {
			t.Errorf("Expected context id %q to match header %q", w.Body.String(), id)
		}
	})

	t.Run("keeps the caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/id", nil)
		req.Header.Set("X-Request-ID", "req1")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if got := w.Header().Get("X-Request-ID"); got != "req1" {
			t.Errorf("Expected req1, got %q", got)
		}
	})
}

func TestRateLimiter(t *testing.T) {
	router := gin.New()
	router.Use(RequestID(), RateLimiter(0.001, 2))
	router.GET("/limited", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	var codes []int
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/limited", nil))
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("Expected the burst to be allowed, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("Expected 429 after the burst, got %d", codes[2])
	}
}

func TestContentTypeValidation(t *testing.T) {
	router := gin.New()
	router.Use(ContentTypeValidation())
	router.POST("/events", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/events", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name        string
		method      string
		contentType string
		wantStatus  int
	}{
		{"json", http.MethodPost, "application/json", http.StatusOK},
		{"json with charset", http.MethodPost, "application/json; charset=utf-8", http.StatusOK},
		{"missing", http.MethodPost, "", http.StatusBadRequest},
		{"unsupported", http.MethodPost, "text/plain", http.StatusUnsupportedMediaType},
		{"get skips validation", http.MethodGet, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/events", strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestRequestSizeLimit(t *testing.T) {
	router := gin.New()
	router.Use(RequestSizeLimit(8))
	router.POST("/events", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(`{"LogicalResourceId":"r1"}`)))

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413, got %d", w.Code)
	}
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		errType    gin.ErrorType
		wantStatus int
	}{
		{"bind", gin.ErrorTypeBind, http.StatusBadRequest},
		{"public", gin.ErrorTypePublic, http.StatusBadRequest},
		{"private", gin.ErrorTypePrivate, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(RequestID(), ErrorHandler(quietLogger()))
			router.GET("/fail", func(c *gin.Context) {
				_ = c.Error(errors.New("boom")).SetType(tt.errType)
			})

			req := httptest.NewRequest(http.MethodGet, "/fail", nil)
			req.Header.Set("X-Request-ID", "req1")

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}

			var body ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if body.RequestID != "req1" {
				t.Errorf("Expected request id req1, got %q", body.RequestID)
			}
		})
	}
}

func TestStructuredLogger(t *testing.T) {
	logger := logrus.New()
	var out strings.Builder
	logger.SetOutput(&out)
	logger.SetFormatter(&logrus.JSONFormatter{})

	router := gin.New()
	router.Use(RequestID(), StructuredLogger(logger))
	router.POST("/events", func(c *gin.Context) {
		c.Set(InvocationStatusKey, "FAILED")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/events", nil)
	req.Header.Set("X-Request-ID", "req1")
	router.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(out.String()), &entry); err != nil {
		t.Fatalf("Expected one JSON log line, got %q: %v", out.String(), err)
	}

	if entry["request_id"] != "req1" {
		t.Errorf("Expected request_id req1, got %v", entry["request_id"])
	}
	if entry["invocation_status"] != "FAILED" {
		t.Errorf("Expected invocation_status FAILED, got %v", entry["invocation_status"])
	}
	if entry["msg"] != "Request completed" {
		t.Errorf("Unexpected message %v", entry["msg"])
	}
}
