/*
 * Copyright 2025 avolkov.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/avolkov/strata/database"
	"github.com/avolkov/strata/dberr"
	"github.com/gin-gonic/gin"
)

// Error response type discriminators.
const (
	TypeDatabaseError = "database_error"
	TypeInternalError = "internal_error"
)

// ErrorResponse is the only error body shape clients ever receive.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Type   string `json:"type"`
	Path   string `json:"path"`
}

var logger = database.NamedLogger("API")

// Fail attaches an error to the request so ErrorHandler can render it, and
// stops further handlers.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ErrorHandler renders errors collected during the request. Taxonomy errors
// answer with their own status; recognized storage-engine errors and
// everything else answer 500 with a generic detail.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		writeError(c, c.Errors.Last().Err)
	}
}

func writeError(c *gin.Context, err error) {
	path := c.Request.URL.Path

	if e, ok := dberr.As(err); ok {
		logger.Warn("Database exception", "path", path, "kind", e.Kind, "error", e.Message)
		c.JSON(e.StatusCode, ErrorResponse{
			Detail: e.Message,
			Type:   TypeDatabaseError,
			Path:   path,
		})
		return
	}

	if dberr.IsStorageError(err) {
		// Full detail stays server-side.
		logger.Error("Unhandled storage error", "path", path, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Detail: "Internal database error occurred",
			Type:   TypeInternalError,
			Path:   path,
		})
		return
	}

	logger.Error("Unhandled exception", "path", path, "error", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Detail: "Internal server error",
		Type:   TypeInternalError,
		Path:   path,
	})
}

// Recovery converts panics into the generic internal-error response,
// logging the stack server-side.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("Panic recovered",
					"path", c.Request.URL.Path,
					"panic", fmt.Sprintf("%v", rec),
					"stack", string(debug.Stack()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Detail: "Internal server error",
					Type:   TypeInternalError,
					Path:   c.Request.URL.Path,
				})
			}
		}()
		c.Next()
	}
}
