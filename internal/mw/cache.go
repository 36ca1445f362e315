package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// historyEntry is one stored history answer. History endpoints only answer
// JSON, so the content type is the only header worth replaying.
type historyEntry struct {
	contentType string
	body        []byte
}

// recorder tees the handler's output so a successful answer can be stored.
type recorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (r *recorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *recorder) WriteString(s string) (int, error) {
	r.buf.WriteString(s)
	return r.ResponseWriter.WriteString(s)
}

// ResponseCache serves repeated history reads from entries for ttl. Entries
// are keyed by path and query, so every limit is stored separately. Only 200
// answers are kept; a hit carries X-Cache: HIT.
func ResponseCache(entries *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.URL.RequestURI()
		if v, ok := entries.Get(key); ok {
			e := v.(historyEntry)
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, e.contentType, e.body)
			c.Abort()
			return
		}

		rec := &recorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		if rec.Status() != http.StatusOK {
			return
		}
		entries.Set(key, historyEntry{
			contentType: rec.Header().Get("Content-Type"),
			body:        bytes.Clone(rec.buf.Bytes()),
		}, ttl)
	}
}
