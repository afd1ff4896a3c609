package server

import (
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/zstd"
)

// Point payloads run to several megabytes at high zoom; zstd keeps them
// small without costing much CPU.
var encoders = sync.Pool{
	New: func() any {
		enc, err := zstd.NewWriter(nil,
			zstd.WithEncoderConcurrency(1),
			zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			panic(err)
		}
		return enc
	},
}

type zstdWriter struct {
	gin.ResponseWriter
	enc *zstd.Encoder
}

func (w *zstdWriter) Write(b []byte) (int, error) {
	return w.enc.Write(b)
}

func (w *zstdWriter) WriteString(s string) (int, error) {
	return w.enc.Write([]byte(s))
}

// compressZstd encodes the response body when the client accepts zstd.
func compressZstd() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.Contains(c.GetHeader("Accept-Encoding"), "zstd") {
			c.Next()
			return
		}

		enc := encoders.Get().(*zstd.Encoder)
		enc.Reset(c.Writer)

		h := c.Writer.Header()
		h.Set("Content-Encoding", "zstd")
		h.Add("Vary", "Accept-Encoding")
		h.Del("Content-Length")

		orig := c.Writer
		c.Writer = &zstdWriter{ResponseWriter: orig, enc: enc}
		defer func() {
			enc.Close()
			c.Writer = orig
			enc.Reset(nil)
			encoders.Put(enc)
		}()

		c.Next()
	}
}
