package responses

import (
	"mime"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestFileContentDisposition(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, name := range []string{
		"MC_Cliente_Alpha_01-2026.xlsx",
		"MC_Energia_São_Paulo_01-2026.xlsx",
		`MC_"Aspas".xlsx`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/generate", nil)

			File(c, name, "application/octet-stream", []byte("data"))

			header := rec.Header().Get("Content-Disposition")
			for i := 0; i < len(header); i++ {
				if header[i] >= 0x80 {
					t.Fatalf("non-ASCII byte in %q", header)
				}
			}
			disposition, params, err := mime.ParseMediaType(header)
			if err != nil {
				t.Fatalf("ParseMediaType(%q): %v", header, err)
			}
			if disposition != "attachment" || params["filename"] != name {
				t.Errorf("got %s filename=%q, want attachment filename=%q", disposition, params["filename"], name)
			}
			if rec.Body.String() != "data" {
				t.Errorf("body = %q", rec.Body.String())
			}
		})
	}
}
