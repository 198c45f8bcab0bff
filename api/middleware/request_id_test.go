package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/farmfresh/farmfresh-backend/pkg/logger"
)

func TestRequestIDHeader(t *testing.T) {
	cases := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "generated when absent", incoming: "", keep: false},
		{name: "client id kept", incoming: "mobile-7f3a:checkout.2", keep: true},
		{name: "newline replaced", incoming: "abc\n{\"level\":\"error\"}", keep: false},
		{name: "overlong replaced", incoming: strings.Repeat("a", maxRequestIDLen+1), keep: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := RequestID(logger.Nop())(okHandler())
			req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
			if tc.incoming != "" {
				req.Header.Set(requestIDHeader, tc.incoming)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			got := rec.Header().Get(requestIDHeader)
			if tc.keep {
				if got != tc.incoming {
					t.Fatalf("expected %q to be echoed, got %q", tc.incoming, got)
				}
				return
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Fatalf("expected a generated uuid, got %q", got)
			}
		})
	}
}
