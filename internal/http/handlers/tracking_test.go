package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"server/internal/middleware"
	"server/internal/sqlinline"
)

func TestTrackClickRecordsEvent(t *testing.T) {
	sql := &fakeSQL{}
	app := &App{Logger: zerolog.Nop(), SQL: sql}

	req := httptest.NewRequest(http.MethodPost, "/v1/track/click", strings.NewReader(`{"productId":"p1","referrer":"https://social.example"}`))
	rr := httptest.NewRecorder()
	app.TrackClick(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if sql.execCount() != 1 || sql.execLog[0].query != sqlinline.QInsertClickEvent {
		t.Fatal("click event not recorded")
	}
}

func TestTrackClickCarriesResolvedCountry(t *testing.T) {
	sql := &fakeSQL{}
	app := &App{Logger: zerolog.Nop(), SQL: sql}

	handler := middleware.Geo(nil)(http.HandlerFunc(app.TrackClick))
	req := httptest.NewRequest(http.MethodPost, "/v1/track/click", strings.NewReader(`{"productId":"p1"}`))
	req.Header.Set("CF-IPCountry", "de")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if sql.execCount() != 1 {
		t.Fatal("click event not recorded")
	}
	if got := sql.execLog[0].args[1]; got != "DE" {
		t.Fatalf("expected uppercased country DE, got %v", got)
	}
}

func TestTrackClickNeverFails(t *testing.T) {
	sql := &fakeSQL{execErr: errDatabaseDown}
	app := &App{Logger: zerolog.Nop(), SQL: sql}

	cases := []string{
		`{"productId":"p1"}`,
		`{not json`,
		`{}`,
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/v1/track/click", strings.NewReader(body))
		rr := httptest.NewRecorder()
		app.TrackClick(rr, req)
		if rr.Code != http.StatusNoContent {
			t.Fatalf("body %q: tracking must answer 204, got %d", body, rr.Code)
		}
	}
}

func TestTrackViewRecordsEvent(t *testing.T) {
	sql := &fakeSQL{}
	app := &App{Logger: zerolog.Nop(), SQL: sql}

	req := httptest.NewRequest(http.MethodPost, "/v1/track/view", strings.NewReader(`{"profileUserId":"user-1"}`))
	rr := httptest.NewRecorder()
	app.TrackView(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if sql.execCount() != 1 || sql.execLog[0].query != sqlinline.QInsertProfileView {
		t.Fatal("view event not recorded")
	}
}
