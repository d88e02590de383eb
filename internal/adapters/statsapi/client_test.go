package statsapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/quals/internal/adapters/statsapi"
	"github.com/okian/quals/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type gqlBody struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

const eventJSON = `{"data":{"eventByCode":{"name":"Bucharest Qualifier","teams":[
  {"team":{"number":100}},{"team":{"number":200}},{"team":{"number":300}}]}}}`

const matchesJSON = `{"data":{"eventByCode":{"matches":[
  {"matchNum":1,"tournamentLevel":"Quals","teams":[
    {"teamNumber":100,"alliance":"Red"},{"teamNumber":200,"alliance":"Red"},
    {"teamNumber":300,"alliance":"Blue"},{"teamNumber":400,"alliance":"Blue"}]},
  {"matchNum":2,"tournamentLevel":"DoubleElim","teams":[
    {"teamNumber":100,"alliance":"Red"},{"teamNumber":300,"alliance":"Red"},
    {"teamNumber":200,"alliance":"Blue"},{"teamNumber":400,"alliance":"Blue"}]}]}}}`

// team100 played two matches: one win with two RPs and one loss with none.
const team100JSON = `{"data":{"teamByNumber":{"number":100,"name":"Robo Lions",
  "matches":[
    {"match":{"matchNum":1,"teams":[{"teamNumber":100,"alliance":"Red"},{"teamNumber":300,"alliance":"Blue"}],
      "scores":{"red":{"totalPointsNp":80,"autoPoints":20,"dcPoints":60,"goalRp":true,"patternRp":true,"movementRp":false},
                "blue":{"totalPointsNp":50,"autoPoints":10,"dcPoints":40,"goalRp":false,"patternRp":false,"movementRp":false}}}},
    {"match":{"matchNum":2,"teams":[{"teamNumber":100,"alliance":"Blue"},{"teamNumber":300,"alliance":"Red"}],
      "scores":{"red":{"totalPointsNp":90,"autoPoints":30,"dcPoints":60,"goalRp":true,"patternRp":false,"movementRp":false},
                "blue":{"totalPointsNp":40,"autoPoints":10,"dcPoints":30,"goalRp":false,"patternRp":false,"movementRp":false}}}},
    {"match":{"matchNum":3,"teams":[{"teamNumber":100,"alliance":"Red"}],"scores":null}}],
  "events":[
    {"event":{"name":"Second","updatedAt":"2025-02-01T00:00:00Z"},"stats":{"opr":{"totalPointsNp":41.26}}},
    {"event":{"name":"First","updatedAt":"2025-01-01T00:00:00Z"},"stats":{"opr":{"totalPointsNp":30.04}}},
    {"event":{"name":"Empty","updatedAt":"2025-03-01T00:00:00Z"},"stats":null}],
  "quickStats":{"tot":{"value":45.678}}}}}`

const team200JSON = `{"data":{"teamByNumber":{"number":200,"name":"Gears",
  "matches":[
    {"match":{"matchNum":1,"teams":[{"teamNumber":200,"alliance":"Red"}],
      "scores":{"red":{"totalPointsNp":100,"autoPoints":40,"dcPoints":60,"goalRp":true,"patternRp":true,"movementRp":true},
                "blue":{"totalPointsNp":20,"autoPoints":5,"dcPoints":15,"goalRp":false,"patternRp":false,"movementRp":false}}}}],
  "events":[],"quickStats":null}}}`

const team300JSON = `{"data":{"teamByNumber":{"number":300,"name":"Rookies","matches":[],"events":[],"quickStats":null}}}`

type fakeAPI struct {
	failures atomic.Int32
	calls    atomic.Int32
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	if f.failures.Load() > 0 {
		f.failures.Add(-1)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	var body gqlBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.Contains(body.Query, "tournamentLevel"):
		if body.Variables["code"] == "EMPTY" {
			_, _ = w.Write([]byte(`{"data":{"eventByCode":{"matches":[]}}}`))
			return
		}
		_, _ = w.Write([]byte(matchesJSON))
	case strings.Contains(body.Query, "eventByCode"):
		if body.Variables["code"] == "NOPE" {
			_, _ = w.Write([]byte(`{"data":{"eventByCode":null}}`))
			return
		}
		_, _ = w.Write([]byte(eventJSON))
	case strings.Contains(body.Query, "teamByNumber"):
		switch body.Variables["number"] {
		case float64(100):
			_, _ = w.Write([]byte(team100JSON))
		case float64(200):
			_, _ = w.Write([]byte(team200JSON))
		default:
			_, _ = w.Write([]byte(team300JSON))
		}
	default:
		_, _ = w.Write([]byte(`{"errors":[{"message":"unknown query"}]}`))
	}
}

func newClient(url string) *statsapi.Client {
	return statsapi.NewClient(
		statsapi.WithURL(url),
		statsapi.WithRetryMax(2),
		statsapi.WithRetryWait(time.Millisecond, 2*time.Millisecond),
		statsapi.WithRateLimit(1000),
		statsapi.WithConcurrency(2),
	)
}

func TestTeamMetrics(t *testing.T) {
	Convey("Given a statistics API", t, func() {
		api := &fakeAPI{}
		srv := httptest.NewServer(api)
		defer srv.Close()
		client := newClient(srv.URL)

		Convey("When fetching a team with scored matches", func() {
			tm, err := client.TeamMetrics(context.Background(), 100, 2025)

			Convey("Then per-match averages are computed", func() {
				So(err, ShouldBeNil)
				So(tm.ID, ShouldEqual, 100)
				So(tm.Name, ShouldEqual, "Robo Lions")
				So(tm.MatchesPlayed, ShouldEqual, 2)
				So(tm.NetPoints, ShouldEqual, 60.0)
				So(tm.AutoPoints, ShouldEqual, 15.0)
				So(tm.DriverPoints, ShouldEqual, 45.0)
				// 2 RPs + win bonus, then nothing on the loss.
				So(tm.RankingScore, ShouldEqual, 2.5)
				So(tm.GoalRate, ShouldEqual, 0.5)
				So(tm.PatternRate, ShouldEqual, 0.5)
				So(tm.MovementRate, ShouldEqual, 0.0)
			})

			Convey("Then history is ordered by event update time", func() {
				So(tm.RatingHistory, ShouldResemble, []float64{30.0, 41.3})
				So(tm.Rating, ShouldEqual, 45.68)
			})
		})

		Convey("When the team has no scored matches", func() {
			_, err := client.TeamMetrics(context.Background(), 300, 2025)

			Convey("Then ErrNoMatches is returned", func() {
				So(errors.Is(err, statsapi.ErrNoMatches), ShouldBeTrue)
			})
		})

		Convey("When the API fails transiently", func() {
			api.failures.Store(2)
			tm, err := client.TeamMetrics(context.Background(), 200, 2025)

			Convey("Then the request is retried", func() {
				So(err, ShouldBeNil)
				So(tm.RankingScore, ShouldEqual, 6.0)
				So(api.calls.Load(), ShouldEqual, 3)
			})
		})

		Convey("When the API keeps failing", func() {
			api.failures.Store(10)
			_, err := client.TeamMetrics(context.Background(), 200, 2025)

			Convey("Then ErrUpstream is returned", func() {
				So(errors.Is(err, statsapi.ErrUpstream), ShouldBeTrue)
			})
		})
	})
}

func TestEventReport(t *testing.T) {
	Convey("Given a statistics API", t, func() {
		srv := httptest.NewServer(&fakeAPI{})
		defer srv.Close()
		client := newClient(srv.URL)

		Convey("When collecting an event report", func() {
			report, err := client.EventReport(context.Background(), "ROBUQ", 2025)

			Convey("Then teams without matches are skipped and rows are sorted", func() {
				So(err, ShouldBeNil)
				So(report.Name, ShouldEqual, "Bucharest Qualifier")
				So(report.Code, ShouldEqual, "ROBUQ")
				So(report.Season, ShouldEqual, 2025)
				So(report.Teams, ShouldHaveLength, 2)
				So(report.Teams[0].ID, ShouldEqual, 200)
				So(report.Teams[1].ID, ShouldEqual, 100)
				_, err := report.Table()
				So(err, ShouldBeNil)
			})
		})

		Convey("When the event does not exist", func() {
			_, err := client.EventReport(context.Background(), "NOPE", 2025)

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, statsapi.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the context is canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := client.EventReport(ctx, "ROBUQ", 2025)

			Convey("Then the request fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestQualsSchedule(t *testing.T) {
	Convey("Given a statistics API", t, func() {
		srv := httptest.NewServer(&fakeAPI{})
		defer srv.Close()
		client := newClient(srv.URL)

		Convey("When importing the real schedule", func() {
			matches, err := client.QualsSchedule(context.Background(), "ROBUQ", 2025)

			Convey("Then only qualification matches are kept", func() {
				So(err, ShouldBeNil)
				So(matches, ShouldResemble, []model.Match{{Number: 1, Red: [2]int{100, 200}, Blue: [2]int{300, 400}}})
			})
		})

		Convey("When the event has no qualification matches", func() {
			_, err := client.QualsSchedule(context.Background(), "EMPTY", 2025)

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, statsapi.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestFromMatches(t *testing.T) {
	Convey("Given raw matches", t, func() {
		var raw []statsapi.Match
		So(json.Unmarshal([]byte(`[
		  {"matchNum":4,"tournamentLevel":"QUALS","teams":[
		    {"teamNumber":1,"alliance":"Red"},{"teamNumber":2,"alliance":"Red"},
		    {"teamNumber":3,"alliance":"Blue"},{"teamNumber":4,"alliance":"Blue"}]},
		  {"matchNum":5,"tournamentLevel":"Quals","teams":[
		    {"teamNumber":1,"alliance":"Red"},{"teamNumber":3,"alliance":"Blue"},{"teamNumber":4,"alliance":"Blue"}]}
		]`), &raw), ShouldBeNil)

		Convey("Then incomplete alliances are dropped", func() {
			out := statsapi.FromMatches(raw)
			So(out, ShouldHaveLength, 1)
			So(out[0].Number, ShouldEqual, 4)
			So(out[0].Blue, ShouldResemble, [2]int{3, 4})
		})
	})
}
