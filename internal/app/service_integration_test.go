package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/quals/internal/adapters/repository"
	"github.com/okian/quals/internal/adapters/statsapi"
	service "github.com/okian/quals/internal/app"
	. "github.com/smartystreets/goconvey/convey"
)

// graphQLStub answers the three queries of the statistics client for an
// event of teams 1..n, where team i always scores 10*i points.
func graphQLStub(n int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		var data any
		switch {
		case strings.Contains(req.Query, "tournamentLevel"):
			data = map[string]any{"eventByCode": map[string]any{"matches": []any{}}}
		case strings.Contains(req.Query, "eventByCode"):
			teams := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				teams = append(teams, map[string]any{"team": map[string]any{"number": i}})
			}
			data = map[string]any{"eventByCode": map[string]any{"name": "Stub Event", "teams": teams}}
		default:
			num := int(req.Variables["number"].(float64))
			own := map[string]any{"totalPointsNp": 10 * num, "autoPoints": num, "dcPoints": 9 * num,
				"goalRp": num%2 == 0, "patternRp": true, "movementRp": false}
			opp := map[string]any{"totalPointsNp": 55, "autoPoints": 5, "dcPoints": 50,
				"goalRp": false, "patternRp": false, "movementRp": false}
			data = map[string]any{"teamByNumber": map[string]any{
				"number": num,
				"name":   "Team",
				"matches": []any{map[string]any{"match": map[string]any{
					"matchNum": 1,
					"teams":    []any{map[string]any{"teamNumber": num, "alliance": "Red"}},
					"scores":   map[string]any{"red": own, "blue": opp},
				}}},
				"events": []any{
					map[string]any{"event": map[string]any{"name": "A", "updatedAt": "2025-01-01"},
						"stats": map[string]any{"opr": map[string]any{"totalPointsNp": 2 * num}}},
					map[string]any{"event": map[string]any{"name": "B", "updatedAt": "2025-02-01"},
						"stats": map[string]any{"opr": map[string]any{"totalPointsNp": 3 * num}}},
				},
				"quickStats": map[string]any{"tot": map[string]any{"value": 2.5 * float64(num)}},
			}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	}
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service backed by the statistics client and a disk cache", t, func() {
		srv := httptest.NewServer(graphQLStub(10))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		dir := t.TempDir()
		store, err := repository.NewCacheStore(ctx, repository.WithDir(dir))
		So(err, ShouldBeNil)

		svc := service.New(
			service.WithFetcher(statsapi.NewClient(statsapi.WithURL(srv.URL), statsapi.WithRateLimit(1000))),
			service.WithStore(store),
			service.WithSeed(1),
			service.WithTrials(20),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When the event report is collected", func() {
			report, err := svc.Report(ctx, "STUB", 2025)

			Convey("Then every team is present, sorted by ranking score", func() {
				So(err, ShouldBeNil)
				So(report.Teams, ShouldHaveLength, 10)
				for i := 1; i < len(report.Teams); i++ {
					So(report.Teams[i-1].RankingScore, ShouldBeGreaterThanOrEqualTo, report.Teams[i].RankingScore)
				}
			})

			Convey("And the report survives a restart through the disk cache", func() {
				reloaded, err := repository.NewCacheStore(ctx, repository.WithDir(dir))
				So(err, ShouldBeNil)
				cached, ok := reloaded.Get(ctx, repository.Key("STUB", 2025))
				So(ok, ShouldBeTrue)
				So(cached.Teams, ShouldHaveLength, 10)
				So(cached.Teams[0].PredictedRating, ShouldNotEqual, 0)
			})
		})

		Convey("When a team is simulated end-to-end", func() {
			res, err := svc.Simulate(ctx, "STUB", 2025, 10)

			Convey("Then trials complete", func() {
				So(err, ShouldBeNil)
				So(res.Results.Completed, ShouldEqual, 20)
				So(res.Name, ShouldEqual, "Stub Event")
			})
		})

		Convey("When the event has no qualification matches yet", func() {
			_, err := svc.ImportSchedule(ctx, "STUB", 2025)

			Convey("Then the import reports not found", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
