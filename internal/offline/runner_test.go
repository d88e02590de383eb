package offline_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/quals/internal/domain/model"
	"github.com/okian/quals/internal/offline"
	"github.com/okian/quals/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
	_ = logger.SetLevelString("error")
}

// eventYAML renders an event of n teams where team i has rating 10*i.
func eventYAML(n int, withSchedule bool) string {
	var b strings.Builder
	b.WriteString("event: TEST\nevent_name: Test Qualifier\nseason: 2025\nteams:\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "  - team: %d\n    name: Team %d\n    opr_season: %d\n    net_points: %d\n"+
			"    auto_points: %d\n    ranking_score: 2.5\n    goal_rp_rate: 0.5\n    pattern_rp_rate: 0.25\n"+
			"    movement_rp_rate: 1\n    opr_history: [%d, %d]\n",
			i, i, 10*i, 12*i, 2*i, 5*i, 10*i)
	}
	if withSchedule {
		b.WriteString("schedule:\n  - {match: 1, red: [1, 2], blue: [3, 4]}\n  - {match: 2, red: [5, 6], blue: [7, 8]}\n")
	}
	return b.String()
}

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadInput(t *testing.T) {
	Convey("Given metrics files", t, func() {
		Convey("When a YAML file with a schedule is loaded", func() {
			report, matches, err := offline.LoadInput(writeFile(t, "event.yaml", eventYAML(8, true)))

			Convey("Then teams and matches are decoded", func() {
				So(err, ShouldBeNil)
				So(report.Code, ShouldEqual, "TEST")
				So(report.Name, ShouldEqual, "Test Qualifier")
				So(report.Teams, ShouldHaveLength, 8)
				So(report.Teams[2].Rating, ShouldEqual, 30.0)
				So(report.Teams[2].GoalRate, ShouldEqual, 0.5)
				So(report.Teams[2].RatingHistory, ShouldResemble, []float64{15, 30})
				So(matches, ShouldHaveLength, 2)
				So(matches[1].Blue, ShouldEqual, [2]int{7, 8})
			})
		})

		Convey("When a JSON file is loaded", func() {
			content := `{"teams":[{"team":1},{"team":2},{"team":3},{"team":4}]}`
			report, matches, err := offline.LoadInput(writeFile(t, "event.json", content))

			Convey("Then defaults fill the event identity", func() {
				So(err, ShouldBeNil)
				So(report.Code, ShouldEqual, "LOCAL")
				So(report.Name, ShouldEqual, "Event LOCAL")
				So(report.Teams, ShouldHaveLength, 4)
				So(matches, ShouldBeEmpty)
			})
		})

		Convey("When the file has no teams", func() {
			_, _, err := offline.LoadInput(writeFile(t, "empty.yaml", "event: X\n"))

			Convey("Then it is rejected", func() {
				So(errors.Is(err, offline.ErrInvalidInput), ShouldBeTrue)
			})
		})

		Convey("When a team appears twice", func() {
			_, _, err := offline.LoadInput(writeFile(t, "dup.yaml", "teams:\n  - team: 1\n  - team: 1\n"))

			Convey("Then it is rejected", func() {
				So(errors.Is(err, offline.ErrInvalidInput), ShouldBeTrue)
			})
		})

		Convey("When a rating is not a number", func() {
			_, _, err := offline.LoadInput(writeFile(t, "nan.yaml", "teams:\n  - team: 1\n    opr_season: .nan\n"))

			Convey("Then it is rejected", func() {
				So(errors.Is(err, offline.ErrInvalidInput), ShouldBeTrue)
				So(errors.Is(err, model.ErrInvalidMetric), ShouldBeTrue)
			})
		})

		Convey("When a schedule entry is short", func() {
			_, _, err := offline.LoadInput(writeFile(t, "short.yaml", eventYAML(4, false)+"schedule:\n  - {red: [1], blue: [3, 4]}\n"))

			Convey("Then it is rejected", func() {
				So(errors.Is(err, offline.ErrInvalidInput), ShouldBeTrue)
			})
		})

		Convey("When the file does not exist", func() {
			_, _, err := offline.LoadInput(filepath.Join(t.TempDir(), "missing.yaml"))

			Convey("Then it is rejected", func() {
				So(errors.Is(err, offline.ErrInvalidInput), ShouldBeTrue)
			})
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given an event of 12 teams on disk", t, func() {
		ctx := context.Background()
		input := writeFile(t, "event.yaml", eventYAML(12, true))
		cfg := &offline.Config{
			Input:          input,
			MatchesPerTeam: 6,
			Trials:         20,
			Workers:        2,
			Seed:           5,
			Alpha:          0.5,
		}

		Convey("When a single team is forecast", func() {
			cfg.Team = 12
			res, err := offline.Run(ctx, cfg)

			Convey("Then every stage produced output", func() {
				So(err, ShouldBeNil)
				So(res.Event.Name, ShouldEqual, "Test Qualifier")
				So(res.Schedule.MatchesCount, ShouldEqual, 18)
				So(res.Predictions.Count, ShouldEqual, 18)
				So(res.Ranking.TeamsCount, ShouldEqual, 12)
				So(res.Stats.RedWins+res.Stats.BlueWins+res.Stats.Ties, ShouldEqual, 18)
				So(res.Simulation, ShouldNotBeNil)
				So(res.Simulation.Results.Completed, ShouldEqual, 20)
				So(res.Comparison, ShouldBeNil)
			})
		})

		Convey("When two teams are compared", func() {
			cfg.Team, cfg.Against = 12, 1
			res, err := offline.Run(ctx, cfg)

			Convey("Then the stronger team is better", func() {
				So(err, ShouldBeNil)
				So(res.Comparison, ShouldNotBeNil)
				So(res.Comparison.Results.Better, ShouldEqual, 12)
			})
		})

		Convey("When the file schedule is played", func() {
			cfg.UseSchedule = true
			res, err := offline.Run(ctx, cfg)

			Convey("Then the real matches are used", func() {
				So(err, ShouldBeNil)
				So(res.Schedule.IsReal, ShouldBeTrue)
				So(res.Schedule.MatchesCount, ShouldEqual, 2)
				So(res.Predictions.Count, ShouldEqual, 2)
			})
		})

		Convey("When the forecast team is not in the event", func() {
			cfg.Team = 99
			_, err := offline.Run(ctx, cfg)

			Convey("Then the run fails", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When the result is written", func() {
			res, err := offline.Run(ctx, cfg)
			So(err, ShouldBeNil)

			var buf bytes.Buffer
			So(offline.Write(ctx, &buf, "", res), ShouldBeNil)
			out := filepath.Join(t.TempDir(), "nested", "result.json")
			So(offline.Write(ctx, nil, out, res), ShouldBeNil)

			Convey("Then both outputs hold the same JSON document", func() {
				data, err := os.ReadFile(out)
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, buf.String())

				var decoded map[string]any
				So(json.Unmarshal(data, &decoded), ShouldBeNil)
				So(decoded, ShouldContainKey, "ranking")
				So(decoded, ShouldNotContainKey, "simulation")
			})
		})
	})
}

func TestRun_WithoutSchedule(t *testing.T) {
	Convey("Given an event file without a schedule", t, func() {
		cfg := &offline.Config{
			Input:       writeFile(t, "event.yaml", eventYAML(6, false)),
			UseSchedule: true,
		}

		Convey("When its schedule is requested", func() {
			_, err := offline.Run(context.Background(), cfg)

			Convey("Then the run is rejected", func() {
				So(errors.Is(err, offline.ErrInvalidInput), ShouldBeTrue)
			})
		})
	})
}
