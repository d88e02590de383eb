package offline

import (
	"time"

	service "github.com/okian/quals/internal/app"
	"github.com/okian/quals/internal/domain/model"
)

// Config holds the settings of one offline forecast run.
type Config struct {
	Input          string        // metrics file (YAML or JSON)
	Output         string        // result file; stdout when empty
	Team           int           // team to forecast; 0 skips the simulation
	Against        int           // second team for a comparison; 0 skips it
	MatchesPerTeam int           // practice schedule length per team
	Trials         int           // Monte Carlo trials
	Workers        int           // trial goroutines
	Seed           int64         // 0 seeds from the clock
	Alpha          float64       // trend recency decay
	UseSchedule    bool          // play the schedule from the input file
	Timeout        time.Duration // bound on the whole run
}

// inputFile is the on-disk layout of a metrics file.
type inputFile struct {
	Event    string              `yaml:"event"`
	Name     string              `yaml:"event_name"`
	Season   int                 `yaml:"season"`
	Teams    []model.TeamMetrics `yaml:"teams"`
	Schedule []scheduleEntry     `yaml:"schedule"`
}

type scheduleEntry struct {
	Match int   `yaml:"match"`
	Red   []int `yaml:"red"`
	Blue  []int `yaml:"blue"`
}

// Result is everything one run produced.
type Result struct {
	Event       service.EventInfo         `json:"event"`
	Schedule    service.ScheduleResult    `json:"schedule"`
	Predictions service.PredictionResult  `json:"predictions"`
	Ranking     service.RankingResult     `json:"ranking"`
	Simulation  *service.SimulationResult `json:"simulation,omitempty"`
	Comparison  *service.ComparisonResult `json:"comparison,omitempty"`
	Stats       Stats                     `json:"stats"`
}

// Stats holds run statistics.
type Stats struct {
	Teams              int           `json:"teams"`
	Matches            int           `json:"matches"`
	DuplicateAlliances int           `json:"duplicate_alliances"`
	RedWins            int           `json:"red_wins"`
	BlueWins           int           `json:"blue_wins"`
	Ties               int           `json:"ties"`
	StartTime          time.Time     `json:"start_time"`
	EndTime            time.Time     `json:"end_time"`
	Duration           time.Duration `json:"duration_ns"`
}
