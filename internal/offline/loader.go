package offline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/quals/internal/domain/model"
)

// Sentinel errors for input files.
var (
	ErrInvalidInput = errors.New("invalid input file")
)

// LoadInput reads a metrics file. JSON is accepted as a subset of YAML.
func LoadInput(path string) (model.EventReport, []model.Match, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return model.EventReport{}, nil, fmt.Errorf("%w: %s: %w", ErrInvalidInput, path, err)
	}
	var in inputFile
	if err := k.UnmarshalWithConf("", &in, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return model.EventReport{}, nil, fmt.Errorf("%w: %s: %w", ErrInvalidInput, path, err)
	}
	return in.convert()
}

func (in inputFile) convert() (model.EventReport, []model.Match, error) {
	if len(in.Teams) == 0 {
		return model.EventReport{}, nil, fmt.Errorf("%w: no teams", ErrInvalidInput)
	}
	code := strings.TrimSpace(in.Event)
	if code == "" {
		code = "LOCAL"
	}
	name := in.Name
	if name == "" {
		name = "Event " + code
	}
	report := model.EventReport{Code: code, Name: name, Season: in.Season, Teams: in.Teams}
	if _, err := report.Table(); err != nil {
		return model.EventReport{}, nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	matches := make([]model.Match, 0, len(in.Schedule))
	for i, e := range in.Schedule {
		if len(e.Red) != 2 || len(e.Blue) != 2 {
			return model.EventReport{}, nil, fmt.Errorf("%w: schedule entry %d needs two teams per alliance", ErrInvalidInput, i+1)
		}
		number := e.Match
		if number == 0 {
			number = i + 1
		}
		matches = append(matches, model.Match{
			Number: number,
			Red:    [2]int{e.Red[0], e.Red[1]},
			Blue:   [2]int{e.Blue[0], e.Blue[1]},
		})
	}
	return report, matches, nil
}
