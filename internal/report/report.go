// Package report summarizes workflow results for terminal output.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/todmy/doc-checker/pkg/models"
)

// Confidence levels shown next to each result
const (
	LevelHigh   = "Vysoká"
	LevelMedium = "Stredná"
	LevelLow    = "Nízka"
)

// Summary aggregates the results of one workflow run
type Summary struct {
	Results []models.WorkflowResult
	Overall float64
	Weakest float64
	// WeakestName names the result with the lowest confidence.
	WeakestName string
	// Spread is the population standard deviation of the confidences.
	Spread   float64
	Matches  int
	Problems int
}

// Summarize computes the mean, minimum and spread of confidence and counts outcomes.
func Summarize(results []models.WorkflowResult) Summary {
	s := Summary{Results: results}
	if len(results) == 0 {
		return s
	}

	conf := make([]float64, len(results))
	for i, r := range results {
		conf[i] = r.Confidence
		if r.NoteType == models.NoteMatch {
			s.Matches++
		} else {
			s.Problems++
		}
	}

	s.Overall = stat.Mean(conf, nil)
	weakest := floats.MinIdx(conf)
	s.Weakest = conf[weakest]
	s.WeakestName = results[weakest].Name
	s.Spread = stat.PopStdDev(conf, nil)
	return s
}

// Level buckets a confidence score
func Level(c float64) string {
	switch {
	case c >= 0.8:
		return LevelHigh
	case c >= 0.5:
		return LevelMedium
	default:
		return LevelLow
	}
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	nameStyle    = lipgloss.NewStyle().Bold(true)
	matchStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	problemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Render writes a styled report. Styles degrade to plain text when w is not a terminal.
func Render(w io.Writer, s Summary) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Kontrola dokumentov"))
	b.WriteString("\n\n")

	for _, r := range s.Results {
		note := matchStyle.Render(r.Note)
		if r.NoteType != models.NoteMatch {
			note = problemStyle.Render(r.Note)
		}
		fmt.Fprintf(&b, "%s: %s\n", nameStyle.Render(r.Name), r.Value)
		fmt.Fprintf(&b, "  Istota: %.0f %% (%s)\n", r.Confidence*100, Level(r.Confidence))
		fmt.Fprintf(&b, "  %s\n", note)
		if r.Details.FinalOutput != "" {
			fmt.Fprintf(&b, "  %s\n", dimStyle.Render(r.Details.FinalOutput))
		}
		b.WriteString("\n")
	}

	if len(s.Results) > 0 {
		fmt.Fprintf(&b, "Zhody: %d, problémy: %d\n", s.Matches, s.Problems)
		fmt.Fprintf(&b, "Celková istota: %.0f %% (%s), najnižšia: %.0f %% (%s)\n",
			s.Overall*100, Level(s.Overall), s.Weakest*100, s.WeakestName)
		fmt.Fprintf(&b, "Rozptyl istoty: %.0f %%\n", s.Spread*100)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
