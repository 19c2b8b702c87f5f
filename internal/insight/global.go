package insight

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/rewired-gh/pollsight/internal/models"
	"github.com/rewired-gh/pollsight/internal/stats"
)

var defaultGenerator Generator

// Global returns up to three statements about the poll as a whole using the
// default thresholds.
func Global(poll *models.Poll, s models.Stats) []models.Insight {
	return defaultGenerator.Global(poll, s)
}

// Global returns statements about the poll as a whole. Small samples produce a
// single participation prompt instead of figures.
func (g *Generator) Global(poll *models.Poll, s models.Stats) []models.Insight {
	if s.Count < g.globalMin() {
		return []models.Insight{global(
			fmt.Sprintf("Only %d responses so far — be among the first to answer!", s.Count),
			models.IconRocket, models.ColorBlue,
		)}
	}

	var out []models.Insight
	switch poll.Type {
	case models.PollTypeBoolean:
		out = append(out, booleanGlobal(s.Distribution)...)
	case models.PollTypeChoice:
		out = append(out, choiceGlobal(s)...)
	case models.PollTypeNumeric, models.PollTypeSlider:
		if s.Mean != nil {
			out = append(out, global(
				fmt.Sprintf("The average response was %s.", formatNumber(*s.Mean)),
				models.IconChart, models.ColorBlue,
			))
		}
		if s.Median != nil {
			out = append(out, global(
				fmt.Sprintf("Half of respondents answered %s or lower.", formatNumber(*s.Median)),
				models.IconUp, models.ColorPurple,
			))
		}
	}

	if s.Count >= 100 {
		rounded := int64(s.Count / 100 * 100)
		out = append(out, global(
			fmt.Sprintf("Over %s people have shared their thoughts.", humanize.Comma(rounded)),
			models.IconPeople, models.ColorIndigo,
		))
	}

	if out == nil {
		out = []models.Insight{}
	}
	return g.limit(out)
}

func booleanGlobal(d models.Distribution) []models.Insight {
	yesIdx, noIdx := -1, -1
	for i, label := range d.Labels {
		switch {
		case yesIdx < 0 && strings.EqualFold(label, stats.LabelYes):
			yesIdx = i
		case noIdx < 0 && strings.EqualFold(label, stats.LabelNo):
			noIdx = i
		}
	}
	if yesIdx < 0 || noIdx < 0 || yesIdx >= len(d.Values) || noIdx >= len(d.Values) {
		return nil
	}

	yes, no := d.Values[yesIdx], d.Values[noIdx]
	if yes+no == 0 {
		return nil
	}
	yesPct := stats.Percent(yes, yes+no)
	noPct := 100 - yesPct

	majority, majorityPct := stats.LabelYes, yesPct
	minority, minorityPct := stats.LabelNo, noPct
	icon, color := models.IconCheck, models.ColorGreen
	if yesPct < 50 {
		majority, majorityPct = stats.LabelNo, noPct
		minority, minorityPct = stats.LabelYes, yesPct
		icon, color = models.IconCross, models.ColorRed
	}

	out := []models.Insight{global(
		fmt.Sprintf("%d%% of all respondents said \"%s\".", majorityPct, majority),
		icon, color,
	)}
	if minorityPct > 0 {
		out = append(out, global(
			fmt.Sprintf("\"%s\" was chosen by %d%% of respondents.", minority, minorityPct),
			models.IconChart, models.ColorGray,
		))
	}
	return out
}

func choiceGlobal(s models.Stats) []models.Insight {
	d := s.Distribution
	i := stats.ModeIndex(d)
	if i < 0 {
		return nil
	}
	top, topPct := d.Labels[i], stats.Percent(d.Values[i], s.Count)

	out := []models.Insight{global(
		fmt.Sprintf("\"%s\" was the most popular choice (%d%%).", top, topPct),
		models.IconTrophy, models.ColorYellow,
	)}

	if len(d.Values) > 2 {
		least, count, _ := stats.LeastFirstMin(d)
		if pct := stats.Percent(count, s.Count); pct > 0 {
			out = append(out, global(
				fmt.Sprintf("\"%s\" was the least selected option (%d%%).", least, pct),
				models.IconDown, models.ColorGray,
			))
		}
	}
	return out
}
