package insight

import (
	"fmt"

	"github.com/rewired-gh/pollsight/internal/models"
	"github.com/rewired-gh/pollsight/internal/stats"
)

// Personalized compares one user's answer with the population summarized in
// s. A missing answer yields no statements. When demo is complete, the
// headline is followed by age and gender comparisons; otherwise by the most
// popular answer and a minority/majority framing.
func (g *Generator) Personalized(poll *models.Poll, s models.Stats, value models.Value, demo *models.Demographics) []models.Insight {
	if value.IsNone() {
		return []models.Insight{}
	}

	if s.Count < g.personalMin() {
		return []models.Insight{personal(
			fmt.Sprintf("You're among the first %d people to answer this question!", s.Count),
			models.IconStar, models.ColorYellow, false,
		)}
	}

	answer := stats.Locate(poll, s, value)

	var out []models.Insight
	if demo.IsComplete() {
		color := models.ColorBlue
		if answer.Percent > 50 {
			color = models.ColorGreen
		}
		out = append(out,
			personal(
				fmt.Sprintf("You're in the %d%% who answered \"%s\".", answer.Percent, answer.Label),
				models.IconTarget, color, true,
			),
			AgeGroupInsight(g.estimator(), demo.AgeRange, answer.Percent),
			GenderInsight(g.estimator(), demo.Gender, answer.Percent),
		)
		return g.limit(out)
	}

	out = append(out, personal(
		fmt.Sprintf("You answered \"%s\". So did %d%% of respondents.", answer.Label, answer.Percent),
		models.IconChart, models.ColorBlue, true,
	))

	if i := stats.ModeIndex(s.Distribution); i >= 0 && s.Distribution.Labels[i] != answer.Label {
		top, pct := s.Distribution.Labels[i], stats.Percent(s.Distribution.Values[i], s.Count)
		out = append(out, personal(
			fmt.Sprintf("The most popular answer was \"%s\" (%d%%).", top, pct),
			models.IconTrophy, models.ColorYellow, true,
		))
	}

	switch {
	case answer.Percent < 25:
		out = append(out, personal(
			fmt.Sprintf("You're in the minority — only %d%% answered like you.", answer.Percent),
			models.IconGem, models.ColorPurple, true,
		))
	case answer.Percent > 75:
		out = append(out, personal(
			fmt.Sprintf("You're with the majority — %d%% of people agree with you.", answer.Percent),
			models.IconPeople, models.ColorGreen, true,
		))
	}

	return g.limit(out)
}

// AgeGroupInsight compares the user with their age band.
func AgeGroupInsight(est SubgroupEstimator, ageRange string, userPct int) models.Insight {
	pct := est.EstimateSubgroupShare(models.AxisAgeRange, ageRange, userPct)
	return personal(
		fmt.Sprintf("Among people aged %s, %d%% chose the same answer.", ageRange, pct),
		models.IconAge, models.ColorIndigo, true,
	)
}

// GenderInsight compares the user with their gender group.
func GenderInsight(est SubgroupEstimator, gender string, userPct int) models.Insight {
	pct := est.EstimateSubgroupShare(models.AxisGender, gender, userPct)

	label, icon := "women", models.IconPerson
	switch gender {
	case "male":
		label, icon = "men", models.IconMale
	case "female":
		icon = models.IconFemale
	case "non-binary":
		label = "non-binary people"
	case "prefer-not-to-say":
		label = "people who prefer not to say"
	}

	return personal(
		fmt.Sprintf("Among %s, %d%% gave the same response.", label, pct),
		icon, models.ColorPink, true,
	)
}

// RegionInsight compares the user with their region. It is not part of the
// default Personalized output.
func RegionInsight(est SubgroupEstimator, region string, userPct int) models.Insight {
	pct := est.EstimateSubgroupShare(models.AxisRegion, region, userPct)
	return personal(
		fmt.Sprintf("People from %s were %d%% more likely to agree with you.", region, pct),
		models.IconGlobe, models.ColorEmerald, true,
	)
}
