package weather

import (
	"sort"
	"strings"

	"github.com/unithq/cqhub-go/internal/models"
)

// A missing type match still passes when the precipitation probability is
// already above this threshold.
const probabilityImpliesPrecip = 30.0

// Precipitation type aliases: a rule asking for "rain" should also match a
// drizzle report, and "snow" should match sleet.
var precipAliases = map[string][]string{
	"rain": {"drizzle"},
	"snow": {"sleet"},
}

// FindMatchingRule scans enabled rules in ascending priority order and
// returns the first rule whose every present condition is satisfied by the
// snapshot. Returns nil when nothing matches; the caller falls back to the
// configured default uniform.
func FindMatchingRule(rules []models.WeatherRule, snap models.WeatherSnapshot) *models.WeatherRule {
	enabled := make([]models.WeatherRule, 0, len(rules))
	for _, r := range rules {
		if r.Enabled {
			enabled = append(enabled, r)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].Priority < enabled[j].Priority
	})

	for i := range enabled {
		if ruleMatches(&enabled[i], snap) {
			return &enabled[i]
		}
	}
	return nil
}

func ruleMatches(rule *models.WeatherRule, snap models.WeatherSnapshot) bool {
	c := rule.Conditions
	if c == nil {
		// A rule with no conditions matches any snapshot.
		return true
	}

	if !InRange(snap.Temperature, c.Temperature) {
		return false
	}
	if !InRange(snap.Humidity, c.Humidity) {
		return false
	}
	if !InRange(snap.WindSpeed, c.WindSpeed) {
		return false
	}
	if !InRange(snap.UVIndex, c.UVIndex) {
		return false
	}
	if c.Precipitation != nil && !precipMatches(c.Precipitation, snap) {
		return false
	}
	return true
}

// InRange checks an inclusive range. An unreported value ("unknown") always
// passes, as does a nil range.
func InRange(value *float64, r *models.FloatRange) bool {
	if value == nil || r == nil {
		return true
	}
	if r.Min != nil && *value < *r.Min {
		return false
	}
	if r.Max != nil && *value > *r.Max {
		return false
	}
	return true
}

func precipMatches(cond *models.PrecipitationCondition, snap models.WeatherSnapshot) bool {
	if len(cond.Types) > 0 {
		typeMatch := false
		for _, t := range cond.Types {
			if conditionMatchesType(snap.WeatherMain, t) {
				typeMatch = true
				break
			}
		}
		// A high precipitation probability counts even when the primary
		// condition string doesn't name the type yet.
		if !typeMatch {
			if snap.PrecipitationChance == nil || *snap.PrecipitationChance <= probabilityImpliesPrecip {
				return false
			}
		}
	}

	return InRange(snap.PrecipitationChance, cond.Probability)
}

// conditionMatchesType is a case-insensitive substring match in both
// directions, widened by the alias table.
func conditionMatchesType(weatherMain, precipType string) bool {
	if weatherMain == "" {
		return false
	}
	main := strings.ToLower(weatherMain)
	typ := strings.ToLower(precipType)

	if strings.Contains(main, typ) || strings.Contains(typ, main) {
		return true
	}
	for _, alias := range precipAliases[typ] {
		if strings.Contains(main, alias) {
			return true
		}
	}
	return false
}
